package agent

import (
	"context"

	"github.com/comigor/magic8ball-go/internal/catalog"
	"github.com/comigor/magic8ball-go/internal/format"
	"github.com/comigor/magic8ball-go/internal/oracle"
)

// Answerer produces the answer to a question.
type Answerer interface {
	Answer(ctx context.Context, question string) (format.Response, error)
}

// CatalogAnswerer answers with a random canonical phrase, ignoring the question.
type CatalogAnswerer struct {
	Catalog *catalog.Catalog
}

func (c CatalogAnswerer) Answer(_ context.Context, _ string) (format.Response, error) {
	return format.Canned(c.Catalog.Pick()), nil
}

// OracleAnswerer asks the language model.
type OracleAnswerer struct {
	Brain *oracle.Brain
}

func (o OracleAnswerer) Answer(ctx context.Context, question string) (format.Response, error) {
	text, err := o.Brain.Ask(ctx, question)
	if err != nil {
		return format.Response{}, err
	}
	return format.Generated(text), nil
}
