package agent

import (
	"context"
	"fmt"

	"github.com/comigor/magic8ball-go/internal/classify"
	"github.com/comigor/magic8ball-go/internal/format"
	"github.com/comigor/magic8ball-go/internal/transport"

	"github.com/qmuntal/stateless" // FSM library
)

// FSM States. The starting state is derived from history on every message;
// nothing is persisted.
type FSMState stateless.State

var (
	StateNew         FSMState = "New"         // history holds only this message
	StateEstablished FSMState = "Established" // earlier messages exist
	StateWelcomed    FSMState = "Welcomed"
	StateHelpShown   FSMState = "HelpShown"
	StateAnswered    FSMState = "Answered"
)

// FSM Triggers
type FSMTrigger stateless.Trigger

var (
	TriggerFirstContact FSMTrigger = "FirstContact"
	TriggerHelp         FSMTrigger = "Help"
	TriggerQuestion     FSMTrigger = "Question"
)

func triggerFor(k classify.Kind) (FSMTrigger, error) {
	switch k {
	case classify.FirstContact:
		return TriggerFirstContact, nil
	case classify.HelpCommand:
		return TriggerHelp, nil
	case classify.Question:
		return TriggerQuestion, nil
	default:
		return nil, fmt.Errorf("no trigger for classification %s", k)
	}
}

// respond runs one message through the dispatch machine and returns the
// rendered reply.
func (a *Agent) respond(ctx context.Context, history []transport.Message, text string) (string, error) {
	var resp format.Response

	initial := StateEstablished
	if classify.IsFirstContact(history) {
		initial = StateNew
	}
	fsm := stateless.NewStateMachine(initial)

	fsm.Configure(StateNew).
		Permit(TriggerFirstContact, StateWelcomed)

	fsm.Configure(StateEstablished).
		Permit(TriggerHelp, StateHelpShown).
		Permit(TriggerQuestion, StateAnswered)

	fsm.Configure(StateWelcomed).
		OnEntry(func(ctx context.Context, args ...any) error {
			resp = format.Response{Kind: format.Welcome}
			return nil
		})

	fsm.Configure(StateHelpShown).
		OnEntry(func(ctx context.Context, args ...any) error {
			resp = format.Response{Kind: format.Help}
			return nil
		})

	fsm.Configure(StateAnswered).
		OnEntry(func(ctx context.Context, args ...any) error {
			r, err := a.answerer.Answer(ctx, text)
			if err != nil {
				return fmt.Errorf("answer: %w", err)
			}
			resp = r
			return nil
		})

	kind := a.classifier.Classify(history, text)
	trigger, err := triggerFor(kind)
	if err != nil {
		return "", err
	}
	a.log.Debug("FSM: dispatching", "from", initial, "classification", kind.String())

	if err := fsm.FireCtx(ctx, trigger); err != nil {
		return "", err
	}
	return a.formatter.Format(resp)
}
