// Package classify decides how an inbound message is answered.
package classify

import (
	"strings"

	"github.com/comigor/magic8ball-go/internal/transport"
)

// Kind is the classification of one inbound message.
type Kind int

const (
	// FirstContact: the message opens the conversation.
	FirstContact Kind = iota
	// HelpCommand: the message is the help command.
	HelpCommand
	// Question: anything else, including empty or non yes/no text.
	Question
)

func (k Kind) String() string {
	switch k {
	case FirstContact:
		return "first-contact"
	case HelpCommand:
		return "help-command"
	case Question:
		return "question"
	default:
		return "unknown"
	}
}

// DefaultHelpCommand is the command token used when none is configured.
const DefaultHelpCommand = "/help"

// Classifier is a pure decision function over conversation history and text.
type Classifier struct {
	helpCommand string
}

// New returns a Classifier recognising helpCommand (case-insensitive).
func New(helpCommand string) Classifier {
	h := Normalize(helpCommand)
	if h == "" {
		h = DefaultHelpCommand
	}
	return Classifier{helpCommand: h}
}

// HelpCommand returns the normalized command token.
func (c Classifier) HelpCommand() string { return c.helpCommand }

// Classify returns FirstContact when history holds at most this message,
// otherwise HelpCommand or Question based on the normalized text.
func (c Classifier) Classify(history []transport.Message, text string) Kind {
	if IsFirstContact(history) {
		return FirstContact
	}
	if Normalize(text) == c.helpCommand {
		return HelpCommand
	}
	return Question
}

// IsFirstContact is derived from history length, never stored.
func IsFirstContact(history []transport.Message) bool {
	return len(history) <= 1
}

// Normalize trims whitespace and folds case.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
