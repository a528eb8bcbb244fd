// Package format renders replies into the exact outbound text.
package format

import (
	"fmt"
	"strings"
)

// Kind selects the template for a Response.
type Kind int

const (
	Welcome Kind = iota
	Help
	CannedAnswer
	GeneratedAnswer
)

func (k Kind) String() string {
	switch k {
	case Welcome:
		return "welcome"
	case Help:
		return "help"
	case CannedAnswer:
		return "canned-answer"
	case GeneratedAnswer:
		return "generated-answer"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Response is a reply before rendering. Text is only set for answers.
type Response struct {
	Kind Kind
	Text string
}

// Canned wraps a catalog phrase.
func Canned(phrase string) Response { return Response{Kind: CannedAnswer, Text: phrase} }

// Generated wraps an oracle reply.
func Generated(text string) Response { return Response{Kind: GeneratedAnswer, Text: text} }

// Identity is shown in the help text.
type Identity struct {
	Address string
	Env     string
	// PoweredBy names the answer source, e.g. "OpenAI" or "the ancient catalog".
	PoweredBy string
}

const (
	banner    = "🔮 Magic 8 Ball 🔮"
	divider   = "🔮 ✨ 🔮"
	callToAct = "Ask another question to consult the spirits again."
)

// Formatter renders responses. It has no side effects.
type Formatter struct {
	id          Identity
	helpCommand string
}

// New returns a Formatter for the given identity and help command token.
func New(id Identity, helpCommand string) *Formatter {
	return &Formatter{id: id, helpCommand: helpCommand}
}

// Format returns the outbound text for r.
func (f *Formatter) Format(r Response) (string, error) {
	switch r.Kind {
	case Welcome:
		return f.WelcomeText(), nil
	case Help:
		return f.HelpText(), nil
	case CannedAnswer, GeneratedAnswer:
		return f.AnswerText(r.Text), nil
	default:
		return "", fmt.Errorf("format: unknown response kind %s", r.Kind)
	}
}

// WelcomeText is sent for the first message of a conversation.
func (f *Formatter) WelcomeText() string {
	return banner + `

Welcome, seeker. I am the Magic 8 Ball.
Ask me any yes or no question and I will consult the spirits.

Send ` + f.helpCommand + ` to see what I can do.`
}

// HelpText lists the commands and who is answering.
func (f *Formatter) HelpText() string {
	var b strings.Builder
	b.WriteString(banner)
	b.WriteString("\n\nAsk me a yes/no question and I will consult the spirits.\n\n")
	b.WriteString("Commands:\n")
	fmt.Fprintf(&b, "  %s — this message\n", f.helpCommand)
	if f.id.Address != "" {
		fmt.Fprintf(&b, "\nAddress: %s\n", f.id.Address)
	}
	if f.id.Env != "" {
		fmt.Fprintf(&b, "Network: %s\n", f.id.Env)
	}
	b.WriteString("\nPowered by XMTP")
	if f.id.PoweredBy != "" {
		b.WriteString(" + ")
		b.WriteString(f.id.PoweredBy)
	}
	return b.String()
}

// AnswerText frames an answer.
func (f *Formatter) AnswerText(answer string) string {
	return divider + "\n\n" + strings.TrimSpace(answer) + "\n\n" + divider + "\n" + callToAct
}
