package oracle

import (
	"strings"

	"github.com/comigor/magic8ball-go/internal/catalog"
)

// PersonaMystic answers in character, in one or two sentences.
const PersonaMystic = `You are the Mysterious Magic 8 Ball — an ancient, all-knowing oracle that answers yes/no questions.

Rules:
- Keep responses to 1-2 sentences maximum
- Be cryptic, mystical, and dramatic
- Sometimes be playful or ominously vague
- If the question isn't a yes/no question, gently redirect: "The spirits require a yes or no question..."
- Never break character
- Never mention that you are an AI or a language model`

// PersonaStrict returns the persona that answers yes/no questions with one
// canonical phrase and nothing else.
func PersonaStrict() string {
	var b strings.Builder
	b.WriteString(`You are a Magic 8 Ball.

First decide whether the message is a yes/no question.
- If it is, reply with exactly one of the following answers, copied verbatim, with no other text:
`)
	for _, p := range catalog.Phrases {
		b.WriteString("  ")
		b.WriteString(p)
		b.WriteByte('\n')
	}
	b.WriteString(`- If it is not, stay in character as a theatrical, mysterious oracle and tell the asker,
  in one or two sentences, that the spirits only answer yes or no questions.
- Never break character and never mention that you are an AI or a language model.`)
	return b.String()
}

// ResolvePersona maps a configured persona name to its instruction text.
// Anything that is not a known name is used as the instruction itself.
func ResolvePersona(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mystic":
		return PersonaMystic
	case "strict":
		return PersonaStrict()
	default:
		return name
	}
}
