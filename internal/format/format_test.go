package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newFormatter() *Formatter {
	return New(Identity{Address: "0xabc", Env: "dev", PoweredBy: "OpenAI"}, "/help")
}

func TestFormat_Welcome(t *testing.T) {
	f := newFormatter()
	out, err := f.Format(Response{Kind: Welcome, Text: "ignored"})
	require.NoError(t, err)
	require.Equal(t, f.WelcomeText(), out)
	require.Contains(t, out, "/help")
}

func TestFormat_Help(t *testing.T) {
	f := newFormatter()
	out, err := f.Format(Response{Kind: Help})
	require.NoError(t, err)
	require.Equal(t, `🔮 Magic 8 Ball 🔮

Ask me a yes/no question and I will consult the spirits.

Commands:
  /help — this message

Address: 0xabc
Network: dev

Powered by XMTP + OpenAI`, out)
}

func TestFormat_HelpWithoutIdentity(t *testing.T) {
	out := New(Identity{}, "/help").HelpText()
	require.NotContains(t, out, "Address:")
	require.True(t, strings.HasSuffix(out, "Powered by XMTP"))
}

func TestFormat_Answers(t *testing.T) {
	f := newFormatter()
	for _, r := range []Response{Canned("Outlook good."), Generated("  The stars whisper yes.\n")} {
		out, err := f.Format(r)
		require.NoError(t, err)
		require.Contains(t, out, strings.TrimSpace(r.Text))
		require.True(t, strings.HasPrefix(out, divider))
		require.True(t, strings.HasSuffix(out, callToAct))
	}
	require.Equal(t, f.AnswerText("Yes."), f.AnswerText("Yes."), "deterministic")
}

func TestFormat_UnknownKind(t *testing.T) {
	_, err := newFormatter().Format(Response{Kind: Kind(42)})
	require.Error(t, err)
	require.Contains(t, err.Error(), "kind(42)")
}
