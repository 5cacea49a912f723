package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const body = "### AAA\n\n" +
	"- As of **2024-03-01**, AAA closed at **123.46**.\n" +
	"- Trend: **down** | Sentiment: **very_bearish**.\n"

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModePlain, "plain": ModePlain, "Markdown": ModeMarkdown, " none ": ModeNone} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("html")
	assert.Error(t, err)
}

// A bytes.Buffer is not a terminal, so styles render without escapes.
func TestPainter_Body(t *testing.T) {
	p := NewPainter(&bytes.Buffer{})
	out := p.Body(body)

	assert.Contains(t, out, "- Trend: ↓ Down | Sentiment: **very_bearish**.")
	assert.Contains(t, out, "closed at **123.46**.")
}

func TestPainter_Labels(t *testing.T) {
	p := NewPainter(&bytes.Buffer{})

	assert.Equal(t, "↑ Up", p.Trend("**up**"))
	assert.Equal(t, "↓ Down", p.Trend("down"))
	assert.Equal(t, "→ Flat", p.Trend("flat"))
	assert.Equal(t, "bullish", p.Sentiment("bullish"))
}

func TestPainter_LinesWithoutLabelsUnchanged(t *testing.T) {
	p := NewPainter(&bytes.Buffer{})
	in := "### AAA\n\n- No recent price data available.\n"
	assert.Equal(t, in, p.Body(in))
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ModeNone, "raw"))
	assert.Equal(t, "raw\n", buf.String())

	buf.Reset()
	require.NoError(t, Write(&buf, ModePlain, body))
	assert.Contains(t, buf.String(), "↓ Down")

	buf.Reset()
	require.NoError(t, Write(&buf, ModeMarkdown, body))
	assert.Contains(t, buf.String(), "AAA")
	assert.Contains(t, buf.String(), "123.46")
}
