package automation

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestMatchConfirmation(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"case number", "Your case #20451234 has been created", "20451234"},
		{"case with colon", "Case: AB-99821", "AB-99821"},
		{"reference number", "Reference number: REF-2024-0042", "REF-2024-0042"},
		{"ticket", "Ticket #HD8812 was opened for you", "HD8812"},
		{"request id", "Request ID: 7F3A9B21", "7F3A9B21"},
		{"request id lowercase", "request id: 7f3a9b21", "7f3a9b21"},
		{"no identifier", "Thank you for contacting support", ""},
		{"too short", "case #ab", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchConfirmation(tt.text, DefaultConfirmationPatterns))
		})
	}
}

func TestMatchConfirmationCustomPatterns(t *testing.T) {
	patterns := []string{`(?i)case\s*(?:id|#)?\s*:?\s*(\d{6,})`}
	assert.Equal(t, "123456789", MatchConfirmation("Google Support Case 123456789", patterns))
	assert.Equal(t, "", MatchConfirmation("Case 12345", patterns), "below minimum length")
}

func TestContainsConfirmationKeyword(t *testing.T) {
	assert.True(t, ContainsConfirmationKeyword("Your request has been Received"))
	assert.True(t, ContainsConfirmationKeyword("Thank you!"))
	assert.False(t, ContainsConfirmationKeyword("Sign in to continue"))
}

func TestSynthesizeConfirmationID(t *testing.T) {
	at := time.Unix(1700000000, 0)
	assert.Equal(t, "LINKEDIN_AUTO_1700000000", SynthesizeConfirmationID("linkedin", at))
}

func TestVisibleText(t *testing.T) {
	raw := `<html><head><title>ignored</title><style>body{}</style></head>
	<body><script>var x = 1;</script><h1>Request received</h1>
	<p>Case #20451234</p><noscript>enable js</noscript></body></html>`

	text := VisibleText(raw)
	assert.Contains(t, text, "Request received")
	assert.Contains(t, text, "Case #20451234")
	assert.NotContains(t, text, "var x")
	assert.NotContains(t, text, "body{}")
	assert.NotContains(t, text, "enable js")
	assert.NotContains(t, text, "ignored")
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	// 3-byte runes: a 500-byte cut would land mid-rune.
	s := strings.Repeat("確", 200)
	out := truncate(s, 500)
	assert.True(t, utf8.ValidString(out))
	assert.Len(t, out, 498)

	assert.Equal(t, "abc", truncate("abc", 500), "short strings pass through")
	assert.Equal(t, "abcde", truncate("abcdef", 5))
}

func TestVisibleTextMalformed(t *testing.T) {
	// html.Parse is lenient; truncated markup still yields its text.
	assert.Contains(t, VisibleText("<div><p>dangling"), "dangling")
}
