package automation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// DefaultConfirmationPatterns are tried in order against each confirmation
// region. The first capture group is the identifier.
var DefaultConfirmationPatterns = []string{
	`(?i)case\s*#?\s*:?\s*([A-Z0-9][A-Z0-9-]{3,})`,
	`(?i)reference\s*(?:number|#)?\s*:?\s*([A-Z0-9][A-Z0-9-]{3,})`,
	`(?i)ticket\s*#?\s*:?\s*([A-Z0-9][A-Z0-9-]{3,})`,
	`(?i)request\s*(?:id|#)?\s*:?\s*([A-Z0-9][A-Z0-9-]{3,})`,
}

var confirmationKeywords = []string{
	"confirm", "received", "submitted", "thank", "reference", "case", "ticket", "request",
}

// ExtractConfirmation reads prioritized confirmation-bearing regions of the
// current page and applies the ordered patterns. If nothing matches, a
// synthesized identifier is returned; this never fails.
func (s *Session) ExtractConfirmation(platformName string, banners []string, patterns []string) string {
	if len(patterns) == 0 {
		patterns = DefaultConfirmationPatterns
	}

	var regions []string
	for _, loc := range banners {
		if el, ok := s.find(loc); ok {
			if text, err := el.Text(); err == nil && strings.TrimSpace(text) != "" {
				regions = append(regions, text)
			}
		}
	}
	if info, err := s.page.Info(); err == nil && info.Title != "" {
		regions = append(regions, info.Title)
	}
	if raw, err := s.page.HTML(); err == nil {
		excerpt := truncate(VisibleText(raw), 500)
		if ContainsConfirmationKeyword(excerpt) {
			regions = append(regions, excerpt)
		}
	}

	for _, region := range regions {
		if id := MatchConfirmation(region, patterns); id != "" {
			return id
		}
	}
	s.log.Infow("no confirmation pattern matched, synthesizing id", "platform", platformName)
	return SynthesizeConfirmationID(platformName, time.Now())
}

// MatchConfirmation applies the ordered patterns and returns the first
// captured identifier, or "".
func MatchConfirmation(text string, patterns []string) string {
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		if m := re.FindStringSubmatch(text); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}

// ContainsConfirmationKeyword reports whether the text looks like it belongs
// to a confirmation region at all.
func ContainsConfirmationKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range confirmationKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// SynthesizeConfirmationID builds the fallback identifier for a platform
// whose confirmation page yielded no parsable id.
func SynthesizeConfirmationID(platformName string, at time.Time) string {
	return fmt.Sprintf("%s_AUTO_%d", strings.ToUpper(platformName), at.Unix())
}

// VisibleText extracts the visible text content from an HTML document,
// skipping script and style subtrees.
func VisibleText(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	var sb strings.Builder
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				sb.WriteString(t)
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return strings.TrimSpace(sb.String())
}

// truncate cuts at a rune boundary so multi-byte characters never split.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
