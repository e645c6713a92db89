package analyst

import (
	"regexp"
	"strings"
)

var (
	codeFencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\n(.*?)\\n?```$")

	// Disclaimers models like to slip in, inline or as whole lines.
	parenNotePattern   = regexp.MustCompile(`(?i)\((?:note|disclaimer)\s*:[^)]*\)`)
	bracketNotePattern = regexp.MustCompile(`(?i)\[(?:note|disclaimer)\s*:[^\]]*\]`)
	lineNotePattern    = regexp.MustCompile(`(?i)^(?:note|disclaimer)\s*:`)
)

// SanitizeBriefing strips model chrome from a generated briefing: a
// surrounding Markdown code fence and "Note:" style disclaimers, whether
// inline, parenthesized or spanning a full line.
func SanitizeBriefing(text string) string {
	text = strings.TrimSpace(text)
	if m := codeFencePattern.FindStringSubmatch(text); m != nil {
		text = m[1]
	}

	text = parenNotePattern.ReplaceAllString(text, "")
	text = bracketNotePattern.ReplaceAllString(text, "")

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if lineNotePattern.MatchString(strings.TrimSpace(line)) {
			continue
		}
		// Collapse trailing whitespace the regex removals leave behind.
		kept = append(kept, strings.TrimRight(line, " \t"))
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
