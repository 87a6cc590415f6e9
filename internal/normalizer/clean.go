package normalizer

import (
	"regexp"
	"strings"
)

var (
	blankLines = regexp.MustCompile(`\n\s*\n`)
	hSpace     = regexp.MustCompile(`[ \t]+`)
)

var signatureMarkers = map[string]bool{
	"--":           true,
	"---":          true,
	"Best regards": true,
	"Sincerely":    true,
	"Thanks":       true,
}

// quoteCutoffLine is the first line index at which a quoted reply ends the body
const quoteCutoffLine = 11

// cleanBody collapses whitespace and drops signatures and quoted replies; the caller caps the length
func cleanBody(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = blankLines.ReplaceAllString(content, "\n\n")
	content = hSpace.ReplaceAllString(content, " ")

	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if signatureMarkers[trimmed] {
			break
		}
		if i >= quoteCutoffLine && strings.HasPrefix(trimmed, ">") {
			break
		}
		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}
