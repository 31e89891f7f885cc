package solution

import (
	"regexp"
	"strings"
)

// Step markers in precedence order. Each captures the step's opening text.
var stepMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*(?:#+\s*)?(?:\*\*)?step\s+\d+\s*:(?:\*\*)?\s*(.*)$`),
	regexp.MustCompile(`^\s*\d+\.(?:\s+(.*))?$`),
	regexp.MustCompile(`^\s*\d+\)(?:\s+(.*))?$`),
}

func matchMarker(line string) (string, bool) {
	for _, re := range stepMarkers {
		if m := re.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// ParseSteps splits free-form model output into ordered step strings.
//
// A line opens a new step when it starts with "Step N:", "N." or "N)".
// Other non-blank lines are appended to the open step, joined by a
// space. Text before the first marker is dropped, and steps that end up
// empty are omitted.
func ParseSteps(text string) []string {
	var (
		steps []string
		cur   strings.Builder
		open  bool
	)

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			steps = append(steps, s)
		}
		cur.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if content, ok := matchMarker(line); ok {
			if open {
				flush()
			}
			open = true
			cur.WriteString(strings.TrimSpace(content))
			continue
		}

		trimmed := strings.TrimSpace(line)
		if !open || trimmed == "" {
			continue
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(trimmed)
	}
	if open {
		flush()
	}
	return steps
}
