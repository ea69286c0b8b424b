package verifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/starford/raido/internal/models"
)

const ruleWidth = 40

// Render formats a report as the delimited block printed back to the host.
// The banner/footer framing is a presentation contract: hosts display the
// block verbatim, so it must stay bounded and clearly delimited.
func Render(r *models.BuildReport, fileCount int, timedOut bool, timeout time.Duration) string {
	var b strings.Builder

	header := "── raido build check "
	b.WriteString(header)
	b.WriteString(strings.Repeat("─", ruleWidth-len([]rune(header))))
	b.WriteString("\n")
	fmt.Fprintf(&b, "command: %s\n", r.Command)
	fmt.Fprintf(&b, "%d file(s) changed this session\n", fileCount)

	switch {
	case !r.Succeeded && timedOut:
		fmt.Fprintf(&b, "build timed out after %s\n", timeout)
		writeLines(&b, r.IssueLines)
	case !r.Succeeded:
		b.WriteString("build failed\n")
		writeLines(&b, r.IssueLines)
	case r.Truncated:
		fmt.Fprintf(&b, "build passed with %d error/warning line(s)\n", r.IssueCount)
		fmt.Fprintf(&b, "re-run for full detail: %s\n", r.Command)
	case r.IssueCount > 0:
		fmt.Fprintf(&b, "build passed with %d flagged line(s):\n", r.IssueCount)
		writeLines(&b, r.IssueLines)
	default:
		b.WriteString("build passed, no issues detected\n")
	}

	b.WriteString(strings.Repeat("─", ruleWidth))
	b.WriteString("\n")
	return b.String()
}

func writeLines(b *strings.Builder, lines []string) {
	for _, line := range lines {
		fmt.Fprintf(b, "  %s\n", line)
	}
}
