package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/cadetprep/internal/assistant"
)

// TextWriter outputs human-readable terminal text.
type TextWriter struct {
	Disclaimer bool
}

func (t *TextWriter) WriteResult(w io.Writer, res assistant.Result) error {
	ew := &errWriter{w: w}

	ew.printf("AI content: %s", res.Topic)
	if res.Cached {
		ew.printf(" (cached)")
	}
	ew.println("")
	ew.println(strings.Repeat("─", 60))

	if !res.Available {
		ew.println("Nothing generated.")
		if res.Message != "" {
			ew.printf("  %s\n", res.Message)
		}
		return ew.err
	}

	t.writeCards(ew, cards(res.Items))

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	if t.Disclaimer {
		for _, line := range wrapText(Disclaimer, 70) {
			ew.printf("%s\n", line)
		}
	}
	ew.printf("Completed in %dms (generate: %dms, repair: %dms)\n",
		res.Timing.TotalMs, res.Timing.GenerateMs, res.Timing.RepairMs)
	return ew.err
}

func (t *TextWriter) WriteHistory(w io.Writer, topic string, history []assistant.HistoryEntry) error {
	ew := &errWriter{w: w}
	if len(history) == 0 {
		ew.println("No cached responses yet. Generate AI content first.")
		return ew.err
	}
	ew.printf("Previous AI responses for %s (%d saved)\n", topic, len(history))
	for i, h := range history {
		ew.printf("\n%s\n", strings.Repeat("═", 60))
		ew.printf("Response %d - %s\n", i+1, historyTime(h.Timestamp))
		ew.println(strings.Repeat("═", 60))
		t.writeCards(ew, cards(h.Items))
	}
	return ew.err
}

func (t *TextWriter) writeCards(ew *errWriter, cs []card) {
	for _, c := range cs {
		if c.Heading != "" {
			ew.printf("\n[AI] %s\n", c.Heading)
		}
		if c.Subheading != "" {
			ew.printf("  %s\n", c.Subheading)
		}
		if len(c.Tags) > 0 {
			ew.printf("  %s\n", strings.Join(c.Tags, " | "))
		}
		for _, para := range strings.Split(c.Body, "\n") {
			for _, line := range wrapText(para, 70) {
				ew.printf("    %s\n", line)
			}
		}
		if c.Tip != "" {
			ew.println("  Interview tip:")
			for _, line := range wrapText(c.Tip, 70) {
				ew.printf("    %s\n", line)
			}
		}
	}
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
