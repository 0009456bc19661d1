package output

import (
	"io"
	"strings"

	"github.com/dshills/cadetprep/internal/assistant"
)

// MarkdownWriter outputs generated content as markdown, one section per
// item and a collapsible block per history entry.
type MarkdownWriter struct {
	Disclaimer bool
}

func (m *MarkdownWriter) WriteResult(w io.Writer, res assistant.Result) error {
	ew := &errWriter{w: w}
	ew.printf("## :robot: AI Insights: %s\n\n", res.Topic)

	if !res.Available {
		ew.println("_Nothing generated._")
		if res.Message != "" {
			ew.printf("\n> %s\n", res.Message)
		}
		return ew.err
	}
	if m.Disclaimer {
		ew.printf("> :warning: **AI-Generated Content:** %s\n\n", Disclaimer)
	}

	m.writeCards(ew, cards(res.Items), "###")

	source := "fresh"
	if res.Cached {
		source = "cached"
	}
	ew.printf("*Generated in %dms (%s)*\n", res.Timing.TotalMs, source)
	return ew.err
}

func (m *MarkdownWriter) WriteHistory(w io.Writer, topic string, history []assistant.HistoryEntry) error {
	ew := &errWriter{w: w}
	ew.printf("## :scroll: Previous AI Responses: %s (%d saved)\n\n", topic, len(history))
	if len(history) == 0 {
		ew.println("No cached responses yet. Generate AI content first.")
		return ew.err
	}
	for i, h := range history {
		open := ""
		if i == 0 {
			open = " open"
		}
		ew.printf("<details%s>\n<summary>Response %d - %s</summary>\n\n", open, i+1, historyTime(h.Timestamp))
		m.writeCards(ew, cards(h.Items), "####")
		ew.printf("</details>\n\n")
	}
	return ew.err
}

func (m *MarkdownWriter) writeCards(ew *errWriter, cs []card, heading string) {
	for _, c := range cs {
		if c.Heading != "" {
			ew.printf("%s %s\n\n", heading, c.Heading)
		}
		var meta []string
		if c.Subheading != "" {
			meta = append(meta, "**"+c.Subheading+"**")
		}
		for _, tag := range c.Tags {
			meta = append(meta, "`"+tag+"`")
		}
		if len(meta) > 0 {
			ew.printf("%s\n\n", strings.Join(meta, " | "))
		}
		if c.Body != "" {
			ew.printf("%s\n\n", c.Body)
		}
		if c.Tip != "" {
			ew.printf("> :bulb: **Interview Tip:** %s\n\n", c.Tip)
		}
		ew.printf("---\n\n")
	}
}
