package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dshills/cadetprep/internal/assistant"
	"github.com/dshills/cadetprep/internal/topics"
)

// Disclaimer is shown under generated content when enabled.
const Disclaimer = "AI-generated content may not be 100% accurate. Always verify important information from official sources."

// Writer renders generated content in a specific format.
type Writer interface {
	WriteResult(w io.Writer, res assistant.Result) error
	WriteHistory(w io.Writer, topic string, history []assistant.HistoryEntry) error
}

// Options tune the human-readable writers.
type Options struct {
	Disclaimer bool
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string, opts Options) (Writer, error) {
	switch format {
	case "text", "":
		return &TextWriter{Disclaimer: opts.Disclaimer}, nil
	case "markdown", "md":
		return &MarkdownWriter{Disclaimer: opts.Disclaimer}, nil
	case "json":
		return &JSONWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteResult writes res to outPath, or to stdout when outPath is empty.
func WriteResult(res assistant.Result, format, outPath string, opts Options) error {
	writer, err := GetWriter(format, opts)
	if err != nil {
		return err
	}
	return toDestination(outPath, func(w io.Writer) error {
		return writer.WriteResult(w, res)
	})
}

// WriteHistory writes a topic history to outPath, or to stdout when outPath
// is empty.
func WriteHistory(topic string, history []assistant.HistoryEntry, format, outPath string, opts Options) error {
	writer, err := GetWriter(format, opts)
	if err != nil {
		return err
	}
	return toDestination(outPath, func(w io.Writer) error {
		return writer.WriteHistory(w, topic, history)
	})
}

func toDestination(outPath string, fn func(io.Writer) error) error {
	if outPath == "" {
		return fn(os.Stdout)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// card is the display form shared by every topic payload.
type card struct {
	Heading    string
	Subheading string
	Tags       []string
	Body       string
	Tip        string
}

func cards(items any) []card {
	var out []card
	switch v := items.(type) {
	case []topics.DictionaryTerm:
		for _, t := range v {
			out = append(out, card{Heading: t.Term, Subheading: t.FullName, Tags: nonEmpty(t.Category, t.Difficulty), Body: t.Definition})
		}
	case []topics.NewsItem:
		for _, n := range v {
			out = append(out, card{Heading: n.Title, Subheading: string(n.Date), Tags: n.Category, Body: n.Content, Tip: n.InterviewTip})
		}
	case []topics.HistoryEvent:
		for _, e := range v {
			out = append(out, card{Heading: strconv.Itoa(e.Year) + ": " + e.Title, Tags: nonEmpty(e.Era), Body: e.Content})
		}
	case []topics.Insight:
		for _, i := range v {
			out = append(out, card{Heading: i.Title, Tags: nonEmpty(i.Category), Body: i.Content, Tip: i.InterviewTip})
		}
	case []topics.FutureTrend:
		for _, f := range v {
			out = append(out, card{Heading: f.Title, Subheading: f.Timeline, Tags: nonEmpty(f.Category), Body: f.Content, Tip: f.InterviewTip})
		}
	case topics.Tips:
		out = append(out, card{Heading: "Tips: " + v.Aircraft, Body: v.Text})
	case json.RawMessage:
		out = append(out, card{Body: string(v)})
	case nil:
	default:
		data, err := json.Marshal(v)
		if err == nil {
			out = append(out, card{Body: string(data)})
		}
	}
	return out
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func historyTime(t time.Time) string {
	return t.Format("Jan 02, 2006 at 15:04")
}
