package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/cadetprep/internal/assistant"
)

// JSONWriter outputs results and histories as indented JSON.
type JSONWriter struct{}

func (j *JSONWriter) WriteResult(w io.Writer, res assistant.Result) error {
	return writeJSON(w, res)
}

func (j *JSONWriter) WriteHistory(w io.Writer, topic string, history []assistant.HistoryEntry) error {
	if history == nil {
		history = []assistant.HistoryEntry{}
	}
	return writeJSON(w, struct {
		Topic   string                   `json:"topic"`
		Entries []assistant.HistoryEntry `json:"entries"`
	}{topic, history})
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
