package topics

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DictionaryTerm is a generated aviation term.
type DictionaryTerm struct {
	Term       string `json:"term"`
	FullName   string `json:"full_name,omitempty"`
	Category   string `json:"category,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Definition string `json:"definition"`
}

// NewsItem is a generated industry news summary.
type NewsItem struct {
	Title        string     `json:"title"`
	Date         FlexString `json:"date,omitempty"`
	Category     Categories `json:"category,omitempty"`
	Content      string     `json:"content"`
	InterviewTip string     `json:"interview_tip,omitempty"`
}

// HistoryEvent is a generated timeline event.
type HistoryEvent struct {
	Year    int    `json:"year"`
	Era     string `json:"era,omitempty"`
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
}

// UnmarshalJSON accepts integral floats such as 1969.0 for the year, which
// the schema's integer type lets through.
func (e *HistoryEvent) UnmarshalJSON(data []byte) error {
	type plain HistoryEvent
	var raw struct {
		plain
		Year json.Number `json:"year"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = HistoryEvent(raw.plain)
	if raw.Year == "" {
		return nil
	}
	f, err := raw.Year.Float64()
	if err != nil {
		return fmt.Errorf("year: %w", err)
	}
	if f != math.Trunc(f) {
		return fmt.Errorf("year %s is not a whole number", raw.Year)
	}
	e.Year = int(f)
	return nil
}

// Insight is a generated fact about the fleet or the route network.
type Insight struct {
	Title        string `json:"title"`
	Category     string `json:"category,omitempty"`
	Content      string `json:"content"`
	InterviewTip string `json:"interview_tip,omitempty"`
}

// FutureTrend is a generated emerging technology or trend.
type FutureTrend struct {
	Title        string `json:"title"`
	Timeline     string `json:"timeline,omitempty"`
	Category     string `json:"category,omitempty"`
	Content      string `json:"content"`
	InterviewTip string `json:"interview_tip,omitempty"`
}

// Tips is free-text advice about one training aircraft.
type Tips struct {
	Aircraft string `json:"aircraft"`
	Text     string `json:"text"`
}

// Categories accepts either a single string or a list of strings.
type Categories []string

func (c *Categories) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one == "" {
			*c = nil
		} else {
			*c = Categories{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*c = many
	return nil
}

// String joins the categories for display.
func (c Categories) String() string { return strings.Join(c, ", ") }

// FlexString accepts a JSON string or number.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*f = FlexString(strconv.FormatInt(i, 10))
		return nil
	}
	*f = FlexString(n.String())
	return nil
}
