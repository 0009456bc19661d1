package topics

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Topic names. Each is also the name of a dashboard page.
const (
	Dictionary       = "dictionary"
	News             = "news"
	History          = "history"
	Fleet            = "fleet"
	Destinations     = "destinations"
	Future           = "future"
	TrainingAircraft = "training_aircraft"
)

// ErrUnknownTopic is returned for names outside the fixed topic set.
var ErrUnknownTopic = errors.New("unknown topic")

// ErrNoJSON is returned by ParseJSON when the text holds no JSON document.
var ErrNoJSON = errors.New("response is not valid JSON")

var all = []string{Dictionary, News, History, Fleet, Destinations, Future, TrainingAircraft}

var schemaFiles = map[string]string{
	Dictionary:       "dictionary.json",
	News:             "news.json",
	History:          "history.json",
	Fleet:            "insight.json",
	Destinations:     "insight.json",
	Future:           "future.json",
	TrainingAircraft: "training_aircraft.json",
}

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	schemasOnce sync.Once
	schemas     map[string]*gojsonschema.Schema
	schemasErr  error
)

// All returns every topic name in page order.
func All() []string {
	out := make([]string, len(all))
	copy(out, all)
	return out
}

// Known reports whether topic is one of the fixed topics.
func Known(topic string) bool {
	_, ok := schemaFiles[topic]
	return ok
}

// IsList reports whether the topic's payload is a JSON array of items.
func IsList(topic string) bool {
	return Known(topic) && topic != TrainingAircraft
}

// Schema returns the raw JSON schema for topic.
func Schema(topic string) ([]byte, error) {
	name, ok := schemaFiles[topic]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}
	return schemaFS.ReadFile("schemas/" + name)
}

func loadSchemas() (map[string]*gojsonschema.Schema, error) {
	schemasOnce.Do(func() {
		compiled := make(map[string]*gojsonschema.Schema, len(schemaFiles))
		for topic := range schemaFiles {
			raw, err := Schema(topic)
			if err != nil {
				schemasErr = err
				return
			}
			s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
			if err != nil {
				schemasErr = fmt.Errorf("compiling %s schema: %w", topic, err)
				return
			}
			compiled[topic] = s
		}
		schemas = compiled
	})
	return schemas, schemasErr
}

// ValidationError lists the schema violations found in a payload.
type ValidationError struct {
	Topic    string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s payload does not match schema: %s", e.Topic, strings.Join(e.Problems, "; "))
}

// Validate checks raw against the topic's JSON schema.
func Validate(topic string, raw []byte) error {
	if !Known(topic) {
		return fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}
	if !json.Valid(raw) {
		return ErrNoJSON
	}
	compiled, err := loadSchemas()
	if err != nil {
		return err
	}
	result, err := compiled[topic].Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		verr := &ValidationError{Topic: topic}
		for _, re := range result.Errors() {
			verr.Problems = append(verr.Problems, re.String())
		}
		return verr
	}
	return nil
}

// Decode validates raw and unmarshals it into the topic's concrete type:
// []DictionaryTerm, []NewsItem, []HistoryEvent, []Insight, []FutureTrend or
// Tips.
func Decode(topic string, raw []byte) (any, error) {
	if err := Validate(topic, raw); err != nil {
		return nil, err
	}
	switch topic {
	case Dictionary:
		return decodeAs[[]DictionaryTerm](raw)
	case News:
		return decodeAs[[]NewsItem](raw)
	case History:
		return decodeAs[[]HistoryEvent](raw)
	case Fleet, Destinations:
		return decodeAs[[]Insight](raw)
	case Future:
		return decodeAs[[]FutureTrend](raw)
	case TrainingAircraft:
		return decodeAs[Tips](raw)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
}

func decodeAs[T any](raw []byte) (any, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	return v, nil
}

// ParseJSON extracts a JSON document from generator output, stripping a
// surrounding markdown code fence if present.
func ParseJSON(text string) (json.RawMessage, error) {
	content := StripFence(text)
	if content == "" || !json.Valid([]byte(content)) {
		return nil, ErrNoJSON
	}
	return json.RawMessage(content), nil
}

// StripFence removes a leading ``` or ```json line and a trailing ``` line.
func StripFence(text string) string {
	content := strings.TrimSpace(text)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return strings.Trim(content, "`")
	}
	end := len(lines)
	if strings.TrimSpace(lines[end-1]) == "```" {
		end--
	}
	return strings.TrimSpace(strings.Join(lines[1:end], "\n"))
}
