package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// HistoryLimit is the number of generated results kept per topic.
const HistoryLimit = 5

var (
	// ErrNoResult marks a soft failure: the generator failed or returned
	// nothing usable.
	ErrNoResult = errors.New("no result generated")
	// ErrEmptyPrompt is returned by Fetch when the prompt is blank.
	ErrEmptyPrompt = errors.New("prompt must not be empty")
	// ErrInvalidTopic is returned for topic names that cannot be stored.
	ErrInvalidTopic = errors.New("invalid topic name")
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ValidateFunc checks a history payload for a topic before it is stored.
type ValidateFunc func(topic string, data []byte) error

// Entry is the persisted form of a cached response.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Response  string    `json:"response"`
}

// HistoryEntry is one recorded result in a topic's history.
type HistoryEntry struct {
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Request describes a Fetch call.
type Request struct {
	Prompt   string
	Context  string
	UseCache bool
}

// Result is the outcome of a Fetch. A soft failure has an empty Text and
// the cause in Err.
type Result struct {
	Key    string
	Text   string
	Cached bool
	Err    error
}

// OK reports whether the result carries generated text.
func (r Result) OK() bool { return r.Err == nil && r.Text != "" }

// Options configures a Cache.
type Options struct {
	// Enabled gates reads and writes of response entries. Histories are
	// kept either way.
	Enabled bool
	// TTL is the freshness window; zero or negative never expires.
	TTL      time.Duration
	Validate ValidateFunc
	Logger   zerolog.Logger
	Now      func() time.Time
}

// Cache is a prompt-keyed response cache with a bounded per-topic history.
type Cache struct {
	store    Store
	gen      Generator
	enabled  bool
	ttl      time.Duration
	validate ValidateFunc
	log      zerolog.Logger
	now      func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a Cache over store that delegates misses to gen.
func New(store Store, gen Generator, opts Options) *Cache {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Cache{
		store:    store,
		gen:      gen,
		enabled:  opts.Enabled,
		ttl:      opts.TTL,
		validate: opts.Validate,
		log:      opts.Logger,
		now:      now,
	}
}

// Fetch returns a fresh stored response for the request or generates,
// stores and returns a new one. Generation failures are reported in
// Result.Err; the returned error is reserved for storage failures.
func (c *Cache) Fetch(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return Result{}, ErrEmptyPrompt
	}
	key := Fingerprint(req.Prompt, req.Context)

	if req.UseCache && c.enabled {
		if text, ok := c.lookup(key); ok {
			c.hits.Add(1)
			return Result{Key: key, Text: text, Cached: true}, nil
		}
		c.misses.Add(1)
	}

	if c.gen == nil {
		return Result{Key: key, Err: fmt.Errorf("%w: no generator configured", ErrNoResult)}, nil
	}

	text, err := c.gen.Generate(ctx, combinePrompt(req.Prompt, req.Context))
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("generation failed")
		return Result{Key: key, Err: fmt.Errorf("%w: %w", ErrNoResult, err)}, nil
	}
	if strings.TrimSpace(text) == "" {
		c.log.Warn().Str("key", key).Msg("generator returned empty output")
		return Result{Key: key, Err: fmt.Errorf("%w: empty output", ErrNoResult)}, nil
	}

	if c.enabled {
		if err := c.put(key, text); err != nil {
			return Result{}, err
		}
	}
	return Result{Key: key, Text: text}, nil
}

// Put stores text under key, replacing any existing entry. It does nothing
// when caching is disabled.
func (c *Cache) Put(key, text string) error {
	if !c.enabled {
		return nil
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: empty output", ErrNoResult)
	}
	return c.put(key, text)
}

// RecordHistory prepends data to the topic's history and keeps the newest
// HistoryLimit entries.
func (c *Cache) RecordHistory(topic string, data any) error {
	if !ValidTopic(topic) {
		return fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling history data: %w", err)
	}
	if c.validate != nil {
		if err := c.validate(topic, raw); err != nil {
			return fmt.Errorf("validating %s history: %w", topic, err)
		}
	}

	history := c.loadHistory(topic)
	entry := HistoryEntry{Timestamp: c.now(), Data: raw}
	history = append([]HistoryEntry{entry}, history...)
	if len(history) > HistoryLimit {
		history = history[:HistoryLimit]
	}

	payload, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}
	if err := c.store.Write(HistoryKey(topic), payload); err != nil {
		return fmt.Errorf("saving %s history: %w", topic, err)
	}
	return nil
}

// History returns the recorded entries for topic, newest first.
func (c *Cache) History(topic string) ([]HistoryEntry, error) {
	if !ValidTopic(topic) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	return c.loadHistory(topic), nil
}

// Stats describes the contents of the store.
type Stats struct {
	Location   string `json:"location"`
	Entries    int    `json:"entries"`
	Expired    int    `json:"expired"`
	Histories  int    `json:"histories"`
	TotalBytes int64  `json:"totalBytes"`
	Hits       int64  `json:"hits"`
	Misses     int64  `json:"misses"`
}

// Stats scans the store.
func (c *Cache) Stats() (Stats, error) {
	stats := Stats{
		Location: c.store.Location(),
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
	}
	keys, err := c.store.Keys()
	if err != nil {
		return stats, err
	}
	for _, k := range keys {
		data, err := c.store.Read(k)
		if err != nil {
			continue
		}
		stats.TotalBytes += int64(len(data))
		if strings.HasPrefix(k, historyPrefix) {
			stats.Histories++
			continue
		}
		stats.Entries++
		if entry, ok := decodeEntry(data); !ok || c.expired(entry) {
			stats.Expired++
		}
	}
	return stats, nil
}

// Clear removes response entries. With expiredOnly, fresh entries are kept.
// Topic histories are never touched; see ClearHistory.
func (c *Cache) Clear(expiredOnly bool) (int, error) {
	keys, err := c.store.Keys()
	if err != nil {
		return 0, err
	}
	var removed int
	for _, k := range keys {
		if strings.HasPrefix(k, historyPrefix) {
			continue
		}
		if expiredOnly {
			data, err := c.store.Read(k)
			if err != nil {
				continue
			}
			if entry, ok := decodeEntry(data); ok && !c.expired(entry) {
				continue
			}
		}
		if err := c.store.Delete(k); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// ClearHistory removes the history of topic, or of every topic when topic
// is empty.
func (c *Cache) ClearHistory(topic string) error {
	if topic != "" {
		if !ValidTopic(topic) {
			return fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
		}
		return c.store.Delete(HistoryKey(topic))
	}
	keys, err := c.store.Keys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		if strings.HasPrefix(k, historyPrefix) {
			if err := c.store.Delete(k); err != nil {
				return err
			}
		}
	}
	return nil
}

// Enabled reports whether response caching is on.
func (c *Cache) Enabled() bool { return c.enabled }

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration { return c.ttl }

func (c *Cache) lookup(key string) (string, bool) {
	data, err := c.store.Read(key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.log.Debug().Err(err).Str("key", key).Msg("cache read failed")
		}
		return "", false
	}
	entry, ok := decodeEntry(data)
	if !ok || entry.Response == "" {
		c.log.Debug().Str("key", key).Msg("malformed cache entry")
		return "", false
	}
	if c.expired(entry) {
		return "", false
	}
	return entry.Response, true
}

func (c *Cache) put(key, text string) error {
	data, err := json.Marshal(Entry{Timestamp: c.now(), Response: text})
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	if err := c.store.Write(key, data); err != nil {
		return fmt.Errorf("saving cache entry: %w", err)
	}
	return nil
}

func (c *Cache) expired(e Entry) bool {
	if c.ttl <= 0 {
		return false
	}
	return c.now().Sub(e.Timestamp) >= c.ttl
}

func (c *Cache) loadHistory(topic string) []HistoryEntry {
	data, err := c.store.Read(HistoryKey(topic))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.log.Debug().Err(err).Str("topic", topic).Msg("history read failed")
		}
		return []HistoryEntry{}
	}
	var history []HistoryEntry
	if err := json.Unmarshal(data, &history); err != nil {
		c.log.Debug().Err(err).Str("topic", topic).Msg("malformed history")
		return []HistoryEntry{}
	}
	if history == nil {
		history = []HistoryEntry{}
	}
	return history
}

func decodeEntry(data []byte) (Entry, bool) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil || e.Timestamp.IsZero() {
		return Entry{}, false
	}
	return e, true
}

func combinePrompt(prompt, context string) string {
	if context == "" {
		return prompt
	}
	return context + "\n\n" + prompt
}
