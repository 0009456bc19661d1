package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dshills/cadetprep/internal/cache"
	"github.com/dshills/cadetprep/internal/config"
	"github.com/dshills/cadetprep/internal/metrics"
	"github.com/dshills/cadetprep/internal/providers"
	"github.com/dshills/cadetprep/internal/redact"
	"github.com/dshills/cadetprep/internal/refdata"
	"github.com/dshills/cadetprep/internal/topics"
)

// maxTokens bounds a single generation.
const maxTokens = 8192

var (
	// ErrDisabled is returned when AI content is switched off for a page.
	ErrDisabled = errors.New("ai content is disabled for this page")
	// ErrNoGenerator is the soft-failure cause when no provider is configured.
	ErrNoGenerator = errors.New("no generator configured")
)

// Request selects what to generate.
type Request struct {
	Topic string
	// Aircraft is the training aircraft id for the training_aircraft topic.
	Aircraft string
	// Fresh skips the cached response and regenerates.
	Fresh bool
}

// Result is the outcome of Generate. When Available is false nothing usable
// was produced, Message says why and Err holds the cause.
type Result struct {
	Topic     string          `json:"topic"`
	RunID     string          `json:"run_id"`
	Available bool            `json:"available"`
	Cached    bool            `json:"cached"`
	Items     any             `json:"items,omitempty"`
	Raw       json.RawMessage `json:"-"`
	Message   string          `json:"message,omitempty"`
	Err       error           `json:"-"`
	Timing    Timing          `json:"timing"`
}

// Timing records how long a generation took.
type Timing struct {
	GenerateMs int64 `json:"generate_ms"`
	RepairMs   int64 `json:"repair_ms,omitempty"`
	TotalMs    int64 `json:"total_ms"`
}

// HistoryEntry is a recorded result with its payload decoded for the topic.
// Entries that no longer decode keep their raw JSON in Items.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Items     any       `json:"items"`
}

// Options configures an Assistant.
type Options struct {
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// Assistant produces AI content for dashboard pages on top of a response
// cache.
type Assistant struct {
	mu  sync.RWMutex
	cfg config.Config
	gen providers.Generator

	cache   *cache.Cache
	log     zerolog.Logger
	metrics *metrics.Metrics

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New creates an Assistant. gen may be nil, in which case every generation
// is a soft failure.
func New(cfg config.Config, store cache.Store, gen providers.Generator, opts Options) *Assistant {
	a := &Assistant{
		cfg:     cfg,
		gen:     gen,
		log:     opts.Logger,
		metrics: opts.Metrics,
		locks:   make(map[string]*sync.Mutex),
	}
	a.cache = cache.New(store, cache.GeneratorFunc(a.complete), cache.Options{
		Enabled:  cfg.Cache.Enabled,
		TTL:      cfg.CacheTTL(),
		Validate: topics.Validate,
		Logger:   opts.Logger,
		Now:      opts.Now,
	})
	return a
}

// Reconfigure swaps the configuration and generator. Cache settings keep
// the values the Assistant was created with.
func (a *Assistant) Reconfigure(cfg config.Config, gen providers.Generator) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg = cfg
	a.gen = gen
}

// Config returns the active configuration.
func (a *Assistant) Config() config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// Cache exposes the underlying response cache.
func (a *Assistant) Cache() *cache.Cache { return a.cache }

func (a *Assistant) generator() providers.Generator {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.gen
}

// complete is the cache's generator.
func (a *Assistant) complete(ctx context.Context, prompt string) (string, error) {
	gen := a.generator()
	if gen == nil {
		return "", ErrNoGenerator
	}
	resp, err := gen.Generate(ctx, providers.GenerateRequest{Prompt: prompt, MaxTokens: maxTokens})
	if err != nil {
		return "", redactedError{err}
	}
	return resp.Content, nil
}

// Generate produces content for req.Topic. Generation failures are soft:
// they return a Result with Available false and a nil error. The error is
// reserved for unknown topics, disabled pages and storage failures.
func (a *Assistant) Generate(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	topic := req.Topic
	if !topics.Known(topic) {
		return Result{}, fmt.Errorf("%w: %q", topics.ErrUnknownTopic, topic)
	}
	if !a.Config().AIEnabledFor(topic) {
		a.metrics.Generation(topic, metrics.OutcomeDisabled, 0)
		return Result{}, fmt.Errorf("%w: %s", ErrDisabled, topic)
	}
	p, err := BuildPrompt(topic, req.Aircraft)
	if err != nil {
		return Result{}, err
	}

	lock := a.topicLock(topic)
	lock.Lock()
	defer lock.Unlock()

	log := a.log.With().Str("topic", topic).Logger()
	res := Result{Topic: topic, RunID: uuid.NewString()}

	fetched, err := a.cache.Fetch(ctx, cache.Request{Prompt: p.Prompt, Context: p.Context, UseCache: !req.Fresh})
	if err != nil {
		return Result{}, err
	}
	res.Timing.GenerateMs = time.Since(start).Milliseconds()
	res.Cached = fetched.Cached
	a.metrics.CacheLookup(topic, a.lookupResult(req.Fresh, fetched.Cached))

	finish := func(outcome string) Result {
		res.Timing.TotalMs = time.Since(start).Milliseconds()
		a.metrics.Generation(topic, outcome, time.Since(start))
		return res
	}

	if !fetched.OK() {
		log.Warn().Str("error", redact.Error(fetched.Err)).Msg("no content generated")
		res.Message = redact.Error(fetched.Err)
		res.Err = fetched.Err
		return finish(metrics.OutcomeFailed), nil
	}

	raw, err := a.payload(topic, req.Aircraft, fetched.Text)
	if err != nil && topics.IsList(topic) {
		log.Info().Err(err).Msg("response failed validation, attempting repair")
		repairStart := time.Now()
		raw, err = a.repair(ctx, topic, fetched, err)
		res.Timing.RepairMs = time.Since(repairStart).Milliseconds()
	}
	if err != nil {
		log.Warn().Str("error", redact.Error(err)).Msg("response unusable")
		res.Message = "response unusable: " + redact.Error(err)
		res.Err = err
		return finish(metrics.OutcomeInvalid), nil
	}

	items, err := topics.Decode(topic, raw)
	if err != nil {
		res.Message = "response unusable: " + err.Error()
		res.Err = err
		return finish(metrics.OutcomeInvalid), nil
	}
	if err := a.cache.RecordHistory(topic, raw); err != nil {
		return Result{}, err
	}

	res.Available = true
	res.Items = items
	res.Raw = raw
	log.Debug().Str("run_id", res.RunID).Bool("cached", res.Cached).Msg("content ready")
	return finish(metrics.OutcomeOK), nil
}

// History returns the recorded results for topic, newest first.
func (a *Assistant) History(topic string) ([]HistoryEntry, error) {
	if !topics.Known(topic) {
		return nil, fmt.Errorf("%w: %q", topics.ErrUnknownTopic, topic)
	}
	entries, err := a.cache.History(topic)
	if err != nil {
		return nil, err
	}
	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		var items any = e.Data
		if decoded, err := topics.Decode(topic, e.Data); err == nil {
			items = decoded
		}
		out = append(out, HistoryEntry{Timestamp: e.Timestamp, Items: items})
	}
	return out, nil
}

// payload turns generator text into the topic's JSON payload and validates
// it. Training aircraft tips are free text wrapped in a Tips object.
func (a *Assistant) payload(topic, aircraft, text string) (json.RawMessage, error) {
	var raw json.RawMessage
	if topic == topics.TrainingAircraft {
		name := aircraft
		if ac, err := refdata.Aircraft(aircraft); err == nil {
			name = ac.Name
		}
		b, err := json.Marshal(topics.Tips{Aircraft: name, Text: strings.TrimSpace(text)})
		if err != nil {
			return nil, err
		}
		raw = b
	} else {
		var err error
		if raw, err = topics.ParseJSON(text); err != nil {
			return nil, err
		}
	}
	if err := topics.Validate(topic, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// repair asks the generator once to fix an invalid response. A repaired
// response replaces the cached one.
func (a *Assistant) repair(ctx context.Context, topic string, fetched cache.Result, cause error) (json.RawMessage, error) {
	text, err := a.complete(ctx, repairPrompt(topic, cause, fetched.Text))
	if err != nil {
		return nil, fmt.Errorf("repair pass failed: %w (original error: %w)", err, cause)
	}
	raw, err := a.payload(topic, "", text)
	if err != nil {
		return nil, fmt.Errorf("response validation failed after repair: %w", err)
	}
	if err := a.cache.Put(fetched.Key, text); err != nil {
		a.log.Warn().Err(err).Str("topic", topic).Msg("could not cache repaired response")
	}
	return raw, nil
}

func (a *Assistant) lookupResult(fresh, cached bool) string {
	switch {
	case fresh || !a.cache.Enabled():
		return metrics.ResultBypass
	case cached:
		return metrics.ResultHit
	default:
		return metrics.ResultMiss
	}
}

func (a *Assistant) topicLock(topic string) *sync.Mutex {
	a.locksMu.Lock()
	defer a.locksMu.Unlock()
	l, ok := a.locks[topic]
	if !ok {
		l = &sync.Mutex{}
		a.locks[topic] = l
	}
	return l
}

// redactedError hides secrets in the message of a provider error while
// keeping it matchable with errors.Is and errors.As.
type redactedError struct{ err error }

func (e redactedError) Error() string { return redact.Error(e.err) }
func (e redactedError) Unwrap() error { return e.err }
