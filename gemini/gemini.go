// Package gemini drives a single long-lived browser session against the
// Gemini web UI to classify DIAN document pairs. The UI has no contract:
// the session is treated as an opaque agent behind a small stage pipeline
// (ready → prompt → attach → submit → answer), strictly serialized because
// one conversation cannot tolerate interleaved operations.
//
// The gateway never retries internally. A failed stage surfaces as an
// error to the caller; a timed-out answer poll surfaces as best-effort
// partial text.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/semaphore"
)

// Result is a parsed agent classification.
type Result struct {
	DocumentType    string `json:"tipo_documento"`
	AppliedCategory string `json:"categoria_aplicada"`

	// Raw is the stabilized agent text the result was parsed from.
	Raw string `json:"-"`
}

// session is one interactive connection to the agent UI. Implementations
// are not safe for concurrent use; the Gateway serializes all access.
type session interface {
	EnsureReady(ctx context.Context) error
	SetPrompt(ctx context.Context, text string) error
	AttachFiles(ctx context.Context, paths []string) error
	Submit(ctx context.Context) error
	AwaitAnswer(ctx context.Context) (string, error)
	Snapshot(dir, id string) error
	Close() error
}

// Gateway owns the single agent session and serializes classification
// attempts across all callers.
type Gateway struct {
	cfg    Config
	logger *slog.Logger

	sem     *semaphore.Weighted
	queued  atomic.Int64
	breaker *gobreaker.CircuitBreaker[string]

	mu         sync.Mutex
	sess       session
	newSession func(Config) (session, error)
}

// New creates a Gateway. The browser session is started lazily on first
// use (or via Warmup) and reused for the life of the process.
func New(cfg Config) *Gateway {
	cfg.defaults()
	g := &Gateway{
		cfg:        cfg,
		logger:     cfg.Logger,
		sem:        semaphore.NewWeighted(1),
		newSession: newRodSession,
	}
	g.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "gemini-session",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			g.logger.Warn("gemini: breaker state change",
				"from", from.String(), "to", to.String())
		},
	})
	return g
}

// Config returns a copy of the effective configuration.
func (g *Gateway) Config() Config {
	return g.cfg
}

// Classify runs exactly one classification attempt for the document pair
// at pdfPath/xmlPath. Calls queue on the session lock in arrival order; at
// most MaxQueue callers may wait, the rest fail fast with ErrBusy. ctx is
// honored while queueing only; a started attempt is never cancelled by the
// caller.
//
// Returns ErrBusy on queue overflow, a *ParseError when the agent answered
// but the answer carried no usable classification, or a wrapped session
// error when the attempt itself failed.
func (g *Gateway) Classify(ctx context.Context, pdfPath, xmlPath string) (*Result, error) {
	// Admission: the holder plus MaxQueue waiters.
	if n := g.queued.Add(1); n > int64(g.cfg.MaxQueue)+1 {
		g.queued.Add(-1)
		return nil, ErrBusy
	}
	defer g.queued.Add(-1)

	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("gemini: acquire session: %w", err)
	}
	defer g.sem.Release(1)

	// The caller's context applies only while queueing. Once the attempt
	// starts it runs to its own bounded stage timeouts: aborting mid-stage
	// would leave the shared conversation in an unknown state.
	attemptCtx := context.WithoutCancel(ctx)
	raw, err := g.breaker.Execute(func() (string, error) {
		return g.attempt(attemptCtx, pdfPath, xmlPath)
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: classify: %w", err)
	}

	res, ok := parseResult(raw)
	if !ok {
		g.logger.Warn("gemini: answer did not parse", "raw_len", len(raw))
		return nil, &ParseError{Raw: raw}
	}
	return res, nil
}

// Warmup starts the browser session and brings it to the ready surface so
// the first request does not pay the setup cost. Best-effort.
func (g *Gateway) Warmup(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer g.sem.Release(1)

	s, err := g.session()
	if err != nil {
		return err
	}
	return s.EnsureReady(ctx)
}

// Close tears down the session. Called once at process shutdown.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sess == nil {
		return nil
	}
	err := g.sess.Close()
	g.sess = nil
	return err
}

// attempt runs the five-stage pipeline against the session. Any stage
// failure captures a diagnostic snapshot and aborts the attempt.
func (g *Gateway) attempt(ctx context.Context, pdfPath, xmlPath string) (string, error) {
	s, err := g.session()
	if err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}

	fail := func(stage string, err error) (string, error) {
		g.snapshot(s)
		return "", fmt.Errorf("%s: %w", stage, err)
	}

	if err := s.EnsureReady(ctx); err != nil {
		return fail("ensure ready", err)
	}
	if err := s.SetPrompt(ctx, classifyPrompt); err != nil {
		return fail("set prompt", err)
	}
	if err := s.AttachFiles(ctx, []string{pdfPath, xmlPath}); err != nil {
		return fail("attach files", err)
	}
	// Re-inject the prompt: attaching files can recreate the composer.
	if err := s.SetPrompt(ctx, classifyPrompt+" "); err != nil {
		return fail("reinforce prompt", err)
	}
	if err := s.Submit(ctx); err != nil {
		return fail("submit", err)
	}

	raw, err := s.AwaitAnswer(ctx)
	if err != nil {
		return fail("await answer", err)
	}
	if raw == "" {
		raw = noAnswer
	}
	return raw, nil
}

// session returns the lazily-created shared session. Callers hold the
// semaphore, so creation never races with use.
func (g *Gateway) session() (session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sess != nil {
		return g.sess, nil
	}
	s, err := g.newSession(g.cfg)
	if err != nil {
		return nil, err
	}
	g.logger.Info("gemini: session started",
		"agent_url", g.cfg.AgentURL, "headless", g.cfg.Headless)
	g.sess = s
	return s, nil
}

func (g *Gateway) snapshot(s session) {
	id := uuid.NewString()
	if err := s.Snapshot(g.cfg.SnapshotDir, id); err != nil {
		g.logger.Warn("gemini: snapshot failed", "id", id, "error", err)
		return
	}
	g.logger.Info("gemini: failure snapshot written", "id", id, "dir", g.cfg.SnapshotDir)
}

// parseResult interprets the stabilized answer text: whole-string JSON
// first, then the first balanced {...} block. A usable result must carry
// both tipo_documento and categoria_aplicada.
func parseResult(raw string) (*Result, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		var ok bool
		obj, ok = ExtractFirstJSON(raw)
		if !ok {
			return nil, false
		}
	}

	docType, hasType := obj["tipo_documento"].(string)
	category, hasCat := obj["categoria_aplicada"].(string)
	if !hasType || !hasCat {
		return nil, false
	}
	return &Result{DocumentType: docType, AppliedCategory: category, Raw: raw}, true
}
