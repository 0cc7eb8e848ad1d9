// Package resolve replays a recorded UI element against the live desktop.
//
// A recorded signature goes through an ordered pipeline: application and
// window resolution, identity checks, geometry reprojection, point
// prediction, a preflight hit-test, local refinement, a budgeted tree search
// and finally execution behind a safety gate. Failed attempts are retried and
// then escalated.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/mj1618/desktop-replay/internal/config"
	"github.com/mj1618/desktop-replay/internal/model"
	"github.com/mj1618/desktop-replay/internal/platform"
)

// Engine resolves and executes recorded steps through a platform provider.
// It holds no per-step state and is safe for sequential reuse.
type Engine struct {
	p         *platform.Provider
	cfg       *config.Config
	logger    *slog.Logger
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration)
	tracer    trace.Tracer
	escalator Escalator
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for warnings and, with Options.Debug, stage
// narration.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock replaces the wall clock used for search time budgets.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSleeper replaces the settle-delay sleeper.
func WithSleeper(sleep func(ctx context.Context, d time.Duration)) Option {
	return func(e *Engine) { e.sleep = sleep }
}

// WithTracerProvider sets where pipeline spans are exported.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) { e.tracer = tp.Tracer(tracerName) }
}

// WithEscalator installs a hook that receives steps after every attempt
// failed.
func WithEscalator(esc Escalator) Option {
	return func(e *Engine) { e.escalator = esc }
}

// New returns an Engine. The provider must carry every required backend.
func New(p *platform.Provider, cfg *config.Config, opts ...Option) (*Engine, error) {
	if p == nil {
		return nil, fmt.Errorf("resolve: nil provider")
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	e := &Engine{
		p:      p,
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
		sleep:  sleepCtx,
		tracer: defaultTracer(),
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Options control one ResolveAndExecute call.
type Options struct {
	// Execute performs the action; otherwise the step is validated only.
	Execute bool
	// DryHover moves the pointer to the final point and re-checks the
	// element there before acting.
	DryHover bool
	// SafeClick blocks actions on elements with remaining mismatches.
	SafeClick bool
	// MaxAttempts overrides the configured retry count when positive.
	MaxAttempts int
	// Debug narrates every stage at debug level.
	Debug bool
}

// DefaultOptions executes with the configured safety and retry settings.
func (e *Engine) DefaultOptions() Options {
	return Options{
		Execute:     true,
		SafeClick:   e.cfg.SafeClick,
		MaxAttempts: e.cfg.Retry.Attempts,
	}
}

// Result is the outcome of resolving one recorded step. It is populated as
// far as the pipeline got, also on failure.
type Result struct {
	Success     bool                   `yaml:"success"               json:"success"`
	Executed    bool                   `yaml:"executed"              json:"executed"`
	Method      string                 `yaml:"method,omitempty"      json:"method,omitempty"`
	Stage       Stage                  `yaml:"stage,omitempty"       json:"stage,omitempty"`
	Source      string                 `yaml:"source,omitempty"      json:"source,omitempty"`
	Point       *model.Point           `yaml:"point,omitempty"       json:"point,omitempty"`
	Element     *model.LiveElementInfo `yaml:"element,omitempty"     json:"element,omitempty"`
	Mismatches  model.MismatchSet      `yaml:"mismatches,omitempty"  json:"mismatches,omitempty"`
	Score       float64                `yaml:"score,omitempty"       json:"score,omitempty"`
	Attempts    int                    `yaml:"attempts"              json:"attempts"`
	App         *model.App             `yaml:"app,omitempty"         json:"app,omitempty"`
	WindowTitle string                 `yaml:"window_title,omitempty" json:"window_title,omitempty"`
	Strategy    string                 `yaml:"app_strategy,omitempty" json:"app_strategy,omitempty"`
	Identity    *Identity              `yaml:"identity,omitempty"    json:"identity,omitempty"`
	Trusted     bool                   `yaml:"trusted,omitempty"     json:"trusted,omitempty"`
	Alignment   *Alignment             `yaml:"alignment,omitempty"   json:"alignment,omitempty"`
	Prediction  *Prediction            `yaml:"prediction,omitempty"  json:"prediction,omitempty"`
	Diagnostics *Diagnostics           `yaml:"diagnostics,omitempty" json:"diagnostics,omitempty"`
}

// Diagnostics are the geometry facts an overlay image is drawn from.
type Diagnostics struct {
	WindowFrame *model.Rect   `yaml:"window_frame,omitempty" json:"window_frame,omitempty"`
	Predicted   *model.Point  `yaml:"predicted,omitempty"    json:"predicted,omitempty"`
	Candidates  []model.Point `yaml:"candidates,omitempty"   json:"candidates,omitempty"`
	Final       *model.Point  `yaml:"final,omitempty"        json:"final,omitempty"`
}

func (d *Diagnostics) addCandidate(p model.Point) {
	if d != nil {
		d.Candidates = append(d.Candidates, p)
	}
}

// ResolveAndExecute replays one recorded step. The returned Result is never
// nil; err is nil only when the step succeeded.
func (e *Engine) ResolveAndExecute(ctx context.Context, rec *model.RecordedSignature, opts Options) (*Result, error) {
	if rec == nil {
		return &Result{Stage: StageInput}, stageErr(StageInput, ErrInvalidStep, "no recorded step")
	}
	ctx, span := startResolveSpan(ctx, e.tracer, rec.Role, rec.RecordedLabel())
	defer span.End()

	log := discardLogger()
	if opts.Debug {
		log = e.logger.With(slog.Int("step", rec.ClickIndex))
	}
	if res, ok, err := e.bypass(ctx, rec, opts, log); ok {
		res.Attempts = 1
		recordAttempt(span, res, err)
		return res, err
	}
	return e.retry(ctx, rec, opts, log)
}
