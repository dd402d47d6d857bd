package highlight

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/emirpasic/gods/trees/redblacktree"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/glint/internal/cachemanager"
	"github.com/zjrosen/glint/internal/log"
	"github.com/zjrosen/glint/internal/rules"
	"github.com/zjrosen/glint/internal/tracing"
)

const (
	DefaultMatchTimeout = 250 * time.Millisecond
	DefaultCacheTTL     = 10 * time.Minute
)

// Engine runs highlighting passes. It is safe for concurrent use.
type Engine struct {
	timeout  time.Duration
	cacheTTL time.Duration
	cache    cachemanager.CacheManager[string, *regexp2.Regexp]
	compiled *cachemanager.ReadThroughCache[string, *regexp2.Regexp, compileInput]
	tracer   trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithMatchTimeout bounds the time one rule may spend matching one text.
// Zero disables the bound.
func WithMatchTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithCacheTTL sets how long compiled patterns stay cached after their last
// use. Zero disables caching.
func WithCacheTTL(d time.Duration) Option {
	return func(e *Engine) { e.cacheTTL = d }
}

// WithCache replaces the compiled pattern cache.
func WithCache(c cachemanager.CacheManager[string, *regexp2.Regexp]) Option {
	return func(e *Engine) { e.cache = c }
}

// WithTracer records a span per pass.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// New returns an Engine with a go-cache backed pattern cache.
func New(opts ...Option) *Engine {
	e := &Engine{
		timeout:  DefaultMatchTimeout,
		cacheTTL: DefaultCacheTTL,
		tracer:   noop.NewTracerProvider().Tracer("noop"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = cachemanager.NewInMemoryCacheManager[string, *regexp2.Regexp]("patterns", e.cacheTTL, cachemanager.DefaultCleanupInterval)
	}
	e.compiled = cachemanager.NewReadThroughCache[string, *regexp2.Regexp, compileInput](
		e.cache,
		func(_ context.Context, in compileInput) (*regexp2.Regexp, error) {
			log.Debug(log.CatCache, "compiling pattern", "flags", in.flags, "regex", in.regex)
			return compile(in)
		},
		e.cacheTTL <= 0,
	)
	return e
}

// CacheStats reports compiled pattern cache lookups.
func (e *Engine) CacheStats() cachemanager.Stats {
	return e.compiled.Stats()
}

// Validate compiles rule and checks its capture group without matching.
func (e *Engine) Validate(rule rules.PatternRule) error {
	_, _, err := e.prepare(context.Background(), rule)
	return err
}

func (e *Engine) prepare(ctx context.Context, rule rules.PatternRule) (*regexp2.Regexp, target, error) {
	re, err := e.compiled.GetWithRefresh(ctx, cacheKey(rule), compileInput{
		regex:   rule.Regex,
		flags:   rule.Flags,
		timeout: e.timeout,
	}, e.cacheTTL)
	if err != nil {
		return nil, target{}, err
	}
	t, err := resolveGroup(re, rule.CaptureGroup)
	if err != nil {
		return nil, target{}, err
	}
	return re, t, nil
}

type candidate struct {
	span Span
	rank int
}

// Highlight runs one pass over text with the enabled rules of list, in list
// order. It never fails: a rule that cannot be compiled or matched adds a
// Diagnostic and contributes nothing.
func (e *Engine) Highlight(ctx context.Context, text string, list rules.List) Result {
	enabled := list.Enabled()

	ctx, span := e.tracer.Start(ctx, tracing.SpanHighlightPass)
	defer span.End()

	var res Result
	if len(enabled) == 0 {
		span.SetAttributes(attribute.Int(tracing.AttrRuleCount, len(enabled)))
		return res
	}

	runes := []rune(text)
	var candidates []candidate
	for rank, rule := range enabled {
		if err := ctx.Err(); err != nil {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				RuleID:   rule.ID,
				RuleName: rule.Name,
				Err:      fmt.Errorf("%w: %w", ErrCanceled, err),
			})
			break
		}

		found, err := e.scan(ctx, runes, rule, rank)
		if err != nil {
			d := Diagnostic{RuleID: rule.ID, RuleName: rule.Name, Err: err}
			res.Diagnostics = append(res.Diagnostics, d)
			span.AddEvent(tracing.EventRuleFailed, trace.WithAttributes(
				attribute.String(tracing.AttrRuleID, rule.ID),
				attribute.String(tracing.AttrErrorMessage, err.Error()),
			))
			log.Debug(log.CatEngine, "rule skipped", "rule", rule.ID, "error", err)
			continue
		}
		candidates = append(candidates, found...)
	}

	res.Spans = resolve(candidates)

	span.SetAttributes(
		attribute.Int(tracing.AttrRuleCount, len(enabled)),
		attribute.Int(tracing.AttrTextRunes, len(runes)),
		attribute.Int(tracing.AttrCandidateCount, len(candidates)),
		attribute.Int(tracing.AttrSpanCount, len(res.Spans)),
		attribute.Int(tracing.AttrDiagnosticCount, len(res.Diagnostics)),
	)
	if len(res.Diagnostics) > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d rule(s) failed", len(res.Diagnostics)))
	}
	log.Debug(log.CatEngine, "pass complete",
		"rules", len(enabled), "candidates", len(candidates),
		"spans", len(res.Spans), "diagnostics", len(res.Diagnostics),
		"cacheHitRate", fmt.Sprintf("%.2f", e.CacheStats().HitRate()))

	return res
}

// scan collects every target range of rule over runes. A match error
// (timeout) discards everything the rule found in this pass.
func (e *Engine) scan(ctx context.Context, runes []rune, rule rules.PatternRule, rank int) ([]candidate, error) {
	re, t, err := e.prepare(ctx, rule)
	if err != nil {
		return nil, err
	}

	var out []candidate
	pos := 0
	for pos <= len(runes) {
		m, err := re.FindRunesMatchStartingAt(runes, pos)
		if err != nil {
			// regexp2 only fails a match when MatchTimeout is exceeded.
			return nil, fmt.Errorf("%w: %w", ErrMatchTimeout, err)
		}
		if m == nil {
			break
		}

		if g := t.group(m); g != nil && len(g.Captures) > 0 && g.Length > 0 {
			out = append(out, candidate{
				span: Span{
					Start:  g.Index,
					End:    g.Index + g.Length,
					Class:  rule.Class,
					Color:  rule.Color,
					RuleID: rule.ID,
				},
				rank: rank,
			})
		}

		next := m.Index + m.Length
		if m.Length == 0 {
			next++
		}
		pos = next
	}
	return out, nil
}

// resolve keeps, from highest rank down, each candidate that overlaps no
// span kept so far. Kept spans are indexed by start in a red-black tree.
func resolve(candidates []candidate) []Span {
	if len(candidates) == 0 {
		return nil
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	// Within one rank, earlier scan order wins.
	sort.SliceStable(order, func(a, b int) bool {
		return candidates[order[a]].rank > candidates[order[b]].rank
	})

	kept := redblacktree.NewWithIntComparator()
	for _, i := range order {
		c := candidates[i].span
		if overlapsKept(kept, c) {
			continue
		}
		kept.Put(c.Start, c)
	}

	out := make([]Span, 0, kept.Size())
	for _, v := range kept.Values() {
		out = append(out, v.(Span))
	}
	return out
}

func overlapsKept(kept *redblacktree.Tree, c Span) bool {
	if floor, ok := kept.Floor(c.Start); ok {
		if floor.Value.(Span).End > c.Start {
			return true
		}
	}
	if ceil, ok := kept.Ceiling(c.Start); ok {
		if ceil.Key.(int) < c.End {
			return true
		}
	}
	return false
}
