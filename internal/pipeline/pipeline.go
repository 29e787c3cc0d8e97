// Package pipeline organizes exam papers by syllabus unit: extract, merge,
// classify, parse, strictly in that order.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pbaille/pyq/internal/classifier"
	"github.com/pbaille/pyq/internal/corpus"
	"github.com/pbaille/pyq/internal/domain"
	"github.com/pbaille/pyq/internal/parser"
)

// Stage of a run
type Stage int

const (
	StageIdle Stage = iota
	StageExtracting
	StageMerging
	StageClassifying
	StageParsing
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageExtracting:
		return "extracting"
	case StageMerging:
		return "merging"
	case StageClassifying:
		return "classifying"
	case StageParsing:
		return "parsing"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Extractor turns documents into text, one per document, in input order
type Extractor interface {
	ExtractAll(ctx context.Context, docs []domain.InputDocument) ([]string, error)
}

// Config bounds a run
type Config struct {
	MaxDocuments int
	// Timeout caps the classification call. Zero means no limit beyond ctx.
	Timeout time.Duration
	// Logf receives one line per stage transition. Nil disables logging.
	Logf func(format string, args ...any)
}

// Pipeline runs organize requests. It holds no per-run state and is safe
// for concurrent use.
type Pipeline struct {
	extractor Extractor
	service   classifier.Service
	cfg       Config
}

// New creates a Pipeline
func New(extractor Extractor, service classifier.Service, cfg Config) *Pipeline {
	if cfg.MaxDocuments <= 0 {
		cfg.MaxDocuments = 5
	}
	return &Pipeline{extractor: extractor, service: service, cfg: cfg}
}

// Run organizes the questions of docs under the units of syllabus. On
// failure it returns a *Error and no result.
func (p *Pipeline) Run(ctx context.Context, docs []domain.InputDocument, syllabus string) (domain.OrganizedResult, error) {
	r := &run{p: p, id: RunID(ctx), t0: time.Now()}

	if err := p.check(docs, syllabus); err != nil {
		return nil, r.fail(ctx, StageIdle, err)
	}

	r.enter(StageExtracting, "%d documents", len(docs))
	texts, err := p.extractor.ExtractAll(ctx, docs)
	if err != nil {
		return nil, r.fail(ctx, StageExtracting, err)
	}

	r.enter(StageMerging, "")
	merged := corpus.Build(texts)

	r.enter(StageClassifying, "%d bytes of corpus", len(merged))
	raw, err := p.classify(ctx, classifier.BuildRequest(syllabus, merged))
	if err != nil {
		return nil, r.fail(ctx, StageClassifying, err)
	}

	r.enter(StageParsing, "%d bytes of response", len(raw))
	result, err := parser.Parse(raw)
	if err != nil {
		return nil, r.fail(ctx, StageParsing, err)
	}

	units, questions := result.Units()
	r.enter(StageDone, "%d units, %d questions in %s", units, questions, time.Since(r.t0).Round(time.Millisecond))
	return result, nil
}

func (p *Pipeline) check(docs []domain.InputDocument, syllabus string) error {
	switch {
	case len(docs) == 0:
		return fmt.Errorf("%w: no documents uploaded", domain.ErrPrecondition)
	case len(docs) > p.cfg.MaxDocuments:
		return fmt.Errorf("%w: %d documents uploaded, at most %d allowed", domain.ErrPrecondition, len(docs), p.cfg.MaxDocuments)
	case strings.TrimSpace(syllabus) == "":
		return fmt.Errorf("%w: syllabus is required", domain.ErrPrecondition)
	}
	return nil
}

func (p *Pipeline) classify(ctx context.Context, req classifier.Request) (string, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}
	return classifier.Classify(ctx, p.service, req)
}

type run struct {
	p  *Pipeline
	id string
	t0 time.Time
}

func (r *run) enter(s Stage, format string, args ...any) {
	if r.p.cfg.Logf == nil {
		return
	}
	if format == "" {
		r.p.cfg.Logf("organize %s: %s", r.id, s)
		return
	}
	r.p.cfg.Logf("organize %s: %s (%s)", r.id, s, fmt.Sprintf(format, args...))
}

func (r *run) fail(ctx context.Context, at Stage, err error) error {
	e := &Error{Kind: kindOf(err, at), Stage: at, Err: err}
	if ctx.Err() == context.Canceled {
		e.Kind = KindCanceled
	}
	r.enter(StageFailed, "%s at %s: %v", e.Kind, at, err)
	return e
}

type runIDKey struct{}

// WithRunID tags ctx with an identifier used in log lines
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the identifier set by WithRunID, or "-"
func RunID(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok && id != "" {
		return id
	}
	return "-"
}
