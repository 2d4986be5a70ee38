// Package pipeline runs classification, context reweighting, validation and
// merging over a batch of emails, and builds itineraries from accepted
// records.
package pipeline

import (
	"context"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"travelmail/internal/classify"
	"travelmail/internal/email"
	"travelmail/internal/logger"
	"travelmail/internal/merge"
	"travelmail/internal/metrics"
	"travelmail/internal/registry"
	"travelmail/internal/roundtrip"
	"travelmail/internal/trips"
	"travelmail/internal/validate"
)

// Outcome summarises what happened to one email.
type Outcome struct {
	EmailID    string            `json:"email_id"`
	Category   registry.Category `json:"category,omitempty"`
	Confidence float64           `json:"confidence"`
	Issues     []string          `json:"issues,omitempty"`
	Kept       bool              `json:"kept"`
}

// Result is the output of one batch.
type Result struct {
	// Records are merged, sorted by descending confidence, none below
	// classify.MinConfidence.
	Records []classify.ExtractedRecord `json:"records"`

	// Outcomes has one entry per input email, in input order.
	Outcomes []Outcome `json:"outcomes"`

	// Merged is the number of records folded into an earlier trip.
	Merged int `json:"merged"`
}

// Itinerary is the trip view built from accepted records.
type Itinerary struct {
	Periods     []trips.TravelPeriod   `json:"periods"`
	Suggestions []roundtrip.Suggestion `json:"suggestions"`
}

// Pipeline wires the extraction stages together. It is safe for concurrent
// use; all shared state is immutable.
type Pipeline struct {
	reg       *registry.Registry
	engine    *classify.Engine
	validator *validate.Validator
	merger    *merge.Merger
	builder   *trips.Builder
	workers   int
	reweigh   bool
	source    string
	log       *zap.Logger
}

// Option configures a Pipeline.
type Option func(*options)

type options struct {
	workers int
	reweigh bool
	policy  merge.Policy
	now     func() time.Time
	source  string
	derive  bool
	log     *zap.Logger
}

// WithWorkers bounds the number of emails classified in parallel.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithContextReweighting turns the sender/attachment/forward adjustments on or off.
func WithContextReweighting(enabled bool) Option {
	return func(o *options) { o.reweigh = enabled }
}

// WithMergePolicy sets the merge bonus policy.
func WithMergePolicy(p merge.Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithClock sets the clock used by validation and period assembly.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithSource labels batch metrics, e.g. "cli" or "nats".
func WithSource(source string) Option {
	return func(o *options) { o.source = source }
}

// WithDerivedIDs makes itinerary period ids stable across rebuilds.
func WithDerivedIDs() Option {
	return func(o *options) { o.derive = true }
}

// WithLogger sets the logger for batch summaries.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// New returns a pipeline over reg.
func New(reg *registry.Registry, opts ...Option) *Pipeline {
	o := options{
		workers: runtime.NumCPU(),
		reweigh: true,
		policy:  merge.BonusOncePerTrip,
		now:     time.Now,
		source:  "default",
	}
	for _, opt := range opts {
		opt(&o)
	}

	builderOpts := []trips.Option{trips.WithClock(o.now)}
	if o.derive {
		builderOpts = append(builderOpts, trips.WithDerivedIDs())
	}

	return &Pipeline{
		reg:       reg,
		engine:    classify.NewEngine(reg),
		validator: validate.New(reg, validate.WithClock(o.now)),
		merger:    merge.New(o.policy),
		builder:   trips.NewBuilder(reg, builderOpts...),
		workers:   o.workers,
		reweigh:   o.reweigh,
		source:    o.source,
		log:       logger.OrNop(o.log),
	}
}

// Registry returns the pattern registry.
func (p *Pipeline) Registry() *registry.Registry { return p.reg }

// Validator returns the validator the pipeline uses.
func (p *Pipeline) Validator() *validate.Validator { return p.validator }

// Merger returns the merger the pipeline folds batches with.
func (p *Pipeline) Merger() *merge.Merger { return p.merger }

// Period builds the travel period for one accepted record.
func (p *Pipeline) Period(rec classify.ExtractedRecord) (trips.TravelPeriod, bool) {
	return p.builder.FromRecord(rec)
}

// Run processes a batch. Emails are classified in parallel; merging runs
// afterwards over the records in input order. A cancelled context abandons
// the batch before merging.
func (p *Pipeline) Run(ctx context.Context, emails []email.RawEmail) (Result, error) {
	start := time.Now()
	defer func() { metrics.RecordBatchDuration(p.source, time.Since(start)) }()

	candidates := make([]*classify.ExtractedRecord, len(emails))
	outcomes := make([]Outcome, len(emails))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range emails {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, out := p.process(emails[i])
			candidates[i] = rec
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var kept []classify.ExtractedRecord
	for _, rec := range candidates {
		if rec != nil {
			kept = append(kept, *rec)
		}
	}

	records := p.merger.All(kept)
	merged := len(kept) - len(records)
	metrics.RecordMerges(merged)

	SortByConfidence(records)

	p.log.Debug("batch processed",
		zap.String("source", p.source),
		zap.Int("emails", len(emails)),
		zap.Int("kept", len(kept)),
		zap.Int("records", len(records)),
		zap.Int("merged", merged),
		zap.Duration("elapsed", time.Since(start)),
	)

	return Result{Records: records, Outcomes: outcomes, Merged: merged}, nil
}

// process runs the per-email stages. It returns a nil record when the email
// is discarded at any stage.
func (p *Pipeline) process(em email.RawEmail) (*classify.ExtractedRecord, Outcome) {
	out := Outcome{EmailID: em.ID}

	rec, ok := p.engine.Classify(em)
	if !ok {
		metrics.RecordClassification(false, "", 0)
		return nil, out
	}

	r := *rec
	if p.reweigh {
		r = classify.Reweigh(r, email.DeriveContext(em), p.reg)
	}

	res := p.validator.Validate(r)
	r = validate.ApplyPenalty(r, res)
	metrics.RecordValidationIssues(len(res.Issues))

	out.Category = r.Category
	out.Confidence = r.Confidence
	out.Issues = res.Issues

	if r.Confidence < classify.MinConfidence {
		metrics.RecordClassification(false, "", 0)
		return nil, out
	}

	out.Kept = true
	metrics.RecordClassification(true, string(r.Category), r.Confidence)
	return &r, out
}

// Validate checks one record, e.g. after a reviewer edited it, and returns
// the penalised copy along with the issues.
func (p *Pipeline) Validate(rec classify.ExtractedRecord) (classify.ExtractedRecord, validate.Result) {
	res := p.validator.Validate(rec)
	return validate.ApplyPenalty(rec, res), res
}

// Trace classifies emails one by one and returns the scoring traces.
func (p *Pipeline) Trace(emails []email.RawEmail) []registry.Trace {
	out := make([]registry.Trace, 0, len(emails))
	for _, em := range emails {
		_, tr := p.engine.ClassifyWithTrace(em)
		out = append(out, tr)
	}
	return out
}

// Itinerary builds travel periods from accepted records, resolves duplicate
// flights and asks det for round-trip suggestions.
func (p *Pipeline) Itinerary(accepted []classify.ExtractedRecord, det *roundtrip.Detector) Itinerary {
	periods := trips.ResolveDuplicates(p.builder.FromRecords(accepted))
	suggestions := det.Detect(periods)
	for range suggestions {
		metrics.RecordRoundTrip("suggested")
	}
	return Itinerary{Periods: periods, Suggestions: suggestions}
}

// SortByConfidence orders records by descending confidence. Equal
// confidences keep their relative order.
func SortByConfidence(records []classify.ExtractedRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Confidence > records[j].Confidence
	})
}
