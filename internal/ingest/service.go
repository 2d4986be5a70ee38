// Package ingest consumes emails from NATS, runs them through the pipeline
// in batches and hands the results to storage and downstream subscribers.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"travelmail/internal/classify"
	"travelmail/internal/email"
	"travelmail/internal/logger"
	"travelmail/internal/metrics"
	"travelmail/internal/pipeline"
	"travelmail/internal/storage"
)

// Seen reports whether an email id is new. *SeenFilter implements it.
type Seen interface {
	IsNew(ctx context.Context, id string) (bool, error)
}

// CandidateSink stores records for review. *storage.ReviewStore implements it.
type CandidateSink interface {
	SaveCandidates(ctx context.Context, records []classify.ExtractedRecord, issues map[string][]string) error
}

// CandidateIndex finds the stored candidate a new record duplicates and
// updates it in place. *storage.ReviewStore implements it.
type CandidateIndex interface {
	FindEquivalent(ctx context.Context, rec classify.ExtractedRecord) (storage.Candidate, bool, error)
	UpdateRecord(ctx context.Context, rec classify.ExtractedRecord, issues []string) error
}

// AuditSink records one event per processed email. *storage.AuditStore implements it.
type AuditSink interface {
	InsertBatch(ctx context.Context, events []storage.AuditEvent) error
}

// Publisher sends a message on a subject. *nats.Conn implements it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Config controls subjects and batching.
type Config struct {
	SubjectIn     string
	SubjectOut    string
	Queue         string
	BatchSize     int
	FlushInterval time.Duration
}

// Service buffers incoming emails and processes them in batches.
type Service struct {
	cfg      Config
	pipeline *pipeline.Pipeline
	seen     Seen
	sink     CandidateSink
	index    CandidateIndex
	audit    AuditSink
	pub      Publisher
	log      *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	pending []email.RawEmail
	full    chan struct{}
}

// Option configures a Service.
type Option func(*Service)

// WithSeen drops emails whose id was already processed.
func WithSeen(s Seen) Option { return func(svc *Service) { svc.seen = s } }

// WithCandidateSink stores each batch's records for review. When s also
// implements CandidateIndex, records that duplicate a stored candidate are
// merged into it instead of stored separately.
func WithCandidateSink(s CandidateSink) Option {
	return func(svc *Service) {
		svc.sink = s
		if idx, ok := s.(CandidateIndex); ok {
			svc.index = idx
		}
	}
}

// WithAudit writes per-email audit events.
func WithAudit(a AuditSink) Option { return func(svc *Service) { svc.audit = a } }

// WithPublisher publishes each batch's records on Config.SubjectOut.
func WithPublisher(p Publisher) Option { return func(svc *Service) { svc.pub = p } }

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option { return func(svc *Service) { svc.log = l } }

// WithClock sets the clock used for audit timestamps.
func WithClock(now func() time.Time) Option { return func(svc *Service) { svc.now = now } }

// NewService returns a service running p over each batch.
func NewService(p *pipeline.Pipeline, cfg Config, opts ...Option) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 2 * time.Second
	}
	s := &Service{
		cfg:      cfg,
		pipeline: p,
		now:      time.Now,
		full:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.OrNop(s.log)
	return s
}

// Add decodes one message and queues the email. It reports whether the
// email was queued; malformed and already-seen messages are dropped.
func (s *Service) Add(ctx context.Context, data []byte) bool {
	em, shape, err := email.Decode(data)
	if err != nil {
		metrics.IncrementIngest("malformed")
		s.log.Warn("dropping malformed message", zap.Error(err))
		return false
	}
	if em == nil {
		metrics.IncrementIngest("malformed")
		s.log.Warn("dropping envelope without message")
		return false
	}

	if s.seen != nil && em.ID != "" {
		isNew, err := s.seen.IsNew(ctx, em.ID)
		if err != nil {
			// Fail open: reprocessing is harmless, losing mail is not.
			s.log.Warn("seen filter unavailable", zap.String("email_id", em.ID), zap.Error(err))
		} else if !isNew {
			metrics.IncrementIngest("duplicate")
			return false
		}
	}

	metrics.IncrementIngest("accepted")
	s.log.Debug("queued email", zap.String("email_id", em.ID), zap.String("shape", shape))

	s.mu.Lock()
	s.pending = append(s.pending, *em)
	n := len(s.pending)
	s.mu.Unlock()

	if n >= s.cfg.BatchSize {
		select {
		case s.full <- struct{}{}:
		default:
		}
	}
	return true
}

// Pending returns the number of queued emails.
func (s *Service) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush processes every queued email as one batch. If the batch cannot be
// processed or stored it is queued again ahead of newer emails, since the
// seen filter already holds its ids.
func (s *Service) Flush(ctx context.Context) (pipeline.Result, error) {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(batch) == 0 {
		return pipeline.Result{}, nil
	}

	res, err := s.pipeline.Run(ctx, batch)
	if err != nil {
		s.requeue(batch)
		return pipeline.Result{}, fmt.Errorf("run pipeline: %w", err)
	}

	if s.sink != nil {
		if err := s.store(ctx, res); err != nil {
			s.requeue(batch)
			return res, err
		}
	}

	// Audit and publishing are best-effort.
	if s.audit != nil {
		events := storage.EventsFromOutcomes(res.Outcomes, "nats", s.now())
		if err := s.audit.InsertBatch(ctx, events); err != nil {
			s.log.Warn("audit insert failed", zap.Int("events", len(events)), zap.Error(err))
		}
	}
	if s.pub != nil && s.cfg.SubjectOut != "" && len(res.Records) > 0 {
		data, err := json.Marshal(res.Records)
		if err != nil {
			s.log.Warn("marshal records failed", zap.Error(err))
		} else if err := s.pub.Publish(s.cfg.SubjectOut, data); err != nil {
			s.log.Warn("publish records failed", zap.String("subject", s.cfg.SubjectOut), zap.Error(err))
		}
	}

	s.log.Info("batch flushed",
		zap.Int("emails", len(batch)),
		zap.Int("records", len(res.Records)),
		zap.Int("merged", res.Merged),
	)
	return res, nil
}

func (s *Service) requeue(batch []email.RawEmail) {
	s.mu.Lock()
	s.pending = append(batch[:len(batch):len(batch)], s.pending...)
	s.mu.Unlock()
	s.log.Warn("batch requeued", zap.Int("emails", len(batch)))
}

// store folds records into the stored candidates they duplicate and saves
// the rest as new candidates.
func (s *Service) store(ctx context.Context, res pipeline.Result) error {
	issues := make(map[string][]string)
	for _, o := range res.Outcomes {
		if len(o.Issues) > 0 {
			issues[o.EmailID] = o.Issues
		}
	}

	var fresh []classify.ExtractedRecord
	folded := 0
	for _, rec := range res.Records {
		if s.index == nil {
			fresh = append(fresh, rec)
			continue
		}
		c, ok, err := s.index.FindEquivalent(ctx, rec)
		if err != nil {
			return fmt.Errorf("find equivalent of %s: %w", rec.EmailID, err)
		}
		if !ok {
			fresh = append(fresh, rec)
			continue
		}

		merged := s.pipeline.Merger().Merge(c.Record, rec)
		merged.EmailID = c.ID
		if err := s.index.UpdateRecord(ctx, merged, s.pipeline.Validator().Validate(merged).Issues); err != nil {
			return fmt.Errorf("update candidate %s: %w", c.ID, err)
		}
		s.log.Debug("merged into stored candidate", zap.String("email_id", rec.EmailID), zap.String("candidate", c.ID))
		folded++
	}
	metrics.RecordMerges(folded)

	if len(fresh) == 0 {
		return nil
	}
	if err := s.sink.SaveCandidates(ctx, fresh, issues); err != nil {
		return fmt.Errorf("save candidates: %w", err)
	}
	return nil
}

// Run subscribes to Config.SubjectIn on nc and flushes on size or interval
// until ctx is cancelled. Queued emails are flushed before returning.
func (s *Service) Run(ctx context.Context, nc *nats.Conn) error {
	sub, err := nc.QueueSubscribe(s.cfg.SubjectIn, s.cfg.Queue, func(m *nats.Msg) {
		s.Add(ctx, m.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.cfg.SubjectIn, err)
	}
	s.log.Info("ingest subscribed",
		zap.String("subject", s.cfg.SubjectIn),
		zap.String("queue", s.cfg.Queue),
		zap.Int("batch_size", s.cfg.BatchSize),
		zap.Duration("flush_interval", s.cfg.FlushInterval),
	)

	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := sub.Drain(); err != nil {
				s.log.Warn("drain subscription", zap.Error(err))
			}
			// The pipeline honours cancellation, so the final flush gets a fresh context.
			flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if _, err := s.Flush(flushCtx); err != nil {
				return err
			}
			return nil
		case <-ticker.C:
			if _, err := s.Flush(ctx); err != nil {
				s.log.Error("flush failed", zap.Error(err))
			}
		case <-s.full:
			if _, err := s.Flush(ctx); err != nil {
				s.log.Error("flush failed", zap.Error(err))
			}
		}
	}
}

// Connect dials NATS with reconnects enabled.
func Connect(url, name string, log *zap.Logger) (*nats.Conn, error) {
	log = logger.OrNop(log)
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return nc, nil
}
