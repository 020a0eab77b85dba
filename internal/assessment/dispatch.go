package assessment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carehq/carehq/internal/platform/blobstore"
	"github.com/carehq/carehq/internal/platform/metrics"
)

// Renderer turns a record into PDF bytes. The production implementation is
// renderer.Client; Configured reports whether an HTTPS endpoint is set.
type Renderer interface {
	Configured() bool
	Render(ctx context.Context, kind string, payload interface{}) ([]byte, error)
}

// jobTimeout bounds one generation attempt end to end: render call plus
// blob write plus linkage patch.
const jobTimeout = 60 * time.Second

// defaultDispatchDelay is applied when the configured delay is zero. The
// short pause keeps generation off the submission's critical path while
// letting quick follow-up edits land first.
const defaultDispatchDelay = 500 * time.Millisecond

// maxErrorLen caps pdf_error messages stored on the record.
const maxErrorLen = 1000

// Scheduler runs document generation jobs after a delay. The production
// implementation uses real timers; tests use SyncScheduler to run jobs
// inline.
type Scheduler interface {
	RunAfter(d time.Duration, job func())
	// Drain blocks until all scheduled jobs have finished or ctx expires.
	Drain(ctx context.Context) error
}

// TimerScheduler schedules jobs on time.AfterFunc and tracks them so a
// shutting-down server can wait for in-flight generations.
type TimerScheduler struct {
	wg sync.WaitGroup
}

func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{}
}

func (s *TimerScheduler) RunAfter(d time.Duration, job func()) {
	s.wg.Add(1)
	time.AfterFunc(d, func() {
		defer s.wg.Done()
		job()
	})
}

func (s *TimerScheduler) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SyncScheduler runs each job immediately on the calling goroutine,
// ignoring the delay. Test use only.
type SyncScheduler struct{}

func (SyncScheduler) RunAfter(_ time.Duration, job func()) { job() }
func (SyncScheduler) Drain(context.Context) error          { return nil }

// ScopeFunc runs fn with storage access scoped to the given tenant. A nil
// scope runs fn directly, which is correct for in-memory stores.
type ScopeFunc func(ctx context.Context, tenantID string, fn func(context.Context) error) error

// DispatcherConfig wires a Dispatcher. Zero values get sensible defaults:
// nil Scheduler becomes a TimerScheduler, nil Metrics a fresh counter set,
// zero Delay the default dispatch delay.
type DispatcherConfig struct {
	Store     Store
	Residents ResidentDirectory
	Renderer  Renderer
	Blobs     blobstore.BlobStore
	Metrics   *metrics.DispatchMetrics
	Scheduler Scheduler
	Scope     ScopeFunc
	Delay     time.Duration
	Logger    zerolog.Logger
}

// Dispatcher owns the asynchronous document pipeline: after every non-draft
// submission it re-reads the record, renders it to PDF through the external
// renderer, archives the bytes in the blob store, and links the file back to
// the record. Failures are recorded on the record and never reach the
// submitting caller. There are no retries.
type Dispatcher struct {
	store     Store
	residents ResidentDirectory
	renderer  Renderer
	blobs     blobstore.BlobStore
	metrics   *metrics.DispatchMetrics
	scheduler Scheduler
	scope     ScopeFunc
	delay     time.Duration
	log       zerolog.Logger
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Scheduler == nil {
		cfg.Scheduler = NewTimerScheduler()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewDispatchMetrics()
	}
	if cfg.Delay <= 0 {
		cfg.Delay = defaultDispatchDelay
	}
	if cfg.Scope == nil {
		cfg.Scope = func(ctx context.Context, _ string, fn func(context.Context) error) error {
			return fn(ctx)
		}
	}
	return &Dispatcher{
		store:     cfg.Store,
		residents: cfg.Residents,
		renderer:  cfg.Renderer,
		blobs:     cfg.Blobs,
		metrics:   cfg.Metrics,
		scheduler: cfg.Scheduler,
		scope:     cfg.Scope,
		delay:     cfg.Delay,
		log:       cfg.Logger.With().Str("component", "pdf_dispatcher").Logger(),
	}
}

// Metrics exposes the dispatcher's counters for the /metrics endpoint.
func (d *Dispatcher) Metrics() *metrics.DispatchMetrics { return d.metrics }

// Drain waits for in-flight generation jobs, bounded by ctx.
func (d *Dispatcher) Drain(ctx context.Context) error {
	return d.scheduler.Drain(ctx)
}

// Schedule queues one generation job for the record. Each submitted version
// gets its own independent job; two quick edits produce two jobs with no
// coordination between them.
func (d *Dispatcher) Schedule(kind Kind, tenantID string, id uuid.UUID) {
	d.metrics.Scheduled.WithLabelValues(kind.Name).Inc()
	d.scheduler.RunAfter(d.delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		err := d.scope(ctx, tenantID, func(ctx context.Context) error {
			return d.generate(ctx, kind, id)
		})
		if err != nil {
			d.metrics.Failed.WithLabelValues(kind.Name).Inc()
			d.log.Error().Err(err).Str("record_id", id.String()).
				Msg("document generation job failed")
		}
	})
}

// renderPayload is what the renderer receives: every record field at the top
// level, plus a resident snapshot for kinds that ask for one.
type renderPayload struct {
	*Record
	Resident json.RawMessage `json:"resident,omitempty"`
}

func (d *Dispatcher) generate(ctx context.Context, kind Kind, id uuid.UUID) error {
	// Re-read: the record is canonical, not whatever the submit handler saw.
	rec, err := d.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		// Deleted between submission and dispatch; nothing to do.
		d.log.Debug().Str("record_id", id.String()).Msg("record gone before generation")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load record: %w", err)
	}

	if d.renderer == nil || !d.renderer.Configured() {
		d.metrics.Skipped.WithLabelValues(kind.Name).Inc()
		d.log.Info().Str("record_id", id.String()).
			Msg("renderer not configured; document generation skipped")
		return nil
	}

	payload := renderPayload{Record: rec}
	if kind.IncludeResident && d.residents != nil {
		ref, err := d.residents.Lookup(ctx, rec.ResidentID)
		if err != nil {
			d.log.Warn().Err(err).Str("record_id", id.String()).
				Msg("resident snapshot unavailable; rendering without it")
		} else {
			payload.Resident = ref.Snapshot
		}
	}

	pdf, err := d.renderer.Render(ctx, kind.Name, payload)
	if err != nil {
		d.recordFailure(ctx, kind, id, fmt.Errorf("render: %w", err))
		return nil
	}

	fileName := fmt.Sprintf("%s %s.pdf", kind.Title, rec.CreatedAt.Format("2006-01-02"))
	meta, err := d.blobs.Store(ctx, fileName, "application/pdf", bytes.NewReader(pdf))
	if err != nil {
		d.recordFailure(ctx, kind, id, fmt.Errorf("store document: %w", err))
		return nil
	}

	now := time.Now().UTC()
	status := PDFStatusSucceeded
	clear := ""
	err = d.store.Patch(ctx, id, Patch{
		PDFFileID:      &meta.ID,
		PDFGeneratedAt: &now,
		PDFStatus:      &status,
		PDFError:       &clear,
	})
	if errors.Is(err, ErrNotFound) {
		// Deleted while rendering; discard the orphaned document.
		if derr := d.blobs.Delete(ctx, meta.ID); derr != nil {
			d.log.Warn().Err(derr).Str("file_id", meta.ID).Msg("orphaned document cleanup failed")
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("link document: %w", err)
	}

	d.metrics.Succeeded.WithLabelValues(kind.Name).Inc()
	d.log.Info().Str("record_id", id.String()).Str("file_id", meta.ID).
		Int("size", len(pdf)).Msg("document generated")
	return nil
}

// recordFailure marks the record's generation job failed. The payload and
// lifecycle status are left untouched; only the pdf columns change.
func (d *Dispatcher) recordFailure(ctx context.Context, kind Kind, id uuid.UUID, cause error) {
	d.metrics.Failed.WithLabelValues(kind.Name).Inc()

	msg := cause.Error()
	if len(msg) > maxErrorLen {
		msg = msg[:maxErrorLen]
	}
	status := PDFStatusFailed
	if err := d.store.Patch(ctx, id, Patch{PDFStatus: &status, PDFError: &msg}); err != nil && !errors.Is(err, ErrNotFound) {
		d.log.Error().Err(err).Str("record_id", id.String()).Msg("recording generation failure failed")
	}
	d.log.Error().Err(cause).Str("record_id", id.String()).Str("form_kind", kind.Name).
		Msg("document generation failed")
}
