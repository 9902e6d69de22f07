package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/fundwatch/navcache/bulletin"
	"github.com/fundwatch/navcache/core"
	"github.com/fundwatch/navcache/storage"
)

// ctxCheckInterval is how many rows the normalize loop processes
// between context cancellation checks.
const ctxCheckInterval = 512

// Pipeline orchestrates a bulletin refresh end to end. It holds no
// per-run state; a mutex makes runs single-flight across callers.
type Pipeline struct {
	source bulletin.Source
	writer storage.SnapshotWriter
	mu     sync.Mutex
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a refresh pipeline over the given bulletin source
// and snapshot writer.
func NewPipeline(source bulletin.Source, writer storage.SnapshotWriter, opts ...Option) (*Pipeline, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if writer == nil {
		return nil, ErrWriterRequired
	}

	p := &Pipeline{
		source: source,
		writer: writer,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// RunReport summarizes a completed refresh run.
type RunReport struct {
	Generation   uint64
	NAVDate      time.Time
	Checksum     core.Checksum
	RecordCount  int
	HouseCount   int
	WarningCount int
	Elapsed      time.Duration
}

// Ingest fetches the bulletin for the given date, normalizes it into a
// snapshot, and publishes the snapshot atomically. Only one run may be
// in flight at a time; concurrent calls fail with ErrIngestionInProgress.
// Row-level problems become warnings; the run fails only on fetch
// errors, structural parse failures, an empty result, or publish errors.
func (p *Pipeline) Ingest(ctx context.Context, date time.Time) (*RunReport, error) {
	if !p.mu.TryLock() {
		return nil, ErrIngestionInProgress
	}
	defer p.mu.Unlock()

	started := time.Now().UTC()
	status := &core.IngestStatus{
		State:     core.RunStateRunning,
		Stage:     StageFetching,
		NAVDate:   date,
		StartedAt: started,
	}
	p.putStatus(ctx, status)

	fail := func(stage string, err error) (*RunReport, error) {
		staged := &StageError{Stage: stage, Err: err}
		status.State = core.RunStateFailed
		status.Stage = stage
		status.Error = staged.Error()
		status.FinishedAt = time.Now().UTC()
		p.putStatus(context.WithoutCancel(ctx), status)
		p.logger.Error("ingestion run failed", "stage", stage, "err", err)
		return nil, staged
	}

	p.logger.Info("fetching NAV bulletin", "date", date.Format(core.NAVDateLayout))
	raw, err := p.source.Fetch(ctx, date)
	if err != nil {
		return fail(StageFetching, err)
	}
	checksum := core.ChecksumFromContent(raw)
	status.Checksum = checksum

	status.Stage = StageParsing
	p.putStatus(ctx, status)
	doc, err := bulletin.Parse(raw)
	if err != nil {
		return fail(StageParsing, err)
	}

	// Prefer the date the bulletin itself carries; a dump fetched for
	// date D can legitimately be stamped with the previous trading day.
	navDate := doc.Date
	if navDate.IsZero() {
		navDate = date
	}

	status.Stage = StageNormalizing
	status.NAVDate = navDate
	p.putStatus(ctx, status)

	builder := NewBuilder(navDate, checksum)
	for _, w := range doc.Warnings {
		builder.AddWarning(w)
	}
	for i, row := range doc.Rows {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return fail(StageNormalizing, err)
			}
		}

		record, err := core.NormalizeRow(row, navDate)
		if err != nil {
			kind := core.WarnMalformedRow
			if errors.Is(err, core.ErrMalformedValue) {
				kind = core.WarnMalformedValue
			}
			builder.AddWarning(core.Warning{Line: row.Line, Kind: kind, Detail: err.Error()})
			continue
		}
		builder.Add(row.Line, record)
	}

	status.Stage = StageBuilding
	p.putStatus(ctx, status)
	if builder.Len() == 0 {
		return fail(StageBuilding, ErrEmptyBulletin)
	}
	snapshot := builder.Build()

	status.Stage = StagePublishing
	status.RecordCount = len(snapshot.Records)
	status.WarningCount = len(snapshot.Warnings)
	p.putStatus(ctx, status)
	generation, err := p.writer.Publish(ctx, snapshot)
	if err != nil {
		return fail(StagePublishing, err)
	}

	status.State = core.RunStateSuccess
	status.Stage = StageIdle
	status.Generation = generation
	status.FinishedAt = time.Now().UTC()
	p.putStatus(context.WithoutCancel(ctx), status)

	report := &RunReport{
		Generation:   generation,
		NAVDate:      navDate,
		Checksum:     checksum,
		RecordCount:  len(snapshot.Records),
		HouseCount:   len(snapshot.Houses),
		WarningCount: len(snapshot.Warnings),
		Elapsed:      time.Since(started),
	}
	p.logger.Info("ingestion run complete",
		"generation", report.Generation,
		"navDate", report.NAVDate.Format(core.NAVDateLayout),
		"records", report.RecordCount,
		"houses", report.HouseCount,
		"warnings", report.WarningCount,
		"elapsed", report.Elapsed)

	return report, nil
}

// putStatus persists run status for observers. Status writes are best
// effort; a failure is logged and the run continues.
func (p *Pipeline) putStatus(ctx context.Context, status *core.IngestStatus) {
	if err := p.writer.PutStatus(ctx, status); err != nil {
		p.logger.Error("error persisting ingest status", "stage", status.Stage, "err", err)
	}
}
