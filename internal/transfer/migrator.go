// Package transfer copies rows from a source connector to a target connector
// and verifies the result by comparing row counts and numeric column extremes.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/sqlbridge/pkg/connector"
	"github.com/leapstack-labs/sqlbridge/pkg/core"
	"github.com/leapstack-labs/sqlbridge/pkg/ident"
)

// Factory builds an unconnected connector. Each worker calls it once per side.
type Factory func() (core.Connector, error)

// FromRegistry returns a Factory backed by the connector registry.
func FromRegistry(cfg connector.Config, logger *slog.Logger) Factory {
	return func() (core.Connector, error) {
		return connector.New(cfg, logger)
	}
}

// Config holds migrator configuration.
type Config struct {
	Source Factory
	Target Factory
	// TargetDatabase is selected on every target connection when set.
	TargetDatabase string
	// Tables restricts the run to these source tables. Empty means all.
	Tables []string
	// Workers is the number of parallel connector pairs (minimum 1).
	Workers int
	// Store records runs, table results and snapshots. Optional.
	Store core.Store
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Migrator moves rows between two engines table by table.
type Migrator struct {
	cfg    Config
	logger *slog.Logger
	names  *ident.Registry
}

// New creates a Migrator.
func New(cfg Config) (*Migrator, error) {
	if cfg.Source == nil || cfg.Target == nil {
		return nil, errors.New("source and target factories are required")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Migrator{cfg: cfg, logger: logger, names: ident.NewRegistry()}, nil
}

// Names returns the registry of flat names produced so far.
func (m *Migrator) Names() *ident.Registry {
	return m.names
}

// job is one source table and its flat target name.
type job struct {
	runID  string
	source string
	target string
}

// pair is one worker's connected source and target.
type pair struct {
	source core.Connector
	target core.Connector
}

// tableFunc processes one job with a worker's connectors.
type tableFunc func(ctx context.Context, p pair, j job) *core.TableResult

// Migrate copies every selected table and verifies row counts afterwards.
func (m *Migrator) Migrate(ctx context.Context) (*Report, error) {
	return m.run(ctx, "migrate", m.copyTable)
}

// Verify compares source and target row counts and numeric column MIN/MAX
// without copying anything.
func (m *Migrator) Verify(ctx context.Context) (*Report, error) {
	return m.run(ctx, "verify", m.verifyTable)
}

func (m *Migrator) run(ctx context.Context, kind string, fn tableFunc) (*Report, error) {
	started := time.Now()
	m.logger.Info("starting run", "kind", kind, "workers", m.cfg.Workers)

	planner, err := m.connectPair(ctx)
	if err != nil {
		return nil, err
	}
	jobs, targetTables, planned := m.plan(ctx, planner)
	m.disconnect(planner)

	run, err := m.createRun(ctx, kind, planner)
	if err != nil {
		return nil, err
	}

	report := &Report{Kind: kind, StartedAt: started}
	if run != nil {
		report.RunID = run.ID
	}
	var mu sync.Mutex
	record := func(r *core.TableResult) {
		r.RunID = report.RunID
		if m.cfg.Store != nil {
			if err := m.cfg.Store.RecordTableResult(ctx, r); err != nil {
				m.logger.Warn("failed to record table result", "table", r.SourceTable, "error", err)
			}
		}
		mu.Lock()
		report.add(r)
		mu.Unlock()
	}
	for _, r := range planned {
		record(r)
	}

	for i := range jobs {
		jobs[i].runID = report.RunID
	}
	runErr := m.dispatch(ctx, jobs, targetTables, fn, record)
	report.Duration = time.Since(started)
	report.sort()

	m.completeRun(ctx, run, runErr)
	if runErr != nil {
		m.logger.Error("run failed", "kind", kind, "error", runErr)
		return report, runErr
	}

	m.logger.Info("run completed", "kind", kind, "tables", len(report.Results), "duration", report.Duration)
	return report, nil
}

// dispatch fans jobs out to Workers goroutines, each owning its own
// connector pair for the whole run.
func (m *Migrator) dispatch(ctx context.Context, jobs []job, targetTables map[string]bool, fn tableFunc, record func(*core.TableResult)) error {
	queue := make(chan job)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(queue)
		for _, j := range jobs {
			select {
			case queue <- j:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	workers := min(m.cfg.Workers, max(len(jobs), 1))
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			p, err := m.connectPair(gctx)
			if err != nil {
				return err
			}
			defer m.disconnect(p)

			for j := range queue {
				var r *core.TableResult
				if !targetTables[j.target] {
					r = skipped(j)
				} else {
					r = fn(gctx, p, j)
				}
				record(r)
			}
			return nil
		})
	}

	return g.Wait()
}

// plan lists the source tables, maps them to flat names and reads the target
// catalog. Tables whose names cannot be flattened come back as failed results.
func (m *Migrator) plan(ctx context.Context, p pair) ([]job, map[string]bool, []*core.TableResult) {
	sources := m.cfg.Tables
	if len(sources) == 0 {
		sources = p.source.TableNames(ctx)
	}

	targetTables := make(map[string]bool)
	folded := make(map[string]string)
	for _, t := range p.target.TableNames(ctx) {
		targetTables[t] = true
		key := strings.ToLower(t)
		if _, dup := folded[key]; dup {
			folded[key] = ""
		} else {
			folded[key] = t
		}
	}

	var (
		jobs     []job
		rejected []*core.TableResult
	)
	for _, src := range sources {
		flat, err := m.names.ToFlat(src)
		if err != nil {
			rejected = append(rejected, &core.TableResult{
				SourceTable: src,
				Status:      core.TableStatusFailed,
				Error:       err.Error(),
			})
			continue
		}
		// servers with lower_case_table_names report folded names; an exact
		// match wins and an ambiguous fold is not used
		if !targetTables[flat] {
			if name := folded[strings.ToLower(flat)]; name != "" {
				flat = name
			}
		}
		jobs = append(jobs, job{source: src, target: flat})
	}

	m.logger.Debug("planned run", "tables", len(jobs), "rejected", len(rejected), "target_tables", len(targetTables))
	return jobs, targetTables, rejected
}

// copyTable snapshots, reads, inserts and then re-counts one table.
func (m *Migrator) copyTable(ctx context.Context, p pair, j job) *core.TableResult {
	started := time.Now()
	r := &core.TableResult{SourceTable: j.source, TargetTable: j.target}
	defer func() { r.Duration = time.Since(started) }()

	snap, err := p.source.TableStructure(ctx, j.source)
	if err != nil {
		return failed(r, err)
	}
	r.SourceRows = snap.RowCount()
	m.saveSnapshot(ctx, j.runID, core.SideSource, snap)

	rows, err := p.source.TableData(ctx, j.source)
	if err != nil {
		return failed(r, err)
	}

	res, err := p.target.InsertData(ctx, j.target, rows)
	r.Inserted = int64(res.Inserted)
	r.Failed = int64(res.Failed)
	if err != nil {
		return failed(r, err)
	}

	tsnap, err := p.target.TableStructure(ctx, j.target)
	if err != nil {
		return failed(r, fmt.Errorf("verification failed: %w", err))
	}
	r.TargetRows = tsnap.RowCount()
	m.saveSnapshot(ctx, j.runID, core.SideTarget, tsnap)

	switch {
	case res.Failed > 0:
		r.Status = core.TableStatusPartial
		r.Error = fmt.Sprintf("%d of %d rows failed", res.Failed, res.Attempted)
		if len(res.Errors) > 0 {
			r.Error += ": " + res.Errors[0].Err.Error()
		}
	case r.TargetRows != r.SourceRows:
		r.Status = core.TableStatusMismatch
		r.Error = fmt.Sprintf("source has %d rows, target has %d", r.SourceRows, r.TargetRows)
	default:
		r.Status = core.TableStatusOK
	}

	m.logger.Info("table copied",
		"source", j.source, "target", j.target,
		"inserted", r.Inserted, "failed", r.Failed, "status", r.Status)
	return r
}

// verifyTable compares live row counts of one table on both sides and, when
// they agree, the MIN and MAX of every numeric column.
func (m *Migrator) verifyTable(ctx context.Context, p pair, j job) *core.TableResult {
	started := time.Now()
	r := &core.TableResult{SourceTable: j.source, TargetTable: j.target}
	defer func() { r.Duration = time.Since(started) }()

	snap, err := p.source.TableStructure(ctx, j.source)
	if err != nil {
		return failed(r, err)
	}
	tsnap, err := p.target.TableStructure(ctx, j.target)
	if err != nil {
		return failed(r, err)
	}
	m.saveSnapshot(ctx, j.runID, core.SideSource, snap)
	m.saveSnapshot(ctx, j.runID, core.SideTarget, tsnap)

	r.SourceRows = snap.RowCount()
	r.TargetRows = tsnap.RowCount()
	if r.SourceRows != r.TargetRows {
		r.Status = core.TableStatusMismatch
		r.Error = fmt.Sprintf("source has %d rows, target has %d", r.SourceRows, r.TargetRows)
		return r
	}

	srcRows, err := p.source.TableData(ctx, j.source)
	if err != nil {
		return failed(r, err)
	}
	tgtRows, err := p.target.TableData(ctx, j.target)
	if err != nil {
		return failed(r, err)
	}

	checked, diff := compareExtremes(srcRows, tgtRows)
	r.ColumnsChecked = checked
	if diff != "" {
		r.Status = core.TableStatusMismatch
		r.Error = diff
		m.logger.Warn("column extremes differ", "source", j.source, "target", j.target, "detail", diff)
		return r
	}

	r.Status = core.TableStatusOK
	return r
}

func failed(r *core.TableResult, err error) *core.TableResult {
	r.Status = core.TableStatusFailed
	r.Error = err.Error()
	return r
}

func skipped(j job) *core.TableResult {
	return &core.TableResult{
		SourceTable: j.source,
		TargetTable: j.target,
		Status:      core.TableStatusSkipped,
		Error:       fmt.Sprintf("target table %s does not exist", j.target),
	}
}

// connectPair builds and connects one source and one target connector.
func (m *Migrator) connectPair(ctx context.Context) (pair, error) {
	src, err := m.cfg.Source()
	if err != nil {
		return pair{}, fmt.Errorf("failed to create source connector: %w", err)
	}
	tgt, err := m.cfg.Target()
	if err != nil {
		return pair{}, fmt.Errorf("failed to create target connector: %w", err)
	}

	if err := src.Connect(ctx); err != nil {
		return pair{}, fmt.Errorf("failed to connect source %s: %w", src.ConnectionString(), err)
	}
	if err := tgt.Connect(ctx); err != nil {
		_ = src.Disconnect()
		return pair{}, fmt.Errorf("failed to connect target %s: %w", tgt.ConnectionString(), err)
	}

	if m.cfg.TargetDatabase != "" {
		if err := tgt.UseDatabase(ctx, m.cfg.TargetDatabase); err != nil {
			_ = src.Disconnect()
			_ = tgt.Disconnect()
			return pair{}, fmt.Errorf("failed to select target database: %w", err)
		}
	}
	return pair{source: src, target: tgt}, nil
}

func (m *Migrator) disconnect(p pair) {
	if err := p.source.Disconnect(); err != nil {
		m.logger.Warn("source disconnect failed", "error", err)
	}
	if err := p.target.Disconnect(); err != nil {
		m.logger.Warn("target disconnect failed", "error", err)
	}
}

func (m *Migrator) createRun(ctx context.Context, kind string, p pair) (*core.Run, error) {
	if m.cfg.Store == nil {
		return nil, nil
	}
	run, err := m.cfg.Store.CreateRun(ctx, kind, p.source.ConnectionString(), p.target.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	m.logger.Debug("created run", "run_id", run.ID)
	return run, nil
}

func (m *Migrator) completeRun(ctx context.Context, run *core.Run, runErr error) {
	if run == nil {
		return
	}
	status, msg := core.RunStatusCompleted, ""
	if runErr != nil {
		status, msg = core.RunStatusFailed, runErr.Error()
	}
	if err := m.cfg.Store.CompleteRun(ctx, run.ID, status, msg); err != nil {
		m.logger.Warn("failed to complete run", "run_id", run.ID, "error", err)
	}
}

func (m *Migrator) saveSnapshot(ctx context.Context, runID string, side core.Side, snap *core.TableSnapshot) {
	if m.cfg.Store == nil || runID == "" {
		return
	}
	if err := m.cfg.Store.SaveSnapshots(ctx, runID, side, []*core.TableSnapshot{snap}); err != nil {
		m.logger.Warn("failed to save snapshot", "table", snap.QualifiedName(), "error", err)
	}
}
