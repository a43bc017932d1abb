package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"sirene/internal/fragment"
	"sirene/internal/load"
	"sirene/internal/notify"
	"sirene/internal/platform/metrics"
	"sirene/internal/schema"
)

// State names the phase a runner is in. Transitions are strictly
// sequential; a run returns to Idle whether it passed or failed.
type State string

const (
	StateIdle        State = "Idle"
	StateRetrieving  State = "Retrieving"
	StateFragmenting State = "Fragmenting"
	StateProcessing  State = "ProcessingFragments"
	StateReporting   State = "Reporting"
)

// ArchiveSource yields the extracted stock file for an archive name,
// fetching it only when absent.
type ArchiveSource interface {
	Ensure(ctx context.Context, filename string) (string, error)
}

// Report summarises a completed run.
type Report struct {
	RunID        uuid.UUID
	Dataset      string
	Fragments    int
	Rows         int
	Total        time.Duration
	MeanFragment time.Duration
}

func (r Report) String() string {
	return fmt.Sprintf("%s: %d fragments, %d rows, %s total, %s mean per fragment",
		r.Dataset, r.Fragments, r.Rows, r.Total.Round(time.Second), r.MeanFragment.Round(time.Millisecond))
}

// Runner drives one dataset through retrieval, fragmentation and the
// per-fragment normalize, derive, load cycle. Fragments are processed
// strictly in file order, one at a time; each committed fragment's file is
// deleted so a restarted run resumes at the first unconsumed fragment.
type Runner struct {
	archive   ArchiveSource
	store     load.Store
	dataDir   string
	limit     int
	messenger notify.Messenger
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time

	mu    sync.Mutex
	state State
}

type Option func(*Runner)

func WithMessenger(m notify.Messenger) Option {
	return func(r *Runner) { r.messenger = m }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

func WithFragmentLimit(limit int) Option {
	return func(r *Runner) { r.limit = limit }
}

func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

func NewRunner(archive ArchiveSource, store load.Store, dataDir string, opts ...Option) (*Runner, error) {
	if archive == nil {
		return nil, fmt.Errorf("archive source is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	r := &Runner{
		archive:   archive,
		store:     store,
		dataDir:   dataDir,
		limit:     50000,
		messenger: notify.Noop{},
		logger:    slog.Default(),
		now:       time.Now,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// State reports the runner's current phase.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Run executes one full dataset run and reports the outcome through the
// messenger. The first fragment failure aborts the run: committed fragments
// stay committed and the remaining fragment files are left on disk.
func (r *Runner) Run(ctx context.Context, ds Dataset) (Report, error) {
	report := Report{RunID: uuid.New(), Dataset: ds.Name}
	start := r.now()

	if err := ds.Mapping.Validate(); err != nil {
		return report, r.fail(ctx, ds, "", fmt.Errorf("schema mapping %s: %w", ds.Mapping.Version, err))
	}

	fragments, err := r.prepare(ctx, ds)
	if err != nil {
		return report, r.fail(ctx, ds, "", err)
	}

	r.setState(StateProcessing)
	for _, path := range fragments {
		rows, err := r.processFragment(ctx, ds, path)
		if err != nil {
			if r.metrics != nil {
				r.metrics.FragmentsProcessed.WithLabelValues(ds.Name, "error").Inc()
				r.metrics.RunDuration.WithLabelValues(ds.Name, "fail").Observe(r.now().Sub(start).Seconds())
			}
			return report, r.fail(ctx, ds, path, err)
		}
		report.Fragments++
		report.Rows += rows
		if r.metrics != nil {
			r.metrics.FragmentsProcessed.WithLabelValues(ds.Name, "ok").Inc()
			r.metrics.RowsStaged.WithLabelValues(ds.Name).Add(float64(rows))
		}
	}

	report.Total = r.now().Sub(start)
	if report.Fragments > 0 {
		report.MeanFragment = report.Total / time.Duration(report.Fragments)
	}
	if r.metrics != nil {
		r.metrics.RunDuration.WithLabelValues(ds.Name, "pass").Observe(report.Total.Seconds())
	}

	r.setState(StateReporting)
	title := fmt.Sprintf("SIRENE %s run complete", ds.Name)
	if err := r.messenger.Send(ctx, title, report.String(), notify.SeverityPass); err != nil {
		r.logger.Warn("pass report delivery failed", "error", err)
	}
	r.setState(StateIdle)

	r.logger.Info("run complete",
		"run_id", report.RunID, "dataset", ds.Name,
		"fragments", report.Fragments, "rows", report.Rows,
		"total", report.Total, "mean_fragment", report.MeanFragment)
	return report, nil
}

// prepare yields the ordered fragment files for the dataset. Leftover
// fragments from an aborted run take priority over a fresh retrieval, so a
// restart resumes where it stopped.
func (r *Runner) prepare(ctx context.Context, ds Dataset) ([]string, error) {
	leftovers, err := fragment.List(r.dataDir, ds.Stem)
	if err != nil {
		return nil, fmt.Errorf("list fragments: %w", err)
	}
	if len(leftovers) > 0 {
		r.logger.Info("resuming from leftover fragments", "dataset", ds.Name, "count", len(leftovers))
		return leftovers, nil
	}

	r.setState(StateRetrieving)
	extracted, err := r.archive.Ensure(ctx, ds.ArchiveName(r.now()))
	if err != nil {
		return nil, fmt.Errorf("ensure archive: %w", err)
	}

	r.setState(StateFragmenting)
	fragments, err := fragment.Split(extracted, r.dataDir, r.limit)
	if err != nil {
		return nil, fmt.Errorf("split archive: %w", err)
	}
	r.logger.Info("archive fragmented", "dataset", ds.Name, "fragments", len(fragments))
	return fragments, nil
}

// processFragment runs one fragment through normalize, derive, load and
// deletes the file once its rows are durable. Returns the loaded row count.
func (r *Runner) processFragment(ctx context.Context, ds Dataset, path string) (int, error) {
	start := r.now()

	t, err := schema.ReadFragment(path, ds.Mapping, ds.ReadOptions)
	if err != nil {
		return 0, fmt.Errorf("read fragment: %w", err)
	}
	dropped := schema.Apply(t, ds.Filters)

	if err := ds.Enrich(t, ds.Source, r.now()); err != nil {
		return 0, fmt.Errorf("derive columns: %w", err)
	}
	if err := ds.Load(ctx, r.store, t, ds.StageMode); err != nil {
		return 0, fmt.Errorf("load fragment: %w", err)
	}
	if err := os.Remove(path); err != nil {
		return 0, fmt.Errorf("delete fragment: %w", err)
	}

	elapsed := r.now().Sub(start)
	if r.metrics != nil {
		r.metrics.FragmentDuration.WithLabelValues(ds.Name).Observe(elapsed.Seconds())
	}
	r.logger.Info("fragment committed",
		"dataset", ds.Name, "fragment", path,
		"rows", t.Len(), "dropped", dropped, "elapsed", elapsed)
	return t.Len(), nil
}

// AggregateNafCounts runs the monthly activity-code count job for the
// current stock period. It reads the already-merged legal mirror, so it
// belongs after a successful legal-unit run.
func (r *Runner) AggregateNafCounts(ctx context.Context) error {
	fileDate := PeriodDate(r.now())
	if err := r.store.LoadNafCodeCounts(ctx, fileDate); err != nil {
		return fmt.Errorf("aggregate naf counts for %s: %w", fileDate, err)
	}
	r.logger.Info("naf code counts aggregated", "file_date", fileDate)
	return nil
}

// fail wraps the failure, reports it and restores the idle state.
func (r *Runner) fail(ctx context.Context, ds Dataset, fragmentPath string, err error) error {
	runErr := &RunError{Dataset: ds.Name, Fragment: fragmentPath, Err: err}

	r.setState(StateReporting)
	title := fmt.Sprintf("SIRENE %s run failed", ds.Name)
	if sendErr := r.messenger.Send(ctx, title, runErr.Error(), notify.SeverityFail); sendErr != nil {
		r.logger.Warn("fail report delivery failed", "error", sendErr)
	}
	r.setState(StateIdle)

	r.logger.Error("run aborted", "dataset", ds.Name, "fragment", fragmentPath, "error", err)
	return runErr
}
