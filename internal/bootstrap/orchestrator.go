package bootstrap

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"arsenal-loader/internal/fsops"
	"arsenal-loader/internal/logging"
	"arsenal-loader/internal/modmeta"
)

// Outcome is the terminal result of a whole run.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// Options carries every collaborator the orchestrator needs.
type Options[S any] struct {
	InstallRoot string
	Meta        modmeta.Metadata
	Categories  []Category
	Checker     fsops.FolderChecker
	Registrar   Registrar
	State       S
	Steps       []PatchStep[S]
	Reporter    Reporter
	Observer    Observer
	Logger      Logger
	NewRunID    func() string
}

// Report describes one run. It is returned to the caller and not stored.
type Report struct {
	RunID      string
	Categories []string // categories registered successfully, in order
	Steps      []StepResult
	Outcome    Outcome
	Duration   time.Duration
}

// Applied returns the names of steps that applied cleanly.
func (r *Report) Applied() []string {
	var names []string
	for _, s := range r.Steps {
		if s.State == StepApplied {
			names = append(names, s.Name)
		}
	}
	return names
}

// Orchestrator runs the startup sequence against shared state S.
type Orchestrator[S any] struct {
	root       string
	meta       modmeta.Metadata
	categories []Category
	state      S
	scanner    *Scanner
	dispatcher *Dispatcher
	patches    *PatchRunner[S]
	reporter   Reporter
	logger     Logger
	newRunID   func() string
}

func New[S any](opts Options[S]) (*Orchestrator[S], error) {
	if opts.InstallRoot == "" || !filepath.IsAbs(opts.InstallRoot) {
		return nil, errors.Wrapf(ErrNoInstallRoot, "got %q", opts.InstallRoot)
	}
	if opts.Registrar == nil {
		return nil, ErrNoRegistrar
	}

	var logger Logger = opts.Logger
	if logger == nil {
		logger = logging.NewLeveled(nil)
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = LogReporter{Logger: logger}
	}
	newRunID := opts.NewRunID
	if newRunID == nil {
		newRunID = uuid.NewString
	}

	root := filepath.Clean(opts.InstallRoot)
	bundle := Bundle{Name: opts.Meta.GUID, Root: root}

	return &Orchestrator[S]{
		root:       root,
		meta:       opts.Meta,
		categories: append([]Category(nil), opts.Categories...),
		state:      opts.State,
		scanner:    NewScanner(opts.Checker),
		dispatcher: NewDispatcher(opts.Registrar, bundle, opts.Observer, logger),
		patches:    NewPatchRunner(append([]PatchStep[S](nil), opts.Steps...), opts.Observer, logger),
		reporter:   reporter,
		logger:     logger,
		newRunID:   newRunID,
	}, nil
}

// Run executes scan, category registration, recipe registration, patch
// steps and the completion report, strictly in that order. A registration
// failure is returned and ends the run early; patch failures never are.
func (o *Orchestrator[S]) Run(ctx context.Context) (*Report, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	start := time.Now()
	report := &Report{RunID: o.newRunID(), Outcome: OutcomeFailed}
	ctx = WithRunID(ctx, report.RunID)

	present := o.scanner.Present(o.root, o.categories)
	o.logger.Debug("content folders scanned", "run", report.RunID, "root", o.root, "present", len(present), "declared", len(o.categories))

	registered, err := o.dispatcher.Dispatch(ctx, present)
	for _, c := range registered {
		report.Categories = append(report.Categories, c.Name)
	}
	if err != nil {
		report.Duration = time.Since(start)
		return report, err
	}
	if err := o.dispatcher.RegisterRecipes(ctx); err != nil {
		report.Duration = time.Since(start)
		return report, err
	}

	report.Steps = o.patches.Run(ctx, o.state)
	report.Outcome = OutcomeSuccess
	report.Duration = time.Since(start)

	o.reporter.Completed(o.meta)
	return report, nil
}
