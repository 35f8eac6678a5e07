package startup

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"time"

	"arsenal-loader/internal/assets"
	"arsenal-loader/internal/bootstrap"
	"arsenal-loader/internal/config"
	"arsenal-loader/internal/content"
	"arsenal-loader/internal/fsops"
	"arsenal-loader/internal/logging"
	"arsenal-loader/internal/metrics"
	"arsenal-loader/internal/modmeta"
	"arsenal-loader/internal/patches"
)

// ContentFolders are the item categories looked for under the install root,
// in registration order.
var ContentFolders = []string{"Weapons", "Ammo", "Attachments", "Items", "Armor"}

// executable is swapped in tests.
var executable = os.Executable

// ResolveInstallRoot returns the configured install root, or the directory
// holding the running binary.
func ResolveInstallRoot(cfg *config.Config) (string, error) {
	if cfg != nil && cfg.InstallRoot != "" {
		return cfg.InstallRoot, nil
	}
	exe, err := executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

func RunOnce(ctx context.Context, cfg *config.Config, logger *log.Logger, db *content.DB) (*bootstrap.Report, error) {
	return RunOnceWithChecker(ctx, cfg, logger, db, nil)
}

// RunOnceWithChecker runs one startup pass. A nil checker looks at the real
// filesystem.
func RunOnceWithChecker(ctx context.Context, cfg *config.Config, logger *log.Logger, db *content.DB, checker fsops.FolderChecker) (*bootstrap.Report, error) {
	if logger == nil {
		logger = log.Default()
	}
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if db == nil {
		return nil, errors.New("nil content database")
	}

	metrics.Init()

	root, err := ResolveInstallRoot(cfg)
	if err != nil {
		metrics.ErrorsTotal.Inc()
		return nil, err
	}

	leveled := logging.NewLeveled(logger)
	leveled.Verbose = cfg.Logging.Verbose
	orch, err := bootstrap.New(bootstrap.Options[*content.DB]{
		InstallRoot: root,
		Meta:        modmeta.Arsenal,
		Categories:  bootstrap.Categories(ContentFolders...),
		Checker:     checker,
		Registrar:   assets.NewRegistrar(db, leveled),
		State:       db,
		Steps:       patches.All(),
		Observer:    metricsObserver{},
		Logger:      leveled,
	})
	if err != nil {
		metrics.ErrorsTotal.Inc()
		return nil, err
	}

	start := time.Now()
	report, err := orch.Run(ctx)
	if err != nil {
		metrics.ErrorsTotal.Inc()
		if report != nil {
			metrics.RecordRun(metrics.OutcomeFailed, time.Since(start))
		}
		return report, err
	}

	metrics.RecordRun(metrics.OutcomeSuccess, report.Duration)
	logger.Printf("startup complete: run=%s categories=%d patches=%d/%d duration=%.3fs",
		report.RunID, len(report.Categories), len(report.Applied()), len(report.Steps), report.Duration.Seconds())
	return report, nil
}

// metricsObserver forwards orchestrator events to Prometheus.
type metricsObserver struct{}

func (metricsObserver) CategoryRegistered(category string) {
	metrics.RecordCategory(category)
}

func (metricsObserver) PatchStepFinished(step string, state bootstrap.StepState) {
	metrics.RecordPatchStep(step, string(state))
}
