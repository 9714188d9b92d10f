package recipe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/palletworks/pallet/internal/logger"
	"github.com/palletworks/pallet/internal/metacache"
	"github.com/palletworks/pallet/internal/report"
	"github.com/palletworks/pallet/internal/runner"
	"github.com/palletworks/pallet/internal/settings"
)

// RunResult is what one recipe run produced. TimedOut and ExitCode
// describe the last phase that ran; CheckOnly means the dry run found
// nothing new, so the full run was skipped and Report is the check
// phase's report.
type RunResult struct {
	Report    report.ConsolidatedReport
	ExitCode  int
	TimedOut  bool
	CheckOnly bool
}

// Executor drives autopkg subcommands for recipes. It is safe for
// concurrent use across distinct recipes; the trust verdict memoized
// on each Recipe is the only state it mutates.
type Executor struct {
	runner    runner.CommandRunner
	settings  *settings.Settings
	store     *metacache.Store
	reportDir string
}

func NewExecutor(r runner.CommandRunner, s *settings.Settings, store *metacache.Store, reportDir string) *Executor {
	return &Executor{
		runner:    r,
		settings:  s,
		store:     store,
		reportDir: reportDir,
	}
}

// Run executes the recipe in two phases. The check phase is a dry run;
// when it downloaded nothing new, its report is the final answer.
// Otherwise the new downloads' metadata is persisted to the cache
// before the full run starts, so a crash mid-run cannot lose it.
func (e *Executor) Run(ctx context.Context, r *Recipe) (RunResult, error) {
	reportPath := e.reportPath(r)

	checkRes, err := e.runPhase(ctx, r, reportPath, true)
	if err != nil {
		return RunResult{}, err
	}

	checkRep, err := report.Load(reportPath)
	if err != nil {
		return RunResult{}, err
	}

	if checkRes.TimedOut {
		return RunResult{Report: checkRep, ExitCode: checkRes.ExitCode, TimedOut: true}, nil
	}

	if !checkRep.HasDownloads() {
		return RunResult{Report: checkRep, ExitCode: checkRes.ExitCode, CheckOnly: true}, nil
	}

	metadata := e.collectMetadata(checkRep)
	if err := e.store.Save(r.Name(), metacache.NewRecipeCache(metadata)); err != nil {
		return RunResult{}, err
	}

	fullRes, err := e.runPhase(ctx, r, reportPath, false)
	if err != nil {
		return RunResult{}, err
	}

	fullRep, err := report.Load(reportPath)
	if err != nil {
		return RunResult{}, err
	}

	return RunResult{Report: fullRep, ExitCode: fullRes.ExitCode, TimedOut: fullRes.TimedOut}, nil
}

func (e *Executor) runPhase(ctx context.Context, r *Recipe, reportPath string, check bool) (runner.Result, error) {
	if check {
		logger.Debug("Performing Check Phase on %s...", r.Name())
	} else {
		logger.Debug("Performing AutoPkg Run on %s...", r.Name())
	}

	name, args, err := e.runCommand(r, reportPath, check)
	if err != nil {
		return runner.Result{}, err
	}

	res, err := e.runner.Run(ctx, runner.Options{Timeout: e.settings.Timeout()}, name, args...)
	if err != nil {
		return runner.Result{}, err
	}

	// Non-zero exits are not fatal here: autopkg records per-recipe
	// failures in the report, which the caller reads either way.
	if res.ExitCode != 0 {
		stderr := strings.TrimSpace(res.Stderr)
		if stderr == "" {
			stderr = "<Unknown Error>"
		}
		if check {
			logger.LogError("An error occurred while running the check phase on %s: %s", r.Name(), stderr)
		} else {
			logger.LogError("An error occurred while running %s: %s", r.Name(), stderr)
		}
	}

	return res, nil
}

// VerifyTrustInfo checks the override's trust info once per
// invocation; later calls return the memoized verdict without
// invoking autopkg again.
func (e *Executor) VerifyTrustInfo(ctx context.Context, r *Recipe) (TrustState, error) {
	if r.trust != TrustUntested {
		return r.trust, nil
	}

	logger.Debug("Verifying trust info for %s...", r.Name())

	argv, err := e.settings.AutoPkgArgv()
	if err != nil {
		return r.trust, err
	}
	args := append(argv[1:], "verify-trust-info", r.Name(), "--override-dir="+r.Dir())
	if flag := verbosityFlag(e.settings.Verbosity); flag != "" {
		args = append(args, flag)
	}

	res, err := e.runner.Run(ctx, runner.Options{Timeout: e.settings.Timeout()}, argv[0], args...)
	if err != nil {
		return r.trust, err
	}

	if res.ExitCode == 0 {
		logger.Info("Trust info verification for %s successful.", r.Name())
		r.trust = TrustVerified
	} else {
		logger.Warn("Trust info verification for %s failed.", r.Name())
		r.trust = TrustFailed
	}

	return r.trust, nil
}

// UpdateTrustInfo rewrites the override's trust info against the
// current parent recipe and resets the memoized verdict, so the next
// verification runs for real. Returns whether autopkg succeeded.
func (e *Executor) UpdateTrustInfo(ctx context.Context, r *Recipe) (bool, error) {
	logger.Debug("Updating trust info for %s...", r.Name())

	argv, err := e.settings.AutoPkgArgv()
	if err != nil {
		return false, err
	}
	args := append(argv[1:], "update-trust-info", r.Name(), "--override-dir="+r.Dir())

	res, err := e.runner.Run(ctx, runner.Options{Timeout: e.settings.Timeout()}, argv[0], args...)
	if err != nil {
		return false, err
	}

	if out := strings.TrimSpace(res.Stdout); out != "" {
		logger.Info("%s", out)
	}
	r.trust = TrustUntested

	if res.ExitCode == 0 {
		logger.Info("Trust info update for %s successful.", r.Name())
		return true, nil
	}

	logger.Warn("Trust info update for %s failed.", r.Name())
	return false, nil
}

func (e *Executor) runCommand(r *Recipe, reportPath string, check bool) (string, []string, error) {
	argv, err := e.settings.AutoPkgArgv()
	if err != nil {
		return "", nil, err
	}

	args := append(argv[1:], "run", r.Name(),
		"--override-dir="+r.Dir(),
		"--report-plist="+reportPath,
	)
	// Run phases get one level less than the batch verbosity, so -vv
	// on the batch shows autopkg's own output only from -v up.
	if flag := verbosityFlag(e.settings.Verbosity - 1); flag != "" {
		args = append(args, flag)
	}
	if check {
		args = append(args, "--check")
	}
	return argv[0], args, nil
}

// reportPath is stable across both phases of one Run call but unique
// per invocation, so executors sharing a report directory never
// collide.
func (e *Executor) reportPath(r *Recipe) string {
	return filepath.Join(e.reportDir, fmt.Sprintf("%s-%s.plist", r.Name(), uuid.NewString()))
}

func (e *Executor) collectMetadata(rep report.ConsolidatedReport) []metacache.DownloadMetadata {
	paths := rep.DownloadPaths()
	metadata := make([]metacache.DownloadMetadata, 0, len(paths))

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			logger.Warn("skipping metadata for %s: %v", path, err)
			continue
		}
		metadata = append(metadata, metacache.DownloadMetadata{
			ETag:         metacache.FileAttr(path, metacache.AttrETag),
			FilePath:     path,
			FileSize:     info.Size(),
			LastModified: metacache.FileAttr(path, metacache.AttrLastModified),
		})
	}
	return metadata
}

// verbosityFlag renders a count as autopkg's stacked flag form, "-vv".
func verbosityFlag(count int) string {
	if count <= 0 {
		return ""
	}
	return "-" + strings.Repeat("v", count)
}
