// Package orchestrator coordinates batches of recipe work: gathering
// names from every input source, resolving them against the override
// directories, priming placeholder downloads from the cache, fanning
// runs across a bounded pool and summarizing what happened.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/palletworks/pallet/internal/autopkg"
	"github.com/palletworks/pallet/internal/logger"
	"github.com/palletworks/pallet/internal/metacache"
	"github.com/palletworks/pallet/internal/prefs"
	"github.com/palletworks/pallet/internal/printer"
	"github.com/palletworks/pallet/internal/recipe"
	"github.com/palletworks/pallet/internal/recipelist"
	"github.com/palletworks/pallet/internal/runner"
	"github.com/palletworks/pallet/internal/settings"
	"github.com/palletworks/pallet/internal/utils"
)

// RecipeEnvVar names a single extra recipe, the way CI systems pass
// one without touching argv.
const RecipeEnvVar = "RECIPE"

// Coordinator owns the shared pieces of a batch: one cache store, one
// executor and one report directory. Recipes never share mutable
// state beyond those, so batch members are isolated from each other.
type Coordinator struct {
	settings *settings.Settings
	prefs    *prefs.Prefs
	store    *metacache.Store
	executor *recipe.Executor
	client   *autopkg.Client

	reportDir     string
	ownsReportDir bool
}

// New builds a Coordinator. A nil runner means real subprocesses.
// When no report directory is configured, a temporary one is created;
// Cleanup removes it.
func New(r runner.CommandRunner, s *settings.Settings, p *prefs.Prefs) (*Coordinator, error) {
	if r == nil {
		r = runner.ExecRunner{}
	}

	reportDir := s.ReportDir
	owns := false
	if reportDir == "" {
		dir, err := os.MkdirTemp("", "pallet-")
		if err != nil {
			return nil, fmt.Errorf("failed to create report directory: %w", err)
		}
		reportDir = dir
		owns = true
	} else if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory %s: %w", reportDir, err)
	}

	store := metacache.NewStore(s.CacheFile)

	return &Coordinator{
		settings:      s,
		prefs:         p,
		store:         store,
		executor:      recipe.NewExecutor(r, s, store, reportDir),
		client:        autopkg.New(r, s),
		reportDir:     reportDir,
		ownsReportDir: owns,
	}, nil
}

// Cleanup removes the temporary report directory, when one was made.
func (c *Coordinator) Cleanup() {
	if !c.ownsReportDir {
		return
	}
	if err := os.RemoveAll(c.reportDir); err != nil {
		logger.Debug("failed to remove report directory %s: %v", c.reportDir, err)
	}
}

func (c *Coordinator) Store() *metacache.Store { return c.store }

// GatherRecipes merges the three recipe sources: positional args, a
// JSON list file and the RECIPE environment variable. Order is
// preserved and duplicates collapse to the first occurrence.
func GatherRecipes(args []string, listFile string) ([]string, error) {
	names := append([]string(nil), args...)

	if listFile != "" {
		fromFile, err := recipelist.Load(listFile)
		if err != nil {
			return nil, err
		}
		names = append(names, fromFile...)
	}

	if env := strings.TrimSpace(os.Getenv(RecipeEnvVar)); env != "" {
		names = append(names, env)
	}

	return utils.Dedupe(names), nil
}

// Resolve finds the override file for a recipe name by scanning the
// configured override directories in order; the first hit wins.
func (c *Coordinator) Resolve(name string) (string, error) {
	dirs := c.prefs.RecipeOverrideDirs()
	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)
		if ok, _ := utils.FileExists(candidate); ok {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no override named %s in %s", name, strings.Join(dirs, ", "))
}

func (c *Coordinator) load(name string) (*recipe.Recipe, error) {
	path, err := c.Resolve(name)
	if err != nil {
		return nil, err
	}
	return recipe.New(path)
}

// Prime recreates placeholder downloads for the named recipes from
// their cached metadata, so the next check phase sees them unchanged.
func (c *Coordinator) Prime(names []string) (int, error) {
	cache, err := c.store.Load()
	if err != nil {
		return 0, err
	}

	created, err := metacache.Synthesize(names, cache)
	if created > 0 {
		logger.Info("Recreated %d placeholder download(s) from the cache.", created)
	}
	return created, err
}

// forEach runs fn once per name with at most MaxParallel in flight.
// Each call gets its own index, so workers write disjoint slots of
// the results slice.
func (c *Coordinator) forEach(names []string, fn func(i int, name string)) {
	limit := c.settings.MaxParallel
	if limit < 1 {
		limit = 1
	}

	g := new(errgroup.Group)
	g.SetLimit(limit)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			fn(i, name)
			return nil
		})
	}
	_ = g.Wait()
}

// Outcome is the per-recipe result of a batch run.
type Outcome struct {
	Recipe   string
	Path     string
	Result   recipe.RunResult
	Trust    recipe.TrustState
	Err      error
	Duration time.Duration
}

// Status condenses an outcome to the word shown in the summary table.
func (o Outcome) Status() string {
	switch {
	case o.Err != nil:
		return "failed"
	case o.Trust == recipe.TrustFailed:
		return "trust failed"
	case o.Result.TimedOut:
		return "timed out"
	case o.Result.CheckOnly:
		return "unchanged"
	default:
		return "ok"
	}
}

// RunBatch executes every named recipe, bounded by MaxParallel. One
// recipe failing, timing out or losing trust never stops the others;
// each outcome stands alone.
func (c *Coordinator) RunBatch(ctx context.Context, names []string, verifyTrust bool) []Outcome {
	installed, err := c.client.Version(ctx)
	if err != nil {
		logger.Debug("Could not determine the installed autopkg version: %v", err)
	}

	outcomes := make([]Outcome, len(names))
	c.forEach(names, func(i int, name string) {
		outcomes[i] = c.runOne(ctx, name, installed, verifyTrust)
	})
	return outcomes
}

func (c *Coordinator) runOne(ctx context.Context, name, installed string, verifyTrust bool) Outcome {
	start := time.Now()
	out := Outcome{Recipe: name}

	r, err := c.load(name)
	if err != nil {
		logger.LogError("%v", err)
		out.Err = err
		out.Duration = time.Since(start)
		return out
	}
	out.Path = r.Path()

	autopkg.EnsureCompatible(installed, r.MinimumVersion(), r.Name())

	if verifyTrust {
		state, err := c.executor.VerifyTrustInfo(ctx, r)
		if err != nil {
			out.Err = err
			out.Duration = time.Since(start)
			return out
		}
		out.Trust = state
		if state == recipe.TrustFailed {
			logger.Warn("Skipping %s: trust verification failed.", r.Name())
			out.Duration = time.Since(start)
			return out
		}
	}

	res, err := c.executor.Run(ctx, r)
	out.Result = res
	out.Err = err
	out.Trust = r.Trust()
	out.Duration = time.Since(start)

	switch {
	case err != nil:
		logger.LogError("%s did not complete: %v", r.Name(), err)
	case res.TimedOut:
		logger.Warn("%s timed out after %s.", r.Name(), c.settings.Timeout())
	case res.CheckOnly:
		logger.Info("%s has nothing new to download.", r.Name())
	default:
		logger.Success("%s completed in %s.", r.Name(), out.Duration.Round(time.Second))
	}
	return out
}

// TrustOutcome is the per-recipe result of trust verification or a
// trust info update.
type TrustOutcome struct {
	Recipe  string
	State   recipe.TrustState
	Updated bool
	Err     error
}

func (o TrustOutcome) Status() string {
	if o.Err != nil {
		return "failed"
	}
	switch o.State {
	case recipe.TrustVerified:
		return "verified"
	case recipe.TrustFailed:
		return "trust failed"
	}
	if o.Updated {
		return "updated"
	}
	return "update failed"
}

// VerifyBatch checks trust info for every named recipe. With update
// set, failing overrides get their trust info rewritten and are then
// verified again.
func (c *Coordinator) VerifyBatch(ctx context.Context, names []string, update bool) []TrustOutcome {
	outcomes := make([]TrustOutcome, len(names))
	c.forEach(names, func(i int, name string) {
		outcomes[i] = c.verifyOne(ctx, name, update)
	})
	return outcomes
}

func (c *Coordinator) verifyOne(ctx context.Context, name string, update bool) TrustOutcome {
	out := TrustOutcome{Recipe: name}

	r, err := c.load(name)
	if err != nil {
		logger.LogError("%v", err)
		out.Err = err
		return out
	}

	out.State, err = c.executor.VerifyTrustInfo(ctx, r)
	if err != nil {
		out.Err = err
		return out
	}
	if out.State != recipe.TrustFailed || !update {
		return out
	}

	out.Updated, err = c.executor.UpdateTrustInfo(ctx, r)
	if err != nil {
		out.Err = err
		return out
	}
	if !out.Updated {
		return out
	}

	// The update reset the memoized verdict, so this runs for real.
	out.State, err = c.executor.VerifyTrustInfo(ctx, r)
	if err != nil {
		out.Err = err
	}
	return out
}

// UpdateTrustBatch rewrites trust info for every named recipe.
func (c *Coordinator) UpdateTrustBatch(ctx context.Context, names []string) []TrustOutcome {
	outcomes := make([]TrustOutcome, len(names))
	c.forEach(names, func(i int, name string) {
		out := TrustOutcome{Recipe: name}
		r, err := c.load(name)
		if err != nil {
			logger.LogError("%v", err)
			out.Err = err
		} else {
			out.Updated, out.Err = c.executor.UpdateTrustInfo(ctx, r)
			out.State = r.Trust()
		}
		outcomes[i] = out
	})
	return outcomes
}

// Failures counts the outcomes that did not complete a run: infra
// errors, timeouts and trust verification failures all count.
func Failures(outcomes []Outcome) int {
	return len(utils.Filter(outcomes, func(o Outcome) bool {
		switch o.Status() {
		case "failed", "timed out", "trust failed":
			return true
		}
		return false
	}))
}

// TrustFailures counts trust outcomes that ended anywhere other than
// verified or updated.
func TrustFailures(outcomes []TrustOutcome) int {
	return len(utils.Filter(outcomes, func(o TrustOutcome) bool {
		switch o.Status() {
		case "verified", "updated":
			return false
		}
		return true
	}))
}

// RenderRunSummary prints the batch result table, failures first.
func RenderRunSummary(outcomes []Outcome) {
	if len(outcomes) == 0 {
		return
	}

	sorted := append([]Outcome(nil), outcomes...)
	utils.SortByStatusAndName(sorted,
		func(o Outcome) string { return o.Status() },
		func(o Outcome) string { return o.Recipe },
	)

	p := printer.NewColorPrinter()
	rows := make([]utils.RecipeStatus, 0, len(sorted))
	for _, o := range sorted {
		downloads, packages := "-", "-"
		if o.Err == nil && o.Trust != recipe.TrustFailed {
			downloads = strconv.Itoa(len(o.Result.Report.DownloadedItems))
			packages = strconv.Itoa(len(o.Result.Report.PkgBuilds))
		}
		rows = append(rows, utils.RecipeStatus{
			Name:      o.Recipe,
			Status:    colorStatus(p, o.Status()),
			Downloads: downloads,
			Packages:  packages,
		})
	}
	utils.CreateStatusTable("Batch summary:", rows)
}

// RenderTrustSummary prints the trust result table, failures first.
func RenderTrustSummary(outcomes []TrustOutcome) {
	if len(outcomes) == 0 {
		return
	}

	sorted := append([]TrustOutcome(nil), outcomes...)
	utils.SortByStatusAndName(sorted,
		func(o TrustOutcome) string { return o.Status() },
		func(o TrustOutcome) string { return o.Recipe },
	)

	p := printer.NewColorPrinter()
	table := logger.CreateTable([]string{"Recipe", "Trust"})
	for _, o := range sorted {
		if err := table.Append([]string{o.Recipe, colorStatus(p, o.Status())}); err != nil {
			logger.LogError("Error appending to table: %v", err)
			return
		}
	}
	if err := table.Render(); err != nil {
		logger.LogError("Error rendering table: %v", err)
	}
}

func colorStatus(p *printer.ColorPrinter, status string) string {
	switch status {
	case "ok", "verified", "updated":
		return p.Success("%s", status)
	case "failed", "update failed":
		return p.Error("%s", status)
	case "timed out", "trust failed":
		return p.Warning("%s", status)
	default:
		return status
	}
}
