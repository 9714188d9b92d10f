package recipe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palletworks/pallet/internal/errs"
	"github.com/palletworks/pallet/internal/metacache"
	"github.com/palletworks/pallet/internal/runner"
	"github.com/palletworks/pallet/internal/settings"
)

func testSettings() *settings.Settings {
	return &settings.Settings{
		AutoPkgCommand: "autopkg",
		CacheFile:      "metadata_cache.json",
		MaxParallel:    1,
		TimeoutSeconds: 60,
	}
}

func newTestExecutor(t *testing.T, mock *runner.MockRunner, s *settings.Settings) (*Executor, *metacache.Store) {
	t.Helper()
	tmp := t.TempDir()
	store := metacache.NewStore(filepath.Join(tmp, "metadata_cache.json"))
	return NewExecutor(mock, s, store, tmp), store
}

func loadTestRecipe(t *testing.T) *Recipe {
	t.Helper()
	dir := t.TempDir()
	r, err := New(writeRecipeFile(t, dir, "Firefox.download.recipe", samplePlistRecipe))
	require.NoError(t, err)
	return r
}

func reportPathFromArgs(t *testing.T, args []string) string {
	t.Helper()
	for _, arg := range args {
		if path, ok := strings.CutPrefix(arg, "--report-plist="); ok {
			return path
		}
	}
	t.Fatal("no --report-plist argument in command")
	return ""
}

func hasArg(args []string, want string) bool {
	for _, arg := range args {
		if arg == want {
			return true
		}
	}
	return false
}

const emptyReportPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>failures</key>
	<array/>
	<key>summary_results</key>
	<dict/>
</dict>
</plist>
`

func reportWithDownload(path string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>failures</key>
	<array/>
	<key>summary_results</key>
	<dict>
		<key>url_downloader_summary_result</key>
		<dict>
			<key>data_rows</key>
			<array>
				<dict>
					<key>download_path</key>
					<string>%s</string>
				</dict>
			</array>
		</dict>
	</dict>
</dict>
</plist>
`, path)
}

func reportWithPackage(pkgPath string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>failures</key>
	<array/>
	<key>summary_results</key>
	<dict>
		<key>pkg_creator_summary_result</key>
		<dict>
			<key>data_rows</key>
			<array>
				<dict>
					<key>pkg_path</key>
					<string>%s</string>
				</dict>
			</array>
		</dict>
	</dict>
</dict>
</plist>
`, pkgPath)
}

func TestRunPersistsCacheBeforeFullRun(t *testing.T) {
	downloadDir := t.TempDir()
	downloadPath := filepath.Join(downloadDir, "Firefox-120.dmg")
	require.NoError(t, os.WriteFile(downloadPath, []byte("dummy"), 0o644))

	r := loadTestRecipe(t)
	mock := runner.NewMockRunner()
	ex, store := newTestExecutor(t, mock, testSettings())

	cacheSeenAtFullRun := false
	mock.ResponseFunc = func(name string, args ...string) (runner.Result, error) {
		reportPath := reportPathFromArgs(t, args)
		if hasArg(args, "--check") {
			require.NoError(t, os.WriteFile(reportPath, []byte(reportWithDownload(downloadPath)), 0o644))
			return runner.Result{}, nil
		}

		// The cache write must land before the full run starts, so a
		// run that dies midway cannot lose the check phase's metadata.
		cache, err := store.Load()
		require.NoError(t, err)
		_, cacheSeenAtFullRun = cache["Firefox.download.recipe"]

		require.NoError(t, os.WriteFile(reportPath, []byte(reportWithPackage("/tmp/Firefox-120.pkg")), 0o644))
		return runner.Result{}, nil
	}

	res, err := ex.Run(context.Background(), r)
	require.NoError(t, err)

	assert.False(t, res.CheckOnly)
	assert.False(t, res.TimedOut)
	assert.Zero(t, res.ExitCode)
	assert.True(t, cacheSeenAtFullRun)
	require.Len(t, res.Report.PkgBuilds, 1)
	assert.Equal(t, "/tmp/Firefox-120.pkg", res.Report.PkgBuilds[0]["pkg_path"])

	require.Len(t, mock.Commands, 2)
	check, full := mock.Commands[0], mock.Commands[1]
	assert.Equal(t, "autopkg", check.Name)
	assert.Equal(t, []string{"run", "Firefox.download.recipe", "--override-dir=" + r.Dir()}, check.Args[:3])
	assert.Equal(t, "--check", check.Args[len(check.Args)-1])
	assert.False(t, hasArg(full.Args, "--check"))
	assert.Equal(t, reportPathFromArgs(t, check.Args), reportPathFromArgs(t, full.Args))
	assert.Equal(t, 60*time.Second, check.Opts.Timeout)

	cache, err := store.Load()
	require.NoError(t, err)
	entry, ok := cache["Firefox.download.recipe"]
	require.True(t, ok)
	assert.NotEmpty(t, entry.Timestamp)
	require.Len(t, entry.Metadata, 1)
	assert.Equal(t, downloadPath, entry.Metadata[0].FilePath)
	assert.Equal(t, int64(5), entry.Metadata[0].FileSize)
}

func TestRunStopsAfterCheckWhenNothingNew(t *testing.T) {
	r := loadTestRecipe(t)
	mock := runner.NewMockRunner()
	ex, store := newTestExecutor(t, mock, testSettings())

	mock.ResponseFunc = func(name string, args ...string) (runner.Result, error) {
		reportPath := reportPathFromArgs(t, args)
		require.NoError(t, os.WriteFile(reportPath, []byte(emptyReportPlist), 0o644))
		return runner.Result{}, nil
	}

	res, err := ex.Run(context.Background(), r)
	require.NoError(t, err)

	assert.True(t, res.CheckOnly)
	assert.Len(t, mock.Commands, 1)

	cache, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, cache)
}

func TestRunCheckFailureIsNotFatal(t *testing.T) {
	r := loadTestRecipe(t)
	mock := runner.NewMockRunner()
	ex, _ := newTestExecutor(t, mock, testSettings())

	// No report gets written; autopkg died before producing one.
	mock.ResponseFunc = func(name string, args ...string) (runner.Result, error) {
		return runner.Result{ExitCode: 1, Stderr: "RECIPE_PATH not found"}, nil
	}

	res, err := ex.Run(context.Background(), r)
	require.NoError(t, err)

	assert.True(t, res.CheckOnly)
	assert.Equal(t, 1, res.ExitCode)
	assert.Empty(t, res.Report.FailedItems)
	assert.Len(t, mock.Commands, 1)
}

func TestRunTimeoutAtCheckSkipsFullRun(t *testing.T) {
	r := loadTestRecipe(t)
	mock := runner.NewMockRunner()
	ex, store := newTestExecutor(t, mock, testSettings())

	mock.ResponseFunc = func(name string, args ...string) (runner.Result, error) {
		return runner.Result{ExitCode: -1, TimedOut: true, Stderr: "command timed out after 1m0s"}, nil
	}

	res, err := ex.Run(context.Background(), r)
	require.NoError(t, err)

	assert.True(t, res.TimedOut)
	assert.False(t, res.CheckOnly)
	assert.Len(t, mock.Commands, 1)

	cache, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, cache)
}

func TestRunPropagatesSpawnErrors(t *testing.T) {
	r := loadTestRecipe(t)
	mock := runner.NewMockRunner()
	ex, _ := newTestExecutor(t, mock, testSettings())

	mock.ResponseFunc = func(name string, args ...string) (runner.Result, error) {
		return runner.Result{}, &errs.CommandError{
			Cmd: "autopkg run",
			Err: errors.New("executable file not found in $PATH"),
		}
	}

	_, err := ex.Run(context.Background(), r)
	require.Error(t, err)

	var cmdErr *errs.CommandError
	assert.ErrorAs(t, err, &cmdErr)
}

func TestVerifyTrustInfoMemoizesVerdict(t *testing.T) {
	r := loadTestRecipe(t)
	mock := runner.NewMockRunner()
	ex, _ := newTestExecutor(t, mock, testSettings())

	key := "autopkg|verify-trust-info|Firefox.download.recipe|--override-dir=" + r.Dir()
	mock.AddResponse(key, runner.Result{ExitCode: 1, Stderr: "trust mismatch"}, nil)

	state, err := ex.VerifyTrustInfo(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, TrustFailed, state)

	// A second verification returns the memoized verdict even though
	// autopkg would now succeed.
	mock.AddResponse(key, runner.Result{ExitCode: 0}, nil)
	state, err = ex.VerifyTrustInfo(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, TrustFailed, state)
	assert.True(t, mock.VerifyRunCount("autopkg", 1))
}

func TestUpdateTrustInfoResetsVerdict(t *testing.T) {
	r := loadTestRecipe(t)
	r.trust = TrustFailed

	mock := runner.NewMockRunner()
	ex, _ := newTestExecutor(t, mock, testSettings())

	updateKey := "autopkg|update-trust-info|Firefox.download.recipe|--override-dir=" + r.Dir()
	mock.AddResponse(updateKey, runner.Result{ExitCode: 0, Stdout: "Wrote updated trust information\n"}, nil)

	ok, err := ex.UpdateTrustInfo(context.Background(), r)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, TrustUntested, r.Trust())

	verifyKey := "autopkg|verify-trust-info|Firefox.download.recipe|--override-dir=" + r.Dir()
	mock.AddResponse(verifyKey, runner.Result{ExitCode: 0}, nil)

	state, err := ex.VerifyTrustInfo(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, TrustVerified, state)
}

func TestUpdateTrustInfoReportsFailure(t *testing.T) {
	r := loadTestRecipe(t)
	mock := runner.NewMockRunner()
	ex, _ := newTestExecutor(t, mock, testSettings())

	key := "autopkg|update-trust-info|Firefox.download.recipe|--override-dir=" + r.Dir()
	mock.AddResponse(key, runner.Result{ExitCode: 1, Stderr: "no parent recipe"}, nil)

	ok, err := ex.UpdateTrustInfo(context.Background(), r)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, TrustUntested, r.Trust())
}

func TestVerbosityFlagPlacement(t *testing.T) {
	r := loadTestRecipe(t)
	s := testSettings()
	s.Verbosity = 3

	mock := runner.NewMockRunner()
	ex, _ := newTestExecutor(t, mock, s)

	mock.ResponseFunc = func(name string, args ...string) (runner.Result, error) {
		for _, arg := range args {
			if path, ok := strings.CutPrefix(arg, "--report-plist="); ok {
				require.NoError(t, os.WriteFile(path, []byte(emptyReportPlist), 0o644))
			}
		}
		return runner.Result{}, nil
	}

	_, err := ex.Run(context.Background(), r)
	require.NoError(t, err)

	// Run phases get one level less than the batch; the dry-run flag
	// stays last so it reads as the phase marker.
	check := mock.Commands[0]
	require.GreaterOrEqual(t, len(check.Args), 2)
	assert.Equal(t, "-vv", check.Args[len(check.Args)-2])
	assert.Equal(t, "--check", check.Args[len(check.Args)-1])

	verifyKey := "autopkg|verify-trust-info|Firefox.download.recipe|--override-dir=" + r.Dir() + "|-vvv"
	mock.AddResponse(verifyKey, runner.Result{ExitCode: 0}, nil)
	state, err := ex.VerifyTrustInfo(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, TrustVerified, state)

	_, err = ex.UpdateTrustInfo(context.Background(), r)
	require.NoError(t, err)
	update := mock.Commands[len(mock.Commands)-1]
	assert.Equal(t, "update-trust-info", update.Args[0])
	assert.False(t, hasArg(update.Args, "-vvv"))
}

func TestWrapperCommandIsSplitIntoArgv(t *testing.T) {
	r := loadTestRecipe(t)
	s := testSettings()
	s.AutoPkgCommand = "uv run autopkg"

	mock := runner.NewMockRunner()
	ex, _ := newTestExecutor(t, mock, s)

	mock.ResponseFunc = func(name string, args ...string) (runner.Result, error) {
		reportPath := reportPathFromArgs(t, args)
		require.NoError(t, os.WriteFile(reportPath, []byte(emptyReportPlist), 0o644))
		return runner.Result{}, nil
	}

	_, err := ex.Run(context.Background(), r)
	require.NoError(t, err)

	require.Len(t, mock.Commands, 1)
	cmd := mock.Commands[0]
	assert.Equal(t, "uv", cmd.Name)
	require.GreaterOrEqual(t, len(cmd.Args), 4)
	assert.Equal(t, []string{"run", "autopkg", "run", "Firefox.download.recipe"}, cmd.Args[:4])
}

func TestVerbosityFlag(t *testing.T) {
	assert.Equal(t, "", verbosityFlag(0))
	assert.Equal(t, "", verbosityFlag(-1))
	assert.Equal(t, "-v", verbosityFlag(1))
	assert.Equal(t, "-vvv", verbosityFlag(3))
}
