package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/palletworks/pallet/internal/runner"
	"github.com/palletworks/pallet/internal/utils"
	"github.com/palletworks/pallet/internal/utils/pathutils"

	"gopkg.in/yaml.v3"
)

const (
	configDir  = ".config/pallet"
	configFile = "config.yml"
)

const (
	DefaultAutoPkgCommand = "autopkg"
	DefaultCacheFile      = "metadata_cache.json"
	DefaultMaxParallel    = 4
	DefaultTimeoutSeconds = 3600
	DefaultPrefsPath      = "~/Library/Preferences/com.github.autopkg.plist"
	DefaultMinimumVersion = "2.3"
)

// Settings is the effective configuration for a single invocation. It
// is built once by Load and passed down explicitly; nothing in the
// codebase reads configuration from globals.
type Settings struct {
	// AutoPkgCommand launches autopkg. It may carry a wrapper, like
	// "uv run autopkg"; it is split with shell quoting rules.
	AutoPkgCommand string `yaml:"autopkg_command"`
	CacheFile      string `yaml:"cache_file"`
	// ReportDir receives the per-recipe report plists. Empty means a
	// temporary directory that lives for the invocation.
	ReportDir      string `yaml:"report_dir,omitempty"`
	MaxParallel    int    `yaml:"max_parallel"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MinimumVersion string `yaml:"minimum_version,omitempty"`
	PrefsPath      string `yaml:"prefs_path,omitempty"`

	// Flag-only knobs, never persisted.
	Verbosity int    `yaml:"-"`
	LogFile   string `yaml:"-"`
}

// Overrides carries the command-line values that beat both the config
// file and the environment. Zero values mean "not set".
type Overrides struct {
	AutoPkgCommand string
	CacheFile      string
	ReportDir      string
	MaxParallel    int
	TimeoutSeconds int
	Verbosity      int
	LogFile        string
}

func Default() *Settings {
	return &Settings{
		AutoPkgCommand: DefaultAutoPkgCommand,
		CacheFile:      DefaultCacheFile,
		MaxParallel:    DefaultMaxParallel,
		TimeoutSeconds: DefaultTimeoutSeconds,
		MinimumVersion: DefaultMinimumVersion,
		PrefsPath:      DefaultPrefsPath,
	}
}

func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDir), nil
}

func ConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load builds the effective settings: defaults, then the config file
// if one exists, then PALLET_* environment variables, then flags.
func Load(ov Overrides) (*Settings, error) {
	s := Default()

	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if ok, _ := utils.FileExists(path); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file %s: %w", path, err)
		}
	}

	applyEnv(s)
	applyOverrides(s, ov)

	if err := s.validate(); err != nil {
		return nil, err
	}
	if err := s.expandPaths(); err != nil {
		return nil, err
	}
	return s, nil
}

func applyEnv(s *Settings) {
	if v, ok := lookup("PALLET_AUTOPKG_COMMAND"); ok {
		s.AutoPkgCommand = v
	}
	if v, ok := lookup("PALLET_CACHE_FILE"); ok {
		s.CacheFile = v
	}
	if v, ok := lookup("PALLET_REPORT_DIR"); ok {
		s.ReportDir = v
	}
	if v, ok := lookup("PALLET_MAX_PARALLEL"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			s.MaxParallel = n
		}
	}
	if v, ok := lookup("PALLET_TIMEOUT_SECONDS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			s.TimeoutSeconds = n
		}
	}
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func applyOverrides(s *Settings, ov Overrides) {
	if ov.AutoPkgCommand != "" {
		s.AutoPkgCommand = ov.AutoPkgCommand
	}
	if ov.CacheFile != "" {
		s.CacheFile = ov.CacheFile
	}
	if ov.ReportDir != "" {
		s.ReportDir = ov.ReportDir
	}
	if ov.MaxParallel > 0 {
		s.MaxParallel = ov.MaxParallel
	}
	if ov.TimeoutSeconds > 0 {
		s.TimeoutSeconds = ov.TimeoutSeconds
	}
	s.Verbosity = ov.Verbosity
	s.LogFile = ov.LogFile
}

func (s *Settings) validate() error {
	if strings.TrimSpace(s.AutoPkgCommand) == "" {
		return fmt.Errorf("autopkg_command must not be empty")
	}
	// Surface a bad launcher string here instead of at run time.
	if _, err := runner.Split(s.AutoPkgCommand); err != nil {
		return fmt.Errorf("autopkg_command is not a usable command line: %w", err)
	}
	if s.MaxParallel < 1 {
		return fmt.Errorf("max_parallel must be at least 1, got %d", s.MaxParallel)
	}
	if s.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative, got %d", s.TimeoutSeconds)
	}
	return nil
}

func (s *Settings) expandPaths() error {
	var err error
	if s.CacheFile, err = pathutils.ToAbsolutePath(s.CacheFile); err != nil {
		return err
	}
	if s.ReportDir != "" {
		if s.ReportDir, err = pathutils.ToAbsolutePath(s.ReportDir); err != nil {
			return err
		}
	}
	if s.PrefsPath != "" {
		if s.PrefsPath, err = pathutils.ToAbsolutePath(s.PrefsPath); err != nil {
			return err
		}
	}
	return nil
}

// Save persists the current settings to ~/.config/pallet/config.yml.
func (s *Settings) Save() error {
	configDirRights := 0o755
	configFileRights := 0o644

	fullConfigDir, err := GetConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(fullConfigDir, os.FileMode(configDirRights)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := *s
	if out.CacheFile != "" {
		homePath, err := pathutils.ToHomePathFormat(out.CacheFile)
		if err != nil {
			return fmt.Errorf("failed to convert to home path format: %w", err)
		}
		out.CacheFile = homePath
	}
	if out.PrefsPath != "" {
		homePath, err := pathutils.ToHomePathFormat(out.PrefsPath)
		if err != nil {
			return fmt.Errorf("failed to convert to home path format: %w", err)
		}
		out.PrefsPath = homePath
	}

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(filepath.Join(fullConfigDir, configFile), data, os.FileMode(configFileRights))
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (s *Settings) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// AutoPkgArgv splits AutoPkgCommand into argv form.
func (s *Settings) AutoPkgArgv() ([]string, error) {
	return runner.Split(s.AutoPkgCommand)
}
