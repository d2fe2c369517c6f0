// Package config loads rpmsynth's coordinator and worker configuration from
// an INI file, the on-disk format the teacher's own dsynth.ini used — here
// parsed with gopkg.in/ini.v1 instead of the teacher's hand-rolled
// bufio.Scanner reader, since the corpus already depends on a real INI
// library for this exact job (see the grounding ledger).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sys/unix"
	"gopkg.in/ini.v1"
)

// Config holds every knob the coordinator and its workers need. Paths follow
// RPM-building convention (specs/sources/rpms/srpms/topdir) rather than the
// ports-tree layout the teacher's Config used.
type Config struct {
	// Paths
	ConfigPath    string
	SpecsPath     string
	SourcePath    string
	RpmPath       string
	SourceRpmPath string
	TopDirPath    string
	LogPath       string
	AuditDBPath   string

	// Build identity
	Dist            string
	BuildNumber     int
	ReleaseVersion  string
	BuildArch       string
	CurrentArch     string

	// Behavior
	MaxWorkers           int
	CheckBuildRequires   bool
	RpmCheckStopOnError  bool
	LogLevel             string

	// Coordinator
	CoordinatorAddr string

	// Profile, mirroring the teacher's section-per-profile INI convention.
	Profile string
}

// LoadConfig loads configuration from configDir/rpmsynth.ini, applying
// profile-scoped overrides (an INI section named after profile) the way the
// teacher's dsynth.ini did, then filling unset paths with defaults rooted at
// TopDirPath.
func LoadConfig(configDir string, profile string) (*Config, error) {
	cfg := &Config{
		MaxWorkers:          runtime.NumCPU(),
		Profile:             profile,
		BuildArch:           "x86_64",
		CurrentArch:         runtime.GOARCH,
		LogLevel:            "info",
		CoordinatorAddr:     ":8765",
		CheckBuildRequires:  false,
		RpmCheckStopOnError: false,
	}
	if cfg.MaxWorkers < 1 {
		cfg.MaxWorkers = 1
	}

	if configDir == "" {
		configDir = "/etc/rpmsynth"
	}
	cfg.ConfigPath = configDir

	configFile := filepath.Join(configDir, "rpmsynth.ini")
	if _, err := os.Stat(configFile); err == nil {
		if err := cfg.loadINI(configFile); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if cfg.TopDirPath == "" {
		cfg.TopDirPath = "/build/rpmsynth"
	}
	if cfg.SpecsPath == "" {
		cfg.SpecsPath = filepath.Join(cfg.TopDirPath, "SPECS")
	}
	if cfg.SourcePath == "" {
		cfg.SourcePath = filepath.Join(cfg.TopDirPath, "SOURCES")
	}
	if cfg.RpmPath == "" {
		cfg.RpmPath = filepath.Join(cfg.TopDirPath, "RPMS")
	}
	if cfg.SourceRpmPath == "" {
		cfg.SourceRpmPath = filepath.Join(cfg.TopDirPath, "SRPMS")
	}
	if cfg.LogPath == "" {
		cfg.LogPath = filepath.Join(cfg.TopDirPath, "logs")
	}
	if cfg.AuditDBPath == "" {
		cfg.AuditDBPath = filepath.Join(cfg.TopDirPath, "audit.db")
	}

	return cfg, nil
}

// loadINI parses filename with ini.v1, applying [DEFAULT] first and then, if
// cfg.Profile is set, overlaying the section named after it.
func (cfg *Config) loadINI(filename string) error {
	f, err := ini.Load(filename)
	if err != nil {
		return err
	}

	if def := f.Section(ini.DefaultSection); def != nil {
		cfg.applySection(def)
	}
	if cfg.Profile != "" {
		if sec, err := f.GetSection(cfg.Profile); err == nil {
			cfg.applySection(sec)
		}
	}
	return nil
}

func (cfg *Config) applySection(sec *ini.Section) {
	if sec.HasKey("workers") {
		if n, err := sec.Key("workers").Int(); err == nil && n > 0 {
			cfg.MaxWorkers = n
		}
	}
	if sec.HasKey("specs_path") {
		cfg.SpecsPath = sec.Key("specs_path").String()
	}
	if sec.HasKey("source_path") {
		cfg.SourcePath = sec.Key("source_path").String()
	}
	if sec.HasKey("rpm_path") {
		cfg.RpmPath = sec.Key("rpm_path").String()
	}
	if sec.HasKey("source_rpm_path") {
		cfg.SourceRpmPath = sec.Key("source_rpm_path").String()
	}
	if sec.HasKey("topdir") {
		cfg.TopDirPath = sec.Key("topdir").String()
	}
	if sec.HasKey("log_path") {
		cfg.LogPath = sec.Key("log_path").String()
	}
	if sec.HasKey("log_level") {
		cfg.LogLevel = strings.ToLower(sec.Key("log_level").String())
	}
	if sec.HasKey("audit_db_path") {
		cfg.AuditDBPath = sec.Key("audit_db_path").String()
	}
	if sec.HasKey("dist") {
		cfg.Dist = sec.Key("dist").String()
	}
	if sec.HasKey("build_number") {
		if n, err := sec.Key("build_number").Int(); err == nil {
			cfg.BuildNumber = n
		}
	}
	if sec.HasKey("release_version") {
		cfg.ReleaseVersion = sec.Key("release_version").String()
	}
	if sec.HasKey("build_arch") {
		cfg.BuildArch = sec.Key("build_arch").String()
	}
	if sec.HasKey("check_build_requires") {
		cfg.CheckBuildRequires = sec.Key("check_build_requires").MustBool(cfg.CheckBuildRequires)
	}
	if sec.HasKey("rpmcheck_stop_on_error") {
		cfg.RpmCheckStopOnError = sec.Key("rpmcheck_stop_on_error").MustBool(cfg.RpmCheckStopOnError)
	}
	if sec.HasKey("coordinator_addr") {
		cfg.CoordinatorAddr = sec.Key("coordinator_addr").String()
	}
}

// Validate checks that the configured paths exist or can be created, and
// that MaxWorkers is in a sane range.
func (cfg *Config) Validate() error {
	requiredDirs := map[string]string{
		"TopDirPath":    cfg.TopDirPath,
		"SpecsPath":     cfg.SpecsPath,
		"SourcePath":    cfg.SourcePath,
		"RpmPath":       cfg.RpmPath,
		"SourceRpmPath": cfg.SourceRpmPath,
	}

	for name, path := range requiredDirs {
		if path == "" {
			return fmt.Errorf("%s is not configured", name)
		}
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(path, 0755); err != nil {
					return fmt.Errorf("%s directory %s cannot be created: %w", name, path, err)
				}
			} else {
				return fmt.Errorf("%s directory %s: %w", name, path, err)
			}
		} else if !info.IsDir() {
			return fmt.Errorf("%s path %s is not a directory", name, path)
		}
	}

	if cfg.MaxWorkers < 1 {
		return fmt.Errorf("MaxWorkers must be at least 1")
	}
	if cfg.MaxWorkers > 1024 {
		return fmt.Errorf("MaxWorkers is too large (max 1024)")
	}

	return nil
}

// WriteDefaultConfig writes a default rpmsynth.ini, in the same hand-edited
// shape the teacher's WriteDefaultConfig produced, using ini.v1's writer
// instead of raw Fprintln calls.
func WriteDefaultConfig(filename string, cfg *Config) error {
	f := ini.Empty()
	sec, err := f.NewSection(ini.DefaultSection)
	if err != nil {
		return err
	}

	sec.Comment = "rpmsynth coordinator configuration"
	_, _ = sec.NewKey("workers", fmt.Sprintf("%d", cfg.MaxWorkers))
	_, _ = sec.NewKey("topdir", cfg.TopDirPath)
	_, _ = sec.NewKey("specs_path", cfg.SpecsPath)
	_, _ = sec.NewKey("source_path", cfg.SourcePath)
	_, _ = sec.NewKey("rpm_path", cfg.RpmPath)
	_, _ = sec.NewKey("source_rpm_path", cfg.SourceRpmPath)
	_, _ = sec.NewKey("log_path", cfg.LogPath)
	_, _ = sec.NewKey("log_level", cfg.LogLevel)
	_, _ = sec.NewKey("audit_db_path", cfg.AuditDBPath)
	_, _ = sec.NewKey("build_arch", cfg.BuildArch)
	_, _ = sec.NewKey("coordinator_addr", cfg.CoordinatorAddr)
	_, _ = sec.NewKey("check_build_requires", fmt.Sprintf("%v", cfg.CheckBuildRequires))
	_, _ = sec.NewKey("rpmcheck_stop_on_error", fmt.Sprintf("%v", cfg.RpmCheckStopOnError))

	return f.SaveTo(filename)
}

// GetSystemInfo reports the host OS, kernel release, and architecture via a
// raw uname(2) call — kept from the teacher verbatim; golang.org/x/sys/unix
// is the corpus's own way of getting it without cgo. No rpmsynth subcommand
// calls it.
func GetSystemInfo() (osname, osversion, arch string, ncpus int) {
	var utsname unix.Utsname
	if err := unix.Uname(&utsname); err == nil {
		osname = string(utsname.Sysname[:])
		osversion = string(utsname.Release[:])
		arch = string(utsname.Machine[:])
		osname = strings.TrimRight(osname, "\x00")
		osversion = strings.TrimRight(osversion, "\x00")
		arch = strings.TrimRight(arch, "\x00")
	}
	ncpus = runtime.NumCPU()
	return
}
