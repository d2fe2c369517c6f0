package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpmsynth/config"
)

func TestNewFileLogger(t *testing.T) {
	tempDir := t.TempDir()
	cfg := &config.Config{LogPath: filepath.Join(tempDir, "logs")}

	logger, err := NewFileLogger(cfg)
	require.NoError(t, err)
	defer logger.Close()

	_, err = os.Stat(cfg.LogPath)
	require.NoError(t, err, "log directory was not created")

	for _, filename := range []string{
		"00_activity.log",
		"01_success.log",
		"02_failure.log",
		"03_debug.log",
	} {
		_, err := os.Stat(filepath.Join(cfg.LogPath, filename))
		assert.NoError(t, err, "log file %s was not created", filename)
	}
}

func TestFileLogger_Success(t *testing.T) {
	tempDir := t.TempDir()
	cfg := &config.Config{LogPath: filepath.Join(tempDir, "logs")}

	logger, err := NewFileLogger(cfg)
	require.NoError(t, err)
	defer logger.Close()

	logger.Success("glibc")

	content, err := os.ReadFile(filepath.Join(cfg.LogPath, "01_success.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "glibc")
}

func TestFileLogger_Error(t *testing.T) {
	tempDir := t.TempDir()
	cfg := &config.Config{LogPath: filepath.Join(tempDir, "logs")}

	logger, err := NewFileLogger(cfg)
	require.NoError(t, err)
	defer logger.Close()

	logger.Error("build of %s failed: %s", "openssl", "timeout")

	activity, err := os.ReadFile(filepath.Join(cfg.LogPath, "00_activity.log"))
	require.NoError(t, err)
	assert.Contains(t, string(activity), "ERROR")
	assert.Contains(t, string(activity), "build of openssl failed: timeout")

	failure, err := os.ReadFile(filepath.Join(cfg.LogPath, "02_failure.log"))
	require.NoError(t, err)
	assert.Contains(t, string(failure), "build of openssl failed: timeout")
}

func TestFileLogger_Debug(t *testing.T) {
	tempDir := t.TempDir()
	cfg := &config.Config{LogPath: filepath.Join(tempDir, "logs")}

	logger, err := NewFileLogger(cfg)
	require.NoError(t, err)
	defer logger.Close()

	logger.Debug("evaluating %d candidates", 12)

	content, err := os.ReadFile(filepath.Join(cfg.LogPath, "03_debug.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "evaluating 12 candidates")
}

func TestFileLogger_Info(t *testing.T) {
	tempDir := t.TempDir()
	cfg := &config.Config{LogPath: filepath.Join(tempDir, "logs")}

	logger, err := NewFileLogger(cfg)
	require.NoError(t, err)
	defer logger.Close()

	logger.Info("dispatching %s", "zlib")

	content, err := os.ReadFile(filepath.Join(cfg.LogPath, "00_activity.log"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(content), "INFO"))
	assert.Contains(t, string(content), "dispatching zlib")
}

func TestFileLogger_Warn(t *testing.T) {
	tempDir := t.TempDir()
	cfg := &config.Config{LogPath: filepath.Join(tempDir, "logs")}

	logger, err := NewFileLogger(cfg)
	require.NoError(t, err)
	defer logger.Close()

	logger.Warn("package %s has %d unmet checkrequires", "python3", 2)

	content, err := os.ReadFile(filepath.Join(cfg.LogPath, "00_activity.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "WARN")
	assert.Contains(t, string(content), "package python3 has 2 unmet checkrequires")
}

func TestFileLogger_Close(t *testing.T) {
	tempDir := t.TempDir()
	cfg := &config.Config{LogPath: filepath.Join(tempDir, "logs")}

	logger, err := NewFileLogger(cfg)
	require.NoError(t, err)

	logger.Close()
	logger.Close() // must not panic on double close
}

func TestNewFileLogger_CreateDirError(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("cannot test directory creation errors as root")
	}

	cfg := &config.Config{LogPath: "/proc/invalid/logs"}
	_, err := NewFileLogger(cfg)
	assert.Error(t, err)
}

func TestFileLogger_ImplementsLibraryLogger(t *testing.T) {
	tempDir := t.TempDir()
	cfg := &config.Config{LogPath: filepath.Join(tempDir, "logs")}

	logger, err := NewFileLogger(cfg)
	require.NoError(t, err)
	defer logger.Close()

	var _ LibraryLogger = logger
}
