package storage

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMem(t *testing.T) *Storage {
	t.Helper()
	s, err := Open("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSettingsDefaults(t *testing.T) {
	s := openMem(t)
	settings, err := s.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, 16, settings.HashMB)
	assert.Equal(t, 1, settings.Threads)
}

func TestSettingsRoundTrip(t *testing.T) {
	s := openMem(t)
	require.NoError(t, s.SaveSettings(&Settings{HashMB: 256, Threads: 8}))

	settings, err := s.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, 256, settings.HashMB)
	assert.Equal(t, 8, settings.Threads)
	assert.WithinDuration(t, time.Now(), settings.UpdatedAt, time.Minute)
}

func TestFirstLaunch(t *testing.T) {
	s := openMem(t)
	first, err := s.IsFirstLaunch()
	require.NoError(t, err)
	assert.True(t, first)

	require.NoError(t, s.MarkFirstLaunchComplete())
	first, err = s.IsFirstLaunch()
	require.NoError(t, err)
	assert.False(t, first)
}

func TestRecordBench(t *testing.T) {
	s := openMem(t)

	stats, err := s.LoadBenchStats()
	require.NoError(t, err)
	assert.Zero(t, stats.Runs)
	assert.Zero(t, stats.AverageNPS())

	_, err = s.RecordBench(BenchRun{Nodes: 4000, Time: 2 * time.Second})
	require.NoError(t, err)
	stats, err = s.RecordBench(BenchRun{Nodes: 1000, Time: time.Second})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Runs)
	assert.Equal(t, uint64(5000), stats.TotalNodes)
	assert.Equal(t, uint64(2000), stats.BestNPS)
	assert.Equal(t, uint64(1000), stats.LastNPS)
	assert.Equal(t, uint64(1666), stats.AverageNPS())

	loaded, err := s.LoadBenchStats()
	require.NoError(t, err)
	assert.Equal(t, stats.Runs, loaded.Runs)
	assert.Equal(t, stats.TotalNodes, loaded.TotalNodes)
}

func TestRecordBenchZeroTime(t *testing.T) {
	s := openMem(t)

	stats, err := s.RecordBench(BenchRun{Nodes: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Runs)
	assert.Zero(t, stats.LastNPS)
	assert.Zero(t, stats.BestNPS)
	assert.False(t, stats.LastRun.IsZero())
}

func TestOpenDefaultPersists(t *testing.T) {
	dir := t.TempDir()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := OpenDefault(dir, log)
	require.NoError(t, err)
	require.NoError(t, s.SaveSettings(&Settings{HashMB: 64, Threads: 2}))
	require.NoError(t, s.Close())

	_, err = os.Stat(filepath.Join(dir, "db"))
	require.NoError(t, err)

	s, err = OpenDefault(dir, log)
	require.NoError(t, err)
	defer s.Close()
	settings, err := s.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, 64, settings.HashMB)
	assert.Equal(t, 2, settings.Threads)
}

func TestDataPaths(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("APPDATA", t.TempDir())

	dataDir, err := GetDataDir()
	require.NoError(t, err)
	assert.Equal(t, appName, filepath.Base(dataDir))
	assert.DirExists(t, dataDir)
}
