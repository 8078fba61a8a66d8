package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside-data/intensity.report/internal/units"
)

func TestParseFlagsDefaults(t *testing.T) {
	opts, err := parseFlags([]string{"-match", "4039"})
	require.NoError(t, err)

	assert.Equal(t, 4039, opts.matchID)
	assert.Equal(t, "data", opts.dataDir)
	assert.Equal(t, dbFile, opts.dbPath)
	assert.Equal(t, units.MPERMIN, opts.units)
	assert.Equal(t, ":8080", opts.listen)
	assert.False(t, opts.serve)
}

func TestParseFlagsOverrides(t *testing.T) {
	opts, err := parseFlags([]string{
		"-match", "2068", "-data-dir", "/tmp/cache", "-units", "kmph",
		"-serve", "-listen", ":9999", "-plot-dir", "out",
	})
	require.NoError(t, err)

	assert.Equal(t, 2068, opts.matchID)
	assert.Equal(t, "/tmp/cache", opts.dataDir)
	assert.Equal(t, "kmph", opts.units)
	assert.True(t, opts.serve)
	assert.Equal(t, ":9999", opts.listen)
	assert.Equal(t, "out", opts.plotDir)
}

func TestParseFlagsRejectsBadInput(t *testing.T) {
	_, err := parseFlags(nil)
	assert.Error(t, err, "match id is required")

	_, err = parseFlags([]string{"-match", "4039", "-units", "furlongs"})
	assert.Error(t, err)

	_, err = parseFlags([]string{"-match", "4039", "-serve", "-listen", ""})
	assert.Error(t, err)
}
