package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigDefaults(t *testing.T) {
	config, err := parseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "repl", config.Mode)
	assert.Equal(t, 50, config.Count)
	assert.Equal(t, int64(1), config.Seed)
	assert.Equal(t, "output.svg", config.OutputFile)
	assert.Equal(t, 10, config.PivotIndex)
	assert.Equal(t, 5.0, config.RefreshInterval)
}

func TestParseConfigRejects(t *testing.T) {
	for _, args := range [][]string{
		{"-mode", "gui"},
		{"-count", "-1"},
		{"-tick-rate", "0"},
		{"-format", "png"},
		{"-index", "kdtree"},
		{"-unknown"},
	} {
		_, err := parseConfig(args)
		assert.Error(t, err, args)
	}
}

func TestParseConfigOutputName(t *testing.T) {
	config, err := parseConfig([]string{"-format", "ascii", "-seed", "0"})
	require.NoError(t, err)
	assert.Equal(t, "output.txt", config.OutputFile)
	assert.NotZero(t, config.Seed)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "warn", "json")
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "id", 3)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"id":3`)

	_, err = newLogger(&buf, "loud", "text")
	assert.Error(t, err)
	_, err = newLogger(&buf, "info", "xml")
	assert.Error(t, err)
}

func TestRunHeadless(t *testing.T) {
	output := filepath.Join(t.TempDir(), "snapshot.json")
	config, err := parseConfig([]string{"-mode", "headless", "-count", "30", "-ticks", "20", "-format", "json", "-output", output})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), config, slog.New(slog.DiscardHandler), nil, &out))
	assert.Contains(t, out.String(), "tick 20")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var snapshot struct {
		Tick   uint64            `json:"tick"`
		Drones []json.RawMessage `json:"drones"`
	}
	require.NoError(t, json.Unmarshal(data, &snapshot))
	assert.Equal(t, uint64(20), snapshot.Tick)
	assert.Len(t, snapshot.Drones, 30)
}

func TestRunREPL(t *testing.T) {
	config, err := parseConfig([]string{"-count", "20"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := strings.NewReader("find 0\n\nstatus\nbogus\nquit\nfind 1\n")
	var out bytes.Buffer
	require.NoError(t, run(ctx, config, slog.New(slog.DiscardHandler), in, &out))

	text := out.String()
	assert.Contains(t, text, "Drone ID: 0")
	assert.Contains(t, text, "active 20")
	assert.Contains(t, text, "Invalid input")
	assert.NotContains(t, text, "Drone ID: 1")
}

func TestBuildSessionTopology(t *testing.T) {
	topology := filepath.Join(t.TempDir(), "links.csv")
	require.NoError(t, os.WriteFile(topology, []byte("source,target\n0,1\n"), 0644))

	config, err := parseConfig([]string{"-count", "12", "-link-k", "0", "-topology", topology})
	require.NoError(t, err)
	session, err := buildSession(config, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.Contains(t, session.Status().Message, "drones/")

	config.TopologyFile = filepath.Join(t.TempDir(), "links.xml")
	_, err = buildSession(config, slog.New(slog.DiscardHandler))
	assert.Error(t, err)
}
