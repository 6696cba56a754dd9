package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/iqrfdash/core/history"
)

func TestExportCommandJSON(t *testing.T) {
	dir := t.TempDir()
	histPath := filepath.Join(dir, "history.jsonl")
	cfgFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("history:\n  backend: jsonl\n  path: "+histPath+"\n"), 0o644))

	store, err := history.Open(history.Config{Backend: history.BackendJSONL, Path: histPath})
	require.NoError(t, err)
	now := time.Now()
	require.NoError(t, store.Append(context.Background(), history.Entry{Time: now, Topic: "gw/sensors/thermometers", Kind: "temperature", Payload: "{}"}))
	require.NoError(t, store.Append(context.Background(), history.Entry{Time: now, Topic: "gw/actuators/leds", Kind: "actuator", Payload: "{}"}))
	require.NoError(t, store.Close())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"export", "-c", cfgFile, "-f", "json", "--kind", "actuator"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})
	require.NoError(t, rootCmd.Execute())

	var entries []history.Entry
	require.NoError(t, json.Unmarshal(out.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "gw/actuators/leds", entries[0].Topic)
}
