package app

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuationcli/internal/config"
	"valuationcli/internal/exporter"
)

func TestRunCLIVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := RunCLI(CommandPutCall, []string{"-version"}, &stdout, &stderr)
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, stdout.String(), "putcall v")
}

func TestRunCLIUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, ExitUsage, RunCLI(CommandBenford, []string{"-bogus"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "flag provided but not defined")

	stderr.Reset()
	assert.Equal(t, ExitOK, RunCLI(CommandValuation, []string{"-h"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "-contract")
}

func TestRunCLIPutCallOverFiles(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "chains"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "chains", "REF.csv"), []byte(
		"expiry,kind,strike,lastPrice,volume,openInterest\n"+
			"2024-03-15,call,15,0.5,20,100\n"+
			"2024-03-15,put,14,0.4,10,50\n"), 0o644))

	cfgPath := filepath.Join(dir, "valuation.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(
		"logging:\n  level: error\ntelemetry:\n  enable_metrics: false\npaths:\n  data_dir: %s\n  output_dir: %s\n",
		dataDir, outDir)), 0o644))

	var stdout, stderr bytes.Buffer
	code := RunCLI(CommandPutCall, []string{"-config", cfgPath, "-compress", "ref"}, &stdout, &stderr)
	require.Equal(t, ExitOK, code, stderr.String())

	var doc struct {
		Data map[string]struct {
			PCRVolume float64 `json:"PCR_Volume"`
		} `json:"data"`
	}
	require.NoError(t, exporter.ReadJSON(filepath.Join(outDir, "put-call-ratio.json.zst"), &doc))
	assert.Equal(t, 0.5, doc.Data["REF"].PCRVolume)
}

func TestRunCLIEverySymbolFailed(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "valuation.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(
		"logging:\n  level: error\ntelemetry:\n  enable_metrics: false\npaths:\n  data_dir: %s\n  output_dir: %s\n",
		filepath.Join(dir, "data"), filepath.Join(dir, "out"))), 0o644))

	var stdout, stderr bytes.Buffer
	assert.Equal(t, ExitFailed, RunCLI(CommandPutCall, []string{"-config", cfgPath, "-symbols", "NOPE"}, &stdout, &stderr))
}

func TestFlagsApply(t *testing.T) {
	cfg := config.Default()
	f := &cliFlags{dataDir: "d", outputDir: "o", workers: 9, seed: 3, contract: "2024-01-19_call_150", compress: true, serve: true}
	f.apply(cfg)

	assert.Equal(t, "d", cfg.Paths.DataDir)
	assert.Equal(t, "o", cfg.Paths.OutputDir)
	assert.Equal(t, 9, cfg.Workers.Count)
	assert.Equal(t, uint64(3), cfg.Valuation.Seed)
	assert.Equal(t, "2024-01-19_call_150", cfg.Filter.Contract)
	assert.True(t, cfg.Paths.Compress)
	assert.True(t, cfg.Server.Enabled)

	untouched := config.Default()
	(&cliFlags{}).apply(untouched)
	assert.Equal(t, config.Default(), untouched)
}
