package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/signal-agent/internal/types"
)

// execute runs the root command with args and returns everything it printed
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScoreCommand(t *testing.T) {
	orig := scoreNow
	scoreNow = func() time.Time { return time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { scoreNow = orig })

	tests := []struct {
		name      string
		published string
		want      []string
	}{
		{"unknown date", "", []string{"Confidence: 0.720", "explicit_phrase,address_like; freshness=0.90"}},
		{"one week old", "2025-09-01", []string{"Freshness:  0.85", "Confidence: 0.680"}},
		{"free-form date", "September 9, 2025", []string{"Freshness:  1.00", "Confidence: 0.800"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "score", "--snippet", "Grand opening at 1200 Main St", "--type", "expansion", "--published", tt.published)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestScoreCommand_Errors(t *testing.T) {
	_, err := execute(t, "score", "--snippet", "x", "--type", "funding", "--published", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown signal type")

	_, err = execute(t, "score", "--snippet", "x", "--type", "hiring", "--published", "sometime soon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not parse publish date")
}

func TestCheckRecordsCommand(t *testing.T) {
	dir := t.TempDir()
	valid := writeFile(t, dir, "ok.jsonl",
		`{"domain":"a.com","company":"A","vertical":"dentists","card":null,"email":null}`+"\n")
	invalid := writeFile(t, dir, "bad.jsonl",
		`{"domain":"a.com","company":"A","vertical":"dentists","card":null,"email":null}`+"\n"+
			`{"domain":"","company":"B","vertical":"","card":null,"email":null}`+"\n")

	out, err := execute(t, "check-records", "--in", valid)
	require.NoError(t, err)
	assert.Contains(t, out, "1 records valid")

	out, err = execute(t, "check-records", "--in", invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 records failed validation")
	assert.Contains(t, out, "line 2")

	_, err = execute(t, "check-records", "--in", filepath.Join(dir, "missing.jsonl"))
	assert.Error(t, err)
}

func TestCheckRecordsCommand_Schema(t *testing.T) {
	dir := t.TempDir()
	records := writeFile(t, dir, "records.jsonl",
		`{"domain":"a.com","company":"A","vertical":"dentists","card":null,"email":null}`+"\n")
	carded := writeFile(t, dir, "carded.schema.json",
		`{"type":"object","required":["card"],"properties":{"card":{"type":"object"}}}`)
	t.Cleanup(func() { checkRecordsSchema = "" })

	out, err := execute(t, "check-records", "--in", records, "--schema", carded)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 records failed validation")
	assert.Contains(t, out, "carded.schema.json")

	_, err = execute(t, "check-records", "--in", records, "--schema", filepath.Join(dir, "missing.schema.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema file not found")
}

// fakeOllama answers every chat with prose and counts requests
func fakeOllama(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": "I found nothing worth reporting."},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testConfig(t *testing.T, dir, baseURL string) string {
	t.Helper()
	t.Setenv("LLM_BASE_URL", "")
	t.Setenv("OLLAMA_BASE_URL", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("DATABASE_URL", "")
	return writeFile(t, dir, "config.yml", fmt.Sprintf(`llm:
  provider: ollama
  base_url: %q
  request_timeout: 10s
pipeline:
  concurrency: 2
  domain_timeout: 30s
  verticals_dir: %q
fetch:
  min_delay: 0s
  max_delay: 0s
`, baseURL, dir))
}

func TestRunCommand(t *testing.T) {
	srv, calls := fakeOllama(t)
	dir := t.TempDir()
	cfgPath := testConfig(t, dir, srv.URL)
	csvPath := writeFile(t, dir, "domains.csv", "domain,company,vertical\nbrightsmile.test,Bright Smile,dentists\nglow.test,,\n")
	outPath := filepath.Join(dir, "out", "records.jsonl")

	runConcurrency, runVerbose = 0, false
	out, err := execute(t, "run", "--config", cfgPath, "--csv", csvPath, "--out", outPath, "--vertical", "med_spas")
	require.NoError(t, err)
	assert.Contains(t, out, "Domains:  2")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first, second types.Record
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "brightsmile.test", first.Domain)
	assert.Equal(t, "dentists", first.Vertical)
	assert.Equal(t, "med_spas", second.Vertical)
	assert.Nil(t, first.Card)
	assert.Nil(t, second.Email)

	// Five scrape steps per domain, validation skipped
	assert.Equal(t, int64(10), calls.Load())

	out, err = execute(t, "check-records", "--in", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "2 records valid")
}

func TestRunCommand_Errors(t *testing.T) {
	srv, _ := fakeOllama(t)
	dir := t.TempDir()
	cfgPath := testConfig(t, dir, srv.URL)
	empty := writeFile(t, dir, "empty.csv", "domain,company\n")
	badCfg := writeFile(t, dir, "bad.yml", "pipeline:\n  confidence_threshold: 2\n")

	runConcurrency, runVerbose = 0, false
	_, err := execute(t, "run", "--config", cfgPath, "--csv", empty, "--out", filepath.Join(dir, "x.jsonl"), "--vertical", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no domains found")

	_, err = execute(t, "run", "--config", badCfg, "--csv", empty, "--out", filepath.Join(dir, "x.jsonl"), "--vertical", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")

	_, err = execute(t, "run", "--config", cfgPath, "--csv", filepath.Join(dir, "missing.csv"), "--out", filepath.Join(dir, "x.jsonl"), "--vertical", "")
	assert.Error(t, err)
}

func TestProbeCommand(t *testing.T) {
	srv, calls := fakeOllama(t)
	dir := t.TempDir()
	cfgPath := testConfig(t, dir, srv.URL)

	probeVerbose = false
	out, err := execute(t, "probe", "--config", cfgPath, "--domain", "brightsmile.test", "--company", "", "--vertical", "")
	require.NoError(t, err)
	assert.Contains(t, out, "no signal found")
	assert.Contains(t, out, "not drafted")
	assert.Equal(t, int64(5), calls.Load())
}

func TestProbeCommand_InvalidVertical(t *testing.T) {
	srv, _ := fakeOllama(t)
	dir := t.TempDir()
	cfgPath := testConfig(t, dir, srv.URL)

	_, err := execute(t, "probe", "--config", cfgPath, "--domain", "a.test", "--company", "", "--vertical", "../secrets")
	assert.Error(t, err)
}
