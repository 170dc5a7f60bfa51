package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outcomeJSON struct {
	Source string `json:"source"`
	Error  string `json:"error"`
	Record *struct {
		Result struct {
			Domain  string `json:"domain"`
			Score   int    `json:"score"`
			Verdict string `json:"verdict"`
		} `json:"result"`
	} `json:"record"`
}

func writeRequest(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TRUSTSCOPE_DB_URL", "")
	t.Setenv("TRUSTSCOPE_OPENAI_API_KEY", "")
	t.Setenv("TRUSTSCOPE_SIGNAL_SERVICE_URL", "")
	t.Setenv("HOME", t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "trustscope dev\n", out)
}

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	first := writeRequest(t, dir, "first.json",
		`{"url":"https://old.example.com","content":"A trusted, licensed and regulated broker.",
		  "signals":{"domainAge":{"numericValue":4000},"ssl":{"numericValue":1},"socialMentions":{"numericValue":0}}}`)
	second := writeRequest(t, dir, "second.json",
		`{"url":"new.example.net","content":"Earn 30% daily!","signals":{"domainAge":{"numericValue":5}}}`)

	out, err := execute(t, "analyze", first, second, "--workers", "2")
	require.NoError(t, err)

	var outcomes []outcomeJSON
	require.NoError(t, json.Unmarshal([]byte(out), &outcomes))
	require.Len(t, outcomes, 2)

	assert.Equal(t, first, outcomes[0].Source)
	require.NotNil(t, outcomes[0].Record)
	assert.Equal(t, "old.example.com", outcomes[0].Record.Result.Domain)
	assert.Equal(t, "Legit", outcomes[0].Record.Result.Verdict)

	assert.Equal(t, second, outcomes[1].Source)
	require.NotNil(t, outcomes[1].Record)
	assert.Equal(t, 0, outcomes[1].Record.Result.Score)
	assert.Equal(t, "Scam", outcomes[1].Record.Result.Verdict)
}

func TestAnalyzeCommandFailure(t *testing.T) {
	dir := t.TempDir()
	good := writeRequest(t, dir, "good.json", `{"url":"example.com","content":"hello"}`)
	bad := writeRequest(t, dir, "bad.json", `{"content":"no url here"}`)

	out, err := execute(t, "analyze", good, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 analyses failed")

	var outcomes []outcomeJSON
	require.NoError(t, json.Unmarshal([]byte(out), &outcomes))
	require.Len(t, outcomes, 2)
	assert.NotNil(t, outcomes[0].Record)
	assert.Nil(t, outcomes[1].Record)
	assert.Contains(t, outcomes[1].Error, "url")
}

func TestReadJobs(t *testing.T) {
	dir := t.TempDir()
	ok := writeRequest(t, dir, "ok.json", `{"url":"example.com","kind":"job","salary":90000}`)
	broken := writeRequest(t, dir, "broken.json", `{"url":`)

	jobs, err := readJobs([]string{ok})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, ok, jobs[0].Source)
	assert.Equal(t, "example.com", jobs[0].Request.URL)
	assert.Equal(t, 90000.0, jobs[0].Request.Salary)

	_, err = readJobs([]string{ok, broken})
	assert.Error(t, err)

	_, err = readJobs([]string{filepath.Join(dir, "missing.json")})
	assert.Error(t, err)
}
