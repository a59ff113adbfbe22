package dataset

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLines = `{"task_id":"BigCodeBench/1096","prompt":"def task_func(ts, tz):\n","canonical_solution":"    return ts\n","entry_point":"task_func","extra":{"k":[1,2]}}

{"task_id":"BigCodeBench/339","prompt":"def backup():\n","canonical_solution":"    pass\n","instruction":"Write backup."}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	samples, err := Load(writeFile(t, "open-eval.jsonl", sampleLines))
	require.NoError(t, err)
	require.Len(t, samples, 2)

	first := samples[0]
	assert.Equal(t, "BigCodeBench/1096", first.TaskID())
	assert.Equal(t, "def task_func(ts, tz):\n", first.Prompt())
	assert.Equal(t, "    return ts\n", first.CanonicalSolution())
	assert.Equal(t, "task_func", first.EntryPoint())

	second := samples[1]
	assert.Equal(t, "Write backup.", second.Instruction())
	assert.Equal(t, "BigCodeBench/339", second.EntryPoint(), "falls back to task_id")
}

func TestLoadReportsLine(t *testing.T) {
	path := writeFile(t, "bad.jsonl", "{\"task_id\":\"a\"}\n{not json\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.jsonl:2")

	path = writeFile(t, "array.jsonl", "[1,2]\n")
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a JSON object")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)
}

func TestRequire(t *testing.T) {
	s, err := Parse([]byte(`{"task_id":"x","prompt":""}`))
	require.NoError(t, err)

	assert.NoError(t, s.Require("task_id", "prompt"))

	err = s.Require("task_id", "instruction")
	assert.True(t, errors.Is(err, ErrMissingField))
	assert.Contains(t, err.Error(), `"instruction"`)
}

func TestWithGenerationsPreservesRecord(t *testing.T) {
	s, err := Parse([]byte(`{"task_id":"x","extra":{"k":[1,2]},"prompt":"p"}`))
	require.NoError(t, err)

	out, err := s.WithGenerations([]string{"raw one", "raw two"}, []string{"one", ""})
	require.NoError(t, err)

	assert.Equal(t, []string{"raw one", "raw two"}, out.Strings("raw_generation"))
	assert.Equal(t, []string{"one", ""}, out.Strings("generation"))
	assert.True(t, strings.HasPrefix(string(out.raw), `{"task_id":"x","extra":{"k":[1,2]},"prompt":"p"`))

	// The receiver is untouched.
	assert.Nil(t, s.Strings("generation"))

	// Existing fields are replaced rather than duplicated.
	again, err := out.WithGenerations([]string{"r"}, []string{"g"})
	require.NoError(t, err)
	assert.Equal(t, []string{"g"}, again.Strings("generation"))
	assert.Equal(t, 1, strings.Count(string(again.raw), `"generation"`))
}

func TestWriteRoundTrip(t *testing.T) {
	samples, err := Load(writeFile(t, "in.jsonl", sampleLines))
	require.NoError(t, err)

	for i, s := range samples {
		samples[i], err = s.WithGenerations([]string{"```python\nreturn 1\n```"}, []string{"return 1\n"})
		require.NoError(t, err)
	}

	out := filepath.Join(t.TempDir(), "results", "nested", "out.jsonl")
	require.NoError(t, Write(out, samples))

	loaded, err := Load(out)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	for _, s := range loaded {
		assert.Equal(t, []string{"return 1\n"}, s.Strings("generation"))
	}

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(loaded[0].raw, &decoded))
	assert.Equal(t, map[string]any{"k": []any{1.0, 2.0}}, decoded["extra"])
}

func TestMarshalJSON(t *testing.T) {
	s, err := Parse([]byte(`{"task_id":"x"}`))
	require.NoError(t, err)

	b, err := json.Marshal([]Sample{s})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"task_id":"x"}]`, string(b))
}

func TestResultsFilename(t *testing.T) {
	assert.Equal(t,
		"gpt-4-turbo-2024-04-09_base_completions_open-eval.jsonl",
		ResultsFilename("gpt-4-turbo-2024-04-09", "base", "data/open-eval.jsonl"),
	)
	assert.Equal(t,
		"meta-llama-Llama-3_instruct_completions_tasks.jsonl",
		ResultsFilename("meta-llama/Llama-3", "instruct", "/tmp/tasks.v2.jsonl"),
	)
}
