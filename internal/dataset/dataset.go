// Package dataset reads and writes benchmark records stored as JSON lines.
//
// Records are kept as raw JSON so fields this package does not know about survive
// a read/write round trip unchanged.
package dataset

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const maxLineSize = 16 << 20

var ErrMissingField = errors.New("missing field")

type Sample struct {
	raw []byte
}

// Parse wraps a single JSON object.
func Parse(line []byte) (Sample, error) {
	if !gjson.ValidBytes(line) {
		return Sample{}, errors.New("invalid JSON")
	}
	if !gjson.ParseBytes(line).IsObject() {
		return Sample{}, errors.New("record is not a JSON object")
	}
	return Sample{raw: bytes.Clone(line)}, nil
}

func (s Sample) get(field string) string {
	return gjson.GetBytes(s.raw, field).String()
}

func (s Sample) TaskID() string            { return s.get("task_id") }
func (s Sample) Prompt() string            { return s.get("prompt") }
func (s Sample) Instruction() string       { return s.get("instruction") }
func (s Sample) CanonicalSolution() string { return s.get("canonical_solution") }

// EntryPoint names the function a completion should define, falling back to the
// task id for datasets without an entry_point field.
func (s Sample) EntryPoint() string {
	if ep := s.get("entry_point"); ep != "" {
		return ep
	}
	return s.TaskID()
}

// Require reports the first listed field absent from the record.
func (s Sample) Require(fields ...string) error {
	for _, f := range fields {
		if !gjson.GetBytes(s.raw, f).Exists() {
			return fmt.Errorf("%w %q", ErrMissingField, f)
		}
	}
	return nil
}

// Strings returns a string array field, or nil when absent.
func (s Sample) Strings(field string) []string {
	res := gjson.GetBytes(s.raw, field)
	if !res.IsArray() {
		return nil
	}
	var out []string
	for _, v := range res.Array() {
		out = append(out, v.String())
	}
	return out
}

// WithGenerations returns a copy of s with raw_generation and generation set.
func (s Sample) WithGenerations(raw, extracted []string) (Sample, error) {
	out, err := sjson.SetBytes(bytes.Clone(s.raw), "raw_generation", raw)
	if err != nil {
		return Sample{}, fmt.Errorf("setting raw_generation: %w", err)
	}
	out, err = sjson.SetBytes(out, "generation", extracted)
	if err != nil {
		return Sample{}, fmt.Errorf("setting generation: %w", err)
	}
	return Sample{raw: out}, nil
}

func (s Sample) MarshalJSON() ([]byte, error) {
	return s.raw, nil
}

// Load reads every non-blank line of path as a Sample.
func Load(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	var samples []Sample
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		s, err := Parse(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		samples = append(samples, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	return samples, nil
}

// Write stores samples at path, one record per line, creating parent directories.
func Write(path string, samples []Sample) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, s := range samples {
		w.Write(s.raw)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing output file: %w", err)
	}
	return f.Close()
}

// ResultsFilename names the output of a run: <model>_<mode>_completions_<input stem>.jsonl.
// Path separators in the model name are replaced so the file stays in one directory.
func ResultsFilename(model, mode, inputPath string) string {
	stem := filepath.Base(inputPath)
	if i := strings.IndexByte(stem, '.'); i >= 0 {
		stem = stem[:i]
	}
	model = strings.NewReplacer("/", "-", `\`, "-").Replace(model)
	return fmt.Sprintf("%s_%s_completions_%s.jsonl", model, mode, stem)
}
