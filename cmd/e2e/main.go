// e2e runs a two-sample benchmark against a live provider and checks the
// written results. It needs PROVIDER, MODEL and the provider's API key.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/jusunglee/openeval/internal/anthropic"
	"github.com/jusunglee/openeval/internal/dataset"
	"github.com/jusunglee/openeval/internal/google"
	"github.com/jusunglee/openeval/internal/llm"
	"github.com/jusunglee/openeval/internal/logger"
	"github.com/jusunglee/openeval/internal/openai"
	"github.com/jusunglee/openeval/internal/runner"
)

const times = 2

var fixtures = []string{
	`{"task_id":"e2e/0","prompt":"def add(a: int, b: int) -> int:\n    \"\"\"Return the sum of a and b.\n    >>> add(2, 3)\n    5\n    \"\"\"\n","canonical_solution":"    return a + b\n","entry_point":"add","instruction":"Write a Python function add(a, b) that returns the sum of two integers."}`,
	`{"task_id":"e2e/1","prompt":"def is_palindrome(text: str) -> bool:\n    \"\"\"Check whether text reads the same backwards.\n    >>> is_palindrome('aba')\n    True\n    \"\"\"\n","canonical_solution":"    return text == text[::-1]\n","entry_point":"is_palindrome","instruction":"Write a Python function is_palindrome(text) that reports whether text reads the same backwards."}`,
}

func main() {
	if err := run(); err != nil {
		slog.Error("E2E FAILED", "error", err)
		os.Exit(1)
	}
	slog.Info("E2E PASSED")
}

func run() error {
	_ = godotenv.Load()

	provider := requireEnv("PROVIDER")
	model := os.Getenv("MODEL")
	mode := os.Getenv("MODE")
	if mode == "" {
		mode = string(runner.ModeBase)
	}

	log := logger.New()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	log.Info("Phase 1: Creating provider client...", "provider", provider)
	var client llm.Client
	switch provider {
	case "openai":
		c := openai.NewClient(
			openai.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
			openai.WithBaseURL(os.Getenv("OPENAI_BASE_URL")),
			openai.WithModel(model),
		)
		model = c.Model()
		client = c
	case "anthropic":
		if model == "" {
			model = string(anthropic.DefaultModel)
		}
		client = anthropic.NewClient(requireEnv("ANTHROPIC_API_KEY"), anthropic.Model(model))
	case "google":
		if model == "" {
			model = string(google.DefaultModel)
		}
		c, err := google.NewClient(ctx, requireEnv("GOOGLE_API_KEY"), google.Model(model))
		if err != nil {
			return fmt.Errorf("creating Google client: %w", err)
		}
		client = c
	default:
		return fmt.Errorf("unsupported PROVIDER: %s", provider)
	}

	log.Info("Phase 2: Writing fixture dataset...")
	dir, err := os.MkdirTemp("", "openeval-e2e-")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	samples := make([]dataset.Sample, 0, len(fixtures))
	for _, line := range fixtures {
		s, err := dataset.Parse([]byte(line))
		if err != nil {
			return fmt.Errorf("parsing fixture: %w", err)
		}
		samples = append(samples, s)
	}
	input := filepath.Join(dir, "e2e.jsonl")
	if err := dataset.Write(input, samples); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}

	log.Info("Phase 3: Running benchmark...", "mode", mode, "times", times)
	loaded, err := dataset.Load(input)
	if err != nil {
		return fmt.Errorf("loading fixture: %w", err)
	}
	r, err := runner.New(client, log, runner.Config{
		Times:    times,
		Mode:     runner.Mode(mode),
		Verbose:  true,
		Provider: provider,
	}, runner.WithReport(os.Stdout))
	if err != nil {
		return err
	}
	summary, err := r.Run(ctx, loaded)
	if err != nil {
		return fmt.Errorf("running benchmark: %w", err)
	}

	out := filepath.Join(dir, "results", dataset.ResultsFilename(model, mode, input))
	if err := dataset.Write(out, summary.Records); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}

	log.Info("Phase 4: Verifying results...", "path", out)
	results, err := dataset.Load(out)
	if err != nil {
		return fmt.Errorf("reading results: %w", err)
	}
	if len(results) != len(fixtures) {
		return fmt.Errorf("expected %d results, got %d", len(fixtures), len(results))
	}
	extracted := 0
	for _, res := range results {
		raw := res.Strings("raw_generation")
		gens := res.Strings("generation")
		if len(raw) != times || len(gens) != times {
			return fmt.Errorf("%s: expected %d generations, got raw=%d extracted=%d", res.TaskID(), times, len(raw), len(gens))
		}
		for _, g := range gens {
			if g != "" {
				extracted++
			}
		}
	}
	if extracted == 0 {
		return fmt.Errorf("no code extracted from %d generations", summary.Generations)
	}

	log.Info("all verifications passed",
		"samples", summary.Samples,
		"generations", summary.Generations,
		"extracted", extracted,
		"parse_error_rate", summary.FailureRate(),
	)
	return nil
}

func requireEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		slog.Error("required environment variable not set", "key", key)
		os.Exit(1)
	}
	return val
}
