// Package runner drives a benchmark run: it prompts a model for every sample,
// extracts code from each raw completion and attaches both to the sample.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jusunglee/openeval/internal/dataset"
	"github.com/jusunglee/openeval/internal/extract"
	"github.com/jusunglee/openeval/internal/llm"
	"github.com/jusunglee/openeval/internal/metrics"
)

type Config struct {
	// Times is the number of completions requested per sample.
	Times     int
	Mode      Mode
	Verbose   bool
	MaxTokens int
	// Provider labels metrics.
	Provider string
}

type Summary struct {
	Records       []dataset.Sample
	Samples       int
	Generations   int
	ParseFailures int
}

// FailureRate is the share of generations whose code could not be extracted.
func (s Summary) FailureRate() float64 {
	if s.Generations == 0 {
		return 0
	}
	return float64(s.ParseFailures) / float64(s.Generations)
}

type Runner struct {
	client    llm.Client
	extractor *extract.Extractor
	log       *slog.Logger
	cfg       Config
	report    io.Writer
	progress  io.Writer
}

type Option func(*Runner)

// WithExtractor replaces the default extractor.
func WithExtractor(e *extract.Extractor) Option {
	return func(r *Runner) { r.extractor = e }
}

// WithReport sets where verbose per-sample output goes.
func WithReport(w io.Writer) Option {
	return func(r *Runner) { r.report = w }
}

// WithProgress enables a progress bar drawn to w.
func WithProgress(w io.Writer) Option {
	return func(r *Runner) { r.progress = w }
}

func New(client llm.Client, log *slog.Logger, cfg Config, opts ...Option) (*Runner, error) {
	if client == nil {
		return nil, errors.New("runner: nil client")
	}
	if cfg.Times < 1 {
		return nil, fmt.Errorf("runner: times must be at least 1, got %d", cfg.Times)
	}
	if _, err := ParseMode(string(cfg.Mode)); err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}
	if cfg.Provider == "" {
		cfg.Provider = "unknown"
	}

	r := &Runner{
		client:    client,
		extractor: extract.New(),
		log:       log,
		cfg:       cfg,
		report:    io.Discard,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run processes samples in order. A failed model call aborts the run; a
// completion that cannot be parsed is recorded as an empty generation and
// counted.
func (r *Runner) Run(ctx context.Context, samples []dataset.Sample) (Summary, error) {
	summary := Summary{Records: make([]dataset.Sample, 0, len(samples))}

	var bar *Progress
	if r.progress != nil {
		bar = NewProgress(r.progress, len(samples))
		bar.Update(0)
		defer bar.Finish()
	}

	for i, s := range samples {
		if err := context.Cause(ctx); err != nil {
			return summary, fmt.Errorf("run interrupted after %d/%d samples: %w", i, len(samples), err)
		}

		out, failures, err := r.processSample(ctx, i, len(samples), s)
		if err != nil {
			return summary, err
		}

		summary.Records = append(summary.Records, out)
		summary.Samples++
		summary.Generations += r.cfg.Times
		summary.ParseFailures += failures
		metrics.SamplesProcessed.Inc()

		if bar != nil {
			bar.Update(i + 1)
		}
	}

	return summary, nil
}

func (r *Runner) processSample(ctx context.Context, idx, total int, s dataset.Sample) (dataset.Sample, int, error) {
	taskID := s.TaskID()

	prompt, err := BuildPrompt(r.cfg.Mode, s)
	if err != nil {
		return dataset.Sample{}, 0, fmt.Errorf("sample %d (%s): %w", idx, taskID, err)
	}

	if r.cfg.Verbose {
		r.log.InfoContext(ctx, "processing", "task_id", taskID, "index", idx+1, "total", total)
	}

	raw, err := r.generate(ctx, prompt)
	if err != nil {
		return dataset.Sample{}, 0, fmt.Errorf("generating %s: %w", taskID, err)
	}

	target := s.EntryPoint()
	generations := make([]string, len(raw))
	failures := 0
	for j, text := range raw {
		code, err := r.extractor.Extract(prompt, text, target)
		if err != nil {
			var perr *extract.ParseError
			if !errors.As(err, &perr) {
				return dataset.Sample{}, 0, fmt.Errorf("extracting %s: %w", taskID, err)
			}
			failures++
			metrics.GenerationsTotal.WithLabelValues("parse_error").Inc()
			metrics.ParseFailures.Inc()
			r.log.WarnContext(ctx, "parse failure", "task_id", taskID, "generation", j, "error", err)
			continue
		}
		metrics.GenerationsTotal.WithLabelValues("ok").Inc()
		generations[j] = code
	}

	out, err := s.WithGenerations(raw, generations)
	if err != nil {
		return dataset.Sample{}, 0, fmt.Errorf("recording %s: %w", taskID, err)
	}

	if r.cfg.Verbose {
		writeReport(r.report, taskID, prompt, s.CanonicalSolution(), generations)
	}

	return out, failures, nil
}

func (r *Runner) generate(ctx context.Context, prompt string) ([]string, error) {
	req := llm.DefaultRequest(prompt, r.cfg.Times)
	req.MaxTokens = r.cfg.MaxTokens

	start := time.Now()
	raw, err := r.client.Generate(ctx, req)
	metrics.LLMCallDuration.WithLabelValues(r.cfg.Provider).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMCallsTotal.WithLabelValues(r.cfg.Provider, "error").Inc()
		return nil, err
	}
	if len(raw) != r.cfg.Times {
		metrics.LLMCallsTotal.WithLabelValues(r.cfg.Provider, "error").Inc()
		return nil, fmt.Errorf("expected %d completions, got %d", r.cfg.Times, len(raw))
	}
	metrics.LLMCallsTotal.WithLabelValues(r.cfg.Provider, "ok").Inc()
	return raw, nil
}
