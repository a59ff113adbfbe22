package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/joho/godotenv"
	"github.com/jusunglee/openeval/internal/anthropic"
	"github.com/jusunglee/openeval/internal/dataset"
	"github.com/jusunglee/openeval/internal/envsetup"
	"github.com/jusunglee/openeval/internal/google"
	"github.com/jusunglee/openeval/internal/health"
	"github.com/jusunglee/openeval/internal/llm"
	"github.com/jusunglee/openeval/internal/logger"
	"github.com/jusunglee/openeval/internal/openai"
	"github.com/jusunglee/openeval/internal/runner"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"golang.org/x/term"
)

const envFile = ".env"

func main() {
	if err := mainE(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

type options struct {
	provider        string
	model           string
	openaiAPIKey    string
	openaiBaseURL   string
	anthropicAPIKey string
	googleAPIKey    string
	requestTimeout  time.Duration
}

func mainE() error {
	_ = godotenv.Load(envFile)

	fs := ff.NewFlagSet("openeval")
	var (
		input           = fs.StringLong("input", "data/open-eval.jsonl", "Benchmark JSONL file")
		outputDir       = fs.StringLong("output-dir", "results", "Directory for the completions file")
		times           = fs.IntLong("times", 1, "Completions requested per sample")
		verbose         = fs.StringEnumLong("verbose", "Print a per-sample report (true|false)", "true", "false")
		temperature     = fs.IntLong("temperature", 0, "Accepted for compatibility; sampling always uses temperature 0")
		mode            = fs.StringEnumLong("mode", "Prompt mode (base|instruct)", string(runner.ModeBase), string(runner.ModeInstruct))
		model           = fs.StringLong("model", "", "Model name (default depends on provider)")
		provider        = fs.StringEnumLong("provider", "Model provider (openai|anthropic|google)", "openai", "anthropic", "google")
		openaiAPIKey    = fs.StringLong("openai-api-key", "", "OpenAI API key")
		openaiBaseURL   = fs.StringLong("openai-base-url", "", "OpenAI-compatible endpoint")
		anthropicAPIKey = fs.StringLong("anthropic-api-key", "", "Anthropic API key")
		googleAPIKey    = fs.StringLong("google-api-key", "", "Google AI API key")
		requestTimeout  = fs.DurationLong("request-timeout", 5*time.Minute, "Per-request timeout (openai, anthropic)")
		maxTokens       = fs.IntLong("max-tokens", 0, "Completion token limit (0 for provider default)")
		metricsAddr     = fs.StringLong("metrics-addr", "", "Serve /health and /metrics on this address during the run")
		progressMode    = fs.StringEnumLong("progress", "Progress bar on stderr (auto|always|never)", "auto", "always", "never")
		_               = fs.StringLong("config", "", "Config file of flag-name value lines")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVars(),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	); err != nil {
		fmt.Printf("%s\n", ffhelp.Flags(fs))
		return fmt.Errorf("parsing flags: %w", err)
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)
	log := logger.Init()

	if *temperature != llm.Temperature {
		log.WarnContext(ctx, "ignoring temperature flag", "temperature", *temperature, "using", llm.Temperature)
	}

	opts := options{
		provider:        *provider,
		model:           *model,
		openaiAPIKey:    *openaiAPIKey,
		openaiBaseURL:   *openaiBaseURL,
		anthropicAPIKey: *anthropicAPIKey,
		googleAPIKey:    *googleAPIKey,
		requestTimeout:  *requestTimeout,
	}
	if err := opts.requireKey(); err != nil {
		if envsetup.NeedsSetup(envFile) {
			return fmt.Errorf("%w (run `go run ./cmd/setup` to create %s)", err, envFile)
		}
		return err
	}

	client, modelName, err := newClient(ctx, opts)
	if err != nil {
		return fmt.Errorf("creating %s client: %w", opts.provider, err)
	}

	samples, err := dataset.Load(*input)
	if err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}
	log.InfoContext(ctx, "loaded dataset", "path", *input, "samples", len(samples))

	if *metricsAddr != "" {
		srv := health.New(*metricsAddr)
		go func() {
			log.InfoContext(ctx, "starting metrics server", "addr", *metricsAddr)
			if err := srv.Start(); err != nil {
				log.ErrorContext(ctx, "metrics server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info("received signal, shutting down", "signal", sig)
		cancel(errors.New("signal received"))
	}()

	runOpts := []runner.Option{runner.WithReport(os.Stdout)}
	if showProgress(*progressMode) {
		runOpts = append(runOpts, runner.WithProgress(os.Stderr))
	}
	r, err := runner.New(client, log, runner.Config{
		Times:     *times,
		Mode:      runner.Mode(*mode),
		Verbose:   *verbose == "true",
		MaxTokens: *maxTokens,
		Provider:  opts.provider,
	}, runOpts...)
	if err != nil {
		return err
	}

	log.InfoContext(ctx, "starting run", "provider", opts.provider, "model", modelName, "mode", *mode, "times", *times)
	summary, err := r.Run(ctx, samples)
	if err != nil {
		return err
	}

	log.InfoContext(ctx, "run complete",
		"samples", summary.Samples,
		"generations", summary.Generations,
		"parse_failures", summary.ParseFailures,
		"parse_error_rate", summary.FailureRate(),
	)

	out := filepath.Join(*outputDir, dataset.ResultsFilename(modelName, *mode, *input))
	if err := dataset.Write(out, summary.Records); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	log.InfoContext(ctx, "wrote results", "path", out)
	return nil
}

func showProgress(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func (o options) requireKey() error {
	switch o.provider {
	case "openai":
		// A custom endpoint may not need a key.
		if o.openaiAPIKey == "" && o.openaiBaseURL == "" {
			return errors.New("openai-api-key is required")
		}
	case "anthropic":
		if o.anthropicAPIKey == "" {
			return errors.New("anthropic-api-key is required")
		}
	case "google":
		if o.googleAPIKey == "" {
			return errors.New("google-api-key is required")
		}
	}
	return nil
}

// newClient builds the provider client and reports the resolved model name.
func newClient(ctx context.Context, o options) (llm.Client, string, error) {
	switch o.provider {
	case "openai":
		c := openai.NewClient(
			openai.WithAPIKey(o.openaiAPIKey),
			openai.WithBaseURL(o.openaiBaseURL),
			openai.WithModel(o.model),
			openai.WithTimeout(o.requestTimeout),
		)
		return c, c.Model(), nil
	case "anthropic":
		m := anthropic.Model(o.model)
		if m == "" {
			m = anthropic.DefaultModel
		}
		return anthropic.NewClient(o.anthropicAPIKey, m, anthropicoption.WithRequestTimeout(o.requestTimeout)), string(m), nil
	case "google":
		m := google.Model(o.model)
		if m == "" {
			m = google.DefaultModel
		}
		c, err := google.NewClient(ctx, o.googleAPIKey, m)
		if err != nil {
			return nil, "", err
		}
		return c, string(m), nil
	}
	return nil, "", fmt.Errorf("unknown provider %q", o.provider)
}
