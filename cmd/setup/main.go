// setup runs the interactive .env wizard used by cmd/openeval.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jusunglee/openeval/internal/envsetup"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

func main() {
	if err := mainE(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func mainE() error {
	fs := ff.NewFlagSet("openeval-setup")
	var (
		path  = fs.StringLong("env-file", ".env", "File to write")
		force = fs.BoolLong("force", "Overwrite an existing file")
	)
	if err := ff.Parse(fs, os.Args[1:]); err != nil {
		fmt.Printf("%s\n", ffhelp.Flags(fs))
		return fmt.Errorf("parsing flags: %w", err)
	}

	if !envsetup.NeedsSetup(*path) && !*force {
		return fmt.Errorf("%s already exists (pass --force to overwrite)", *path)
	}

	saved, err := envsetup.Run(*path)
	if err != nil {
		return fmt.Errorf("running setup wizard: %w", err)
	}
	if !saved {
		fmt.Println("Setup cancelled, nothing written.")
		return nil
	}
	fmt.Printf("Wrote %s. Run `go run ./cmd/openeval` to start a benchmark.\n", *path)
	return nil
}
