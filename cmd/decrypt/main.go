// Package main provides the code-decrypt command. It restores every encoded
// stub under the configured paths to its original source.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/isseis/go-code-encrypter/internal/cmdcommon"
	"github.com/isseis/go-code-encrypter/internal/logging"
	"github.com/isseis/go-code-encrypter/internal/pipeline"
	"github.com/isseis/go-code-encrypter/internal/terminal"
)

type decryptConfig struct {
	flags cmdcommon.Flags
	paths []string
}

var (
	lookupEnv       = os.LookupEnv
	prompterFactory = func(detector *terminal.Detector, stderr io.Writer) cmdcommon.SecretReader {
		if !detector.CanPrompt() {
			return nil
		}
		return terminal.NewPrompter(stderr)
	}
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, fs, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		printUsage(fs, stderr)
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	runID := logging.GenerateRunID()
	logger, err := cmdcommon.SetupLogger(cfg.flags, stderr, runID)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Close() }()
	slog.SetDefault(logger.Logger)

	settings, err := cmdcommon.Resolve(cfg.flags, cfg.paths, lookupEnv)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	detector := terminal.NewDetector(terminal.DetectorOptions{})
	key, err := cmdcommon.RequireKey(settings.Key, prompterFactory(detector, stderr))
	if err != nil {
		printUsage(fs, stderr)
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	printer := cmdcommon.NewStatusPrinter(stdout, stderr, cmdcommon.Palette(cfg.flags, detector))
	p := pipeline.New(cmdcommon.Rules(settings.Config),
		pipeline.WithReporter(printer),
		pipeline.WithLogger(logger.Logger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	slog.Info("Starting decode", "run_id", runID, "patterns", len(settings.Config.Paths))
	result, err := p.Decode(ctx, pipeline.DecodeRequest{
		Patterns: settings.Config.Paths,
		Key:      key,
		Cipher:   settings.Cipher,
	})
	if errors.Is(err, pipeline.ErrNoFiles) {
		_, _ = fmt.Fprintln(stdout, "No files to decrypt.")
		return 0
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	failed := len(result.Files) - result.Decoded()
	_, _ = fmt.Fprintf(stdout, "\nSummary: %d decrypted, %d failed\n", result.Decoded(), failed)
	return 0
}

func parseArgs(args []string, stderr io.Writer) (*decryptConfig, *flag.FlagSet, error) {
	cfg := &decryptConfig{}

	fs := flag.NewFlagSet("code-decrypt", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(fs, stderr) }
	cfg.flags.Register(fs)

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	cfg.paths = fs.Args()
	return cfg, fs, nil
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	if fs == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "Usage: %s [flags] [<path pattern>...]\n", filepath.Base(os.Args[0]))
	fs.PrintDefaults()
}
