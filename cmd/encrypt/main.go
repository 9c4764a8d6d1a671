// Package main provides the code-encrypt command. It replaces every eligible
// source file under the configured paths with an encrypted stub and writes
// the decoy artifact to the scratch directory.
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
	"github.com/isseis/go-code-encrypter/internal/scratch"
	"github.com/isseis/go-code-encrypter/internal/terminal"
)

type encryptConfig struct {
	flags      cmdcommon.Flags
	minify     bool
	scratchDir string
	paths      []string
}

var lookupEnv = os.LookupEnv

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

	scratchDir := settings.Config.ScratchDir
	if cfg.scratchDir != "" {
		scratchDir = cfg.scratchDir
	}
	workspace, err := scratch.New(scratchDir)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	detector := terminal.NewDetector(terminal.DetectorOptions{})
	printer := cmdcommon.NewStatusPrinter(stdout, stderr, cmdcommon.Palette(cfg.flags, detector))

	p := pipeline.New(cmdcommon.Rules(settings.Config),
		pipeline.WithReporter(printer),
		pipeline.WithLogger(logger.Logger),
		pipeline.WithDecoyRange(settings.Config.Decoys.Min, settings.Config.Decoys.Max),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	slog.Info("Starting encode", "run_id", runID, "patterns", len(settings.Config.Paths))
	result, err := p.Encode(ctx, pipeline.EncodeRequest{
		Patterns:  settings.Config.Paths,
		Key:       settings.Key,
		Cipher:    settings.Cipher,
		Minify:    cfg.minify || settings.Config.Minify,
		Workspace: workspace,
		RunID:     runID,
	})
	if errors.Is(err, pipeline.ErrNoFiles) {
		_, _ = fmt.Fprintln(stdout, "No files to encrypt.")
		return 0
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	printSummary(stdout, result)
	return 0
}

func parseArgs(args []string, stderr io.Writer) (*encryptConfig, *flag.FlagSet, error) {
	cfg := &encryptConfig{}

	fs := flag.NewFlagSet("code-encrypt", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(fs, stderr) }
	cfg.flags.Register(fs)
	fs.BoolVar(&cfg.minify, "minify", false, "Minify the generated decoy artifact")
	fs.StringVar(&cfg.scratchDir, "scratch-dir", "", "Directory receiving the decoy artifact; emptied on every run")

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

func printSummary(w io.Writer, result *pipeline.EncodeResult) {
	failed, invalid := 0, 0
	for _, f := range result.Files {
		switch {
		case f.Status == pipeline.StatusInvalidFile:
			invalid++
		case f.Status.Failed():
			failed++
		}
	}

	_, _ = fmt.Fprintf(w, "\nSummary: %d encrypted, %d failed, %d invalid\n\n", result.Encoded(), failed, invalid)
	_, _ = fmt.Fprintf(w, "Key:                              %s\n", result.Key)
	_, _ = fmt.Fprintf(w, "Cipher:                           %s\n", result.Cipher)
	_, _ = fmt.Fprintf(w, "Artifact File:                    %s\n", result.ArtifactPath)
	_, _ = fmt.Fprintf(w, "Scratch Directory (Must Delete):  %s\n", result.ScratchDir)
	_, _ = fmt.Fprintln(w, "\nKeep the key: decrypting needs it. Delete the scratch directory once the artifact is compiled.")
}
