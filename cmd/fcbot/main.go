// Command fcbot drives batch exports from a FreeCAD document in CI/CD
// workflows. It loads a declarative YAML configuration, builds one runner per
// configured output, writes the resulting job manifest to a temporary file,
// and launches FreeCAD to execute it against the input document.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/asymworks/fcbot/config"
	"github.com/asymworks/fcbot/job"
	"github.com/asymworks/fcbot/outputs"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("fcbot", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: fcbot [flags] INPUT.FCStd\n")
		fs.PrintDefaults()
	}

	var (
		configPath  = fs.String("c", "fcbot.yaml", "fcbot configuration file")
		outputDir   = fs.String("o", "", "output directory (default is $CWD or fcbot.output_dir)")
		verbose     = fs.Bool("v", false, "info-level logging")
		debug       = fs.Bool("vv", false, "debug-level logging")
		showVersion = fs.Bool("V", false, "print fcbot version and exit")
	)
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *showVersion {
		fmt.Printf("fcbot %s\n", version)
		return 0
	}

	input := fs.Arg(0)
	if input == "" {
		fmt.Fprintln(os.Stderr, "error: missing FreeCAD input file")
		fs.Usage()
		return 1
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	logger.Info("fcbot started")

	cfg, err := config.Load(*configPath, logger)
	if err != nil {
		logger.Error("configuration failed", "error", err)
		return 1
	}
	if cfg.FCBot.OutputDir == "" && *outputDir != "" {
		cfg.FCBot.OutputDir = *outputDir
	}
	logger.Debug("using output directory", "dir", cfg.FCBot.OutputDir)

	if _, err := parseLevel(cfg.FCBot.LogLevel); err != nil {
		logger.Error("invalid value for fcbot.log_level", "value", cfg.FCBot.LogLevel)
		return 3
	}

	if len(cfg.Outputs) == 0 {
		logger.Warn("no outputs found in configuration file, exiting cleanly")
		return 0
	}

	// Build every runner now so unsupported types and malformed specs fail
	// before FreeCAD is launched.
	runners := make([]outputs.Runner, 0, len(cfg.Outputs))
	for i, o := range cfg.Outputs {
		r, err := outputs.New(o, fmt.Sprintf("outputs[%d]", i), cfg.FCBot.OutputDir, logger)
		if err != nil {
			logger.Error("output configuration failed", "error", err)
			return 2
		}
		runners = append(runners, r)
	}

	absInput, err := filepath.Abs(input)
	if err != nil {
		logger.Error("resolve input file", "error", err)
		return 1
	}

	manifest, err := job.New(absInput, cfg.FCBot.OutputDir, cfg.FCBot.LogLevel, runners)
	if err != nil {
		logger.Error("assemble job manifest", "error", err)
		return 2
	}

	manifestFile, err := os.CreateTemp("", "fcbot-*.json")
	if err != nil {
		logger.Error("create manifest file", "error", err)
		return 4
	}
	manifestPath := manifestFile.Name()
	manifestFile.Close()
	defer os.Remove(manifestPath)

	logger.Debug("writing job manifest", "path", manifestPath)
	if err := job.Write(manifestPath, manifest); err != nil {
		logger.Error("write job manifest", "error", err)
		return 4
	}
	if info, err := os.Stat(manifestPath); err != nil || info.Size() == 0 {
		logger.Error("job manifest is missing or empty after writing", "path", manifestPath)
		return 4
	}

	cmdArgs := make([]string, 0, len(cfg.FCBot.Paths)*2+len(cfg.FCBot.Args)+2)
	for _, p := range cfg.FCBot.Paths {
		cmdArgs = append(cmdArgs, "-P", p)
	}
	cmdArgs = append(cmdArgs, cfg.FCBot.Args...)
	cmdArgs = append(cmdArgs, manifestPath)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.FCBot.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, cfg.FCBot.Command, cmdArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	logger.Info("starting FreeCAD", "cmd", cfg.FCBot.Command)
	logger.Debug("full FreeCAD command", "args", cmdArgs)
	if err := cmd.Run(); err != nil {
		logger.Error("FreeCAD run failed", "error", err)
		return 4
	}

	logger.Info("fcbot run complete")
	return 0
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
