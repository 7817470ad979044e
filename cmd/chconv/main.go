package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Meha555/chconv/internal/config"
	"github.com/Meha555/chconv/internal/converter"
	"github.com/Meha555/chconv/internal/filter"
	"github.com/Meha555/chconv/internal/logging"
	"github.com/Meha555/chconv/internal/manager"
	"github.com/Meha555/chconv/internal/models"
	"github.com/Meha555/chconv/internal/util"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const diagnoseInterval = 30 * time.Second

// errRunFailed is returned when at least one file failed. The failures are
// already logged, so main only sets the exit code.
var errRunFailed = errors.New("one or more files failed to convert")

type options struct {
	configPath string
	cfg        config.Config
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{cfg: config.Default()}

	cmd := &cobra.Command{
		Use:   "chconv",
		Short: "Convert the character encoding of text files in a directory tree",
		Long: `chconv detects the charset of every text file under the input path and
writes a copy encoded in the target charset to the same relative location
under the output path. Binary and empty files are skipped.`,
		Version:       versionString(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.cfg.ScanRoot, "input", "i", "", "input file or directory")
	f.StringVarP(&opts.cfg.OutputRoot, "output", "o", "", "output file or directory")
	f.BoolVarP(&opts.cfg.Recursive, "recursive", "r", false, "descend into subdirectories")
	f.BoolVarP(&opts.cfg.DryRun, "dry-run", "d", false, "report what would be converted without writing")
	f.BoolVarP(&opts.cfg.Verbose, "verbose", "v", false, "log every file and its detected charset")
	f.StringVarP(&opts.cfg.Suffix, "suffix", "s", "", "';' separated patterns a file name or extension must match")
	f.StringVarP(&opts.cfg.Exclude, "exclude", "e", "", "';' separated patterns for files and directories to skip")
	f.StringVarP(&opts.cfg.Target, "to", "t", config.DefaultTarget, "target charset")
	f.IntVar(&opts.cfg.Workers, "workers", opts.cfg.Workers, "number of worker goroutines")
	f.IntVar(&opts.cfg.MaxExpansion, "max-expansion", opts.cfg.MaxExpansion, "largest output size as a multiple of the input size")
	f.BoolVar(&opts.cfg.Progress, "progress", false, "show a progress bar")
	f.StringVar(&opts.cfg.Color, "color", config.ColorAuto, "colorize output: auto, always or never")
	f.BoolVar(&opts.cfg.Diagnose, "diagnose", false, "log process diagnostics")
	f.StringVarP(&opts.configPath, "config", "c", "", "YAML config file; flags given on the command line take precedence")

	cmd.SetVersionTemplate("chconv {{.Version}}\n")
	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	startTime := time.Now()

	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}
	if err := cfg.Validate(converter.Supported); err != nil {
		return err
	}

	log := logging.NewConsole(cmd.ErrOrStderr(), cfg.Color, cfg.Verbose)
	flt := filter.New(rootDir(cfg.ScanRoot), cfg.Suffix, cfg.Exclude)
	for _, perr := range flt.Errors() {
		log.Warn("%v", perr)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Diagnose {
		util.LogDiagnostics(log, startTime)
		util.StartMonitor(ctx, log, startTime, diagnoseInterval)
	}

	log.Debug("input: %s, output: %s, to: %s, workers: %d", cfg.ScanRoot, cfg.OutputRoot, cfg.Target, cfg.Workers)

	mgr := manager.NewManager(&cfg, flt, log, manager.WithProgressWriter(cmd.ErrOrStderr()))
	stats, err := mgr.Run(ctx)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		log.Warn("interrupted, %d files were left unprocessed", countCancelled(stats))
	}

	printSummary(cmd.OutOrStdout(), &cfg, stats, time.Since(startTime))
	if cfg.Diagnose {
		util.LogDiagnostics(log, startTime)
	}

	if stats.Verdict() != models.StatusSuccess {
		return errRunFailed
	}
	return nil
}

// resolveConfig starts from the config file, if any, and applies every flag
// the user set explicitly on top of it.
func resolveConfig(cmd *cobra.Command, opts *options) (config.Config, error) {
	if opts.configPath == "" {
		return opts.cfg, nil
	}

	cfg, err := config.LoadFile(opts.configPath)
	if err != nil {
		return cfg, err
	}

	overlayFlags(cmd.Flags(), &cfg, opts.cfg)
	return cfg, nil
}

// rootDir is the directory patterns are made relative to
func rootDir(scanRoot string) string {
	if info, err := os.Stat(scanRoot); err == nil && !info.IsDir() {
		return filepath.Dir(scanRoot)
	}
	return scanRoot
}

// overlayFlags copies every flag set on the command line from src into dst
func overlayFlags(fs *pflag.FlagSet, dst *config.Config, src config.Config) {
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "input":
			dst.ScanRoot = src.ScanRoot
		case "output":
			dst.OutputRoot = src.OutputRoot
		case "recursive":
			dst.Recursive = src.Recursive
		case "dry-run":
			dst.DryRun = src.DryRun
		case "verbose":
			dst.Verbose = src.Verbose
		case "suffix":
			dst.Suffix = src.Suffix
		case "exclude":
			dst.Exclude = src.Exclude
		case "to":
			dst.Target = src.Target
		case "workers":
			dst.Workers = src.Workers
		case "max-expansion":
			dst.MaxExpansion = src.MaxExpansion
		case "progress":
			dst.Progress = src.Progress
		case "color":
			dst.Color = src.Color
		case "diagnose":
			dst.Diagnose = src.Diagnose
		}
	})
}

func countCancelled(stats models.Stats) int {
	n := 0
	for _, r := range stats.Failures {
		if errors.Is(r.Error, models.ErrCancelled) {
			n++
		}
	}
	return n
}

func printSummary(w io.Writer, cfg *config.Config, stats models.Stats, elapsed time.Duration) {
	elapsed = elapsed.Round(time.Millisecond)

	var filesPerSec float64
	if elapsed.Seconds() > 0 {
		filesPerSec = float64(stats.Processed) / elapsed.Seconds()
	}

	converted := "Converted"
	if cfg.DryRun {
		converted = "Would convert"
	}

	fmt.Fprintf(w, "\nProcessing completed in %s\n", elapsed)
	fmt.Fprintf(w, "Files discovered: %d (%.2f files/sec)\n", stats.Discovered, filesPerSec)
	fmt.Fprintf(w, "%s: %d\n", converted, stats.Converted)
	fmt.Fprintf(w, "Skipped: %d\n", stats.Skipped)
	fmt.Fprintf(w, "Failed: %d\n", stats.Failed)
	fmt.Fprintf(w, "Data processed: %s\n", humanize.Bytes(uint64(stats.TotalFileSize)))
	if stats.Workers > 0 {
		fmt.Fprintf(w, "Workers: %d\n", stats.Workers)
	}
}

// versionString names the detection and transcoding backends with the
// versions linked into the binary.
func versionString() string {
	backends := map[string]string{
		"github.com/gogs/chardet": "unknown",
		"golang.org/x/text":       "unknown",
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, dep := range info.Deps {
			if _, want := backends[dep.Path]; want {
				backends[dep.Path] = dep.Version
			}
		}
	}
	return fmt.Sprintf("%s (chardet %s, x/text %s)",
		version, backends["github.com/gogs/chardet"], backends["golang.org/x/text"])
}
