package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/marginspect/marginspect/internal/adjust"
	"github.com/marginspect/marginspect/internal/config"
	"github.com/marginspect/marginspect/internal/pdf"
	"github.com/marginspect/marginspect/internal/report"
	"github.com/marginspect/marginspect/internal/scanner"
	"github.com/marginspect/marginspect/internal/stats"
	"github.com/marginspect/marginspect/pkg/logger"
	"github.com/marginspect/marginspect/pkg/models"
	"github.com/marginspect/marginspect/pkg/version"
)

const (
	exitFileError  = 1
	exitUsageError = 2
)

func main() {
	cmd := newRootCommand()

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		code := exitFileError
		var ec cli.ExitCoder
		if errors.As(err, &ec) {
			code = ec.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "marginspect: %v\n", err)
		os.Exit(code)
	}
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:      "marginspect",
		Usage:     "analyze whitespace margins in PDF documents and plan crop/pad adjustments",
		Version:   version.Version,
		ArgsUsage: "PDF_PATH",
		Flags: []cli.Flag{
			&cli.IntSliceFlag{
				Name:  "exceptions",
				Usage: "0-based page indices to exclude from statistics",
			},
			&cli.BoolFlag{
				Name:  "inner-outer",
				Usage: "report spine-relative inner/outer margins instead of left/right",
			},
			&cli.BoolFlag{
				Name:  "plot",
				Usage: "render a distribution chart per margin side",
			},
			&cli.StringFlag{
				Name:  "plot-out",
				Usage: "chart output path",
				Value: "margins.png",
			},
			&cli.FloatSliceFlag{
				Name:  "adjust-to-desired-margins",
				Usage: "four target percentages: LEFT,RIGHT,TOP,BOTTOM (or INNER,OUTER,TOP,BOTTOM with --inner-outer)",
			},
			&cli.StringFlag{
				Name:  "plan-out",
				Usage: "write the adjustment plan as YAML to this path",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to yaml config file",
			},
			&cli.FloatFlag{
				Name:  "sigma",
				Usage: "standard deviations from the mean before a margin counts as bad",
			},
			&cli.FloatFlag{
				Name:  "min-margin",
				Usage: "absolute margin floor in percent; below it a page is always bad",
			},
			&cli.IntFlag{
				Name:  "dpi",
				Usage: "resolution pages are rasterized at for content detection",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable verbose logging",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug mode with trace logging",
			},
		},
		Action: run,
	}
}

// usageError prints the usage help before exiting with the invalid-argument
// code.
func usageError(cmd *cli.Command, format string, args ...interface{}) cli.ExitCoder {
	_ = cli.ShowAppHelp(cmd)
	return cli.Exit(fmt.Sprintf(format, args...), exitUsageError)
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return usageError(cmd, "expected exactly one PDF path argument")
	}
	path := cmd.Args().First()

	log := logger.New(logger.WithPrefix("[marginspect] "))
	log.SetVerbose(cmd.Bool("verbose"))
	if cmd.Bool("debug") {
		log.SetVerbose(true)
		log.SetLevel(logger.LevelTrace)
	}
	log.Debug("%s", version.GetVersionInfo())
	log.Trace("%s", version.GetDetailedVersionInfo())

	cfg := config.Default()
	if cmd.IsSet("config") {
		var err error
		cfg, err = config.Load(cmd.String("config"))
		if err != nil {
			return usageError(cmd, "error loading config: %v", err)
		}
	}
	if cmd.IsSet("sigma") {
		cfg.SigmaThreshold = cmd.Float("sigma")
	}
	if cmd.IsSet("min-margin") {
		cfg.MinMarginPct = cmd.Float("min-margin")
	}
	if cmd.IsSet("dpi") {
		cfg.RenderDPI = cmd.Int("dpi")
	}
	if err := cfg.Validate(); err != nil {
		return usageError(cmd, "%v", err)
	}

	conv := models.LeftRight
	if cmd.Bool("inner-outer") {
		conv = models.InnerOuter
	}

	exceptions := make(map[int]struct{})
	for _, idx := range cfg.DefaultExceptions {
		exceptions[idx] = struct{}{}
	}
	for _, idx := range cmd.IntSlice("exceptions") {
		if idx < 0 {
			return usageError(cmd, "exception page index must be non-negative, got %d", idx)
		}
		exceptions[idx] = struct{}{}
	}

	var desired *adjust.Desired
	if cmd.IsSet("adjust-to-desired-margins") {
		vals := cmd.FloatSlice("adjust-to-desired-margins")
		if len(vals) != 4 {
			return usageError(cmd, "--adjust-to-desired-margins takes exactly four values")
		}
		d := adjust.Desired{First: vals[0], Second: vals[1], Top: vals[2], Bottom: vals[3]}
		if err := d.Validate(); err != nil {
			return usageError(cmd, "%v", err)
		}
		desired = &d
	}
	if cmd.IsSet("plan-out") && desired == nil {
		return usageError(cmd, "--plan-out requires --adjust-to-desired-margins")
	}

	info, err := os.Stat(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("cannot read %s: %v", path, err), exitFileError)
	}

	paths := []string{path}
	if info.IsDir() {
		paths, err = scanner.New(log).FindPDFs(ctx, path)
		if err != nil {
			return cli.Exit(err.Error(), exitFileError)
		}
		log.Info("Found %d PDFs in %s", len(paths), path)
	}

	opts := runOptions{
		convention: conv,
		exceptions: exceptions,
		outlier:    stats.Options{SigmaThreshold: cfg.SigmaThreshold, MinMarginPct: cfg.MinMarginPct},
		desired:    desired,
		plot:       cmd.Bool("plot"),
		plotOut:    cmd.String("plot-out"),
		planOut:    cmd.String("plan-out"),
	}

	for i, p := range paths {
		if len(paths) > 1 {
			if i > 0 {
				fmt.Println()
			}
			fmt.Printf("== %s ==\n", p)
			// Chart and plan paths are per-document in directory mode.
			opts.plotOut = numbered(cmd.String("plot-out"), i)
			opts.planOut = numbered(cmd.String("plan-out"), i)
		}

		src, err := pdf.NewExtractor(p, cfg.RenderDPI, cfg.InkThreshold, log)
		if err != nil {
			return cli.Exit(err.Error(), exitFileError)
		}

		err = analyze(ctx, src, opts, log)
		src.Close()
		if err != nil {
			return cli.Exit(err.Error(), exitFileError)
		}
	}

	return nil
}

type runOptions struct {
	convention models.Convention
	exceptions map[int]struct{}
	outlier    stats.Options
	desired    *adjust.Desired
	plot       bool
	plotOut    string
	planOut    string
}

func analyze(ctx context.Context, src pdf.MarginSource, opts runOptions, log *logger.Logger) error {
	log.Debug("Document has %d pages", src.PageCount())

	margins, blank, err := src.ExtractAll(ctx)
	if err != nil {
		return err
	}

	aggregate, bad := stats.Aggregate(margins, opts.exceptions, opts.convention, opts.outlier)
	if err := report.Write(os.Stdout, aggregate, bad, blank); err != nil {
		return err
	}

	if opts.plot {
		sample := stats.Filter(margins, opts.exceptions)
		if len(sample) == 0 {
			log.Warn("No pages left to plot after exceptions")
		} else {
			if err := report.SavePlot(opts.plotOut, sample, opts.convention); err != nil {
				return err
			}
			log.Info("Chart written to %s", opts.plotOut)
		}
	}

	if opts.desired == nil {
		return nil
	}

	pessimistic, cut, ok, err := adjust.EstimateDocumentCut(margins, opts.exceptions, *opts.desired, opts.convention)
	if err != nil {
		return err
	}
	if ok {
		if err := report.WriteEstimate(os.Stdout, opts.convention, pessimistic, cut); err != nil {
			return err
		}
	}

	plan, err := adjust.PlanDocument(margins, *opts.desired, opts.convention, src.PageDims)
	if err != nil {
		return err
	}
	if err := report.WritePlan(os.Stdout, plan); err != nil {
		return err
	}

	if opts.planOut != "" {
		if err := report.ExportPlan(opts.planOut, plan); err != nil {
			return err
		}
		log.Info("Adjustment plan written to %s", opts.planOut)
	}

	return nil
}

// numbered derives a per-document output path by inserting an index before
// the extension.
func numbered(path string, i int) string {
	if path == "" {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(path, ext), i, ext)
}
