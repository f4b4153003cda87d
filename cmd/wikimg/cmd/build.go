package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/wikimg/internal/config"
	"github.com/Aman-CERP/wikimg/internal/index"
	"github.com/Aman-CERP/wikimg/internal/output"
	"github.com/Aman-CERP/wikimg/internal/preflight"
	"github.com/Aman-CERP/wikimg/internal/profiling"
	"github.com/Aman-CERP/wikimg/internal/stem"
	"github.com/Aman-CERP/wikimg/internal/triples"
)

func newBuildCmd() *cobra.Command {
	var (
		filter     string
		imagesPath string
		labelsPath string
		skipCheck  bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the index from the images and labels dumps",
		Long: `Build reads the images dump into the images store (category -> image URL)
and the labels dump into the terms store (word stem -> category).

Use --filter to index only the images of categories whose name starts with
a prefix, which is handy for small test builds. Labels are always indexed in
full. Entries are only ever added: building twice over the same store is
harmless, and an interrupted build leaves a partial index behind.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("filter") {
				cfg.Input.Filter = filter
			}
			if cmd.Flags().Changed("images") {
				cfg.Input.Images = imagesPath
			}
			if cmd.Flags().Changed("labels") {
				cfg.Input.Labels = labelsPath
			}

			if !skipCheck {
				if err := runPreflight(ctx, cmd, cfg); err != nil {
					return err
				}
			}

			return runBuild(ctx, cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Only index images of categories starting with this prefix")
	cmd.Flags().StringVar(&imagesPath, "images", "", "Images dump (default data/images_en.nt)")
	cmd.Flags().StringVar(&labelsPath, "labels", "", "Labels dump (default data/labels_en.nt)")
	cmd.Flags().BoolVar(&skipCheck, "skip-check", false, "Skip pre-build checks of inputs and index directory")

	return cmd
}

// runPreflight checks the inputs and, for the disk backend, the index directory.
// Results are printed only when something needs attention.
func runPreflight(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	target := preflight.Target{Inputs: []string{cfg.Input.Images, cfg.Input.Labels}}
	if config.NormalizeBackend(cfg.Storage.Backend) == config.BackendDisk {
		target.DataDir = cfg.Storage.DataDir
	}

	checker := preflight.New(
		preflight.WithOutput(cmd.ErrOrStderr()),
		preflight.WithVerbose(debugMode),
	)
	results := checker.RunAll(ctx, target)
	if checker.SummaryStatus(results) != "ready" {
		checker.PrintResults(results)
	}
	return checker.Err(results)
}

func runBuild(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (err error) {
	start := time.Now()
	out := output.New(cmd.OutOrStdout())
	progress := output.New(cmd.ErrOrStderr())

	stores, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stores.Close(); cerr != nil {
			err = stderrors.Join(err, cerr)
		}
	}()

	builder, err := index.NewBuilder(index.BuilderDependencies{
		Images:  stores.images,
		Terms:   stores.terms,
		Stemmer: stem.New(cfg.Index.StemCacheSize),
		OnProgress: func(phase string, s index.Stats) {
			progress.Counter(phase, s.Pairs)
		},
	})
	if err != nil {
		return err
	}

	out.Statusf("📚", "Indexing images from %s", cfg.Input.Images)
	imageStats, err := indexFile(cfg.Input.Images, func(f *os.File) index.Source {
		return triples.Images(f, cfg.Input.Filter)
	}, func(src index.Source) (index.Stats, error) {
		return builder.IndexImages(ctx, src)
	})
	progress.CounterDone()
	if err != nil {
		return fmt.Errorf("failed to index images: %w", err)
	}
	reportPhase(out, "images", imageStats)

	out.Statusf("🏷️ ", "Indexing labels from %s", cfg.Input.Labels)
	termStats, err := indexFile(cfg.Input.Labels, func(f *os.File) index.Source {
		return triples.Labels(f, "")
	}, func(src index.Source) (index.Stats, error) {
		return builder.IndexTerms(ctx, src)
	})
	progress.CounterDone()
	if err != nil {
		return fmt.Errorf("failed to index labels: %w", err)
	}
	reportPhase(out, "labels", termStats)

	elapsed := time.Since(start).Round(time.Millisecond)
	out.Successf("Index built in %s (%s backend, heap %s)",
		elapsed, cfg.Storage.Backend, profiling.FormatBytes(profiling.HeapInUse()))

	slog.Info("build_completed",
		slog.String("backend", cfg.Storage.Backend),
		slog.Int("images", imageStats.Puts),
		slog.Int("terms", termStats.Puts),
		slog.Duration("duration", elapsed))

	return nil
}

// indexFile opens path, wraps it in a parser and runs one builder phase over it.
func indexFile(path string, parse func(*os.File) index.Source, phase func(index.Source) (index.Stats, error)) (index.Stats, error) {
	f, err := triples.Open(path)
	if err != nil {
		return index.Stats{}, err
	}
	// The parser closes f at end of stream; this covers early aborts.
	defer func() { _ = f.Close() }()

	return phase(parse(f))
}

func reportPhase(out *output.Writer, name string, s index.Stats) {
	out.Statusf("", "%s: %d pairs, %d entries written in %s",
		name, s.Pairs, s.Puts, s.Duration.Round(time.Millisecond))
	if s.Skipped > 0 {
		out.Warningf("%s: %d malformed lines skipped", name, s.Skipped)
	}
}
