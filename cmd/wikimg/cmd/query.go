package cmd

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/wikimg/internal/config"
	"github.com/Aman-CERP/wikimg/internal/index"
	"github.com/Aman-CERP/wikimg/internal/output"
	"github.com/Aman-CERP/wikimg/internal/stem"
)

// queryResult is the --json shape of a query.
type queryResult struct {
	Keywords []string `json:"keywords"`
	Matches  []string `json:"matches"`
}

func newQueryCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "query [KEYWORD...]",
		Short: "Print the image URLs matching keywords",
		Long: `Query stems every keyword, looks up the categories whose label contains a
word with the same stem, and prints the image URLs of those categories, one
per line and sorted. Nothing is printed when no keyword matches or no keyword
is given.`,
		Example: `  wikimg query rock band
  wikimg query --json azhar`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			matches, err := runQuery(cmd.Context(), cfg, args)
			if err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			if jsonOutput {
				return out.JSON(queryResult{Keywords: args, Matches: matches})
			}
			out.Matches(args, matches)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output keywords and matches as JSON")

	return cmd
}

func runQuery(ctx context.Context, cfg *config.Config, keywords []string) (matches []string, err error) {
	if config.NormalizeBackend(cfg.Storage.Backend) == config.BackendMemory {
		slog.Warn("query_memory_backend",
			slog.String("reason", "the memory backend starts empty in every process"))
	}

	stores, err := openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := stores.Close(); cerr != nil {
			matches, err = nil, stderrors.Join(err, cerr)
		}
	}()

	resolver, err := index.NewResolver(index.ResolverDependencies{
		Terms:   stores.terms,
		Images:  stores.images,
		Stemmer: stem.New(cfg.Index.StemCacheSize),
		Workers: cfg.Query.Workers,
	})
	if err != nil {
		return nil, err
	}

	return resolver.Query(ctx, keywords)
}
