package cmd

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/wikimg/internal/config"
	"github.com/Aman-CERP/wikimg/internal/errors"
	"github.com/Aman-CERP/wikimg/internal/store"
)

// loadConfig loads the layered configuration for the working directory and
// applies the persistent flags that were set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.InternalError("failed to get working directory", err)
	}

	cfg, err := config.Load(wd)
	if err != nil {
		return nil, errors.ConfigError("failed to load configuration", err).
			WithSuggestion("Check .wikimg.yaml and WIKIMG_* environment variables")
	}

	flags := cmd.Flags()
	if flags.Changed("kvs") {
		if _, err := store.ParseBackend(kvsFlag); err != nil {
			return nil, err
		}
		cfg.Storage.Backend = config.NormalizeBackend(kvsFlag)
	}
	if flags.Changed("data-dir") {
		cfg.Storage.DataDir = dataDirFlag
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigError("invalid configuration", err)
	}
	return cfg, nil
}

// indexStores is the pair of namespaces that make up an index.
type indexStores struct {
	images store.Store
	terms  store.Store
}

// openStores opens the images and terms namespaces on the configured backend.
func openStores(ctx context.Context, cfg *config.Config) (*indexStores, error) {
	factory, err := store.NewFactory(store.Options{
		Backend:   store.Backend(cfg.Storage.Backend),
		DataDir:   cfg.Storage.DataDir,
		BatchSize: cfg.Storage.BatchSize,
		DynamoDB: store.DynamoDBOptions{
			Region:   cfg.DynamoDB.Region,
			Endpoint: cfg.DynamoDB.Endpoint,
		},
		TablePrefix:  cfg.DynamoDB.TablePrefix,
		CreateTables: cfg.DynamoDB.CreateTables,
	})
	if err != nil {
		return nil, err
	}

	images, err := factory.Open(ctx, cfg.Storage.ImagesName)
	if err != nil {
		return nil, err
	}
	terms, err := factory.Open(ctx, cfg.Storage.TermsName)
	if err != nil {
		_ = images.Close()
		return nil, err
	}

	slog.Debug("stores_opened",
		slog.String("backend", string(factory.Backend())),
		slog.String("images", images.Name()),
		slog.String("terms", terms.Name()))

	return &indexStores{images: images, terms: terms}, nil
}

// Close closes both stores and reports every failure.
func (s *indexStores) Close() error {
	return stderrors.Join(s.images.Close(), s.terms.Close())
}
