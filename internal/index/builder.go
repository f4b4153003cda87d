// Package index builds and queries the two-level image index.
//
// The images store maps a category to its image URLs. The terms store maps the
// stem of every label word to the categories carrying that word. A query walks
// keyword -> stem -> categories -> URLs.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Aman-CERP/wikimg/internal/errors"
	"github.com/Aman-CERP/wikimg/internal/stem"
	"github.com/Aman-CERP/wikimg/internal/store"
	"github.com/Aman-CERP/wikimg/internal/triples"
)

// DefaultProgressEvery is the number of pairs between progress callbacks.
const DefaultProgressEvery = 100_000

// Source yields (subject, object) pairs. *triples.Parser satisfies it.
type Source interface {
	Next() bool
	Pair() triples.Pair
	Err() error
}

// skipCounter is implemented by sources that count malformed input.
type skipCounter interface {
	Skipped() int
}

// Stats summarizes one indexing phase.
type Stats struct {
	// Pairs is the number of pairs read from the source.
	Pairs int
	// Puts is the number of store writes issued.
	Puts int
	// Skipped is the number of malformed input lines.
	Skipped int
	// Duration is the wall time of the phase.
	Duration time.Duration
}

// BuilderDependencies contains the injected dependencies for Builder.
type BuilderDependencies struct {
	// Images receives category -> image URL entries (required).
	Images store.Store
	// Terms receives stem -> category entries (required).
	Terms store.Store
	// Stemmer normalizes label words (required).
	Stemmer stem.Stemmer

	// OnProgress, if set, is called every ProgressEvery pairs with the running stats.
	OnProgress    func(phase string, s Stats)
	ProgressEvery int
}

// Builder populates the images and terms stores from triple sources.
// It is not safe for concurrent use.
type Builder struct {
	images        store.Store
	terms         store.Store
	stemmer       stem.Stemmer
	onProgress    func(string, Stats)
	progressEvery int
}

// NewBuilder creates a Builder with injected dependencies.
func NewBuilder(deps BuilderDependencies) (*Builder, error) {
	if deps.Images == nil {
		return nil, fmt.Errorf("images store is required")
	}
	if deps.Terms == nil {
		return nil, fmt.Errorf("terms store is required")
	}
	if deps.Stemmer == nil {
		return nil, fmt.Errorf("stemmer is required")
	}
	if deps.ProgressEvery <= 0 {
		deps.ProgressEvery = DefaultProgressEvery
	}

	return &Builder{
		images:        deps.Images,
		terms:         deps.Terms,
		stemmer:       deps.Stemmer,
		onProgress:    deps.OnProgress,
		progressEvery: deps.ProgressEvery,
	}, nil
}

// IndexImages puts every (category, image URL) pair of src into the images store.
// On error the phase stops; entries already written stay.
func (b *Builder) IndexImages(ctx context.Context, src Source) (Stats, error) {
	return b.run(ctx, "images", src, func(pair triples.Pair) (int, error) {
		if err := b.images.Put(ctx, pair.Subject, pair.Object); err != nil {
			return 0, err
		}
		return 1, nil
	})
}

// IndexTerms splits every label of src into words and puts (stem, category)
// into the terms store. Words that stem to "" are ignored.
func (b *Builder) IndexTerms(ctx context.Context, src Source) (Stats, error) {
	return b.run(ctx, "terms", src, func(pair triples.Pair) (int, error) {
		puts := 0
		for _, word := range strings.Fields(pair.Object) {
			key := b.stemmer.Stem(word)
			if key == "" {
				continue
			}
			if err := b.terms.Put(ctx, key, pair.Subject); err != nil {
				return puts, err
			}
			puts++
		}
		return puts, nil
	})
}

func (b *Builder) run(ctx context.Context, phase string, src Source, put func(triples.Pair) (int, error)) (Stats, error) {
	start := time.Now()
	var stats Stats

	slog.Info("index_"+phase+"_started")

	finish := func(err error) (Stats, error) {
		if sc, ok := src.(skipCounter); ok {
			stats.Skipped = sc.Skipped()
		}
		stats.Duration = time.Since(start)

		attrs := []any{
			slog.Int("pairs", stats.Pairs),
			slog.Int("puts", stats.Puts),
			slog.Int("skipped", stats.Skipped),
			slog.Duration("duration", stats.Duration),
		}
		if err != nil {
			slog.Error("index_"+phase+"_failed", append(attrs, slog.String("error", err.Error()))...)
			return stats, err
		}
		if stats.Skipped > 0 {
			slog.Warn("triples_malformed_lines", slog.String("phase", phase), slog.Int("count", stats.Skipped))
		}
		slog.Info("index_"+phase+"_completed", attrs...)
		return stats, nil
	}

	for src.Next() {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}

		stats.Pairs++
		n, err := put(src.Pair())
		stats.Puts += n
		if err != nil {
			return finish(errors.New(errors.ErrCodeIndexFailed,
				fmt.Sprintf("indexing %s failed after %d pairs", phase, stats.Pairs-1), err))
		}

		if b.onProgress != nil && stats.Pairs%b.progressEvery == 0 {
			b.onProgress(phase, stats)
		}
	}
	if err := src.Err(); err != nil {
		return finish(err)
	}

	return finish(nil)
}
