package index

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/wikimg/internal/errors"
	"github.com/Aman-CERP/wikimg/internal/stem"
	"github.com/Aman-CERP/wikimg/internal/store"
)

// DefaultWorkers is the default number of concurrent image lookups.
const DefaultWorkers = 4

// ResolverDependencies contains the injected dependencies for Resolver.
type ResolverDependencies struct {
	// Terms maps stems to categories (required).
	Terms store.Store
	// Images maps categories to image URLs (required).
	Images store.Store
	// Stemmer must be the one the index was built with (required).
	Stemmer stem.Stemmer
	// Workers bounds concurrent image lookups; 1 resolves sequentially.
	Workers int
}

// Resolver answers keyword queries against a built index. It only reads the
// stores and is safe for concurrent use if they are.
type Resolver struct {
	terms   store.Store
	images  store.Store
	stemmer stem.Stemmer
	workers int
}

// NewResolver creates a Resolver with injected dependencies.
func NewResolver(deps ResolverDependencies) (*Resolver, error) {
	if deps.Terms == nil {
		return nil, fmt.Errorf("terms store is required")
	}
	if deps.Images == nil {
		return nil, fmt.Errorf("images store is required")
	}
	if deps.Stemmer == nil {
		return nil, fmt.Errorf("stemmer is required")
	}
	if deps.Workers <= 0 {
		deps.Workers = DefaultWorkers
	}

	return &Resolver{
		terms:   deps.Terms,
		images:  deps.Images,
		stemmer: deps.Stemmer,
		workers: deps.Workers,
	}, nil
}

// Query returns the image URLs of every category whose label contains a word
// with the same stem as one of keywords. The result is deduplicated and sorted,
// and empty when nothing matched. Unmatched keywords are not errors; any store
// failure other than NotFound aborts the query.
func (r *Resolver) Query(ctx context.Context, keywords []string) ([]string, error) {
	start := time.Now()

	categories, err := r.lookupCategories(ctx, keywords)
	if err != nil {
		return nil, err
	}

	urls, err := r.lookupImages(ctx, categories)
	if err != nil {
		return nil, err
	}

	slog.Debug("query_completed",
		slog.Any("keywords", keywords),
		slog.Int("categories", len(categories)),
		slog.Int("matches", len(urls)),
		slog.Duration("duration", time.Since(start)))

	return urls, nil
}

// lookupCategories resolves keywords to the sorted set of matching categories.
func (r *Resolver) lookupCategories(ctx context.Context, keywords []string) ([]string, error) {
	seen := make(map[string]struct{})

	for _, keyword := range keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		key := r.stemmer.Stem(keyword)
		if key == "" {
			continue
		}

		found, ok, err := store.Lookup(ctx, r.terms, key)
		if err != nil {
			return nil, queryFailed("terms lookup", keyword, err)
		}
		if !ok {
			slog.Debug("query_keyword_unmatched", slog.String("keyword", keyword), slog.String("stem", key))
			continue
		}
		for _, c := range found {
			seen[c] = struct{}{}
		}
	}

	categories := make([]string, 0, len(seen))
	for c := range seen {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories, nil
}

// lookupImages looks up every category in the images store on a bounded worker group.
func (r *Resolver) lookupImages(ctx context.Context, categories []string) ([]string, error) {
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{})
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, category := range categories {
		g.Go(func() error {
			urls, ok, err := store.Lookup(gctx, r.images, category)
			if err != nil {
				return queryFailed("images lookup", category, err)
			}
			if !ok {
				return nil
			}

			mu.Lock()
			for _, u := range urls {
				seen[u] = struct{}{}
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(seen))
	for u := range seen {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls, nil
}

func queryFailed(op, key string, err error) error {
	return errors.New(errors.ErrCodeQueryFailed, fmt.Sprintf("%s failed for %q", op, key), err)
}
