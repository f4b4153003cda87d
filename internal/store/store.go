// Package store provides the multi-valued key-value stores behind the wikimg index.
// A store maps a key to a set of string values and is bound to one namespace
// (for example "images" or "terms") for its whole lifetime.
package store

import (
	"context"
	"sort"

	"github.com/Aman-CERP/wikimg/internal/errors"
)

// Store is a multi-valued key-value mapping.
//
// Put adds value to the set held under key and is idempotent. Get returns the
// values sorted lexically, or an error matching errors.ErrNotFound when the key
// is absent. Delete removes the key and its whole set. Close flushes buffered
// state and is safe to call more than once.
type Store interface {
	// Name returns the namespace the store is bound to.
	Name() string

	// Contains reports whether key is present. Failures are reported as false.
	Contains(ctx context.Context, key string) bool

	Get(ctx context.Context, key string) ([]string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Lookup gets key from s, turning NotFound into found == false.
// Every other error is returned as is.
func Lookup(ctx context.Context, s Store, key string) (values []string, found bool, err error) {
	values, err = s.Get(ctx, key)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return values, true, nil
}

// sortedValues returns the members of set in lexical order.
func sortedValues(set map[string]struct{}) []string {
	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
