package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/wikimg/internal/errors"
	"github.com/Aman-CERP/wikimg/internal/store"
)

// azharIndex loads the keyword -> category and category -> URL fixtures directly.
func azharIndex(t *testing.T) (images, terms *store.MemoryStore, expected map[string][]string) {
	t.Helper()
	ctx := context.Background()

	labels := map[string][]string{
		"azhar": {
			"http://dbpedia.org/resource/Azhar_Levi_Sianturi",
			"http://dbpedia.org/resource/Azhar_College",
			"http://dbpedia.org/resource/Azhar_al-Dulaimi",
			"http://dbpedia.org/resource/Azhar_Usman",
		},
		"azharuddin": {
			"http://dbpedia.org/resource/Azhikodan_Raghavan",
		},
	}
	urls := map[string]string{
		"http://dbpedia.org/resource/Azhar_Levi_Sianturi": "http://en.wikipedia.org/wiki/Special:FilePath/Azhar_-_Live_in_Holland_2004.jpg",
		"http://dbpedia.org/resource/Azhar_College":       "http://commons.wikimedia.org/wiki/Special:FilePath/The_Crest_of_Azhar_College_Akurana_Kandy.png",
		"http://dbpedia.org/resource/Azhar_al-Dulaimi":    "http://commons.wikimedia.org/wiki/Special:FilePath/Azhar_Dulaymi_\\u2013_Killed_19_May.jpg",
		"http://dbpedia.org/resource/Azhar_Usman":         "http://en.wikipedia.org/wiki/Special:FilePath/AzharUsman.jpg",
		"http://dbpedia.org/resource/Azhikodan_Raghavan":  "http://commons.wikimedia.org/wiki/Special:FilePath/Com_azhikodan.jpg",
	}

	terms = store.NewMemoryStore("terms")
	images = store.NewMemoryStore("images")
	expected = make(map[string][]string)
	for word, categories := range labels {
		for _, c := range categories {
			require.NoError(t, terms.Put(ctx, word, c))
			expected[word] = append(expected[word], urls[c])
		}
	}
	for c, u := range urls {
		require.NoError(t, images.Put(ctx, c, u))
	}
	return images, terms, expected
}

func TestResolver_Query_OneKeyword(t *testing.T) {
	images, terms, expected := azharIndex(t)
	r := newResolver(t, images, terms, identityStemmer{}, 2)

	matches, err := r.Query(context.Background(), []string{"azhar"})

	require.NoError(t, err)
	assert.ElementsMatch(t, expected["azhar"], matches)
	assert.IsIncreasing(t, matches)
}

func TestResolver_Query_TwoKeywords(t *testing.T) {
	images, terms, expected := azharIndex(t)

	for _, workers := range []int{1, 3, 16} {
		r := newResolver(t, images, terms, identityStemmer{}, workers)

		matches, err := r.Query(context.Background(), []string{"azhar", "azharuddin"})

		require.NoError(t, err)
		assert.ElementsMatch(t, append(expected["azhar"], expected["azharuddin"]...), matches)
	}
}

func TestResolver_Query_NoMatch(t *testing.T) {
	images, terms, _ := azharIndex(t)
	r := newResolver(t, images, terms, identityStemmer{}, 2)

	matches, err := r.Query(context.Background(), []string{"noop"})

	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestResolver_Query_DeduplicatesAcrossKeywords(t *testing.T) {
	images, terms, expected := azharIndex(t)
	r := newResolver(t, images, terms, identityStemmer{}, 2)

	matches, err := r.Query(context.Background(), []string{"azhar", "azhar", " ", ""})

	require.NoError(t, err)
	assert.Len(t, matches, len(expected["azhar"]))
}

func TestResolver_Query_NoKeywords(t *testing.T) {
	images, terms, _ := azharIndex(t)
	r := newResolver(t, images, terms, identityStemmer{}, 2)

	matches, err := r.Query(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestResolver_Query_TermsFailureAborts(t *testing.T) {
	images, _, _ := azharIndex(t)
	r := newResolver(t, images, &failingStore{}, identityStemmer{}, 2)

	_, err := r.Query(context.Background(), []string{"azhar"})

	require.Error(t, err)
	assert.True(t, errors.IsBackendUnavailable(err))
	assert.Equal(t, errors.ErrCodeQueryFailed, errors.GetCode(err))
}

func TestResolver_Query_ImagesFailureAborts(t *testing.T) {
	_, terms, _ := azharIndex(t)
	r := newResolver(t, &failingStore{}, terms, identityStemmer{}, 2)

	matches, err := r.Query(context.Background(), []string{"azhar"})

	require.Error(t, err)
	assert.Nil(t, matches)
	assert.True(t, errors.IsBackendUnavailable(err))
}

func TestNewResolver_Defaults(t *testing.T) {
	r, err := NewResolver(ResolverDependencies{
		Terms:   store.NewMemoryStore("terms"),
		Images:  store.NewMemoryStore("images"),
		Stemmer: identityStemmer{},
	})

	require.NoError(t, err)
	assert.Equal(t, DefaultWorkers, r.workers)

	_, err = NewResolver(ResolverDependencies{Images: store.NewMemoryStore("images"), Stemmer: identityStemmer{}})
	assert.Error(t, err)
}
