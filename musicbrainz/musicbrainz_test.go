package musicbrainz

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchReleaseGroup(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/release-group", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("fmt"))
		assert.Equal(t, `artist:"Radiohead" AND releasegroup:"In Rainbows"`, r.URL.Query().Get("query"))
		json.NewEncoder(w).Encode(map[string]any{
			"release-groups": []map[string]any{{"id": "6e335887-60ba-38f0-95af-fae9774336ab"}},
		})
	}))
	defer ts.Close()

	c := NewClient()
	c.BaseURL = ts.URL
	c.HTTPClient = ts.Client()
	id, err := c.SearchReleaseGroup("Radiohead", "In Rainbows")
	require.NoError(t, err)
	assert.Equal(t, "6e335887-60ba-38f0-95af-fae9774336ab", id)
}

func TestSearchReleaseGroup_Empty(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"release-groups": []any{}})
	}))
	defer ts.Close()

	c := NewClient()
	c.BaseURL = ts.URL
	c.HTTPClient = ts.Client()
	_, err := c.SearchReleaseGroup("Radiohead", "In Rainbows")
	assert.True(t, errors.Is(err, ErrNoResults))
}

func TestReleaseCover(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/release/rel1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"images": []map[string]any{{"image": "https://archive.example.com/front.jpg"}},
		})
	}))
	defer ts.Close()

	c := NewClient()
	c.CoverArtURL = ts.URL
	c.HTTPClient = ts.Client()
	cover, err := c.ReleaseCover("rel1")
	require.NoError(t, err)
	assert.Equal(t, "https://archive.example.com/front.jpg", cover)
}

func TestReleaseGroupCover_NotFound(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewClient()
	c.CoverArtURL = ts.URL
	c.HTTPClient = ts.Client()
	_, err := c.ReleaseGroupCover("group1")
	require.Error(t, err)
}

func TestLinks(t *testing.T) {
	t.Parallel()
	c := NewClient()
	assert.Equal(t, "https://musicbrainz.org/track/t1", c.TrackLink("t1"))
	assert.Equal(t, "https://musicbrainz.org/release/r1", c.ReleaseLink("r1"))
	assert.Equal(t, "https://musicbrainz.org/release-group/g1", c.ReleaseGroupLink("g1"))
}
