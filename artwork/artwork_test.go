package artwork

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marqueehq/marquee/jellyfin"
	"github.com/marqueehq/marquee/musicbrainz"
	"github.com/marqueehq/marquee/shared"
	"github.com/marqueehq/marquee/tmdb"
)

type fakeLibrary struct {
	items map[string]*jellyfin.Item
}

func (f *fakeLibrary) Item(id string) (*jellyfin.Item, error) {
	if item, ok := f.items[id]; ok {
		return item, nil
	}
	return nil, &jellyfin.TransportError{Op: "item"}
}

func (f *fakeLibrary) ImageURL(itemID, tag string) string {
	return "https://jf.example.com/Items/" + itemID + "/Images/Primary?tag=" + tag
}

func intp(v int) *int {
	return &v
}

func episodeItem() *jellyfin.Item {
	return &jellyfin.Item{
		Type:              shared.MEDIA_TYPE_EPISODE,
		Name:              "Ozymandias",
		SeriesName:        "Breaking Bad",
		SeriesID:          "series9",
		ParentIndexNumber: intp(5),
		IndexNumber:       intp(14),
	}
}

func tmdbClient(ts *httptest.Server) *tmdb.Client {
	c := tmdb.NewClient("key123")
	c.BaseURL = ts.URL
	c.HTTPClient = ts.Client()
	return c
}

func musicClient(ts *httptest.Server) *musicbrainz.Client {
	c := musicbrainz.NewClient()
	c.BaseURL = ts.URL
	c.CoverArtURL = ts.URL
	c.HTTPClient = ts.Client()
	return c
}

func posters(paths ...string) map[string]any {
	var out []map[string]any
	for _, p := range paths {
		out = append(out, map[string]any{"file_path": p, "iso_639_1": "en"})
	}
	return map[string]any{"posters": out}
}

func TestResolveEpisode_SeasonPosterPreferred(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tv/1396/season/5/images":
			json.NewEncoder(w).Encode(posters("/season5.jpg"))
		case "/tv/1396/images":
			json.NewEncoder(w).Encode(posters("/series.jpg"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	r := &Resolver{TMDB: tmdbClient(ts), SeasonOverSeries: true}
	lib := &fakeLibrary{items: map[string]*jellyfin.Item{
		"series9": {ID: "series9", ProviderIDs: map[string]string{shared.PROVIDER_TMDB: "1396"}},
	}}
	ref := r.Resolve(episodeItem(), lib)
	assert.Equal(t, "https://image.tmdb.org/t/p/w185/season5.jpg", ref.ImageURL)
	assert.Equal(t, "https://www.themoviedb.org/tv/1396", ref.TitleLink)
	assert.Equal(t, "https://www.themoviedb.org/tv/1396/season/5/episode/14", ref.SubtitleLink)
	assert.Equal(t, "https://www.themoviedb.org/tv/1396/season/5", ref.ImageLink)
}

func TestResolveEpisode_SeasonMissFallsBackToSeries(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tv/1396/season/5/images":
			w.WriteHeader(http.StatusNotFound)
		case "/tv/1396/images":
			json.NewEncoder(w).Encode(posters("/series.jpg"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	r := &Resolver{TMDB: tmdbClient(ts), SeasonOverSeries: true}
	lib := &fakeLibrary{items: map[string]*jellyfin.Item{
		"series9": {ID: "series9", ProviderIDs: map[string]string{shared.PROVIDER_THE_MOVIE_DB: "1396"}},
	}}
	ref := r.Resolve(episodeItem(), lib)
	assert.Equal(t, "https://image.tmdb.org/t/p/w185/series.jpg", ref.ImageURL)
}

func TestResolveEpisode_AllPosterLookupsFailKeepsLinks(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	r := &Resolver{TMDB: tmdbClient(ts), SeasonOverSeries: true}
	lib := &fakeLibrary{items: map[string]*jellyfin.Item{
		"series9": {ID: "series9", ProviderIDs: map[string]string{shared.PROVIDER_TMDB: "1396"}},
	}}
	ref := r.Resolve(episodeItem(), lib)
	assert.Equal(t, shared.ASSET_FALLBACK, ref.ImageURL)
	assert.Equal(t, "https://www.themoviedb.org/tv/1396", ref.TitleLink)
}

func TestResolveEpisode_NoAPIKeyShortCircuits(t *testing.T) {
	r := &Resolver{}
	ref := r.Resolve(episodeItem(), &fakeLibrary{})
	assert.Equal(t, Fallback(), ref)
}

func TestResolveMovie_NoProviderIDAndSearchDisabled(t *testing.T) {
	var requests atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	r := &Resolver{TMDB: tmdbClient(ts), FindBestMatch: false}
	ref := r.Resolve(&jellyfin.Item{Type: shared.MEDIA_TYPE_MOVIE, Name: "Dune"}, &fakeLibrary{})
	assert.Equal(t, Fallback(), ref)
	assert.Equal(t, int64(0), requests.Load(), "no search may be attempted when find-best-match is off")
}

func TestResolveMovie_SearchWhenEnabled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/movie":
			json.NewEncoder(w).Encode(map[string]any{"results": []map[string]any{{"id": 438631}}})
		case "/movie/438631/images":
			json.NewEncoder(w).Encode(posters("/dune.jpg"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	r := &Resolver{TMDB: tmdbClient(ts), FindBestMatch: true}
	ref := r.Resolve(&jellyfin.Item{Type: shared.MEDIA_TYPE_MOVIE, Name: "Dune"}, &fakeLibrary{})
	assert.Equal(t, "https://image.tmdb.org/t/p/w185/dune.jpg", ref.ImageURL)
	assert.Equal(t, "https://www.themoviedb.org/movie/438631", ref.TitleLink)
}

func TestResolveTrack_ReleaseMissFallsBackToGroup(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/release/rel1":
			w.WriteHeader(http.StatusNotFound)
		case "/release-group/group1":
			json.NewEncoder(w).Encode(map[string]any{
				"images": []map[string]any{{"image": "https://archive.example.com/group.jpg"}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	r := &Resolver{Music: musicClient(ts), ReleaseOverGroup: true}
	ref := r.Resolve(&jellyfin.Item{
		Type:  shared.MEDIA_TYPE_AUDIO,
		Name:  "Nude",
		Album: "In Rainbows",
		ProviderIDs: map[string]string{
			shared.PROVIDER_MB_GROUP:   "group1",
			shared.PROVIDER_MB_RELEASE: "rel1",
		},
	}, &fakeLibrary{})
	assert.Equal(t, "https://archive.example.com/group.jpg", ref.ImageURL)
	assert.Equal(t, "https://musicbrainz.org/release-group/group1", ref.SubtitleLink)
	assert.Equal(t, "https://musicbrainz.org/release-group/group1", ref.ImageLink,
		"image link must point at the entity that supplied the cover")
}

func TestResolveTrack_ReleaseHitLinksRelease(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/release/rel1":
			json.NewEncoder(w).Encode(map[string]any{
				"images": []map[string]any{{"image": "https://archive.example.com/release.jpg"}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	r := &Resolver{Music: musicClient(ts), ReleaseOverGroup: true}
	ref := r.Resolve(&jellyfin.Item{
		Type:  shared.MEDIA_TYPE_AUDIO,
		Name:  "Nude",
		Album: "In Rainbows",
		ProviderIDs: map[string]string{
			shared.PROVIDER_MB_GROUP:   "group1",
			shared.PROVIDER_MB_RELEASE: "rel1",
		},
	}, &fakeLibrary{})
	assert.Equal(t, "https://archive.example.com/release.jpg", ref.ImageURL)
	assert.Equal(t, "https://musicbrainz.org/release/rel1", ref.ImageLink)
}

func TestResolveTrack_NoIDsAndNoSearchGivesFallback(t *testing.T) {
	r := &Resolver{Music: musicbrainz.NewClient(), FindBestMatch: false}
	ref := r.Resolve(&jellyfin.Item{Type: shared.MEDIA_TYPE_AUDIO, Name: "Nude"}, &fakeLibrary{})
	assert.Equal(t, Fallback(), ref)
}

func TestResolveChannel(t *testing.T) {
	item := &jellyfin.Item{
		ID:        "chan1",
		Type:      shared.MEDIA_TYPE_TV_CHANNEL,
		ImageTags: map[string]string{shared.PROVIDER_IMAGE_PRIMARY: "deadbeef"},
	}

	off := &Resolver{ChannelPosters: false}
	assert.Equal(t, Fallback(), off.Resolve(item, &fakeLibrary{}))

	on := &Resolver{ChannelPosters: true}
	ref := on.Resolve(item, &fakeLibrary{})
	assert.Equal(t, "https://jf.example.com/Items/chan1/Images/Primary?tag=deadbeef", ref.ImageURL)

	untagged := &jellyfin.Item{ID: "chan2", Type: shared.MEDIA_TYPE_TV_CHANNEL}
	assert.Equal(t, Fallback(), on.Resolve(untagged, &fakeLibrary{}))
}
