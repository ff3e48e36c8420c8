// Package artwork resolves a best-effort poster for the current media item.
// Every provider call in here degrades to the fallback asset on failure;
// nothing in this package may take the sync loop down.
package artwork

import (
	"log/slog"

	"github.com/marqueehq/marquee/config"
	"github.com/marqueehq/marquee/jellyfin"
	"github.com/marqueehq/marquee/musicbrainz"
	"github.com/marqueehq/marquee/shared"
	"github.com/marqueehq/marquee/tmdb"
)

// Reference is a resolved image plus optional click-through links for the
// presence fields it decorates.
type Reference struct {
	ImageURL     string
	ImageLink    string
	TitleLink    string
	SubtitleLink string
}

// Fallback is the sentinel shown when no provider returned a usable image.
func Fallback() Reference {
	return Reference{ImageURL: shared.ASSET_FALLBACK}
}

// Library is the slice of the media-server gateway the resolver needs:
// item-detail lookups for series provider ids and the server's own image
// endpoint for live TV art.
type Library interface {
	Item(id string) (*jellyfin.Item, error)
	ImageURL(itemID, tag string) string
}

type Resolver struct {
	TMDB  *tmdb.Client // nil disables movie/series artwork entirely
	Music *musicbrainz.Client

	Languages        []string
	SeasonOverSeries bool
	ReleaseOverGroup bool
	FindBestMatch    bool
	ChannelPosters   bool
}

func NewResolver(cfg *config.Config) *Resolver {
	r := &Resolver{
		Music:            musicbrainz.NewClient(),
		Languages:        cfg.PosterLanguageList(),
		SeasonOverSeries: cfg.Marquee.SeasonOverSeries,
		ReleaseOverGroup: cfg.Marquee.ReleaseOverGroup,
		FindBestMatch:    cfg.Marquee.FindBestMatch,
		ChannelPosters:   cfg.Marquee.ChannelPosters,
	}
	if cfg.TMDB.APIKey != "" {
		r.TMDB = tmdb.NewClient(cfg.TMDB.APIKey)
	}
	return r
}

// Resolve never fails: any provider-side error logs a warning and falls
// through to the next candidate or the fallback sentinel.
func (r *Resolver) Resolve(item *jellyfin.Item, lib Library) Reference {
	switch item.Type {
	case shared.MEDIA_TYPE_EPISODE:
		return r.resolveEpisode(item, lib)
	case shared.MEDIA_TYPE_MOVIE:
		return r.resolveMovie(item)
	case shared.MEDIA_TYPE_AUDIO:
		return r.resolveTrack(item)
	case shared.MEDIA_TYPE_TV_CHANNEL:
		return r.resolveChannel(item, lib)
	}
	return Fallback()
}

// tmdbID picks an inlined provider id, or searches by title when permitted.
func (r *Resolver) tmdbID(providerIDs map[string]string, search func() (string, error)) string {
	if id := providerIDs[shared.PROVIDER_TMDB]; id != "" {
		return id
	}
	if id := providerIDs[shared.PROVIDER_THE_MOVIE_DB]; id != "" {
		return id
	}
	if !r.FindBestMatch {
		return ""
	}
	id, err := search()
	if err != nil {
		slog.Warn("TMDB search failed", slog.String("error", err.Error()))
		return ""
	}
	return id
}

func (r *Resolver) resolveEpisode(item *jellyfin.Item, lib Library) Reference {
	if r.TMDB == nil {
		return Fallback()
	}
	providerIDs := item.ProviderIDs
	if item.SeriesID != "" {
		series, err := lib.Item(item.SeriesID)
		if err != nil {
			slog.Warn("Failed to fetch series details", slog.String("error", err.Error()))
		} else {
			providerIDs = series.ProviderIDs
		}
	}
	id := r.tmdbID(providerIDs, func() (string, error) {
		return r.TMDB.SearchSeries(item.SeriesName)
	})
	if id == "" {
		return Fallback()
	}

	ref := Fallback()
	ref.TitleLink = r.TMDB.SeriesLink(id)
	season := item.ParentIndexNumber
	if season != nil {
		ref.ImageLink = r.TMDB.SeasonLink(id, *season)
		if item.IndexNumber != nil {
			ref.SubtitleLink = r.TMDB.EpisodeLink(id, *season, *item.IndexNumber)
		}
	}

	if r.SeasonOverSeries && season != nil {
		if poster, err := r.TMDB.SeasonPoster(id, *season, r.Languages); err == nil {
			ref.ImageURL = poster
			return ref
		}
		// Season miss falls through to series-level art.
	}
	poster, err := r.TMDB.SeriesPoster(id, r.Languages)
	if err != nil {
		slog.Warn("No poster available on TMDB", slog.String("series", item.SeriesName), slog.String("error", err.Error()))
		return ref
	}
	ref.ImageURL = poster
	return ref
}

func (r *Resolver) resolveMovie(item *jellyfin.Item) Reference {
	if r.TMDB == nil {
		return Fallback()
	}
	id := r.tmdbID(item.ProviderIDs, func() (string, error) {
		return r.TMDB.SearchMovie(item.Name)
	})
	if id == "" {
		return Fallback()
	}
	ref := Fallback()
	ref.TitleLink = r.TMDB.MovieLink(id)
	ref.ImageLink = ref.TitleLink
	poster, err := r.TMDB.MoviePoster(id, r.Languages)
	if err != nil {
		slog.Warn("No poster available on TMDB", slog.String("movie", item.Name), slog.String("error", err.Error()))
		return ref
	}
	ref.ImageURL = poster
	return ref
}

func (r *Resolver) resolveTrack(item *jellyfin.Item) Reference {
	groupID := item.ProviderIDs[shared.PROVIDER_MB_GROUP]
	if groupID == "" && r.FindBestMatch && item.AlbumArtist != "" && item.Album != "" {
		id, err := r.Music.SearchReleaseGroup(item.AlbumArtist, item.Album)
		if err != nil {
			slog.Warn("MusicBrainz search failed", slog.String("error", err.Error()))
		} else {
			groupID = id
		}
	}
	if groupID == "" {
		return Fallback()
	}

	ref := Fallback()
	ref.SubtitleLink = r.Music.ReleaseGroupLink(groupID)
	ref.ImageLink = ref.SubtitleLink
	if trackID := item.ProviderIDs[shared.PROVIDER_MB_TRACK]; trackID != "" {
		ref.TitleLink = r.Music.TrackLink(trackID)
	}

	releaseID := ""
	if r.ReleaseOverGroup {
		releaseID = item.ProviderIDs[shared.PROVIDER_MB_RELEASE]
	}
	if releaseID != "" {
		if cover, err := r.Music.ReleaseCover(releaseID); err == nil {
			// The image link must point at whichever entity supplied
			// the cover, so it only moves to the release on a hit.
			ref.ImageLink = r.Music.ReleaseLink(releaseID)
			ref.ImageURL = cover
			return ref
		}
		// Release miss falls through to the release group cover.
	}
	cover, err := r.Music.ReleaseGroupCover(groupID)
	if err != nil {
		slog.Warn("No cover art available on MusicBrainz", slog.String("album", item.Album), slog.String("error", err.Error()))
		return ref
	}
	ref.ImageURL = cover
	return ref
}

func (r *Resolver) resolveChannel(item *jellyfin.Item, lib Library) Reference {
	if !r.ChannelPosters {
		return Fallback()
	}
	tag := item.ImageTags[shared.PROVIDER_IMAGE_PRIMARY]
	if tag == "" {
		return Fallback()
	}
	ref := Fallback()
	ref.ImageURL = lib.ImageURL(item.ID, tag)
	return ref
}
