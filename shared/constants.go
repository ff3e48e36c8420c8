package shared

const (
	MEDIA_TYPE_EPISODE    = "Episode"
	MEDIA_TYPE_MOVIE      = "Movie"
	MEDIA_TYPE_AUDIO      = "Audio"
	MEDIA_TYPE_TV_CHANNEL = "TvChannel"

	// Asset keys uploaded to the Discord application. The fallback is the
	// generic Jellyfin banner shown when no poster could be resolved.
	ASSET_FALLBACK = "large_image"
	ASSET_APP_ICON = "small_image"

	PROVIDER_TMDB          = "Tmdb"
	PROVIDER_THE_MOVIE_DB  = "TheMovieDb"
	PROVIDER_MB_GROUP      = "MusicBrainzReleaseGroup"
	PROVIDER_MB_RELEASE    = "MusicBrainzAlbum"
	PROVIDER_MB_TRACK      = "MusicBrainzTrack"
	PROVIDER_IMAGE_PRIMARY = "Primary"

	DEFAULT_DISCORD_CLIENT_ID = "1238889120672120853"

	USER_AGENT = "Marquee/1.0 <github.com/marqueehq/marquee>"
)
