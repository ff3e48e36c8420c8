package jellyfin

type User struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

type SystemInfo struct {
	ServerName string `json:"ServerName"`
	Version    string `json:"Version"`
}

type Session struct {
	ID             string    `json:"Id"`
	UserID         string    `json:"UserId"`
	UserName       string    `json:"UserName"`
	NowPlayingItem *Item     `json:"NowPlayingItem"`
	PlayState      PlayState `json:"PlayState"`
}

type PlayState struct {
	IsPaused      bool  `json:"IsPaused"`
	PositionTicks int64 `json:"PositionTicks"`
}

type Item struct {
	ID                string            `json:"Id"`
	Type              string            `json:"Type"`
	Name              string            `json:"Name"`
	SeriesName        string            `json:"SeriesName"`
	SeriesID          string            `json:"SeriesId"`
	ParentIndexNumber *int              `json:"ParentIndexNumber"`
	IndexNumber       *int              `json:"IndexNumber"`
	Artists           []string          `json:"Artists"`
	AlbumArtist       string            `json:"AlbumArtist"`
	Album             string            `json:"Album"`
	ProviderIDs       map[string]string `json:"ProviderIds"`
	RunTimeTicks      int64             `json:"RunTimeTicks"`
	ImageTags         map[string]string `json:"ImageTags"`
	ChannelName       string            `json:"ChannelName"`
	CurrentProgram    *Program          `json:"CurrentProgram"`
}

type Program struct {
	Name         string `json:"Name"`
	EpisodeTitle string `json:"EpisodeTitle"`
}
