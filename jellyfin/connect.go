package jellyfin

import (
	"log/slog"

	"github.com/marqueehq/marquee/config"
)

// Connect resolves the configured username and returns a handle scoped to
// that user. A fresh handle is built on every call so the engine can replace
// a broken one wholesale after a transport failure.
func Connect(cfg config.Config) (*Handle, error) {
	client := NewClient(cfg.Jellyfin.Host, cfg.Jellyfin.APIKey)
	userID, err := client.ResolveUserID(cfg.Jellyfin.Username, cfg.Jellyfin.ExactUsername)
	if err != nil {
		return nil, err
	}
	serverName := ""
	if cfg.Marquee.ShowServerName {
		info, err := client.SystemInfo()
		if err != nil {
			return nil, err
		}
		serverName = info.ServerName
	}
	slog.Info("Connected to Jellyfin", slog.String("host", cfg.Jellyfin.Host))
	return NewHandle(client, userID, serverName), nil
}
