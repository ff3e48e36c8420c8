package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/gregdel/pushover"
	"github.com/joho/godotenv"

	"github.com/marqueehq/marquee/artwork"
	"github.com/marqueehq/marquee/config"
	"github.com/marqueehq/marquee/engine"
	"github.com/marqueehq/marquee/jellyfin"
	"github.com/marqueehq/marquee/presence"
	"github.com/marqueehq/marquee/supervisor"
	"github.com/marqueehq/marquee/tmdb"
)

func main() {

	if err := godotenv.Load(); err != nil {
		fmt.Println(err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.GetLogLevel(),
	})))

	if cfg.TMDB.APIKey != "" {
		if err := tmdb.NewClient(cfg.TMDB.APIKey).CheckConnection(); err != nil {
			slog.Warn("TMDB API connection failed. Posters disabled until it recovers.", slog.String("error", err.Error()))
		} else {
			slog.Info("Connected to TMDB API")
		}
	}

	eng := &engine.Engine{
		Config:  &cfg,
		Channel: presence.NewClient(cfg.Discord.ClientID),
		Artwork: artwork.NewResolver(&cfg),
		ConnectServer: func() (engine.Server, error) {
			handle, err := jellyfin.Connect(cfg)
			if err != nil {
				// A missing user cannot be fixed by retrying.
				var notFound *jellyfin.UserNotFoundError
				if errors.As(err, &notFound) {
					return nil, supervisor.Fatal{Err: err}
				}
				return nil, err
			}
			return handle, nil
		},
	}

	if err := eng.Run(); err != nil {
		slog.Error("Shutting down", slog.String("error", err.Error()))
		alertFatal(cfg, err)
		os.Exit(1)
	}
}

// alertFatal pings Pushover when the sync loop dies on a configuration
// error, since an unattended deployment has no other way to surface it.
func alertFatal(cfg config.Config, fatal error) {
	if cfg.Pushover.Token == "" || cfg.Pushover.Recipient == "" {
		return
	}
	app := pushover.New(cfg.Pushover.Token)
	recipient := pushover.NewRecipient(cfg.Pushover.Recipient)
	message := pushover.NewMessageWithTitle(fatal.Error(), "Marquee has stopped")
	if _, err := app.SendMessage(message, recipient); err != nil {
		slog.Error("Failed to send Pushover alert", slog.String("error", err.Error()))
	}
}
