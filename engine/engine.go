// Package engine owns the poll loop: fetch the active session, derive an
// activity, resolve artwork when it changed, and publish or clear the
// presence display. One cooperative loop, no internal parallelism.
package engine

import (
	"errors"
	"log/slog"
	"time"

	"github.com/marqueehq/marquee/activity"
	"github.com/marqueehq/marquee/artwork"
	"github.com/marqueehq/marquee/config"
	"github.com/marqueehq/marquee/jellyfin"
	"github.com/marqueehq/marquee/presence"
	"github.com/marqueehq/marquee/shared"
	"github.com/marqueehq/marquee/supervisor"
)

// Server is the authenticated media-server handle the engine polls. A fresh
// one is produced by ConnectServer after every transport failure.
type Server interface {
	ServerName() string
	ActiveSession() (*jellyfin.Session, error)
	Item(id string) (*jellyfin.Item, error)
	ImageURL(itemID, tag string) string
}

// Channel is the presence display. Publish and Clear failures are treated
// as a dropped channel and answered with a reconnect.
type Channel interface {
	Connect() error
	Publish(presence.Update) error
	Clear() error
}

type Artwork interface {
	Resolve(item *jellyfin.Item, lib artwork.Library) artwork.Reference
}

type Engine struct {
	Config        *config.Config
	ConnectServer func() (Server, error)
	Channel       Channel
	Artwork       Artwork

	// Sleep and Now are swappable in tests.
	Sleep func(time.Duration)
	Now   func() time.Time

	// prev is the single source of truth for what the display currently
	// shows. Only the loop below writes it.
	prev   *activity.Activity
	warned bool
}

// Run blocks forever under normal operation. It returns only when a
// supervisor reports a fatal configuration error.
func (e *Engine) Run() error {
	if e.Sleep == nil {
		e.Sleep = time.Sleep
	}
	if e.Now == nil {
		e.Now = time.Now
	}
	interval := e.Config.RefreshInterval()

	if err := e.awaitChannel(interval); err != nil {
		return err
	}
	srv, err := supervisor.Await("jellyfin", interval, e.ConnectServer)
	if err != nil {
		return err
	}

	for {
		session, err := srv.ActiveSession()
		if err != nil {
			// The supervisor logs the outage; this line only adds detail.
			slog.Debug("Lost connection to Jellyfin", slog.String("error", err.Error()))
			srv, err = supervisor.Await("jellyfin", interval, e.ConnectServer)
			if err != nil {
				return err
			}
			continue
		}

		act, resolveErr := activity.Resolve(session, e.Config, e.Now())
		if resolveErr != nil {
			// Unsupported type or malformed payload: leave the display
			// alone and keep quiet until the streak breaks.
			if !errors.Is(resolveErr, activity.ErrDisabled) && !e.warned {
				slog.Warn("Skipping session", slog.String("reason", resolveErr.Error()))
				e.warned = true
			}
			e.Sleep(interval)
			continue
		}
		e.warned = false

		if act == nil {
			if e.prev != nil {
				if err := e.Channel.Clear(); err != nil {
					slog.Warn("Lost connection to Discord", slog.String("error", err.Error()))
					if err := e.awaitChannel(interval); err != nil {
						return err
					}
					continue
				}
				slog.Info("Activity cleared")
				e.prev = nil
			}
			e.Sleep(interval)
			continue
		}

		if act.Same(e.prev) {
			e.Sleep(interval)
			continue
		}

		ref := e.Artwork.Resolve(session.NowPlayingItem, srv)
		if err := e.Channel.Publish(e.buildUpdate(act, ref, srv.ServerName())); err != nil {
			slog.Warn("Lost connection to Discord", slog.String("error", err.Error()))
			if err := e.awaitChannel(interval); err != nil {
				return err
			}
			continue
		}

		switch {
		case e.prev == nil:
			slog.Info("Activity set", slog.String("activity", act.String()))
		case !act.SameMedia(e.prev):
			slog.Info("Activity updated", slog.String("activity", act.String()))
		case act.Paused:
			slog.Info("Play state changed", slog.String("activity", act.String()), slog.String("state", "paused"))
		default:
			slog.Info("Play state changed", slog.String("activity", act.String()), slog.String("state", "resumed"))
		}
		e.prev = act
		e.Sleep(interval)
	}
}

func (e *Engine) awaitChannel(interval time.Duration) error {
	_, err := supervisor.Await("discord", interval, func() (struct{}, error) {
		return struct{}{}, e.Channel.Connect()
	})
	return err
}

func (e *Engine) buildUpdate(act *activity.Activity, ref artwork.Reference, serverName string) presence.Update {
	update := presence.Update{
		Type:       presenceType(act.Kind),
		Details:    act.Title,
		DetailsURL: ref.TitleLink,
		State:      act.Subtitle,
		StateURL:   ref.SubtitleLink,
		Start:      act.Start,
		End:        act.End,
		LargeImage: ref.ImageURL,
		LargeURL:   ref.ImageLink,
	}
	if e.Config.Marquee.ShowServerName {
		update.Name = serverName
	}
	if e.Config.Marquee.ShowAppIcon {
		update.SmallImage = shared.ASSET_APP_ICON
	}
	return update
}

func presenceType(kind activity.Kind) int {
	if kind == activity.KindTrack {
		return presence.TypeListening
	}
	return presence.TypeWatching
}
