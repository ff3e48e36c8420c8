package activity

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"

	"github.com/marqueehq/marquee/config"
	"github.com/marqueehq/marquee/jellyfin"
	"github.com/marqueehq/marquee/shared"
)

type Kind string

const (
	KindShow    Kind = "show"
	KindFilm    Kind = "film"
	KindTrack   Kind = "track"
	KindChannel Kind = "channel"
)

// Group returns the MEDIA_TYPES entry that gates this kind.
func (k Kind) Group() string {
	switch k {
	case KindShow:
		return "Shows"
	case KindFilm:
		return "Movies"
	case KindTrack:
		return "Music"
	default:
		return "LiveTV"
	}
}

// Activity is the display-ready summary of a session. Title, Subtitle and
// Paused make up the dedup key; the timestamps deliberately do not, since
// they drift every tick.
type Activity struct {
	Kind     Kind
	Title    string
	Subtitle string
	Start    time.Time
	End      time.Time // zero when the runtime is unknown
	Paused   bool
}

func (a *Activity) DedupKey() uint64 {
	d := xxhash.New()
	d.WriteString(a.Title)
	d.Write([]byte{0})
	d.WriteString(a.Subtitle)
	d.Write([]byte{0})
	if a.Paused {
		d.Write([]byte{1})
	} else {
		d.Write([]byte{0})
	}
	return d.Sum64()
}

func (a *Activity) Same(b *Activity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.DedupKey() == b.DedupKey()
}

// SameMedia ignores the paused flag, distinguishing a play-state flip from
// an actual change of media.
func (a *Activity) SameMedia(b *Activity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Title == b.Title && a.Subtitle == b.Subtitle
}

func (a *Activity) String() string {
	if a.Subtitle == "" {
		return a.Title
	}
	return a.Title + " (" + a.Subtitle + ")"
}

// ErrDisabled marks sessions whose media group is excluded by MEDIA_TYPES.
// The tick is skipped without clearing whatever is currently displayed.
var ErrDisabled = errors.New("media type not enabled")

type UnsupportedTypeError struct {
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported media type %q", e.Type)
}

type MissingFieldError struct {
	Type  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("session payload for %s is missing %s", e.Type, e.Field)
}

func kindOf(mediaType string) (Kind, bool) {
	switch mediaType {
	case shared.MEDIA_TYPE_EPISODE:
		return KindShow, true
	case shared.MEDIA_TYPE_MOVIE:
		return KindFilm, true
	case shared.MEDIA_TYPE_AUDIO:
		return KindTrack, true
	case shared.MEDIA_TYPE_TV_CHANNEL:
		return KindChannel, true
	}
	return "", false
}

// Resolve maps a session onto an Activity. A nil result with a nil error
// means "nothing should be displayed" and forces a clear; ErrDisabled,
// UnsupportedTypeError and MissingFieldError all mean "leave the display
// alone and skip this tick".
func Resolve(session *jellyfin.Session, cfg *config.Config, now time.Time) (*Activity, error) {
	if session == nil || session.NowPlayingItem == nil {
		return nil, nil
	}
	paused := session.PlayState.IsPaused
	if paused && !cfg.Marquee.ShowWhenPaused {
		return nil, nil
	}
	item := session.NowPlayingItem
	kind, ok := kindOf(item.Type)
	if !ok {
		return nil, &UnsupportedTypeError{Type: item.Type}
	}
	if !cfg.MediaTypeEnabled(kind.Group()) {
		return nil, ErrDisabled
	}
	title, subtitle, err := titlesFor(kind, item)
	if err != nil {
		return nil, err
	}

	// Discord rejects titles shorter than two characters, which real
	// libraries do produce (single-glyph CJK titles for example).
	if utf8.RuneCountInString(title) < 2 {
		title += " "
	}

	act := &Activity{
		Kind:     kind,
		Title:    title,
		Subtitle: subtitle,
		Paused:   paused,
		Start:    now,
	}
	if !paused {
		act.Start = now.Add(-ticks(session.PlayState.PositionTicks))
		if item.RunTimeTicks > 0 {
			act.End = act.Start.Add(ticks(item.RunTimeTicks))
		}
	}
	return act, nil
}

func titlesFor(kind Kind, item *jellyfin.Item) (string, string, error) {
	switch kind {
	case KindShow:
		if item.SeriesName == "" {
			return "", "", &MissingFieldError{Type: item.Type, Field: "SeriesName"}
		}
		if item.ParentIndexNumber == nil {
			return "", "", &MissingFieldError{Type: item.Type, Field: "ParentIndexNumber"}
		}
		if item.IndexNumber == nil {
			return "", "", &MissingFieldError{Type: item.Type, Field: "IndexNumber"}
		}
		if item.Name == "" {
			return "", "", &MissingFieldError{Type: item.Type, Field: "Name"}
		}
		subtitle := fmt.Sprintf("S%d:E%d - %s", *item.ParentIndexNumber, *item.IndexNumber, item.Name)
		return item.SeriesName, subtitle, nil
	case KindFilm:
		if item.Name == "" {
			return "", "", &MissingFieldError{Type: item.Type, Field: "Name"}
		}
		return item.Name, "", nil
	case KindTrack:
		if item.Name == "" {
			return "", "", &MissingFieldError{Type: item.Type, Field: "Name"}
		}
		subtitle := strings.Join(item.Artists, ", ")
		if item.Album != "" {
			if subtitle == "" {
				subtitle = item.Album
			} else {
				subtitle += " - " + item.Album
			}
		}
		return item.Name, subtitle, nil
	case KindChannel:
		channel := item.ChannelName
		if channel == "" {
			channel = item.Name
		}
		if channel == "" {
			return "", "", &MissingFieldError{Type: item.Type, Field: "ChannelName"}
		}
		title := channel
		subtitle := ""
		if item.CurrentProgram != nil && item.CurrentProgram.Name != "" {
			title = item.CurrentProgram.Name
			subtitle = channel
			if item.CurrentProgram.EpisodeTitle != "" {
				subtitle += " - " + item.CurrentProgram.EpisodeTitle
			}
		}
		return title, subtitle, nil
	}
	return "", "", &UnsupportedTypeError{Type: item.Type}
}

func ticks(t int64) time.Duration {
	return time.Duration(t/jellyfin.TicksPerSecond) * time.Second
}
