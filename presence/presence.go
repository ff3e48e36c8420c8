// Package presence speaks the Discord IPC protocol to the locally running
// client: a handshake frame followed by SET_ACTIVITY command frames over a
// unix socket or named pipe.
package presence

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/google/uuid"
)

const (
	opHandshake = 0
	opFrame     = 1
	opClose     = 2

	// Frames are tiny; anything bigger than this is a protocol violation.
	maxFrameSize = 1 << 20
)

var (
	// ErrUnavailable means no running Discord client could be reached.
	ErrUnavailable = errors.New("presence: discord client not reachable")
	// ErrClosed means the channel dropped mid-call and must be reconnected.
	ErrClosed = errors.New("presence: ipc channel closed")
)

// Activity types understood by the client.
const (
	TypePlaying   = 0
	TypeListening = 2
	TypeWatching  = 3
)

// Status display modes, selecting which field headlines the status widget.
const (
	DisplayName    = 0
	DisplayState   = 1
	DisplayDetails = 2
)

// Update is one presence publish. Zero-value fields are omitted on the wire.
type Update struct {
	Type       int
	Name       string
	Details    string
	DetailsURL string
	State      string
	StateURL   string
	Start      time.Time
	End        time.Time
	LargeImage string
	LargeURL   string
	SmallImage string
}

type Client struct {
	ClientID string

	// dial is swappable in tests; the default walks discord-ipc-0..9.
	dial func() (net.Conn, error)
	conn net.Conn
}

func NewClient(clientID string) *Client {
	return &Client{
		ClientID: clientID,
		dial:     dialDiscord,
	}
}

// Connect dials the client and performs the handshake. Failure to reach any
// socket reports ErrUnavailable so the supervisor can retry.
func (c *Client) Connect() error {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	conn, err := c.dial()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	handshake := struct {
		V        int    `json:"v"`
		ClientID string `json:"client_id"`
	}{V: 1, ClientID: c.ClientID}
	if err := writeFrame(conn, opHandshake, handshake); err != nil {
		conn.Close()
		return fmt.Errorf("%w: handshake: %v", ErrUnavailable, err)
	}
	op, payload, err := readFrame(conn)
	if err != nil {
		conn.Close()
		return fmt.Errorf("%w: handshake: %v", ErrUnavailable, err)
	}
	if op == opClose {
		conn.Close()
		return fmt.Errorf("%w: handshake rejected: %s", ErrUnavailable, payload)
	}
	var ready response
	if err := json.Unmarshal(payload, &ready); err == nil && ready.Evt == "ERROR" {
		conn.Close()
		return fmt.Errorf("%w: handshake error: %s", ErrUnavailable, ready.Data.Message)
	}
	c.conn = conn
	slog.Info("Connected to Discord")
	return nil
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Publish pushes a new status to the display.
func (c *Client) Publish(update Update) error {
	return c.setActivity(update.wire())
}

// Clear removes the displayed status.
func (c *Client) Clear() error {
	return c.setActivity(nil)
}

type response struct {
	Cmd  string `json:"cmd"`
	Evt  string `json:"evt"`
	Data struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"data"`
}

func (c *Client) setActivity(act *wireActivity) error {
	if c.conn == nil {
		return ErrUnavailable
	}
	command := struct {
		Cmd   string `json:"cmd"`
		Nonce string `json:"nonce"`
		Args  struct {
			PID      int           `json:"pid"`
			Activity *wireActivity `json:"activity"`
		} `json:"args"`
	}{Cmd: "SET_ACTIVITY", Nonce: uuid.NewString()}
	command.Args.PID = os.Getpid()
	command.Args.Activity = act

	if err := writeFrame(c.conn, opFrame, command); err != nil {
		c.drop()
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	op, payload, err := readFrame(c.conn)
	if err != nil {
		c.drop()
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	if op == opClose {
		c.drop()
		return fmt.Errorf("%w: close frame: %s", ErrClosed, payload)
	}
	var res response
	if err := json.Unmarshal(payload, &res); err != nil {
		return fmt.Errorf("presence: malformed response: %w", err)
	}
	if res.Evt == "ERROR" {
		return fmt.Errorf("presence: %s (code %d)", res.Data.Message, res.Data.Code)
	}
	return nil
}

func (c *Client) drop() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

type wireTimestamps struct {
	Start int64 `json:"start,omitempty"`
	End   int64 `json:"end,omitempty"`
}

type wireAssets struct {
	LargeImage string `json:"large_image,omitempty"`
	LargeURL   string `json:"large_url,omitempty"`
	SmallImage string `json:"small_image,omitempty"`
}

type wireActivity struct {
	Type              int             `json:"type"`
	Name              string          `json:"name,omitempty"`
	Details           string          `json:"details,omitempty"`
	DetailsURL        string          `json:"details_url,omitempty"`
	State             string          `json:"state,omitempty"`
	StateURL          string          `json:"state_url,omitempty"`
	StatusDisplayType int             `json:"status_display_type"`
	Timestamps        *wireTimestamps `json:"timestamps,omitempty"`
	Assets            *wireAssets     `json:"assets,omitempty"`
}

func (u Update) wire() *wireActivity {
	act := &wireActivity{
		Type:              u.Type,
		Name:              u.Name,
		Details:           u.Details,
		DetailsURL:        u.DetailsURL,
		State:             u.State,
		StateURL:          u.StateURL,
		StatusDisplayType: DisplayDetails,
	}
	if !u.Start.IsZero() {
		act.Timestamps = &wireTimestamps{Start: u.Start.UnixMilli()}
		if !u.End.IsZero() {
			act.Timestamps.End = u.End.UnixMilli()
		}
	}
	if u.LargeImage != "" || u.SmallImage != "" {
		act.Assets = &wireAssets{
			LargeImage: u.LargeImage,
			LargeURL:   u.LargeURL,
			SmallImage: u.SmallImage,
		}
	}
	return act
}

func writeFrame(conn net.Conn, op uint32, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	header := make([]byte, 8)
	binary.LittleEndian.PutUint32(header[0:4], op)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(body)))
	if _, err := conn.Write(header); err != nil {
		return err
	}
	_, err = conn.Write(body)
	return err
}

func readFrame(conn net.Conn) (uint32, []byte, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(conn, header); err != nil {
		return 0, nil, err
	}
	op := binary.LittleEndian.Uint32(header[0:4])
	length := binary.LittleEndian.Uint32(header[4:8])
	if length > maxFrameSize {
		return 0, nil, fmt.Errorf("frame too large: %d bytes", length)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(conn, payload); err != nil {
		return 0, nil, err
	}
	return op, payload, nil
}
