package jellyfin

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/marqueehq/marquee/utils"
)

const (
	usersEndpoint    = "/Users"
	sessionsEndpoint = "/Sessions"
	systemEndpoint   = "/System/Info"
)

// TicksPerSecond is the resolution Jellyfin uses for positions and runtimes.
const TicksPerSecond = 10_000_000

type Client struct {
	BaseURL    string
	APIKey     string
	DeviceID   string
	HTTPClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		DeviceID:   uuid.NewString(),
		HTTPClient: utils.NewHTTPClient(),
	}
}

// TransportError covers request, decode and server-side failures on an
// established handle. The engine treats these as reconnect signals rather
// than crashing the poll loop.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("jellyfin: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UserNotFoundError means the configured username does not exist on the
// server. Retrying cannot fix it, so callers escalate it as fatal.
type UserNotFoundError struct {
	Username string
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("jellyfin: username not found: %s", e.Username)
}

func (c *Client) get(endpoint string, out any) error {
	req, err := http.NewRequest("GET", c.BaseURL+endpoint, nil)
	if err != nil {
		return &TransportError{Op: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Emby-Token", c.APIKey)
	req.Header.Set("X-Emby-Authorization", fmt.Sprintf(
		`MediaBrowser Client="marquee", Device="marquee", DeviceId="%s", Version="1.0"`,
		c.DeviceID,
	))
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return &TransportError{Op: "request " + endpoint, Err: err}
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return &TransportError{Op: "request " + endpoint, Err: fmt.Errorf("unexpected status %d", res.StatusCode)}
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return &TransportError{Op: "read " + endpoint, Err: err}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Op: "decode " + endpoint, Err: err}
	}
	return nil
}

// ResolveUserID looks the configured username up in the server directory.
// Exact matching is the default; substring matching is kept for parity with
// older deployments that relied on it.
func (c *Client) ResolveUserID(username string, exact bool) (string, error) {
	var users []User
	if err := c.get(usersEndpoint, &users); err != nil {
		return "", err
	}
	for _, user := range users {
		if exact && user.Name == username {
			return user.ID, nil
		}
		if !exact && strings.Contains(user.Name, username) {
			return user.ID, nil
		}
	}
	return "", &UserNotFoundError{Username: username}
}

func (c *Client) SystemInfo() (SystemInfo, error) {
	var info SystemInfo
	err := c.get(systemEndpoint, &info)
	return info, err
}

// Handle is an authenticated view of the server for a single resolved user.
type Handle struct {
	client     *Client
	userID     string
	serverName string
}

func NewHandle(client *Client, userID, serverName string) *Handle {
	return &Handle{client: client, userID: userID, serverName: serverName}
}

func (h *Handle) UserID() string {
	return h.userID
}

func (h *Handle) ServerName() string {
	return h.serverName
}

// ActiveSession returns the first session belonging to the handle's user,
// or nil when the user has no session at all.
func (h *Handle) ActiveSession() (*Session, error) {
	var sessions []Session
	if err := h.client.get(sessionsEndpoint, &sessions); err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].UserID == h.userID {
			return &sessions[i], nil
		}
	}
	return nil, nil
}

// Item fetches full metadata for a library item. Sessions inline most fields
// but provider ids for a series only live on the series item itself.
func (h *Handle) Item(id string) (*Item, error) {
	var item Item
	endpoint := fmt.Sprintf("/Users/%s/Items/%s", url.PathEscape(h.userID), url.PathEscape(id))
	if err := h.client.get(endpoint, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ImageURL builds the primary-image URL for an item, used as live TV
// channel art.
func (h *Handle) ImageURL(itemID, tag string) string {
	return fmt.Sprintf("%s/Items/%s/Images/Primary?tag=%s", h.client.BaseURL, url.PathEscape(itemID), url.QueryEscape(tag))
}
