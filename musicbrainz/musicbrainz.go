package musicbrainz

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/marqueehq/marquee/utils"
)

// ErrNoResults is returned when a search or cover listing comes back empty.
var ErrNoResults = errors.New("musicbrainz: no results")

type Client struct {
	BaseURL     string
	CoverArtURL string
	SiteURL     string
	HTTPClient  *http.Client
}

func NewClient() *Client {
	return &Client{
		BaseURL:     "https://musicbrainz.org/ws/2",
		CoverArtURL: "https://coverartarchive.org",
		SiteURL:     "https://musicbrainz.org",
		HTTPClient:  utils.NewHTTPClient(),
	}
}

func (c *Client) get(fullURL string, out any) error {
	req, err := http.NewRequest("GET", fullURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("musicbrainz: unexpected status %d", res.StatusCode)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

type groupSearchResponse struct {
	ReleaseGroups []struct {
		ID string `json:"id"`
	} `json:"release-groups"`
}

// SearchReleaseGroup approximates a release group id from the album artist
// and album title when the library has no MusicBrainz tags.
func (c *Client) SearchReleaseGroup(artist, album string) (string, error) {
	params := url.Values{}
	params.Set("query", fmt.Sprintf("artist:%q AND releasegroup:%q", artist, album))
	params.Set("fmt", "json")
	var res groupSearchResponse
	if err := c.get(c.BaseURL+"/release-group?"+params.Encode(), &res); err != nil {
		return "", err
	}
	if len(res.ReleaseGroups) == 0 {
		return "", ErrNoResults
	}
	return res.ReleaseGroups[0].ID, nil
}

type coverResponse struct {
	Images []struct {
		Image string `json:"image"`
	} `json:"images"`
}

func (c *Client) cover(endpoint string) (string, error) {
	var res coverResponse
	if err := c.get(c.CoverArtURL+endpoint, &res); err != nil {
		return "", err
	}
	if len(res.Images) == 0 {
		return "", ErrNoResults
	}
	return res.Images[0].Image, nil
}

func (c *Client) ReleaseCover(releaseID string) (string, error) {
	return c.cover("/release/" + url.PathEscape(releaseID))
}

func (c *Client) ReleaseGroupCover(groupID string) (string, error) {
	return c.cover("/release-group/" + url.PathEscape(groupID))
}

func (c *Client) TrackLink(trackID string) string {
	return c.SiteURL + "/track/" + url.PathEscape(trackID)
}

func (c *Client) ReleaseLink(releaseID string) string {
	return c.SiteURL + "/release/" + url.PathEscape(releaseID)
}

func (c *Client) ReleaseGroupLink(groupID string) string {
	return c.SiteURL + "/release-group/" + url.PathEscape(groupID)
}
