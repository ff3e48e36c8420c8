package tmdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/marqueehq/marquee/utils"
)

// ErrNoResults is returned when a search or image listing comes back empty.
var ErrNoResults = errors.New("tmdb: no results")

type Client struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string
	SiteURL      string
	HTTPClient   *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		APIKey:       apiKey,
		BaseURL:      "https://api.themoviedb.org/3",
		ImageBaseURL: "https://image.tmdb.org/t/p/w185",
		SiteURL:      "https://www.themoviedb.org",
		HTTPClient:   utils.NewHTTPClient(),
	}
}

type searchResponse struct {
	Results []struct {
		ID int64 `json:"id"`
	} `json:"results"`
}

type Poster struct {
	FilePath string `json:"file_path"`
	Language string `json:"iso_639_1"`
}

type imagesResponse struct {
	Posters []Poster `json:"posters"`
}

func (c *Client) get(endpoint string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.APIKey)
	req, err := http.NewRequest("GET", c.BaseURL+endpoint+"?"+params.Encode(), nil)
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
		return fmt.Errorf("tmdb: unexpected status %d for %s", res.StatusCode, endpoint)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// CheckConnection probes the configuration endpoint so a bad API key shows
// up in the logs at startup rather than on first playback.
func (c *Client) CheckConnection() error {
	var out struct {
		Images json.RawMessage `json:"images"`
	}
	return c.get("/configuration", nil, &out)
}

func (c *Client) search(endpoint, query string) (string, error) {
	params := url.Values{}
	params.Set("query", query)
	var res searchResponse
	if err := c.get(endpoint, params, &res); err != nil {
		return "", err
	}
	if len(res.Results) == 0 {
		return "", ErrNoResults
	}
	return strconv.FormatInt(res.Results[0].ID, 10), nil
}

func (c *Client) SearchSeries(title string) (string, error) {
	return c.search("/search/tv", title)
}

func (c *Client) SearchMovie(title string) (string, error) {
	return c.search("/search/movie", title)
}

// SelectPoster picks the first poster whose language matches the preference
// list, in list order, falling back to the first poster.
func SelectPoster(posters []Poster, languages []string) (Poster, error) {
	if len(posters) == 0 {
		return Poster{}, ErrNoResults
	}
	for _, lang := range languages {
		for _, poster := range posters {
			if poster.Language == lang {
				return poster, nil
			}
		}
	}
	return posters[0], nil
}

func (c *Client) posterURL(endpoint string, languages []string) (string, error) {
	var res imagesResponse
	if err := c.get(endpoint, nil, &res); err != nil {
		return "", err
	}
	poster, err := SelectPoster(res.Posters, languages)
	if err != nil {
		return "", err
	}
	return c.ImageBaseURL + poster.FilePath, nil
}

func (c *Client) SeriesPoster(id string, languages []string) (string, error) {
	return c.posterURL("/tv/"+url.PathEscape(id)+"/images", languages)
}

func (c *Client) SeasonPoster(id string, season int, languages []string) (string, error) {
	return c.posterURL(fmt.Sprintf("/tv/%s/season/%d/images", url.PathEscape(id), season), languages)
}

func (c *Client) MoviePoster(id string, languages []string) (string, error) {
	return c.posterURL("/movie/"+url.PathEscape(id)+"/images", languages)
}

func (c *Client) SeriesLink(id string) string {
	return c.SiteURL + "/tv/" + url.PathEscape(id)
}

func (c *Client) SeasonLink(id string, season int) string {
	return fmt.Sprintf("%s/season/%d", c.SeriesLink(id), season)
}

func (c *Client) EpisodeLink(id string, season, episode int) string {
	return fmt.Sprintf("%s/episode/%d", c.SeasonLink(id, season), episode)
}

func (c *Client) MovieLink(id string) string {
	return c.SiteURL + "/movie/" + url.PathEscape(id)
}
