package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/pders01/wscroll/internal/config"
	"github.com/pders01/wscroll/internal/debuglog"
)

// ErrFetchFailed is wrapped by every error the client returns.
var ErrFetchFailed = errors.New("wikipedia fetch failed")

const categoryPrefix = "Category:"

type Client struct {
	http          *resty.Client
	baseURL       string
	thumbSize     int
	fullThumbSize int
}

func NewClient(cfg *config.Config) *Client {
	httpClient := resty.New().
		SetTimeout(cfg.API.HTTPTimeout).
		SetRetryCount(0).
		SetHeader("User-Agent", cfg.API.UserAgent).
		SetHeader("Accept", "application/json")

	return &Client{
		http:          httpClient,
		baseURL:       cfg.API.BaseURL,
		thumbSize:     cfg.API.ThumbSize,
		fullThumbSize: cfg.API.FullThumbSize,
	}
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type queryResponse struct {
	Error *apiError `json:"error,omitempty"`
	Query struct {
		Search []Stub     `json:"search"`
		Random []randPage `json:"random"`
		Pages  []wirePage `json:"pages"`
	} `json:"query"`
}

type randPage struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

type wirePage struct {
	PageID      int          `json:"pageid"`
	Title       string       `json:"title"`
	Missing     bool         `json:"missing"`
	Invalid     bool         `json:"invalid"`
	Extract     string       `json:"extract"`
	Thumbnail   *Image       `json:"thumbnail"`
	Original    *Image       `json:"original"`
	PageImage   string       `json:"pageimage"`
	Coordinates []Coordinate `json:"coordinates"`
	Categories  []struct {
		Title string `json:"title"`
	} `json:"categories"`
}

func (p wirePage) article() *Article {
	a := &Article{
		PageID:      p.PageID,
		Title:       p.Title,
		Extract:     strings.TrimSpace(p.Extract),
		Thumbnail:   p.Thumbnail,
		Original:    p.Original,
		PageImage:   p.PageImage,
		Coordinates: p.Coordinates,
	}
	for _, c := range p.Categories {
		a.Categories = append(a.Categories, strings.TrimPrefix(c.Title, categoryPrefix))
	}
	return a
}

func (c *Client) query(ctx context.Context, op string, params map[string]string) (*queryResponse, error) {
	params["format"] = "json"
	params["formatversion"] = "2"

	body, err := c.get(ctx, op, params)
	if err != nil {
		return nil, err
	}

	var out queryResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %s: decoding response: %w", ErrFetchFailed, op, err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("%w: %s: api error %s: %s", ErrFetchFailed, op, out.Error.Code, out.Error.Info)
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, op string, params map[string]string) ([]byte, error) {
	log := debuglog.WithFields(map[string]interface{}{"component": "wiki", "op": op})

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(c.baseURL)
	if err != nil {
		log.Warnf("request failed: %v", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrFetchFailed, op, err)
	}
	if resp.IsError() {
		log.Warnf("HTTP %d", resp.StatusCode())
		return nil, fmt.Errorf("%w: %s: HTTP error: %d", ErrFetchFailed, op, resp.StatusCode())
	}

	log.Debugf("HTTP %d in %s", resp.StatusCode(), resp.Time())
	return resp.Body(), nil
}

// Search returns one page of full-text hits for term, in rank order.
func (c *Client) Search(ctx context.Context, term string, limit, offset int) ([]Stub, error) {
	out, err := c.query(ctx, "search", map[string]string{
		"action":   "query",
		"list":     "search",
		"srsearch": term,
		"srlimit":  strconv.Itoa(limit),
		"sroffset": strconv.Itoa(offset),
		"srprop":   "snippet|timestamp|wordcount",
	})
	if err != nil {
		return nil, err
	}
	return out.Query.Search, nil
}

// Details fetches intro extracts, thumbnails and coordinates for ids.
// Missing or invalid pages are left out of the result.
func (c *Client) Details(ctx context.Context, ids []int) (map[int]*Article, error) {
	if len(ids) == 0 {
		return map[int]*Article{}, nil
	}

	out, err := c.query(ctx, "details", map[string]string{
		"action":      "query",
		"pageids":     joinIDs(ids),
		"prop":        "extracts|pageimages|pageprops|coordinates",
		"exintro":     "true",
		"explaintext": "true",
		"exlimit":     "max",
		"piprop":      "thumbnail|original",
		"pithumbsize": strconv.Itoa(c.thumbSize),
		"pilimit":     "max",
	})
	if err != nil {
		return nil, err
	}

	articles := make(map[int]*Article, len(out.Query.Pages))
	for _, p := range out.Query.Pages {
		if p.Missing || p.Invalid {
			continue
		}
		articles[p.PageID] = p.article()
	}
	return articles, nil
}

// Random picks limit random main-namespace pages and resolves their details.
func (c *Client) Random(ctx context.Context, limit int) (map[int]*Article, error) {
	out, err := c.query(ctx, "random", map[string]string{
		"action":      "query",
		"list":        "random",
		"rnnamespace": "0",
		"rnlimit":     strconv.Itoa(limit),
	})
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(out.Query.Random))
	for _, r := range out.Query.Random {
		ids = append(ids, r.ID)
	}
	return c.Details(ctx, ids)
}

// Full fetches the whole plain-text article with its visible categories.
func (c *Client) Full(ctx context.Context, id int) (*Article, error) {
	out, err := c.query(ctx, "full", map[string]string{
		"action":          "query",
		"pageids":         strconv.Itoa(id),
		"prop":            "extracts|pageimages|coordinates|categories",
		"explaintext":     "true",
		"exsectionformat": "plain",
		"piprop":          "thumbnail|original",
		"pithumbsize":     strconv.Itoa(c.fullThumbSize),
		"clshow":          "!hidden",
		"cllimit":         "max",
	})
	if err != nil {
		return nil, err
	}

	for _, p := range out.Query.Pages {
		if p.PageID == id && !p.Missing && !p.Invalid {
			return p.article(), nil
		}
	}
	return nil, fmt.Errorf("%w: full: page %d not found", ErrFetchFailed, id)
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, "|")
}
