package wiki

import (
	"net/url"
	"strings"
	"time"
)

type Article struct {
	PageID      int          `json:"pageid"`
	Title       string       `json:"title"`
	Extract     string       `json:"extract"`
	Thumbnail   *Image       `json:"thumbnail,omitempty"`
	Original    *Image       `json:"original,omitempty"`
	PageImage   string       `json:"pageimage,omitempty"`
	Coordinates []Coordinate `json:"coordinates,omitempty"`
	Categories  []string     `json:"categories,omitempty"`
}

type Image struct {
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type Coordinate struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Primary bool    `json:"primary"`
	Globe   string  `json:"globe"`
}

// Stub is a single search hit. Only PageID is needed to resolve details.
type Stub struct {
	PageID    int       `json:"pageid"`
	Title     string    `json:"title"`
	Snippet   string    `json:"snippet"`
	WordCount int       `json:"wordcount"`
	Timestamp time.Time `json:"timestamp"`
}

type FeaturedItem struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Summary   string    `json:"summary"`
	Published time.Time `json:"published"`
}

// PrimaryCoordinate returns the coordinate flagged primary, or the first one.
func (a *Article) PrimaryCoordinate() (Coordinate, bool) {
	if len(a.Coordinates) == 0 {
		return Coordinate{}, false
	}
	for _, c := range a.Coordinates {
		if c.Primary {
			return c, true
		}
	}
	return a.Coordinates[0], true
}

// PageURL builds the human-facing article URL on site (e.g. https://en.wikipedia.org).
func PageURL(site, title string) string {
	slug := strings.ReplaceAll(strings.TrimSpace(title), " ", "_")
	return strings.TrimRight(site, "/") + "/wiki/" + url.PathEscape(slug)
}
