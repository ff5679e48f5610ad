package feed

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/pders01/wscroll/internal/category"
	"github.com/pders01/wscroll/internal/debuglog"
	"github.com/pders01/wscroll/internal/wiki"
)

// PageSize is the default number of articles per fetch.
const PageSize = 20

// ErrBusy is returned when a load is requested while another is in flight.
var ErrBusy = errors.New("feed is already loading")

// Source is the network capability the controller pulls articles from.
// wiki.Client implements it.
type Source interface {
	Search(ctx context.Context, term string, limit, offset int) ([]wiki.Stub, error)
	Details(ctx context.Context, ids []int) (map[int]*wiki.Article, error)
	Random(ctx context.Context, limit int) (map[int]*wiki.Article, error)
	Full(ctx context.Context, id int) (*wiki.Article, error)
}

// State is a snapshot of the feed. Articles are shared and must not be mutated.
type State struct {
	Articles []*wiki.Article
	Query    string
	Offset   int
	Loading  bool
	HasMore  bool
}

// Random reports whether the feed is in random (home) mode.
func (s State) Random() bool {
	return s.Query == ""
}

type Controller struct {
	src      Source
	pageSize int
	rng      *rand.Rand

	mu    sync.Mutex
	state State
}

type Option func(*Controller)

func WithPageSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithRand sets the generator used to shuffle batches.
func WithRand(r *rand.Rand) Option {
	return func(c *Controller) {
		if r != nil {
			c.rng = r
		}
	}
}

func NewController(src Source, opts ...Option) *Controller {
	seed := uint64(time.Now().UnixNano())
	c := &Controller{
		src:      src,
		pageSize: PageSize,
		rng:      rand.New(rand.NewPCG(seed, seed>>1|1)),
		state:    State{HasMore: true},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) PageSize() int {
	return c.pageSize
}

// State returns a copy of the current feed state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	s := c.state
	s.Articles = slices.Clone(c.state.Articles)
	return s
}

// LoadMore fetches the next batch for query. With reset the batch replaces
// the feed from offset zero, otherwise it is appended at the current offset.
// At most one load runs at a time; a call made while loading returns ErrBusy
// without touching the source.
func (c *Controller) LoadMore(ctx context.Context, query string, reset bool) (State, error) {
	c.mu.Lock()
	if c.state.Loading {
		s := c.snapshotLocked()
		c.mu.Unlock()
		return s, ErrBusy
	}
	c.state.Loading = true
	c.state.Query = query
	offset := c.state.Offset
	if reset {
		offset = 0
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state.Loading = false
		c.mu.Unlock()
	}()

	log := debuglog.WithFields(map[string]interface{}{
		"component": "feed",
		"query":     query,
		"offset":    offset,
		"reset":     reset,
	})

	batch, hasMore, err := c.fetch(ctx, query, offset)
	if err != nil {
		log.Err(err, "load failed")

		c.mu.Lock()
		c.state.HasMore = false
		s := c.snapshotLocked()
		c.mu.Unlock()
		s.Loading = false
		return s, err
	}

	c.shuffle(batch)

	c.mu.Lock()
	if reset {
		c.state.Articles = batch
		c.state.Offset = c.pageSize
	} else {
		c.state.Articles = append(c.state.Articles, batch...)
		c.state.Offset += c.pageSize
	}
	c.state.HasMore = hasMore
	s := c.snapshotLocked()
	c.mu.Unlock()
	s.Loading = false

	log.Debugf("loaded %d articles, feed has %d", len(batch), len(s.Articles))
	return s, nil
}

func (c *Controller) fetch(ctx context.Context, query string, offset int) ([]*wiki.Article, bool, error) {
	if query == "" {
		pages, err := c.src.Random(ctx, c.pageSize)
		if err != nil {
			return nil, false, fmt.Errorf("loading random articles: %w", err)
		}
		batch := make([]*wiki.Article, 0, len(pages))
		for _, a := range pages {
			batch = append(batch, a)
		}
		// Map order is random; sort so the shuffle alone decides display order.
		slices.SortFunc(batch, func(a, b *wiki.Article) int { return a.PageID - b.PageID })
		return batch, true, nil
	}

	stubs, err := c.src.Search(ctx, query, c.pageSize, offset)
	if err != nil {
		return nil, false, fmt.Errorf("searching %q: %w", query, err)
	}
	if len(stubs) == 0 {
		return []*wiki.Article{}, false, nil
	}

	ids := make([]int, len(stubs))
	for i, s := range stubs {
		ids[i] = s.PageID
	}
	pages, err := c.src.Details(ctx, ids)
	if err != nil {
		return nil, false, fmt.Errorf("loading details for %q: %w", query, err)
	}

	batch := make([]*wiki.Article, 0, len(ids))
	for _, id := range ids {
		if a, ok := pages[id]; ok {
			batch = append(batch, a)
		}
	}
	return batch, len(batch) == c.pageSize, nil
}

// shuffle is a uniform Fisher-Yates permutation.
func (c *Controller) shuffle(batch []*wiki.Article) {
	c.rng.Shuffle(len(batch), func(i, j int) {
		batch[i], batch[j] = batch[j], batch[i]
	})
}

// Search starts a new feed for query.
func (c *Controller) Search(ctx context.Context, query string) (State, error) {
	return c.LoadMore(ctx, query, true)
}

// SelectCategory starts a new feed for the category's primary search term.
func (c *Controller) SelectCategory(ctx context.Context, id string) (State, error) {
	cat, err := category.Lookup(id)
	if err != nil {
		return c.State(), err
	}
	return c.Search(ctx, cat.PrimaryTerm())
}

// GoHome resets to a random feed.
func (c *Controller) GoHome(ctx context.Context) (State, error) {
	return c.LoadMore(ctx, "", true)
}

// LoadNextPage continues the current feed. It does nothing when the feed is
// exhausted and returns ErrBusy while a load is in flight.
func (c *Controller) LoadNextPage(ctx context.Context) (State, error) {
	c.mu.Lock()
	s := c.snapshotLocked()
	c.mu.Unlock()

	if s.Loading {
		return s, ErrBusy
	}
	if !s.HasMore {
		return s, nil
	}
	return c.LoadMore(ctx, s.Query, false)
}

// Expand fetches the full text of article. On failure it returns the
// original article together with the error.
func (c *Controller) Expand(ctx context.Context, article *wiki.Article) (*wiki.Article, error) {
	if article == nil {
		return nil, errors.New("expand: nil article")
	}
	full, err := c.src.Full(ctx, article.PageID)
	if err != nil {
		debuglog.WithFields(map[string]interface{}{
			"component": "feed",
			"pageid":    article.PageID,
		}).Warnf("full extract unavailable: %v", err)
		return article, fmt.Errorf("expanding %q: %w", article.Title, err)
	}
	if full.Thumbnail == nil {
		full.Thumbnail = article.Thumbnail
	}
	return full, nil
}
