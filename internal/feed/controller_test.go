package feed

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/wscroll/internal/category"
	"github.com/pders01/wscroll/internal/wiki"
)

// fakeSource serves numbered articles. Search hits for term start at
// hits[term] and run out after total[term] results.
type fakeSource struct {
	mu sync.Mutex

	total     map[string]int
	searchErr error
	detailErr error
	randomErr error
	fullErr   error
	dropIDs   map[int]bool

	// gate, when set, blocks every call until closed; entered is signalled first.
	gate    chan struct{}
	entered chan struct{}

	searches []searchCall
	details  int
	randoms  int
	nextRand int
}

type searchCall struct {
	term          string
	limit, offset int
}

func newFakeSource() *fakeSource {
	return &fakeSource{total: map[string]int{}, dropIDs: map[int]bool{}, nextRand: 100000}
}

func (f *fakeSource) wait() {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
}

func (f *fakeSource) Search(_ context.Context, term string, limit, offset int) ([]wiki.Stub, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, searchCall{term, limit, offset})
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var stubs []wiki.Stub
	for i := offset; i < f.total[term] && i < offset+limit; i++ {
		stubs = append(stubs, wiki.Stub{PageID: i + 1, Title: fmt.Sprintf("%s %d", term, i+1)})
	}
	return stubs, nil
}

func (f *fakeSource) Details(_ context.Context, ids []int) (map[int]*wiki.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.details++
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	out := make(map[int]*wiki.Article, len(ids))
	for _, id := range ids {
		if f.dropIDs[id] {
			continue
		}
		out[id] = &wiki.Article{PageID: id, Title: fmt.Sprintf("Article %d", id)}
	}
	return out, nil
}

func (f *fakeSource) Random(_ context.Context, limit int) (map[int]*wiki.Article, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.randoms++
	if f.randomErr != nil {
		return nil, f.randomErr
	}
	out := make(map[int]*wiki.Article, limit)
	for i := 0; i < limit; i++ {
		f.nextRand++
		out[f.nextRand] = &wiki.Article{PageID: f.nextRand, Title: fmt.Sprintf("Random %d", f.nextRand)}
	}
	return out, nil
}

func (f *fakeSource) Full(_ context.Context, id int) (*wiki.Article, error) {
	if f.fullErr != nil {
		return nil, f.fullErr
	}
	return &wiki.Article{PageID: id, Title: "Full", Extract: "the whole text", Categories: []string{"Greek philosophers"}}, nil
}

func (f *fakeSource) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searches) + f.randoms
}

func newTestController(src Source, opts ...Option) *Controller {
	opts = append([]Option{WithRand(rand.New(rand.NewPCG(1, 2)))}, opts...)
	return NewController(src, opts...)
}

func ids(articles []*wiki.Article) []int {
	out := make([]int, len(articles))
	for i, a := range articles {
		out[i] = a.PageID
	}
	return out
}

func TestNewController(t *testing.T) {
	c := NewController(newFakeSource())
	s := c.State()

	assert.Equal(t, PageSize, c.PageSize())
	assert.Empty(t, s.Articles)
	assert.False(t, s.Loading)
	assert.Equal(t, 0, s.Offset)
	assert.True(t, s.Random())

	assert.Equal(t, 7, NewController(newFakeSource(), WithPageSize(7)).PageSize())
	assert.Equal(t, PageSize, NewController(newFakeSource(), WithPageSize(0)).PageSize())
}

func TestSearchPlato(t *testing.T) {
	src := newFakeSource()
	src.total["Plato"] = 100
	c := newTestController(src)

	s, err := c.Search(context.Background(), "Plato")
	require.NoError(t, err)

	assert.Len(t, s.Articles, 20)
	assert.Equal(t, 20, s.Offset)
	assert.True(t, s.HasMore)
	assert.False(t, s.Loading)
	assert.Equal(t, "Plato", s.Query)
	require.Len(t, src.searches, 1)
	assert.Equal(t, searchCall{"Plato", 20, 0}, src.searches[0])
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20}, ids(s.Articles))
}

func TestSearchNoResults(t *testing.T) {
	src := newFakeSource()
	c := newTestController(src)

	s, err := c.Search(context.Background(), "zzzznoresults")
	require.NoError(t, err)

	assert.Empty(t, s.Articles)
	assert.False(t, s.HasMore)
	assert.False(t, s.Loading)
	assert.Equal(t, 0, src.details, "details must not be requested for zero hits")
}

func TestSelectCategory(t *testing.T) {
	src := newFakeSource()
	src.total["mathematics"] = 40
	c := newTestController(src)

	s, err := c.SelectCategory(context.Background(), "mathematics")
	require.NoError(t, err)
	assert.Equal(t, "mathematics", s.Query)
	require.Len(t, src.searches, 1)
	assert.Equal(t, "mathematics", src.searches[0].term)

	cat, err := category.Lookup("technology")
	require.NoError(t, err)
	s, err = c.SelectCategory(context.Background(), "technology")
	require.NoError(t, err)
	assert.Equal(t, cat.PrimaryTerm(), s.Query)
}

func TestSelectUnknownCategory(t *testing.T) {
	src := newFakeSource()
	c := newTestController(src)

	_, err := c.SelectCategory(context.Background(), "astrology")
	assert.ErrorIs(t, err, category.ErrUnknown)
	assert.Equal(t, 0, src.calls())
}

func TestFetchErrorKeepsList(t *testing.T) {
	src := newFakeSource()
	src.total["Plato"] = 100
	c := newTestController(src)

	before, err := c.Search(context.Background(), "Plato")
	require.NoError(t, err)

	src.searchErr = fmt.Errorf("%w: boom", wiki.ErrFetchFailed)
	after, err := c.LoadNextPage(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, wiki.ErrFetchFailed)

	assert.Equal(t, ids(before.Articles), ids(after.Articles))
	assert.Equal(t, before.Offset, after.Offset)
	assert.False(t, after.HasMore)
	assert.False(t, after.Loading)
	assert.False(t, c.State().Loading)
}

func TestDetailsErrorDiscardsBatch(t *testing.T) {
	src := newFakeSource()
	src.total["Plato"] = 100
	src.detailErr = wiki.ErrFetchFailed
	c := newTestController(src)

	s, err := c.Search(context.Background(), "Plato")
	assert.ErrorIs(t, err, wiki.ErrFetchFailed)
	assert.Empty(t, s.Articles)
	assert.Equal(t, 0, s.Offset)
	assert.False(t, s.HasMore)
	assert.False(t, c.State().Loading)
}

func TestRandomErrorReleasesLoading(t *testing.T) {
	src := newFakeSource()
	src.randomErr = errors.New("network down")
	c := newTestController(src)

	s, err := c.GoHome(context.Background())
	require.Error(t, err)
	assert.False(t, s.Loading)
	assert.False(t, s.HasMore)

	src.randomErr = nil
	s, err = c.GoHome(context.Background())
	require.NoError(t, err)
	assert.Len(t, s.Articles, PageSize)
	assert.True(t, s.HasMore)
}

func TestContinuationAppends(t *testing.T) {
	src := newFakeSource()
	src.total["Plato"] = 100
	c := newTestController(src)

	prev, err := c.Search(context.Background(), "Plato")
	require.NoError(t, err)

	for page := 2; page <= 4; page++ {
		next, err := c.LoadNextPage(context.Background())
		require.NoError(t, err)

		assert.Len(t, next.Articles, len(prev.Articles)+PageSize)
		assert.Equal(t, prev.Offset+PageSize, next.Offset)
		assert.Equal(t, ids(prev.Articles), ids(next.Articles[:len(prev.Articles)]), "existing articles keep their order")
		prev = next
	}

	require.Len(t, src.searches, 4)
	assert.Equal(t, 60, src.searches[3].offset)
}

func TestSearchHasMoreOnShortBatch(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		dropped []int
		want    bool
	}{
		{"full page", 20, nil, true},
		{"short page", 19, nil, false},
		{"single hit", 1, nil, false},
		{"missing detail", 40, []int{3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSource()
			src.total["q"] = tt.total
			for _, id := range tt.dropped {
				src.dropIDs[id] = true
			}
			c := newTestController(src)

			s, err := c.Search(context.Background(), "q")
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.HasMore)
			assert.Equal(t, len(s.Articles) == PageSize, s.HasMore)
		})
	}
}

func TestLoadNextPageWhenExhausted(t *testing.T) {
	src := newFakeSource()
	src.total["q"] = 5
	c := newTestController(src)

	_, err := c.Search(context.Background(), "q")
	require.NoError(t, err)
	calls := src.calls()

	s, err := c.LoadNextPage(context.Background())
	require.NoError(t, err)
	assert.Len(t, s.Articles, 5)
	assert.Equal(t, calls, src.calls())
}

func TestRandomModeAlwaysHasMore(t *testing.T) {
	src := newFakeSource()
	c := newTestController(src, WithPageSize(3))

	s, err := c.GoHome(context.Background())
	require.NoError(t, err)
	assert.True(t, s.HasMore)
	assert.True(t, s.Random())
	assert.Len(t, s.Articles, 3)
	assert.Equal(t, 3, s.Offset)

	s, err = c.LoadNextPage(context.Background())
	require.NoError(t, err)
	assert.True(t, s.HasMore)
	assert.Len(t, s.Articles, 6)
	assert.Equal(t, 6, s.Offset)
}

func TestResetReplacesList(t *testing.T) {
	src := newFakeSource()
	src.total["Plato"] = 100
	src.total["Kant"] = 3
	c := newTestController(src)

	_, err := c.Search(context.Background(), "Plato")
	require.NoError(t, err)
	_, err = c.LoadNextPage(context.Background())
	require.NoError(t, err)

	s, err := c.Search(context.Background(), "Kant")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2, 3}, ids(s.Articles))
	assert.Equal(t, PageSize, s.Offset)
	assert.Equal(t, searchCall{"Kant", 20, 0}, src.searches[len(src.searches)-1])

	s, err = c.GoHome(context.Background())
	require.NoError(t, err)
	assert.Len(t, s.Articles, PageSize)
	for _, a := range s.Articles {
		assert.Greater(t, a.PageID, 100000, "home feed contains only random articles")
	}
}

func TestLoadMoreWhileLoadingIsNoop(t *testing.T) {
	src := newFakeSource()
	src.total["Plato"] = 100
	src.gate = make(chan struct{})
	src.entered = make(chan struct{}, 1)
	c := newTestController(src)

	done := make(chan State)
	go func() {
		s, _ := c.Search(context.Background(), "Plato")
		done <- s
	}()
	<-src.entered

	during := c.State()
	assert.True(t, during.Loading)

	s, err := c.LoadMore(context.Background(), "Kant", true)
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, during, s)

	_, err = c.LoadNextPage(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	_, err = c.GoHome(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	close(src.gate)
	final := <-done

	assert.Equal(t, 1, src.calls(), "only the first load reached the source")
	assert.Equal(t, "Plato", final.Query)
	assert.Len(t, final.Articles, 20)
	assert.False(t, c.State().Loading)
}

func TestShuffleIsSeeded(t *testing.T) {
	load := func(seed uint64) []int {
		src := newFakeSource()
		src.total["q"] = 20
		c := NewController(src, WithRand(rand.New(rand.NewPCG(seed, seed))))
		s, err := c.Search(context.Background(), "q")
		require.NoError(t, err)
		return ids(s.Articles)
	}

	assert.Equal(t, load(7), load(7))
	assert.ElementsMatch(t, load(7), load(8))
}

func TestShuffleIsUniform(t *testing.T) {
	c := newTestController(newFakeSource())
	const n, rounds = 4, 40000

	counts := make([][n]int, n)
	for r := 0; r < rounds; r++ {
		batch := make([]*wiki.Article, n)
		for i := range batch {
			batch[i] = &wiki.Article{PageID: i}
		}
		c.shuffle(batch)
		for pos, a := range batch {
			counts[a.PageID][pos]++
		}
	}

	want := float64(rounds) / n
	for id := range counts {
		for pos := range counts[id] {
			assert.InDelta(t, want, float64(counts[id][pos]), want*0.05,
				"article %d landed at position %d %d times", id, pos, counts[id][pos])
		}
	}
}

func TestStateIsACopy(t *testing.T) {
	src := newFakeSource()
	src.total["q"] = 20
	c := newTestController(src)

	s, err := c.Search(context.Background(), "q")
	require.NoError(t, err)
	s.Articles[0] = nil
	s.Offset = 99

	again := c.State()
	assert.NotNil(t, again.Articles[0])
	assert.Equal(t, 20, again.Offset)
}

func TestExpand(t *testing.T) {
	src := newFakeSource()
	c := newTestController(src)
	thumb := &wiki.Image{Source: "https://upload.example/t.jpg"}
	summary := &wiki.Article{PageID: 9, Title: "Plato", Extract: "short", Thumbnail: thumb}

	full, err := c.Expand(context.Background(), summary)
	require.NoError(t, err)
	assert.Equal(t, "the whole text", full.Extract)
	assert.Equal(t, thumb, full.Thumbnail)
	assert.Equal(t, "short", summary.Extract, "summary article is not mutated")

	src.fullErr = wiki.ErrFetchFailed
	fallback, err := c.Expand(context.Background(), summary)
	assert.ErrorIs(t, err, wiki.ErrFetchFailed)
	assert.Same(t, summary, fallback)

	_, err = c.Expand(context.Background(), nil)
	assert.Error(t, err)
}
