package search

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/wscroll/internal/wiki"
)

const snippetLength = 160

// Index is an in-memory bleve index over the articles currently in the feed.
type Index struct {
	mu       sync.RWMutex
	idx      bleve.Index
	articles map[string]*wiki.Article
}

var (
	_ Searcher     = (*Index)(nil)
	_ DebugStatser = (*Index)(nil)
)

func NewIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating find index: %w", err)
	}
	return &Index{idx: idx, articles: make(map[string]*wiki.Article)}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.IncludeTermVectors = true

	extract := bleve.NewTextFieldMapping()
	extract.Analyzer = standard.Name
	extract.Store = false

	categories := bleve.NewTextFieldMapping()
	categories.Analyzer = standard.Name
	categories.Store = false

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("extract", extract)
	dm.AddFieldMappingsAt("categories", categories)

	im.DefaultMapping = dm
	return im
}

func docID(a *wiki.Article) string {
	return strconv.Itoa(a.PageID)
}

// Sync makes the index mirror articles: new pages are indexed and pages no
// longer in the feed are dropped.
func (ix *Index) Sync(articles []*wiki.Article) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	keep := make(map[string]*wiki.Article, len(articles))
	for _, a := range articles {
		if a != nil {
			keep[docID(a)] = a
		}
	}

	batch := ix.idx.NewBatch()
	for id := range ix.articles {
		if _, ok := keep[id]; !ok {
			batch.Delete(id)
		}
	}
	for id, a := range keep {
		if old, ok := ix.articles[id]; ok && old == a {
			continue
		}
		if err := batch.Index(id, map[string]any{
			"title":      a.Title,
			"extract":    a.Extract,
			"categories": strings.Join(a.Categories, " "),
		}); err != nil {
			return fmt.Errorf("indexing page %s: %w", id, err)
		}
	}

	if batch.Size() > 0 {
		if err := ix.idx.Batch(batch); err != nil {
			return fmt.Errorf("updating find index: %w", err)
		}
	}
	ix.articles = keep
	return nil
}

// Search returns up to limit articles matching query, best first.
// Queries shorter than two characters match nothing.
func (ix *Index) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}
	tokens := tokenize(query)
	var qs []bleveQuery.Query
	for _, tok := range tokens {
		qs = append(qs,
			fieldMatch(tok, "title", 4.0),
			fieldPrefix(tok, "title", 3.5),
			fieldMatch(tok, "extract", 1.0),
			fieldPrefix(tok, "extract", 0.8),
			fieldMatch(tok, "categories", 1.5),
		)
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	res, err := ix.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searching find index: %w", err)
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		a, ok := ix.articles[h.ID]
		if !ok {
			continue
		}
		out = append(out, &Result{
			Article: a,
			Score:   h.Score,
			Snippet: bestSnippet(a.Extract, tokens, snippetLength),
		})
	}
	return out, nil
}

func fieldMatch(tok, field string, boost float64) bleveQuery.Query {
	q := bleve.NewMatchQuery(tok)
	q.SetField(field)
	q.SetBoost(boost)
	return q
}

func fieldPrefix(tok, field string, boost float64) bleveQuery.Query {
	q := bleve.NewPrefixQuery(tok)
	q.SetField(field)
	q.SetBoost(boost)
	return q
}

// DocCount reports total documents in the index.
func (ix *Index) DocCount() (int, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	n, err := ix.idx.DocCount()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (ix *Index) Close() error {
	return ix.idx.Close()
}
