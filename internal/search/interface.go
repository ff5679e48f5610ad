package search

import "github.com/pders01/wscroll/internal/wiki"

// Searcher is the find-in-feed API used by the TUI.
type Searcher interface {
	Sync(articles []*wiki.Article) error
	Search(query string, limit int) ([]*Result, error)
}

// Result is a single find hit.
type Result struct {
	Article *wiki.Article
	Score   float64
	Snippet string
}

// DebugStatser provides lightweight stats for visibility/debugging.
type DebugStatser interface {
	DocCount() (int, error)
}
