package tui

import (
	"fmt"
	"strings"
)

// Canonical short status messages used across the app.
const (
	MsgLoadingRandom  = "Loading random articles…"
	MsgLoadingMore    = "Loading more…"
	MsgLoadingArticle = "Loading article…"
	MsgStillLoading   = "Still loading, try again in a moment"
	MsgEndOfResults   = "End of results"
	MsgNoArticles     = "No articles found"
	MsgNoResults      = "No results"
	MsgSummaryOnly    = "Full text unavailable, showing summary"
	MsgNoImage        = "This article has no image"
)

func MsgSearching(query string) string {
	return fmt.Sprintf("Searching '%s'…", strings.TrimSpace(query))
}

func MsgLoadedCount(n int) string {
	if n == 1 {
		return "1 article"
	}
	return fmt.Sprintf("%d articles", n)
}

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

func MsgOpening(target string) string {
	return "Opening " + truncateMiddle(target, 60)
}
