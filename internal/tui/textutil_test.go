package tui

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pders01/wscroll/internal/category"
	"github.com/pders01/wscroll/internal/feed"
	"github.com/pders01/wscroll/internal/wiki"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		fn    func(string, int) string
		in    string
		limit int
		want  string
	}{
		{"end fits", truncateEnd, "Plato", 10, "Plato"},
		{"end cut", truncateEnd, "Philosophy of mind", 8, "Philoso…"},
		{"end trims space", truncateEnd, "ab cd", 4, "ab…"},
		{"end zero", truncateEnd, "Plato", 0, ""},
		{"end multibyte", truncateEnd, "Ελληνικά", 4, "Ελλ…"},
		{"middle fits", truncateMiddle, "https://x.org", 20, "https://x.org"},
		{"middle cut", truncateMiddle, "abcdefghij", 5, "ab…ij"},
		{"middle one", truncateMiddle, "abcdefghij", 1, "…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn(tt.in, tt.limit))
		})
	}
}

func TestOneLine(t *testing.T) {
	assert.Equal(t, "a b c", oneLine("  a\n\nb\t c "))
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"busy", wrapErr("loading", feed.ErrBusy), MsgStillLoading},
		{"unknown category", fmt.Errorf("%w: nope", category.ErrUnknown), "Unknown category"},
		{"fetch", fmt.Errorf("%w: search: 500", wiki.ErrFetchFailed), "Could not reach Wikipedia: wikipedia fetch failed: search: 500"},
		{"other", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, userMessage(tt.err))
		})
	}
}
