package tui

import (
	"errors"
	"fmt"

	"github.com/pders01/wscroll/internal/category"
	"github.com/pders01/wscroll/internal/feed"
	"github.com/pders01/wscroll/internal/wiki"
)

// wrapErr formats an error with a contextual prefix.
func wrapErr(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// userMessage is the short status-bar text for err.
func userMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, feed.ErrBusy):
		return MsgStillLoading
	case errors.Is(err, category.ErrUnknown):
		return "Unknown category"
	case errors.Is(err, wiki.ErrFetchFailed):
		return "Could not reach Wikipedia: " + err.Error()
	default:
		return err.Error()
	}
}
