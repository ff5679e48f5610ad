package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/pders01/wscroll/internal/feed"
	"github.com/pders01/wscroll/internal/wiki"
)

type loadFunc func(ctx context.Context) (feed.State, error)

// startLoad marks the feed busy and runs load off the update loop.
func (a *App) startLoad(reset bool, status string, load loadFunc) tea.Cmd {
	a.state.Loading = true
	a.setStatus(status, StatusInfo)
	return tea.Batch(a.spinner.Tick, func() tea.Msg {
		s, err := load(context.Background())
		return feedLoadedMsg{state: s, reset: reset, err: err}
	})
}

func (a *App) goHome() tea.Cmd {
	return a.startLoad(true, MsgLoadingRandom, a.controller.GoHome)
}

func (a *App) searchFeed(query string) tea.Cmd {
	return a.startLoad(true, MsgSearching(query), func(ctx context.Context) (feed.State, error) {
		return a.controller.Search(ctx, query)
	})
}

func (a *App) selectCategory(id string) tea.Cmd {
	return a.startLoad(true, MsgSearching(id), func(ctx context.Context) (feed.State, error) {
		return a.controller.SelectCategory(ctx, id)
	})
}

func (a *App) loadNextPage() tea.Cmd {
	return a.startLoad(false, MsgLoadingMore, a.controller.LoadNextPage)
}

// maybePrefetch continues the feed once the cursor is within the configured
// threshold of the last item.
func (a *App) maybePrefetch() tea.Cmd {
	n := len(a.feedList.Items())
	if n == 0 || a.state.Loading || !a.state.HasMore {
		return nil
	}
	remaining := n - 1 - a.feedList.Index()
	if remaining > a.config.UI.PrefetchThreshold {
		return nil
	}
	return a.loadNextPage()
}

// openArticle switches to the reader and fetches the full text.
func (a *App) openArticle(article *wiki.Article, fromFind bool) tea.Cmd {
	a.currentArticle = article
	a.cameFromFind = fromFind
	a.loadingArticle = true
	a.previousView = a.view
	a.view = ViewReader
	a.setStatus(MsgLoadingArticle, StatusInfo)

	ctrl, width, siteURL := a.controller, a.wrapWidth(), a.config.API.SiteURL
	return tea.Batch(a.spinner.Tick, func() tea.Msg {
		full, err := ctrl.Expand(context.Background(), article)
		return renderArticleMsg(article.PageID, full, err, true, width, siteURL)
	})
}

// renderArticle re-renders the current article, e.g. after a resize.
func (a *App) renderArticle(article *wiki.Article) tea.Cmd {
	width, siteURL := a.wrapWidth(), a.config.API.SiteURL
	return func() tea.Msg {
		return renderArticleMsg(article.PageID, article, nil, false, width, siteURL)
	}
}

// renderArticleMsg runs off the update loop, so it only sees the values passed in.
func renderArticleMsg(pageID int, article *wiki.Article, fetchErr error, resetScroll bool, width int, siteURL string) articleRenderedMsg {
	msg := articleRenderedMsg{pageID: pageID, article: article, err: fetchErr, resetScroll: resetScroll}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		msg.content = "Error initializing renderer: " + err.Error()
		return msg
	}

	rendered, err := r.Render(articleMarkdown(article, siteURL))
	if err != nil {
		msg.content = fmt.Sprintf("Failed to render article: %s\n\nPress Escape to go back.", err.Error())
		return msg
	}
	msg.content = rendered
	return msg
}

// articleMarkdown lays out the reader page: title, coordinates, extract,
// categories and links.
func articleMarkdown(article *wiki.Article, siteURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", article.Title)

	if c, ok := article.PrimaryCoordinate(); ok {
		fmt.Fprintf(&b, "*📍 %.4f, %.4f*\n\n", c.Lat, c.Lon)
	}

	extract := strings.TrimSpace(article.Extract)
	if extract == "" {
		extract = "_No text available for this article._"
	}
	for _, para := range strings.Split(extract, "\n") {
		if para = strings.TrimSpace(para); para != "" {
			b.WriteString(para)
			b.WriteString("\n\n")
		}
	}

	b.WriteString("---\n\n")

	if len(article.Categories) > 0 {
		fmt.Fprintf(&b, "**Categories:** %s\n\n", strings.Join(article.Categories, " · "))
	}
	if img := imageURL(article); img != "" {
		fmt.Fprintf(&b, "[Image](%s)\n\n", img)
	}
	fmt.Fprintf(&b, "[Read on Wikipedia](%s)\n", wiki.PageURL(siteURL, article.Title))

	return b.String()
}

// imageURL prefers the original upload over the thumbnail.
func imageURL(article *wiki.Article) string {
	if article.Original != nil && article.Original.Source != "" {
		return article.Original.Source
	}
	if article.Thumbnail != nil {
		return article.Thumbnail.Source
	}
	return ""
}

func (a *App) openURL(target string) tea.Cmd {
	return func() tea.Msg {
		if err := a.launcher.Open(target); err != nil {
			return errorMsg{err: wrapErr("opening "+truncateMiddle(target, 60), err)}
		}
		return openedMsg{target: target}
	}
}

func (a *App) performFind(query string) tea.Cmd {
	if a.finder == nil {
		return nil
	}
	finder := a.finder
	return func() tea.Msg {
		results, err := finder.Search(query, findLimit)
		if err != nil {
			return errorMsg{err: wrapErr("find", err)}
		}
		return findResultsMsg{query: query, results: results}
	}
}
