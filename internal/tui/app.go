package tui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/wscroll/internal/category"
	"github.com/pders01/wscroll/internal/config"
	"github.com/pders01/wscroll/internal/debuglog"
	"github.com/pders01/wscroll/internal/feed"
	"github.com/pders01/wscroll/internal/media"
	"github.com/pders01/wscroll/internal/search"
	"github.com/pders01/wscroll/internal/validation"
	"github.com/pders01/wscroll/internal/wiki"
)

// Opener hands a URL to an external program.
type Opener interface {
	Open(target string) error
}

const findLimit = 20

type App struct {
	config     *config.Config
	controller *feed.Controller
	launcher   Opener
	finder     search.Searcher
	keyHandler *KeyHandler

	feedList     list.Model
	categoryList list.Model
	findList     list.Model
	searchInput  textinput.Model
	findInput    textinput.Model
	viewport     viewport.Model
	spinner      spinner.Model
	help         help.Model

	view         View
	previousView View
	state        feed.State
	started      bool

	currentArticle *wiki.Article
	loadingArticle bool
	cameFromFind   bool

	status     string
	statusKind StatusKind
	err        error

	width  int
	height int
}

// NewApp wires a controller over src. A nil finder disables find-in-feed.
func NewApp(src feed.Source, cfg *config.Config) *App {
	ApplyTheme(cfg.UI.Colors)

	feedList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	feedList.Title = "› random"
	feedList.SetShowStatusBar(false)
	feedList.SetFilteringEnabled(false)
	feedList.SetShowHelp(false)

	categoryList := list.New(categoryItems(), list.NewDefaultDelegate(), 0, 0)
	categoryList.Title = "› categories"
	categoryList.SetShowStatusBar(false)
	categoryList.SetFilteringEnabled(false)
	categoryList.SetShowHelp(false)

	findList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	findList.Title = "› matches"
	findList.SetShowStatusBar(false)
	findList.SetFilteringEnabled(false)
	findList.SetShowHelp(false)

	si := textinput.New()
	si.Placeholder = "Search Wikipedia..."
	si.CharLimit = validation.MaxQueryLength

	fi := textinput.New()
	fi.Placeholder = "Find in loaded articles..."
	fi.CharLimit = validation.MaxQueryLength

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(AccentColor)

	var finder search.Searcher
	if idx, err := search.NewIndex(); err == nil {
		finder = idx
	} else {
		debuglog.Warnf("find-in-feed disabled: %v", err)
	}

	app := &App{
		config:       cfg,
		controller:   feed.NewController(src, feed.WithPageSize(cfg.API.PageSize)),
		launcher:     media.NewLauncher(cfg),
		finder:       finder,
		feedList:     feedList,
		categoryList: categoryList,
		findList:     findList,
		searchInput:  si,
		findInput:    fi,
		viewport:     viewport.New(0, 0),
		spinner:      sp,
		help:         help.New(),
		view:         ViewFeed,
		previousView: ViewFeed,
		state:        feed.State{HasMore: true},
	}

	app.keyHandler = NewKeyHandler(app, cfg)

	return app
}

// Close releases the find index.
func (a *App) Close() error {
	if c, ok := a.finder.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// wrapWidth is the reader word-wrap width for the current window.
func (a *App) wrapWidth() int {
	art := a.config.UI.Article
	wordWrapWidth := (a.width * 9) / 10
	if wordWrapWidth > art.WordWrapMaxWidth {
		wordWrapWidth = art.WordWrapMaxWidth
	}
	if wordWrapWidth < art.WordWrapMinWidth {
		wordWrapWidth = art.WordWrapMinWidth
	}
	if a.width > 0 && a.width < 50 {
		wordWrapWidth = max(a.width-4, 20)
	}
	return wordWrapWidth
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		a.goHome(),
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.feedList.SetSize(msg.Width, max(msg.Height-4, 3))
		a.categoryList.SetSize(msg.Width, max(msg.Height-3, 3))
		a.findList.SetSize(msg.Width, max(msg.Height-9, 3))
		a.viewport.Width = msg.Width
		a.viewport.Height = max(msg.Height-3, 1)
		a.help.Width = msg.Width

		inputWidth := msg.Width - 8
		if inputWidth < 10 {
			inputWidth = msg.Width - 4
		}
		a.searchInput.Width = inputWidth
		a.findInput.Width = inputWidth

		if a.view == ViewReader && a.currentArticle != nil && !a.loadingArticle {
			cmds = append(cmds, a.renderArticle(a.currentArticle))
		}

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case spinner.TickMsg:
		if !a.state.Loading && !a.loadingArticle {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case feedLoadedMsg:
		return a, a.applyFeed(msg)

	case articleRenderedMsg:
		if a.view == ViewReader && a.currentArticle != nil && msg.pageID == a.currentArticle.PageID {
			a.currentArticle = msg.article
			a.loadingArticle = false
			a.viewport.SetContent(msg.content)
			if msg.resetScroll {
				a.viewport.GotoTop()
			}
			if msg.err != nil {
				a.setStatus(MsgSummaryOnly, StatusWarn)
			} else {
				a.clearStatus()
			}
		}

	case findResultsMsg:
		if a.view == ViewFind && msg.query == a.findInput.Value() {
			items := make([]list.Item, len(msg.results))
			for i, r := range msg.results {
				items[i] = findItem{result: r}
			}
			cmds = append(cmds, a.findList.SetItems(items))
			if len(msg.results) == 0 {
				a.setStatus(MsgNoResults, StatusInfo)
			} else {
				a.setStatus(MsgResultsCount(len(msg.results)), StatusInfo)
			}
		}

	case openedMsg:
		a.setStatus(MsgOpening(msg.target), StatusSuccess)

	case errorMsg:
		a.err = msg.err
	}

	switch a.view {
	case ViewReader:
		switch msg.(type) {
		case tea.WindowSizeMsg, tea.MouseMsg:
			var cmd tea.Cmd
			a.viewport, cmd = a.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return a, tea.Batch(cmds...)
}

// applyFeed installs a finished load and keeps the find index in step.
func (a *App) applyFeed(msg feedLoadedMsg) tea.Cmd {
	if errors.Is(msg.err, feed.ErrBusy) {
		a.setStatus(MsgStillLoading, StatusWarn)
		return nil
	}

	a.started = true
	a.state = msg.state
	a.state.Loading = false

	items := make([]list.Item, len(a.state.Articles))
	maxDesc := a.config.UI.Article.MaxDescriptionLength
	for i, art := range a.state.Articles {
		items[i] = articleItem{article: art, maxDesc: maxDesc}
	}
	cmd := a.feedList.SetItems(items)
	if msg.reset {
		a.feedList.Select(0)
	}
	a.feedList.Title = feedTitle(a.state)

	if a.finder != nil {
		if err := a.finder.Sync(a.state.Articles); err != nil {
			debuglog.Warnf("find index sync: %v", err)
		} else if ds, ok := a.finder.(search.DebugStatser); ok {
			if n, err := ds.DocCount(); err == nil {
				debuglog.Debugf("find index holds %d articles", n)
			}
		}
	}

	switch {
	case msg.err != nil:
		a.err = wrapErr("loading articles", msg.err)
		a.setStatus(userMessage(msg.err), StatusError)
	case len(a.state.Articles) == 0:
		a.err = nil
		a.setStatus(MsgNoArticles, StatusInfo)
	default:
		a.err = nil
		a.setStatus(MsgLoadedCount(len(a.state.Articles)), StatusInfo)
	}
	return cmd
}

func feedTitle(s feed.State) string {
	if s.Random() {
		return "› random"
	}
	return "› " + s.Query
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status = text
	a.statusKind = kind
}

func (a *App) clearStatus() {
	a.status = ""
	a.statusKind = StatusInfo
}

func (a *App) contentHeight() int {
	return max(a.height-3, 1)
}

func (a *App) View() string {
	var content string

	switch a.view {
	case ViewFeed:
		content = a.feedView()
	case ViewReader:
		if a.loadingArticle {
			content = renderCentered(a.width, a.contentHeight(),
				a.spinner.View()+" "+renderMuted(MsgLoadingArticle))
		} else {
			content = a.viewport.View()
		}
	case ViewSearch:
		content = renderCentered(a.width, a.contentHeight(),
			lipgloss.JoinVertical(
				lipgloss.Center,
				TitleStyle.Render("› search wikipedia"),
				"",
				renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), a.searchInput.Width),
				"",
				renderHelp("Enter: search • Esc: cancel"),
			))
	case ViewCategories:
		content = a.categoryList.View()
	case ViewFind:
		helpText := "Type to find • Tab/↓: results • Esc: back"
		if !a.findInput.Focused() {
			helpText = "↑↓: navigate • Enter: read • Tab: find box • Esc: back"
		}
		content = lipgloss.NewStyle().
			Width(a.width).
			Height(a.contentHeight()).
			MaxHeight(a.contentHeight()).
			Render(lipgloss.JoinVertical(
				lipgloss.Top,
				renderHeader("› find in feed", fmt.Sprintf("%d articles loaded", len(a.state.Articles)), a.width),
				"",
				renderInputFrame(a.findInput.View(), a.findInput.Focused(), a.findInput.Width),
				renderMuted(helpText),
				"",
				a.findList.View(),
			))
	}

	separator := SeparatorStyle.Render(strings.Repeat("─", max(a.width-1, 0)))
	return lipgloss.JoinVertical(lipgloss.Top, content, separator, a.statusBar())
}

func (a *App) feedView() string {
	if len(a.state.Articles) == 0 {
		switch {
		case !a.started || a.state.Loading:
			return renderCentered(a.width, a.contentHeight(),
				lipgloss.JoinVertical(lipgloss.Center, GetWelcomeMessage(), "", a.spinner.View()))
		default:
			return renderCentered(a.width, a.contentHeight(), renderMuted(MsgNoArticles))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Top, a.feedList.View(), a.feedFooter())
}

// feedFooter is the line under the list: spinner while loading, end marker
// once the feed is exhausted.
func (a *App) feedFooter() string {
	switch {
	case a.state.Loading:
		return FooterStyle.Render(a.spinner.View() + " " + MsgLoadingMore)
	case !a.state.HasMore:
		return FooterStyle.Render("· " + MsgEndOfResults + " ·")
	default:
		return ""
	}
}

func (a *App) statusBar() string {
	text, kind := a.status, a.statusKind
	if text == "" && a.err != nil {
		text, kind = userMessage(a.err), StatusError
	}

	bar := a.help.View(a.keyHandler.keyMap())
	if text != "" {
		bar = kind.style().Render(truncateEnd(text, max(a.width/2, 20))) + "  " + bar
	}
	return StatusBarStyle.Width(a.width).Render(bar)
}

type articleItem struct {
	article *wiki.Article
	maxDesc int
}

func (i articleItem) Title() string {
	title := i.article.Title
	if _, ok := i.article.PrimaryCoordinate(); ok {
		title += " ⌖"
	}
	return ArticleTitleStyle.Render(title)
}

func (i articleItem) Description() string {
	desc := oneLine(i.article.Extract)
	if desc == "" {
		desc = "No summary available"
	}
	if i.maxDesc > 0 {
		desc = truncateEnd(desc, i.maxDesc)
	}
	return desc
}

func (i articleItem) FilterValue() string { return i.article.Title }

type categoryItem struct {
	cat category.Category
}

func categoryItems() []list.Item {
	cats := category.All()
	items := make([]list.Item, len(cats))
	for i, c := range cats {
		items[i] = categoryItem{cat: c}
	}
	return items
}

func (i categoryItem) Title() string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(i.cat.Color)).
		Bold(true).
		Render("● " + i.cat.Name)
}

func (i categoryItem) Description() string {
	return strings.Join(i.cat.SearchTerms, ", ")
}

func (i categoryItem) FilterValue() string { return i.cat.Name }

type findItem struct {
	result *search.Result
}

func (i findItem) Title() string { return i.result.Article.Title }

func (i findItem) Description() string {
	if i.result.Snippet != "" {
		return i.result.Snippet
	}
	return truncateEnd(oneLine(i.result.Article.Extract), 80)
}

func (i findItem) FilterValue() string { return i.result.Article.Title }

type feedLoadedMsg struct {
	state feed.State
	reset bool
	err   error
}

type articleRenderedMsg struct {
	pageID      int
	article     *wiki.Article
	content     string
	resetScroll bool
	err         error
}

type findResultsMsg struct {
	query   string
	results []*search.Result
}

type openedMsg struct {
	target string
}

type errorMsg struct {
	err error
}
