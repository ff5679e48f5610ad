package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/wscroll/internal/config"
	"github.com/pders01/wscroll/internal/validation"
	"github.com/pders01/wscroll/internal/wiki"
)

type keyBindings struct {
	Quit       key.Binding
	Search     key.Binding
	Categories key.Binding
	Home       key.Binding
	Find       key.Binding
	Open       key.Binding
	OpenImage  key.Binding
	Back       key.Binding
	Help       key.Binding
	Select     key.Binding
}

// viewKeyMap adapts a per-view binding list to help.KeyMap.
type viewKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (m viewKeyMap) ShortHelp() []key.Binding  { return m.short }
func (m viewKeyMap) FullHelp() [][]key.Binding { return m.full }

type KeyHandler struct {
	app         *App
	config      *config.Config
	modifierKey string
	keys        keyBindings
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	modifierKey := cfg.Keys.Modifier + "+"
	b := cfg.Keys.Bindings
	action := func(k, desc string) key.Binding {
		return key.NewBinding(key.WithKeys(modifierKey+k), key.WithHelp(modifierKey+k, desc))
	}
	plain := func(k, desc string, extra ...string) key.Binding {
		return key.NewBinding(key.WithKeys(append([]string{k}, extra...)...), key.WithHelp(k, desc))
	}

	return &KeyHandler{
		app:         app,
		config:      cfg,
		modifierKey: modifierKey,
		keys: keyBindings{
			Quit:       plain(b.Quit, "quit", "ctrl+c"),
			Search:     action(b.Search, "search"),
			Categories: action(b.Categories, "categories"),
			Home:       action(b.Home, "random"),
			Find:       action(b.Find, "find"),
			Open:       action(b.Open, "open in browser"),
			OpenImage:  action(b.OpenImage, "open image"),
			Back:       plain(b.Back, "back"),
			Help:       plain(b.Help, "more"),
			Select:     plain("enter", "read"),
		},
	}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(msg); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	switch kh.app.view {
	case ViewSearch:
		return kh.app.searchInput.Focused()
	case ViewFind:
		return kh.app.findInput.Focused()
	default:
		return false
	}
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return kh.app, tea.Quit
	case "esc":
		return kh.navigateBack()
	case "enter":
		return kh.handleTextInputEnter()
	case "tab", "down":
		if kh.app.view == ViewFind && len(kh.app.findList.Items()) > 0 {
			kh.app.findInput.Blur()
			kh.app.findList.Select(0)
			return kh.app, nil
		}
		return kh.delegateToTextInput(msg)
	default:
		return kh.delegateToTextInput(msg)
	}
}

func (kh *KeyHandler) handleTextInputEnter() (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewSearch:
		query := validation.SanitizeQuery(kh.app.searchInput.Value())
		if query == "" {
			return kh.app, nil
		}
		kh.app.searchInput.Blur()
		kh.app.view = ViewFeed
		return kh.app, kh.app.searchFeed(query)

	case ViewFind:
		if i, ok := kh.app.findList.SelectedItem().(findItem); ok {
			return kh.app, kh.app.openArticle(i.result.Article, true)
		}
		return kh.app, nil

	default:
		return kh.app, nil
	}
}

func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch kh.app.view {
	case ViewSearch:
		kh.app.searchInput, cmd = kh.app.searchInput.Update(msg)
		return kh.app, cmd

	case ViewFind:
		prev := kh.app.findInput.Value()
		kh.app.findInput, cmd = kh.app.findInput.Update(msg)
		if q := kh.app.findInput.Value(); q != prev {
			if len(validation.SanitizeQuery(q)) < 2 {
				return kh.app, tea.Batch(cmd, kh.app.findList.SetItems([]list.Item{}))
			}
			return kh.app, tea.Batch(cmd, kh.app.performFind(q))
		}
		return kh.app, cmd

	default:
		return kh.app, nil
	}
}

// handleCustomKeys handles only our custom action keys
func (kh *KeyHandler) handleCustomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	k := kh.keys

	switch {
	case key.Matches(msg, k.Quit):
		return kh.app, tea.Quit, true
	case key.Matches(msg, k.Back):
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case key.Matches(msg, k.Help):
		kh.app.help.ShowAll = !kh.app.help.ShowAll
		return kh.app, nil, true
	case key.Matches(msg, k.Search):
		model, cmd := kh.enterSearchMode()
		return model, cmd, true
	case key.Matches(msg, k.Categories):
		kh.app.previousView = kh.app.view
		kh.app.view = ViewCategories
		return kh.app, nil, true
	case key.Matches(msg, k.Home):
		kh.app.view = ViewFeed
		return kh.app, kh.app.goHome(), true
	case key.Matches(msg, k.Find):
		model, cmd := kh.enterFindMode()
		return model, cmd, true
	}

	switch kh.app.view {
	case ViewFeed:
		return kh.handleArticleKeys(msg, kh.selectedFeedArticle())
	case ViewReader:
		return kh.handleArticleKeys(msg, kh.app.currentArticle)
	default:
		return kh.app, nil, false
	}
}

// handleArticleKeys covers the open actions shared by the feed and the reader.
func (kh *KeyHandler) handleArticleKeys(msg tea.KeyMsg, article *wiki.Article) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, kh.keys.Open):
		if article == nil {
			return kh.app, nil, true
		}
		return kh.app, kh.app.openURL(wiki.PageURL(kh.config.API.SiteURL, article.Title)), true
	case key.Matches(msg, kh.keys.OpenImage):
		if article == nil {
			return kh.app, nil, true
		}
		img := imageURL(article)
		if img == "" {
			kh.app.setStatus(MsgNoImage, StatusWarn)
			return kh.app, nil, true
		}
		return kh.app, kh.app.openURL(img), true
	}
	return kh.app, nil, false
}

func (kh *KeyHandler) selectedFeedArticle() *wiki.Article {
	if i, ok := kh.app.feedList.SelectedItem().(articleItem); ok {
		return i.article
	}
	return nil
}

// delegateToCharm lets Charm handle all keys we don't intercept
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch kh.app.view {
	case ViewFeed:
		if key.Matches(msg, kh.keys.Select) {
			if article := kh.selectedFeedArticle(); article != nil {
				return kh.app, kh.app.openArticle(article, false)
			}
			return kh.app, nil
		}
		kh.app.feedList, cmd = kh.app.feedList.Update(msg)
		return kh.app, tea.Batch(cmd, kh.app.maybePrefetch())

	case ViewCategories:
		if key.Matches(msg, kh.keys.Select) {
			if i, ok := kh.app.categoryList.SelectedItem().(categoryItem); ok {
				kh.app.view = ViewFeed
				return kh.app, kh.app.selectCategory(i.cat.ID)
			}
			return kh.app, nil
		}
		kh.app.categoryList, cmd = kh.app.categoryList.Update(msg)
		return kh.app, cmd

	case ViewFind:
		switch msg.String() {
		case "tab", "shift+tab", "/":
			return kh.app, kh.app.findInput.Focus()
		case "up":
			if kh.app.findList.Index() == 0 {
				return kh.app, kh.app.findInput.Focus()
			}
		case "enter":
			if i, ok := kh.app.findList.SelectedItem().(findItem); ok {
				return kh.app, kh.app.openArticle(i.result.Article, true)
			}
			return kh.app, nil
		}
		kh.app.findList, cmd = kh.app.findList.Update(msg)
		return kh.app, cmd

	case ViewReader:
		kh.app.viewport, cmd = kh.app.viewport.Update(msg)
		return kh.app, cmd

	default:
		return kh.app, nil
	}
}

// navigateBack implements back navigation; from the feed it quits.
func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewSearch:
		kh.app.searchInput.Blur()
		kh.app.searchInput.Reset()
		kh.app.view = kh.app.previousView
		return kh.app, nil

	case ViewCategories:
		kh.app.view = kh.app.previousView
		return kh.app, nil

	case ViewFind:
		kh.app.findInput.Blur()
		kh.app.view = ViewFeed
		return kh.app, nil

	case ViewReader:
		kh.app.loadingArticle = false
		if kh.app.cameFromFind {
			kh.app.cameFromFind = false
			kh.app.view = ViewFind
			return kh.app, nil
		}
		kh.app.view = ViewFeed
		kh.app.clearStatus()
		return kh.app, nil

	default:
		return kh.app, tea.Quit
	}
}

func (kh *KeyHandler) enterSearchMode() (tea.Model, tea.Cmd) {
	if kh.app.view != ViewSearch {
		kh.app.previousView = kh.app.view
	}
	kh.app.view = ViewSearch
	kh.app.searchInput.Reset()
	return kh.app, kh.app.searchInput.Focus()
}

func (kh *KeyHandler) enterFindMode() (tea.Model, tea.Cmd) {
	if kh.app.finder == nil {
		kh.app.setStatus("Find is unavailable", StatusWarn)
		return kh.app, nil
	}
	kh.app.previousView = kh.app.view
	kh.app.view = ViewFind
	kh.app.findInput.Reset()
	kh.app.findList.SetItems([]list.Item{})
	return kh.app, kh.app.findInput.Focus()
}

// keyMap returns the bindings shown in the status bar for the current view.
func (kh *KeyHandler) keyMap() viewKeyMap {
	k := kh.keys
	nav := []key.Binding{k.Search, k.Categories, k.Home, k.Find}

	switch kh.app.view {
	case ViewFeed:
		return viewKeyMap{
			short: []key.Binding{k.Select, k.Search, k.Categories, k.Help},
			full:  [][]key.Binding{{k.Select, k.Open, k.OpenImage}, nav, {k.Help, k.Quit}},
		}
	case ViewReader:
		return viewKeyMap{
			short: []key.Binding{k.Open, k.OpenImage, k.Back, k.Help},
			full:  [][]key.Binding{{k.Open, k.OpenImage}, nav, {k.Back, k.Help, k.Quit}},
		}
	case ViewCategories:
		pick := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "browse"))
		return viewKeyMap{short: []key.Binding{pick, k.Back}, full: [][]key.Binding{{pick, k.Back}}}
	default:
		return viewKeyMap{short: []key.Binding{k.Back}, full: [][]key.Binding{{k.Back}}}
	}
}
