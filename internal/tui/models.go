package tui

type View int

const (
	ViewFeed View = iota
	ViewReader
	ViewSearch
	ViewCategories
	ViewFind
)

func (v View) String() string {
	switch v {
	case ViewFeed:
		return "feed"
	case ViewReader:
		return "reader"
	case ViewSearch:
		return "search"
	case ViewCategories:
		return "categories"
	case ViewFind:
		return "find"
	default:
		return "unknown"
	}
}
