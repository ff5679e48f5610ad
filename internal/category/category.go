package category

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

//go:embed categories.toml
var categoriesTOML []byte

var ErrUnknown = errors.New("unknown category")

type Category struct {
	ID          string   `toml:"id"`
	Name        string   `toml:"name"`
	SearchTerms []string `toml:"search_terms"`
	Color       string   `toml:"color"`
}

// PrimaryTerm is the term a category selection searches for.
func (c Category) PrimaryTerm() string {
	if len(c.SearchTerms) == 0 {
		return c.ID
	}
	return c.SearchTerms[0]
}

type table struct {
	Categories []Category `toml:"category"`
}

var (
	loadOnce sync.Once
	all      []Category
	byID     map[string]Category
)

func load() {
	var t table
	if err := toml.Unmarshal(categoriesTOML, &t); err != nil {
		panic(fmt.Sprintf("parsing categories.toml: %v", err))
	}
	all = t.Categories
	byID = make(map[string]Category, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}
}

// All returns the categories in display order.
func All() []Category {
	loadOnce.Do(load)
	out := make([]Category, len(all))
	copy(out, all)
	return out
}

func Lookup(id string) (Category, error) {
	loadOnce.Do(load)
	c, ok := byID[id]
	if !ok {
		return Category{}, fmt.Errorf("%w: %q", ErrUnknown, id)
	}
	return c, nil
}
