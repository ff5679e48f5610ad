package wiki

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

// Featured returns up to limit entries of the featured-article Atom feed in
// feed order. limit <= 0 returns all entries.
func (c *Client) Featured(ctx context.Context, limit int) ([]FeaturedItem, error) {
	body, err := c.get(ctx, "featured", map[string]string{
		"action":     "featuredfeed",
		"feed":       "featured",
		"feedformat": "atom",
	})
	if err != nil {
		return nil, err
	}

	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: featured: parsing feed: %w", ErrFetchFailed, err)
	}

	items := make([]FeaturedItem, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		if limit > 0 && len(items) >= limit {
			break
		}
		items = append(items, featuredItem(it))
	}
	return items, nil
}

func featuredItem(it *gofeed.Item) FeaturedItem {
	fi := FeaturedItem{
		Title:   strings.TrimSpace(it.Title),
		Link:    it.Link,
		Summary: it.Description,
	}
	if fi.Summary == "" {
		fi.Summary = it.Content
	}
	if it.PublishedParsed != nil {
		fi.Published = *it.PublishedParsed
	} else if it.UpdatedParsed != nil {
		fi.Published = *it.UpdatedParsed
	}
	return fi
}
