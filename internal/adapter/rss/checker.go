package rss

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/couchcryptid/weather-digest/internal/domain"
)

// Checker inspects a written feed file.
type Checker struct {
	path string
}

// NewChecker creates a checker for the feed at path.
func NewChecker(path string) *Checker {
	return &Checker{path: path}
}

// Parse reads and parses the feed file.
func (c *Checker) Parse(_ context.Context) (*gofeed.Feed, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("open feed: %w", err)
	}
	defer f.Close()

	feed, err := gofeed.NewParser().Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

// CheckReadiness reports an error until a feed with exactly one item exists.
func (c *Checker) CheckReadiness(ctx context.Context) error {
	feed, err := c.Parse(ctx)
	if err != nil {
		return err
	}
	if len(feed.Items) != 1 {
		return fmt.Errorf("feed has %d items, want 1", len(feed.Items))
	}
	return nil
}

// Problems lists the ways the feed deviates from the published shape.
func Problems(feed *gofeed.Feed) []string {
	var out []string
	if feed.FeedType != "rss" {
		out = append(out, fmt.Sprintf("feed type %q, want rss", feed.FeedType))
	}
	if len(feed.Items) != 1 {
		out = append(out, fmt.Sprintf("%d items, want exactly 1", len(feed.Items)))
	}
	for _, it := range feed.Items {
		if strings.TrimSpace(it.Title) == "" {
			out = append(out, "item title is empty")
		}
		if !strings.HasPrefix(it.GUID, "weather-") {
			out = append(out, fmt.Sprintf("guid %q lacks the weather- prefix", it.GUID))
		}
		if it.PublishedParsed == nil {
			out = append(out, fmt.Sprintf("pubDate %q does not parse", it.Published))
		} else if want := domain.GUIDFor(*it.PublishedParsed); it.GUID != want {
			out = append(out, fmt.Sprintf("guid %q does not match pubDate (want %q)", it.GUID, want))
		}
		desc := strings.TrimSpace(it.Description)
		if desc == "" {
			out = append(out, "item description is empty")
		}
		if strings.Contains(desc, domain.NoAlertsLine) && alertSectionPresent(desc) {
			out = append(out, "description reports no alerts alongside an alert section")
		}
	}
	return out
}

func alertSectionPresent(desc string) bool {
	return strings.Contains(desc, domain.AlertsHeader) ||
		strings.Contains(desc, domain.AlertSummaryHeader) ||
		strings.Contains(desc, domain.SummaryFailedNotice)
}
