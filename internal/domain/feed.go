package domain

import (
	"time"
)

// guidLayout formats the UTC publish time into the item GUID.
const guidLayout = "20060102T150405"

// FeedItem is the single entry of the published feed.
type FeedItem struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PubDate     time.Time `json:"pub_date"`
	GUID        string    `json:"guid"`
}

// NewFeedItem builds the feed item for a digest published at pubDate.
func NewFeedItem(d Digest, pubDate time.Time) FeedItem {
	return FeedItem{
		Title:       d.Title,
		Description: d.Body,
		PubDate:     pubDate,
		GUID:        GUIDFor(pubDate),
	}
}

// GUIDFor derives the item GUID from the publish time.
func GUIDFor(pubDate time.Time) string {
	return "weather-" + pubDate.UTC().Format(guidLayout)
}
