// Package rss publishes the digest as a single-item RSS 2.0 feed file.
package rss

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/weather-digest/internal/domain"
	"github.com/couchcryptid/weather-digest/internal/observability"
)

// Channel defaults.
const (
	DefaultTitle       = "天气快讯"
	DefaultDescription = "台北新北天气、大雨城市与预警"
	DefaultLanguage    = "zh-cn"
	DefaultLink        = "https://example.com/rss.xml"

	atomNamespace = "http://www.w3.org/2005/Atom"
)

type document struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	AtomNS  string   `xml:"xmlns:atom,attr"`
	Channel channel  `xml:"channel"`
}

type channel struct {
	Title         string   `xml:"title"`
	Link          string   `xml:"link"`
	Description   string   `xml:"description"`
	AtomLink      atomLink `xml:"atom:link"`
	Language      string   `xml:"language,omitempty"`
	LastBuildDate string   `xml:"lastBuildDate"`
	Item          item     `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type item struct {
	Title       string `xml:"title"`
	Link        string `xml:"link,omitempty"`
	GUID        guid   `xml:"guid"`
	PubDate     string `xml:"pubDate"`
	Description cdata  `xml:"description"`
}

type guid struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// cdata keeps the digest body literal; the encoder splits any "]]>".
type cdata struct {
	Text string `xml:",cdata"`
}

// ChannelInfo describes the feed channel.
type ChannelInfo struct {
	Title       string
	Link        string
	Description string
	Language    string
}

// Writer renders and atomically replaces the feed file.
type Writer struct {
	path    string
	info    ChannelInfo
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a writer for path. Empty channel fields take the defaults.
func NewWriter(path string, info ChannelInfo, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	if info.Title == "" {
		info.Title = DefaultTitle
	}
	if info.Link == "" {
		info.Link = DefaultLink
	}
	if info.Description == "" {
		info.Description = DefaultDescription
	}
	if info.Language == "" {
		info.Language = DefaultLanguage
	}
	return &Writer{path: path, info: info, logger: logger, metrics: metrics}
}

// Path is the feed file location.
func (w *Writer) Path() string { return w.path }

// Render encodes the feed document holding only it.
func (w *Writer) Render(it domain.FeedItem) ([]byte, error) {
	pub := it.PubDate.UTC().Format(time.RFC1123Z)
	doc := document{
		Version: "2.0",
		AtomNS:  atomNamespace,
		Channel: channel{
			Title:         w.info.Title,
			Link:          w.info.Link,
			Description:   w.info.Description,
			AtomLink:      atomLink{Href: w.info.Link, Rel: "self", Type: "application/rss+xml"},
			Language:      w.info.Language,
			LastBuildDate: pub,
			Item: item{
				Title:       w.scrub("title", it.Title),
				Link:        w.info.Link,
				GUID:        guid{IsPermaLink: "false", Value: it.GUID},
				PubDate:     pub,
				Description: cdata{Text: w.scrub("description", it.Description)},
			},
		},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode feed: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// scrub makes s encodable as XML 1.0 character data: invalid UTF-8 becomes
// U+FFFD and characters outside the XML Char range are dropped.
func (w *Writer) scrub(field, s string) string {
	clean := strings.Map(func(r rune) rune {
		if isXMLChar(r) {
			return r
		}
		return -1
	}, strings.ToValidUTF8(s, "\uFFFD"))
	if clean != s && w.logger != nil {
		w.logger.Warn("feed text scrubbed", "field", field, "removed_bytes", len(s)-len(clean))
	}
	return clean
}

func isXMLChar(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}

// Load implements the pipeline loader contract: it replaces the feed file with
// one holding only the given item.
func (w *Writer) Load(_ context.Context, it domain.FeedItem) error {
	data, err := w.Render(it)
	if err != nil {
		return err
	}
	if err := writeAtomic(w.path, data); err != nil {
		return err
	}
	if w.metrics != nil {
		w.metrics.FeedBytes.Set(float64(len(data)))
	}
	w.logger.Info("feed written", "path", w.path, "guid", it.GUID, "bytes", len(data))
	return nil
}

// Name labels the sink in logs and metrics.
func (w *Writer) Name() string { return "rss" }

// writeAtomic writes to a temp file beside path and renames it into place, so
// readers never observe a partial feed.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create feed directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp feed: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp feed: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp feed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp feed: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp feed: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace feed: %w", err)
	}
	return nil
}
