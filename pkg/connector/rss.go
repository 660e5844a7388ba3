package connector

import (
	"context"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/fathomhq/mediacore/pkg/httpclient"
)

// rssFeed is the minimal RSS 2.0 shape this connector needs. No RSS/Atom
// parsing library appears anywhere in the retrieved example pack (checked
// across every go.mod), so this connector decodes the feed directly with
// encoding/xml rather than guessing at an unseen dependency.
type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	GUID      string `xml:"guid"`
	Link      string `xml:"link"`
	PubDate   string `xml:"pubDate"`
	Title     string `xml:"title"`
	Enclosure struct {
		URL string `xml:"url,attr"`
	} `xml:"enclosure"`
}

// rssPubDateLayouts covers the date formats RSS feeds commonly use; RFC1123Z
// is the spec-mandated one but real-world feeds drift.
var rssPubDateLayouts = []string{time.RFC1123Z, time.RFC1123, time.RFC3339}

// RSSConnector discovers new items from an RSS feed URL, tracking
// `watch.LastSeenExternalID` to return only items published after it.
type RSSConnector struct {
	client *httpclient.Client
}

// NewRSSConnector builds a connector over the shared resilient HTTP client
// (SSRF validation, breaker, retry all apply to feed fetches).
func NewRSSConnector(client *httpclient.Client) *RSSConnector {
	return &RSSConnector{client: client}
}

func (c *RSSConnector) Discover(ctx context.Context, watch WatchItem) ([]DiscoveryItem, error) {
	resp, err := c.client.Get(ctx, watch.Handle)
	if err != nil {
		return nil, fmt.Errorf("connector: fetch rss feed: %w", err)
	}

	var feed rssFeed
	if err := xml.Unmarshal(resp.Body, &feed); err != nil {
		return nil, fmt.Errorf("connector: parse rss feed: %w", err)
	}

	// Feeds list newest-first; collect items until the last-seen marker is
	// reached, since everything at or past it was already discovered.
	var items []DiscoveryItem
	for _, it := range feed.Channel.Items {
		externalID := it.GUID
		if externalID == "" {
			externalID = it.Link
		}
		if externalID == watch.LastSeenExternalID {
			break
		}
		url := it.Link
		if url == "" {
			url = it.Enclosure.URL
		}
		items = append(items, DiscoveryItem{
			ExternalID:  externalID,
			URL:         url,
			PublishedAt: parseRSSPubDate(it.PubDate),
		})
	}
	return items, nil
}

func (c *RSSConnector) FetchMetadata(ctx context.Context, item DiscoveryItem) (Metadata, error) {
	return nil, nil
}

func (c *RSSConnector) FetchTranscript(ctx context.Context, item DiscoveryItem) (string, error) {
	return "", nil
}

func parseRSSPubDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range rssPubDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
