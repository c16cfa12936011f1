// Package catalog provides the item collections displayed by a gallery.
package catalog

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested item id is unknown to a Source.
var ErrNotFound = errors.New("catalog: item not found")

// Item is one media entry. Thumbnail and Full are local paths or http(s) URLs.
type Item struct {
	ID        string   `json:"id"`
	Thumbnail string   `json:"thumbnail"`
	Full      string   `json:"full,omitempty"`
	Width     int      `json:"width,omitempty"`
	Height    int      `json:"height,omitempty"`
	Video     bool     `json:"video,omitempty"`
	Folder    bool     `json:"folder,omitempty"`
	Reviewed  bool     `json:"reviewed,omitempty"`
	Discarded bool     `json:"discarded,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// HasFull reports whether a full resolution reference exists.
func (i Item) HasFull() bool {
	return i.Full != ""
}

// Name returns a display name for the item.
func (i Item) Name() string {
	for j := len(i.ID) - 1; j >= 0; j-- {
		if i.ID[j] == '/' {
			return i.ID[j+1:]
		}
	}
	return i.ID
}

// Detail is the richer per-item metadata fetched lazily.
type Detail struct {
	Item     Item              `json:"item"`
	Size     int64             `json:"size"`
	Modified time.Time         `json:"modified"`
	Extra    map[string]string `json:"extra,omitempty"`
}

// Source lists items and fetches per-item details.
type Source interface {
	List(ctx context.Context) ([]Item, error)
	Detail(ctx context.Context, id string) (Detail, error)
}

// IDs returns the ids of items, in order.
func IDs(items []Item) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}
