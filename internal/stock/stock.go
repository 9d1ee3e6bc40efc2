// Package stock defines the contract for stock media providers.
package stock

import "context"

// MediaType distinguishes stock videos from stock photos.
type MediaType string

const (
	MediaVideo MediaType = "video"
	MediaPhoto MediaType = "photo"
)

// Candidate is one downloadable search result.
type Candidate struct {
	ID       int64     `json:"id"`
	Type     MediaType `json:"type"`
	URL      string    `json:"url"`
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Duration float64   `json:"duration,omitempty"`
	Author   string    `json:"author,omitempty"`
	PageURL  string    `json:"page_url,omitempty"`
}

// Provider searches and downloads stock media. An empty result set is not
// an error.
type Provider interface {
	SearchVideos(ctx context.Context, query, orientation string, count int) ([]Candidate, error)
	SearchPhotos(ctx context.Context, query, orientation string, count int) ([]Candidate, error)
	Download(ctx context.Context, candidate Candidate, dest string) error
}
