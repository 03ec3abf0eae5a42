// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Date is a calendar date that serializes as "YYYY-MM-DD".
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day.
func NewDate(t time.Time) *Date {
	y, m, d := t.Date()
	return &Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// String formats the date using DateLayout.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON writes the date as a quoted YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(DateLayout))
}

// UnmarshalJSON accepts a quoted YYYY-MM-DD string or an RFC 3339 timestamp.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid date %q", s)
	}
	d.Time = NewDate(t).Time
	return nil
}

// NewsArticle is a normalized news record. PublicationDate is nil when the
// source date was missing or malformed.
type NewsArticle struct {
	// PublicationDate is the day the article was published.
	PublicationDate *Date `json:"publication_date"`

	// Title is the article headline; it is also the de-duplication key.
	Title string `json:"title"`

	// Link is the article URL.
	Link string `json:"link"`

	// Content is the article body text.
	Content string `json:"content"`

	// Summary is the provider summary or a model-generated one.
	Summary string `json:"summary"`

	// Source names the publication.
	Source string `json:"source"`

	// Sentiment is in [-1, 1]; -1 most negative, 0 neutral, 1 most positive.
	Sentiment float64 `json:"sentiment"`

	Keywords   []string `json:"keywords"`
	Categories []string `json:"categories"`

	// Image is the lead image URL, when one was found.
	Image string `json:"image,omitempty"`

	// Count is how many times the title occurred before de-duplication.
	Count int `json:"count,omitempty"`
}

// Published reports whether the article carries a publication date.
func (a NewsArticle) Published() bool {
	return a.PublicationDate != nil && !a.PublicationDate.IsZero()
}
