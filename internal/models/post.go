// Package models defines the domain types for folio.
package models

import (
	"regexp"
	"time"
)

var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// Date is the publication date exactly as written in a post's front matter.
// Ordering compares the raw strings; the value is never parsed into a
// calendar type. The zero value means the post carries no date.
type Date string

// IsZero reports whether the post has no date.
func (d Date) IsZero() bool { return d == "" }

// IsISO reports whether the date starts with a YYYY-MM-DD calendar date,
// the only layout for which lexical order equals chronological order.
func (d Date) IsISO() bool { return isoDateRe.MatchString(string(d)) }

func (d Date) String() string { return string(d) }

// Post is a single content item from the posts directory.
type Post struct {
	ID       string         `json:"id"`
	Title    string         `json:"title,omitempty"`
	Date     Date           `json:"date,omitempty"`
	Preview  string         `json:"preview,omitempty"`
	Body     string         `json:"body,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
	Checksum string         `json:"checksum"`
	ModTime  time.Time      `json:"mod_time"`
}

// FileInfo is what the storage layer reports for each content file.
type FileInfo struct {
	Name    string
	ModTime time.Time
}
