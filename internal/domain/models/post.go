package models

import "time"

// Post is one ingested social text event.
type Post struct {
	ID        string    `json:"id"`
	Platform  string    `json:"platform"` // "x", "reddit", "telegram", ...
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Symbol    string    `json:"symbol,omitempty"` // optional explicit symbol tag
	Followers int       `json:"followers,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
