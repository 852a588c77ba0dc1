package domain

import "encoding/json"

// ResharePrefix marks a post that republishes another account's post
const ResharePrefix = "RT @"

// FilterResult is the output of the reshare filter
type FilterResult struct {
	// Posts is either the kept items or the untouched payload when filtering did not apply
	Posts         json.RawMessage `json:"posts"`
	Applied       bool            `json:"filtered"`
	Total         int             `json:"total"`
	KeptCount     int             `json:"kept_count"`
	FilteredCount int             `json:"filtered_count"`
}
