package social

import (
	"encoding/json"
	"strings"

	"github.com/kurihiro0119/devprofile-api/internal/domain"
	"github.com/kurihiro0119/devprofile-api/internal/metrics"
)

// IsReshare reports whether a post text republishes another account's post
func IsReshare(text string) bool {
	return strings.HasPrefix(text, domain.ResharePrefix)
}

// FilterReshares drops reshared posts from a payload that is a JSON array of
// post objects. Any other payload is returned untouched with zero counts.
// Posts without a string "text" field are kept.
func FilterReshares(payload json.RawMessage) domain.FilterResult {
	passthrough := domain.FilterResult{Posts: payload}

	var items []json.RawMessage
	if err := json.Unmarshal(payload, &items); err != nil {
		return passthrough
	}

	kept := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		var post struct {
			Text json.RawMessage `json:"text"`
		}
		if err := json.Unmarshal(item, &post); err != nil {
			// not a sequence of post records
			return passthrough
		}
		var text string
		if err := json.Unmarshal(post.Text, &text); err == nil && IsReshare(text) {
			continue
		}
		kept = append(kept, item)
	}

	posts, err := json.Marshal(kept)
	if err != nil {
		return passthrough
	}

	filtered := len(items) - len(kept)
	metrics.ResharesFiltered.Add(float64(filtered))

	return domain.FilterResult{
		Posts:         posts,
		Applied:       true,
		Total:         len(items),
		KeptCount:     len(kept),
		FilteredCount: filtered,
	}
}
