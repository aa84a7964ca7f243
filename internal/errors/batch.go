package errors

import (
	"github.com/fwhub/fwcache-cli/pkg/models"
)

// ItemResult is the outcome of one batch item. Exactly one of Entry and Err
// is set for processed items; skipped catalog records carry only Err.
type ItemResult struct {
	Source string
	Entry  *models.CacheEntry
	Err    error
}

// BatchReport collects per-item results across one run. The orchestrator
// decides whether to continue from the error kind, not by convention.
type BatchReport struct {
	Results []ItemResult
}

// Add records a successful placement.
func (r *BatchReport) Add(source string, entry *models.CacheEntry) {
	r.Results = append(r.Results, ItemResult{Source: source, Entry: entry})
}

// Skip records a recoverable per-item failure.
func (r *BatchReport) Skip(source string, err error) {
	r.Results = append(r.Results, ItemResult{Source: source, Err: err})
}

// Placed returns the number of successful items.
func (r *BatchReport) Placed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

// Skipped returns the number of failed items.
func (r *BatchReport) Skipped() int {
	return len(r.Results) - r.Placed()
}
