package domain

// IngestResult is the outcome of ingesting one repository
type IngestResult struct {
	Repository string  `json:"repository"`
	Success    bool    `json:"success"`
	Summary    *string `json:"summary"`
	Tree       *string `json:"tree"`
	Content    *string `json:"content"`
	Error      *string `json:"error"`
}

// FailedIngest builds a failure-shaped result
func FailedIngest(repository, message string) *IngestResult {
	return &IngestResult{
		Repository: repository,
		Success:    false,
		Error:      &message,
	}
}

// BatchResult aggregates the results of a batch ingestion
type BatchResult struct {
	Results        []*IngestResult `json:"results"`
	TotalRequested int             `json:"total_requested"`
	Successful     int             `json:"successful"`
	Failed         int             `json:"failed"`
}

// NewBatchResult tallies results into a BatchResult
func NewBatchResult(requested int, results []*IngestResult) *BatchResult {
	b := &BatchResult{
		Results:        results,
		TotalRequested: requested,
	}
	for _, r := range results {
		if r.Success {
			b.Successful++
		}
	}
	b.Failed = len(results) - b.Successful
	return b
}
