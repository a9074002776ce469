package domain

import "errors"

// IngestResult is the outcome of indexing one document in a batch.
type IngestResult struct {
	DocID   string
	DocName string
	Chunks  int
	Skipped bool
	Err     error
}

// IngestReport collects per-document results of a batch ingest in input order.
type IngestReport struct {
	Results []IngestResult
}

// Succeeded returns the number of documents that produced at least one chunk.
func (r IngestReport) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil && !res.Skipped && res.Chunks > 0 {
			n++
		}
	}
	return n
}

// Skipped returns the number of documents ignored as unusable input.
func (r IngestReport) Skipped() int {
	n := 0
	for _, res := range r.Results {
		if res.Skipped {
			n++
		}
	}
	return n
}

// Failed returns the results that ended with an error.
func (r IngestReport) Failed() []IngestResult {
	var out []IngestResult
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// TotalChunks returns the number of chunks stored by the batch.
func (r IngestReport) TotalChunks() int {
	n := 0
	for _, res := range r.Results {
		n += res.Chunks
	}
	return n
}

// Err joins all per-document errors, or returns nil when none failed.
func (r IngestReport) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, res.Err)
	}
	return errors.Join(errs...)
}
