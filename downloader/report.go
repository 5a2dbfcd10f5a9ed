package downloader

// ItemOutcome records what happened to one work item.
type ItemOutcome struct {
	Item    WorkItem
	Written int64
	Err     error
	// Skipped is set for dry runs and for items never started because the
	// context was cancelled.
	Skipped bool
}

// Report holds one outcome per work item, in plan order.
type Report struct {
	Outcomes []ItemOutcome
}

// Succeeded returns the number of items downloaded.
func (r *Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err == nil && !o.Skipped {
			n++
		}
	}
	return n
}

// Failed returns the outcomes carrying an error.
func (r *Report) Failed() []ItemOutcome {
	var failed []ItemOutcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// BytesWritten sums the bytes stored across all items.
func (r *Report) BytesWritten() int64 {
	var total int64
	for _, o := range r.Outcomes {
		total += o.Written
	}
	return total
}
