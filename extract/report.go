package extract

import "github.com/goopsie/assetExtract/sniff"

// Outcome records what happened to one entry.
type Outcome struct {
	Index int
	Path  string // relative output path, empty if resolution failed
	// Type and Ext classify the bytes actually written.
	Type         sniff.DataType
	Ext          string
	Size         int
	Decompressed bool
	Err          error
}

// OK reports whether the entry was written.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Report accumulates one Outcome per entry, in index order.
type Report struct {
	Outcomes []Outcome
}

// Succeeded returns the number of entries written.
func (r *Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

// Failed returns the outcomes of entries that were not written.
func (r *Report) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	return failed
}
