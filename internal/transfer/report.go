package transfer

import (
	"fmt"
	"sort"
	"time"

	"github.com/leapstack-labs/sqlbridge/pkg/core"
)

// Report summarizes a run.
type Report struct {
	RunID     string
	Kind      string
	StartedAt time.Time
	Duration  time.Duration
	Results   []*core.TableResult
}

func (r *Report) add(results ...*core.TableResult) {
	r.Results = append(r.Results, results...)
}

func (r *Report) sort() {
	sort.Slice(r.Results, func(i, j int) bool {
		return r.Results[i].SourceTable < r.Results[j].SourceTable
	})
}

// Count returns how many tables ended with status.
func (r *Report) Count(status core.TableStatus) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// OK reports whether every table finished with status ok.
func (r *Report) OK() bool {
	return r.Count(core.TableStatusOK) == len(r.Results)
}

// Summary returns a one-line count of results by status.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d tables: %d ok, %d partial, %d mismatch, %d skipped, %d failed",
		len(r.Results),
		r.Count(core.TableStatusOK),
		r.Count(core.TableStatusPartial),
		r.Count(core.TableStatusMismatch),
		r.Count(core.TableStatusSkipped),
		r.Count(core.TableStatusFailed))
}
