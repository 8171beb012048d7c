// Package sweep implements the reconciliation sweep engine: enumerate
// regions, list resources by name prefix, test each against a predicate,
// and apply an idempotent mutation - or simulate it under dry-run - with
// per-region and per-resource failure isolation.
package sweep

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yairfalse/harava/types"
)

// RegionEnumerator produces the set of regions to sweep.
type RegionEnumerator interface {
	Regions(ctx context.Context) ([]string, error)
}

// Lister pages through one region's inventory, prefix-matched on name.
// Implementations must follow pagination to the end of the collection
// and record per-resource attribute lookup failures on the resource
// itself (LookupErr) rather than failing the whole listing.
type Lister interface {
	List(ctx context.Context, region, prefix string) ([]types.Resource, error)
}

// Mutator applies one idempotent mutation to one resource. Applying the
// same mutation twice must be safe and yield the same end state, so a
// sweep can be re-run after a partial failure.
type Mutator interface {
	Apply(ctx context.Context, r types.Resource) error
	Describe() string
}

// NopMutator performs no provider calls. Used by report-only sweeps.
type NopMutator struct {
	Desc string
}

func (m NopMutator) Apply(ctx context.Context, r types.Resource) error { return nil }
func (m NopMutator) Describe() string                                  { return m.Desc }

// Outcome classifies what the sweep did with one resource.
type Outcome string

const (
	OutcomeSkipped    Outcome = "skipped"
	OutcomeWouldApply Outcome = "would-apply"
	OutcomeApplied    Outcome = "applied"
	OutcomeFailed     Outcome = "failed"
)

// Result is the outcome for one (region, resource) pair. Attrs carry
// the attributes the lister observed, so a report reader can see what
// a dry run would have acted on and why a resource was skipped.
type Result struct {
	Region    string            `json:"region"`
	Name      string            `json:"name"`
	ID        string            `json:"id,omitempty"`
	Outcome   Outcome           `json:"outcome"`
	Qualified bool              `json:"qualified"`
	Attrs     map[string]string `json:"attrs,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// RegionFailure records a region whose listing call failed entirely.
// The region is excluded from the sweep; other regions proceed.
type RegionFailure struct {
	Region string `json:"region"`
	Error  string `json:"error"`
}

// Counts aggregates per-outcome totals across a sweep.
type Counts struct {
	Candidates int `json:"candidates"`
	Applied    int `json:"applied"`
	WouldApply int `json:"would_apply"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// Report is the sole externally observable artifact of a sweep.
// Partial progress is always reflected here, even after cancellation.
type Report struct {
	mu sync.Mutex

	Prefix         string          `json:"prefix"`
	Mutation       string          `json:"mutation"`
	DryRun         bool            `json:"dry_run"`
	StartedAt      time.Time       `json:"started_at"`
	FinishedAt     time.Time       `json:"finished_at"`
	Results        []Result        `json:"results"`
	RegionFailures []RegionFailure `json:"region_failures,omitempty"`
}

func (r *Report) add(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Results = append(r.Results, res)
}

func (r *Report) addRegionFailure(region string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.RegionFailures = append(r.RegionFailures, RegionFailure{Region: region, Error: err.Error()})
}

// Counts computes per-outcome totals. Candidates counts resources the
// predicate qualified, whether or not their mutation succeeded.
func (r *Report) Counts() Counts {
	var c Counts
	for _, res := range r.Results {
		if res.Qualified {
			c.Candidates++
		}
		switch res.Outcome {
		case OutcomeApplied:
			c.Applied++
		case OutcomeWouldApply:
			c.WouldApply++
		case OutcomeSkipped:
			c.Skipped++
		case OutcomeFailed:
			c.Failed++
		}
	}
	return c
}

// Failures returns the failed results, with enough detail (region,
// name, error) to retry manually.
func (r *Report) Failures() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Outcome == OutcomeFailed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Sort orders results by (region, name) so report content is
// deterministic regardless of worker interleaving.
func (r *Report) Sort() {
	sort.Slice(r.Results, func(i, j int) bool {
		if r.Results[i].Region != r.Results[j].Region {
			return r.Results[i].Region < r.Results[j].Region
		}
		return r.Results[i].Name < r.Results[j].Name
	})
	sort.Slice(r.RegionFailures, func(i, j int) bool {
		return r.RegionFailures[i].Region < r.RegionFailures[j].Region
	})
}
