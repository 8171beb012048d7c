package sweep

import (
	"context"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yairfalse/harava/types"
)

// Options configure one sweep invocation.
type Options struct {
	// Region, when set, sweeps only that region and skips enumeration.
	// Not validated against the provider; an invalid region surfaces
	// as a listing failure.
	Region string

	// AllowRegions, when non-empty, restricts enumerated regions to
	// this allow-list. Ignored when Region is set.
	AllowRegions []string

	// Prefix is the case-sensitive name prefix resources must match.
	Prefix string

	// DryRun reports intended mutations without issuing provider calls.
	DryRun bool

	// Workers bounds concurrent region pipelines. Values below 2 keep
	// the sweep sequential. Mutations within one region are always
	// serialized by its worker.
	Workers int
}

// Coordinator orchestrates enumerate -> list -> qualify -> apply across
// all regions, aggregating one Result per resource into a Report.
type Coordinator struct {
	enum    RegionEnumerator
	lister  Lister
	pred    Predicate
	mutator Mutator
	opts    Options
	logger  zerolog.Logger
}

// New creates a sweep coordinator.
func New(enum RegionEnumerator, lister Lister, pred Predicate, mutator Mutator, opts Options, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		enum:    enum,
		lister:  lister,
		pred:    pred,
		mutator: mutator,
		opts:    opts,
		logger:  logger,
	}
}

// Run executes the sweep and always returns the Report, including
// partial progress after cancellation. A region whose listing fails is
// recorded as a region failure; the other regions still run. Only
// argument validation is fatal, and that happens before Run.
func (c *Coordinator) Run(ctx context.Context) *Report {
	report := &Report{
		Prefix:    c.opts.Prefix,
		Mutation:  c.mutator.Describe(),
		DryRun:    c.opts.DryRun,
		StartedAt: time.Now(),
	}

	regions, err := c.regions(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("region enumeration failed")
		report.addRegionFailure("*", err)
		report.FinishedAt = time.Now()
		return report
	}

	workers := c.opts.Workers
	if workers < 1 {
		workers = 1
	}

	g := new(errgroup.Group)
	g.SetLimit(workers)

	for _, region := range regions {
		region := region
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			c.sweepRegion(ctx, region, report)
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = time.Now()
	report.Sort()
	return report
}

func (c *Coordinator) regions(ctx context.Context) ([]string, error) {
	if c.opts.Region != "" {
		return []string{c.opts.Region}, nil
	}

	regions, err := c.enum.Regions(ctx)
	if err != nil {
		return nil, err
	}
	if len(c.opts.AllowRegions) == 0 {
		return regions, nil
	}

	allowed := make([]string, 0, len(regions))
	for _, region := range regions {
		if slices.Contains(c.opts.AllowRegions, region) {
			allowed = append(allowed, region)
		}
	}
	return allowed, nil
}

// sweepRegion owns one region's full pipeline: list, qualify, apply.
func (c *Coordinator) sweepRegion(ctx context.Context, region string, report *Report) {
	logger := c.logger.With().Str("region", region).Logger()

	resources, err := c.lister.List(ctx, region, c.opts.Prefix)
	if err != nil {
		logger.Warn().Err(err).Msg("region listing failed, skipping region")
		report.addRegionFailure(region, err)
		return
	}
	logger.Debug().Int("resources", len(resources)).Msg("region listed")

	for _, r := range resources {
		// Cancellation stops new mutation calls; outcomes already
		// recorded stay in the report.
		if ctx.Err() != nil {
			logger.Info().Msg("sweep canceled, leaving region partially processed")
			return
		}
		report.add(c.processResource(ctx, region, r))
	}
}

func (c *Coordinator) processResource(ctx context.Context, region string, r types.Resource) Result {
	result := Result{Region: region, Name: r.Name, ID: r.ID, Attrs: r.Attrs}

	if r.HasLookupError() {
		result.Outcome = OutcomeFailed
		result.Error = "attribute lookup: " + r.LookupErr
		return result
	}
	if !c.pred.Qualifies(r) {
		result.Outcome = OutcomeSkipped
		return result
	}
	result.Qualified = true

	if c.opts.DryRun {
		result.Outcome = OutcomeWouldApply
		return result
	}

	if err := c.mutator.Apply(ctx, r); err != nil {
		c.logger.Warn().Err(err).Str("region", region).Str("resource", r.Name).Msg("mutation failed")
		result.Outcome = OutcomeFailed
		result.Error = err.Error()
		return result
	}
	result.Outcome = OutcomeApplied
	return result
}
