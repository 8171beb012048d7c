package awsecr

import (
	"context"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"

	"github.com/yairfalse/harava/sweep"
	"github.com/yairfalse/harava/types"
)

// GateLister lists repositories like Client.List, but the secondary
// lookup fetches vulnerability scan findings for the latest pushed
// image instead of resource tags. Used by the report-only scan gate.
type GateLister struct {
	client *Client
}

// NewGateLister creates a scan-gate lister over an existing client.
func NewGateLister(client *Client) *GateLister {
	return &GateLister{client: client}
}

func (l *GateLister) List(ctx context.Context, region, prefix string) ([]types.Resource, error) {
	repos, err := l.client.listRepositories(ctx, region, prefix)
	if err != nil {
		return nil, err
	}

	resources := make([]types.Resource, 0, len(repos))
	for _, repo := range repos {
		resources = append(resources, l.describeFindings(ctx, region, repo))
	}
	return resources, nil
}

func (l *GateLister) describeFindings(ctx context.Context, region string, repo ecrtypes.Repository) types.Resource {
	r := types.Resource{
		Name:   aws.ToString(repo.RepositoryName),
		ID:     aws.ToString(repo.RepositoryArn),
		Region: region,
		Attrs:  map[string]string{},
	}

	digest, err := l.client.latestImageDigest(ctx, region, r.Name)
	if err != nil {
		r.LookupErr = err.Error()
		return r
	}
	if digest == "" {
		// No tagged images: nothing to gate on.
		r.Attrs[types.AttrCriticalFindings] = "0"
		r.Attrs[types.AttrHighFindings] = "0"
		return r
	}

	out, err := l.client.ecr.DescribeImageScanFindings(ctx, &ecr.DescribeImageScanFindingsInput{
		RepositoryName: aws.String(r.Name),
		ImageId:        &ecrtypes.ImageIdentifier{ImageDigest: aws.String(digest)},
	}, withRegion(region))
	if err != nil {
		l.client.logger.Warn().Err(err).Str("repository", r.Name).Str("region", region).Msg("scan findings lookup failed")
		r.LookupErr = err.Error()
		return r
	}

	var critical, high int32
	if out.ImageScanFindings != nil {
		critical = out.ImageScanFindings.FindingSeverityCounts[string(ecrtypes.FindingSeverityCritical)]
		high = out.ImageScanFindings.FindingSeverityCounts[string(ecrtypes.FindingSeverityHigh)]
	}
	r.Attrs[types.AttrCriticalFindings] = strconv.Itoa(int(critical))
	r.Attrs[types.AttrHighFindings] = strconv.Itoa(int(high))
	return r
}

// ExceedsFindings qualifies repositories whose latest image carries
// more critical or high severity findings than allowed.
func ExceedsFindings(maxCritical, maxHigh int) sweep.Predicate {
	return sweep.PredicateFunc(func(r types.Resource) bool {
		critical, err := strconv.Atoi(r.Attr(types.AttrCriticalFindings))
		if err != nil {
			return false
		}
		high, err := strconv.Atoi(r.Attr(types.AttrHighFindings))
		if err != nil {
			return false
		}
		return critical > maxCritical || high > maxHigh
	})
}
