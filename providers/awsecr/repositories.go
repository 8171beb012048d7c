package awsecr

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"

	"github.com/yairfalse/harava/sweep"
	"github.com/yairfalse/harava/types"
)

// List pages through the region's repositories, keeping those whose
// name matches the prefix, and looks up each repository's resource
// tags. A failed tag lookup marks that one resource with LookupErr
// instead of losing the page.
func (c *Client) List(ctx context.Context, region, prefix string) ([]types.Resource, error) {
	repos, err := c.listRepositories(ctx, region, prefix)
	if err != nil {
		return nil, err
	}

	resources := make([]types.Resource, 0, len(repos))
	for _, repo := range repos {
		resources = append(resources, c.describeRepository(ctx, region, repo))
	}
	return resources, nil
}

// listRepositories follows pagination to the end of the collection.
// The prefix filter is applied client-side; DescribeRepositories has
// no server-side name filter.
func (c *Client) listRepositories(ctx context.Context, region, prefix string) ([]ecrtypes.Repository, error) {
	var repos []ecrtypes.Repository

	paginator := ecr.NewDescribeRepositoriesPaginator(c.ecr, &ecr.DescribeRepositoriesInput{})
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx, withRegion(region))
		if err != nil {
			return nil, fmt.Errorf("describe repositories: %w", err)
		}
		for _, repo := range out.Repositories {
			if sweep.MatchPrefix(aws.ToString(repo.RepositoryName), prefix) {
				repos = append(repos, repo)
			}
		}
	}
	return repos, nil
}

func (c *Client) describeRepository(ctx context.Context, region string, repo ecrtypes.Repository) types.Resource {
	r := types.Resource{
		Name:   aws.ToString(repo.RepositoryName),
		ID:     aws.ToString(repo.RepositoryArn),
		Region: region,
		Attrs: map[string]string{
			types.AttrTagMutability: string(repo.ImageTagMutability),
			types.AttrRepositoryURI: aws.ToString(repo.RepositoryUri),
		},
	}
	if repo.CreatedAt != nil {
		r.Attrs[types.AttrCreatedAt] = repo.CreatedAt.Format(time.RFC3339)
	}

	out, err := c.ecr.ListTagsForResource(ctx, &ecr.ListTagsForResourceInput{
		ResourceArn: repo.RepositoryArn,
	}, withRegion(region))
	if err != nil {
		c.logger.Warn().Err(err).Str("repository", r.Name).Str("region", region).Msg("tag lookup failed")
		r.LookupErr = err.Error()
		return r
	}

	r.Tags = make(map[string]string, len(out.Tags))
	for _, tag := range out.Tags {
		r.Tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	r.Attrs[types.AttrTagCount] = strconv.Itoa(len(out.Tags))
	return r
}
