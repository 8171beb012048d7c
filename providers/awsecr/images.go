package awsecr

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
)

// taggedImages returns the repository's tagged images, most recently
// pushed first.
func (c *Client) taggedImages(ctx context.Context, region, repository string) ([]ecrtypes.ImageDetail, error) {
	var images []ecrtypes.ImageDetail

	paginator := ecr.NewDescribeImagesPaginator(c.ecr, &ecr.DescribeImagesInput{
		RepositoryName: aws.String(repository),
		Filter:         &ecrtypes.DescribeImagesFilter{TagStatus: ecrtypes.TagStatusTagged},
	})
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx, withRegion(region))
		if err != nil {
			return nil, fmt.Errorf("describe images for %s: %w", repository, err)
		}
		images = append(images, out.ImageDetails...)
	}

	sort.Slice(images, func(i, j int) bool {
		ti, tj := aws.ToTime(images[i].ImagePushedAt), aws.ToTime(images[j].ImagePushedAt)
		return ti.After(tj)
	})
	return images, nil
}

// RecentTags returns up to keep image tags, most recently pushed
// first. An image carrying several tags contributes them in order;
// duplicates across images are dropped.
func (c *Client) RecentTags(ctx context.Context, region, repository string, keep int) ([]string, error) {
	images, err := c.taggedImages(ctx, region, repository)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var tags []string
	for _, img := range images {
		for _, tag := range img.ImageTags {
			if seen[tag] {
				continue
			}
			seen[tag] = true
			tags = append(tags, tag)
			if len(tags) == keep {
				return tags, nil
			}
		}
	}
	return tags, nil
}

// latestImageDigest returns the digest of the most recently pushed
// tagged image, or "" for a repository without tagged images.
func (c *Client) latestImageDigest(ctx context.Context, region, repository string) (string, error) {
	images, err := c.taggedImages(ctx, region, repository)
	if err != nil {
		return "", err
	}
	if len(images) == 0 {
		return "", nil
	}
	return aws.ToString(images[0].ImageDigest), nil
}
