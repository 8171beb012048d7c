package awsecr

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pushedAt(daysAgo int) *time.Time {
	t := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -daysAgo)
	return &t
}

func TestRecentTagsOrderedAndDeduplicated(t *testing.T) {
	ecrMock := &mockECR{
		DescribeImagesFunc: func(_ context.Context, params *ecr.DescribeImagesInput, _ ...func(*ecr.Options)) (*ecr.DescribeImagesOutput, error) {
			if params.NextToken == nil {
				return &ecr.DescribeImagesOutput{
					ImageDetails: []ecrtypes.ImageDetail{
						{ImageTags: []string{"v1"}, ImagePushedAt: pushedAt(10), ImageDigest: aws.String("sha256:old")},
						{ImageTags: []string{"v3", "latest"}, ImagePushedAt: pushedAt(1), ImageDigest: aws.String("sha256:new")},
					},
					NextToken: aws.String("page2"),
				}, nil
			}
			return &ecr.DescribeImagesOutput{
				ImageDetails: []ecrtypes.ImageDetail{
					{ImageTags: []string{"v2", "latest"}, ImagePushedAt: pushedAt(5), ImageDigest: aws.String("sha256:mid")},
				},
			}, nil
		},
	}
	c := &Client{ecr: ecrMock, logger: zerolog.Nop()}

	tags, err := c.RecentTags(context.Background(), "us-east-1", "github/api", 3)
	require.NoError(t, err)
	// Newest image first; "latest" appears once.
	assert.Equal(t, []string{"v3", "latest", "v2"}, tags)
}

func TestRecentTagsCap(t *testing.T) {
	ecrMock := &mockECR{
		DescribeImagesFunc: func(_ context.Context, _ *ecr.DescribeImagesInput, _ ...func(*ecr.Options)) (*ecr.DescribeImagesOutput, error) {
			return &ecr.DescribeImagesOutput{
				ImageDetails: []ecrtypes.ImageDetail{
					{ImageTags: []string{"v4"}, ImagePushedAt: pushedAt(1)},
					{ImageTags: []string{"v3"}, ImagePushedAt: pushedAt(2)},
					{ImageTags: []string{"v2"}, ImagePushedAt: pushedAt(3)},
					{ImageTags: []string{"v1"}, ImagePushedAt: pushedAt(4)},
				},
			}, nil
		},
	}
	c := &Client{ecr: ecrMock, logger: zerolog.Nop()}

	tags, err := c.RecentTags(context.Background(), "us-east-1", "github/api", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"v4", "v3", "v2"}, tags)
}

func TestRecentTagsEmptyRepository(t *testing.T) {
	ecrMock := &mockECR{
		DescribeImagesFunc: func(_ context.Context, _ *ecr.DescribeImagesInput, _ ...func(*ecr.Options)) (*ecr.DescribeImagesOutput, error) {
			return &ecr.DescribeImagesOutput{}, nil
		},
	}
	c := &Client{ecr: ecrMock, logger: zerolog.Nop()}

	tags, err := c.RecentTags(context.Background(), "us-east-1", "github/api", 3)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestLatestImageDigest(t *testing.T) {
	ecrMock := &mockECR{
		DescribeImagesFunc: func(_ context.Context, _ *ecr.DescribeImagesInput, _ ...func(*ecr.Options)) (*ecr.DescribeImagesOutput, error) {
			return &ecr.DescribeImagesOutput{
				ImageDetails: []ecrtypes.ImageDetail{
					{ImageTags: []string{"v1"}, ImagePushedAt: pushedAt(10), ImageDigest: aws.String("sha256:old")},
					{ImageTags: []string{"v2"}, ImagePushedAt: pushedAt(1), ImageDigest: aws.String("sha256:new")},
				},
			}, nil
		},
	}
	c := &Client{ecr: ecrMock, logger: zerolog.Nop()}

	digest, err := c.latestImageDigest(context.Background(), "us-east-1", "github/api")
	require.NoError(t, err)
	assert.Equal(t, "sha256:new", digest)
}
