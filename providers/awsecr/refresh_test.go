package awsecr

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/harava/sweep"
	"github.com/yairfalse/harava/types"
)

// fakeRunner records docker operations in order.
type fakeRunner struct {
	ops      []string
	failPull string // image URI whose pull fails
	registry string
	username string
	password string
}

func (f *fakeRunner) Pull(ctx context.Context, image string) error {
	if image == f.failPull {
		return errors.New("manifest unknown")
	}
	f.ops = append(f.ops, "pull "+image)
	return nil
}

func (f *fakeRunner) Push(ctx context.Context, image string) error {
	f.ops = append(f.ops, "push "+image)
	return nil
}

func (f *fakeRunner) Login(ctx context.Context, registry, username, password string) error {
	f.registry, f.username, f.password = registry, username, password
	return nil
}

func refreshImages() *mockECR {
	return &mockECR{
		DescribeRepositoriesFunc: func(_ context.Context, _ *ecr.DescribeRepositoriesInput, _ ...func(*ecr.Options)) (*ecr.DescribeRepositoriesOutput, error) {
			return &ecr.DescribeRepositoriesOutput{Repositories: []ecrtypes.Repository{repository("github/api")}}, nil
		},
		DescribeImagesFunc: func(_ context.Context, _ *ecr.DescribeImagesInput, _ ...func(*ecr.Options)) (*ecr.DescribeImagesOutput, error) {
			return &ecr.DescribeImagesOutput{ImageDetails: []ecrtypes.ImageDetail{
				{ImageTags: []string{"v2"}, ImagePushedAt: pushedAt(1)},
				{ImageTags: []string{"v1"}, ImagePushedAt: pushedAt(2)},
			}}, nil
		},
		BatchDeleteImageFunc: func(_ context.Context, _ *ecr.BatchDeleteImageInput, _ ...func(*ecr.Options)) (*ecr.BatchDeleteImageOutput, error) {
			return &ecr.BatchDeleteImageOutput{}, nil
		},
	}
}

func refreshResource(tags, images string) types.Resource {
	r := types.Resource{Name: "github/api", Region: "us-east-1", Attrs: map[string]string{}}
	if tags != "" {
		r.Attrs[types.AttrRecentTags] = tags
		r.Attrs[types.AttrRefreshImages] = images
	}
	return r
}

func TestRefreshListerResolvesRecentImages(t *testing.T) {
	c := &Client{ecr: refreshImages(), logger: zerolog.Nop()}
	l := NewRefreshLister(c, "123456789012", 3, zerolog.Nop())

	resources, err := l.List(context.Background(), "us-east-1", "github/")
	require.NoError(t, err)
	require.Len(t, resources, 1)

	r := resources[0]
	assert.Equal(t, "v2,v1", r.Attr(types.AttrRecentTags))
	base := "123456789012.dkr.ecr.us-east-1.amazonaws.com/github/api:"
	assert.Equal(t, base+"v2,"+base+"v1", r.Attr(types.AttrRefreshImages))
	assert.True(t, HasRefreshableImages().Qualifies(r))
}

func TestRefreshListerNoTaggedImages(t *testing.T) {
	ecrMock := refreshImages()
	ecrMock.DescribeImagesFunc = func(_ context.Context, _ *ecr.DescribeImagesInput, _ ...func(*ecr.Options)) (*ecr.DescribeImagesOutput, error) {
		return &ecr.DescribeImagesOutput{}, nil
	}

	c := &Client{ecr: ecrMock, logger: zerolog.Nop()}
	l := NewRefreshLister(c, "123456789012", 3, zerolog.Nop())

	resources, err := l.List(context.Background(), "us-east-1", "github/")
	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Empty(t, resources[0].Attr(types.AttrRecentTags))
	assert.False(t, resources[0].HasLookupError())
	assert.False(t, HasRefreshableImages().Qualifies(resources[0]))
}

func TestRefreshListerLookupFailureIsolated(t *testing.T) {
	ecrMock := refreshImages()
	ecrMock.DescribeImagesFunc = func(_ context.Context, _ *ecr.DescribeImagesInput, _ ...func(*ecr.Options)) (*ecr.DescribeImagesOutput, error) {
		return nil, errors.New("throttled")
	}

	c := &Client{ecr: ecrMock, logger: zerolog.Nop()}
	l := NewRefreshLister(c, "123456789012", 3, zerolog.Nop())

	resources, err := l.List(context.Background(), "us-east-1", "github/")
	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.True(t, resources[0].HasLookupError())
}

func TestDryRunRefreshReportsIntendedImages(t *testing.T) {
	c := &Client{ecr: refreshImages(), logger: zerolog.Nop()}
	runner := &fakeRunner{}

	coordinator := sweep.New(c, NewRefreshLister(c, "123456789012", 3, zerolog.Nop()),
		HasRefreshableImages(),
		NewRefreshMutator(c, runner, "123456789012", zerolog.Nop()),
		sweep.Options{Region: "us-east-1", Prefix: "github/", DryRun: true}, zerolog.Nop())

	report := coordinator.Run(context.Background())
	require.Len(t, report.Results, 1)

	res := report.Results[0]
	assert.Equal(t, sweep.OutcomeWouldApply, res.Outcome)
	assert.Contains(t, res.Attrs[types.AttrRefreshImages],
		"123456789012.dkr.ecr.us-east-1.amazonaws.com/github/api:v2")
	// Dry run resolved the images without touching docker.
	assert.Empty(t, runner.ops)
}

func TestRefreshMutatorPullDeletePushOrder(t *testing.T) {
	var deleted []string
	ecrMock := refreshImages()
	ecrMock.BatchDeleteImageFunc = func(_ context.Context, params *ecr.BatchDeleteImageInput, _ ...func(*ecr.Options)) (*ecr.BatchDeleteImageOutput, error) {
		deleted = append(deleted, aws.ToString(params.ImageIds[0].ImageTag))
		return &ecr.BatchDeleteImageOutput{}, nil
	}
	runner := &fakeRunner{}

	base := "123456789012.dkr.ecr.us-east-1.amazonaws.com/github/api:"
	m := NewRefreshMutator(&Client{ecr: ecrMock, logger: zerolog.Nop()}, runner, "123456789012", zerolog.Nop())
	require.NoError(t, m.Apply(context.Background(), refreshResource("v2,v1", base+"v2,"+base+"v1")))

	assert.Equal(t, []string{
		"pull " + base + "v2",
		"push " + base + "v2",
		"pull " + base + "v1",
		"push " + base + "v1",
	}, runner.ops)
	assert.Equal(t, []string{"v2", "v1"}, deleted)
}

func TestRefreshMutatorNoRecentTagsIsNoOp(t *testing.T) {
	runner := &fakeRunner{}
	m := NewRefreshMutator(&Client{ecr: &mockECR{}, logger: zerolog.Nop()}, runner, "123456789012", zerolog.Nop())

	require.NoError(t, m.Apply(context.Background(), refreshResource("", "")))
	assert.Empty(t, runner.ops)
}

func TestRefreshMutatorPullFailureStops(t *testing.T) {
	ecrMock := refreshImages()
	base := "123456789012.dkr.ecr.us-east-1.amazonaws.com/github/api:"
	runner := &fakeRunner{failPull: base + "v2"}

	m := NewRefreshMutator(&Client{ecr: ecrMock, logger: zerolog.Nop()}, runner, "123456789012", zerolog.Nop())
	err := m.Apply(context.Background(), refreshResource("v2,v1", base+"v2,"+base+"v1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pull")
	// Nothing was deleted or pushed after the failed pull.
	assert.Empty(t, runner.ops)
}

func TestLoginDecodesAuthorizationToken(t *testing.T) {
	token := base64.StdEncoding.EncodeToString([]byte("AWS:sekret"))
	ecrMock := &mockECR{
		GetAuthorizationTokenFunc: func(_ context.Context, _ *ecr.GetAuthorizationTokenInput, _ ...func(*ecr.Options)) (*ecr.GetAuthorizationTokenOutput, error) {
			return &ecr.GetAuthorizationTokenOutput{AuthorizationData: []ecrtypes.AuthorizationData{
				{AuthorizationToken: aws.String(token)},
			}}, nil
		},
	}
	runner := &fakeRunner{}
	c := &Client{ecr: ecrMock, logger: zerolog.Nop()}

	require.NoError(t, c.Login(context.Background(), runner, "123456789012", "eu-west-1"))
	assert.Equal(t, "123456789012.dkr.ecr.eu-west-1.amazonaws.com", runner.registry)
	assert.Equal(t, "AWS", runner.username)
	assert.Equal(t, "sekret", runner.password)
}
