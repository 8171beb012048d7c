package awsecr

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/rs/zerolog"

	"github.com/yairfalse/harava/internal/docker"
	"github.com/yairfalse/harava/sweep"
	"github.com/yairfalse/harava/types"
)

// RefreshLister lists repositories like Client.List, but the secondary
// lookup resolves each repository's most recent image tags and the
// image URIs a refresh would act on. Resolving at list time puts the
// intended images in the report, so a dry run names exactly what an
// apply would pull and push.
type RefreshLister struct {
	client  *Client
	account string
	keep    int
	logger  zerolog.Logger
}

// NewRefreshLister creates a refresh lister. account is the registry
// owner; keep bounds how many recent tags are refreshed per repository.
func NewRefreshLister(client *Client, account string, keep int, logger zerolog.Logger) *RefreshLister {
	return &RefreshLister{
		client:  client,
		account: account,
		keep:    keep,
		logger:  logger,
	}
}

func (l *RefreshLister) List(ctx context.Context, region, prefix string) ([]types.Resource, error) {
	repos, err := l.client.listRepositories(ctx, region, prefix)
	if err != nil {
		return nil, err
	}

	resources := make([]types.Resource, 0, len(repos))
	for _, repo := range repos {
		resources = append(resources, l.describeRecentImages(ctx, region, repo))
	}
	return resources, nil
}

func (l *RefreshLister) describeRecentImages(ctx context.Context, region string, repo ecrtypes.Repository) types.Resource {
	r := types.Resource{
		Name:   aws.ToString(repo.RepositoryName),
		ID:     aws.ToString(repo.RepositoryArn),
		Region: region,
		Attrs:  map[string]string{},
	}

	tags, err := l.client.RecentTags(ctx, region, r.Name, l.keep)
	if err != nil {
		l.logger.Warn().Err(err).Str("repository", r.Name).Str("region", region).Msg("recent tag lookup failed")
		r.LookupErr = err.Error()
		return r
	}
	if len(tags) == 0 {
		l.logger.Info().Str("repository", r.Name).Msg("no tagged images to refresh")
		return r
	}

	registry := RegistryHost(l.account, region)
	images := make([]string, 0, len(tags))
	for _, tag := range tags {
		images = append(images, registry+"/"+r.Name+":"+tag)
	}
	r.Attrs[types.AttrRecentTags] = strings.Join(tags, ",")
	r.Attrs[types.AttrRefreshImages] = strings.Join(images, ",")

	l.logger.Info().Str("repository", r.Name).Strs("images", images).Msg("images selected for refresh")
	return r
}

// HasRefreshableImages qualifies repositories with at least one recent
// image tag to re-push.
func HasRefreshableImages() sweep.Predicate {
	return sweep.PredicateFunc(func(r types.Resource) bool {
		return r.Attr(types.AttrRecentTags) != ""
	})
}

// RefreshMutator re-pushes the image tags RefreshLister selected: pull
// the image, delete the tag in the registry, push the same image back
// under the same tag. The end state after any number of runs is the
// same image content under the same tags, which resets the push
// timestamp lifecycle policies key on.
type RefreshMutator struct {
	client  *Client
	docker  docker.Runner
	account string
	logger  zerolog.Logger
}

// NewRefreshMutator creates a refresh mutator for the registry owned
// by account.
func NewRefreshMutator(client *Client, runner docker.Runner, account string, logger zerolog.Logger) *RefreshMutator {
	return &RefreshMutator{
		client:  client,
		docker:  runner,
		account: account,
		logger:  logger,
	}
}

func (m *RefreshMutator) Apply(ctx context.Context, r types.Resource) error {
	recent := r.Attr(types.AttrRecentTags)
	if recent == "" {
		return nil
	}

	registry := RegistryHost(m.account, r.Region)
	for _, tag := range strings.Split(recent, ",") {
		uri := registry + "/" + r.Name + ":" + tag

		if err := m.docker.Pull(ctx, uri); err != nil {
			return fmt.Errorf("pull %s: %w", uri, err)
		}
		if _, err := m.client.ecr.BatchDeleteImage(ctx, &ecr.BatchDeleteImageInput{
			RepositoryName: aws.String(r.Name),
			ImageIds:       []ecrtypes.ImageIdentifier{{ImageTag: aws.String(tag)}},
		}, withRegion(r.Region)); err != nil {
			return fmt.Errorf("delete tag %s: %w", uri, err)
		}
		if err := m.docker.Push(ctx, uri); err != nil {
			return fmt.Errorf("push %s: %w", uri, err)
		}
		m.logger.Info().Str("image", uri).Msg("refreshed image tag")
	}
	return nil
}

func (m *RefreshMutator) Describe() string {
	return "re-push recent image tags"
}
