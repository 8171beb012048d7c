package awsecr

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"

	"github.com/yairfalse/harava/types"
)

// TagMutator applies a fixed tag set to a repository. TagResource
// overwrites existing values for the same keys, so re-applying the
// same set is safe and leaves the repository in the same state.
type TagMutator struct {
	api  ECRAPI
	tags types.TagSet
}

// NewTagMutator creates a mutator for one sweep's tag set.
func NewTagMutator(api ECRAPI, tags types.TagSet) *TagMutator {
	return &TagMutator{api: api, tags: tags}
}

func (m *TagMutator) Apply(ctx context.Context, r types.Resource) error {
	keys := make([]string, 0, len(m.tags))
	for k := range m.tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ecrTags := make([]ecrtypes.Tag, 0, len(keys))
	for _, k := range keys {
		ecrTags = append(ecrTags, ecrtypes.Tag{Key: aws.String(k), Value: aws.String(m.tags[k])})
	}

	_, err := m.api.TagResource(ctx, &ecr.TagResourceInput{
		ResourceArn: aws.String(r.ID),
		Tags:        ecrTags,
	}, withRegion(r.Region))
	if err != nil {
		return fmt.Errorf("tag repository %s: %w", r.Name, err)
	}
	return nil
}

func (m *TagMutator) Describe() string {
	return "ensure tags " + m.tags.String()
}

// MutabilityMutator sets a repository's image tag mutability. Setting
// the mode a repository already has is a no-op on the provider side.
type MutabilityMutator struct {
	api  ECRAPI
	mode ecrtypes.ImageTagMutability
}

// NewMutabilityMutator creates a mutator targeting the given mode
// (IMMUTABLE or MUTABLE).
func NewMutabilityMutator(api ECRAPI, mode string) *MutabilityMutator {
	return &MutabilityMutator{api: api, mode: ecrtypes.ImageTagMutability(mode)}
}

func (m *MutabilityMutator) Apply(ctx context.Context, r types.Resource) error {
	_, err := m.api.PutImageTagMutability(ctx, &ecr.PutImageTagMutabilityInput{
		RepositoryName:     aws.String(r.Name),
		ImageTagMutability: m.mode,
	}, withRegion(r.Region))
	if err != nil {
		return fmt.Errorf("set tag mutability on %s: %w", r.Name, err)
	}
	return nil
}

func (m *MutabilityMutator) Describe() string {
	return "set image tag mutability to " + string(m.mode)
}
