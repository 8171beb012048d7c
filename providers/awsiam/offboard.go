package awsiam

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/rs/zerolog"

	"github.com/yairfalse/harava/types"
)

// OffboardMutator revokes a user's credentials: every access key is
// set Inactive and the console login profile is deleted. Both steps
// are idempotent - deactivating an inactive key is a no-op, and a
// missing login profile counts as already removed - so the sweep can
// be re-run after a partial failure.
type OffboardMutator struct {
	api    IAMAPI
	logger zerolog.Logger
}

// NewOffboardMutator creates the offboarding mutator.
func NewOffboardMutator(api IAMAPI, logger zerolog.Logger) *OffboardMutator {
	return &OffboardMutator{api: api, logger: logger}
}

func (m *OffboardMutator) Apply(ctx context.Context, r types.Resource) error {
	keys, err := m.api.ListAccessKeys(ctx, &iam.ListAccessKeysInput{UserName: aws.String(r.Name)})
	if err != nil {
		return fmt.Errorf("list access keys for %s: %w", r.Name, err)
	}

	for _, key := range keys.AccessKeyMetadata {
		_, err := m.api.UpdateAccessKey(ctx, &iam.UpdateAccessKeyInput{
			UserName:    aws.String(r.Name),
			AccessKeyId: key.AccessKeyId,
			Status:      iamtypes.StatusTypeInactive,
		})
		if err != nil {
			return fmt.Errorf("deactivate access key %s: %w", aws.ToString(key.AccessKeyId), err)
		}
		m.logger.Info().Str("user", r.Name).Str("access_key", aws.ToString(key.AccessKeyId)).Msg("access key deactivated")
	}

	if _, err := m.api.DeleteLoginProfile(ctx, &iam.DeleteLoginProfileInput{UserName: aws.String(r.Name)}); err != nil {
		var notFound *iamtypes.NoSuchEntityException
		if !errors.As(err, &notFound) {
			return fmt.Errorf("delete login profile for %s: %w", r.Name, err)
		}
	}
	return nil
}

func (m *OffboardMutator) Describe() string {
	return "deactivate access keys and remove console access"
}
