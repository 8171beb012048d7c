package awsiam

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/harava/types"
)

func twoKeys(_ context.Context, _ *iam.ListAccessKeysInput, _ ...func(*iam.Options)) (*iam.ListAccessKeysOutput, error) {
	return &iam.ListAccessKeysOutput{AccessKeyMetadata: []iamtypes.AccessKeyMetadata{
		{AccessKeyId: aws.String("AKIA1"), Status: iamtypes.StatusTypeActive},
		{AccessKeyId: aws.String("AKIA2"), Status: iamtypes.StatusTypeInactive},
	}}, nil
}

func TestOffboardDeactivatesKeysAndRemovesConsole(t *testing.T) {
	var deactivated []string
	profileDeleted := false
	mock := &mockIAM{
		ListAccessKeysFunc: twoKeys,
		UpdateAccessKeyFunc: func(_ context.Context, params *iam.UpdateAccessKeyInput, _ ...func(*iam.Options)) (*iam.UpdateAccessKeyOutput, error) {
			require.Equal(t, iamtypes.StatusTypeInactive, params.Status)
			deactivated = append(deactivated, aws.ToString(params.AccessKeyId))
			return &iam.UpdateAccessKeyOutput{}, nil
		},
		DeleteLoginProfileFunc: func(_ context.Context, params *iam.DeleteLoginProfileInput, _ ...func(*iam.Options)) (*iam.DeleteLoginProfileOutput, error) {
			require.Equal(t, "contractor-ann", aws.ToString(params.UserName))
			profileDeleted = true
			return &iam.DeleteLoginProfileOutput{}, nil
		},
	}

	m := NewOffboardMutator(mock, zerolog.Nop())
	err := m.Apply(context.Background(), types.Resource{Name: "contractor-ann", Region: PartitionGlobal})
	require.NoError(t, err)
	assert.Equal(t, []string{"AKIA1", "AKIA2"}, deactivated)
	assert.True(t, profileDeleted)
}

func TestOffboardMissingLoginProfileIsNoOp(t *testing.T) {
	mock := &mockIAM{
		ListAccessKeysFunc: noKeys,
		DeleteLoginProfileFunc: func(_ context.Context, _ *iam.DeleteLoginProfileInput, _ ...func(*iam.Options)) (*iam.DeleteLoginProfileOutput, error) {
			return nil, &iamtypes.NoSuchEntityException{}
		},
	}

	m := NewOffboardMutator(mock, zerolog.Nop())
	assert.NoError(t, m.Apply(context.Background(), types.Resource{Name: "svc-batch", Region: PartitionGlobal}))
}

func TestOffboardKeyDeactivationFailureWrapped(t *testing.T) {
	mock := &mockIAM{
		ListAccessKeysFunc: twoKeys,
		UpdateAccessKeyFunc: func(_ context.Context, _ *iam.UpdateAccessKeyInput, _ ...func(*iam.Options)) (*iam.UpdateAccessKeyOutput, error) {
			return nil, errors.New("access denied")
		},
	}

	m := NewOffboardMutator(mock, zerolog.Nop())
	err := m.Apply(context.Background(), types.Resource{Name: "contractor-ann", Region: PartitionGlobal})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deactivate access key AKIA1")
}

func TestOffboardProfileDeletionFailureWrapped(t *testing.T) {
	mock := &mockIAM{
		ListAccessKeysFunc: noKeys,
		DeleteLoginProfileFunc: func(_ context.Context, _ *iam.DeleteLoginProfileInput, _ ...func(*iam.Options)) (*iam.DeleteLoginProfileOutput, error) {
			return nil, errors.New("throttled")
		},
	}

	m := NewOffboardMutator(mock, zerolog.Nop())
	err := m.Apply(context.Background(), types.Resource{Name: "contractor-ann", Region: PartitionGlobal})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete login profile for contractor-ann")
}

func TestOffboardDescribe(t *testing.T) {
	m := NewOffboardMutator(&mockIAM{}, zerolog.Nop())
	assert.Equal(t, "deactivate access keys and remove console access", m.Describe())
}
