// Package awsiam sweeps IAM users for offboarding: prefix-filtered
// listing with per-user credential lookups, and the idempotent
// mutation that revokes those credentials.
package awsiam

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/rs/zerolog"
)

// PartitionGlobal is the single pseudo-region IAM sweeps run in;
// IAM is a global service.
const PartitionGlobal = "aws-global"

// IAMAPI defines the IAM operations used by sweeps.
type IAMAPI interface {
	ListUsers(ctx context.Context, params *iam.ListUsersInput, optFns ...func(*iam.Options)) (*iam.ListUsersOutput, error)
	ListAccessKeys(ctx context.Context, params *iam.ListAccessKeysInput, optFns ...func(*iam.Options)) (*iam.ListAccessKeysOutput, error)
	GetLoginProfile(ctx context.Context, params *iam.GetLoginProfileInput, optFns ...func(*iam.Options)) (*iam.GetLoginProfileOutput, error)
	UpdateAccessKey(ctx context.Context, params *iam.UpdateAccessKeyInput, optFns ...func(*iam.Options)) (*iam.UpdateAccessKeyOutput, error)
	DeleteLoginProfile(ctx context.Context, params *iam.DeleteLoginProfileInput, optFns ...func(*iam.Options)) (*iam.DeleteLoginProfileOutput, error)
}

// Client implements region enumeration and user listing over the AWS SDK.
type Client struct {
	iam    IAMAPI
	logger zerolog.Logger
}

// New creates a client using the default AWS credential chain.
func New(ctx context.Context, logger zerolog.Logger) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithDefaultRegion("us-east-1"))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &Client{iam: iam.NewFromConfig(cfg), logger: logger}, nil
}

// IAM exposes the underlying API for mutator construction.
func (c *Client) IAM() IAMAPI { return c.iam }

// Regions returns the single global partition.
func (c *Client) Regions(ctx context.Context) ([]string, error) {
	return []string{PartitionGlobal}, nil
}
