// Package awsecr sweeps ECR repositories: prefix-filtered listing with
// per-repository tag and scan-finding lookups, plus the idempotent
// mutations (tagging, tag mutability, image refresh) applied to them.
package awsecr

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog"

	"github.com/yairfalse/harava/internal/docker"
)

// Client implements region enumeration and repository listing over the
// AWS SDK. One client serves all regions; each call overrides the
// client region, since a sweep spans regions.
type Client struct {
	ecr    ECRAPI
	ec2    EC2API
	sts    STSAPI
	logger zerolog.Logger
}

// New creates a client using the default AWS credential chain.
func New(ctx context.Context, logger zerolog.Logger) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithDefaultRegion("us-east-1"))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &Client{
		ecr:    ecr.NewFromConfig(cfg),
		ec2:    ec2.NewFromConfig(cfg),
		sts:    sts.NewFromConfig(cfg),
		logger: logger,
	}, nil
}

// ECR exposes the underlying ECR API for mutator construction.
func (c *Client) ECR() ECRAPI { return c.ecr }

// Regions returns the account's enabled regions in provider order.
func (c *Client) Regions(ctx context.Context) ([]string, error) {
	out, err := c.ec2.DescribeRegions(ctx, &ec2.DescribeRegionsInput{})
	if err != nil {
		return nil, fmt.Errorf("describe regions: %w", err)
	}

	regions := make([]string, 0, len(out.Regions))
	for _, region := range out.Regions {
		regions = append(regions, aws.ToString(region.RegionName))
	}
	return regions, nil
}

// AccountID resolves the caller's AWS account.
func (c *Client) AccountID(ctx context.Context) (string, error) {
	out, err := c.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("get caller identity: %w", err)
	}
	return aws.ToString(out.Account), nil
}

// Login authenticates a Docker runner against the region's registry
// using an ECR authorization token.
func (c *Client) Login(ctx context.Context, runner docker.Runner, account, region string) error {
	out, err := c.ecr.GetAuthorizationToken(ctx, &ecr.GetAuthorizationTokenInput{}, withRegion(region))
	if err != nil {
		return fmt.Errorf("get authorization token: %w", err)
	}
	if len(out.AuthorizationData) == 0 {
		return fmt.Errorf("get authorization token: empty response")
	}

	decoded, err := base64.StdEncoding.DecodeString(aws.ToString(out.AuthorizationData[0].AuthorizationToken))
	if err != nil {
		return fmt.Errorf("decode authorization token: %w", err)
	}
	username, password, found := strings.Cut(string(decoded), ":")
	if !found {
		return fmt.Errorf("malformed authorization token")
	}

	return runner.Login(ctx, RegistryHost(account, region), username, password)
}

// RegistryHost returns the registry hostname for an account and region.
func RegistryHost(account, region string) string {
	return fmt.Sprintf("%s.dkr.ecr.%s.amazonaws.com", account, region)
}

func withRegion(region string) func(*ecr.Options) {
	return func(o *ecr.Options) { o.Region = region }
}
