package awsiam

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"

	"github.com/yairfalse/harava/sweep"
	"github.com/yairfalse/harava/types"
)

// List pages through the account's users, keeping those whose name
// matches the prefix, and looks up each user's access keys and console
// login profile. ListUsers only filters by path prefix server-side, so
// the name prefix is applied client-side.
func (c *Client) List(ctx context.Context, region, prefix string) ([]types.Resource, error) {
	var resources []types.Resource

	paginator := iam.NewListUsersPaginator(c.iam, &iam.ListUsersInput{})
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		for _, user := range out.Users {
			if !sweep.MatchPrefix(aws.ToString(user.UserName), prefix) {
				continue
			}
			resources = append(resources, c.describeUser(ctx, user))
		}
	}
	return resources, nil
}

func (c *Client) describeUser(ctx context.Context, user iamtypes.User) types.Resource {
	name := aws.ToString(user.UserName)
	r := types.Resource{
		Name:   name,
		ID:     aws.ToString(user.Arn),
		Region: PartitionGlobal,
		Attrs:  map[string]string{},
	}
	if user.CreateDate != nil {
		r.Attrs[types.AttrCreatedAt] = user.CreateDate.Format(time.RFC3339)
	}

	keys, err := c.iam.ListAccessKeys(ctx, &iam.ListAccessKeysInput{UserName: user.UserName})
	if err != nil {
		c.logger.Warn().Err(err).Str("user", name).Msg("access key lookup failed")
		r.LookupErr = err.Error()
		return r
	}
	active := 0
	for _, key := range keys.AccessKeyMetadata {
		if key.Status == iamtypes.StatusTypeActive {
			active++
		}
	}
	r.Attrs[types.AttrAccessKeyCount] = strconv.Itoa(len(keys.AccessKeyMetadata))
	r.Attrs[types.AttrActiveAccessKeys] = strconv.Itoa(active)

	console := true
	if _, err := c.iam.GetLoginProfile(ctx, &iam.GetLoginProfileInput{UserName: user.UserName}); err != nil {
		var notFound *iamtypes.NoSuchEntityException
		if !errors.As(err, &notFound) {
			c.logger.Warn().Err(err).Str("user", name).Msg("login profile lookup failed")
			r.LookupErr = err.Error()
			return r
		}
		console = false
	}
	r.Attrs[types.AttrConsoleAccess] = strconv.FormatBool(console)
	return r
}

// HasActiveCredentials qualifies users who still hold active access
// keys or a console login profile.
func HasActiveCredentials() sweep.Predicate {
	return sweep.PredicateFunc(func(r types.Resource) bool {
		if active, err := strconv.Atoi(r.Attr(types.AttrActiveAccessKeys)); err == nil && active > 0 {
			return true
		}
		return r.Attr(types.AttrConsoleAccess) == "true"
	})
}
