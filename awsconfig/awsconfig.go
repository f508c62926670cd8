// Package awsconfig builds the aws.Config shared by the DynamoDB store and
// the SQS reply queue.
package awsconfig

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

const devRegion = "us-east-1"

// Load returns static dummy credentials in dev mode, for DynamoDB Local and
// ElasticMQ. Otherwise it uses the default chain (env, task role).
func Load(ctx context.Context, devMode bool) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if devMode {
		opts = append(opts,
			config.WithRegion(devRegion),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")),
		)
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// Endpoint returns the endpoint override for dev mode, or nil to keep the
// service's resolved endpoint.
func Endpoint(devMode bool, endpoint string) *string {
	if !devMode || endpoint == "" {
		return nil
	}
	return aws.String(endpoint)
}
