package mainconfig

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	appconfig "github.com/wolfman30/visitplus-leads/internal/config"
)

// LoadAWSConfig centralizes AWS SDK initialization so the server, the Lambda
// and the CLI share the same LocalStack/production wiring. With
// AWS_ENDPOINT_OVERRIDE set, every service client (DynamoDB, S3, SQS, SES)
// talks to that endpoint.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return aws.Config{}, err
	}

	if endpoint := strings.TrimSpace(cfg.AWSEndpointOverride); endpoint != "" {
		awsCfg.BaseEndpoint = aws.String(endpoint)
	}

	return awsCfg, nil
}
