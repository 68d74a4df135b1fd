package mainconfig

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"

	appconfig "github.com/wolfman30/visitplus-leads/internal/config"
)

func TestLoadAWSConfigStaticCredentialsAndEndpoint(t *testing.T) {
	cfg := &appconfig.Config{
		AWSRegion:           "ap-northeast-2",
		AWSAccessKeyID:      "test",
		AWSSecretAccessKey:  "secret",
		AWSEndpointOverride: "http://localhost:4566",
	}
	awsCfg, err := LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if awsCfg.Region != "ap-northeast-2" {
		t.Fatalf("expected region, got %q", awsCfg.Region)
	}
	if aws.ToString(awsCfg.BaseEndpoint) != "http://localhost:4566" {
		t.Fatalf("expected endpoint override, got %q", aws.ToString(awsCfg.BaseEndpoint))
	}
	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("retrieve credentials: %v", err)
	}
	if creds.AccessKeyID != "test" {
		t.Fatalf("expected static credentials, got %q", creds.AccessKeyID)
	}
}

func TestLoadAWSConfigWithoutOverride(t *testing.T) {
	awsCfg, err := LoadAWSConfig(context.Background(), &appconfig.Config{AWSRegion: "ap-northeast-2"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if awsCfg.BaseEndpoint != nil {
		t.Fatalf("expected no endpoint override")
	}
}
