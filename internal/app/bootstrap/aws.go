package bootstrap

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// AWSLoader resolves the shared AWS SDK config.
type AWSLoader func(ctx context.Context) (aws.Config, error)

// OnceAWS memoizes load so the SDK config is resolved at most once, and only
// when some component actually needs AWS.
func OnceAWS(load AWSLoader) AWSLoader {
	if load == nil {
		return nil
	}
	var (
		once sync.Once
		cfg  aws.Config
		err  error
	)
	return func(ctx context.Context) (aws.Config, error) {
		once.Do(func() { cfg, err = load(ctx) })
		return cfg, err
	}
}
