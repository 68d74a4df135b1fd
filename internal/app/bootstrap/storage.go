package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"

	appconfig "github.com/wolfman30/visitplus-leads/internal/config"
	"github.com/wolfman30/visitplus-leads/internal/leads"
	"github.com/wolfman30/visitplus-leads/pkg/logging"
)

// Database drivers accepted in DATABASE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverDynamoDB = "dynamodb"
	DriverMemory   = "memory"
)

// BuildRepository opens the lead store. The returned closer releases the
// connection pool and is never nil.
func BuildRepository(ctx context.Context, cfg *appconfig.Config, aws AWSLoader, logger *logging.Logger) (leads.Repository, func(), error) {
	if logger == nil {
		logger = logging.Default()
	}
	noop := func() {}

	switch strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver)) {
	case DriverPostgres, "":
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			logger.Warn("DATABASE_URL not set, storing leads in memory")
			return leads.NewInMemoryRepository(), noop, nil
		}
		pool, err := ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("lead store: postgres")
		return leads.NewPostgresRepository(pool), pool.Close, nil
	case DriverDynamoDB:
		if aws == nil {
			return nil, noop, fmt.Errorf("bootstrap: dynamodb lead store needs aws config")
		}
		awsCfg, err := aws(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("bootstrap: load aws config for dynamodb: %w", err)
		}
		logger.Info("lead store: dynamodb", "table", cfg.DynamoLeadsTable)
		return leads.NewDynamoRepository(dynamodb.NewFromConfig(awsCfg), cfg.DynamoLeadsTable), noop, nil
	case DriverMemory:
		logger.Info("lead store: memory")
		return leads.NewInMemoryRepository(), noop, nil
	}
	return nil, noop, fmt.Errorf("bootstrap: unknown database driver %q", cfg.DatabaseDriver)
}

// ConnectPostgres opens and pings a pgx pool.
func ConnectPostgres(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	return pool, nil
}
