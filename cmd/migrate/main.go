package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	appmigrations "github.com/wolfman30/visitplus-leads/migrations"
)

type command struct {
	name    string
	version int
}

// parseCommand reads `migrate [up|down|version|force N]`; no argument means up.
func parseCommand(args []string) (command, error) {
	if len(args) == 0 {
		return command{name: "up"}, nil
	}
	switch args[0] {
	case "up", "down", "version":
		if len(args) > 1 {
			return command{}, fmt.Errorf("%s takes no arguments", args[0])
		}
		return command{name: args[0]}, nil
	case "force":
		if len(args) != 2 {
			return command{}, errors.New("usage: migrate force <version>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return command{}, fmt.Errorf("invalid version: %w", err)
		}
		return command{name: "force", version: version}, nil
	}
	return command{}, fmt.Errorf("unknown command %q", args[0])
}

type migrator interface {
	Up() error
	Down() error
	Force(int) error
	Version() (uint, bool, error)
}

func run(m migrator, cmd command) (string, error) {
	switch cmd.name {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return "", fmt.Errorf("migrate up: %w", err)
		}
		return "migrations complete", nil
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return "", fmt.Errorf("migrate down: %w", err)
		}
		return "migrations rolled back", nil
	case "force":
		if err := m.Force(cmd.version); err != nil {
			return "", fmt.Errorf("force version: %w", err)
		}
		return fmt.Sprintf("forced version to %d", cmd.version), nil
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return "no migrations applied", nil
		}
		if err != nil {
			return "", fmt.Errorf("read version: %w", err)
		}
		return fmt.Sprintf("version %d (dirty=%t)", version, dirty), nil
	}
	return "", fmt.Errorf("unknown command %q", cmd.name)
}

func main() {
	_ = godotenv.Load()

	cmd, err := parseCommand(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		log.Fatalf("ping db: %v", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatalf("db driver: %v", err)
	}

	srcDriver, err := iofs.New(appmigrations.FS, ".")
	if err != nil {
		log.Fatalf("source driver: %v", err)
	}

	m, err := migrate.NewWithInstance("iofs", srcDriver, "postgres", dbDriver)
	if err != nil {
		log.Fatalf("create migrator: %v", err)
	}
	defer func() { _, _ = m.Close() }()

	out, err := run(m, cmd)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(out)
}
