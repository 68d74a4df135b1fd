package main

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4"

	appmigrations "github.com/wolfman30/visitplus-leads/migrations"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		args    []string
		want    command
		wantErr bool
	}{
		{args: nil, want: command{name: "up"}},
		{args: []string{"down"}, want: command{name: "down"}},
		{args: []string{"version"}, want: command{name: "version"}},
		{args: []string{"force", "3"}, want: command{name: "force", version: 3}},
		{args: []string{"force"}, wantErr: true},
		{args: []string{"force", "x"}, wantErr: true},
		{args: []string{"up", "2"}, wantErr: true},
		{args: []string{"sideways"}, wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseCommand(tt.args)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseCommand(%v) expected error", tt.args)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseCommand(%v) unexpected error: %v", tt.args, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseCommand(%v) = %+v, want %+v", tt.args, got, tt.want)
		}
	}
}

type fakeMigrator struct {
	upErr      error
	forced     int
	version    uint
	dirty      bool
	versionErr error
}

func (f *fakeMigrator) Up() error { return f.upErr }
func (f *fakeMigrator) Down() error { return migrate.ErrNoChange }
func (f *fakeMigrator) Force(v int) error { f.forced = v; return nil }
func (f *fakeMigrator) Version() (uint, bool, error) { return f.version, f.dirty, f.versionErr }

func TestRun(t *testing.T) {
	if out, err := run(&fakeMigrator{upErr: migrate.ErrNoChange}, command{name: "up"}); err != nil || out != "migrations complete" {
		t.Fatalf("up with no change: %q, %v", out, err)
	}
	if _, err := run(&fakeMigrator{upErr: errors.New("syntax error")}, command{name: "up"}); err == nil {
		t.Fatalf("expected up error")
	}
	if _, err := run(&fakeMigrator{}, command{name: "down"}); err != nil {
		t.Fatalf("down: %v", err)
	}

	fm := &fakeMigrator{}
	if _, err := run(fm, command{name: "force", version: 1}); err != nil || fm.forced != 1 {
		t.Fatalf("force: forced=%d err=%v", fm.forced, err)
	}

	out, err := run(&fakeMigrator{version: 1, dirty: true}, command{name: "version"})
	if err != nil || out != "version 1 (dirty=true)" {
		t.Fatalf("version: %q, %v", out, err)
	}
	out, err = run(&fakeMigrator{versionErr: migrate.ErrNilVersion}, command{name: "version"})
	if err != nil || out != "no migrations applied" {
		t.Fatalf("nil version: %q, %v", out, err)
	}
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(appmigrations.FS, ".")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	if ups == 0 || ups != downs {
		t.Fatalf("expected paired migrations, got %d up and %d down", ups, downs)
	}
}
