// Command migrate applies, reverts or lists the Postgres schema migrations.
//
//	migrate up|down|status
//
// The database is read from DATABASE_URL.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
	"github.com/Zhima-Mochi/minishop-orders/internal/pkg/logging"
)

const usage = "usage: migrate up|down|status"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New(usage)
	}
	cmd := args[0]
	if cmd != "up" && cmd != "down" && cmd != "status" {
		return fmt.Errorf("unknown command %q: %s", cmd, usage)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	zl, err := logging.NewLogger("minishop-migrate", getenvDefault("ENV", "dev"), getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()
	logger := zaplogger.New(zl)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.Open(ctx, dbURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	m := postgres.NewMigrator(pool, nil, logger)
	switch cmd {
	case "up":
		n, err := m.Up(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "applied %d migration(s)\n", n)
	case "down":
		reverted, err := m.Down(ctx)
		if errors.Is(err, postgres.ErrNoMigration) {
			fmt.Fprintln(out, "nothing to revert")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "reverted %d %s\n", reverted.Version, reverted.Name)
	case "status":
		statuses, err := m.Status(ctx)
		if err != nil {
			return err
		}
		printStatus(out, statuses)
	}
	logger.Info("migrate_done", observability.F("command", cmd))
	return nil
}

func printStatus(out io.Writer, statuses []postgres.MigrationStatus) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED AT")
	for _, s := range statuses {
		applied := "pending"
		if s.AppliedAt != nil {
			applied = s.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Version, s.Name, applied)
	}
	_ = tw.Flush()
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
