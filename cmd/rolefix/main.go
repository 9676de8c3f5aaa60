// rolefix rewrites numeric and select-object roles in the user table to the
// plain "admin"/"user" strings the server expects.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/Trinaxus/TON.BAND/internal/config"
	"github.com/Trinaxus/TON.BAND/internal/logger"
	"github.com/Trinaxus/TON.BAND/internal/model"
	"github.com/Trinaxus/TON.BAND/internal/repository"
	"github.com/Trinaxus/TON.BAND/internal/tablestore"
)

// exitError carries the process exit code out of run.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit %d", e.code) }
func (e exitError) ExitCode() int { return e.code }

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	var dryRun bool
	var envFile, table string

	flagSet := pflag.NewFlagSet("rolefix", pflag.ContinueOnError)
	flagSet.BoolVar(&dryRun, "dry-run", false, "log the changes without writing them")
	flagSet.StringVar(&envFile, "env-file", ".env", "environment file to load")
	flagSet.StringVar(&table, "table", "", "user table id (default: BASEROW_USER_TABLE_ID or 669)")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}
	logger.Init(logger.Options{Development: true})

	if table == "" {
		table = getenv("BASEROW_USER_TABLE_ID", "669")
	}
	token := getenv("BASEROW_ADMIN_TOKEN", os.Getenv("BASEROW_TOKEN"))
	if token == "" {
		return fmt.Errorf("BASEROW_ADMIN_TOKEN or BASEROW_TOKEN is required")
	}

	store := tablestore.NewClient(getenv("BASEROW_API_URL", "https://api.baserow.io/api"), token, nil, 30*time.Second)
	fields := config.UserFields{
		Username: getenv("BASEROW_FIELD_USERNAME", "username"),
		Email:    getenv("BASEROW_FIELD_EMAIL", "e-mail"),
		Password: getenv("BASEROW_FIELD_PASSWORD", "passwort"),
		Role:     getenv("BASEROW_FIELD_ROLE", "role"),
	}
	users := repository.NewUserRepository(store, store, table, fields)

	sum, err := fixRoles(context.Background(), users, dryRun)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "updated=%d skipped=%d failed=%d\n", sum.updated, sum.skipped, sum.failed)
	if sum.failed > 0 {
		return exitError{code: 1}
	}
	return nil
}

type summary struct {
	updated, skipped, failed int
}

// fixRoles patches every row whose stored role is not already the normalized
// string. In dry-run mode nothing is written.
func fixRoles(ctx context.Context, users repository.UserRepository, dryRun bool) (summary, error) {
	var sum summary
	all, err := users.All(ctx)
	if err != nil {
		return sum, fmt.Errorf("failed to list users: %w", err)
	}

	for _, u := range all {
		target := model.ParseRole(u.RawRole)
		if s, ok := u.RawRole.(string); ok && s == string(target) {
			sum.skipped++
			continue
		}
		if dryRun {
			slog.Info("would update role", "user_id", u.ID, "from", u.RawRole, "to", target)
			sum.updated++
			continue
		}
		if err := users.UpdateRole(ctx, u.ID, string(target)); err != nil {
			slog.Error("failed to update role", "user_id", u.ID, "error", err)
			sum.failed++
			continue
		}
		slog.Info("role updated", "user_id", u.ID, "from", u.RawRole, "to", target)
		sum.updated++
	}
	return sum, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
