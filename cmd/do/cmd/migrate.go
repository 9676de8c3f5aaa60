package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/Trinaxus/TON.BAND/internal/db"
)

func MigrateCmd() Command {
	return Command{
		Name:  "migrate",
		Short: "Apply, roll back or inspect database migrations (up|down|status)",
		Run:   runMigrate,
	}
}

func runMigrate(args []string) error {
	var envFile, driver, connection string
	flagSet := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", ".env", "environment file to load")
	flagSet.StringVar(&driver, "driver", "", "database driver (default: DB_DRIVER or sqlite)")
	flagSet.StringVar(&connection, "connection", "", "connection string (default: DB_CONNECTION)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}
	if driver == "" {
		driver = os.Getenv("DB_DRIVER")
	}
	if driver == "" {
		driver = "sqlite"
	}
	if connection == "" {
		connection = os.Getenv("DB_CONNECTION")
	}
	if connection == "" && driver == "sqlite" {
		connection = "./data/tonband.db"
	}

	action := "up"
	if flagSet.NArg() > 0 {
		action = flagSet.Arg(0)
	}

	database, err := db.Init(driver, connection)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	switch action {
	case "up":
		err = db.RunMigrations(ctx, database.DB, driver)
	case "down":
		err = db.MigrateDown(ctx, database.DB, driver)
	case "status":
	default:
		return fmt.Errorf("unknown migrate action %q (want up, down or status)", action)
	}
	if err != nil {
		return err
	}

	version, err := db.Version(ctx, database.DB, driver)
	if err != nil {
		return err
	}
	fmt.Printf("%s: schema version %d\n", driver, version)
	return nil
}
