package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/ecommerce-backend/pkg/config"
	"github.com/angelmondragon/ecommerce-backend/pkg/db"
	"github.com/angelmondragon/ecommerce-backend/pkg/db/models"
	"github.com/angelmondragon/ecommerce-backend/pkg/logger"
	"github.com/angelmondragon/ecommerce-backend/pkg/migrate"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "up|down|status|version|create|validate")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "migrations directory; the default reads the embedded copy")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target YYYYMMDDHHMMSS for -cmd=version")
	flag.Parse()

	if done := runOffline(opts); done {
		return
	}
	if err := runOnline(context.Background(), opts); err != nil {
		exitf("migrate %s: %v", opts.cmd, err)
	}
}

// runOffline handles the commands that never open a connection.
func runOffline(opts options) bool {
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			exitf("-name is required for create")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			exitf("create migration: %v", err)
		}
		fmt.Println("created", path)
	case "validate":
		if err := migrate.ValidateDir(opts.dir); err != nil {
			exitf("validate migrations: %v", err)
		}
		fmt.Println("migrations ok")
	default:
		return false
	}
	return true
}

func runOnline(ctx context.Context, opts options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = db.DriverSQLite
	}

	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"cmd":    opts.cmd,
		"dir":    opts.dir,
		"driver": cfg.DB.Driver,
	})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "migrate.db_unavailable", err)
		return err
	}
	defer client.Close()

	// sqlite builds its schema from the models; goose files are postgres only.
	if client.Driver() == db.DriverSQLite {
		if opts.cmd != "up" {
			return fmt.Errorf("sqlite supports only -cmd=up")
		}
		if err := models.AutoMigrate(client.DB()); err != nil {
			return fmt.Errorf("automigrate: %w", err)
		}
		if err := migrate.SeedRoles(ctx, client.DB()); err != nil {
			return fmt.Errorf("seed roles: %w", err)
		}
		logg.Info(ctx, "migrate.sqlite_ready")
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return err
	}
	migrations, err := migrate.Source(opts.dir)
	if err != nil {
		return err
	}
	dialect := migrate.Dialect(client.Driver())

	switch opts.cmd {
	case "up", "down", "status":
		err = migrate.Run(ctx, sqlDB, dialect, migrations, opts.cmd, os.Stdout)
	case "version":
		if opts.version == "" {
			return fmt.Errorf("-version is required")
		}
		err = migrate.MigrateToVersion(ctx, sqlDB, dialect, migrations, opts.version, os.Stdout)
	default:
		return fmt.Errorf("unknown command %q", opts.cmd)
	}
	if err == nil {
		logg.Info(ctx, "migrate.done")
	}
	return err
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
