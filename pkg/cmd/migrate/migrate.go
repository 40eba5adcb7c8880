package migrate

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbsDevelops/f1-24-setup-recommender/log"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/cmd/cmdutil"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/config"
	dbmigrate "github.com/dbsDevelops/f1-24-setup-recommender/pkg/db/migrate"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/utils"
)

var (
	migrationSourceURL string
	showVersion        bool
)

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "performs database migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startMigration()
		},
	}

	cmd.Flags().StringVarP(&migrationSourceURL,
		"migrationSourceUrl",
		"m",
		"",
		"url to migration files (default: migrations built into the binary)")
	cmd.Flags().BoolVar(&showVersion,
		"version",
		false,
		"only print the current schema version")

	return cmd
}

func startMigration() error {
	if _, err := cmdutil.SetupLogger(); err != nil {
		return err
	}
	if config.DB == "" {
		return fmt.Errorf("no database configured (--db)")
	}
	ctx, cancel := cmdutil.SignalContext()
	defer cancel()

	// wait for database
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		timeout = 60 * time.Second
	}
	postgresAddr := utils.ExtractFromDBURL(config.DB)
	if err = utils.WaitForTCP(ctx, postgresAddr, timeout); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	dbURL := prepareURLForDB(config.DB)

	if showVersion {
		version, dirty, err := dbmigrate.Version(dbURL)
		if err != nil {
			return err
		}
		fmt.Printf("schema version %d (dirty: %t)\n", version, dirty)
		return nil
	}

	if migrationSourceURL == "" {
		log.Info("Using built-in migrations")
		err = dbmigrate.MigrateDB(dbURL)
	} else {
		log.Info("Using migrations files at", log.String("source", migrationSourceURL))
		err = dbmigrate.MigrateFromSource(migrationSourceURL, dbURL)
	}
	if err != nil {
		return err
	}
	version, _, err := dbmigrate.Version(dbURL)
	if err != nil {
		return err
	}
	log.Info("Database migrated", log.Uint("version", version))
	return nil
}

func prepareURLForDB(url string) string {
	options := "sslmode=disable"
	if strings.Contains(url, "sslmode=") {
		return url
	}
	if strings.Contains(url, "?") {
		return fmt.Sprintf("%s&%s", url, options)
	}
	return fmt.Sprintf("%s?%s", url, options)
}
