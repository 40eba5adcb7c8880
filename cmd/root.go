package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/cmd/dump"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/cmd/live"
	migrateCmd "github.com/dbsDevelops/f1-24-setup-recommender/pkg/cmd/migrate"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/cmd/record"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/cmd/replay"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/cmd/send"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/config"
	"github.com/dbsDevelops/f1-24-setup-recommender/version"
)

const envPrefix = "F1SR"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "f1sr",
	Short:   "Telemetry receiver for the F1 24 setup recommender",
	Long:    ``,
	Version: version.FullVersion,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:funlen // flag definitions
func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.f1sr.yml)")

	rootCmd.PersistentFlags().StringVar(&config.DB, "db",
		"",
		"Connection string for the database (empty: laps are not stored)")
	rootCmd.PersistentFlags().StringVar(&config.NatsURL, "nats-url",
		"",
		"URL of the NATS server (empty: nothing is published)")
	rootCmd.PersistentFlags().StringVar(&config.WaitForServices,
		"wait-for-services",
		"15s",
		"Duration to wait for other services to be ready")
	rootCmd.PersistentFlags().StringVar(&config.LogLevel,
		"log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().StringVar(&config.SQLLogLevel,
		"sql-log-level",
		"debug",
		"controls the log level for sql statements")
	rootCmd.PersistentFlags().StringVar(&config.LogFormat,
		"log-format",
		"text",
		"controls the log output format (json, text)")
	rootCmd.PersistentFlags().StringVar(&config.LogConfig,
		"log-config",
		"",
		"configures the logger via a yaml file")
	rootCmd.PersistentFlags().StringVar(&config.LogFile,
		"log-file",
		"",
		"write logs to this file (rotated) instead of stderr")
	rootCmd.PersistentFlags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	rootCmd.PersistentFlags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data (stdout: print to stdout)")
	rootCmd.PersistentFlags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to use for providing profiling data (0: disabled)")

	// add commands here
	rootCmd.AddCommand(live.NewLiveCmd())
	rootCmd.AddCommand(replay.NewReplayCmd())
	rootCmd.AddCommand(record.NewRecordCmd())
	rootCmd.AddCommand(send.NewSendCmd())
	rootCmd.AddCommand(dump.NewDumpCmd())
	rootCmd.AddCommand(migrateCmd.NewMigrateCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".f1sr" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".f1sr")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	bindFlags(rootCmd, viper.GetViper())
	for _, cmd := range rootCmd.Commands() {
		bindFlags(cmd, viper.GetViper())
	}
}

// Bind each cobra flag to its associated viper configuration
// (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores, e.g. --favorite-color to STING_FAVORITE_COLOR
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name,
				fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v", f.Name, err)
			}
		}
		// Apply the viper config value to the flag when the flag is not set and viper
		// has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				fmt.Fprintf(os.Stderr, "Could set flag value for %s: %v", f.Name, err)
			}
		}
	})
}
