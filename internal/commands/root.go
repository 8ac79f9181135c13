// internal/commands/root.go
package hunger

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/hunger/internal/appconfig"
	"github.com/mwiater/hunger/internal/logging"
)

var (
	cfgFile       string
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"
)

// boolFlags and stringFlags map persistent flags onto their config keys.
var (
	boolFlags = map[string]string{
		"debug":   "debug",
		"metrics": "metrics",
	}
	stringFlags = map[string]string{
		"logFile":       "logFile",
		"predictor":     "predictor.kind",
		"baseURL":       "predictor.baseURL",
		"transport":     "relay.transport",
		"broker":        "relay.broker",
		"listen":        "relay.listen",
		"relayURL":      "relay.url",
		"source":        "sensor.source",
		"agreementRule": "session.agreementRule",
		"answerLog":     "answerLog.csvPath",
	}
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hunger",
	Short: "hunger: heart-rate windows in, hunger predictions out",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := ensureConfigLoaded()
		if err != nil {
			return err
		}

		for name, key := range boolFlags {
			if !cmd.Flags().Changed(name) {
				_ = cmd.Flags().Set(name, strconv.FormatBool(viper.GetBool(key)))
			}
		}
		for name, key := range stringFlags {
			if !cmd.Flags().Changed(name) {
				_ = cmd.Flags().Set(name, viper.GetString(key))
			}
		}

		var cfg appconfig.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		if loaded {
			cfg.ConfigPath = viper.ConfigFileUsed()
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		currentConfig = &cfg

		if err := logging.Init(currentConfig.LogFilePath()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	defer logging.Close()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (e.g., config/config.json)")

	flags.Bool("debug", false, "enable debug logging and structure dumps")
	flags.Bool("metrics", false, "count relay and prediction outcomes")
	flags.String("logFile", "", "path to the log file")
	flags.String("predictor", "", "predictor kind: remote or mock")
	flags.String("baseURL", "", "base URL of the /predict endpoint")
	flags.String("transport", "", "relay transport: loopback, mqtt or websocket")
	flags.String("broker", "", "MQTT broker URL (e.g., tcp://localhost:1883)")
	flags.String("listen", "", "address the phone's websocket relay listens on")
	flags.String("relayURL", "", "websocket URL the watch dials")
	flags.String("source", "", "heart-rate source: simulated or ble")
	flags.String("agreementRule", "", "agreement rule: agree or confirm")
	flags.String("answerLog", "", "append answers to this CSV file")

	for name, key := range boolFlags {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}
	for name, key := range stringFlags {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// ensureConfigLoaded reads the config and reports whether a file was found.
// A missing file is not an error; flags and defaults still apply.
func ensureConfigLoaded() (bool, error) {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load config: %w", err)
	}
	return true, nil
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// DebugEnabled returns true if debug mode is enabled.
func DebugEnabled() bool { return viper.GetBool("debug") }

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}
