package cmd

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd is the base command; every subcommand below wires its own store
// and clients rather than sharing package-level state, so tests could
// construct an isolated cobra.Command tree if needed.
var rootCmd = &cobra.Command{
	Use:   "reelwatch",
	Short: "reelwatch acquisition control plane",
	Long:  `reelwatch watches a movie catalog, searches indexers, grabs and imports releases, and retries failures with backoff.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./reelwatch.yaml)")
}

func initConfig() {
	_ = godotenv.Load() // .env is optional, absent in most deployments

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("reelwatch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("REELWATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", ""))
	viper.AutomaticEnv()
}
