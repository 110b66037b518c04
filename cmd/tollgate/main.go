package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tollgate-ai/tollgate/pkg/config"
	"github.com/tollgate-ai/tollgate/pkg/keyring"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "tollgate",
		Short:   "Tollgate — admission control and usage accounting for LLM traffic",
		Version: version,
	}

	root.AddCommand(
		newStatsCmd(),
		newModelsCmd(),
		newEstimateCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func configureLogging(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

// loadConfig reads the config file, applies its log level and loads the
// dotenv file it names (or ./.env when unset).
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	configureLogging(cfg.LogLevel)

	if cfg.DotEnv != "" {
		err = keyring.LoadDotEnv(cfg.DotEnv)
	} else {
		err = keyring.LoadDotEnv()
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
