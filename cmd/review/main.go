// Command review generates trading review reports from Bybit closed positions.
package main

import (
	"fmt"
	"os"

	"bybit-review/internal/cli"
	"bybit-review/internal/config"
	"bybit-review/internal/logging"
)

func main() {
	configDir := configDirFromArgs(os.Args[1:])

	logger := logging.NewLogger()

	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	rootCmd := cli.NewRootCmd(cfg, configDir, logger)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// configDirFromArgs extracts --config before cobra parses flags, because
// the configuration must be loaded to build the command tree.
func configDirFromArgs(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if len(arg) > len("--config=") && arg[:len("--config=")] == "--config=" {
			return arg[len("--config="):]
		}
	}
	return config.DefaultConfigDir()
}
