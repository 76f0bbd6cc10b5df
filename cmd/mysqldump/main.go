package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gmemstr/mysqldump"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "mysqldump [config.toml]",
	Short: "Re-playable SQL dumps of MySQL-compatible databases",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDump,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to dump TOML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDump(cmd *cobra.Command, args []string) error {
	// Resolve config path: positional arg takes precedence over --config flag
	cfgPath := configPath
	if len(args) > 0 {
		cfgPath = args[0]
	}
	if cfgPath == "" {
		return fmt.Errorf("config file required: mysqldump <config.toml> or mysqldump --config <config.toml>")
	}

	cfg, opts, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	start := time.Now()
	dumper, err := mysqldump.NewDumper(cfg.DSN, opts)
	if err != nil {
		return err
	}

	dest := cfg.Output
	if dest == "" {
		dest = "stdout"
	}
	log.Printf("dumping to %s...", dest)
	if err := dumper.Start(cfg.Output); err != nil {
		return err
	}
	log.Printf("dump completed in %s", time.Since(start).Round(time.Millisecond))
	return nil
}
