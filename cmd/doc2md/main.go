// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the doc2md CLI.
package main

import (
	"context"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pdiddy/doc2md/internal/config"
	"github.com/pdiddy/doc2md/internal/secrets"
	"github.com/pdiddy/doc2md/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Store

// secretsLog receives warnings about secret files that cannot be read.
// The run logger is not configured yet when secrets load.
var secretsLog logrus.FieldLogger = logrus.StandardLogger()

// rootCmd is the base command for the doc2md CLI.
var rootCmd = &cobra.Command{
	Use:   "doc2md",
	Short: "Convert office documents to markdown",
	Long: `doc2md converts spreadsheets, Word documents, presentations, PDFs and
HTML pages into markdown. Spreadsheets become compact pipe tables, one per
sheet. An optional AI pass tidies the result through OpenAI or DeepSeek,
splitting large documents into chunks that are formatted in parallel and
reassembled in order.

Single files and whole directories are supported; directories are
converted concurrently and a failing file never stops the rest.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(secrets.DefaultDir, secretsLog)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose && len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", slices.Sorted(maps.Keys(s)))
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./doc2md.yaml or ~/.config/doc2md/doc2md.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().String("log-file", "", "also write logs to this file, rotated by size")
}

// loadConfig builds the run configuration. Flags in flagKeys that were set
// on the command line override the config file and the environment.
func loadConfig(cmd *cobra.Command, flagKeys map[string]string) (*types.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	v, err := config.New(config.Options{File: cfgFile})
	if err != nil {
		return nil, err
	}
	if used := v.ConfigFileUsed(); used != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", used)
	}

	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("binding --%s: %w", name, err)
			}
		}
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		v.Set("log.level", "debug")
	}
	if logFile, _ := cmd.Flags().GetString("log-file"); logFile != "" {
		v.Set("log.file", logFile)
	}

	return config.Decode(v, loadedSecrets)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
