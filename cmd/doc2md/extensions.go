// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/doc2md/internal/config"
	"github.com/pdiddy/doc2md/internal/convert"
)

var extensionsCmd = &cobra.Command{
	Use:   "extensions",
	Short: "List supported and AI-eligible file extensions",
	Long: `Extensions prints every file extension doc2md converts, with the converter
that handles it, followed by the extensions the AI pass applies to
(ai_extensions in the config file, or AI_SUPPORTED_EXTENSIONS).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, _ := cmd.Flags().GetString("config")
		v, err := config.New(config.Options{File: cfgFile})
		if err != nil {
			return err
		}
		printExtensions(cmd.OutOrStdout(), config.NormalizeExtensions(v.GetStringSlice("ai_extensions")))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extensionsCmd)
}

func printExtensions(w io.Writer, aiExts []string) {
	supported := convert.SupportedExtensions()

	fmt.Fprintln(w, "Supported extensions:")
	for _, ext := range supported {
		kind, _ := convert.Classify("file" + ext)
		fmt.Fprintf(w, "  %-10s %s\n", ext, kind)
	}

	fmt.Fprintln(w)
	if len(aiExts) == 0 {
		fmt.Fprintln(w, "AI formatting applies to: all supported extensions")
		return
	}
	fmt.Fprintf(w, "AI formatting applies to: %s\n", strings.Join(aiExts, ", "))
	for _, ext := range aiExts {
		if !slices.Contains(supported, ext) {
			fmt.Fprintf(w, "  warning: %s is not a supported extension\n", ext)
		}
	}
}
