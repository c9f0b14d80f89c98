// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pdiddy/doc2md/internal/config"
	"github.com/pdiddy/doc2md/internal/convert"
	"github.com/pdiddy/doc2md/internal/formatter"
	"github.com/pdiddy/doc2md/internal/generic"
	"github.com/pdiddy/doc2md/internal/httputil"
	"github.com/pdiddy/doc2md/internal/logging"
	"github.com/pdiddy/doc2md/internal/sink"
	"github.com/pdiddy/doc2md/pkg/types"
)

// convertFlagKeys maps convert flags to the config keys they override.
var convertFlagKeys = map[string]string{
	"use-ai":         "use_ai",
	"ai-provider":    "ai_provider",
	"prompts-file":   "prompts_file",
	"workers":        "workers",
	"chunk-workers":  "chunk_workers",
	"recursive":      "recursive",
	"strict":         "strict",
	"detect-content": "detect_content",
	"backend":        "generic.backend",
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a file or a directory of files to markdown",
	Long: `Convert turns one document (-i) or every supported document in a directory
(-d) into markdown. A single file is written to <name>.md in the working
directory unless -o is given. A directory is written to a sibling
<dir>_md directory that mirrors its layout. Output may be an s3:// URL
when object storage is configured.

With --use-ai the markdown is sent through the configured provider for
formatting. Provider failures never lose a file: the unformatted markdown
is written and the file is reported as degraded.

The command exits non-zero when any file failed.`,
	Args: cobra.NoArgs,
	RunE: runConvert,
}

func init() {
	f := convertCmd.Flags()
	f.StringP("input", "i", "", "input file")
	f.StringP("directory", "d", "", "input directory")
	f.StringP("output", "o", "", "output file, directory or s3:// URL")
	f.Bool("no-titles", false, "omit the sheet heading above each spreadsheet table")
	f.Bool("use-ai", false, "format the markdown with an AI provider")
	f.String("ai-provider", string(types.ProviderOpenAI), "AI provider: openai or deepseek")
	f.String("prompts-file", "prompts.yaml", "YAML file with formatting prompts")
	f.Int("workers", 4, "files converted concurrently")
	f.Int("chunk-workers", 4, "concurrent AI requests per file")
	f.Bool("recursive", false, "descend into subdirectories of -d")
	f.Bool("strict", false, "report unsupported files in -d as failures")
	f.Bool("detect-content", false, "classify files with unknown extensions by content")
	f.String("backend", string(types.BackendAuto), "converter for docx, pptx, pdf and html: auto, markitdown or native")

	convertCmd.MarkFlagsMutuallyExclusive("input", "directory")
	convertCmd.MarkFlagsOneRequired("input", "directory")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, convertFlagKeys)
	if err != nil {
		return err
	}
	if noTitles, _ := cmd.Flags().GetBool("no-titles"); noTitles {
		cfg.IncludeTitles = false
	}

	log, closer, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	input, _ := cmd.Flags().GetString("input")
	dir, _ := cmd.Flags().GetString("directory")
	output, _ := cmd.Flags().GetString("output")
	if dir != "" {
		if !isDirectory(dir) {
			return fmt.Errorf("%s is not a directory", dir)
		}
		input = dir
	}

	return convertPath(cmd.Context(), cfg, input, output, cmd.OutOrStdout(), log)
}

// convertPath plans and runs the jobs for input and writes per-file status
// lines and a summary to out.
func convertPath(ctx context.Context, cfg *types.Config, input, output string, out io.Writer, log *logrus.Logger) error {
	plan, err := convert.Plan(input, output, convert.PlanOptions{
		Recursive:     cfg.Recursive,
		Strict:        cfg.Strict,
		DetectContent: cfg.DetectContent,
		IncludeTitles: cfg.IncludeTitles,
		UseAI:         cfg.UseAI,
	})
	if err != nil {
		return err
	}
	for _, s := range plan.Skipped {
		log.WithField("path", s).Debug("skipping unsupported file")
	}
	if len(plan.Jobs) == 0 && len(plan.Rejected) == 0 {
		fmt.Fprintf(out, "No supported files found in %s\n", input)
		return nil
	}

	pipeline, err := buildPipeline(ctx, cfg, log)
	if err != nil {
		return err
	}

	batch := &convert.Batch{Runner: pipeline, Workers: cfg.Workers, Log: log, Out: out}
	result := batch.Run(ctx, plan.Jobs, plan.Rejected...)
	if result.HasFailures() {
		return fmt.Errorf("%d of %d files failed", result.Failed(), result.Total())
	}
	return nil
}

// buildPipeline wires the converters, the optional formatter and the
// output sink for one run.
func buildPipeline(ctx context.Context, cfg *types.Config, log logrus.FieldLogger) (*convert.Pipeline, error) {
	extractor, err := generic.New(ctx, cfg.Generic, log)
	if err != nil {
		return nil, err
	}

	out := sink.Router{Local: sink.Local{}}
	if cfg.Minio.Endpoint != "" {
		remote, err := sink.NewMinio(cfg.Minio)
		if err != nil {
			return nil, err
		}
		out.Remote = remote
	}

	p := &convert.Pipeline{
		Dispatcher:    &convert.Dispatcher{Generic: extractor},
		AIExtensions:  cfg.AIExtensions,
		Sink:          out,
		DetectContent: cfg.DetectContent,
		Log:           log,
	}
	if cfg.UseAI {
		f, err := buildFormatter(cfg, log)
		if err != nil {
			return nil, err
		}
		p.Formatter = f
	}
	return p, nil
}

func isDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// gates lives for the process, which is one run.
var gates formatter.Gates

func buildFormatter(cfg *types.Config, log logrus.FieldLogger) (*formatter.Formatter, error) {
	pc := cfg.Provider()
	provider, err := formatter.NewProvider(cfg.AIProvider, pc, httputil.NewClient(0, "doc2md/"+version))
	if err != nil {
		return nil, err
	}
	prompts, err := config.Prompts(cfg, log)
	if err != nil {
		return nil, err
	}

	var cache *formatter.Cache
	if cfg.CacheResponses {
		cache = formatter.NewCache(0)
	}

	log.WithFields(logrus.Fields{
		"provider":         provider.Name(),
		"model":            provider.Model(),
		"rate_limit_delay": pc.Delay(),
	}).Info("AI formatting enabled")

	return formatter.New(provider, gates.For(provider.Name(), pc.Delay()), prompts, cache, formatter.Options{
		MaxTokens:      pc.MaxTokens,
		ChunkWorkers:   cfg.ChunkWorkers,
		MaxRetries:     cfg.MaxRetries,
		RequestTimeout: cfg.RequestTimeout,
	}, log), nil
}
