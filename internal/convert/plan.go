// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pdiddy/doc2md/internal/sink"
	"github.com/pdiddy/doc2md/pkg/types"
)

// OutputDirSuffix is appended to an input directory's name to form the
// default output directory.
const OutputDirSuffix = "_md"

// PlanOptions controls how inputs become jobs.
type PlanOptions struct {
	// Recursive descends into subdirectories of an input directory.
	Recursive bool
	// Strict records unsupported files as failures instead of skipping them.
	Strict bool
	// DetectContent classifies files with unknown extensions by content.
	DetectContent bool

	IncludeTitles bool
	UseAI         bool
}

// JobPlan is the work derived from one input path.
type JobPlan struct {
	Jobs []types.ConversionJob
	// Rejected holds failed outcomes for inputs that cannot become jobs.
	Rejected []Outcome
	// Skipped lists directory entries that were ignored.
	Skipped []string
}

// Plan turns an input file or directory into jobs. For a directory the
// output defaults to a sibling named <dir>_md and mirrors the relative
// layout of the inputs. For a file it defaults to <base>.md in the working
// directory. Output may be an s3:// URL.
func Plan(input, output string, opts PlanOptions) (*JobPlan, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("input %s: %w", input, err)
	}
	if info.IsDir() {
		return planDir(input, output, opts)
	}
	return planFile(input, output, opts), nil
}

func planFile(input, output string, opts PlanOptions) *JobPlan {
	name := mdName(filepath.Base(input))
	switch {
	case output == "":
		output = name
	case strings.HasSuffix(output, "/") || isDir(output):
		output = joinOutput(output, name)
	}

	job := types.ConversionJob{
		Input:         input,
		Output:        output,
		IncludeTitles: opts.IncludeTitles,
		UseAI:         opts.UseAI,
	}
	if err := ClassifyJob(&job, opts.DetectContent); err != nil {
		return &JobPlan{Rejected: []Outcome{rejected(input, err)}}
	}
	return &JobPlan{Jobs: []types.ConversionJob{job}}
}

func planDir(input, output string, opts PlanOptions) (*JobPlan, error) {
	root := filepath.Clean(input)
	if output == "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", input, err)
		}
		output = filepath.Join(filepath.Dir(abs), filepath.Base(abs)+OutputDirSuffix)
	}
	outAbs, _ := filepath.Abs(output)

	plan := &JobPlan{}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p == root {
				return nil
			}
			if abs, _ := filepath.Abs(p); !opts.Recursive || abs == outAbs || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") || !d.Type().IsRegular() {
			plan.Skipped = append(plan.Skipped, p)
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		job := types.ConversionJob{
			Input:         p,
			Output:        joinOutput(output, filepath.Join(filepath.Dir(rel), mdName(name))),
			IncludeTitles: opts.IncludeTitles,
			UseAI:         opts.UseAI,
		}
		if err := ClassifyJob(&job, opts.DetectContent); err != nil {
			if opts.Strict {
				plan.Rejected = append(plan.Rejected, rejected(p, err))
			} else {
				plan.Skipped = append(plan.Skipped, p)
			}
			return nil
		}
		plan.Jobs = append(plan.Jobs, job)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", input, err)
	}

	disambiguate(plan.Jobs)
	return plan, nil
}

// disambiguate renames outputs shared by several inputs, such as
// report.xlsx and report.pdf, to <base>_<ext>.md.
func disambiguate(jobs []types.ConversionJob) {
	byOutput := make(map[string][]int)
	for i, j := range jobs {
		byOutput[j.Output] = append(byOutput[j.Output], i)
	}
	for out, idx := range byOutput {
		if len(idx) < 2 {
			continue
		}
		base := strings.TrimSuffix(out, ".md")
		for _, i := range idx {
			ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(jobs[i].Input)), ".")
			jobs[i].Output = base + "_" + ext + ".md"
		}
	}
}

func mdName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".md"
}

// joinOutput appends a relative path to an output root, which is either a
// directory or an s3:// URL.
func joinOutput(root, rel string) string {
	if sink.IsRemote(root) {
		return sink.Scheme + path.Join(strings.TrimPrefix(root, sink.Scheme), filepath.ToSlash(rel))
	}
	return filepath.Join(root, rel)
}

func isDir(p string) bool {
	if sink.IsRemote(p) {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

func rejected(input string, err error) Outcome {
	return Outcome{Input: input, Status: types.StatusFailed, Err: err}
}
