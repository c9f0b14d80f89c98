// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures shared by the conversion
// pipeline: jobs, their statuses, and the run configuration.
package types

// FileKind classifies an input document by the conversion path it takes.
type FileKind string

const (
	KindSpreadsheet  FileKind = "spreadsheet"
	KindWord         FileKind = "word"
	KindPresentation FileKind = "presentation"
	KindPDF          FileKind = "pdf"
	KindMarkdown     FileKind = "markdown"
	KindHTML         FileKind = "html"
)

// JobStatus indicates how a single conversion job ended.
type JobStatus string

const (
	StatusConverted JobStatus = "converted"
	// StatusDegraded means the markdown was written but the AI pass fell
	// back to unformatted text for some or all of the document.
	StatusDegraded JobStatus = "degraded"
	StatusFailed   JobStatus = "failed"
	StatusSkipped  JobStatus = "skipped"
)

// ConversionJob is one input file scheduled for conversion. Output is
// resolved when the job is planned and Kind is fixed once classified.
type ConversionJob struct {
	// Input is the source document path.
	Input string `json:"input" yaml:"input"`

	// Output is the destination markdown path or s3:// URL.
	Output string `json:"output" yaml:"output"`

	// Kind is set by the dispatcher; empty until classified.
	Kind FileKind `json:"kind,omitempty" yaml:"kind,omitempty"`

	// Ext is the lower-case format extension (".xlsx"). It comes from the
	// file name, or from content detection when the name has none we know.
	Ext string `json:"ext,omitempty" yaml:"ext,omitempty"`

	// IncludeTitles adds a heading per sheet for spreadsheet inputs.
	IncludeTitles bool `json:"include_titles" yaml:"include_titles"`

	// UseAI requests the AI formatting pass for this job.
	UseAI bool `json:"use_ai" yaml:"use_ai"`
}
