// Package cobolanon anonymizes COBOL source trees: program names, copybook
// names, paragraphs, sections, data names, comments, and string literal
// content are replaced with scheme-generated substitutes, while column
// layout, PIC/USAGE clauses, REDEFINES relationships, and reserved words
// are preserved exactly.
//
// Example usage:
//
//	cfg := config.Default()
//	cfg.InputDir = "original/"
//	cfg.OutputDir = "anonymized/"
//	result, err := cobolanon.Run(cfg, logger)
package cobolanon

import (
	"go.uber.org/zap"

	"github.com/ha1tch/cobolanon/config"
	"github.com/ha1tch/cobolanon/layout"
	"github.com/ha1tch/cobolanon/mapping"
	"github.com/ha1tch/cobolanon/pipeline"
	"github.com/ha1tch/cobolanon/report"
	"github.com/ha1tch/cobolanon/validate"
)

// Run executes a complete anonymization pipeline over cfg. A nil logger
// runs silently.
func Run(cfg config.Config, logger *zap.Logger) (pipeline.Result, error) {
	return pipeline.New(cfg, logger).Run()
}

// Re-export the package's principal types for convenience, so callers of
// this top-level package rarely need to import the subpackages directly.
type (
	Config = config.Config
	Result = pipeline.Result

	MappingTable = mapping.Table
	MappingEntry = mapping.Entry

	ValidationResult = validate.Result
	ValidationIssue  = validate.Issue

	Report = report.Report

	RecordLayout = layout.Record
	RecordField  = layout.Field
)

// DefaultConfig returns the configuration used when no file or overrides
// are supplied.
func DefaultConfig() config.Config {
	return config.Default()
}

// ParseRecordLayout parses a DATA DIVISION fragment into its record tree,
// for callers that want the field offsets of a copybook independently of
// running the anonymization pipeline.
func ParseRecordLayout(source string) ([]*layout.Record, error) {
	return layout.NewParser(false).ParseString(source)
}
