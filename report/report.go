// Package report builds run-level anonymization reports: per-file
// statistics, identifier counts by role, the external-name list, and the
// full mapping table, in both JSON and plain-text form.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/ha1tch/cobolanon/classify"
	"github.com/ha1tch/cobolanon/copybook"
	"github.com/ha1tch/cobolanon/mapping"
	"github.com/ha1tch/cobolanon/transform"
)

// ToolVersion is the reported version of this anonymization engine.
const ToolVersion = "1.0.0"

// FileStatistics summarizes one file's transformation.
type FileStatistics struct {
	Filename            string
	AnonymizedFilename  string
	TotalLines          int
	TransformedLines    int
	IdentifiersFound    int
	CommentsTransformed int
}

// Report is the complete outcome of one anonymization run.
type Report struct {
	GeneratedAt           string
	ToolVersion           string
	SourceDirectory       string
	OutputDirectory       string
	FileStatistics        []FileStatistics
	MappingTable          *mapping.Table
	TotalFiles            int
	TotalLines            int
	TotalIdentifiers      int
	ExternalNames         []string
	ProcessingTimeSeconds float64
}

var roleOrder = []classify.Role{
	classify.RoleProgramName, classify.RoleCopybookName, classify.RoleSectionName,
	classify.RoleParagraphName, classify.RoleDataName, classify.RoleConditionName,
	classify.RoleFileName, classify.RoleIndexName, classify.RoleExternalName,
	classify.RoleUnknown,
}

// Generator builds a Report from a run's file transformation results.
type Generator struct {
	MappingTable    *mapping.Table
	SourceDirectory string
	OutputDirectory string
}

// NewGenerator creates a Generator over table, recording the source and
// output directories the run processed.
func NewGenerator(table *mapping.Table, sourceDirectory, outputDirectory string) *Generator {
	return &Generator{MappingTable: table, SourceDirectory: sourceDirectory, OutputDirectory: outputDirectory}
}

// GenerateReport builds a Report summarizing fileResults and processingTime.
func (g *Generator) GenerateReport(fileResults []transform.FileResult, processingTime float64) Report {
	rpt := Report{
		GeneratedAt:           time.Now().UTC().Format(time.RFC3339),
		ToolVersion:           ToolVersion,
		SourceDirectory:       g.SourceDirectory,
		OutputDirectory:       g.OutputDirectory,
		MappingTable:          g.MappingTable,
		ProcessingTimeSeconds: processingTime,
	}

	for _, result := range fileResults {
		rpt.TotalFiles++
		rpt.TotalLines += result.TotalLines

		base := filepath.Base(result.Filename)
		anonymizedFilename := base
		if g.MappingTable != nil {
			if entry, ok := g.MappingTable.Lookup(copybook.NormalizeFilename(base)); ok {
				anonymizedFilename = entry.AnonymizedName + strings.ToLower(filepath.Ext(base))
			}
		}

		rpt.FileStatistics = append(rpt.FileStatistics, FileStatistics{
			Filename:           result.Filename,
			AnonymizedFilename: anonymizedFilename,
			TotalLines:         result.TotalLines,
			TransformedLines:   result.TransformedLines,
			IdentifiersFound:   identifiersFound(result),
		})
	}

	if g.MappingTable != nil {
		rpt.TotalIdentifiers = len(g.MappingTable.AllEntries())
		rpt.ExternalNames = g.MappingTable.ExternalNames()
	}

	return rpt
}

func identifiersFound(result transform.FileResult) int {
	seen := make(map[string]bool)
	for _, line := range result.Lines {
		for _, change := range line.ChangesMade {
			if change.Original == "literals" && change.Anonymized == "anonymized" {
				continue
			}
			seen[strings.ToUpper(change.Original)] = true
		}
	}
	return len(seen)
}

// CreateMappingJSON renders the generator's mapping table as a JSON string,
// or "{}" if there is no table.
func (g *Generator) CreateMappingJSON() (string, error) {
	if g.MappingTable == nil {
		return "{}", nil
	}
	var b strings.Builder
	if err := g.MappingTable.WriteJSON(&b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// jsonReport mirrors the on-disk report JSON schema.
type jsonReport struct {
	Metadata struct {
		GeneratedAt           string  `json:"generated_at"`
		ToolVersion           string  `json:"tool_version"`
		SourceDirectory       string  `json:"source_directory"`
		OutputDirectory       string  `json:"output_directory"`
		ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
	} `json:"metadata"`
	Summary struct {
		TotalFiles          int            `json:"total_files"`
		TotalLines          int            `json:"total_lines"`
		TotalIdentifiers    int            `json:"total_identifiers"`
		IdentifiersByType   map[string]int `json:"identifiers_by_type"`
		ExternalNamesCount  int            `json:"external_names_count"`
	} `json:"summary"`
	ExternalNames  []string         `json:"external_names"`
	FileStatistics []fileStatsJSON  `json:"file_statistics"`
	Mappings       []mappingEntryJSON `json:"mappings"`
}

type fileStatsJSON struct {
	Filename            string `json:"filename"`
	AnonymizedFilename  string `json:"anonymized_filename"`
	TotalLines          int    `json:"total_lines"`
	TransformedLines    int    `json:"transformed_lines"`
	IdentifiersFound    int    `json:"identifiers_found"`
	CommentsTransformed int    `json:"comments_transformed"`
}

type mappingEntryJSON struct {
	OriginalName   string `json:"original_name"`
	AnonymizedName string `json:"anonymized_name"`
	IDType         string `json:"id_type"`
	IsExternal     bool   `json:"is_external"`
}

// ToJSON renders r as an indented JSON document.
func (r Report) ToJSON() (string, error) {
	doc := jsonReport{}
	doc.Metadata.GeneratedAt = r.GeneratedAt
	doc.Metadata.ToolVersion = r.ToolVersion
	doc.Metadata.SourceDirectory = r.SourceDirectory
	doc.Metadata.OutputDirectory = r.OutputDirectory
	doc.Metadata.ProcessingTimeSeconds = r.ProcessingTimeSeconds

	doc.Summary.TotalFiles = r.TotalFiles
	doc.Summary.TotalLines = r.TotalLines
	doc.Summary.TotalIdentifiers = r.TotalIdentifiers
	doc.Summary.ExternalNamesCount = len(r.ExternalNames)
	doc.Summary.IdentifiersByType = make(map[string]int)

	if r.MappingTable != nil {
		stats := r.MappingTable.Statistics()
		for role, count := range stats.ByRole {
			doc.Summary.IdentifiersByType[role.String()] = count
		}
		for _, entry := range r.MappingTable.AllEntries() {
			doc.Mappings = append(doc.Mappings, mappingEntryJSON{
				OriginalName:   entry.OriginalName,
				AnonymizedName: entry.AnonymizedName,
				IDType:         entry.Role.String(),
				IsExternal:     entry.IsExternal,
			})
		}
	}

	doc.ExternalNames = r.ExternalNames
	for _, fs := range r.FileStatistics {
		doc.FileStatistics = append(doc.FileStatistics, fileStatsJSON{
			Filename:            fs.Filename,
			AnonymizedFilename:  fs.AnonymizedFilename,
			TotalLines:          fs.TotalLines,
			TransformedLines:    fs.TransformedLines,
			IdentifiersFound:    fs.IdentifiersFound,
			CommentsTransformed: fs.CommentsTransformed,
		})
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// WriteJSON writes r's JSON rendering to w.
func (r Report) WriteJSON(w io.Writer) error {
	s, err := r.ToJSON()
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, s)
	return err
}

// ToText renders r as a human-readable multi-section report.
func (r Report) ToText() string {
	rule := strings.Repeat("=", 70)
	dash := strings.Repeat("-", 70)

	var b strings.Builder
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "COBOL ANONYMIZATION REPORT")
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Generated: %s\n", r.GeneratedAt)
	fmt.Fprintf(&b, "Tool Version: %s\n", r.ToolVersion)
	fmt.Fprintf(&b, "Source: %s\n", r.SourceDirectory)
	fmt.Fprintf(&b, "Output: %s\n", r.OutputDirectory)
	fmt.Fprintf(&b, "Processing Time: %.2f seconds\n", r.ProcessingTimeSeconds)
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, dash)
	fmt.Fprintln(&b, "SUMMARY")
	fmt.Fprintln(&b, dash)
	fmt.Fprintf(&b, "Total Files: %d\n", r.TotalFiles)
	fmt.Fprintf(&b, "Total Lines: %d\n", r.TotalLines)
	fmt.Fprintf(&b, "Total Identifiers: %d\n", r.TotalIdentifiers)
	fmt.Fprintf(&b, "External Names: %d\n", len(r.ExternalNames))
	fmt.Fprintln(&b)

	if r.MappingTable != nil {
		fmt.Fprintln(&b, dash)
		fmt.Fprintln(&b, "IDENTIFIERS BY TYPE")
		fmt.Fprintln(&b, dash)
		stats := r.MappingTable.Statistics()
		for _, role := range roleOrder {
			if count := stats.ByRole[role]; count > 0 {
				fmt.Fprintf(&b, "  %s: %d\n", role.String(), count)
			}
		}
		fmt.Fprintln(&b)
	}

	if len(r.ExternalNames) > 0 {
		fmt.Fprintln(&b, dash)
		fmt.Fprintln(&b, "EXTERNAL NAMES (Preserved)")
		fmt.Fprintln(&b, dash)
		for _, name := range r.ExternalNames {
			fmt.Fprintf(&b, "  %s\n", name)
		}
		fmt.Fprintln(&b)
	}

	fmt.Fprintln(&b, dash)
	fmt.Fprintln(&b, "FILE STATISTICS")
	fmt.Fprintln(&b, dash)
	for _, fs := range r.FileStatistics {
		fmt.Fprintf(&b, "  %s -> %s\n", fs.Filename, fs.AnonymizedFilename)
		fmt.Fprintf(&b, "    Lines: %d, Transformed: %d\n", fs.TotalLines, fs.TransformedLines)
		fmt.Fprintf(&b, "    Identifiers: %d\n", fs.IdentifiersFound)
		fmt.Fprintln(&b)
	}

	if r.MappingTable != nil {
		fmt.Fprintln(&b, dash)
		fmt.Fprintln(&b, "MAPPING TABLE (sample)")
		fmt.Fprintln(&b, dash)
		fmt.Fprintf(&b, "%-30s %-30s TYPE\n", "ORIGINAL", "ANONYMIZED")
		fmt.Fprintln(&b, dash)
		entries := r.MappingTable.AllEntries()
		const sampleLimit = 50
		for i, entry := range entries {
			if i >= sampleLimit {
				fmt.Fprintf(&b, "  ... and %d more\n", r.TotalIdentifiers-sampleLimit)
				break
			}
			extMarker := ""
			if entry.IsExternal {
				extMarker = " [EXT]"
			}
			fmt.Fprintf(&b, "%-30s %-30s %s%s\n", entry.OriginalName, entry.AnonymizedName, entry.Role.String(), extMarker)
		}
		fmt.Fprintln(&b)
	}

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "END OF REPORT")
	fmt.Fprintln(&b, rule)

	return b.String()
}

// CreateMappingReport renders a simplified text mapping report for quick
// reference.
func CreateMappingReport(table *mapping.Table) string {
	var b strings.Builder
	rule60 := strings.Repeat("=", 60)
	dash60 := strings.Repeat("-", 60)

	fmt.Fprintln(&b, "COBOL IDENTIFIER MAPPING REPORT")
	fmt.Fprintln(&b, rule60)
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "%-30s %-25s TYPE\n", "ORIGINAL", "ANONYMIZED")
	fmt.Fprintln(&b, dash60)

	for _, entry := range table.AllEntries() {
		extMarker := ""
		if entry.IsExternal {
			extMarker = " [EXTERNAL]"
		}
		fmt.Fprintf(&b, "%-30s %-25s %s%s\n", entry.OriginalName, entry.AnonymizedName, entry.Role.String(), extMarker)
	}

	fmt.Fprintln(&b, dash60)
	stats := table.Statistics()
	fmt.Fprintf(&b, "Total: %d mappings\n", stats.TotalMappings)
	fmt.Fprintf(&b, "External: %d names\n", stats.ExternalCount)

	return b.String()
}

// CreateSummaryReport renders a short plain-text run summary.
func CreateSummaryReport(fileResults []transform.FileResult, table *mapping.Table) string {
	var totalLines, transformedLines int
	for _, r := range fileResults {
		totalLines += r.TotalLines
		transformedLines += r.TransformedLines
	}
	stats := table.Statistics()

	var b strings.Builder
	rule := strings.Repeat("=", 40)
	fmt.Fprintln(&b, "ANONYMIZATION SUMMARY")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Files processed: %d\n", len(fileResults))
	fmt.Fprintf(&b, "Total lines: %d\n", totalLines)
	fmt.Fprintf(&b, "Lines transformed: %d\n", transformedLines)
	fmt.Fprintf(&b, "Unique identifiers: %d\n", stats.TotalMappings)
	fmt.Fprintf(&b, "External names: %d\n", stats.ExternalCount)
	fmt.Fprintln(&b, rule)

	return b.String()
}
