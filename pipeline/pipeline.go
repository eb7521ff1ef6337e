// Package pipeline orchestrates a full anonymization run: discovering the
// COBOL sources and copybooks under a project directory, classifying every
// identifier they define or reference, building a single project-wide
// mapping table from that classification, then transforming and writing
// each file against the frozen table.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ha1tch/cobolanon/classify"
	"github.com/ha1tch/cobolanon/column"
	"github.com/ha1tch/cobolanon/comment"
	"github.com/ha1tch/cobolanon/config"
	"github.com/ha1tch/cobolanon/copybook"
	"github.com/ha1tch/cobolanon/literal"
	"github.com/ha1tch/cobolanon/mapping"
	"github.com/ha1tch/cobolanon/report"
	"github.com/ha1tch/cobolanon/transform"
	"github.com/ha1tch/cobolanon/validate"
)

// maxParallelTransforms bounds stage 4's worker pool: the mapping table is
// frozen by then, so files transform independently, but an unbounded
// errgroup would open every file in a large project at once.
const maxParallelTransforms = 8

// Runner executes the five pipeline stages against a config.Config.
type Runner struct {
	Config config.Config
	Logger *zap.Logger
}

// New creates a Runner. A no-op logger is used if logger is nil.
func New(cfg config.Config, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Config: cfg, Logger: logger}
}

// Result is the outcome of a complete Run.
type Result struct {
	MappingTable   *mapping.Table
	FileResults    []transform.FileResult
	ValidateResult validate.Result
	Report         report.Report
}

// Run executes all five stages: discover, classify, build mappings,
// transform, and write. When cfg.DryRun is set, no output files are
// written.
func (r *Runner) Run() (Result, error) {
	start := time.Now()

	r.Logger.Info("stage 1: discovering files", zap.String("input_dir", r.Config.InputDir))
	files, err := r.discoverFiles()
	if err != nil {
		r.Logger.Error("discovery failed", zap.Error(err))
		return Result{}, errors.Wrap(err, "discovering files")
	}
	r.Logger.Info("discovery complete", zap.Int("file_count", len(files)))

	r.Logger.Info("stage 2: classifying identifiers")
	fileLines := make(map[string][]column.Line, len(files))
	allIdentifiers := make(map[string][]classify.Identifier, len(files))
	for _, f := range files {
		lines, identifiers, err := r.classifyFile(f)
		if err != nil {
			r.Logger.Warn("classification failed for file", zap.String("file", f), zap.Error(err))
			continue
		}
		fileLines[f] = lines
		allIdentifiers[f] = identifiers
	}

	r.Logger.Info("stage 3: building mapping table")
	table, err := r.buildMappings(allIdentifiers)
	if err != nil {
		r.Logger.Error("building mapping table failed", zap.Error(err))
		return Result{}, errors.Wrap(err, "building mapping table")
	}
	r.Logger.Info("mapping table built", zap.Int("total_mappings", len(table.AllEntries())))

	r.Logger.Info("stage 4: transforming files", zap.Int("file_count", len(files)))
	fileResults, err := r.transformFiles(files, fileLines, table)
	if err != nil {
		r.Logger.Error("transformation failed", zap.Error(err))
		return Result{}, errors.Wrap(err, "transforming files")
	}

	r.Logger.Info("stage 5: writing output", zap.Bool("dry_run", r.Config.DryRun))
	if !r.Config.DryRun && !r.Config.ValidateOnly {
		if err := r.writeOutputs(fileResults, table); err != nil {
			r.Logger.Error("writing output failed", zap.Error(err))
			return Result{}, errors.Wrap(err, "writing output")
		}
	}

	fileLineText := make(map[string][]string, len(fileLines))
	for f, lines := range fileLines {
		text := make([]string, len(lines))
		for i, l := range lines {
			text[i] = l.Raw
		}
		fileLineText[f] = text
	}
	validator := validate.NewValidator(validate.DefaultConfig(), table)
	validateResult := validator.ValidateFiles(fileLineText)
	for _, issue := range validateResult.Warnings() {
		r.Logger.Warn("validation warning", zap.String("issue", issue.String()))
	}
	for _, issue := range validateResult.Errors() {
		r.Logger.Warn("validation error", zap.String("issue", issue.String()))
	}

	generator := report.NewGenerator(table, r.Config.InputDir, r.Config.OutputDir)
	rpt := generator.GenerateReport(fileResults, time.Since(start).Seconds())

	return Result{
		MappingTable:   table,
		FileResults:    fileResults,
		ValidateResult: validateResult,
		Report:         rpt,
	}, nil
}

// discoverFiles scans the input directory for COBOL sources and copybooks,
// returning them in copybook-dependency processing order: copybooks a
// program COPYs must be classified before (or alongside) the program that
// references them.
func (r *Runner) discoverFiles() ([]string, error) {
	resolver := copybook.NewResolver([]string{r.Config.InputDir})
	for _, p := range r.Config.CopybookPaths {
		resolver.AddSearchPath(p)
	}

	if err := resolver.ScanDirectory(r.Config.InputDir, false); err != nil {
		return nil, err
	}

	order, err := resolver.ProcessingOrder()
	if err != nil {
		return nil, err
	}

	extensions := make(map[string]bool, len(r.Config.Extensions))
	for _, ext := range r.Config.Extensions {
		extensions[strings.ToLower(ext)] = true
	}

	var files []string
	seen := make(map[string]bool)
	for _, f := range order {
		if extensions[strings.ToLower(filepath.Ext(f))] {
			files = append(files, f)
			seen[f] = true
		}
	}

	// ProcessingOrder only reports files reachable via COPY; pick up any
	// remaining matching files the walk found but no COPY chain named.
	err = filepath.WalkDir(r.Config.InputDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if extensions[strings.ToLower(filepath.Ext(path))] && !seen[path] {
			files = append(files, path)
			seen[path] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// classifyFile reads filePath and classifies every identifier it defines
// or references.
func (r *Runner) classifyFile(filePath string) ([]column.Line, []classify.Identifier, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, err
	}

	rawLines := splitLines(string(raw))
	texts := make([]string, len(rawLines))
	for i, rl := range rawLines {
		texts[i] = rl.text
	}
	format := column.DetectFormat(texts)

	lines := make([]column.Line, len(rawLines))
	for i, rl := range rawLines {
		lines[i] = column.Split(rl.text, i+1, format, rl.terminator)
	}

	classifier := classify.New(filepath.Base(filePath))
	for _, line := range lines {
		classifier.ClassifyLine(line.CodeArea, line.Number, line.IsComment())
	}

	return lines, classifier.AllIdentifiers(), nil
}

// buildMappings freezes the project's mapping table: every definition seen
// across every classified file is assigned exactly one anonymized name,
// before any file is transformed. When cfg.LoadMappings is set the table
// starts from that saved mapping file. Roles whose anonymization option is
// switched off get no mapping, so their identifiers pass through unchanged.
func (r *Runner) buildMappings(allIdentifiers map[string][]classify.Identifier) (*mapping.Table, error) {
	table, err := mapping.NewTable(r.Config.NamingScheme)
	if err == nil && r.Config.LoadMappings != "" {
		var f *os.File
		if f, err = os.Open(r.Config.LoadMappings); err == nil {
			table, err = mapping.LoadJSON(f)
			f.Close()
		}
	}
	if err != nil {
		return nil, err
	}

	disabled := map[classify.Role]bool{
		classify.RoleProgramName:   !r.Config.AnonymizePrograms,
		classify.RoleCopybookName:  !r.Config.AnonymizeCopybooks,
		classify.RoleSectionName:   !r.Config.AnonymizeSections,
		classify.RoleParagraphName: !r.Config.AnonymizeParagraphs,
		classify.RoleDataName:      !r.Config.AnonymizeData,
		classify.RoleConditionName: !r.Config.AnonymizeData,
		classify.RoleFileName:      !r.Config.AnonymizeData,
		classify.RoleIndexName:     !r.Config.AnonymizeData,
	}

	var files []string
	for f := range allIdentifiers {
		files = append(files, f)
	}
	sort.Strings(files)

	for _, f := range files {
		for _, id := range allIdentifiers[f] {
			if !id.IsDefinition || disabled[id.Role] {
				continue
			}
			isExternal := id.IsExternal && r.Config.PreserveExternal
			if _, err := table.GetOrCreate(id.Name, id.Role, isExternal, f, id.LineNumber); err != nil {
				return nil, err
			}
		}
	}

	// Every program and copybook is itself renamed through the mapping
	// (by its uppercase stem), independently of whatever PROGRAM-ID or
	// COPY-target identifiers were seen referencing it.
	for _, f := range files {
		role := classify.RoleCopybookName
		for _, id := range allIdentifiers[f] {
			if id.IsDefinition && id.Role == classify.RoleProgramName {
				role = classify.RoleProgramName
				break
			}
		}
		if disabled[role] {
			continue
		}
		stem := copybook.NormalizeFilename(filepath.Base(f))
		if _, err := table.GetOrCreate(stem, role, false, f, 0); err != nil {
			return nil, err
		}
	}

	return table, nil
}

// transformFiles runs stage 4: with the mapping table frozen, every file's
// transformation is independent of every other's, so a bounded worker pool
// runs them concurrently.
func (r *Runner) transformFiles(files []string, fileLines map[string][]column.Line, table *mapping.Table) ([]transform.FileResult, error) {
	results := make([]transform.FileResult, len(files))

	var literalAnonymizer *literal.Anonymizer
	if r.Config.AnonymizeLiterals {
		literalAnonymizer = literal.NewAnonymizer(r.Config.NamingScheme, r.Config.Seed)
	}

	commentConfig := comment.DefaultConfig()
	if r.Config.StripComments {
		commentConfig.Mode = comment.ModeStrip
	} else if !r.Config.AnonymizeComments {
		commentConfig.Mode = comment.ModePreserve
	}

	group := new(errgroup.Group)
	group.SetLimit(maxParallelTransforms)

	for i, f := range files {
		i, f := i, f
		group.Go(func() error {
			lines, ok := fileLines[f]
			if !ok {
				return nil
			}

			redefines := transform.NewRedefinesTracker()
			commentTransformer := comment.NewTransformer(commentConfig)
			lineTransformer := transform.NewLineTransformer(table, redefines, commentTransformer)
			lineTransformer.PreserveExternal = r.Config.PreserveExternal
			lineTransformer.AnonymizeLiterals = r.Config.AnonymizeLiterals
			lineTransformer.LiteralAnonymizer = literalAnonymizer

			results[i] = transform.TransformFile(lines, f, lineTransformer)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// writeOutputs writes each file's transformed lines to the output
// directory, mirroring the input directory's relative structure but
// renaming each program or copybook file through table by its uppercase
// stem, with its extension lowercased. Each line is emitted with its own
// original terminator, so a run with every anonymization option disabled
// reproduces its input byte-for-byte.
func (r *Runner) writeOutputs(results []transform.FileResult, table *mapping.Table) error {
	for _, result := range results {
		outPath, err := r.outputPath(result.Filename, table)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return err
		}

		if !r.Config.Overwrite {
			if _, err := os.Stat(outPath); err == nil {
				return fmt.Errorf("output file already exists: %s", outPath)
			}
		}

		var b strings.Builder
		for _, line := range result.Lines {
			b.WriteString(line.TransformedLine)
			b.WriteString(line.Terminator)
		}
		if err := os.WriteFile(outPath, []byte(b.String()), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// outputPath computes the renamed output path for sourceFile: the
// directory structure mirrors the input tree, but the file stem is
// replaced with its mapping-table anonymized name (falling back to the
// original stem if, unexpectedly, none was recorded) and the extension is
// lowercased.
func (r *Runner) outputPath(sourceFile string, table *mapping.Table) (string, error) {
	rel, err := filepath.Rel(r.Config.InputDir, sourceFile)
	if err != nil {
		rel = filepath.Base(sourceFile)
	}

	dir := filepath.Dir(rel)
	base := filepath.Base(rel)
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	name := stem
	if anon, ok := table.AnonymizedName(copybook.NormalizeFilename(base)); ok {
		name = anon
	}

	if dir == "." {
		return filepath.Join(r.Config.OutputDir, name+ext), nil
	}
	return filepath.Join(r.Config.OutputDir, dir, name+ext), nil
}

// rawLine is one physical line of source text together with the exact
// terminator it carried, so it can be reproduced on output.
type rawLine struct {
	text       string
	terminator string
}

// splitLines splits source into its physical lines, recording each line's
// own terminator (LF, CRLF, bare CR, or none for a final line with no
// trailing terminator) instead of discarding it.
func splitLines(source string) []rawLine {
	var lines []rawLine
	start := 0
	for i := 0; i < len(source); i++ {
		switch source[i] {
		case '\n':
			lines = append(lines, rawLine{text: source[start:i], terminator: "\n"})
			start = i + 1
		case '\r':
			if i+1 < len(source) && source[i+1] == '\n' {
				lines = append(lines, rawLine{text: source[start:i], terminator: "\r\n"})
				start = i + 2
				i++
			} else {
				lines = append(lines, rawLine{text: source[start:i], terminator: "\r"})
				start = i + 1
			}
		}
	}
	if start < len(source) {
		lines = append(lines, rawLine{text: source[start:], terminator: ""})
	}
	return lines
}
