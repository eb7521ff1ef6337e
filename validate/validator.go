// Package validate checks anonymized COBOL output for column-format
// violations, dangling COPY references, and cross-file mapping
// consistency.
package validate

import (
	"fmt"
	"strings"

	"github.com/ha1tch/cobolanon/column"
	"github.com/ha1tch/cobolanon/copybook"
	"github.com/ha1tch/cobolanon/identifier"
	"github.com/ha1tch/cobolanon/mapping"
)

// Severity classifies a validation Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is a single validation finding.
type Issue struct {
	Severity   Severity
	Message    string
	FilePath   string
	LineNumber int
	Identifier string
	Context    string
}

func (i Issue) String() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s]", strings.ToUpper(string(i.Severity))))
	if i.FilePath != "" {
		parts = append(parts, i.FilePath)
	}
	if i.LineNumber != 0 {
		parts = append(parts, fmt.Sprintf("line %d", i.LineNumber))
	}
	parts = append(parts, i.Message)
	if i.Context != "" {
		parts = append(parts, fmt.Sprintf("(%s)", i.Context))
	}
	return strings.Join(parts, " ")
}

// IssueOption sets an optional field on an Issue.
type IssueOption func(*Issue)

func WithFile(path string) IssueOption       { return func(i *Issue) { i.FilePath = path } }
func WithLine(line int) IssueOption          { return func(i *Issue) { i.LineNumber = line } }
func WithIdentifier(name string) IssueOption { return func(i *Issue) { i.Identifier = name } }
func WithContext(ctx string) IssueOption     { return func(i *Issue) { i.Context = ctx } }

// Result accumulates the issues found across one or more files.
type Result struct {
	Issues         []Issue
	FilesValidated int
	LinesValidated int
}

// IsValid reports whether no error-severity issue was recorded.
func (r *Result) IsValid() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Errors returns every error-severity issue.
func (r *Result) Errors() []Issue { return r.bySeverity(SeverityError) }

// Warnings returns every warning-severity issue.
func (r *Result) Warnings() []Issue { return r.bySeverity(SeverityWarning) }

func (r *Result) bySeverity(sev Severity) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == sev {
			out = append(out, issue)
		}
	}
	return out
}

func (r *Result) addIssue(sev Severity, message string, opts ...IssueOption) {
	issue := Issue{Severity: sev, Message: message}
	for _, opt := range opts {
		opt(&issue)
	}
	r.Issues = append(r.Issues, issue)
}

func (r *Result) AddError(message string, opts ...IssueOption)   { r.addIssue(SeverityError, message, opts...) }
func (r *Result) AddWarning(message string, opts ...IssueOption) { r.addIssue(SeverityWarning, message, opts...) }
func (r *Result) AddInfo(message string, opts ...IssueOption)    { r.addIssue(SeverityInfo, message, opts...) }

// Config controls which checks Validator runs.
type Config struct {
	CheckColumnFormat         bool
	CheckCodeArea             bool
	CheckIdentifierLength     bool
	CheckCopyReferences       bool
	CheckCrossFileConsistency bool
	MaxLineLength             int
	MaxIdentifierLength       int
}

// DefaultConfig enables every check with the standard COBOL column limits.
func DefaultConfig() Config {
	return Config{
		CheckColumnFormat:         true,
		CheckCodeArea:             true,
		CheckIdentifierLength:     true,
		CheckCopyReferences:       true,
		CheckCrossFileConsistency: true,
		MaxLineLength:             column.MaxLineLength,
		MaxIdentifierLength:       identifier.MaxLength,
	}
}

// Validator checks anonymized COBOL output against Config.
type Validator struct {
	Config       Config
	MappingTable *mapping.Table
}

// NewValidator creates a Validator. A zero-value mappingTable disables the
// cross-file consistency check regardless of Config.
func NewValidator(config Config, mappingTable *mapping.Table) *Validator {
	return &Validator{Config: config, MappingTable: mappingTable}
}

// ValidateLines checks a single file's lines for column-format and code-area
// violations.
func (v *Validator) ValidateLines(filePath string, lines []string) Result {
	result := Result{FilesValidated: 1, LinesValidated: len(lines)}

	if v.Config.CheckColumnFormat {
		v.validateColumnFormat(filePath, lines, &result)
	}
	if v.Config.CheckCodeArea {
		v.validateCodeArea(filePath, lines, &result)
	}
	return result
}

// ValidateFiles checks every file in fileLines (keyed by file path) and, if
// configured, checks COPY references across the whole set, cross-file
// mapping consistency, and anonymized identifier lengths.
func (v *Validator) ValidateFiles(fileLines map[string][]string) Result {
	combined := Result{}
	for path, lines := range fileLines {
		fileResult := v.ValidateLines(path, lines)
		combined.Issues = append(combined.Issues, fileResult.Issues...)
		combined.FilesValidated += fileResult.FilesValidated
		combined.LinesValidated += fileResult.LinesValidated
	}

	if v.Config.CheckCopyReferences {
		v.validateCopyReferences(fileLines, &combined)
	}
	if v.Config.CheckCrossFileConsistency && v.MappingTable != nil {
		v.validateCrossFileConsistency(&combined)
	}
	if v.Config.CheckIdentifierLength && v.MappingTable != nil {
		combined.Issues = append(combined.Issues, ValidateIdentifierLengths(v.MappingTable, v.Config.MaxIdentifierLength)...)
	}
	return combined
}

func (v *Validator) validateColumnFormat(filePath string, lines []string, result *Result) {
	for i, line := range lines {
		if len(line) > v.Config.MaxLineLength {
			result.AddError(
				fmt.Sprintf("line exceeds %d columns (%d chars)", v.Config.MaxLineLength, len(line)),
				WithFile(filePath), WithLine(i+1),
			)
		}
	}
}

func (v *Validator) validateCodeArea(filePath string, lines []string, result *Result) {
	for i, line := range lines {
		if len(line) <= 7 {
			continue
		}
		if line[6] == '*' {
			continue
		}
		if len(line) > column.CodeEnd && strings.TrimSpace(line[column.CodeEnd:]) != "" {
			extra := strings.TrimSpace(line[column.CodeEnd:])
			if len(extra) > 20 {
				extra = extra[:20]
			}
			result.AddWarning(
				"content after column 72 (may be identification area)",
				WithFile(filePath), WithLine(i+1), WithContext(fmt.Sprintf("Extra: '%s'", extra)),
			)
		}
	}
}

func (v *Validator) validateCopyReferences(fileLines map[string][]string, result *Result) {
	available := make(map[string]bool, len(fileLines))
	for path := range fileLines {
		available[copybook.NormalizeFilename(baseName(path))] = true
	}

	for path, lines := range fileLines {
		statements := copybook.FindStatements(lines, path)
		for _, stmt := range statements {
			name := copybook.NormalizeFilename(stmt.CopybookName)
			if !available[name] {
				result.AddWarning(
					fmt.Sprintf("COPY reference to '%s' not found", stmt.CopybookName),
					WithFile(path), WithLine(stmt.LineNumber), WithIdentifier(stmt.CopybookName),
				)
			}
		}
	}
}

func (v *Validator) validateCrossFileConsistency(result *Result) {
	anonToOriginal := make(map[string]string)
	for _, entry := range v.MappingTable.AllEntries() {
		key := strings.ToUpper(entry.AnonymizedName)
		if existing, ok := anonToOriginal[key]; ok {
			if !strings.EqualFold(existing, entry.OriginalName) {
				result.AddError(
					fmt.Sprintf("duplicate anonymized name '%s' for different identifiers: '%s' and '%s'",
						entry.AnonymizedName, existing, entry.OriginalName),
					WithIdentifier(entry.AnonymizedName),
				)
			}
			continue
		}
		anonToOriginal[key] = entry.OriginalName
	}
}

func baseName(path string) string {
	idx := strings.LastIndexAny(path, `/\`)
	if idx == -1 {
		return path
	}
	return path[idx+1:]
}

// ValidateIdentifierLengths returns an issue for every mapping whose
// anonymized name exceeds maxLength.
func ValidateIdentifierLengths(table *mapping.Table, maxLength int) []Issue {
	var issues []Issue
	for _, entry := range table.AllEntries() {
		if len(entry.AnonymizedName) > maxLength {
			issues = append(issues, Issue{
				Severity:   SeverityError,
				Message:    fmt.Sprintf("anonymized name '%s' exceeds %d chars", entry.AnonymizedName, maxLength),
				Identifier: entry.OriginalName,
			})
		}
	}
	return issues
}

// ValidateMappingTable checks every mapping for length, hyphen placement,
// and first-character validity.
func ValidateMappingTable(table *mapping.Table) Result {
	result := Result{}

	for _, entry := range table.AllEntries() {
		name := entry.AnonymizedName

		if len(name) > identifier.MaxLength {
			result.AddError(
				fmt.Sprintf("anonymized name exceeds %d chars: '%s'", identifier.MaxLength, name),
				WithIdentifier(entry.OriginalName),
			)
		}
		if strings.HasPrefix(name, "-") {
			result.AddError(fmt.Sprintf("anonymized name starts with hyphen: '%s'", name), WithIdentifier(entry.OriginalName))
		}
		if strings.HasSuffix(name, "-") {
			result.AddError(fmt.Sprintf("anonymized name ends with hyphen: '%s'", name), WithIdentifier(entry.OriginalName))
		}
		if strings.Contains(name, "--") {
			result.AddWarning(fmt.Sprintf("anonymized name has consecutive hyphens: '%s'", name), WithIdentifier(entry.OriginalName))
		}
		if name != "" && !isAlpha(name[0]) {
			result.AddError(fmt.Sprintf("anonymized name doesn't start with letter: '%s'", name), WithIdentifier(entry.OriginalName))
		}
	}

	return result
}

func isAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
