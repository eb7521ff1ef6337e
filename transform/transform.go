// Package transform applies a frozen mapping table to COBOL source lines,
// substituting anonymized identifiers for original ones while leaving PIC
// and USAGE clauses, reserved words, FILLER, and (optionally) EXTERNAL
// items untouched, and preserving exact column alignment.
package transform

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ha1tch/cobolanon/column"
	"github.com/ha1tch/cobolanon/comment"
	"github.com/ha1tch/cobolanon/identifier"
	"github.com/ha1tch/cobolanon/lexer"
	"github.com/ha1tch/cobolanon/literal"
	"github.com/ha1tch/cobolanon/mapping"
	"github.com/ha1tch/cobolanon/pic"
	"github.com/ha1tch/cobolanon/token"
)

// Change records a single (original, anonymized) substitution made while
// transforming a line.
type Change struct {
	Original   string
	Anonymized string
}

// RedefinesEntry records one REDEFINES relationship found in source.
type RedefinesEntry struct {
	RedefiningName string
	RedefinedName  string
	LevelNumber    int
	LineNumber     int
}

// RedefinesTracker tracks REDEFINES relationships so that renaming a data
// item also updates any clause that REDEFINEs it.
type RedefinesTracker struct {
	relationships map[string][]RedefinesEntry
	redefinesMap  map[string]string
}

// NewRedefinesTracker creates an empty tracker.
func NewRedefinesTracker() *RedefinesTracker {
	return &RedefinesTracker{
		relationships: make(map[string][]RedefinesEntry),
		redefinesMap:  make(map[string]string),
	}
}

// AddRedefines records that redefiningName REDEFINES redefinedName.
func (t *RedefinesTracker) AddRedefines(redefiningName, redefinedName string, level, line int) {
	key := identifier.Normalize(redefinedName)
	t.relationships[key] = append(t.relationships[key], RedefinesEntry{
		RedefiningName: redefiningName,
		RedefinedName:  redefinedName,
		LevelNumber:    level,
		LineNumber:     line,
	})
	t.redefinesMap[identifier.Normalize(redefiningName)] = redefinedName
}

// RedefinedName returns the name that redefiningName REDEFINES, if known.
func (t *RedefinesTracker) RedefinedName(redefiningName string) (string, bool) {
	name, ok := t.redefinesMap[identifier.Normalize(redefiningName)]
	return name, ok
}

// RedefiningItems returns every entry that REDEFINEs redefinedName.
func (t *RedefinesTracker) RedefiningItems(redefinedName string) []RedefinesEntry {
	return t.relationships[identifier.Normalize(redefinedName)]
}

var redefinesPattern = regexp.MustCompile(`(?i)(\d+)\s+([A-Za-z][A-Za-z0-9\-]*)\s+REDEFINES\s+([A-Za-z][A-Za-z0-9\-]*)`)

// LineResult is the outcome of transforming a single source line.
type LineResult struct {
	OriginalLine    string
	TransformedLine string
	LineNumber      int
	Terminator      string
	ChangesMade     []Change
	IsComment       bool
	Warnings        []string
}

// LineTransformer applies mappingTable substitutions to one COBOL line at
// a time.
type LineTransformer struct {
	MappingTable       *mapping.Table
	RedefinesTracker   *RedefinesTracker
	CommentTransformer *comment.Transformer
	PreserveExternal   bool
	LiteralAnonymizer  *literal.Anonymizer
	AnonymizeLiterals  bool
}

// NewLineTransformer creates a LineTransformer over table, defaulting the
// redefines tracker and comment transformer when nil is passed.
func NewLineTransformer(table *mapping.Table, redefines *RedefinesTracker, commentTransformer *comment.Transformer) *LineTransformer {
	if redefines == nil {
		redefines = NewRedefinesTracker()
	}
	if commentTransformer == nil {
		commentTransformer = comment.NewTransformer(comment.DefaultConfig())
	}
	return &LineTransformer{
		MappingTable:       table,
		RedefinesTracker:   redefines,
		CommentTransformer: commentTransformer,
		AnonymizeLiterals:  true,
	}
}

// TransformLine transforms a single parsed COBOL line.
func (t *LineTransformer) TransformLine(line column.Line, filename string) LineResult {
	if line.IsComment() {
		transformedLine, commentResult := t.CommentTransformer.TransformLine(line.Raw)
		return LineResult{
			OriginalLine:    line.Raw,
			TransformedLine: transformedLine,
			LineNumber:      line.Number,
			Terminator:      line.Terminator,
			ChangesMade:     commentChangesToChanges(commentResult.ChangesMade),
			IsComment:       true,
		}
	}

	codeArea := line.CodeArea
	protectedRanges := pic.ProtectedRanges(codeArea)
	tokens := lexer.New(codeArea, line.Number).Tokenize()

	if pic.HasRedefinesClause(codeArea) {
		t.handleRedefines(codeArea, line.Number)
	}

	isExternal := pic.HasExternalClause(codeArea)

	var changes []Change
	for i := range tokens {
		tok := &tokens[i]
		if tok.Type != token.IDENT {
			continue
		}
		if isInProtectedRange(tok.Start, protectedRanges) {
			continue
		}
		if identifier.IsFiller(tok.Value) {
			continue
		}
		if isExternal && t.PreserveExternal {
			continue
		}
		if t.PreserveExternal && t.MappingTable.IsExternal(tok.Value) {
			continue
		}

		anon, ok := t.MappingTable.AnonymizedName(tok.Value)
		if ok && !identifier.Equal(anon, tok.Value) {
			changes = append(changes, Change{Original: tok.OriginalValue, Anonymized: anon})
			tok.Value = anon
		}
	}

	changes = append(changes, t.transformCallLiterals(tokens)...)

	newCodeArea := codeArea
	if len(changes) > 0 {
		newCodeArea = reconstructCodeArea(tokens, codeArea)
	}

	if t.AnonymizeLiterals && t.LiteralAnonymizer != nil {
		withLiterals := literal.TransformLiterals(newCodeArea, t.LiteralAnonymizer, true)
		if withLiterals != newCodeArea {
			if len(changes) == 0 {
				changes = append(changes, Change{Original: "literals", Anonymized: "anonymized"})
			}
			newCodeArea = withLiterals
		}
	}

	var warnings []string
	transformed := line.Raw
	if len(changes) > 0 {
		if err := column.ValidateCodeArea(filename, line.Number, newCodeArea); err != nil {
			warnings = append(warnings, fmt.Sprintf("column overflow at line %d: %v", line.Number, err))
		}
		transformed = column.Rebuild(line, newCodeArea)
	}

	return LineResult{
		OriginalLine:    line.Raw,
		TransformedLine: transformed,
		LineNumber:      line.Number,
		Terminator:      line.Terminator,
		ChangesMade:     changes,
		Warnings:        warnings,
	}
}

func commentChangesToChanges(changes []comment.Change) []Change {
	out := make([]Change, 0, len(changes))
	for _, c := range changes {
		out = append(out, Change{Original: c.From, Anonymized: c.To})
	}
	return out
}

func isInProtectedRange(position int, ranges [][2]int) bool {
	for _, r := range ranges {
		if r[0] <= position && position < r[1] {
			return true
		}
	}
	return false
}

func (t *LineTransformer) handleRedefines(codeArea string, lineNumber int) {
	m := redefinesPattern.FindStringSubmatch(codeArea)
	if m == nil {
		return
	}
	level := 0
	fmt.Sscanf(m[1], "%d", &level)
	t.RedefinesTracker.AddRedefines(m[2], m[3], level, lineNumber)
}

// transformCallLiterals renames the program-name string literal that
// immediately follows a CALL keyword, if that program name has a mapping.
func (t *LineTransformer) transformCallLiterals(tokens []token.Token) []Change {
	var changes []Change
	foundCall := false

	for i := range tokens {
		tok := &tokens[i]
		if tok.Type == token.WHITESPACE {
			continue
		}

		if tok.Type == token.RESERVED && strings.EqualFold(tok.Value, "CALL") {
			foundCall = true
			continue
		}

		if foundCall && tok.Type == token.STRING_LITERAL {
			original := tok.Value
			if len(original) >= 2 {
				quote := original[0]
				programName := original[1 : len(original)-1]

				if anon, ok := t.MappingTable.AnonymizedName(programName); ok && !identifier.Equal(anon, programName) {
					tok.Value = string(quote) + anon + string(quote)
					changes = append(changes, Change{Original: original, Anonymized: tok.Value})
				}
			}
			foundCall = false
			continue
		}

		if foundCall && tok.Type != token.STRING_LITERAL {
			foundCall = false
		}
	}

	return changes
}

// reconstructCodeArea rebuilds the code area from tokens (some of which
// may have modified Value fields), filling any gap between tokens with the
// corresponding slice of the original text, and advancing past each token
// by its ORIGINAL length so length-changing replacements don't desync
// subsequent token positions.
func reconstructCodeArea(tokens []token.Token, original string) string {
	sorted := append([]token.Token{}, tokens...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var b strings.Builder
	lastEnd := 0
	for _, tok := range sorted {
		if tok.Start > lastEnd {
			b.WriteString(original[lastEnd:tok.Start])
		}
		b.WriteString(tok.Value)
		lastEnd = tok.Start + len(tok.OriginalValue)
	}
	if lastEnd < len(original) {
		b.WriteString(original[lastEnd:])
	}
	return b.String()
}

// FileResult is the outcome of transforming every line of a file.
type FileResult struct {
	Filename         string
	TotalLines       int
	TransformedLines int
	Lines            []LineResult
	Warnings         []string
}

// TransformFile runs transformer over every line of a file, in order.
func TransformFile(lines []column.Line, filename string, transformer *LineTransformer) FileResult {
	result := FileResult{Filename: filename, TotalLines: len(lines)}

	for _, line := range lines {
		lineResult := transformer.TransformLine(line, filename)
		result.Lines = append(result.Lines, lineResult)
		if len(lineResult.ChangesMade) > 0 {
			result.TransformedLines++
		}
		result.Warnings = append(result.Warnings, lineResult.Warnings...)
	}

	return result
}
