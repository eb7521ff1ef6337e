// Package copybook parses COPY statements, tracks the dependency graph
// they form between source files and copybooks, and locates copybook files
// on disk so a multi-file COBOL project can be processed in dependency
// order.
package copybook

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ReplacingPair is one pattern/replacement pair from a COPY ... REPLACING
// clause.
type ReplacingPair struct {
	Pattern       string
	Replacement   string
	IsPseudoText  bool
}

func (p ReplacingPair) String() string {
	if p.IsPseudoText {
		return fmt.Sprintf("==%s== BY ==%s==", p.Pattern, p.Replacement)
	}
	return fmt.Sprintf("%s BY %s", p.Pattern, p.Replacement)
}

// Statement is a parsed COPY statement.
type Statement struct {
	CopybookName string
	Library      string
	Replacements []ReplacingPair
	LineNumber   int
	SourceFile   string
	RawText      string
}

// HasReplacing reports whether this COPY carries a REPLACING clause.
func (s Statement) HasReplacing() bool { return len(s.Replacements) > 0 }

var (
	copyPattern = regexp.MustCompile(`(?is)\bCOPY\s+([A-Za-z][A-Za-z0-9\-]*)(?:\s+OF\s+([A-Za-z][A-Za-z0-9\-]*))?(?:\s+REPLACING\s+(.+?))?\s*\.`)

	pseudoTextPattern = regexp.MustCompile(`(?i)==([^=]*)==\s+BY\s+==([^=]*)==`)
	simpleReplacing   = regexp.MustCompile(`(?i)([A-Za-z][A-Za-z0-9\-]*)\s+BY\s+([A-Za-z][A-Za-z0-9\-]*)`)
)

// ParseStatement parses a single COPY statement out of line, returning
// false if no COPY statement is present.
func ParseStatement(line string, lineNumber int, sourceFile string) (Statement, bool) {
	m := copyPattern.FindStringSubmatch(line)
	if m == nil {
		return Statement{}, false
	}
	stmt := Statement{
		CopybookName: m[1],
		Library:      m[2],
		LineNumber:   lineNumber,
		SourceFile:   sourceFile,
		RawText:      m[0],
	}
	if m[3] != "" {
		stmt.Replacements = parseReplacingClause(m[3])
	}
	return stmt, true
}

func parseReplacingClause(text string) []ReplacingPair {
	var pairs []ReplacingPair
	for _, m := range pseudoTextPattern.FindAllStringSubmatch(text, -1) {
		pairs = append(pairs, ReplacingPair{
			Pattern:      strings.TrimSpace(m[1]),
			Replacement:  strings.TrimSpace(m[2]),
			IsPseudoText: true,
		})
	}
	if len(pairs) == 0 {
		for _, m := range simpleReplacing.FindAllStringSubmatch(text, -1) {
			pairs = append(pairs, ReplacingPair{Pattern: m[1], Replacement: m[2]})
		}
	}
	return pairs
}

// FindStatements scans every line of a file's text for COPY statements,
// joining lines so a COPY that spans multiple source lines is still
// recognized, and reports each statement's originating line number.
func FindStatements(lines []string, filename string) []Statement {
	var fullText strings.Builder
	lineStarts := make([]int, 0, len(lines))
	for _, line := range lines {
		lineStarts = append(lineStarts, fullText.Len())
		fullText.WriteString(line)
		fullText.WriteByte('\n')
	}
	text := fullText.String()

	var statements []Statement
	for _, loc := range copyPattern.FindAllStringIndex(text, -1) {
		lineNum := 1
		for i, start := range lineStarts {
			if start <= loc[0] {
				lineNum = i + 1
			} else {
				break
			}
		}
		if stmt, ok := ParseStatement(text[loc[0]:loc[1]], lineNum, filename); ok {
			statements = append(statements, stmt)
		}
	}
	return statements
}

// NormalizeFilename upper-cases filename and strips a trailing
// .cpy/.cob/.cbl extension, for use as a dependency-graph key.
func NormalizeFilename(filename string) string {
	name := strings.ToUpper(filename)
	for _, ext := range []string{".CPY", ".COB", ".CBL"} {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

// CycleError reports a circular COPY dependency.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular copybook dependency: %s", strings.Join(e.Cycle, " -> "))
}

// Graph tracks the COPY dependency relationships discovered across a set
// of files, keyed by normalized filename.
type Graph struct {
	dependencies  map[string]map[string]bool
	reverseDeps   map[string]map[string]bool
	allFiles      map[string]bool
	copyStatements map[string][]Statement
	originalNames map[string]string
}

// NewGraph creates an empty dependency graph.
func NewGraph() *Graph {
	return &Graph{
		dependencies:   make(map[string]map[string]bool),
		reverseDeps:    make(map[string]map[string]bool),
		allFiles:       make(map[string]bool),
		copyStatements: make(map[string][]Statement),
		originalNames:  make(map[string]string),
	}
}

func (g *Graph) normalize(filename string) string {
	normalized := NormalizeFilename(filename)
	if _, ok := g.originalNames[normalized]; !ok {
		g.originalNames[normalized] = strings.ToUpper(filename)
	}
	return normalized
}

// AddFile registers filename as a known node, even if it has no
// dependencies of its own.
func (g *Graph) AddFile(filename string) {
	g.allFiles[g.normalize(filename)] = true
}

// AddDependency records that sourceFile's COPY of copybook was found at
// statement (which may be the zero value if unavailable).
func (g *Graph) AddDependency(sourceFile, copybookName string, statement *Statement) {
	source := g.normalize(sourceFile)
	copybook := g.normalize(copybookName)

	g.allFiles[source] = true
	g.allFiles[copybook] = true

	if g.dependencies[source] == nil {
		g.dependencies[source] = make(map[string]bool)
	}
	g.dependencies[source][copybook] = true

	if g.reverseDeps[copybook] == nil {
		g.reverseDeps[copybook] = make(map[string]bool)
	}
	g.reverseDeps[copybook][source] = true

	if statement != nil {
		g.copyStatements[source] = append(g.copyStatements[source], *statement)
	}
}

// Dependencies returns the direct COPY dependencies of filename.
func (g *Graph) Dependencies(filename string) []string {
	return sortedKeys(g.dependencies[g.normalize(filename)])
}

// Dependents returns the files that COPY filename.
func (g *Graph) Dependents(filename string) []string {
	return sortedKeys(g.reverseDeps[g.normalize(filename)])
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DetectCycle reports the first circular dependency found via
// depth-first-search coloring, or nil if the graph is acyclic.
func (g *Graph) DetectCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	colors := make(map[string]int, len(g.allFiles))
	for f := range g.allFiles {
		colors[f] = white
	}

	var path []string
	var dfs func(node string) []string
	dfs = func(node string) []string {
		colors[node] = gray
		path = append(path, node)

		for dep := range g.dependencies[node] {
			switch colors[dep] {
			case gray:
				idx := indexOf(path, dep)
				cycle := append(append([]string{}, path[idx:]...), dep)
				return cycle
			case white:
				if result := dfs(dep); result != nil {
					return result
				}
			}
		}

		path = path[:len(path)-1]
		colors[node] = black
		return nil
	}

	for _, file := range sortedKeys(g.allFiles) {
		if colors[file] == white {
			if cycle := dfs(file); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

// TopologicalSort returns files in dependency order (files with no
// unresolved dependencies first), using Kahn's algorithm with a
// lexicographic tie-break for determinism.
func (g *Graph) TopologicalSort() ([]string, error) {
	if cycle := g.DetectCycle(); cycle != nil {
		return nil, &CycleError{Cycle: cycle}
	}

	depCount := make(map[string]int, len(g.allFiles))
	remaining := make(map[string]map[string]bool, len(g.allFiles))
	for f := range g.allFiles {
		deps := g.dependencies[f]
		depCount[f] = len(deps)
		copyDeps := make(map[string]bool, len(deps))
		for d := range deps {
			copyDeps[d] = true
		}
		remaining[f] = copyDeps
	}

	var ready []string
	for f, count := range depCount {
		if count == 0 {
			ready = append(ready, f)
		}
	}

	done := make(map[string]bool, len(g.allFiles))
	var result []string
	for len(ready) > 0 {
		sort.Strings(ready)
		current := ready[0]
		ready = ready[1:]
		result = append(result, current)
		done[current] = true

		for source, deps := range remaining {
			if done[source] {
				continue
			}
			if deps[current] {
				delete(deps, current)
				depCount[source] = len(deps)
				if depCount[source] == 0 {
					ready = append(ready, source)
				}
			}
		}
	}

	if len(result) != len(g.allFiles) {
		var remainingFiles []string
		for f := range g.allFiles {
			if !done[f] {
				remainingFiles = append(remainingFiles, f)
			}
		}
		sort.Strings(remainingFiles)
		return nil, &CycleError{Cycle: remainingFiles}
	}

	return result, nil
}

// NotFoundError reports a COPY statement whose target copybook could not
// be located on any search path.
type NotFoundError struct {
	Copybook string
	File     string
	Line     int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s:%d: copybook %q not found", e.File, e.Line, e.Copybook)
}

// Resolver locates copybook files on disk and builds the dependency graph
// for a multi-file COBOL project.
type Resolver struct {
	SearchPaths []string
	Extensions  []string

	Graph *Graph

	locations    map[string]string
	scannedFiles map[string]bool
	readFile     func(string) ([]byte, error)
}

// NewResolver creates a Resolver over the given search paths, defaulting
// extensions to .cpy, .cob, .cbl, and no extension.
func NewResolver(searchPaths []string) *Resolver {
	return &Resolver{
		SearchPaths:  append([]string{}, searchPaths...),
		Extensions:   []string{".cpy", ".cob", ".cbl", ""},
		Graph:        NewGraph(),
		locations:    make(map[string]string),
		scannedFiles: make(map[string]bool),
		readFile:     os.ReadFile,
	}
}

// AddSearchPath registers an additional directory to search for copybooks.
func (r *Resolver) AddSearchPath(path string) {
	for _, existing := range r.SearchPaths {
		if existing == path {
			return
		}
	}
	r.SearchPaths = append(r.SearchPaths, path)
}

// FindCopybook locates a copybook file by name, trying the exact,
// upper-cased, and lower-cased spelling of the name under each search path
// and extension, and caching the result.
func (r *Resolver) FindCopybook(copybookName string) (string, bool) {
	key := strings.ToUpper(copybookName)
	if loc, ok := r.locations[key]; ok {
		return loc, true
	}

	for _, searchPath := range r.SearchPaths {
		for _, ext := range r.Extensions {
			for _, variant := range []string{copybookName, strings.ToUpper(copybookName), strings.ToLower(copybookName)} {
				candidate := filepath.Join(searchPath, variant+ext)
				if _, err := os.Stat(candidate); err == nil {
					r.locations[key] = candidate
					return candidate, true
				}
			}
		}
	}
	return "", false
}

// ScanFile scans filePath for COPY statements, recursively scanning any
// copybook it finds. If requireCopybooks is true, a missing copybook
// produces a NotFoundError; otherwise it is silently skipped.
func (r *Resolver) ScanFile(filePath string, requireCopybooks bool) ([]Statement, error) {
	filename := strings.ToUpper(filepath.Base(filePath))
	if r.scannedFiles[filename] {
		return r.Graph.copyStatements[r.Graph.normalize(filename)], nil
	}
	r.scannedFiles[filename] = true
	r.Graph.AddFile(filename)

	content, err := r.readFile(filePath)
	if err != nil {
		return nil, nil
	}
	lines := strings.Split(string(content), "\n")

	statements := FindStatements(lines, filePath)

	for _, stmt := range statements {
		stmtCopy := stmt
		r.Graph.AddDependency(filename, stmt.CopybookName, &stmtCopy)

		if copybookPath, found := r.FindCopybook(stmt.CopybookName); found {
			if _, err := r.ScanFile(copybookPath, requireCopybooks); err != nil {
				return nil, err
			}
		} else if requireCopybooks {
			return nil, &NotFoundError{Copybook: stmt.CopybookName, File: filePath, Line: stmt.LineNumber}
		}
	}

	return statements, nil
}

// ScanDirectory scans every .cob/.cbl/.cpy file directly under directory
// (non-recursively, matching a single COBOL source tree level), adding
// directory itself as a search path for copybook resolution.
func (r *Resolver) ScanDirectory(directory string, requireCopybooks bool) error {
	r.AddSearchPath(directory)

	matchExt := map[string]bool{".cob": true, ".cbl": true, ".cpy": true}
	return filepath.WalkDir(directory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "walking %s", directory)
		}
		if d.IsDir() {
			if path != directory {
				return fs.SkipDir
			}
			return nil
		}
		if !matchExt[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		_, scanErr := r.ScanFile(path, requireCopybooks)
		return scanErr
	})
}

// ProcessingOrder returns the files scanned so far in dependency order
// (copybooks before the files that COPY them).
func (r *Resolver) ProcessingOrder() ([]string, error) {
	return r.Graph.TopologicalSort()
}

// CopyStatements returns the COPY statements found in filename.
func (r *Resolver) CopyStatements(filename string) []Statement {
	return r.Graph.copyStatements[r.Graph.normalize(filename)]
}

// AllCopyStatements returns every COPY statement found, grouped by the
// normalized name of the file it appeared in.
func (r *Resolver) AllCopyStatements() map[string][]Statement {
	out := make(map[string][]Statement, len(r.Graph.copyStatements))
	for k, v := range r.Graph.copyStatements {
		out[k] = v
	}
	return out
}
