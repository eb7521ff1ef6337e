// Package mapping maintains the project-wide table of original-to-anonymized
// identifier names, ensuring the same original identifier always resolves
// to the same replacement across every file in a run, and persisting that
// table to JSON or CSV for audit and resumption.
package mapping

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ha1tch/cobolanon/classify"
	"github.com/ha1tch/cobolanon/naming"
)

// Entry is a single original-to-anonymized mapping.
type Entry struct {
	OriginalName    string
	AnonymizedName  string
	Role            classify.Role
	IsExternal      bool
	FirstSeenFile   string
	FirstSeenLine   int
	OccurrenceCount int
}

// Table is the case-insensitive, run-scoped mapping of original identifiers
// to their anonymized replacements.
type Table struct {
	RunID        string
	NamingScheme naming.Scheme

	mappings  map[string]*Entry
	external  map[string]bool
	generator *naming.Generator
}

// NewTable creates an empty Table that draws replacement names from the
// given naming scheme.
func NewTable(scheme naming.Scheme) (*Table, error) {
	strategy, err := naming.Get(scheme)
	if err != nil {
		return nil, err
	}
	return &Table{
		RunID:        uuid.NewString(),
		NamingScheme: scheme,
		mappings:     make(map[string]*Entry),
		external:     make(map[string]bool),
		generator:    naming.NewGenerator(strategy, naming.DefaultGeneratorConfig()),
	}, nil
}

// GetOrCreate returns the anonymized name for originalName, creating and
// recording one if this is the first time the identifier has been seen.
// EXTERNAL identifiers are never renamed: the original name is returned and
// recorded as a pass-through mapping.
func (t *Table) GetOrCreate(originalName string, role classify.Role, isExternal bool, file string, line int) (string, error) {
	key := strings.ToUpper(originalName)

	if isExternal || role == classify.RoleExternalName {
		t.external[key] = true
		if _, ok := t.mappings[key]; !ok {
			t.mappings[key] = &Entry{
				OriginalName:   originalName,
				AnonymizedName: originalName,
				Role:           role,
				IsExternal:     true,
				FirstSeenFile:  file,
				FirstSeenLine:  line,
			}
		}
		return originalName, nil
	}

	if entry, ok := t.mappings[key]; ok {
		entry.OccurrenceCount++
		return entry.AnonymizedName, nil
	}

	if t.external[key] {
		return originalName, nil
	}

	anonymized, err := t.generator.Generate(originalName, role)
	if err != nil {
		return "", err
	}

	t.mappings[key] = &Entry{
		OriginalName:    originalName,
		AnonymizedName:  anonymized,
		Role:            role,
		IsExternal:      false,
		FirstSeenFile:   file,
		FirstSeenLine:   line,
		OccurrenceCount: 1,
	}
	return anonymized, nil
}

// Lookup returns the mapping entry for originalName, if any.
func (t *Table) Lookup(originalName string) (Entry, bool) {
	entry, ok := t.mappings[strings.ToUpper(originalName)]
	if !ok {
		return Entry{}, false
	}
	return *entry, true
}

// AnonymizedName returns the anonymized replacement for originalName, if
// mapped. Unlike Lookup, this is the substitution path used while
// transforming a file, so it counts as an occurrence: OccurrenceCount
// increments on every call that resolves a mapping.
func (t *Table) AnonymizedName(originalName string) (string, bool) {
	entry, ok := t.mappings[strings.ToUpper(originalName)]
	if !ok {
		return "", false
	}
	entry.OccurrenceCount++
	return entry.AnonymizedName, true
}

// OriginalName performs the reverse lookup: the original identifier that
// anonymizedName was generated from, if any.
func (t *Table) OriginalName(anonymizedName string) (string, bool) {
	target := strings.ToUpper(anonymizedName)
	for _, entry := range t.mappings {
		if strings.ToUpper(entry.AnonymizedName) == target {
			return entry.OriginalName, true
		}
	}
	return "", false
}

// IsExternal reports whether name has been marked EXTERNAL.
func (t *Table) IsExternal(name string) bool {
	return t.external[strings.ToUpper(name)]
}

// MarkExternal flags name as EXTERNAL without creating a mapping entry.
func (t *Table) MarkExternal(name string) {
	t.external[strings.ToUpper(name)] = true
}

// AllEntries returns every mapping entry, in insertion-independent order.
func (t *Table) AllEntries() []Entry {
	out := make([]Entry, 0, len(t.mappings))
	for _, e := range t.mappings {
		out = append(out, *e)
	}
	return out
}

// EntriesByRole returns mapping entries restricted to role.
func (t *Table) EntriesByRole(role classify.Role) []Entry {
	var out []Entry
	for _, e := range t.mappings {
		if e.Role == role {
			out = append(out, *e)
		}
	}
	return out
}

// ExternalNames returns every name marked EXTERNAL.
func (t *Table) ExternalNames() []string {
	out := make([]string, 0, len(t.external))
	for name := range t.external {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Statistics summarizes the table's contents.
type Statistics struct {
	TotalMappings int
	ExternalCount int
	ByRole        map[classify.Role]int
}

// Statistics computes summary counts over the table.
func (t *Table) Statistics() Statistics {
	stats := Statistics{
		TotalMappings: len(t.mappings),
		ExternalCount: len(t.external),
		ByRole:        make(map[classify.Role]int),
	}
	for _, e := range t.mappings {
		stats.ByRole[e.Role]++
	}
	return stats
}

// Reset clears all mappings, external markers, and generator counters.
func (t *Table) Reset() {
	t.mappings = make(map[string]*Entry)
	t.external = make(map[string]bool)
	t.generator.Reset()
}

// jsonEntry and jsonDocument mirror the on-disk JSON schema.
type jsonEntry struct {
	OriginalName    string `json:"original_name"`
	AnonymizedName  string `json:"anonymized_name"`
	IDType          string `json:"id_type"`
	IsExternal      bool   `json:"is_external"`
	FirstSeenFile   string `json:"first_seen_file,omitempty"`
	FirstSeenLine   int    `json:"first_seen_line,omitempty"`
	OccurrenceCount int    `json:"occurrence_count"`
}

type jsonDocument struct {
	GeneratedAt     string         `json:"generated_at"`
	NamingScheme    string         `json:"naming_scheme"`
	Mappings        []jsonEntry    `json:"mappings"`
	ExternalNames   []string       `json:"external_names"`
	GeneratorState  map[string]int `json:"generator_state"`
}

// WriteJSON serializes the table to w in the run's persisted JSON format.
func (t *Table) WriteJSON(w io.Writer) error {
	doc := jsonDocument{
		GeneratedAt:    time.Now().UTC().Format(time.RFC3339),
		NamingScheme:   string(t.NamingScheme),
		ExternalNames:  t.ExternalNames(),
		GeneratorState: make(map[string]int),
	}
	for role, count := range t.generator.CounterState() {
		doc.GeneratorState[role.String()] = count
	}
	for _, e := range t.mappings {
		doc.Mappings = append(doc.Mappings, jsonEntry{
			OriginalName:    e.OriginalName,
			AnonymizedName:  e.AnonymizedName,
			IDType:          e.Role.String(),
			IsExternal:      e.IsExternal,
			FirstSeenFile:   e.FirstSeenFile,
			FirstSeenLine:   e.FirstSeenLine,
			OccurrenceCount: e.OccurrenceCount,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteCSV serializes the table to w using the mapping report's CSV schema:
// original_name,anonymized_name,id_type,is_external,first_seen_file,
// first_seen_line,occurrence_count,naming_scheme,generated_at.
func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	timestamp := time.Now().UTC().Format(time.RFC3339)
	scheme := string(t.NamingScheme)

	header := []string{
		"original_name", "anonymized_name", "id_type", "is_external",
		"first_seen_file", "first_seen_line", "occurrence_count",
		"naming_scheme", "generated_at",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, e := range t.mappings {
		line := ""
		if e.FirstSeenLine != 0 {
			line = strconv.Itoa(e.FirstSeenLine)
		}
		row := []string{
			e.OriginalName, e.AnonymizedName, e.Role.String(), strconv.FormatBool(e.IsExternal),
			e.FirstSeenFile, line, strconv.Itoa(e.OccurrenceCount), scheme, timestamp,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	for name := range t.external {
		if _, ok := t.mappings[name]; ok {
			continue
		}
		row := []string{name, name, "EXTERNAL_NAME", "true", "", "", "0", scheme, timestamp}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// LoadJSON restores a Table from a document previously written by WriteJSON,
// so an interrupted run can resume with every identifier seen so far mapped
// exactly as before.
func LoadJSON(r io.Reader) (*Table, error) {
	var doc jsonDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing mapping file: %w", err)
	}

	scheme := naming.Scheme(doc.NamingScheme)
	strategy, err := naming.Get(scheme)
	if err != nil {
		return nil, err
	}

	t := &Table{
		RunID:        uuid.NewString(),
		NamingScheme: scheme,
		mappings:     make(map[string]*Entry),
		external:     make(map[string]bool),
		generator:    naming.NewGenerator(strategy, naming.DefaultGeneratorConfig()),
	}

	for _, e := range doc.Mappings {
		t.mappings[strings.ToUpper(e.OriginalName)] = &Entry{
			OriginalName:    e.OriginalName,
			AnonymizedName:  e.AnonymizedName,
			Role:            classify.RoleFromString(e.IDType),
			IsExternal:      e.IsExternal,
			FirstSeenFile:   e.FirstSeenFile,
			FirstSeenLine:   e.FirstSeenLine,
			OccurrenceCount: e.OccurrenceCount,
		}
	}
	for _, name := range doc.ExternalNames {
		t.external[strings.ToUpper(name)] = true
	}

	state := make(map[classify.Role]int, len(doc.GeneratorState))
	for roleName, count := range doc.GeneratorState {
		state[classify.RoleFromString(roleName)] = count
	}
	t.generator.SetCounterState(state)

	return t, nil
}

// Report renders a human-readable summary of the table's statistics and
// contents, grouped by role and sorted by original name within each group.
func Report(t *Table) string {
	var b strings.Builder
	rule := strings.Repeat("=", 70)

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "COBOL Anonymization Mapping Report")
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b)

	stats := t.Statistics()
	fmt.Fprintln(&b, "Statistics:")
	fmt.Fprintf(&b, "  Total mappings: %d\n", stats.TotalMappings)
	fmt.Fprintf(&b, "  External items: %d\n", stats.ExternalCount)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "Mappings by type:")

	roles := []classify.Role{
		classify.RoleProgramName, classify.RoleCopybookName, classify.RoleSectionName,
		classify.RoleParagraphName, classify.RoleDataName, classify.RoleConditionName,
		classify.RoleFileName, classify.RoleIndexName, classify.RoleExternalName,
		classify.RoleUnknown,
	}
	for _, role := range roles {
		if count := stats.ByRole[role]; count > 0 {
			fmt.Fprintf(&b, "  %s: %d\n", role.String(), count)
		}
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b)

	for _, role := range roles {
		entries := t.EntriesByRole(role)
		if len(entries) == 0 {
			continue
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].OriginalName < entries[j].OriginalName })

		fmt.Fprintf(&b, "%s:\n", role.String())
		fmt.Fprintln(&b, strings.Repeat("-", 40))
		for _, e := range entries {
			marker := ""
			if e.IsExternal {
				marker = " [EXTERNAL]"
			}
			fmt.Fprintf(&b, "  %-30s -> %s%s\n", e.OriginalName, e.AnonymizedName, marker)
		}
		fmt.Fprintln(&b)
	}

	return b.String()
}
