// Package layout parses a DATA DIVISION record definition into a field
// tree with computed byte offsets and storage lengths. It does not decode
// raw data buffers into values: it yields the layout only. It is a
// secondary concern to the anonymization engine proper, built from the
// same PIC vocabulary the rest of the module lexes.
package layout

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FieldType classifies how a field's storage is interpreted.
type FieldType int

const (
	TypeUnknown FieldType = iota
	TypeAlphanumeric
	TypeNumeric
	TypeSignedNumeric
	TypeComp
	TypeComp3
	TypeGroup
)

func (t FieldType) String() string {
	switch t {
	case TypeAlphanumeric:
		return "ALPHANUMERIC"
	case TypeNumeric:
		return "NUMERIC"
	case TypeSignedNumeric:
		return "SIGNED_NUMERIC"
	case TypeComp:
		return "COMP"
	case TypeComp3:
		return "COMP-3"
	case TypeGroup:
		return "GROUP"
	default:
		return "UNKNOWN"
	}
}

// Pic is a parsed PIC clause.
type Pic struct {
	Raw              string
	Type             FieldType
	DisplayLength    int
	StorageLength    int
	DecimalPositions int
	Signed           bool
	Usage            string
}

// Field is one DATA DIVISION entry: an elementary item with a Pic, or a
// group item whose Children carry the storage.
type Field struct {
	Name            string
	Level           int
	LineNumber      int
	Parent          *Field
	Children        []*Field
	Pic             *Pic
	OccursCount     int
	RedefinesName   string
	RedefinesTarget *Field
	Offset          int
	StorageLength   int
	IsFiller        bool
}

// IsGroup reports whether f has children and no PIC clause.
func (f *Field) IsGroup() bool { return f.Pic == nil && len(f.Children) > 0 }

// TotalLength returns f's storage length multiplied by its OCCURS count.
func (f *Field) TotalLength() int {
	if f.OccursCount > 1 {
		return f.StorageLength * f.OccursCount
	}
	return f.StorageLength
}

// FindField searches f's subtree (including f itself) for a field named
// name, case-insensitively.
func (f *Field) FindField(name string) *Field {
	if strings.EqualFold(f.Name, name) {
		return f
	}
	for _, child := range f.Children {
		if found := child.FindField(name); found != nil {
			return found
		}
	}
	return nil
}

// Record is the root 01-level (or standalone 77-level) definition.
type Record struct {
	Name        string
	Root        *Field
	TotalLength int
	Warnings    []string
}

// FindField searches the record's tree for a field named name.
func (r *Record) FindField(name string) *Field {
	if r.Root == nil {
		return nil
	}
	return r.Root.FindField(name)
}

// AllFields returns every field in the record, depth-first.
func (r *Record) AllFields() []*Field {
	var out []*Field
	var collect func(*Field)
	collect = func(f *Field) {
		out = append(out, f)
		for _, c := range f.Children {
			collect(c)
		}
	}
	if r.Root != nil {
		collect(r.Root)
	}
	return out
}

var (
	levelPattern       = regexp.MustCompile(`^\s*(\d{2})\s+`)
	namePattern        = regexp.MustCompile(`(?i)^\s*\d{2}\s+([A-Za-z][A-Za-z0-9\-]*)`)
	fillerPattern      = regexp.MustCompile(`(?i)^\s*\d{2}\s+FILLER(?:\s|$)`)
	picPattern         = regexp.MustCompile(`(?i)\bPIC(?:TURE)?\s+(?:IS\s+)?([SXV90-9()\-+Z*A]+)`)
	picSignedPattern   = regexp.MustCompile(`(?i)^S`)
	compPattern        = regexp.MustCompile(`(?i)\b(COMP-3|COMP-1|COMP-2|COMP|COMPUTATIONAL-3|COMPUTATIONAL-1|COMPUTATIONAL-2|COMPUTATIONAL)\b`)
	usagePattern       = regexp.MustCompile(`(?i)\bUSAGE\s+(?:IS\s+)?(DISPLAY|COMP-3|COMP-1|COMP-2|COMP|COMPUTATIONAL-3|COMPUTATIONAL-1|COMPUTATIONAL-2|COMPUTATIONAL|BINARY|PACKED-DECIMAL)\b`)
	occursPattern      = regexp.MustCompile(`(?i)\bOCCURS\s+(\d+)\s*(?:TIMES)?\b`)
	occursDependPattern = regexp.MustCompile(`(?i)\bOCCURS\s+\d+\s+TO\s+(\d+)\s*(?:TIMES)?\s+DEPENDING\s+ON\s+([A-Za-z][A-Za-z0-9\-]*)`)
	redefinesPattern   = regexp.MustCompile(`(?i)\bREDEFINES\s+([A-Za-z][A-Za-z0-9\-]*)`)
	periodPattern      = regexp.MustCompile(`\.\s*$`)
	inlineCommentPattern = regexp.MustCompile(`\*>.*$`)
	sequencePattern    = regexp.MustCompile(`^(\d{6})`)
)

func normalizeUsage(usage string) string {
	upper := strings.ToUpper(strings.TrimSpace(usage))
	switch upper {
	case "COMPUTATIONAL":
		return "COMP"
	case "COMPUTATIONAL-1":
		return "COMP-1"
	case "COMPUTATIONAL-2":
		return "COMP-2"
	case "COMPUTATIONAL-3":
		return "COMP-3"
	case "BINARY":
		return "COMP"
	case "PACKED-DECIMAL":
		return "COMP-3"
	default:
		return upper
	}
}

func countPicChars(picString, char string) int {
	pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(char) + `(?:\((\d+)\))?`)
	total := 0
	for _, m := range pattern.FindAllStringSubmatch(picString, -1) {
		if m[1] != "" {
			n, _ := strconv.Atoi(m[1])
			total += n
		} else {
			total++
		}
	}
	return total
}

// parsePicLength returns the display length and decimal-position count for
// a PIC picture string.
func parsePicLength(picString string) (int, int) {
	signed := picSignedPattern.MatchString(picString)
	clean := picString
	if signed {
		clean = clean[1:]
	}

	alphaCount := countPicChars(clean, "X") + countPicChars(clean, "A")
	numericCount := countPicChars(clean, "9") + countPicChars(clean, "Z")

	decimalPositions := 0
	if idx := strings.Index(strings.ToUpper(clean), "V"); idx >= 0 {
		decimalPositions = countPicChars(clean[idx+1:], "9")
	}

	total := alphaCount + numericCount
	if signed && numericCount > 0 {
		total++
	}
	return total, decimalPositions
}

// calculateCompLength returns the storage length in bytes for a COMP or
// COMP-3 field, given its display-digit count.
func calculateCompLength(pic *Pic) int {
	digits := pic.DisplayLength
	if pic.Signed && digits > 0 {
		digits--
	}
	switch pic.Usage {
	case "COMP", "BINARY":
		switch {
		case digits <= 2:
			return 1
		case digits <= 4:
			return 2
		case digits <= 6:
			return 3
		case digits <= 9:
			return 4
		default:
			return 8
		}
	case "COMP-3":
		return (digits + 2) / 2
	default:
		return digits
	}
}

// ParseError reports a malformed DATA DIVISION statement.
type ParseError struct {
	Message    string
	LineNumber int
}

func (e *ParseError) Error() string {
	if e.LineNumber > 0 {
		return fmt.Sprintf("line %d: %s", e.LineNumber, e.Message)
	}
	return e.Message
}

// Parser builds Records from DATA DIVISION source text.
type Parser struct {
	Strict        bool
	Warnings      []string
	fillerCounter int
}

// NewParser creates a Parser. Problems found while parsing (level 66,
// unknown PIC patterns, unterminated statements, orphan fields, unresolved
// REDEFINES targets) are recorded in Warnings; no statement form produces a
// *ParseError, so strict does not change the outcome.
func NewParser(strict bool) *Parser {
	return &Parser{Strict: strict}
}

type statement struct {
	lineNumber int
	text       string
}

// ParseString parses source, returning every 01/77-level record found.
func (p *Parser) ParseString(source string) ([]*Record, error) {
	p.fillerCounter = 0
	p.Warnings = nil

	statements := p.preprocessLines(source)

	var fields []*Field
	for _, stmt := range statements {
		field, err := p.parseStatement(stmt.text, stmt.lineNumber)
		if err != nil {
			if p.Strict {
				return nil, err
			}
			p.Warnings = append(p.Warnings, err.Error())
			continue
		}
		if field != nil {
			fields = append(fields, field)
		}
	}

	records := buildHierarchy(fields, p)

	for _, record := range records {
		calculateOffsets(record)
		p.resolveRedefines(record)
	}

	return records, nil
}

func (p *Parser) preprocessLines(source string) []statement {
	var statements []statement
	var current strings.Builder
	startLine := 0

	lines := strings.Split(source, "\n")
	for i, raw := range lines {
		lineNum := i + 1
		line := strings.TrimRight(raw, "\r")

		if strings.TrimSpace(line) == "" {
			continue
		}

		if len(line) >= 7 {
			if sequencePattern.MatchString(line) {
				line = line[6:]
			}
			if line != "" && line[0] == '*' {
				continue
			}
			if line != "" && line[0] == '-' {
				line = strings.TrimLeft(line[1:], " \t")
				current.WriteByte(' ')
				current.WriteString(line)
				continue
			}
		}

		line = strings.TrimLeft(line, " \t")
		if strings.HasPrefix(line, "*") {
			continue
		}

		if loc := inlineCommentPattern.FindStringIndex(line); loc != nil {
			line = strings.TrimRight(line[:loc[0]], " \t")
		}
		if line == "" {
			continue
		}

		if current.Len() == 0 {
			startLine = lineNum
			current.WriteString(line)
		} else {
			current.WriteByte(' ')
			current.WriteString(line)
		}

		if periodPattern.MatchString(current.String()) {
			text := strings.TrimRight(current.String(), ". \t")
			statements = append(statements, statement{lineNumber: startLine, text: text})
			current.Reset()
			startLine = 0
		}
	}

	if strings.TrimSpace(current.String()) != "" {
		p.Warnings = append(p.Warnings, fmt.Sprintf("line %d: statement without terminating period", startLine))
		text := strings.TrimRight(current.String(), ". \t")
		statements = append(statements, statement{lineNumber: startLine, text: text})
	}

	return statements
}

func (p *Parser) parseStatement(stmt string, lineNumber int) (*Field, error) {
	levelMatch := levelPattern.FindStringSubmatch(stmt)
	if levelMatch == nil {
		return nil, nil
	}
	level, _ := strconv.Atoi(levelMatch[1])

	if level == 66 {
		p.Warnings = append(p.Warnings, fmt.Sprintf("line %d: level 66 (RENAMES) not supported, skipping", lineNumber))
		return nil, nil
	}
	if level == 88 {
		return nil, nil
	}

	name := "FILLER"
	isFiller := false
	if fillerPattern.MatchString(stmt) {
		p.fillerCounter++
		name = fmt.Sprintf("FILLER-%d", p.fillerCounter)
		isFiller = true
	} else if m := namePattern.FindStringSubmatch(stmt); m != nil {
		name = strings.ToUpper(m[1])
	}

	pic := p.parsePicClause(stmt, lineNumber)

	occursCount := 0
	if m := occursPattern.FindStringSubmatch(stmt); m != nil {
		occursCount, _ = strconv.Atoi(m[1])
	}
	if m := occursDependPattern.FindStringSubmatch(stmt); m != nil {
		occursCount, _ = strconv.Atoi(m[1])
		p.Warnings = append(p.Warnings, fmt.Sprintf("line %d: OCCURS DEPENDING ON treated as fixed size %d", lineNumber, occursCount))
	}

	redefinesName := ""
	if m := redefinesPattern.FindStringSubmatch(stmt); m != nil {
		redefinesName = strings.ToUpper(m[1])
	}

	field := &Field{
		Name:          name,
		Level:         level,
		LineNumber:    lineNumber,
		Pic:           pic,
		OccursCount:   occursCount,
		RedefinesName: redefinesName,
		IsFiller:      isFiller,
	}
	if pic != nil {
		field.StorageLength = pic.StorageLength
	}

	return field, nil
}

func (p *Parser) parsePicClause(stmt string, lineNumber int) *Pic {
	m := picPattern.FindStringSubmatch(stmt)
	if m == nil {
		return nil
	}
	picString := strings.ToUpper(m[1])

	signed := picSignedPattern.MatchString(picString)
	hasAlpha := strings.ContainsAny(picString, "XA")
	hasNumeric := strings.ContainsAny(picString, "9") || strings.Contains(picString, "Z")

	var fieldType FieldType
	switch {
	case hasAlpha && !hasNumeric:
		fieldType = TypeAlphanumeric
	case hasNumeric:
		if signed {
			fieldType = TypeSignedNumeric
		} else {
			fieldType = TypeNumeric
		}
	default:
		fieldType = TypeUnknown
		p.Warnings = append(p.Warnings, fmt.Sprintf("line %d: unknown PIC pattern: %s", lineNumber, picString))
	}

	displayLength, decimalPositions := parsePicLength(picString)

	usage := "DISPLAY"
	if m := compPattern.FindStringSubmatch(stmt); m != nil {
		usage = normalizeUsage(m[1])
		if usage == "COMP-3" || usage == "COMP" {
			fieldType = compFieldType(usage)
		}
	}
	if m := usagePattern.FindStringSubmatch(stmt); m != nil {
		usage = normalizeUsage(m[1])
		if usage == "COMP-3" || usage == "COMP" {
			fieldType = compFieldType(usage)
		}
	}

	pic := &Pic{
		Raw:              picString,
		Type:             fieldType,
		DisplayLength:    displayLength,
		StorageLength:    displayLength,
		DecimalPositions: decimalPositions,
		Signed:           signed,
		Usage:            usage,
	}
	if fieldType == TypeComp || fieldType == TypeComp3 {
		pic.StorageLength = calculateCompLength(pic)
	}
	return pic
}

func compFieldType(usage string) FieldType {
	if usage == "COMP-3" {
		return TypeComp3
	}
	return TypeComp
}

func buildHierarchy(fields []*Field, p *Parser) []*Record {
	var records []*Record
	var current *Record
	var stack []*Field

	for _, field := range fields {
		switch {
		case field.Level == 1 || field.Level == 77:
			if current != nil {
				records = append(records, current)
			}
			current = &Record{Name: field.Name, Root: field}
			stack = []*Field{field}

			if field.Level == 77 {
				records = append(records, current)
				current = nil
				stack = nil
			}

		case current != nil:
			for len(stack) > 0 && stack[len(stack)-1].Level >= field.Level {
				stack = stack[:len(stack)-1]
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				field.Parent = parent
				parent.Children = append(parent.Children, field)
			} else if current.Root != nil {
				p.Warnings = append(p.Warnings, fmt.Sprintf("line %d: orphan field %s attached to root", field.LineNumber, field.Name))
				field.Parent = current.Root
				current.Root.Children = append(current.Root.Children, field)
			}
			stack = append(stack, field)
		}
	}

	if current != nil {
		records = append(records, current)
	}
	return records
}

func calculateOffsets(record *Record) {
	if record.Root == nil {
		return
	}

	var calc func(f *Field, offset int) int
	calc = func(f *Field, offset int) int {
		f.Offset = offset

		if len(f.Children) > 0 {
			running := offset
			for _, child := range f.Children {
				if child.RedefinesName != "" {
					child.Offset = running
					calc(child, running)
				} else {
					running += calc(child, running)
				}
			}
			f.StorageLength = running - offset
		}

		total := f.StorageLength
		if f.OccursCount > 1 {
			total *= f.OccursCount
		}
		return total
	}

	record.TotalLength = calc(record.Root, 0)
}

func (p *Parser) resolveRedefines(record *Record) {
	if record.Root == nil {
		return
	}

	byName := make(map[string]*Field)
	var build func(*Field)
	build = func(f *Field) {
		byName[strings.ToUpper(f.Name)] = f
		for _, c := range f.Children {
			build(c)
		}
	}
	build(record.Root)

	var resolve func(*Field)
	resolve = func(f *Field) {
		if f.RedefinesName != "" {
			target := byName[strings.ToUpper(f.RedefinesName)]
			if target != nil {
				f.RedefinesTarget = target
				delta := target.Offset - f.Offset
				f.Offset = target.Offset
				adjustChildOffsets(f, delta)
			} else {
				p.Warnings = append(p.Warnings, fmt.Sprintf("line %d: REDEFINES target not found: %s", f.LineNumber, f.RedefinesName))
			}
		}
		for _, c := range f.Children {
			resolve(c)
		}
	}
	resolve(record.Root)
}

func adjustChildOffsets(f *Field, delta int) {
	for _, child := range f.Children {
		child.Offset += delta
		adjustChildOffsets(child, delta)
	}
}
