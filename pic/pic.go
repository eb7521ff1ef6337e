// Package pic recognizes COBOL PICTURE and USAGE clauses so the transformer
// can treat them as protected ranges that must never be touched by
// identifier or literal anonymization.
package pic

import (
	"regexp"
	"strconv"
	"strings"
)

// Type is the primary data type a PIC pattern describes.
type Type string

const (
	Alphanumeric  Type = "X"
	Numeric       Type = "9"
	Alphabetic    Type = "A"
	EditedNumeric Type = "Z"
	Signed        Type = "S"
	Decimal       Type = "V"
	Mixed         Type = "MIXED"
)

// UsageType is the storage representation named by a USAGE clause.
type UsageType string

const (
	Display       UsageType = "DISPLAY"
	Comp          UsageType = "COMP"
	Comp1         UsageType = "COMP-1"
	Comp2         UsageType = "COMP-2"
	Comp3         UsageType = "COMP-3"
	Comp4         UsageType = "COMP-4"
	Comp5         UsageType = "COMP-5"
	Binary        UsageType = "BINARY"
	PackedDecimal UsageType = "PACKED-DECIMAL"
	Pointer       UsageType = "POINTER"
	Index         UsageType = "INDEX"
)

// Clause describes a PICTURE clause occurrence within a line.
type Clause struct {
	Raw      string
	Start    int
	End      int
	PICType  Type
	Pattern  string
	Length   int
}

// UsageClause describes a USAGE clause occurrence within a line.
type UsageClause struct {
	Raw   string
	Start int
	End   int
	Usage UsageType
}

var (
	picPattern = regexp.MustCompile(
		`(?i)\b(PIC(?:TURE)?)\s+(?:IS\s+)?([SsVvXxAa9ZzBbPp0/,\-\+\*()0-9]+)\.?`)

	picCharPattern = regexp.MustCompile(`(?i)([XxAa9SsVvZzBbPp\-+.*])(?:\((\d+)\))?`)

	// usagePattern matches a USAGE keyword whole-word-guarded so it does
	// not fire inside identifiers like WS-INDEX.
	usagePattern = regexp.MustCompile(
		`(?i)(?:^|[\s.])(?:USAGE\s+(?:IS\s+)?)?(COMP(?:UTATIONAL)?(?:-[1-5])?|BINARY|PACKED-DECIMAL|DISPLAY|POINTER|INDEX)(?:[\s.,]|$)`)

	valuePattern     = regexp.MustCompile(`(?i)\bVALUE\s+(?:IS\s+)?`)
	redefinesPattern = regexp.MustCompile(`(?i)\bREDEFINES\s+`)
	occursPattern    = regexp.MustCompile(`(?i)\bOCCURS\s+`)
	externalPattern  = regexp.MustCompile(`(?i)\bEXTERNAL\b`)
	globalPattern    = regexp.MustCompile(`(?i)\bGLOBAL\b`)
)

// FindClauses returns every PICTURE clause occurrence in line.
func FindClauses(line string) []Clause {
	var clauses []Clause
	for _, m := range picPattern.FindAllStringSubmatchIndex(line, -1) {
		pattern := line[m[4]:m[5]]
		clauses = append(clauses, Clause{
			Raw:     line[m[0]:m[1]],
			Start:   m[0],
			End:     m[1],
			PICType: DetermineType(pattern),
			Pattern: pattern,
			Length:  CalculateLength(pattern),
		})
	}
	return clauses
}

// FindUsageClauses returns every USAGE clause occurrence in line.
func FindUsageClauses(line string) []UsageClause {
	var clauses []UsageClause
	for _, m := range usagePattern.FindAllStringSubmatchIndex(line, -1) {
		text := strings.ToUpper(line[m[2]:m[3]])
		clauses = append(clauses, UsageClause{
			Raw:   line[m[0]:m[1]],
			Start: m[2],
			End:   m[3],
			Usage: usageTypeOf(text),
		})
	}
	return clauses
}

func usageTypeOf(text string) UsageType {
	switch {
	case text == "COMP", text == "COMPUTATIONAL":
		return Comp
	case text == "COMP-1", text == "COMPUTATIONAL-1":
		return Comp1
	case text == "COMP-2", text == "COMPUTATIONAL-2":
		return Comp2
	case text == "COMP-3", text == "COMPUTATIONAL-3":
		return Comp3
	case text == "COMP-4", text == "COMPUTATIONAL-4":
		return Comp4
	case text == "COMP-5", text == "COMPUTATIONAL-5":
		return Comp5
	case strings.HasPrefix(text, "COMP"):
		return Comp
	case text == "BINARY":
		return Binary
	case text == "PACKED-DECIMAL":
		return PackedDecimal
	case text == "POINTER":
		return Pointer
	case text == "INDEX":
		return Index
	default:
		return Display
	}
}

// CalculateLength computes the display-position length of a PIC pattern.
func CalculateLength(pattern string) int {
	length := 0
	upper := strings.ToUpper(pattern)
	for _, m := range picCharPattern.FindAllStringSubmatch(upper, -1) {
		char := m[1]
		count := 1
		if m[2] != "" {
			count, _ = strconv.Atoi(m[2])
		}
		switch char {
		case "X", "A", "9", "Z", "B", "-", "+", ".", "*", "/":
			length += count
		case "S", "V", "P":
			// no display position
		}
	}
	return length
}

// DetermineType classifies the primary type of a PIC pattern.
func DetermineType(pattern string) Type {
	upper := strings.ToUpper(pattern)
	hasX := strings.Contains(upper, "X")
	hasA := strings.Contains(upper, "A")
	has9 := strings.Contains(upper, "9")
	hasS := strings.Contains(upper, "S")
	hasV := strings.Contains(upper, "V")
	hasEdit := strings.ContainsAny(upper, "ZB-+*/")

	switch {
	case hasEdit:
		return EditedNumeric
	case hasX && !has9:
		return Alphanumeric
	case hasA && !has9 && !hasX:
		return Alphabetic
	case hasS && has9:
		return Signed
	case hasV:
		return Decimal
	case has9:
		return Numeric
	default:
		return Mixed
	}
}

// ProtectedRanges returns every PIC and USAGE clause byte range in line,
// sorted by start position, so the transformer can skip over them.
func ProtectedRanges(line string) [][2]int {
	var ranges [][2]int
	for _, c := range FindClauses(line) {
		ranges = append(ranges, [2]int{c.Start, c.End})
	}
	for _, c := range FindUsageClauses(line) {
		ranges = append(ranges, [2]int{c.Start, c.End})
	}
	for i := 1; i < len(ranges); i++ {
		for j := i; j > 0 && ranges[j-1][0] > ranges[j][0]; j-- {
			ranges[j-1], ranges[j] = ranges[j], ranges[j-1]
		}
	}
	return ranges
}

// IsProtected reports whether position falls within a PIC or USAGE clause.
func IsProtected(line string, position int) bool {
	for _, r := range ProtectedRanges(line) {
		if position >= r[0] && position < r[1] {
			return true
		}
	}
	return false
}

// HasValueClause reports whether line contains a VALUE clause.
func HasValueClause(line string) bool { return valuePattern.MatchString(line) }

// HasRedefinesClause reports whether line contains a REDEFINES clause.
func HasRedefinesClause(line string) bool { return redefinesPattern.MatchString(line) }

// HasOccursClause reports whether line contains an OCCURS clause.
func HasOccursClause(line string) bool { return occursPattern.MatchString(line) }

// HasExternalClause reports whether line contains an EXTERNAL clause.
func HasExternalClause(line string) bool { return externalPattern.MatchString(line) }

// HasGlobalClause reports whether line contains a GLOBAL clause.
func HasGlobalClause(line string) bool { return globalPattern.MatchString(line) }
