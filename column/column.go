// Package column implements fixed-format COBOL column-layout handling:
// splitting a physical source line into its sequence area, indicator,
// Area A, Area B, and identification area, and reassembling a (possibly
// length-changed) code area back into a physical line.
package column

import (
	"strings"

	"github.com/pkg/errors"
)

// Column boundaries for fixed-format (columns 1-80) COBOL source, expressed
// as zero-based byte offsets.
const (
	SequenceStart = 0
	SequenceEnd   = 6
	IndicatorCol  = 6
	AreaAStart    = 7
	AreaAEnd      = 11
	AreaBStart    = 11
	CodeEnd       = 72
	IDAreaStart   = 72
	MaxLineLength = 80

	// MaxCodeAreaLength is the number of bytes available to code between
	// Area A and the end of Area B (columns 8-72 inclusive).
	MaxCodeAreaLength = CodeEnd - AreaAStart
)

// changeTags lists the maintenance change tags that several upstream shops
// write into the sequence area to mark lines a maintenance pass has touched.
// IsChangeTag recognizes them; no other package in this module inserts or
// checks them.
var changeTags = map[string]bool{
	"BENIQ": true, "CDR": true, "DM2724": true, "REPLAT": true,
	"CHG": true, "FIX": true, "MOD": true,
}

// IsChangeTag reports whether tag is a recognized maintenance change tag.
func IsChangeTag(tag string) bool {
	return changeTags[strings.ToUpper(tag)]
}

// Format distinguishes fixed-format COBOL (strict column layout) from
// free-format COBOL (no column discipline, code can start anywhere).
type Format int

const (
	Fixed Format = iota
	Free
)

func (f Format) String() string {
	if f == Free {
		return "free"
	}
	return "fixed"
}

// Indicator is the content of column 7.
type Indicator byte

const (
	IndicatorNone       Indicator = ' '
	IndicatorComment    Indicator = '*'
	IndicatorContinue   Indicator = '-'
	IndicatorDebug      Indicator = 'D'
	IndicatorDebugLower Indicator = 'd'
	IndicatorDebugSlash Indicator = '/'
)

// Line is a single physical COBOL source line split into its fixed-format
// areas. CodeArea is the trimmed-of-trailing-space slice of Area A + Area B
// that lexing and transformation operate on. Terminator is the exact line
// ending the line carried in its source file ("\n", "\r\n", "\r", or "" for
// a final line with no trailing terminator at all), so a file can be
// reassembled byte-for-byte after transformation.
type Line struct {
	Raw            string
	Number         int
	Format         Format
	SequenceArea   string
	Indicator      byte
	AreaA          string
	AreaB          string
	Identification string
	CodeArea       string
	Terminator     string
}

// Split divides a raw physical line into its fixed-format column areas. For
// Free format, CodeArea is the line with trailing whitespace trimmed and the
// other areas are left empty. raw must not include its line terminator;
// terminator carries it separately so it can be reproduced on output.
func Split(raw string, lineNumber int, format Format, terminator string) Line {
	if format == Free {
		return Line{
			Raw:        raw,
			Number:     lineNumber,
			Format:     Free,
			CodeArea:   strings.TrimRight(raw, " \t"),
			Terminator: terminator,
		}
	}

	padded := raw
	if len(padded) < MaxLineLength {
		padded = padded + strings.Repeat(" ", MaxLineLength-len(padded))
	}

	seq := padded[SequenceStart:SequenceEnd]
	ind := padded[IndicatorCol]
	areaA := padded[AreaAStart:AreaAEnd]
	areaB := padded[AreaBStart:CodeEnd]
	ident := padded[IDAreaStart:]
	if len(raw) < IDAreaStart {
		ident = ""
	} else if len(raw) < MaxLineLength {
		ident = raw[IDAreaStart:]
	}

	code := areaA + areaB
	end := len(code)
	for end > 0 && code[end-1] == ' ' {
		end--
	}
	code = code[:end]

	return Line{
		Raw:            raw,
		Number:         lineNumber,
		Format:         Fixed,
		SequenceArea:   seq,
		Indicator:      ind,
		AreaA:          areaA,
		AreaB:          areaB,
		Identification: ident,
		CodeArea:       code,
		Terminator:     terminator,
	}
}

// IsComment reports whether the line is a full-line comment (indicator '*'
// or '/').
func (l Line) IsComment() bool {
	return l.Format == Fixed && (l.Indicator == byte(IndicatorComment) || l.Indicator == byte(IndicatorDebugSlash))
}

// IsDebugLine reports whether the line carries a 'D'/'d' debugging
// indicator.
func (l Line) IsDebugLine() bool {
	return l.Format == Fixed && (l.Indicator == byte(IndicatorDebug) || l.Indicator == byte(IndicatorDebugLower))
}

// IsContinuation reports whether the line continues a literal from the
// previous line ('-' indicator).
func (l Line) IsContinuation() bool {
	return l.Format == Fixed && l.Indicator == byte(IndicatorContinue)
}

// IsBlank reports whether the code area is entirely whitespace.
func (l Line) IsBlank() bool {
	return strings.TrimSpace(l.CodeArea) == ""
}

// ValidateCodeArea checks that code does not exceed MaxCodeAreaLength bytes,
// returning an *OverflowError describing the overflow when it does.
func ValidateCodeArea(file string, lineNumber int, code string) error {
	if len(code) > MaxCodeAreaLength {
		return &OverflowError{
			File:         file,
			Line:         lineNumber,
			ActualLength: len(code),
			MaxLength:    MaxCodeAreaLength,
		}
	}
	return nil
}

// OverflowError reports that a line's code area would exceed column 72.
type OverflowError struct {
	File         string
	Line         int
	ActualLength int
	MaxLength    int
}

func (e *OverflowError) Error() string {
	return errors.Errorf("%s:%d: code area exceeds column 72 (%d > %d chars)",
		e.File, e.Line, e.ActualLength, e.MaxLength).Error()
}

// Rebuild reassembles a fixed-format physical line from its areas, padding
// code back out to the code-area width and preserving the sequence area,
// indicator, and identification area unchanged. Trailing spaces are then
// trimmed and the line is padded back with spaces to the original line's
// length, so trailing padding the source line carried is kept. For Free
// format it simply returns code.
func Rebuild(l Line, code string) string {
	if l.Format == Free {
		return code
	}

	out := make([]byte, 0, MaxLineLength)
	out = append(out, l.SequenceArea...)
	out = append(out, l.Indicator)

	body := code
	if len(body) < MaxCodeAreaLength {
		body = body + strings.Repeat(" ", MaxCodeAreaLength-len(body))
	}
	out = append(out, body...)

	if l.Identification != "" {
		out = append(out, l.Identification...)
	}

	rebuilt := strings.TrimRight(string(out), " ")
	if len(rebuilt) < len(l.Raw) {
		rebuilt += strings.Repeat(" ", len(l.Raw)-len(rebuilt))
	}
	return rebuilt
}

// DetectFormat applies a heuristic over the first few non-blank lines of a
// source file to decide whether it is Fixed or Free format: fixed-format
// COBOL almost always carries either digits or blanks in the sequence area
// (columns 1-6), while free-format source routinely has code-looking
// content (letters, hyphens, asterisks used as in-line comments) starting
// in column 1.
func DetectFormat(lines []string) Format {
	checked := 0
	fixedVotes := 0
	freeVotes := 0

	for _, raw := range lines {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if checked >= 20 {
			break
		}
		checked++

		seq := raw
		if len(seq) > SequenceEnd {
			seq = seq[:SequenceEnd]
		}

		if looksLikeSequenceArea(seq) {
			fixedVotes++
		} else {
			freeVotes++
		}
	}

	if checked == 0 || freeVotes > fixedVotes {
		if checked == 0 {
			return Fixed
		}
		return Free
	}
	return Fixed
}

func looksLikeSequenceArea(seq string) bool {
	if strings.TrimSpace(seq) == "" {
		return true
	}
	for _, r := range seq {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
