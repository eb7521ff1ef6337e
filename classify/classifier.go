// Package classify assigns a role to each identifier encountered while
// scanning a COBOL source file: program name, copybook name, section or
// paragraph name, data name, 88-level condition name, file name, index
// name, or EXTERNAL data name. Classification is context-sensitive: the
// same bare token can be a data name in one line and a procedural reference
// in another depending on which division, section, and level the scanner
// currently sits inside.
package classify

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ha1tch/cobolanon/lexer"
	"github.com/ha1tch/cobolanon/pic"
	"github.com/ha1tch/cobolanon/token"
)

// Role is the classification assigned to an identifier occurrence.
type Role int

const (
	RoleUnknown Role = iota
	RoleProgramName
	RoleCopybookName
	RoleSectionName
	RoleParagraphName
	RoleDataName
	RoleConditionName
	RoleFileName
	RoleIndexName
	RoleExternalName
)

func (r Role) String() string {
	switch r {
	case RoleProgramName:
		return "PROGRAM_NAME"
	case RoleCopybookName:
		return "COPYBOOK_NAME"
	case RoleSectionName:
		return "SECTION_NAME"
	case RoleParagraphName:
		return "PARAGRAPH_NAME"
	case RoleDataName:
		return "DATA_NAME"
	case RoleConditionName:
		return "CONDITION_NAME"
	case RoleFileName:
		return "FILE_NAME"
	case RoleIndexName:
		return "INDEX_NAME"
	case RoleExternalName:
		return "EXTERNAL_NAME"
	default:
		return "UNKNOWN"
	}
}

// RoleFromString parses a Role's String() form back into a Role, returning
// RoleUnknown for anything it doesn't recognize.
func RoleFromString(s string) Role {
	switch s {
	case "PROGRAM_NAME":
		return RoleProgramName
	case "COPYBOOK_NAME":
		return RoleCopybookName
	case "SECTION_NAME":
		return RoleSectionName
	case "PARAGRAPH_NAME":
		return RoleParagraphName
	case "DATA_NAME":
		return RoleDataName
	case "CONDITION_NAME":
		return RoleConditionName
	case "FILE_NAME":
		return RoleFileName
	case "INDEX_NAME":
		return RoleIndexName
	case "EXTERNAL_NAME":
		return RoleExternalName
	default:
		return RoleUnknown
	}
}

// Division is one of the four COBOL divisions, or None before the first
// division header has been seen.
type Division string

const (
	DivisionIdentification Division = "IDENTIFICATION"
	DivisionEnvironment     Division = "ENVIRONMENT"
	DivisionData            Division = "DATA"
	DivisionProcedure       Division = "PROCEDURE"
	DivisionNone            Division = "NONE"
)

// DataSection is one of the DATA DIVISION's named sections.
type DataSection string

const (
	SectionFile           DataSection = "FILE"
	SectionWorkingStorage DataSection = "WORKING-STORAGE"
	SectionLocalStorage   DataSection = "LOCAL-STORAGE"
	SectionLinkage        DataSection = "LINKAGE"
	SectionScreen         DataSection = "SCREEN"
	SectionReport         DataSection = "REPORT"
	SectionNone           DataSection = "NONE"
)

// Identifier is an identifier occurrence with its classification.
type Identifier struct {
	Name         string
	Role         Role
	LineNumber   int
	Context      string
	IsDefinition bool
	IsExternal   bool
	LevelNumber  int
	ParentName   string
}

type levelEntry struct {
	level int
	name  string
}

// fileContext tracks the division/section/level state needed to classify
// the next identifier correctly.
type fileContext struct {
	division        Division
	section         DataSection
	inProcedure     bool
	levelStack      []levelEntry
	isExternalBlock bool
	lastParagraph   string
	lastSection     string
	currentFDName   string
}

func (c *fileContext) enterDivision(d Division) {
	c.division = d
	c.section = SectionNone
	c.inProcedure = d == DivisionProcedure
	if d != DivisionData {
		c.levelStack = nil
		c.isExternalBlock = false
	}
}

func (c *fileContext) enterSection(s DataSection) {
	c.section = s
	c.levelStack = nil
	c.isExternalBlock = false
}

func (c *fileContext) pushLevel(level int, name string) {
	for len(c.levelStack) > 0 && c.levelStack[len(c.levelStack)-1].level >= level {
		c.levelStack = c.levelStack[:len(c.levelStack)-1]
	}
	c.levelStack = append(c.levelStack, levelEntry{level, name})
}

func (c *fileContext) parentName() string {
	if len(c.levelStack) >= 2 {
		return c.levelStack[len(c.levelStack)-2].name
	}
	return ""
}

var (
	sectionHeaderPattern = regexp.MustCompile(`\bSECTION\s*\.`)
	fdSdPattern          = regexp.MustCompile(`^\s*(FD|SD)\s+`)
	copyStatementPattern = regexp.MustCompile(`\bCOPY\s+`)
)

// Classifier holds the running state for classifying every line of one
// source file.
type Classifier struct {
	Filename        string
	context         fileContext
	identifiers     []Identifier
	seenDefinitions map[string]bool
}

// New creates a Classifier for filename.
func New(filename string) *Classifier {
	return &Classifier{
		Filename:        filename,
		seenDefinitions: make(map[string]bool),
	}
}

// ClassifyLine classifies every identifier occurrence on a single code-area
// line and accumulates them onto the Classifier's running state. Comment
// lines contribute nothing.
func (c *Classifier) ClassifyLine(line string, lineNumber int, isComment bool) []Identifier {
	if isComment {
		return nil
	}

	upperLine := strings.ToUpper(line)
	c.updateContext(upperLine)

	isExternal := pic.HasExternalClause(line)
	if isExternal {
		c.context.isExternalBlock = true
	}

	l := lexer.New(line, lineNumber)
	tokens := l.Tokenize()

	var classified []Identifier

	switch {
	case strings.Contains(upperLine, "PROGRAM-ID"):
		if id, ok := c.classifyProgramID(tokens, lineNumber); ok {
			classified = append(classified, id)
		}
	case copyStatementPattern.MatchString(upperLine):
		if id, ok := c.classifyCopyStatement(tokens, lineNumber); ok {
			classified = append(classified, id)
		}
	case fdSdPattern.MatchString(upperLine):
		if id, ok := c.classifyFDDeclaration(tokens, lineNumber); ok {
			classified = append(classified, id)
		}
	case c.context.inProcedure && sectionHeaderPattern.MatchString(upperLine):
		if id, ok := c.classifySectionHeader(tokens, lineNumber); ok {
			classified = append(classified, id)
		}
	case c.context.inProcedure && isParagraphDefinition(tokens, upperLine):
		if id, ok := c.classifyParagraph(tokens, lineNumber); ok {
			classified = append(classified, id)
		}
	case lexer.IsDataDefinitionLine(tokens):
		classified = append(classified, c.classifyDataDefinition(tokens, lineNumber, isExternal)...)
	default:
		classified = append(classified, c.classifyReferences(tokens, lineNumber)...)
	}

	c.identifiers = append(c.identifiers, classified...)
	return classified
}

func (c *Classifier) updateContext(upperLine string) {
	switch {
	case strings.Contains(upperLine, "IDENTIFICATION DIVISION"):
		c.context.enterDivision(DivisionIdentification)
	case strings.Contains(upperLine, "ENVIRONMENT DIVISION"):
		c.context.enterDivision(DivisionEnvironment)
	case strings.Contains(upperLine, "DATA DIVISION"):
		c.context.enterDivision(DivisionData)
	case strings.Contains(upperLine, "PROCEDURE DIVISION"):
		c.context.enterDivision(DivisionProcedure)
	}

	if c.context.division == DivisionData {
		switch {
		case strings.Contains(upperLine, "FILE SECTION"):
			c.context.enterSection(SectionFile)
		case strings.Contains(upperLine, "WORKING-STORAGE SECTION"):
			c.context.enterSection(SectionWorkingStorage)
		case strings.Contains(upperLine, "LOCAL-STORAGE SECTION"):
			c.context.enterSection(SectionLocalStorage)
		case strings.Contains(upperLine, "LINKAGE SECTION"):
			c.context.enterSection(SectionLinkage)
		}
	}
}

func firstNonWhitespace(tokens []token.Token) (token.Token, bool) {
	for _, t := range tokens {
		if t.Type != token.WHITESPACE {
			return t, true
		}
	}
	return token.Token{}, false
}

// findTokenAfterKeyword locates the first token matching expectedTypes that
// appears after a token whose upper-cased value is in keywords (or, with
// substringMatch, contains one of them).
func findTokenAfterKeyword(tokens []token.Token, keywords map[string]bool, expectedTypes map[token.Type]bool, substringMatch bool) (token.Token, bool) {
	if expectedTypes == nil {
		expectedTypes = map[token.Type]bool{token.IDENT: true, token.RESERVED: true}
	}

	foundKeyword := false
	for _, t := range tokens {
		if t.Type == token.WHITESPACE {
			continue
		}
		if foundKeyword {
			if expectedTypes[t.Type] {
				return t, true
			}
			if t.Type == token.PUNCTUATION {
				continue
			}
			return token.Token{}, false
		}
		if t.Type == token.RESERVED || t.Type == token.IDENT {
			upper := strings.ToUpper(t.Value)
			if substringMatch {
				for kw := range keywords {
					if strings.Contains(upper, kw) {
						foundKeyword = true
						break
					}
				}
			} else if keywords[upper] {
				foundKeyword = true
			}
		}
	}
	return token.Token{}, false
}

func (c *Classifier) classifyProgramID(tokens []token.Token, lineNumber int) (Identifier, bool) {
	t, ok := findTokenAfterKeyword(tokens, map[string]bool{"PROGRAM-ID": true}, nil, true)
	if !ok {
		return Identifier{}, false
	}
	c.seenDefinitions[strings.ToUpper(t.Value)] = true
	return Identifier{
		Name:         t.Value,
		Role:         RoleProgramName,
		LineNumber:   lineNumber,
		Context:      "PROGRAM-ID declaration",
		IsDefinition: true,
	}, true
}

func (c *Classifier) classifyCopyStatement(tokens []token.Token, lineNumber int) (Identifier, bool) {
	t, ok := findTokenAfterKeyword(tokens, map[string]bool{"COPY": true}, nil, false)
	if !ok {
		return Identifier{}, false
	}
	return Identifier{
		Name:       t.Value,
		Role:       RoleCopybookName,
		LineNumber: lineNumber,
		Context:    "COPY statement",
	}, true
}

func (c *Classifier) classifyFDDeclaration(tokens []token.Token, lineNumber int) (Identifier, bool) {
	t, ok := findTokenAfterKeyword(tokens, map[string]bool{"FD": true, "SD": true}, map[token.Type]bool{token.IDENT: true}, false)
	if !ok {
		return Identifier{}, false
	}
	c.context.currentFDName = t.Value
	c.seenDefinitions[strings.ToUpper(t.Value)] = true
	return Identifier{
		Name:         t.Value,
		Role:         RoleFileName,
		LineNumber:   lineNumber,
		Context:      "FD/SD declaration",
		IsDefinition: true,
	}, true
}

func (c *Classifier) classifySectionHeader(tokens []token.Token, lineNumber int) (Identifier, bool) {
	t, ok := firstNonWhitespace(tokens)
	if !ok || t.Type != token.IDENT {
		return Identifier{}, false
	}
	c.context.lastSection = t.Value
	c.seenDefinitions[strings.ToUpper(t.Value)] = true
	return Identifier{
		Name:         t.Value,
		Role:         RoleSectionName,
		LineNumber:   lineNumber,
		Context:      "PROCEDURE DIVISION section",
		IsDefinition: true,
	}, true
}

func isParagraphDefinition(tokens []token.Token, upperLine string) bool {
	stripped := strings.TrimSpace(upperLine)
	if stripped == "" {
		return false
	}
	for _, t := range tokens {
		if t.Type == token.WHITESPACE {
			continue
		}
		if t.Type == token.IDENT {
			remaining := strings.TrimSpace(stripped[minInt(len(t.Value), len(stripped)):])
			return remaining == "." || remaining == ""
		}
		return false
	}
	return false
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func (c *Classifier) classifyParagraph(tokens []token.Token, lineNumber int) (Identifier, bool) {
	t, ok := firstNonWhitespace(tokens)
	if !ok || t.Type != token.IDENT {
		return Identifier{}, false
	}
	c.context.lastParagraph = t.Value
	c.seenDefinitions[strings.ToUpper(t.Value)] = true
	return Identifier{
		Name:         t.Value,
		Role:         RoleParagraphName,
		LineNumber:   lineNumber,
		Context:      "PROCEDURE DIVISION paragraph",
		IsDefinition: true,
	}, true
}

func (c *Classifier) classifyDataDefinition(tokens []token.Token, lineNumber int, isExternal bool) []Identifier {
	var classified []Identifier

	level := -1
	var dataName string
	inIndexedBy := false

	for i, t := range tokens {
		switch t.Type {
		case token.LEVEL_NUMBER:
			level, _ = strconv.Atoi(t.Value)

		case token.IDENT:
			if dataName == "" && !inIndexedBy {
				dataName = t.Value

				var role Role
				switch {
				case level == 88:
					role = RoleConditionName
				case isExternal || c.context.isExternalBlock:
					role = RoleExternalName
				default:
					role = RoleDataName
				}

				if level > 0 && level != 88 {
					c.context.pushLevel(level, dataName)
				}

				c.seenDefinitions[strings.ToUpper(dataName)] = true
				classified = append(classified, Identifier{
					Name:         dataName,
					Role:         role,
					LineNumber:   lineNumber,
					Context:      "Level " + strconv.Itoa(level) + " data item",
					IsDefinition: true,
					IsExternal:   isExternal,
					LevelNumber:  level,
					ParentName:   c.context.parentName(),
				})
			} else if inIndexedBy {
				c.seenDefinitions[strings.ToUpper(t.Value)] = true
				classified = append(classified, Identifier{
					Name:         t.Value,
					Role:         RoleIndexName,
					LineNumber:   lineNumber,
					Context:      "INDEXED BY",
					IsDefinition: true,
				})
			}

		case token.RESERVED:
			if strings.ToUpper(t.Value) == "INDEXED" {
				for j := i + 1; j < len(tokens); j++ {
					if tokens[j].Type == token.WHITESPACE {
						continue
					}
					if tokens[j].Type == token.RESERVED && strings.ToUpper(tokens[j].Value) == "BY" {
						inIndexedBy = true
					}
					break
				}
			}
		}
	}

	return classified
}

func (c *Classifier) classifyReferences(tokens []token.Token, lineNumber int) []Identifier {
	var classified []Identifier
	for _, t := range tokens {
		if t.Type != token.IDENT {
			continue
		}
		if token.IsReservedWord(t.Value) || token.IsSystemIdentifier(t.Value) {
			continue
		}

		role := RoleUnknown
		if c.seenDefinitions[strings.ToUpper(t.Value)] {
			role = RoleDataName
		}

		classified = append(classified, Identifier{
			Name:       t.Value,
			Role:       role,
			LineNumber: lineNumber,
			Context:    "Reference",
		})
	}
	return classified
}

// AllIdentifiers returns every identifier occurrence classified so far.
func (c *Classifier) AllIdentifiers() []Identifier { return c.identifiers }

// Definitions returns only the defining occurrences.
func (c *Classifier) Definitions() []Identifier {
	var out []Identifier
	for _, id := range c.identifiers {
		if id.IsDefinition {
			out = append(out, id)
		}
	}
	return out
}

// ExternalIdentifiers returns every identifier marked EXTERNAL.
func (c *Classifier) ExternalIdentifiers() []Identifier {
	var out []Identifier
	for _, id := range c.identifiers {
		if id.IsExternal || id.Role == RoleExternalName {
			out = append(out, id)
		}
	}
	return out
}

// ByRole filters the classified identifiers down to one role.
func (c *Classifier) ByRole(role Role) []Identifier {
	var out []Identifier
	for _, id := range c.identifiers {
		if id.Role == role {
			out = append(out, id)
		}
	}
	return out
}
