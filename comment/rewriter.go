// Package comment anonymizes the free-text content of COBOL comment
// lines: translating Italian business vocabulary to English, scrubbing
// personal names and system ticket identifiers, and optionally stripping
// comment bodies outright while preserving structural divider lines.
package comment

import (
	"fmt"
	"regexp"
	"strings"
)

// Mode selects how comment bodies are handled.
type Mode string

const (
	ModeAnonymize Mode = "anonymize"
	ModeStrip     Mode = "strip"
	ModePreserve  Mode = "preserve"
)

// Config controls comment transformation.
type Config struct {
	Mode                    Mode
	RemovePersonalNames     bool
	RemoveSystemIDs         bool
	TranslateItalian        bool
	PreserveStructural      bool
	PreserveDividers        bool
}

// DefaultConfig returns the default comment-handling configuration:
// anonymize mode with every scrubbing pass enabled and dividers preserved.
func DefaultConfig() Config {
	return Config{
		Mode:                ModeAnonymize,
		RemovePersonalNames: true,
		RemoveSystemIDs:     true,
		TranslateItalian:    true,
		PreserveStructural:  true,
		PreserveDividers:    true,
	}
}

// italianTerms maps Italian business vocabulary to its English
// replacement. Ordered pairs (not a map) so translation always proceeds
// longest-term-first, the way the source material requires to avoid
// partial replacements inside longer terms.
var italianTerms = buildItalianTerms()

type termPair struct{ italian, english string }

func buildItalianTerms() []termPair {
	raw := map[string]string{
		"POLIZZA": "POLICY", "CONTRATTO": "CONTRACT", "ASSICURATO": "INSURED",
		"BENEFICIARIO": "BENEFICIARY", "PREMIO": "PREMIUM", "SINISTRO": "CLAIM",
		"DENUNCIA": "REPORT", "RISCHIO": "RISK", "COPERTURA": "COVERAGE",
		"GARANZIA": "WARRANTY", "QUIETANZA": "RECEIPT", "SCADENZA": "EXPIRY",
		"RINNOVO": "RENEWAL", "DISDETTA": "CANCELLATION", "RECESSO": "WITHDRAWAL",
		"LIQUIDAZIONE": "SETTLEMENT", "INDENNIZZO": "COMPENSATION", "FRANCHIGIA": "DEDUCTIBLE",
		"MASSIMALE": "MAXIMUM", "CAPITALE": "CAPITAL",
		"CLIENTE": "CLIENT", "AGENZIA": "AGENCY", "AGENTE": "AGENT",
		"PRODUTTORE": "PRODUCER", "INTESTATARIO": "HOLDER", "CONTRAENTE": "CONTRACTOR",
		"TITOLARE": "OWNER", "ANAGRAFICA": "REGISTRY", "PORTAFOGLIO": "PORTFOLIO",
		"SISTEMA": "SYSTEM", "PROCEDURA": "PROCEDURE", "PROGRAMMA": "PROGRAM",
		"MODULO": "MODULE", "FUNZIONE": "FUNCTION", "ROUTINE": "ROUTINE",
		"ELABORAZIONE": "PROCESSING", "CALCOLO": "CALCULATION", "VERIFICA": "VERIFICATION",
		"CONTROLLO": "CONTROL", "GESTIONE": "MANAGEMENT",
		"DATA": "DATE", "GIORNO": "DAY", "MESE": "MONTH", "ANNO": "YEAR",
		"DECORRENZA": "START-DATE", "EFFETTO": "EFFECT",
		"NUMERO": "NUMBER", "CODICE": "CODE", "TIPO": "TYPE", "STATO": "STATUS",
		"IMPORTO": "AMOUNT", "VALORE": "VALUE", "TOTALE": "TOTAL", "ERRORE": "ERROR",
		"MESSAGGIO": "MESSAGE", "RISPOSTA": "RESPONSE", "RICHIESTA": "REQUEST",
		"RISULTATO": "RESULT", "ESITO": "OUTCOME", "INIZIO": "START", "FINE": "END",
		"PRINCIPALE": "MAIN", "SECONDARIO": "SECONDARY", "PRECEDENTE": "PREVIOUS",
		"SUCCESSIVO": "NEXT", "NUOVO": "NEW", "VECCHIO": "OLD", "ATTIVO": "ACTIVE",
		"INATTIVO": "INACTIVE", "VALIDO": "VALID", "INVALIDO": "INVALID",
		"AREA": "AREA", "CAMPO": "FIELD", "RECORD": "RECORD", "TABELLA": "TABLE",
		"CHIAVE": "KEY", "INDICE": "INDEX", "CONTATORE": "COUNTER", "FLAG": "FLAG",
		"INDICATORE": "INDICATOR", "DESCRIZIONE": "DESCRIPTION", "LUNGHEZZA": "LENGTH",
		"POSIZIONE": "POSITION", "FORMATO": "FORMAT", "SEZIONE": "SECTION",
		"DIVISIONE": "DIVISION", "PARAGRAFO": "PARAGRAPH", "RIGA": "LINE",
		"COLONNA": "COLUMN", "CARATTERE": "CHARACTER", "STRINGA": "STRING",
		"NUMERICO": "NUMERIC", "ALFABETICO": "ALPHABETIC",
	}
	pairs := make([]termPair, 0, len(raw))
	for it, en := range raw {
		pairs = append(pairs, termPair{italian: it, english: en})
	}
	sortTermsByLengthDesc(pairs)
	return pairs
}

func sortTermsByLengthDesc(pairs []termPair) {
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && len(pairs[j-1].italian) < len(pairs[j].italian); j-- {
			pairs[j-1], pairs[j] = pairs[j], pairs[j-1]
		}
	}
}

// personalNames is the ordered list of Italian personal names this package
// scrubs from comment text. Order is significant: names are replaced in
// this fixed sequence so repeated runs over the same input assign the same
// USERnnn placeholder to the same name.
var personalNames = []string{
	"MASON", "LUPO", "ROSSI", "BIANCHI", "FERRARI", "RUSSO",
	"ESPOSITO", "ROMANO", "COLOMBO", "RICCI", "MARINO", "GRECO",
	"BRUNO", "GALLO", "CONTI", "LEONE", "COSTA", "GIORDANO",
	"MANCINI", "RIZZO", "LOMBARDI", "MORETTI", "BARBIERI",
	"FONTANA", "SANTORO", "CARUSO", "MARIANI", "RINALDI",
	"MARCO", "LUCA", "ANDREA", "FRANCESCO", "GIUSEPPE",
	"GIOVANNI", "ANTONIO", "LUIGI", "MARIO", "PAOLO",
	"MARIA", "ANNA", "GIULIA", "SARA", "LAURA", "ELENA",
	"FRANCESCA", "CHIARA", "SILVIA", "VALENTINA",
}

var systemIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bCRQ\d{9,15}\b`),
	regexp.MustCompile(`\bINC\d{9,15}\b`),
	regexp.MustCompile(`\bCHG\d{9,15}\b`),
	regexp.MustCompile(`\bPRB\d{9,15}\b`),
	regexp.MustCompile(`\bREQ\d{9,15}\b`),
	regexp.MustCompile(`\bSR\d{9,15}\b`),
	regexp.MustCompile(`\b\d{2}/\d{2}/\d{4}\b`),
	regexp.MustCompile(`\b\d{4}/\d{2}/\d{2}\b`),
	regexp.MustCompile(`\b\d{2}-\d{2}-\d{4}\b`),
	regexp.MustCompile(`\b\d{8}\b`),
}

// IsCommentLine reports whether line is a COBOL comment: column 7 (index
// 6) holds an asterisk.
func IsCommentLine(line string) bool {
	return len(line) >= 7 && line[6] == '*'
}

// IsDividerLine reports whether commentText is a structural divider (a run
// of dashes, asterisks, equals signs, or similar) rather than prose.
func IsDividerLine(commentText string) bool {
	text := strings.TrimSpace(commentText)
	if text == "" {
		return true
	}

	alnumCount := 0
	for _, c := range text {
		if isAlnumRune(c) {
			alnumCount++
		}
	}
	if alnumCount <= 2 && len(text) >= 3 {
		return true
	}

	if len(uniqueRunes(text)) <= 3 && len(text) >= 5 {
		allDividerChars := true
		for _, c := range text {
			if !strings.ContainsRune("-*=+#_|/", c) {
				allDividerChars = false
				break
			}
		}
		if allDividerChars {
			return true
		}
	}
	return false
}

func isAlnumRune(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func uniqueRunes(s string) map[rune]bool {
	set := make(map[rune]bool)
	for _, c := range s {
		set[c] = true
	}
	return set
}

// Change records a single text substitution made while transforming a
// comment.
type Change struct {
	From string
	To   string
}

// RemovePersonalNames scrubs every known personal name from text, in the
// fixed order of personalNames, replacing each first occurrence type with
// a sequential USERnnn placeholder.
func RemovePersonalNames(text string, startCounter int) (string, []Change) {
	result := text
	counter := startCounter
	var changes []Change

	for _, name := range personalNames {
		pattern := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
		if pattern.MatchString(result) {
			replacement := fmt.Sprintf("USER%03d", counter)
			result = pattern.ReplaceAllString(result, replacement)
			changes = append(changes, Change{From: name, To: replacement})
			counter++
		}
	}
	return result, changes
}

// RemoveSystemIDs scrubs ticket/change/request numbers and date-shaped
// tokens from text, replacing each with a fixed-width placeholder.
func RemoveSystemIDs(text string) (string, []Change) {
	result := text
	var changes []Change

	for _, pattern := range systemIDPatterns {
		for _, match := range pattern.FindAllString(result, -1) {
			if len(match) >= 8 {
				result = strings.Replace(result, match, "XXXXXXXX", 1)
				changes = append(changes, Change{From: match, To: "XXXXXXXX"})
			}
		}
	}
	return result, changes
}

// TranslateItalianTerms replaces Italian business vocabulary in text with
// its English equivalent, longest terms first.
func TranslateItalianTerms(text string) (string, []Change) {
	result := text
	var changes []Change

	for _, pair := range italianTerms {
		pattern := regexp.MustCompile(`(?i)\b` + pair.italian + `\b`)
		if pattern.MatchString(result) {
			result = pattern.ReplaceAllString(result, pair.english)
			changes = append(changes, Change{From: pair.italian, To: pair.english})
		}
	}
	return result, changes
}

// StripComment returns an empty string for commentText, unless it is a
// divider line and preserveDividers is true.
func StripComment(commentText string, preserveDividers bool) string {
	if preserveDividers && IsDividerLine(commentText) {
		return commentText
	}
	return ""
}

// TransformResult describes how a single comment body was transformed.
type TransformResult struct {
	OriginalText    string
	TransformedText string
	IsDivider       bool
	IsStripped      bool
	ChangesMade     []Change
}

// Transformer applies a Config to successive comment bodies, tracking a
// running counter so personal-name placeholders stay unique across an
// entire file.
type Transformer struct {
	config       Config
	nameCounter  int
}

// NewTransformer creates a Transformer using config.
func NewTransformer(config Config) *Transformer {
	return &Transformer{config: config}
}

// TransformComment applies t's configuration to a single comment body
// (the text after column 7).
func (t *Transformer) TransformComment(commentText string) TransformResult {
	result := TransformResult{OriginalText: commentText, TransformedText: commentText}

	if IsDividerLine(commentText) {
		result.IsDivider = true
		if t.config.PreserveDividers {
			return result
		}
	}

	switch t.config.Mode {
	case ModePreserve:
		return result
	case ModeStrip:
		if t.config.PreserveDividers && result.IsDivider {
			return result
		}
		result.TransformedText = ""
		result.IsStripped = true
		return result
	}

	transformed := commentText
	var allChanges []Change

	if t.config.RemoveSystemIDs {
		var changes []Change
		transformed, changes = RemoveSystemIDs(transformed)
		allChanges = append(allChanges, changes...)
	}
	if t.config.RemovePersonalNames {
		var changes []Change
		transformed, changes = RemovePersonalNames(transformed, t.nameCounter)
		allChanges = append(allChanges, changes...)
		t.nameCounter += len(changes)
	}
	if t.config.TranslateItalian {
		var changes []Change
		transformed, changes = TranslateItalianTerms(transformed)
		allChanges = append(allChanges, changes...)
	}

	result.TransformedText = transformed
	result.ChangesMade = allChanges
	return result
}

// TransformLine transforms an entire COBOL source line if it is a
// comment, returning the rebuilt line and the transformation detail. Lines
// that are not comments pass through unchanged.
func (t *Transformer) TransformLine(line string) (string, TransformResult) {
	if !IsCommentLine(line) {
		return line, TransformResult{}
	}

	prefix := line[:7]
	commentText := ""
	if len(line) > 7 {
		commentText = line[7:]
	}

	result := t.TransformComment(commentText)

	if result.IsStripped && !result.IsDivider {
		return prefix, result
	}
	return prefix + result.TransformedText, result
}

// Reset clears the transformer's running personal-name counter.
func (t *Transformer) Reset() {
	t.nameCounter = 0
}

// DetectCommentLines returns the 1-based line numbers of every comment
// line in lines.
func DetectCommentLines(lines []string) []int {
	var out []int
	for i, line := range lines {
		if IsCommentLine(line) {
			out = append(out, i+1)
		}
	}
	return out
}

// Statistics summarizes comment density in a file.
type Statistics struct {
	TotalLines        int
	CommentLines      int
	DividerLines      int
	ContentComments   int
	CommentPercentage float64
}

// GetStatistics computes comment-line counts and the divider/content split
// over lines.
func GetStatistics(lines []string) Statistics {
	stats := Statistics{TotalLines: len(lines)}
	for _, line := range lines {
		if !IsCommentLine(line) {
			continue
		}
		stats.CommentLines++
		text := ""
		if len(line) > 7 {
			text = line[7:]
		}
		if IsDividerLine(text) {
			stats.DividerLines++
		}
	}
	stats.ContentComments = stats.CommentLines - stats.DividerLines

	denom := len(lines)
	if denom == 0 {
		denom = 1
	}
	stats.CommentPercentage = roundTo1(100 * float64(stats.CommentLines) / float64(denom))
	return stats
}

func roundTo1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
