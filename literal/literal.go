// Package literal anonymizes COBOL string literal contents, generating
// replacement text from a naming scheme's word list while preserving the
// exact byte length of the original literal.
package literal

import (
	"math/rand"
	"regexp"
	"strings"

	"github.com/ha1tch/cobolanon/naming"
)

// schemeWords holds the adjective/noun word lists used for literal
// anonymization. These are distinct from naming.Get's identifier word
// lists: literal content reads as prose, not hyphenated identifiers, so it
// draws from its own smaller, differently-themed vocabulary.
var schemeWords = map[naming.Scheme][2][]string{
	naming.Animals: {
		{"FLUFFY", "GRUMPY", "SNEAKY", "WOBBLY", "DIZZY", "SLEEPY", "JUMPY", "FUZZY", "CHUNKY", "SPEEDY", "MIGHTY", "CLEVER", "SWIFT", "BRAVE", "SILLY"},
		{"LLAMA", "PENGUIN", "BADGER", "OTTER", "KOALA", "WALRUS", "FERRET", "PARROT", "WOMBAT", "GIBBON", "MANTIS", "IGUANA", "FALCON", "COBRA", "SALMON"},
	},
	naming.Food: {
		{"SPICY", "CRISPY", "TANGY", "SMOKY", "ZESTY", "CHEWY", "CREAMY", "CRUNCHY", "SAVORY", "SWEET", "SALTY", "FRESH", "GRILLED", "BAKED", "FRIED"},
		{"TACO", "WAFFLE", "PICKLE", "BAGEL", "NACHO", "MUFFIN", "PRETZEL", "BRISKET", "CHURRO", "RAMEN", "DONUT", "BURGER", "PIZZA", "PASTA", "SALAD"},
	},
	naming.Fantasy: {
		{"SNEAKY", "ANCIENT", "MYSTIC", "SHADOW", "FROST", "FLAME", "STORM", "IRON", "SILVER", "GOLDEN", "DARK", "LIGHT", "WILD", "BRAVE", "WISE"},
		{"DRAGON", "GOBLIN", "WIZARD", "GRIFFIN", "PHOENIX", "TROLL", "PIXIE", "DWARF", "SPRITE", "WRAITH", "KNIGHT", "RANGER", "MAGE", "ROGUE", "CLERIC"},
	},
	naming.Corporate: {
		{"AGILE", "LEAN", "CORE", "PRIME", "SMART", "RAPID", "CLOUD", "CYBER", "DATA", "FLEX", "ULTRA", "MEGA", "SUPER", "HYPER", "TURBO"},
		{"SYNERGY", "PARADIGM", "MATRIX", "NEXUS", "VERTEX", "QUANTUM", "FUSION", "DYNAMIC", "VORTEX", "STREAM", "SUMMIT", "BRIDGE", "ALPHA", "OMEGA", "DELTA"},
	},
	naming.Numeric: {
		{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M", "N", "O"},
		{"1", "2", "3", "4", "5", "6", "7", "8", "9", "0", "X", "Y", "Z", "W", "V"},
	},
}

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Anonymizer replaces string literal content with naming-scheme words,
// preserving the exact length of the original content.
type Anonymizer struct {
	scheme     naming.Scheme
	adjectives []string
	nouns      []string
	rng        *rand.Rand
}

// NewAnonymizer creates an Anonymizer that draws words from scheme's word
// list, seeded for reproducible output. A zero seed still produces a
// deterministic (if unvaried) sequence; callers wanting true determinism
// across runs should pass a fixed, recorded seed.
func NewAnonymizer(scheme naming.Scheme, seed int64) *Anonymizer {
	words, ok := schemeWords[scheme]
	if !ok {
		words = schemeWords[naming.Animals]
	}
	return &Anonymizer{
		scheme:     scheme,
		adjectives: words[0],
		nouns:      words[1],
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// AnonymizeLiteral returns replacement text of exactly len(original) bytes,
// built from this anonymizer's word list.
func (a *Anonymizer) AnonymizeLiteral(original string) string {
	targetLength := len(original)
	if targetLength == 0 {
		return ""
	}
	if targetLength == 1 {
		return string(alphabet[a.rng.Intn(len(alphabet))])
	}

	var words []string
	currentLength := 0
	for currentLength < targetLength {
		var word string
		if len(words)%2 == 0 {
			word = a.adjectives[a.rng.Intn(len(a.adjectives))]
		} else {
			word = a.nouns[a.rng.Intn(len(a.nouns))]
		}
		words = append(words, word)
		currentLength += len(word) + 1
	}

	result := strings.Join(words, " ")

	switch {
	case len(result) > targetLength:
		result = result[:targetLength]
	case len(result) < targetLength:
		result += strings.Repeat(" ", targetLength-len(result))
	}

	if !strings.HasSuffix(original, " ") && strings.HasSuffix(result, " ") {
		trimmed := strings.TrimRight(result, " ")
		trailing := len(result) - len(trimmed)
		if trailing > 0 {
			result = trimmed + strings.Repeat("-", trailing)
		}
	}

	return result
}

// SelectScheme picks a naming scheme for literal content that differs from
// mainScheme, so identifiers and literal text don't draw from the same
// vocabulary within a single run.
func SelectScheme(mainScheme naming.Scheme, rng *rand.Rand) naming.Scheme {
	available := make([]naming.Scheme, 0, len(allSchemes)-1)
	for _, s := range allSchemes {
		if s != mainScheme {
			available = append(available, s)
		}
	}
	return available[rng.Intn(len(available))]
}

var allSchemes = []naming.Scheme{naming.Numeric, naming.Animals, naming.Food, naming.Fantasy, naming.Corporate}

var literalPattern = regexp.MustCompile(`'([^']*)'|"([^"]*)"`)

// TransformLiterals replaces every single- or double-quoted string literal
// in line with anonymized content of the same length. When enabled is
// false, line is returned unchanged.
func TransformLiterals(line string, anonymizer *Anonymizer, enabled bool) string {
	if !enabled {
		return line
	}
	return literalPattern.ReplaceAllStringFunc(line, func(match string) string {
		sub := literalPattern.FindStringSubmatch(match)
		quote := byte('\'')
		content := sub[1]
		if sub[1] == "" && strings.HasPrefix(match, `"`) {
			quote = '"'
			content = sub[2]
		}
		anonymized := anonymizer.AnonymizeLiteral(content)
		return string(quote) + anonymized + string(quote)
	})
}
