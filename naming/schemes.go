// Package naming implements the deterministic naming strategies used to
// anonymize a COBOL identifier: a traditional prefix+counter scheme, and
// four adjective-noun word-based schemes (animals, food, fantasy,
// corporate) selected by a stable hash of the original name.
package naming

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/ha1tch/cobolanon/classify"
)

// Scheme identifies one of the available naming strategies.
type Scheme string

const (
	Numeric   Scheme = "numeric"
	Animals   Scheme = "animals"
	Food      Scheme = "food"
	Fantasy   Scheme = "fantasy"
	Corporate Scheme = "corporate"
)

// namePrefixes gives the counter prefix used by the Numeric scheme (and as
// the word-based schemes' fallback) for each identifier role.
var namePrefixes = map[classify.Role]string{
	classify.RoleProgramName:    "PG",
	classify.RoleCopybookName:   "CP",
	classify.RoleSectionName:    "SC",
	classify.RoleParagraphName:  "PA",
	classify.RoleDataName:       "D",
	classify.RoleConditionName:  "C",
	classify.RoleFileName:       "FL",
	classify.RoleIndexName:      "IX",
	classify.RoleExternalName:   "EX",
	classify.RoleUnknown:        "X",
}

func prefixFor(role classify.Role) string {
	if p, ok := namePrefixes[role]; ok {
		return p
	}
	return "X"
}

// Strategy generates an anonymized replacement for one original identifier.
type Strategy interface {
	GenerateName(originalName string, role classify.Role, counter int, targetLength int) (string, error)
	Scheme() Scheme
}

// LengthError reports that a generated name could not fit in the requested
// target length.
type LengthError struct {
	Message string
	Length  int
}

func (e *LengthError) Error() string { return e.Message }

// numericStrategy generates names as PREFIX + zero-padded counter, e.g.
// D00000001, SC00000001, PA00000001.
type numericStrategy struct{}

// NewNumeric returns the numeric (prefix+counter) naming strategy.
func NewNumeric() Strategy { return numericStrategy{} }

func (numericStrategy) Scheme() Scheme { return Numeric }

func (numericStrategy) GenerateName(_ string, role classify.Role, counter int, targetLength int) (string, error) {
	prefix := prefixFor(role)
	availableDigits := targetLength - len(prefix)
	if availableDigits < 1 {
		return fmt.Sprintf("%s%d", prefix, counter), nil
	}
	counterStr := zfill(counter, availableDigits)
	if len(counterStr) > availableDigits {
		counterStr = strconv.Itoa(counter)
	}
	return prefix + counterStr, nil
}

func zfill(n int, width int) string {
	s := strconv.Itoa(n)
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// wordBasedStrategy implements the ADJECTIVE-NOUN-COUNTER schemes, hashing
// the original name with MD5 to pick a deterministic adjective/noun pair.
type wordBasedStrategy struct {
	scheme     Scheme
	adjectives []string
	nouns      []string
}

func (w wordBasedStrategy) Scheme() Scheme { return w.scheme }

func (w wordBasedStrategy) GenerateName(originalName string, role classify.Role, counter int, targetLength int) (string, error) {
	minRequired := 4 + len(strconv.Itoa(counter)) // "A-B-" + counter
	if targetLength < minRequired {
		return w.fallbackToNumeric(role, counter, targetLength), nil
	}

	hashVal := hashName(originalName)
	adj := w.adjectives[int(hashVal%uint64(len(w.adjectives)))]
	noun := w.nouns[int((hashVal/uint64(len(w.adjectives)))%uint64(len(w.nouns)))]

	base := fmt.Sprintf("%s-%s-%d", adj, noun, counter)
	if len(base) > targetLength {
		truncated, err := truncateName(adj, noun, counter, targetLength)
		if err != nil {
			return w.fallbackToNumeric(role, counter, targetLength), nil
		}
		return truncated, nil
	}
	return base, nil
}

func (w wordBasedStrategy) fallbackToNumeric(role classify.Role, counter int, targetLength int) string {
	prefix := prefixFor(role)
	availableDigits := targetLength - len(prefix)
	if availableDigits < 1 {
		return fmt.Sprintf("%s%d", prefix, counter)
	}
	return prefix + zfill(counter, availableDigits)
}

// hashName computes the same deterministic hash the original Python
// implementation uses: MD5 of the upper-cased name, interpreted as a
// big-endian uint64 over its first 8 bytes. Kept stable intentionally so
// existing mapping tables remain reproducible across runs.
func hashName(name string) uint64 {
	sum := md5.Sum([]byte(strings.ToUpper(name)))
	return binary.BigEndian.Uint64(sum[:8])
}

func truncateName(adj, noun string, counter int, maxLen int) (string, error) {
	counterStr := strconv.Itoa(counter)
	minRequired := 4 + len(counterStr)
	if maxLen < minRequired {
		return "", &LengthError{
			Message: fmt.Sprintf("cannot generate word-based name: max_len=%d < min_required=%d for counter=%d", maxLen, minRequired, counter),
			Length:  maxLen,
		}
	}

	available := maxLen - len(counterStr) - 2
	adjLen := available / 2
	if adjLen < 1 {
		adjLen = 1
	}
	nounLen := available - adjLen
	if nounLen < 1 {
		nounLen = 1
	}

	result := fmt.Sprintf("%s-%s-%s", truncate(adj, adjLen), truncate(noun, nounLen), counterStr)
	if strings.Contains(result, "--") {
		return "", &LengthError{
			Message: fmt.Sprintf("truncation produced invalid name with double hyphen: %s", result),
			Length:  maxLen,
		}
	}
	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var animalAdjectives = []string{
	"FLUFFY", "GRUMPY", "SNEAKY", "WOBBLY", "DIZZY",
	"SLEEPY", "JUMPY", "FUZZY", "CHUNKY", "SPEEDY",
	"MIGHTY", "CLEVER", "SWIFT", "BRAVE", "SILLY",
}

var animalNouns = []string{
	"LLAMA", "PENGUIN", "WOMBAT", "PLATYPUS", "BADGER",
	"OTTER", "SLOTH", "KOALA", "LEMUR", "PANDA",
	"FERRET", "MARMOT", "BEAVER", "FALCON", "TOUCAN",
}

var foodAdjectives = []string{
	"SPICY", "CRISPY", "SOGGY", "CHUNKY", "TANGY",
	"ZESTY", "GOOEY", "CRUNCHY", "SAVORY", "SIZZLY",
	"SMOKY", "CHEESY", "FRESH", "TOASTY", "SAUCY",
}

var foodNouns = []string{
	"TACO", "WAFFLE", "NOODLE", "PICKLE", "MUFFIN",
	"PRETZEL", "BURRITO", "DUMPLING", "PANCAKE", "NACHO",
	"BAGEL", "DONUT", "BISCUIT", "CRUMPET", "CHURRO",
}

var fantasyAdjectives = []string{
	"SNEAKY", "ANCIENT", "MIGHTY", "SLEEPY", "GRUMPY",
	"MYSTIC", "SHADOW", "FIERCE", "CLEVER", "NOBLE",
	"ARCANE", "GOLDEN", "SILVER", "WILD", "COSMIC",
}

var fantasyNouns = []string{
	"DRAGON", "GOBLIN", "UNICORN", "TROLL", "PHOENIX",
	"WIZARD", "SPHINX", "GRIFFIN", "OGRE", "FAIRY",
	"KRAKEN", "HYDRA", "CENTAUR", "CYCLOPS", "CHIMERA",
}

var corporateAdjectives = []string{
	"AGILE", "SYNERGY", "PIVOT", "DISRUPT", "LEVERAGE",
	"SCALABLE", "ROBUST", "DYNAMIC", "HOLISTIC", "LEAN",
	"PROACTIVE", "NIMBLE", "OPTIMAL", "ALIGNED", "ELASTIC",
}

var corporateNouns = []string{
	"PARADIGM", "BANDWIDTH", "SILO", "ROADMAP", "STAKEHOLDER",
	"TOUCHPOINT", "PIPELINE", "MINDSHARE", "VERTICAL", "METRICS",
	"SYNERGY", "ECOSYSTEM", "PLATFORM", "FRAMEWORK", "CHANNEL",
}

// NewAnimals returns the animal-themed word-based naming strategy.
func NewAnimals() Strategy {
	return wordBasedStrategy{scheme: Animals, adjectives: animalAdjectives, nouns: animalNouns}
}

// NewFood returns the food-themed word-based naming strategy.
func NewFood() Strategy {
	return wordBasedStrategy{scheme: Food, adjectives: foodAdjectives, nouns: foodNouns}
}

// NewFantasy returns the fantasy-themed word-based naming strategy.
func NewFantasy() Strategy {
	return wordBasedStrategy{scheme: Fantasy, adjectives: fantasyAdjectives, nouns: fantasyNouns}
}

// NewCorporate returns the corporate-buzzword word-based naming strategy.
func NewCorporate() Strategy {
	return wordBasedStrategy{scheme: Corporate, adjectives: corporateAdjectives, nouns: corporateNouns}
}

// Get resolves scheme to its Strategy implementation.
func Get(scheme Scheme) (Strategy, error) {
	switch scheme {
	case Numeric:
		return NewNumeric(), nil
	case Animals:
		return NewAnimals(), nil
	case Food:
		return NewFood(), nil
	case Fantasy:
		return NewFantasy(), nil
	case Corporate:
		return NewCorporate(), nil
	default:
		return nil, fmt.Errorf("naming: unknown scheme %q", scheme)
	}
}
