package naming

import (
	"fmt"

	"github.com/ha1tch/cobolanon/classify"
	"github.com/ha1tch/cobolanon/identifier"
	"github.com/ha1tch/cobolanon/token"
)

// maxRetries bounds how many counter values Generator will try before
// giving up on a single name, guarding against a strategy that keeps
// producing collisions.
const maxRetries = 1000

// GeneratorConfig controls how Generator sizes generated names.
type GeneratorConfig struct {
	PreserveLength bool
	MinLength      int
	MaxLength      int
}

// DefaultGeneratorConfig returns the config used when none is supplied:
// preserve the original name's length, with a 4-character floor and the
// 30-character COBOL ceiling.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{PreserveLength: true, MinLength: 4, MaxLength: identifier.MaxLength}
}

// ExhaustedError reports that Generator could not produce a unique,
// reserved-word-free, valid identifier within maxRetries attempts.
type ExhaustedError struct {
	OriginalName string
	Attempts     int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("could not generate a valid name for %q after %d attempts", e.OriginalName, e.Attempts)
}

// Generator produces unique anonymized identifiers for a single run,
// tracking a per-role counter and the set of names already issued so it
// never emits a duplicate or a COBOL reserved word.
type Generator struct {
	strategy Strategy
	config   GeneratorConfig
	counters map[classify.Role]int
	issued   map[string]bool
}

// NewGenerator creates a Generator that draws replacement names from
// strategy.
func NewGenerator(strategy Strategy, config GeneratorConfig) *Generator {
	return &Generator{
		strategy: strategy,
		config:   config,
		counters: make(map[classify.Role]int),
		issued:   make(map[string]bool),
	}
}

// Generate produces a unique anonymized replacement for originalName in
// the given role, retrying with successive counter values until a valid,
// unique, non-reserved name is produced or maxRetries is exhausted.
func (g *Generator) Generate(originalName string, role classify.Role) (string, error) {
	length := g.targetLength(originalName, role)

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		counter := g.nextCounter(role)
		name, err := g.strategy.GenerateName(originalName, role, counter, length)
		if err != nil {
			lastErr = err
			continue
		}
		if g.isValid(name) {
			g.issued[identifier.Normalize(name)] = true
			return name, nil
		}
	}
	if lastErr == nil {
		lastErr = &ExhaustedError{OriginalName: originalName, Attempts: maxRetries}
	}
	return "", lastErr
}

func (g *Generator) targetLength(originalName string, role classify.Role) int {
	length := g.config.MaxLength
	if g.config.PreserveLength {
		length = len(originalName)
		if length > g.config.MaxLength {
			length = g.config.MaxLength
		}
	}
	if length < g.config.MinLength {
		length = g.config.MinLength
	}
	prefixLen := len(prefixFor(role)) + 1
	if length < prefixLen {
		length = prefixLen
	}
	return length
}

func (g *Generator) nextCounter(role classify.Role) int {
	g.counters[role]++
	return g.counters[role]
}

func (g *Generator) isValid(name string) bool {
	if token.IsReservedWord(name) {
		return false
	}
	if token.IsFigurativeConstant(name) {
		return false
	}
	if token.IsSpecialRegister(name) {
		return false
	}
	if token.IsSystemIdentifier(name) {
		return false
	}
	if g.issued[identifier.Normalize(name)] {
		return false
	}
	return identifier.IsValid(name)
}

// CounterState returns a snapshot of the per-role counters, suitable for
// persisting so a later run can resume numbering without collisions.
func (g *Generator) CounterState() map[classify.Role]int {
	out := make(map[classify.Role]int, len(g.counters))
	for k, v := range g.counters {
		out[k] = v
	}
	return out
}

// SetCounterState restores counters previously captured by CounterState.
func (g *Generator) SetCounterState(state map[classify.Role]int) {
	g.counters = make(map[classify.Role]int, len(state))
	for k, v := range state {
		g.counters[k] = v
	}
}

// Reset clears all counters and the issued-name set.
func (g *Generator) Reset() {
	g.counters = make(map[classify.Role]int)
	g.issued = make(map[string]bool)
}
