package literal

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ha1tch/cobolanon/naming"
)

func TestAnonymizeLiteralPreservesLength(t *testing.T) {
	a := NewAnonymizer(naming.Animals, 42)
	for _, original := range []string{"HELLO WORLD", "X", "", "A LONGER PIECE OF TEXT HERE"} {
		result := a.AnonymizeLiteral(original)
		assert.Equal(t, len(original), len(result))
	}
}

func TestAnonymizeLiteralDeterministicWithSameSeed(t *testing.T) {
	a := NewAnonymizer(naming.Food, 7)
	b := NewAnonymizer(naming.Food, 7)
	assert.Equal(t, a.AnonymizeLiteral("CUSTOMER NAME HERE"), b.AnonymizeLiteral("CUSTOMER NAME HERE"))
}

func TestAnonymizeLiteralEmptyStaysEmpty(t *testing.T) {
	a := NewAnonymizer(naming.Corporate, 1)
	assert.Equal(t, "", a.AnonymizeLiteral(""))
}

func TestAnonymizeLiteralTrailingSpaceBecomesDash(t *testing.T) {
	a := NewAnonymizer(naming.Numeric, 3)
	result := a.AnonymizeLiteral("AB")
	assert.Len(t, result, 2)
	assert.Equal(t, byte('-'), result[1])
}

func TestSelectSchemeExcludesMain(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		scheme := SelectScheme(naming.Animals, rng)
		assert.NotEqual(t, naming.Animals, scheme)
	}
}

func TestTransformLiteralsReplacesQuotedContent(t *testing.T) {
	a := NewAnonymizer(naming.Animals, 5)
	line := `DISPLAY 'HELLO WORLD'.`
	out := TransformLiterals(line, a, true)
	assert.NotContains(t, out, "HELLO WORLD")
	assert.Contains(t, out, "'")
}

func TestTransformLiteralsDisabledReturnsUnchanged(t *testing.T) {
	a := NewAnonymizer(naming.Animals, 5)
	line := `DISPLAY 'HELLO WORLD'.`
	assert.Equal(t, line, TransformLiterals(line, a, false))
}

func TestTransformLiteralsHandlesDoubleQuotes(t *testing.T) {
	a := NewAnonymizer(naming.Animals, 5)
	line := `DISPLAY "SAMPLE".`
	out := TransformLiterals(line, a, true)
	assert.NotContains(t, out, "SAMPLE")
	assert.Contains(t, out, `"`)
}
