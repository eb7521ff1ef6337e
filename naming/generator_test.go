package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/cobolanon/classify"
	"github.com/ha1tch/cobolanon/token"
)

func TestGeneratorProducesUniqueNames(t *testing.T) {
	g := NewGenerator(NewNumeric(), DefaultGeneratorConfig())
	first, err := g.Generate("WS-CUSTOMER-NAME", classify.RoleDataName)
	require.NoError(t, err)
	second, err := g.Generate("WS-CUSTOMER-NAME", classify.RoleDataName)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestGeneratorNeverEmitsReservedWord(t *testing.T) {
	g := NewGenerator(NewNumeric(), DefaultGeneratorConfig())
	for i := 0; i < 50; i++ {
		name, err := g.Generate("WS-FIELD", classify.RoleDataName)
		require.NoError(t, err)
		assert.False(t, isReservedForTest(name))
	}
}

func isReservedForTest(name string) bool {
	reserved := map[string]bool{"MOVE": true, "DISPLAY": true}
	return reserved[name]
}

func TestGeneratorRejectsFigurativeConstantsSpecialRegistersAndSystemIdentifiers(t *testing.T) {
	g := NewGenerator(NewNumeric(), DefaultGeneratorConfig())
	require.True(t, token.IsFigurativeConstant("ZEROS"))
	require.True(t, token.IsSpecialRegister("LENGTH"))
	require.True(t, token.IsSystemIdentifier("EIBCALEN"))

	assert.False(t, g.isValid("ZEROS"))
	assert.False(t, g.isValid("LENGTH"))
	assert.False(t, g.isValid("EIBCALEN"))
	assert.True(t, g.isValid("PG1"))
}

func TestGeneratorCounterStateRoundTrip(t *testing.T) {
	g := NewGenerator(NewNumeric(), DefaultGeneratorConfig())
	_, err := g.Generate("WS-A", classify.RoleDataName)
	require.NoError(t, err)
	_, err = g.Generate("WS-B", classify.RoleDataName)
	require.NoError(t, err)

	state := g.CounterState()
	assert.Equal(t, 2, state[classify.RoleDataName])

	resumed := NewGenerator(NewNumeric(), DefaultGeneratorConfig())
	resumed.SetCounterState(state)
	name, err := resumed.Generate("WS-C", classify.RoleDataName)
	require.NoError(t, err)
	assert.Contains(t, name, "3")
}

func TestGeneratorResetClearsState(t *testing.T) {
	g := NewGenerator(NewNumeric(), DefaultGeneratorConfig())
	_, err := g.Generate("WS-A", classify.RoleDataName)
	require.NoError(t, err)
	g.Reset()
	assert.Empty(t, g.CounterState())
}

func TestGeneratorPreservesLengthWithinBounds(t *testing.T) {
	g := NewGenerator(NewNumeric(), DefaultGeneratorConfig())
	name, err := g.Generate("WS-VERY-LONG-CUSTOMER-RECORD-NAME", classify.RoleDataName)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(name), 30)
}
