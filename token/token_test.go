package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsReservedWord(t *testing.T) {
	tests := []struct {
		word string
		want bool
	}{
		{"MOVE", true},
		{"move", true},
		{"PIC", true},
		{"WORKING-STORAGE", true},
		{"CUSTOMER-NAME", false},
		{"WS-TOTAL", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsReservedWord(tt.word), tt.word)
	}
}

func TestIsFigurativeConstant(t *testing.T) {
	assert.True(t, IsFigurativeConstant("SPACES"))
	assert.True(t, IsFigurativeConstant("high-values"))
	assert.False(t, IsFigurativeConstant("CUSTOMER-ID"))
}

func TestIsSpecialRegister(t *testing.T) {
	assert.True(t, IsSpecialRegister("RETURN-CODE"))
	assert.False(t, IsSpecialRegister("WS-RETURN-CODE"))
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, CategoryFigurativeConstant, CategoryOf("ZEROES"))
	assert.Equal(t, CategorySpecialRegister, CategoryOf("TALLY"))
	assert.Equal(t, CategoryReservedWord, CategoryOf("MOVE"))
	assert.Equal(t, CategoryUserDefined, CategoryOf("WS-CUSTOMER-ID"))
}

func TestIsSystemIdentifier(t *testing.T) {
	assert.True(t, IsSystemIdentifier("DFHCOMMAREA"))
	assert.True(t, IsSystemIdentifier("EIBCALEN"))
	assert.True(t, IsSystemIdentifier("eibtrnid"))
	assert.False(t, IsSystemIdentifier("WS-CUSTOMER-ID"))
}

func TestLookupIdent(t *testing.T) {
	assert.Equal(t, RESERVED, LookupIdent("MOVE"))
	assert.Equal(t, IDENT, LookupIdent("WS-CUSTOMER-ID"))
}
