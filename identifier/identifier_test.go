package identifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAcceptsOrdinaryIdentifier(t *testing.T) {
	assert.NoError(t, Validate("WS-CUSTOMER-NAME"))
}

func TestValidateRejectsLeadingHyphen(t *testing.T) {
	err := Validate("-WS-X")
	assert.Error(t, err)
	var invalid *InvalidError
	assert.ErrorAs(t, err, &invalid)
}

func TestValidateRejectsTrailingHyphen(t *testing.T) {
	assert.Error(t, Validate("WS-X-"))
}

func TestValidateRejectsTooLong(t *testing.T) {
	err := Validate(strings.Repeat("A", 31))
	var lengthErr *LengthError
	assert.ErrorAs(t, err, &lengthErr)
}

func TestValidateRejectsLeadingDigit(t *testing.T) {
	assert.Error(t, Validate("1ABC"))
}

func TestEqualIgnoresCase(t *testing.T) {
	assert.True(t, Equal("ws-field", "WS-FIELD"))
}

func TestPadAndTruncate(t *testing.T) {
	assert.Equal(t, "AB  ", PadToLength("AB", 4, ' '))
	assert.Equal(t, "ABCD", TruncateToLength("ABCDEF", 4))
}

func TestIsLevelNumber(t *testing.T) {
	assert.True(t, IsLevelNumber("01"))
	assert.True(t, IsLevelNumber("88"))
	assert.False(t, IsLevelNumber("50"))
	assert.False(t, IsLevelNumber("abc"))
}

func TestIsFiller(t *testing.T) {
	assert.True(t, IsFiller("filler"))
	assert.False(t, IsFiller("WS-FIELD"))
}

func TestFormatLocation(t *testing.T) {
	assert.Equal(t, "CUSTMAST.cob:42", FormatLocation("CUSTMAST.cob", 42))
}
