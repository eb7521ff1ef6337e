package column

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFixed(t *testing.T) {
	raw := "000100 WS-CUSTOMER-NAME       PIC X(30).                     ID0001"
	l := Split(raw, 100, Fixed, "\n")

	assert.Equal(t, "000100", l.SequenceArea)
	assert.Equal(t, byte(' '), l.Indicator)
	assert.Contains(t, l.CodeArea, "WS-CUSTOMER-NAME")
	assert.Equal(t, "\n", l.Terminator)
	assert.False(t, l.IsComment())
}

func TestSplitComment(t *testing.T) {
	raw := "      * THIS IS A COMMENT LINE"
	l := Split(raw, 1, Fixed, "\n")
	require.True(t, l.IsComment())
}

func TestSplitPreservesTerminator(t *testing.T) {
	raw := "000100 MOVE SPACES TO WS-FLAG.                                ID0001"
	assert.Equal(t, "\r\n", Split(raw, 1, Fixed, "\r\n").Terminator)
	assert.Equal(t, "", Split(raw, 1, Fixed, "").Terminator)
}

func TestValidateCodeAreaOverflow(t *testing.T) {
	long := ""
	for i := 0; i < 80; i++ {
		long += "X"
	}
	err := ValidateCodeArea("foo.cob", 5, long)
	require.Error(t, err)
	var overflow *OverflowError
	require.ErrorAs(t, err, &overflow)
	assert.Equal(t, 80, overflow.ActualLength)
}

func TestRebuildRoundTrip(t *testing.T) {
	raw := "000100 WS-CUSTOMER-NAME       PIC X(30).                     ID0001"
	l := Split(raw, 100, Fixed, "\n")
	rebuilt := Rebuild(l, l.CodeArea)
	assert.Contains(t, rebuilt, "000100")
	assert.Contains(t, rebuilt, "WS-CUSTOMER-NAME")
}

func TestDetectFormatFixed(t *testing.T) {
	lines := []string{
		"000100 IDENTIFICATION DIVISION.",
		"000200 PROGRAM-ID. SAMPLE.",
		"000300 DATA DIVISION.",
	}
	assert.Equal(t, Fixed, DetectFormat(lines))
}

func TestDetectFormatFree(t *testing.T) {
	lines := []string{
		"identification division.",
		"program-id. sample.",
		"*> a free-format in-line comment",
		"data division.",
	}
	assert.Equal(t, Free, DetectFormat(lines))
}
