package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStringBuildsSimpleRecord(t *testing.T) {
	source := `01  CUSTOMER-RECORD.
    05  CUSTOMER-ID       PIC 9(5).
    05  CUSTOMER-NAME     PIC X(20).
    05  CUSTOMER-BALANCE  PIC S9(7)V99 COMP-3.
`
	p := NewParser(false)
	records, err := p.ParseString(source)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "CUSTOMER-RECORD", rec.Name)
	require.NotNil(t, rec.Root)
	require.Len(t, rec.Root.Children, 3)

	id := rec.Root.FindField("CUSTOMER-ID")
	require.NotNil(t, id)
	assert.Equal(t, 0, id.Offset)
	assert.Equal(t, 5, id.StorageLength)

	name := rec.Root.FindField("CUSTOMER-NAME")
	require.NotNil(t, name)
	assert.Equal(t, 5, name.Offset)
	assert.Equal(t, 20, name.StorageLength)

	balance := rec.Root.FindField("CUSTOMER-BALANCE")
	require.NotNil(t, balance)
	assert.Equal(t, 25, balance.Offset)
	require.NotNil(t, balance.Pic)
	assert.Equal(t, TypeComp3, balance.Pic.Type)
	assert.Equal(t, 2, balance.Pic.DecimalPositions)
	assert.Equal(t, 5, balance.Pic.StorageLength)

	assert.Equal(t, 30, rec.TotalLength)
}

func TestParseStringHandlesContinuationAndComment(t *testing.T) {
	source := "01  REC.\n" +
		"    05  LONG-NAME-FIELD  PIC X(10)\n" +
		"*   this is a comment line\n" +
		"-       VALUE SPACES.\n"
	p := NewParser(false)
	records, err := p.ParseString(source)
	require.NoError(t, err)
	require.Len(t, records, 1)

	field := records[0].Root.FindField("LONG-NAME-FIELD")
	require.NotNil(t, field)
	assert.Equal(t, 10, field.StorageLength)
}

func TestParseStringResolvesRedefines(t *testing.T) {
	source := `01  REC.
    05  FIELD-A  PIC X(10).
    05  FIELD-B  REDEFINES FIELD-A PIC 9(10).
`
	p := NewParser(false)
	records, err := p.ParseString(source)
	require.NoError(t, err)

	a := records[0].Root.FindField("FIELD-A")
	b := records[0].Root.FindField("FIELD-B")
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, a.Offset, b.Offset)
	require.NotNil(t, b.RedefinesTarget)
	assert.Equal(t, "FIELD-A", b.RedefinesTarget.Name)
	assert.Equal(t, 10, records[0].TotalLength)
}

func TestParseStringHandlesOccurs(t *testing.T) {
	source := `01  REC.
    05  ITEM OCCURS 3 TIMES PIC X(4).
`
	p := NewParser(false)
	records, err := p.ParseString(source)
	require.NoError(t, err)

	item := records[0].Root.FindField("ITEM")
	require.NotNil(t, item)
	assert.Equal(t, 3, item.OccursCount)
	assert.Equal(t, 12, records[0].TotalLength)
}

func TestParseStringSkips88Level(t *testing.T) {
	source := `01  REC.
    05  STATUS-FLAG  PIC X.
        88  IS-ACTIVE  VALUE "A".
`
	p := NewParser(false)
	records, err := p.ParseString(source)
	require.NoError(t, err)
	assert.Len(t, records[0].Root.Children, 1)
}

func TestParseStringRecordsFillerWarningFreeParse(t *testing.T) {
	source := `01  REC.
    05  FILLER  PIC X(5).
    05  VISIBLE-FIELD  PIC X(5).
`
	p := NewParser(false)
	records, err := p.ParseString(source)
	require.NoError(t, err)
	filler := records[0].Root.Children[0]
	assert.True(t, filler.IsFiller)
	assert.Equal(t, "FILLER-1", filler.Name)
}

func TestParsePicLengthSignedAndDecimal(t *testing.T) {
	length, decimals := parsePicLength("S9(7)V99")
	assert.Equal(t, 10, length)
	assert.Equal(t, 2, decimals)
}

func TestCalculateCompLengthTiers(t *testing.T) {
	assert.Equal(t, 1, calculateCompLength(&Pic{DisplayLength: 2, Usage: "COMP"}))
	assert.Equal(t, 2, calculateCompLength(&Pic{DisplayLength: 4, Usage: "COMP"}))
	assert.Equal(t, 4, calculateCompLength(&Pic{DisplayLength: 9, Usage: "COMP"}))
	assert.Equal(t, 8, calculateCompLength(&Pic{DisplayLength: 10, Usage: "COMP"}))
	assert.Equal(t, 5, calculateCompLength(&Pic{DisplayLength: 9, Usage: "COMP-3"}))
}

func TestParseStringSeventySevenLevelIsStandalone(t *testing.T) {
	source := `77  COUNTER  PIC 9(4).
01  REC.
    05  FIELD-A  PIC X(3).
`
	p := NewParser(false)
	records, err := p.ParseString(source)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "COUNTER", records[0].Name)
	assert.Empty(t, records[0].Root.Children)
	assert.Equal(t, "REC", records[1].Name)
}
