package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/cobolanon/classify"
	"github.com/ha1tch/cobolanon/column"
	"github.com/ha1tch/cobolanon/comment"
	"github.com/ha1tch/cobolanon/literal"
	"github.com/ha1tch/cobolanon/mapping"
	"github.com/ha1tch/cobolanon/naming"
)

func newTable(t *testing.T) *mapping.Table {
	t.Helper()
	table, err := mapping.NewTable(naming.Animals)
	require.NoError(t, err)
	return table
}

func codeLine(t *testing.T, raw string, number int) column.Line {
	t.Helper()
	return column.Split(raw, number, column.Fixed, "\n")
}

func TestTransformLineRenamesDataName(t *testing.T) {
	table := newTable(t)
	_, err := table.GetOrCreate("CUSTOMER-ID", classify.RoleDataName, false, "A.cob", 10)
	require.NoError(t, err)
	anon, _ := table.AnonymizedName("CUSTOMER-ID")

	transformer := NewLineTransformer(table, nil, nil)
	transformer.AnonymizeLiterals = false

	line := codeLine(t, "       01  CUSTOMER-ID        PIC X(10).", 10)
	result := transformer.TransformLine(line, "A.cob")

	assert.Contains(t, result.TransformedLine, anon)
	assert.NotContains(t, result.TransformedLine, "CUSTOMER-ID")
	assert.NotEmpty(t, result.ChangesMade)
}

func TestTransformLineSkipsFiller(t *testing.T) {
	table := newTable(t)
	transformer := NewLineTransformer(table, nil, nil)
	transformer.AnonymizeLiterals = false

	line := codeLine(t, "       05  FILLER             PIC X(5).", 1)
	result := transformer.TransformLine(line, "A.cob")

	assert.Contains(t, result.TransformedLine, "FILLER")
	assert.Empty(t, result.ChangesMade)
}

func TestTransformLinePreservesExternalWhenConfigured(t *testing.T) {
	table := newTable(t)
	_, err := table.GetOrCreate("SHARED-FLAG", classify.RoleExternalName, true, "A.cob", 1)
	require.NoError(t, err)

	transformer := NewLineTransformer(table, nil, nil)
	transformer.AnonymizeLiterals = false
	transformer.PreserveExternal = true

	line := codeLine(t, "       01  SHARED-FLAG        PIC X EXTERNAL.", 1)
	result := transformer.TransformLine(line, "A.cob")

	assert.Contains(t, result.TransformedLine, "SHARED-FLAG")
}

func TestTransformLineTracksRedefines(t *testing.T) {
	table := newTable(t)
	redefines := NewRedefinesTracker()
	transformer := NewLineTransformer(table, redefines, nil)
	transformer.AnonymizeLiterals = false

	line := codeLine(t, "       05  ALT-FIELD REDEFINES BASE-FIELD PIC X(5).", 1)
	transformer.TransformLine(line, "A.cob")

	redefined, ok := redefines.RedefinedName("ALT-FIELD")
	require.True(t, ok)
	assert.Equal(t, "BASE-FIELD", redefined)

	items := redefines.RedefiningItems("BASE-FIELD")
	require.Len(t, items, 1)
	assert.Equal(t, "ALT-FIELD", items[0].RedefiningName)
}

func TestTransformCallLiteralRenamesProgramName(t *testing.T) {
	table := newTable(t)
	_, err := table.GetOrCreate("SUBPROG1", classify.RoleProgramName, false, "A.cob", 1)
	require.NoError(t, err)
	anon, _ := table.AnonymizedName("SUBPROG1")

	transformer := NewLineTransformer(table, nil, nil)
	transformer.AnonymizeLiterals = false

	line := codeLine(t, "       CALL 'SUBPROG1' USING WS-AREA.", 1)
	result := transformer.TransformLine(line, "A.cob")

	assert.Contains(t, result.TransformedLine, anon)
	assert.NotContains(t, result.TransformedLine, "SUBPROG1")
}

func TestTransformLinePreservesTrailingTextAfterLengthChange(t *testing.T) {
	table := newTable(t)
	_, err := table.GetOrCreate("X", classify.RoleDataName, false, "A.cob", 1)
	require.NoError(t, err)
	anon, _ := table.AnonymizedName("X")
	require.Greater(t, len(anon), 1)

	transformer := NewLineTransformer(table, nil, nil)
	transformer.AnonymizeLiterals = false

	line := codeLine(t, "       05  X  PIC 9(4) VALUE ZERO.", 1)
	result := transformer.TransformLine(line, "A.cob")

	assert.Contains(t, result.TransformedLine, "PIC 9(4) VALUE ZERO")
	assert.Contains(t, result.TransformedLine, anon)
}

func TestTransformLineAnonymizesLiteralsWhenEnabled(t *testing.T) {
	table := newTable(t)
	transformer := NewLineTransformer(table, nil, nil)
	transformer.LiteralAnonymizer = literal.NewAnonymizer(naming.Food, 99)

	line := codeLine(t, `       DISPLAY 'HELLO WORLD'.`, 1)
	result := transformer.TransformLine(line, "A.cob")

	assert.NotContains(t, result.TransformedLine, "HELLO WORLD")
	assert.NotEmpty(t, result.ChangesMade)
}

func TestTransformLineDelegatesCommentsToCommentTransformer(t *testing.T) {
	table := newTable(t)
	commentTransformer := comment.NewTransformer(comment.DefaultConfig())
	transformer := NewLineTransformer(table, nil, commentTransformer)

	line := codeLine(t, "      * CONTATTARE MARIO PER LA POLIZZA", 1)
	result := transformer.TransformLine(line, "A.cob")

	require.True(t, result.IsComment)
	assert.NotContains(t, result.TransformedLine, "MARIO")
	assert.Equal(t, line.Raw[:7], result.TransformedLine[:7])
}

func TestTransformFileAccumulatesResults(t *testing.T) {
	table := newTable(t)
	transformer := NewLineTransformer(table, nil, nil)
	transformer.AnonymizeLiterals = false

	_, err := table.GetOrCreate("CUSTOMER-ID", classify.RoleDataName, false, "A.cob", 1)
	require.NoError(t, err)

	lines := []column.Line{
		codeLine(t, "       01  CUSTOMER-ID        PIC X(10).", 1),
		codeLine(t, "       05  FILLER             PIC X(5).", 2),
	}

	result := TransformFile(lines, "A.cob", transformer)

	assert.Equal(t, "A.cob", result.Filename)
	assert.Equal(t, 2, result.TotalLines)
	assert.Equal(t, 1, result.TransformedLines)
	assert.Len(t, result.Lines, 2)
}
