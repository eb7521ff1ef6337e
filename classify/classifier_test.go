package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(c *Classifier, lines []string) [][]Identifier {
	var out [][]Identifier
	for i, line := range lines {
		out = append(out, c.ClassifyLine(line, i+1, false))
	}
	return out
}

func TestClassifyProgramID(t *testing.T) {
	c := New("SAMPLE.cob")
	results := feed(c, []string{
		"IDENTIFICATION DIVISION.",
		"PROGRAM-ID. SAMPLE-PROG.",
	})
	require.Len(t, results[1], 1)
	assert.Equal(t, RoleProgramName, results[1][0].Role)
	assert.Equal(t, "SAMPLE-PROG", results[1][0].Name)
}

func TestClassifyDataDefinition(t *testing.T) {
	c := New("SAMPLE.cob")
	feed(c, []string{
		"DATA DIVISION.",
		"WORKING-STORAGE SECTION.",
	})
	results := c.ClassifyLine("01  WS-CUSTOMER-RECORD.", 3, false)
	require.Len(t, results, 1)
	assert.Equal(t, RoleDataName, results[0].Role)
	assert.Equal(t, 1, results[0].LevelNumber)

	child := c.ClassifyLine("05  WS-CUSTOMER-NAME PIC X(30).", 4, false)
	require.Len(t, child, 1)
	assert.Equal(t, "WS-CUSTOMER-RECORD", child[0].ParentName)
}

func TestClassifyConditionName(t *testing.T) {
	c := New("SAMPLE.cob")
	feed(c, []string{"DATA DIVISION.", "WORKING-STORAGE SECTION."})
	c.ClassifyLine("05  WS-STATUS PIC X.", 3, false)
	results := c.ClassifyLine("    88  WS-STATUS-OK VALUE 'Y'.", 4, false)
	require.Len(t, results, 1)
	assert.Equal(t, RoleConditionName, results[0].Role)
}

func TestClassifyCopyStatement(t *testing.T) {
	c := New("SAMPLE.cob")
	results := c.ClassifyLine("COPY CUSTREC.", 1, false)
	require.Len(t, results, 1)
	assert.Equal(t, RoleCopybookName, results[0].Role)
	assert.Equal(t, "CUSTREC", results[0].Name)
}

func TestClassifyExternalDataItem(t *testing.T) {
	c := New("SAMPLE.cob")
	feed(c, []string{"DATA DIVISION.", "WORKING-STORAGE SECTION."})
	results := c.ClassifyLine("01  WS-SHARED-AREA EXTERNAL.", 3, false)
	require.Len(t, results, 1)
	assert.Equal(t, RoleExternalName, results[0].Role)
	assert.True(t, results[0].IsExternal)
}

func TestClassifyParagraphName(t *testing.T) {
	c := New("SAMPLE.cob")
	feed(c, []string{"PROCEDURE DIVISION."})
	results := c.ClassifyLine("MAIN-PARA.", 2, false)
	require.Len(t, results, 1)
	assert.Equal(t, RoleParagraphName, results[0].Role)
}

func TestCommentLineYieldsNothing(t *testing.T) {
	c := New("SAMPLE.cob")
	assert.Empty(t, c.ClassifyLine("THIS LOOKS LIKE CODE", 1, true))
}
