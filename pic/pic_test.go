package pic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindClauses(t *testing.T) {
	line := "05 WS-CUSTOMER-NAME  PIC X(30)."
	clauses := FindClauses(line)
	require.Len(t, clauses, 1)
	assert.Equal(t, Alphanumeric, clauses[0].PICType)
	assert.Equal(t, 30, clauses[0].Length)
}

func TestFindClausesSigned(t *testing.T) {
	clauses := FindClauses("05 WS-AMOUNT PIC S9(7)V99.")
	require.Len(t, clauses, 1)
	assert.Equal(t, Signed, clauses[0].PICType)
}

func TestFindUsageClauses(t *testing.T) {
	clauses := FindUsageClauses("05 WS-COUNTER USAGE IS COMP-3.")
	require.Len(t, clauses, 1)
	assert.Equal(t, Comp3, clauses[0].Usage)
}

func TestUsageDoesNotMatchSubstring(t *testing.T) {
	clauses := FindUsageClauses("05 WS-INDEX PIC 9(4).")
	assert.Empty(t, clauses)
}

func TestIsProtected(t *testing.T) {
	line := "05 WS-CUSTOMER-NAME  PIC X(30)."
	clauses := FindClauses(line)
	require.Len(t, clauses, 1)
	assert.True(t, IsProtected(line, clauses[0].Start+2))
	assert.False(t, IsProtected(line, 3))
}

func TestHasClauses(t *testing.T) {
	assert.True(t, HasRedefinesClause("05 WS-ALT REDEFINES WS-ORIG."))
	assert.True(t, HasOccursClause("05 WS-TABLE OCCURS 10 TIMES."))
	assert.True(t, HasExternalClause("01 WS-SHARED EXTERNAL."))
	assert.True(t, HasGlobalClause("01 WS-SHARED GLOBAL."))
	assert.True(t, HasValueClause("05 WS-FLAG PIC X VALUE 'Y'."))
}
