package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/cobolanon/classify"
	"github.com/ha1tch/cobolanon/mapping"
	"github.com/ha1tch/cobolanon/naming"
)

func TestValidateLinesFlagsOverlongLine(t *testing.T) {
	v := NewValidator(DefaultConfig(), nil)
	lines := []string{strings.Repeat("A", 90)}
	result := v.ValidateLines("A.cob", lines)

	require.Len(t, result.Errors(), 1)
	assert.False(t, result.IsValid())
}

func TestValidateLinesSkipsCommentLines(t *testing.T) {
	v := NewValidator(DefaultConfig(), nil)
	lines := []string{"      * " + strings.Repeat("X", 80)}
	result := v.ValidateLines("A.cob", lines)
	// Comment lines skip the code-area check; the 80-column limit still
	// applies to them.
	assert.Empty(t, result.Warnings())
	require.Len(t, result.Errors(), 1)
}

func TestValidateCodeAreaWarnsOnTrailingContent(t *testing.T) {
	v := NewValidator(DefaultConfig(), nil)
	line := strings.Repeat(" ", 72) + "EXTRA-ID-1"
	result := v.ValidateLines("A.cob", []string{line})
	require.Len(t, result.Warnings(), 1)
	assert.Contains(t, result.Warnings()[0].Message, "column 72")
}

func TestValidateFilesFlagsMissingCopyReference(t *testing.T) {
	v := NewValidator(DefaultConfig(), nil)
	fileLines := map[string][]string{
		"A.cob": {"       COPY MISSING-COPYBOOK."},
	}
	result := v.ValidateFiles(fileLines)
	require.Len(t, result.Warnings(), 1)
	assert.Contains(t, result.Warnings()[0].Message, "MISSING-COPYBOOK")
}

func TestValidateFilesAcceptsKnownCopyReference(t *testing.T) {
	v := NewValidator(DefaultConfig(), nil)
	fileLines := map[string][]string{
		"A.cob":        {"       COPY CUSTREC."},
		"CUSTREC.cpy":  {"       01  CUSTOMER-REC PIC X(10)."},
	}
	result := v.ValidateFiles(fileLines)
	assert.Empty(t, result.Warnings())
}

func TestValidateCrossFileConsistencyAcceptsUniqueNames(t *testing.T) {
	table, err := mapping.NewTable(naming.Numeric)
	require.NoError(t, err)

	_, err = table.GetOrCreate("CUSTOMER-ID", classify.RoleDataName, false, "A.cob", 1)
	require.NoError(t, err)
	_, err = table.GetOrCreate("ACCOUNT-ID", classify.RoleDataName, false, "B.cob", 1)
	require.NoError(t, err)

	v := NewValidator(DefaultConfig(), table)
	result := Result{}
	v.validateCrossFileConsistency(&result)
	assert.Empty(t, result.Errors())
}

func TestValidateIdentifierLengthsFlagsOverlongName(t *testing.T) {
	table, err := mapping.NewTable(naming.Numeric)
	require.NoError(t, err)
	_, err = table.GetOrCreate("SOME-FIELD", classify.RoleDataName, false, "A.cob", 1)
	require.NoError(t, err)

	issues := ValidateIdentifierLengths(table, 2)
	assert.NotEmpty(t, issues)
}

func TestValidateMappingTableAcceptsGeneratedName(t *testing.T) {
	table, err := mapping.NewTable(naming.Numeric)
	require.NoError(t, err)
	_, err = table.GetOrCreate("SOME-FIELD", classify.RoleDataName, false, "A.cob", 1)
	require.NoError(t, err)

	result := ValidateMappingTable(table)
	assert.True(t, result.IsValid())
}

func TestIssueStringFormatsFields(t *testing.T) {
	issue := Issue{Severity: SeverityWarning, Message: "something off", FilePath: "A.cob", LineNumber: 5}
	assert.Equal(t, "[WARNING] A.cob line 5 something off", issue.String())
}
