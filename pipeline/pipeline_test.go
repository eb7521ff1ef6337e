package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ha1tch/cobolanon/classify"
	"github.com/ha1tch/cobolanon/config"
	"github.com/ha1tch/cobolanon/naming"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunAnonymizesSingleProgram(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	writeFixture(t, inputDir, "CUSTMAST.cbl", strings.Join([]string{
		"       IDENTIFICATION DIVISION.",
		"       PROGRAM-ID. CUSTMAST.",
		"       DATA DIVISION.",
		"       WORKING-STORAGE SECTION.",
		"       01  WS-CUSTOMER-NAME       PIC X(30).",
		"       PROCEDURE DIVISION.",
		"       MAIN-PARA.",
		"           MOVE SPACES TO WS-CUSTOMER-NAME.",
		"           STOP RUN.",
	}, "\n")+"\n")

	cfg := config.Default()
	cfg.InputDir = inputDir
	cfg.OutputDir = outputDir
	cfg.NamingScheme = naming.Numeric
	cfg.Overwrite = true

	runner := New(cfg, zaptest.NewLogger(t))
	result, err := runner.Run()
	require.NoError(t, err)

	assert.NotEmpty(t, result.FileResults)
	assert.NotZero(t, len(result.MappingTable.AllEntries()))

	entry, ok := result.MappingTable.Lookup("WS-CUSTOMER-NAME")
	require.True(t, ok)
	assert.NotEqual(t, "WS-CUSTOMER-NAME", entry.AnonymizedName)

	outFiles, err := filepath.Glob(filepath.Join(outputDir, "*.cbl"))
	require.NoError(t, err)
	require.Len(t, outFiles, 1)

	programEntry, ok := result.MappingTable.Lookup("CUSTMAST")
	require.True(t, ok)
	assert.Equal(t, classify.RoleProgramName, programEntry.Role)
	assert.Equal(t, programEntry.AnonymizedName+".cbl", filepath.Base(outFiles[0]))

	written, err := os.ReadFile(outFiles[0])
	require.NoError(t, err)
	assert.NotContains(t, string(written), "WS-CUSTOMER-NAME")
	assert.NotContains(t, string(written), "CUSTMAST")
}

func TestRunRenamesCopybookFileAndRewritesCopyReference(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	writeFixture(t, inputDir, "CUSTREC.cpy", "       01  WS-CUSTOMER-NAME       PIC X(30).\n")

	writeFixture(t, inputDir, "PROG.cbl", strings.Join([]string{
		"       IDENTIFICATION DIVISION.",
		"       PROGRAM-ID. PROG.",
		"       DATA DIVISION.",
		"       WORKING-STORAGE SECTION.",
		"       COPY CUSTREC.",
		"       PROCEDURE DIVISION.",
		"       STOP RUN.",
	}, "\n")+"\n")

	cfg := config.Default()
	cfg.InputDir = inputDir
	cfg.OutputDir = outputDir
	cfg.NamingScheme = naming.Numeric
	cfg.Overwrite = true

	runner := New(cfg, nil)
	result, err := runner.Run()
	require.NoError(t, err)

	copybookEntry, ok := result.MappingTable.Lookup("CUSTREC")
	require.True(t, ok)
	assert.Equal(t, classify.RoleCopybookName, copybookEntry.Role)

	copyFiles, err := filepath.Glob(filepath.Join(outputDir, "*.cpy"))
	require.NoError(t, err)
	require.Len(t, copyFiles, 1)
	assert.Equal(t, copybookEntry.AnonymizedName+".cpy", filepath.Base(copyFiles[0]))

	progFiles, err := filepath.Glob(filepath.Join(outputDir, "*.cbl"))
	require.NoError(t, err)
	require.Len(t, progFiles, 1)

	written, err := os.ReadFile(progFiles[0])
	require.NoError(t, err)
	assert.Contains(t, string(written), "COPY "+copybookEntry.AnonymizedName)
	assert.NotContains(t, string(written), "COPY CUSTREC")
}

func TestRunPreservesCRLFLineEndingsAndFinalMissingNewline(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	content := strings.Join([]string{
		"       IDENTIFICATION DIVISION.",
		"       PROGRAM-ID. PROG.",
		"       PROCEDURE DIVISION.",
		"       STOP RUN.",
	}, "\r\n")
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "PROG.cbl"), []byte(content), 0o644))

	cfg := config.Default()
	cfg.InputDir = inputDir
	cfg.OutputDir = outputDir
	cfg.Overwrite = true

	runner := New(cfg, nil)
	_, err := runner.Run()
	require.NoError(t, err)

	outFiles, err := filepath.Glob(filepath.Join(outputDir, "*.cbl"))
	require.NoError(t, err)
	require.Len(t, outFiles, 1)

	written, err := os.ReadFile(outFiles[0])
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(written), "\r\n"))
	assert.False(t, strings.HasSuffix(string(written), "\n"))
	assert.False(t, strings.HasSuffix(string(written), "\r"))
}

func TestRunDryRunWritesNoFiles(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	writeFixture(t, inputDir, "PROG.cbl", strings.Join([]string{
		"       IDENTIFICATION DIVISION.",
		"       PROGRAM-ID. PROG.",
		"       PROCEDURE DIVISION.",
		"       STOP RUN.",
	}, "\n")+"\n")

	cfg := config.Default()
	cfg.InputDir = inputDir
	cfg.OutputDir = outputDir
	cfg.DryRun = true

	runner := New(cfg, nil)
	_, err := runner.Run()
	require.NoError(t, err)

	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunRefusesToOverwriteExistingOutputWithoutFlag(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	writeFixture(t, inputDir, "PROG.cbl", strings.Join([]string{
		"       IDENTIFICATION DIVISION.",
		"       PROGRAM-ID. PROG.",
		"       PROCEDURE DIVISION.",
		"       STOP RUN.",
	}, "\n")+"\n")

	cfg := config.Default()
	cfg.InputDir = inputDir
	cfg.OutputDir = outputDir
	cfg.NamingScheme = naming.Numeric
	cfg.Overwrite = true

	runner := New(cfg, nil)
	_, err := runner.Run()
	require.NoError(t, err)

	// Naming is deterministic for a fresh table over identical input, so a
	// second run against the same (now populated) output directory lands
	// on the same renamed file and must refuse to clobber it.
	cfg.Overwrite = false
	runner = New(cfg, nil)
	_, err = runner.Run()
	assert.Error(t, err)
}
