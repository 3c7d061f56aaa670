package record

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "ID,Project Key,Summary,Description,Issue Type,Subtask Summary,Subtask Description\n"

func TestRead_ValidFile(t *testing.T) {
	input := header +
		"1,PROJ,Fix login,Login is broken,Bug,,\n" +
		"1,PROJ,,,,Write test,Cover the regression\n" +
		"2,PROJ,Add search,Users want search,Story,,\n"

	rows, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "1", rows[0].ID)
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "Write test", rows[1].SubtaskSummary)
	assert.Equal(t, 3, rows[1].Line)
	assert.Equal(t, "2", rows[2].ID)
	assert.Equal(t, 4, rows[2].Line)
}

func TestRead_EmptyFile(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	assert.ErrorContains(t, err, "empty")
}

func TestRead_MissingColumns(t *testing.T) {
	input := "ID,Project Key,Summary\n1,PROJ,Fix login\n"

	_, err := Read(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required columns")
	assert.Contains(t, err.Error(), "Description")
	assert.Contains(t, err.Error(), "Subtask Summary")
}

func TestRead_DuplicateColumns(t *testing.T) {
	input := "ID,Project Key,Summary,Description,Issue Type,Subtask Summary,Subtask Description,Summary\n" +
		"1,PROJ,Fix login,Login is broken,Bug,,,Shadowed\n"

	_, err := Read(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate columns")
	assert.Contains(t, err.Error(), "Summary")
}

func TestRead_ExtraColumnsIgnored(t *testing.T) {
	input := "Reporter,ID,Project Key,Summary,Description,Issue Type,Subtask Summary,Subtask Description\n" +
		"alice,1,PROJ,Fix login,Login is broken,Bug,,\n"

	rows, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Fix login", rows[0].Summary)
}

func TestRead_CollectsAllRowErrors(t *testing.T) {
	input := header +
		",PROJ,Fix login,Broken,Bug,,\n" + // missing id
		"2,PROJ,Fix login,,Bug,,\n" + // partial main triplet
		"3,PROJ,Add search,Wanted,Story,,\n" // valid

	_, err := Read(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
	assert.Contains(t, err.Error(), "row 3")
	assert.NotContains(t, err.Error(), "row 4")
}

func TestRead_ShortRow(t *testing.T) {
	// Rows shorter than the header read as empty trailing cells.
	input := header + "1,PROJ,Fix login,Login is broken,Bug\n"

	rows, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].SubtaskSummary)
}

func TestReadFile_NotFound(t *testing.T) {
	_, err := ReadFile("testdata/does-not-exist.csv")
	assert.ErrorContains(t, err, "failed to open csv file")
}
