package record

import (
	"fmt"
	"strings"
)

// Row represents one validated CSV row.
//
// A row either declares a main issue (all of Summary, Description and
// IssueType set) or is blank on those three fields; partial declarations are
// rejected. Subtask fields are optional but must be paired.
type Row struct {
	// Line is the 1-based line number in the source file, header included.
	Line int

	ID                 string
	ProjectKey         string
	Summary            string
	Description        string
	IssueType          string
	SubtaskSummary     string
	SubtaskDescription string
}

// ValidationError reports a malformed row with its line number and the
// violated constraint.
type ValidationError struct {
	Line   int
	Field  string
	Reason string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("row %d: %s: %s", e.Line, e.Field, e.Reason)
}

// NewRow builds a Row from raw CSV cell values, trimming whitespace and
// validating field-level constraints. The project key is upper-cased.
func NewRow(line int, id, projectKey, summary, description, issueType, subtaskSummary, subtaskDescription string) (Row, error) {
	r := Row{
		Line:               line,
		ID:                 strings.TrimSpace(id),
		ProjectKey:         strings.ToUpper(strings.TrimSpace(projectKey)),
		Summary:            strings.TrimSpace(summary),
		Description:        strings.TrimSpace(description),
		IssueType:          strings.TrimSpace(issueType),
		SubtaskSummary:     strings.TrimSpace(subtaskSummary),
		SubtaskDescription: strings.TrimSpace(subtaskDescription),
	}

	if err := r.validate(); err != nil {
		return Row{}, err
	}
	return r, nil
}

func (r Row) validate() error {
	if r.ID == "" {
		return &ValidationError{Line: r.Line, Field: "id", Reason: "cannot be empty"}
	}
	if r.ProjectKey == "" {
		return &ValidationError{Line: r.Line, Field: "project_key", Reason: "cannot be empty"}
	}

	// The main-issue triplet is all-or-nothing.
	main := 0
	for _, v := range []string{r.Summary, r.Description, r.IssueType} {
		if v != "" {
			main++
		}
	}
	if main != 0 && main != 3 {
		return &ValidationError{
			Line:   r.Line,
			Field:  "summary/description/issue_type",
			Reason: "must be set together or all left empty",
		}
	}

	if r.SubtaskSummary != "" && r.SubtaskDescription == "" {
		return &ValidationError{Line: r.Line, Field: "subtask_description", Reason: "required when subtask_summary is set"}
	}
	if r.SubtaskDescription != "" && r.SubtaskSummary == "" {
		return &ValidationError{Line: r.Line, Field: "subtask_summary", Reason: "required when subtask_description is set"}
	}

	return nil
}

// IsMain reports whether the row carries a complete main-issue declaration.
func (r Row) IsMain() bool {
	return r.Summary != "" && r.Description != "" && r.IssueType != ""
}

// HasSubtask reports whether the row contributes a subtask.
func (r Row) HasSubtask() bool {
	return r.SubtaskSummary != "" && r.SubtaskDescription != ""
}
