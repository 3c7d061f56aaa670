// Package group clusters validated CSV rows into issue groups and checks
// their structure before anything is uploaded.
package group

import (
	"errors"
	"fmt"
	"strings"

	"github.com/csvjira/csvjira/pkg/record"
)

// Subtask is one subtask declaration collected from a row.
type Subtask struct {
	Line        int
	Summary     string
	Description string
}

// Group is a validated issue group: exactly one main row plus the subtasks
// contributed by every row of the group, in CSV row order.
type Group struct {
	ID       string
	Main     record.Row
	Subtasks []Subtask
}

// MissingMainError reports a group with no main-issue row.
type MissingMainError struct {
	GroupID string
}

func (e *MissingMainError) Error() string {
	return fmt.Sprintf("group %s: no main issue row found", e.GroupID)
}

// DuplicateMainError reports a group with more than one main-issue row.
type DuplicateMainError struct {
	GroupID string
	Lines   []int
}

func (e *DuplicateMainError) Error() string {
	lines := make([]string, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = fmt.Sprintf("%d", l)
	}
	return fmt.Sprintf("group %s: multiple main issue rows found (lines %s)", e.GroupID, strings.Join(lines, ", "))
}

// Build groups rows by ID, preserving first-seen order of group keys and
// intra-group row order. The returned groups are not yet validated.
func Build(rows []record.Row) [][]record.Row {
	byID := make(map[string][]record.Row)
	var order []string

	for _, row := range rows {
		if _, ok := byID[row.ID]; !ok {
			order = append(order, row.ID)
		}
		byID[row.ID] = append(byID[row.ID], row)
	}

	groups := make([][]record.Row, 0, len(order))
	for _, id := range order {
		groups = append(groups, byID[id])
	}
	return groups
}

// Validate checks that each raw group has exactly one main-issue row and
// promotes it to a Group. All violations across all groups are collected and
// returned joined; on any error the groups must not be uploaded.
func Validate(raw [][]record.Row) ([]Group, error) {
	groups := make([]Group, 0, len(raw))
	var errs []error

	for _, rows := range raw {
		g, err := validateOne(rows)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		groups = append(groups, g)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return groups, nil
}

func validateOne(rows []record.Row) (Group, error) {
	id := rows[0].ID

	var mainLines []int
	for _, row := range rows {
		if row.IsMain() {
			mainLines = append(mainLines, row.Line)
		}
	}

	switch len(mainLines) {
	case 0:
		return Group{}, &MissingMainError{GroupID: id}
	case 1:
	default:
		return Group{}, &DuplicateMainError{GroupID: id, Lines: mainLines}
	}

	g := Group{ID: id}
	for _, row := range rows {
		if row.IsMain() {
			g.Main = row
		}
		if row.HasSubtask() {
			g.Subtasks = append(g.Subtasks, Subtask{
				Line:        row.Line,
				Summary:     row.SubtaskSummary,
				Description: row.SubtaskDescription,
			})
		}
	}
	return g, nil
}
