// Package tracker defines the contract between the upload pipeline and a
// remote issue tracker. Concrete adapters live in subpackages.
package tracker

import "context"

// NewIssue is the data needed to create a main issue.
type NewIssue struct {
	ProjectKey  string
	Summary     string
	Description string
	IssueType   string
}

// NewSubtask is the data needed to create a subtask under an existing issue.
type NewSubtask struct {
	ProjectKey  string
	Summary     string
	Description string
}

// Client is a remote issue tracker. Implementations must return *Error so
// callers can distinguish retryable from fatal failures.
type Client interface {
	// CreateIssue creates a main issue and returns its remote key.
	CreateIssue(ctx context.Context, issue NewIssue) (string, error)

	// CreateSubtask creates a subtask under the issue identified by
	// parentKey and returns the subtask's remote key.
	CreateSubtask(ctx context.Context, parentKey string, subtask NewSubtask) (string, error)

	// TestConnection verifies that the tracker is reachable with the
	// configured credentials.
	TestConnection(ctx context.Context) error
}
