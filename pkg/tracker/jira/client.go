// Package jira implements the tracker contract against the Jira REST API.
package jira

import (
	"context"
	"fmt"

	gojira "github.com/andygrunwald/go-jira"

	"github.com/csvjira/csvjira/pkg/tracker"
)

// SubtaskIssueType is the Jira issue type used for subtasks.
const SubtaskIssueType = "Sub-task"

// Client is a Jira-backed tracker client.
type Client struct {
	jira *gojira.Client
}

// NewClient creates a Jira client authenticated with basic auth (username +
// API token).
func NewClient(baseURL, username, token string) (*Client, error) {
	tp := gojira.BasicAuthTransport{
		Username: username,
		Password: token,
	}

	jc, err := gojira.NewClient(tp.Client(), baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %w", err)
	}

	return &Client{jira: jc}, nil
}

// CreateIssue creates a main issue and returns its issue key.
func (c *Client) CreateIssue(ctx context.Context, issue tracker.NewIssue) (string, error) {
	fields := &gojira.IssueFields{
		Project:     gojira.Project{Key: issue.ProjectKey},
		Summary:     issue.Summary,
		Description: issue.Description,
		Type:        gojira.IssueType{Name: issue.IssueType},
	}

	created, resp, err := c.jira.Issue.CreateWithContext(ctx, &gojira.Issue{Fields: fields})
	if err != nil {
		return "", classify("create issue", resp, err)
	}

	return created.Key, nil
}

// CreateSubtask creates a subtask under parentKey and returns its issue key.
func (c *Client) CreateSubtask(ctx context.Context, parentKey string, subtask tracker.NewSubtask) (string, error) {
	fields := &gojira.IssueFields{
		Project:     gojira.Project{Key: subtask.ProjectKey},
		Summary:     subtask.Summary,
		Description: subtask.Description,
		Type:        gojira.IssueType{Name: SubtaskIssueType},
		Parent:      &gojira.Parent{Key: parentKey},
	}

	created, resp, err := c.jira.Issue.CreateWithContext(ctx, &gojira.Issue{Fields: fields})
	if err != nil {
		return "", classify("create subtask", resp, err)
	}

	return created.Key, nil
}

// TestConnection verifies credentials by fetching the current user.
func (c *Client) TestConnection(ctx context.Context) error {
	if _, resp, err := c.jira.User.GetSelfWithContext(ctx); err != nil {
		return classify("test connection", resp, err)
	}
	return nil
}

// classify converts a go-jira error into a tracker error using the response
// status when one was received.
func classify(op string, resp *gojira.Response, err error) *tracker.Error {
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	return tracker.FromHTTPError(op, status, err)
}
