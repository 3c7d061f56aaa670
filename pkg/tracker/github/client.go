// Package github implements the tracker contract against the GitHub API,
// mapping the project key to an "owner/repo" repository, the issue type to a
// label, and subtasks to GitHub sub-issues.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cli/go-gh/v2/pkg/api"

	"github.com/csvjira/csvjira/pkg/tracker"
)

// Client is a GitHub-backed tracker client.
type Client struct {
	rest *api.RESTClient
	gql  *api.GraphQLClient
}

// NewClient creates a GitHub client using ambient gh credentials.
func NewClient() (*Client, error) {
	restClient, err := api.DefaultRESTClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create REST client: %w", err)
	}

	gqlClient, err := api.DefaultGraphQLClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create GraphQL client: %w", err)
	}

	return &Client{rest: restClient, gql: gqlClient}, nil
}

// issueResponse is the subset of the create-issue response we consume.
type issueResponse struct {
	NodeID  string `json:"node_id"`
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
}

// CreateIssue creates an issue and returns "owner/repo#number" as its key.
func (c *Client) CreateIssue(ctx context.Context, issue tracker.NewIssue) (string, error) {
	owner, repo, err := splitRepo(issue.ProjectKey)
	if err != nil {
		return "", tracker.NewFatalError("create issue", "invalid project key", err)
	}

	body := issue.Description
	request := map[string]interface{}{
		"title": issue.Summary,
	}
	if body != "" {
		request["body"] = body
	}
	if issue.IssueType != "" {
		request["labels"] = []string{issue.IssueType}
	}

	created, err := c.postIssue(ctx, owner, repo, request)
	if err != nil {
		return "", classify("create issue", err)
	}

	return fmt.Sprintf("%s/%s#%d", owner, repo, created.Number), nil
}

// CreateSubtask creates an issue and links it to the parent as a sub-issue.
func (c *Client) CreateSubtask(ctx context.Context, parentKey string, subtask tracker.NewSubtask) (string, error) {
	owner, repo, parentNumber, err := parseKey(parentKey)
	if err != nil {
		return "", tracker.NewFatalError("create subtask", "invalid parent key", err)
	}

	request := map[string]interface{}{
		"title": subtask.Summary,
	}
	if subtask.Description != "" {
		request["body"] = subtask.Description
	}

	created, err := c.postIssue(ctx, owner, repo, request)
	if err != nil {
		return "", classify("create subtask", err)
	}

	parentNodeID, err := c.issueNodeID(ctx, owner, repo, parentNumber)
	if err != nil {
		return "", classify("create subtask", err)
	}

	if err := c.addSubIssue(parentNodeID, created.NodeID); err != nil {
		return "", classify("create subtask", err)
	}

	return fmt.Sprintf("%s/%s#%d", owner, repo, created.Number), nil
}

// TestConnection verifies credentials by fetching the authenticated user.
func (c *Client) TestConnection(ctx context.Context) error {
	var user struct {
		Login string `json:"login"`
	}
	if err := c.rest.DoWithContext(ctx, "GET", "user", nil, &user); err != nil {
		return classify("test connection", err)
	}
	return nil
}

func (c *Client) postIssue(ctx context.Context, owner, repo string, request map[string]interface{}) (*issueResponse, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	path := fmt.Sprintf("repos/%s/%s/issues", owner, repo)

	var response issueResponse
	if err := c.rest.DoWithContext(ctx, "POST", path, bytes.NewReader(jsonData), &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *Client) issueNodeID(ctx context.Context, owner, repo string, number int) (string, error) {
	var response issueResponse
	path := fmt.Sprintf("repos/%s/%s/issues/%d", owner, repo, number)
	if err := c.rest.DoWithContext(ctx, "GET", path, nil, &response); err != nil {
		return "", err
	}
	return response.NodeID, nil
}

// addSubIssue links child to parent using the sub-issues GraphQL mutation.
func (c *Client) addSubIssue(parentID, childID string) error {
	mutation := `
		mutation($issueId: ID!, $subIssueId: ID!) {
			addSubIssue(input: {issueId: $issueId, subIssueId: $subIssueId}) {
				issue {
					id
				}
			}
		}`

	variables := map[string]interface{}{
		"issueId":    parentID,
		"subIssueId": childID,
	}

	var result struct {
		AddSubIssue struct {
			Issue struct {
				ID string `json:"id"`
			} `json:"issue"`
		} `json:"addSubIssue"`
	}

	return c.gql.Do(mutation, variables, &result)
}

// classify converts a go-gh error into a tracker error using the HTTP status
// when one was received.
func classify(op string, err error) *tracker.Error {
	var httpErr *api.HTTPError
	if errors.As(err, &httpErr) {
		return tracker.FromHTTPError(op, httpErr.StatusCode, err)
	}

	var gqlErr *api.GraphQLError
	if errors.As(err, &gqlErr) {
		// GraphQL errors arrive with a 200; NOT_FOUND and friends are
		// data problems, not transient ones.
		return tracker.NewFatalError(op, "graphql request failed", err)
	}

	return tracker.FromHTTPError(op, 0, err)
}

func splitRepo(projectKey string) (owner, repo string, err error) {
	parts := strings.Split(projectKey, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("project key %q must be in 'owner/repo' format", projectKey)
	}
	return parts[0], parts[1], nil
}

// parseKey splits an "owner/repo#number" issue key.
func parseKey(key string) (owner, repo string, number int, err error) {
	repoPart, numberPart, ok := strings.Cut(key, "#")
	if !ok {
		return "", "", 0, fmt.Errorf("issue key %q must be in 'owner/repo#number' format", key)
	}

	owner, repo, err = splitRepo(repoPart)
	if err != nil {
		return "", "", 0, err
	}

	number, err = strconv.Atoi(numberPart)
	if err != nil {
		return "", "", 0, fmt.Errorf("issue key %q has an invalid issue number", key)
	}

	return owner, repo, number, nil
}
