package upload

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csvjira/csvjira/pkg/group"
	"github.com/csvjira/csvjira/pkg/record"
	"github.com/csvjira/csvjira/pkg/tracker"
)

// fakeClient is a scripted tracker client. Each entity summary can be given
// a queue of errors to return before the call finally succeeds.
type fakeClient struct {
	failures map[string][]error
	calls    []string
	nextKey  int
}

func newFakeClient() *fakeClient {
	return &fakeClient{failures: make(map[string][]error)}
}

func (f *fakeClient) failWith(summary string, errs ...error) {
	f.failures[summary] = append(f.failures[summary], errs...)
}

func (f *fakeClient) respond(summary string) (string, error) {
	if errs := f.failures[summary]; len(errs) > 0 {
		f.failures[summary] = errs[1:]
		return "", errs[0]
	}
	f.nextKey++
	return fmt.Sprintf("KEY-%d", f.nextKey), nil
}

func (f *fakeClient) CreateIssue(ctx context.Context, issue tracker.NewIssue) (string, error) {
	f.calls = append(f.calls, "issue:"+issue.Summary)
	return f.respond(issue.Summary)
}

func (f *fakeClient) CreateSubtask(ctx context.Context, parentKey string, subtask tracker.NewSubtask) (string, error) {
	f.calls = append(f.calls, fmt.Sprintf("subtask:%s<-%s", subtask.Summary, parentKey))
	return f.respond(subtask.Summary)
}

func (f *fakeClient) TestConnection(ctx context.Context) error {
	return nil
}

func testOptions() Options {
	return Options{RetryAttempts: 3, RetryBaseDelay: time.Millisecond}
}

func mainRow(t *testing.T, id, summary string) record.Row {
	t.Helper()
	row, err := record.NewRow(2, id, "PROJ", summary, "Desc", "Task", "", "")
	require.NoError(t, err)
	return row
}

func testGroups(t *testing.T) []group.Group {
	t.Helper()
	return []group.Group{
		{
			ID:   "1",
			Main: mainRow(t, "1", "Main one"),
			Subtasks: []group.Subtask{
				{Line: 3, Summary: "Sub one", Description: "Desc"},
				{Line: 4, Summary: "Sub two", Description: "Desc"},
			},
		},
		{
			ID:   "2",
			Main: mainRow(t, "2", "Main two"),
		},
	}
}

func TestRun_AllSucceed(t *testing.T) {
	client := newFakeClient()
	uploader := New(client, testOptions(), nil)

	summary := uploader.Run(context.Background(), testGroups(t))

	assert.True(t, summary.OK())
	assert.Equal(t, 2, summary.Groups)
	assert.Equal(t, 2, summary.MainCreated)
	assert.Equal(t, 2, summary.SubtasksCreated)
	assert.Zero(t, summary.MainFailed)
	assert.Zero(t, summary.SubtasksFailed)
	assert.Empty(t, summary.Failures)

	// Main before its subtasks, groups in input order, subtasks in row
	// order, each subtask referencing the parent's key.
	assert.Equal(t, []string{
		"issue:Main one",
		"subtask:Sub one<-KEY-1",
		"subtask:Sub two<-KEY-1",
		"issue:Main two",
	}, client.calls)
}

func TestRun_MainFailureSkipsSubtasks(t *testing.T) {
	client := newFakeClient()
	client.failWith("Main one", tracker.NewFatalError("create issue", "bad project key", nil))
	uploader := New(client, testOptions(), nil)

	summary := uploader.Run(context.Background(), testGroups(t))

	assert.False(t, summary.OK())
	assert.Equal(t, 1, summary.MainFailed)
	assert.Equal(t, 1, summary.MainCreated)
	assert.Zero(t, summary.SubtasksCreated, "failed group's subtasks must be skipped")
	assert.Zero(t, summary.SubtasksFailed)

	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "1", summary.Failures[0].GroupID)
	assert.Equal(t, KindMain, summary.Failures[0].Kind)
	assert.Contains(t, summary.Failures[0].Error, "bad project key")

	// The second group still runs.
	assert.Equal(t, []string{"issue:Main one", "issue:Main two"}, client.calls)
}

func TestRun_RetryableErrorIsRetried(t *testing.T) {
	client := newFakeClient()
	client.failWith("Main two",
		tracker.NewRetryableError("create issue", "rate limited", nil),
		tracker.NewRetryableError("create issue", "rate limited", nil),
	)
	uploader := New(client, testOptions(), nil)

	summary := uploader.Run(context.Background(), testGroups(t))

	assert.True(t, summary.OK())
	// Two transient failures, then success on the third attempt.
	attempts := 0
	for _, c := range client.calls {
		if c == "issue:Main two" {
			attempts++
		}
	}
	assert.Equal(t, 3, attempts)
}

func TestRun_RetryCeiling(t *testing.T) {
	client := newFakeClient()
	for i := 0; i < 10; i++ {
		client.failWith("Main one", tracker.NewRetryableError("create issue", "timeout", nil))
	}
	uploader := New(client, Options{RetryAttempts: 2, RetryBaseDelay: time.Millisecond}, nil)

	summary := uploader.Run(context.Background(), testGroups(t)[:1])

	assert.False(t, summary.OK())
	assert.Equal(t, 1, summary.MainFailed)
	// Initial attempt plus two retries, never more.
	assert.Len(t, client.calls, 3)
}

func TestRun_FatalErrorNotRetried(t *testing.T) {
	client := newFakeClient()
	client.failWith("Main one", tracker.NewFatalError("create issue", "permission denied", nil))
	uploader := New(client, testOptions(), nil)

	uploader.Run(context.Background(), testGroups(t)[:1])

	assert.Len(t, client.calls, 1, "fatal errors must not be retried")
}

func TestRun_ZeroRetryAttempts(t *testing.T) {
	client := newFakeClient()
	client.failWith("Main one", tracker.NewRetryableError("create issue", "timeout", nil))
	uploader := New(client, Options{RetryAttempts: 0, RetryBaseDelay: time.Millisecond}, nil)

	summary := uploader.Run(context.Background(), testGroups(t)[:1])

	assert.False(t, summary.OK())
	assert.Len(t, client.calls, 1)
}

func TestRun_SubtaskFailureDoesNotBlockSiblings(t *testing.T) {
	client := newFakeClient()
	client.failWith("Sub one", tracker.NewFatalError("create subtask", "field validation failed", nil))
	uploader := New(client, testOptions(), nil)

	summary := uploader.Run(context.Background(), testGroups(t))

	assert.False(t, summary.OK())
	assert.Equal(t, 2, summary.MainCreated)
	assert.Equal(t, 1, summary.SubtasksCreated)
	assert.Equal(t, 1, summary.SubtasksFailed)

	require.Len(t, summary.Failures, 1)
	assert.Equal(t, KindSubtask, summary.Failures[0].Kind)
	assert.Equal(t, "1", summary.Failures[0].GroupID)

	// Sibling subtask still attempted after the failure.
	assert.Contains(t, client.calls, "subtask:Sub two<-KEY-1")
}

func TestRun_EmptyInput(t *testing.T) {
	uploader := New(newFakeClient(), testOptions(), nil)

	summary := uploader.Run(context.Background(), nil)

	assert.True(t, summary.OK())
	assert.Zero(t, summary.Groups)
	assert.Empty(t, summary.Results)
}

func TestRun_ResultOrder(t *testing.T) {
	client := newFakeClient()
	uploader := New(client, testOptions(), nil)

	summary := uploader.Run(context.Background(), testGroups(t))

	require.Len(t, summary.Results, 4)
	assert.Equal(t, KindMain, summary.Results[0].Kind)
	assert.Equal(t, "Sub one", summary.Results[1].Summary)
	assert.Equal(t, "Sub two", summary.Results[2].Summary)
	assert.Equal(t, "Main two", summary.Results[3].Summary)
}

func TestNewBackoff_DelayDoubles(t *testing.T) {
	u := New(newFakeClient(), Options{RetryAttempts: 3, RetryBaseDelay: 100 * time.Millisecond}, nil)

	bo := u.newBackoff()
	assert.Equal(t, 100*time.Millisecond, bo.NextBackOff())
	assert.Equal(t, 200*time.Millisecond, bo.NextBackOff())
	assert.Equal(t, 400*time.Millisecond, bo.NextBackOff())
	assert.Equal(t, backoff.Stop, bo.NextBackOff(), "schedule must stop at the attempt ceiling")
}

func TestSummary_OK(t *testing.T) {
	s := &Summary{}
	assert.True(t, s.OK())

	s.record(Result{GroupID: "1", Kind: KindMain, Key: "KEY-1"})
	assert.True(t, s.OK())

	s.record(Result{GroupID: "1", Kind: KindSubtask, Error: "boom"})
	assert.False(t, s.OK())
}
