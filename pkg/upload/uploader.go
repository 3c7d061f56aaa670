// Package upload drives issue creation against a remote tracker, one group
// at a time, with bounded exponential-backoff retry and per-entity failure
// recording.
package upload

import (
	"context"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/csvjira/csvjira/pkg/group"
	"github.com/csvjira/csvjira/pkg/tracker"
)

// Options configures the retry policy.
type Options struct {
	// RetryAttempts is the number of retries after the initial attempt.
	// Zero disables retrying.
	RetryAttempts uint64
	// RetryBaseDelay is the delay before the first retry; it doubles on
	// each subsequent retry.
	RetryBaseDelay time.Duration
}

// Uploader creates issues and subtasks for validated groups.
type Uploader struct {
	client tracker.Client
	opts   Options
	log    *logrus.Logger
}

// New creates an Uploader. A nil logger discards all log output.
func New(client tracker.Client, opts Options, log *logrus.Logger) *Uploader {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Uploader{client: client, opts: opts, log: log}
}

// Run uploads every group in order. Remote failures are recorded per entity
// and never abort the run; a group whose main issue fails has its subtasks
// skipped, since they have no parent to attach to.
//
// Creations are not idempotent: re-running after a partial failure will
// recreate entities that already succeeded.
func (u *Uploader) Run(ctx context.Context, groups []group.Group) *Summary {
	summary := &Summary{Groups: len(groups)}

	for _, g := range groups {
		u.uploadGroup(ctx, g, summary)
	}

	u.log.WithFields(logrus.Fields{
		"groups":           summary.Groups,
		"main_created":     summary.MainCreated,
		"main_failed":      summary.MainFailed,
		"subtasks_created": summary.SubtasksCreated,
		"subtasks_failed":  summary.SubtasksFailed,
	}).Info("upload run finished")

	return summary
}

func (u *Uploader) uploadGroup(ctx context.Context, g group.Group, summary *Summary) {
	log := u.log.WithField("group", g.ID)
	log.WithField("summary", g.Main.Summary).Info("creating main issue")

	parentKey, err := u.createWithRetry(ctx, func(ctx context.Context) (string, error) {
		return u.client.CreateIssue(ctx, tracker.NewIssue{
			ProjectKey:  g.Main.ProjectKey,
			Summary:     g.Main.Summary,
			Description: g.Main.Description,
			IssueType:   g.Main.IssueType,
		})
	})
	if err != nil {
		log.WithError(err).Error("main issue creation failed, skipping subtasks")
		summary.record(Result{
			GroupID: g.ID,
			Kind:    KindMain,
			Summary: g.Main.Summary,
			Error:   err.Error(),
		})
		return
	}

	log.WithField("key", parentKey).Info("created main issue")
	summary.record(Result{
		GroupID: g.ID,
		Kind:    KindMain,
		Summary: g.Main.Summary,
		Key:     parentKey,
	})

	for _, st := range g.Subtasks {
		key, err := u.createWithRetry(ctx, func(ctx context.Context) (string, error) {
			return u.client.CreateSubtask(ctx, parentKey, tracker.NewSubtask{
				ProjectKey:  g.Main.ProjectKey,
				Summary:     st.Summary,
				Description: st.Description,
			})
		})
		if err != nil {
			log.WithError(err).WithField("subtask", st.Summary).Error("subtask creation failed")
			summary.record(Result{
				GroupID: g.ID,
				Kind:    KindSubtask,
				Summary: st.Summary,
				Error:   err.Error(),
			})
			continue
		}

		log.WithFields(logrus.Fields{"key": key, "subtask": st.Summary}).Info("created subtask")
		summary.record(Result{
			GroupID: g.ID,
			Kind:    KindSubtask,
			Summary: st.Summary,
			Key:     key,
		})
	}
}

// createWithRetry runs one creation call under the retry policy. Fatal
// errors stop immediately; retryable errors are retried with the delay
// doubling from the base until the attempt ceiling is reached.
func (u *Uploader) createWithRetry(ctx context.Context, create func(ctx context.Context) (string, error)) (string, error) {
	var key string

	operation := func() error {
		k, err := create(ctx)
		if err != nil {
			if tracker.IsRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		key = k
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(u.newBackoff(), ctx))
	if err != nil {
		return "", err
	}
	return key, nil
}

// newBackoff builds the retry schedule. BackOff implementations are
// stateful; always return a fresh instance.
func (u *Uploader) newBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = u.opts.RetryBaseDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	return backoff.WithMaxRetries(bo, u.opts.RetryAttempts)
}
