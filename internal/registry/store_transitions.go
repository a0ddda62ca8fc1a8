package registry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// activeStatuses are the states from which an episode may still fail.
var activeStatuses = []Status{
	StatusDiscovered,
	StatusDownloading,
	StatusDownloaded,
	StatusTranscribing,
	StatusTranscribed,
	StatusSummarizing,
	StatusSummarized,
}

// MarkStatus advances an episode to next with a single conditional update.
// The update only matches rows whose current status permits the transition;
// anything else reports ErrInvalidTransition with the actual state. Moving to
// failed routes through MarkFailed so retry accounting stays in one place.
func (s *Store) MarkStatus(ctx context.Context, id int64, next Status, errMsg string) error {
	if _, ok := statusSet[next]; !ok {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}
	if next == StatusFailed {
		return s.MarkFailed(ctx, id, errMsg)
	}

	sources := transitionSources(next)
	if len(sources) == 0 {
		return fmt.Errorf("%w: %q is not reachable", ErrInvalidTransition, next)
	}

	placeholders := makePlaceholders(len(sources))
	args := make([]any, 0, len(sources)+4)
	args = append(args,
		next,
		nullableString(errMsg),
		formatTime(time.Now()),
		id,
	)
	for _, source := range sources {
		args = append(args, source)
	}

	res, err := s.execWithRetry(
		ctx,
		`UPDATE episodes SET status = ?, error_message = ?, updated_at = ?
         WHERE id = ? AND status IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("mark status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return s.transitionConflict(ctx, id, next)
	}
	return nil
}

// Claim transitions a discovered episode to downloading. The update is
// conditional on the current status, so concurrent workers racing for the
// same episode see exactly one winner. Losing the race is reported as false,
// not an error.
func (s *Store) Claim(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE episodes SET status = ?, error_message = NULL, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusDownloading,
		formatTime(time.Now()),
		id,
		StatusDiscovered,
	)
	if err != nil {
		return false, fmt.Errorf("claim episode: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// MarkDownloaded completes a download, recording where the audio landed.
func (s *Store) MarkDownloaded(ctx context.Context, id int64, audioPath string) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE episodes SET status = ?, audio_path = ?, error_message = NULL, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusDownloaded,
		audioPath,
		formatTime(time.Now()),
		id,
		StatusDownloading,
	)
	if err != nil {
		return fmt.Errorf("mark downloaded: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return s.transitionConflict(ctx, id, StatusDownloaded)
	}
	return nil
}

// MarkFailed records a failure against an active episode. The attempt count
// increments and the status the episode failed from is preserved so a later
// retry resumes the right stage. Reaching the configured retry limit moves
// the episode to abandoned instead.
func (s *Store) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	placeholders := makePlaceholders(len(activeStatuses))
	args := make([]any, 0, len(activeStatuses)+12)
	args = append(args,
		StatusDownloading, StatusDiscovered,
		StatusTranscribing, StatusDownloaded,
		StatusSummarizing, StatusTranscribed,
		s.retryLimit, StatusAbandoned, StatusFailed,
		nullableString(errMsg),
		formatTime(time.Now()),
		id,
	)
	for _, status := range activeStatuses {
		args = append(args, status)
	}

	res, err := s.execWithRetry(
		ctx,
		`UPDATE episodes
         SET retry_count = retry_count + 1,
             resume_status = CASE status
                 WHEN ? THEN ?
                 WHEN ? THEN ?
                 WHEN ? THEN ?
                 ELSE status
             END,
             status = CASE WHEN retry_count + 1 >= ? THEN ? ELSE ? END,
             error_message = ?,
             updated_at = ?
         WHERE id = ? AND status IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return s.transitionConflict(ctx, id, StatusFailed)
	}
	return nil
}

// ResetFailed moves failed episodes back to the status they failed from so
// the next run re-attempts them. An empty id list resets every failed
// episode.
func (s *Store) ResetFailed(ctx context.Context, ids ...int64) (int64, error) {
	timestamp := formatTime(time.Now())

	if len(ids) == 0 {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE episodes
             SET status = COALESCE(resume_status, ?), error_message = NULL, updated_at = ?
             WHERE status = ?`,
			StatusDiscovered,
			timestamp,
			StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("reset failed episodes: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+3)
	args = append(args, StatusDiscovered, timestamp, StatusFailed)
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE episodes
         SET status = COALESCE(resume_status, ?), error_message = NULL, updated_at = ?
         WHERE status = ? AND id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("reset selected episodes: %w", err)
	}
	return res.RowsAffected()
}

// ResetAbandoned gives abandoned episodes a fresh set of attempts. Retry
// accounting restarts from zero; the resume status decides where each
// episode re-enters the lifecycle.
func (s *Store) ResetAbandoned(ctx context.Context, ids ...int64) (int64, error) {
	timestamp := formatTime(time.Now())

	if len(ids) == 0 {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE episodes
             SET status = COALESCE(resume_status, ?), retry_count = 0,
                 error_message = NULL, updated_at = ?
             WHERE status = ?`,
			StatusDiscovered,
			timestamp,
			StatusAbandoned,
		)
		if err != nil {
			return 0, fmt.Errorf("reset abandoned episodes: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+3)
	args = append(args, StatusDiscovered, timestamp, StatusAbandoned)
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE episodes
         SET status = COALESCE(resume_status, ?), retry_count = 0,
             error_message = NULL, updated_at = ?
         WHERE status = ? AND id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("reset selected abandoned episodes: %w", err)
	}
	return res.RowsAffected()
}

// ReclaimStaleDownloads returns downloading episodes whose claim went quiet
// before the cutoff back to discovered. Crashed workers never release their
// claims; this sweep is what makes those episodes eligible again.
func (s *Store) ReclaimStaleDownloads(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE episodes SET status = ?, updated_at = ?
         WHERE status = ? AND updated_at < ?`,
		StatusDiscovered,
		formatTime(time.Now()),
		StatusDownloading,
		formatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale downloads: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) transitionConflict(ctx context.Context, id int64, next Status) error {
	current, err := s.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("episode %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("episode %d: %w: %s -> %s", id, ErrInvalidTransition, current.Status, next)
}
