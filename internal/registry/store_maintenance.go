package registry

import (
	"context"
	"fmt"
)

// Stats returns a count of episodes grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM episodes GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("registry stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates episode state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusDiscovered:
			health.Discovered += count
		case StatusDownloaded:
			health.Downloaded += count
		case StatusDigested:
			health.Completed += count
		case StatusFailed:
			health.Failed += count
		case StatusAbandoned:
			health.Abandoned += count
		default:
			if _, ok := processingStatuses[status]; ok {
				health.InFlight += count
			}
		}
	}
	return health, nil
}

// RecentErrors returns the most recently failed or abandoned episodes.
func (s *Store) RecentErrors(ctx context.Context, limit int) ([]*Episode, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+episodeColumns+` FROM episodes
         WHERE status IN (?, ?) ORDER BY updated_at DESC LIMIT ?`,
		StatusFailed,
		StatusAbandoned,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent errors: %w", err)
	}
	defer rows.Close()

	var episodes []*Episode
	for rows.Next() {
		episode, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, episode)
	}
	return episodes, rows.Err()
}
