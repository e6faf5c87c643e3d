package store

import (
	"fmt"
	"time"
)

// timelineDays is the dashboard's creation-timeline window.
const timelineDays = 30

// ProjectCount summarizes one project for the dashboard's project picker.
type ProjectCount struct {
	Project      string    `json:"project"`
	Count        int       `json:"count"`
	AverageScore float64   `json:"average_score"`
	LastCreated  time.Time `json:"last_created"`
}

// Stats aggregates the whole store for the dashboard overview.
func (s *Store) Stats() (*Stats, error) {
	st := &Stats{
		Categories:     map[string]CategoryStats{},
		ScoreHistogram: make([]int, 10),
		Timeline:       []DayCount{},
	}

	err := s.db.QueryRow(`
		SELECT COUNT(*), COUNT(DISTINCT project), COALESCE(AVG(score), 0)
		FROM memories`).Scan(&st.TotalMemories, &st.Projects, &st.AverageScore)
	if err != nil {
		return nil, fmt.Errorf("memory totals: %w", err)
	}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&st.Sessions); err != nil {
		return nil, fmt.Errorf("session total: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT category, COUNT(*), COALESCE(AVG(score), 0)
		FROM memories GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("category stats: %w", err)
	}
	for rows.Next() {
		var (
			category string
			cs       CategoryStats
		)
		if err := rows.Scan(&category, &cs.Count, &cs.AverageScore); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan category stats: %w", err)
		}
		st.Categories[category] = cs
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Ten equal buckets over [0,1]; a perfect 1.0 lands in the top bucket.
	rows, err = s.db.Query(`
		SELECT min(9, CAST(score * 10 AS INTEGER)), COUNT(*)
		FROM memories WHERE score IS NOT NULL
		GROUP BY 1`)
	if err != nil {
		return nil, fmt.Errorf("score histogram: %w", err)
	}
	for rows.Next() {
		var bucket, count int
		if err := rows.Scan(&bucket, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan histogram: %w", err)
		}
		if bucket >= 0 && bucket < len(st.ScoreHistogram) {
			st.ScoreHistogram[bucket] = count
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -timelineDays).Format(time.RFC3339)
	rows, err = s.db.Query(`
		SELECT substr(created_at, 1, 10), COUNT(*)
		FROM memories WHERE created_at >= ?
		GROUP BY 1 ORDER BY 1`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("timeline: %w", err)
	}
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan timeline: %w", err)
		}
		st.Timeline = append(st.Timeline, dc)
	}
	rows.Close()
	return st, rows.Err()
}

// ProjectCounts lists every project with its memory count, newest first.
func (s *Store) ProjectCounts() ([]ProjectCount, error) {
	rows, err := s.db.Query(`
		SELECT project, COUNT(*), COALESCE(AVG(score), 0), COALESCE(MAX(created_at), '')
		FROM memories GROUP BY project ORDER BY MAX(created_at) DESC`)
	if err != nil {
		return nil, fmt.Errorf("project counts: %w", err)
	}
	defer rows.Close()

	var out []ProjectCount
	for rows.Next() {
		var (
			pc   ProjectCount
			last string
		)
		if err := rows.Scan(&pc.Project, &pc.Count, &pc.AverageScore, &last); err != nil {
			return nil, fmt.Errorf("scan project count: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, last); err == nil {
			pc.LastCreated = t.UTC()
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}
