package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// DataStats holds aggregate statistics about all stored data.
type DataStats struct {
	TotalTemplates       int            `json:"total_templates"`
	TotalInstances       int            `json:"total_instances"`
	InstancesByStatus    map[string]int `json:"instances_by_status"`
	TotalProgressRecords int            `json:"total_progress_records"`
	TotalCompletedSets   int            `json:"total_completed_sets"`
	EarliestSession      *string        `json:"earliest_session"`
	LatestSession        *string        `json:"latest_session"`
	TemplatesByTag       []TagStat      `json:"templates_by_tag"`
}

// TagStat counts templates carrying one tag.
type TagStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// GetDataStats returns aggregate statistics for the stored collections.
func (s *Store) GetDataStats(ctx context.Context) (*DataStats, error) {
	stats := &DataStats{
		InstancesByStatus: map[string]int{},
		TemplatesByTag:    []TagStat{},
	}

	templates, err := s.LoadSessionTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting templates: %w", err)
	}
	stats.TotalTemplates = len(templates)

	tagCounts := map[string]*TagStat{}
	for _, t := range templates {
		for _, tag := range t.Tags {
			k := strings.ToLower(tag)
			if tagCounts[k] == nil {
				tagCounts[k] = &TagStat{Name: tag}
			}
			tagCounts[k].Count++
		}
	}
	for _, ts := range tagCounts {
		stats.TemplatesByTag = append(stats.TemplatesByTag, *ts)
	}
	sort.Slice(stats.TemplatesByTag, func(i, j int) bool {
		a, b := stats.TemplatesByTag[i], stats.TemplatesByTag[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	})

	instances, err := s.LoadSessionInstances(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting instances: %w", err)
	}
	stats.TotalInstances = len(instances)
	for _, inst := range instances {
		stats.InstancesByStatus[string(inst.Status)]++
		d := inst.Date
		if stats.EarliestSession == nil || d < *stats.EarliestSession {
			stats.EarliestSession = &d
		}
		if stats.LatestSession == nil || d > *stats.LatestSession {
			stats.LatestSession = &d
		}
	}

	progress, err := s.LoadWorkoutProgress(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting progress: %w", err)
	}
	stats.TotalProgressRecords = len(progress)
	for _, p := range progress {
		stats.TotalCompletedSets += p.CompletedSets()
	}

	return stats, nil
}
