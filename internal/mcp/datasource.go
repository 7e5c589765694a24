package mcp

import (
	"context"

	"github.com/claude/fittracker/internal/models"
	"github.com/claude/fittracker/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.Store
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	LoadSessionTemplates(ctx context.Context) ([]models.SessionTemplate, error)
	GetSessionInstance(ctx context.Context, id string) (models.SessionInstance, error)
	SessionInstancesForDate(ctx context.Context, date string) ([]models.SessionInstance, error)
	SessionInstancesForDateRange(ctx context.Context, start, end string) ([]models.SessionInstance, error)
	WorkoutProgressForSession(ctx context.Context, sessionID string) ([]models.WorkoutProgress, error)
	GetTrainingSummary(ctx context.Context, start, end, bucket string) ([]storage.TrainingSummaryPeriod, error)
	GetDataStats(ctx context.Context) (*storage.DataStats, error)
}

// Compile-time check: *storage.Store satisfies DataSource.
var _ DataSource = (*storage.Store)(nil)
