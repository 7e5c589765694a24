package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"
)

// maxImportLogs bounds the import log collection; older entries are dropped.
const maxImportLogs = 200

// ImportLog represents a single import operation's outcome.
type ImportLog struct {
	ID                string           `json:"id"`
	CreatedAt         time.Time        `json:"created_at"`
	Source            string           `json:"source"`
	Status            string           `json:"status"`
	RowsReceived      int              `json:"rows_received"`
	RowsValid         int              `json:"rows_valid"`
	RowsInvalid       int              `json:"rows_invalid"`
	TemplatesReceived int              `json:"templates_received"`
	TemplatesSaved    int              `json:"templates_saved"`
	MalformedTokens   int              `json:"malformed_tokens"`
	DurationMs        *int             `json:"duration_ms"`
	ErrorMessage      *string          `json:"error_message"`
	Metadata          *json.RawMessage `json:"metadata"`
}

// Normalize fills defaults for entries written by older versions.
func (l *ImportLog) Normalize() {
	if l.Status == "" {
		l.Status = "success"
	}
}

// Validate checks the fields every entry must carry.
func (l ImportLog) Validate() error {
	if l.ID == "" {
		return errors.New("import log id is required")
	}
	if l.Source == "" {
		return fmt.Errorf("import log %s: source is required", l.ID)
	}
	return nil
}

// InsertImportLog creates a new import log entry and returns its ID.
func (s *Store) InsertImportLog(ctx context.Context, log ImportLog) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := loadList[ImportLog](ctx, s, collImportLog)
	if err != nil {
		return "", err
	}
	log.ID = s.newID()
	log.CreatedAt = s.now()
	log.Normalize()
	list = append(list, log)
	if len(list) > maxImportLogs {
		list = list[len(list)-maxImportLogs:]
	}
	if err := saveList(ctx, s, collImportLog, list); err != nil {
		return "", fmt.Errorf("inserting import log: %w", err)
	}
	return log.ID, nil
}

// UpdateImportLog updates an existing import log entry (typically from "running" to "success" or "error").
func (s *Store) UpdateImportLog(ctx context.Context, id string, log ImportLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := loadList[ImportLog](ctx, s, collImportLog)
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].ID != id {
			continue
		}
		log.ID = id
		log.CreatedAt = list[i].CreatedAt
		if log.Source == "" {
			log.Source = list[i].Source
		}
		log.Normalize()
		list[i] = log
		if err := saveList(ctx, s, collImportLog, list); err != nil {
			return fmt.Errorf("updating import log %s: %w", id, err)
		}
		return nil
	}
	return fmt.Errorf("import log %s: %w", id, ErrNotFound)
}

// QueryImportLogs returns the most recent import logs, newest first.
func (s *Store) QueryImportLogs(ctx context.Context, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	list, err := loadList[ImportLog](ctx, s, collImportLog)
	if err != nil {
		return nil, fmt.Errorf("querying import logs: %w", err)
	}
	slices.Reverse(list)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}
