package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/matlog/analytics"
	"github.com/cppla/matlog/gamify"
	"github.com/cppla/matlog/models"
)

// MigrationState describes where a user is in the legacy import flow.
type MigrationState string

// Migration states.
const (
	MigrationNotNeeded  MigrationState = "not-needed"
	MigrationNeeded     MigrationState = "needed"
	MigrationInProgress MigrationState = "in-progress"
	MigrationDone       MigrationState = "done"
)

// Migration outcomes reported with MigrationDone.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

const migrationBatchSize = 100

// LegacySession is one record of a pre-account local session list.
// Every field may be missing in old exports.
type LegacySession struct {
	Date    string   `json:"date"`
	Type    string   `json:"type"`
	Level   string   `json:"level"`
	Points  *float64 `json:"points"`
	GroupID string   `json:"group_id"`
}

// RowError explains why a legacy record was rejected.
type RowError struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// MigrationStatus is returned by Status.
type MigrationStatus struct {
	State          MigrationState `json:"state"`
	LegacyMigrated bool           `json:"legacy_migrated"`
}

// MigrationResult reports the outcome of one Migrate run.
type MigrationResult struct {
	State    MigrationState `json:"state"`
	Outcome  string         `json:"outcome"`
	Imported int            `json:"imported"`
	Errors   []RowError     `json:"errors,omitempty"`
}

// MigrationService imports legacy sessions into the account store.
type MigrationService struct {
	db           *gorm.DB
	sync         *LeaderboardSync
	tracker      *analytics.Tracker
	defaultGroup string

	mu      sync.Mutex
	running map[string]struct{}
}

// NewMigrationService creates a migration service.
func NewMigrationService(db *gorm.DB, lb *LeaderboardSync, tracker *analytics.Tracker, defaultGroup string) *MigrationService {
	if defaultGroup == "" {
		defaultGroup = models.DefaultGroupID
	}
	return &MigrationService{
		db:           db,
		sync:         lb,
		tracker:      tracker,
		defaultGroup: defaultGroup,
		running:      make(map[string]struct{}),
	}
}

// Status reports whether the user should be offered a migration.
// hasLocal tells whether the caller still holds a local session list.
func (m *MigrationService) Status(ctx context.Context, userID string, hasLocal bool) (MigrationStatus, error) {
	if m.isRunning(userID) {
		return MigrationStatus{State: MigrationInProgress}, nil
	}
	settings, err := loadSettings(ctx, m.db, userID, m.defaultGroup)
	if err != nil {
		return MigrationStatus{}, err
	}
	switch {
	case settings.LegacyMigrated:
		return MigrationStatus{State: MigrationDone, LegacyMigrated: true}, nil
	case hasLocal:
		return MigrationStatus{State: MigrationNeeded}, nil
	default:
		return MigrationStatus{State: MigrationNotNeeded}, nil
	}
}

// Migrate upserts records for userID in one transaction and marks the user as migrated.
// Any invalid record fails the whole batch and nothing is written. Re-running with the
// same records updates rows in place.
func (m *MigrationService) Migrate(ctx context.Context, userID string, records []LegacySession) (MigrationResult, error) {
	if !m.acquire(userID) {
		return MigrationResult{State: MigrationInProgress}, ErrMigrationInProgress
	}
	defer m.release(userID)

	tc := analytics.Context{UserID: userID}
	rows, rowErrs := legacyRows(userID, records)
	if len(rowErrs) > 0 {
		m.tracker.Track(ctx, tc, analytics.EventMigrationFailed, map[string]interface{}{"rejected": len(rowErrs)})
		return MigrationResult{State: MigrationDone, Outcome: OutcomeFailure, Errors: rowErrs},
			fmt.Errorf("%w: %d invalid records", ErrMigrationFailed, len(rowErrs))
	}

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(rows) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}, {Name: "type"}},
				DoUpdates: clause.AssignmentColumns([]string{"group_id", "level", "points", "updated_at"}),
			}).CreateInBatches(&rows, migrationBatchSize).Error
			if err != nil {
				return fmt.Errorf("upsert sessions: %w", err)
			}
		}
		return markMigrated(tx, userID, m.defaultGroup)
	})
	if err != nil {
		m.tracker.Track(ctx, tc, analytics.EventMigrationFailed, map[string]interface{}{"error": err.Error()})
		return MigrationResult{State: MigrationDone, Outcome: OutcomeFailure}, fmt.Errorf("%w: %v", ErrMigrationFailed, err)
	}

	m.sync.Schedule(userID)
	m.tracker.Track(ctx, tc, analytics.EventMigrationRun, map[string]interface{}{"imported": len(rows)})
	return MigrationResult{State: MigrationDone, Outcome: OutcomeSuccess, Imported: len(rows)}, nil
}

// Dismiss marks the user as migrated without importing anything.
func (m *MigrationService) Dismiss(ctx context.Context, userID string) error {
	if m.isRunning(userID) {
		return ErrMigrationInProgress
	}
	return markMigrated(m.db.WithContext(ctx), userID, m.defaultGroup)
}

func (m *MigrationService) acquire(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.running[userID]; ok {
		return false
	}
	m.running[userID] = struct{}{}
	return true
}

func (m *MigrationService) release(userID string) {
	m.mu.Lock()
	delete(m.running, userID)
	m.mu.Unlock()
}

func (m *MigrationService) isRunning(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.running[userID]
	return ok
}

// legacyRows converts records to session rows. Records sharing a (date, type) key
// collapse to the last one so a single statement never conflicts with itself.
func legacyRows(userID string, records []LegacySession) ([]models.Session, []RowError) {
	var rowErrs []RowError
	rows := make([]models.Session, 0, len(records))
	index := make(map[string]int, len(records))
	now := time.Now().UTC()

	for i, r := range records {
		sessionType := strings.TrimSpace(r.Type)
		if sessionType == "" {
			rowErrs = append(rowErrs, RowError{Index: i, Reason: "missing type"})
			continue
		}
		date, err := gamify.NormalizeDateToISO(strings.TrimSpace(r.Date))
		if err != nil {
			rowErrs = append(rowErrs, RowError{Index: i, Reason: fmt.Sprintf("invalid date %q", r.Date)})
			continue
		}
		group := strings.TrimSpace(r.GroupID)
		if group == "" {
			group = models.DefaultGroupID
		}
		level := strings.TrimSpace(r.Level)
		if level == "" {
			level = gamify.ClassUnknown
		}
		var points float64
		if r.Points != nil {
			points = *r.Points
		}

		row := models.Session{
			UserID:    userID,
			GroupID:   group,
			Date:      date,
			Type:      sessionType,
			Level:     level,
			Points:    points,
			CreatedAt: now,
			UpdatedAt: now,
		}
		key := date + "|" + sessionType
		if at, ok := index[key]; ok {
			rows[at] = row
			continue
		}
		index[key] = len(rows)
		rows = append(rows, row)
	}
	return rows, rowErrs
}

func markMigrated(db *gorm.DB, userID, defaultGroup string) error {
	row := models.UserSettings{UserID: userID, GroupID: defaultGroup, LegacyMigrated: true}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"legacy_migrated", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("set migration flag: %w", err)
	}
	return nil
}
