package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/matlog/gamify"
	"github.com/cppla/matlog/models"
	"github.com/cppla/matlog/utils"
)

const leaderboardCachePrefix = "matlog:leaderboard:"

// LeaderboardSync keeps group_members rows in step with each user's sessions.
// Writes are debounced per user; a failed sync is logged and dropped.
type LeaderboardSync struct {
	db           *gorm.DB
	debouncer    *Debouncer
	cacheTTL     time.Duration
	syncTimeout  time.Duration
	defaultGroup string
}

// NewLeaderboardSync creates a sync service. delay is the debounce quiet period.
func NewLeaderboardSync(db *gorm.DB, delay, cacheTTL time.Duration, defaultGroup string) *LeaderboardSync {
	if defaultGroup == "" {
		defaultGroup = models.DefaultGroupID
	}
	return &LeaderboardSync{
		db:           db,
		debouncer:    NewDebouncer(delay),
		cacheTTL:     cacheTTL,
		syncTimeout:  10 * time.Second,
		defaultGroup: defaultGroup,
	}
}

func leaderboardCacheKey(groupID string) string {
	return leaderboardCachePrefix + groupID
}

// Schedule queues a sync for userID; repeated calls within the quiet period collapse into one.
func (l *LeaderboardSync) Schedule(userID string) {
	l.debouncer.Trigger(userID, func() {
		ctx, cancel := context.WithTimeout(context.Background(), l.syncTimeout)
		defer cancel()
		if err := l.SyncNow(ctx, userID); err != nil {
			utils.Logger.Warn("leaderboard sync failed", zap.String("user_id", userID), zap.Error(err))
		}
	})
}

// Pending returns the number of users with a queued sync.
func (l *LeaderboardSync) Pending() int {
	return l.debouncer.Pending()
}

// Stop drops every queued sync. Called on shutdown.
func (l *LeaderboardSync) Stop() {
	l.debouncer.Stop()
}

// SyncNow recomputes the user's score and badges from all sessions and upserts the member row
// for the user's current group. Users without a username are skipped.
func (l *LeaderboardSync) SyncNow(ctx context.Context, userID string) error {
	member, ok, err := l.SelfMember(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	err = l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "group_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "score", "badges", "updated_at"}),
	}).Create(&member).Error
	if err != nil {
		return fmt.Errorf("upsert group member: %w", err)
	}

	l.refreshCache(ctx, member.GroupID)
	return nil
}

// SelfMember computes a fresh member row for userID without storing it.
// ok is false when the user has not chosen a username.
func (l *LeaderboardSync) SelfMember(ctx context.Context, userID string) (models.GroupMember, bool, error) {
	settings, err := loadSettings(ctx, l.db, userID, l.defaultGroup)
	if err != nil {
		return models.GroupMember{}, false, err
	}
	if !settings.HasUsername() {
		return models.GroupMember{}, false, nil
	}

	var sessions []models.Session
	if err := l.db.WithContext(ctx).Where("user_id = ?", userID).Find(&sessions).Error; err != nil {
		return models.GroupMember{}, false, fmt.Errorf("load sessions: %w", err)
	}
	views := models.ScoringViews(sessions)

	member := models.GroupMember{
		UserID:    userID,
		GroupID:   settings.GroupID,
		Username:  settings.DisplayName(),
		Score:     gamify.TotalPoints(views),
		UpdatedAt: time.Now().UTC(),
	}
	member.SetBadges(gamify.BadgesFromSessions(views))
	return member, true, nil
}

// Members returns the group's member rows sorted by score, served from cache when possible.
func (l *LeaderboardSync) Members(ctx context.Context, groupID string) ([]models.GroupMember, error) {
	var cached []models.GroupMember
	if utils.CacheGetJSON(leaderboardCacheKey(groupID), &cached) {
		return cached, nil
	}
	members, err := l.loadMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	utils.CacheSetJSON(leaderboardCacheKey(groupID), members, l.cacheTTL)
	return members, nil
}

// Rebuild syncs every named user immediately, limited to groupID when it is non-empty.
// It returns the number of users synced.
func (l *LeaderboardSync) Rebuild(ctx context.Context, groupID string) (int, error) {
	q := l.db.WithContext(ctx).Model(&models.UserSettings{}).Where("username IS NOT NULL AND username <> ''")
	if groupID != "" {
		q = q.Where("group_id = ?", groupID)
	}
	var userIDs []string
	if err := q.Pluck("user_id", &userIDs).Error; err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	synced := 0
	var errs []error
	for _, id := range userIDs {
		l.debouncer.Cancel(id)
		if err := l.SyncNow(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", id, err))
			continue
		}
		synced++
	}
	if groupID == "" {
		utils.InvalidateByPrefix(leaderboardCachePrefix)
	} else {
		utils.CacheDelete(leaderboardCacheKey(groupID))
	}
	return synced, errors.Join(errs...)
}

func (l *LeaderboardSync) loadMembers(ctx context.Context, groupID string) ([]models.GroupMember, error) {
	members := []models.GroupMember{}
	err := l.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("score DESC").
		Order("username ASC").
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	return members, nil
}

func (l *LeaderboardSync) refreshCache(ctx context.Context, groupID string) {
	members, err := l.loadMembers(ctx, groupID)
	if err != nil {
		utils.Logger.Warn("leaderboard refetch failed", zap.String("group_id", groupID), zap.Error(err))
		return
	}
	utils.CacheSetJSON(leaderboardCacheKey(groupID), members, l.cacheTTL)
}

// OverlaySelf merges a freshly computed row for the caller into members.
// The caller's stored row is replaced; a missing row is appended when self has a username.
// members is not modified; the result is sorted by score, highest first.
func OverlaySelf(members []models.GroupMember, self models.GroupMember) []models.GroupMember {
	out := make([]models.GroupMember, len(members), len(members)+1)
	copy(out, members)

	found := false
	for i := range out {
		if out[i].UserID == self.UserID {
			out[i] = self
			found = true
		}
	}
	if !found && self.Username != "" {
		out = append(out, self)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
