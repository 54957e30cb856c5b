// Package points owns the reputation ledger, the cached aggregate balances,
// the public leaderboard and rank lookups derived from balances.
package points

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	pkgerr "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anivartee/anivartee/apperr"
	"github.com/anivartee/anivartee/model"
	"github.com/anivartee/anivartee/rank"
	Logger "github.com/anivartee/anivartee/utils/log"
)

const (
	leaderboardCacheTTL = 60 * time.Second
	// The cached leaderboard always holds the max page, per-request limits
	// slice into it.
	leaderboardFetchSize = 100

	maxHistoryPageSize = 50
)

type Service struct {
	db          *gorm.DB
	leaderboard *LeaderboardCache
}

func NewService(db *gorm.DB) *Service {
	return &Service{
		db:          db,
		leaderboard: NewLeaderboardCache(leaderboardCacheTTL),
	}
}

// NewServiceWithCache injects a caller-owned leaderboard cache.
func NewServiceWithCache(db *gorm.DB, cache *LeaderboardCache) *Service {
	return &Service{db: db, leaderboard: cache}
}

type AwardResult struct {
	EntryID    string `json:"entryId"`
	UserID     string `json:"userId"`
	Points     int    `json:"points"`
	Reason     string `json:"reason"`
	NewBalance int    `json:"newBalance"`
}

// Award appends a ledger entry and upserts the aggregate balance in one
// transaction, so a crash can never leave the pair inconsistent. Points may
// be negative (penalties) but never zero.
func (s *Service) Award(ctx context.Context, userID string, pts int, reason string, contextID *string) (*AwardResult, error) {
	if pts == 0 {
		return nil, apperr.Validation("points must be a nonzero integer")
	}

	entry := model.PointsLedger{
		Id:        uuid.NewString(),
		UserID:    userID,
		Points:    pts,
		Reason:    reason,
		ContextID: contextID,
	}
	var newBalance int

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		balance := model.PointsBalance{UserID: userID, Balance: pts}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"balance": gorm.Expr("points_balances.balance + ?", pts),
			}),
		}).Create(&balance).Error; err != nil {
			return err
		}

		return tx.Where("user_id = ?", userID).
			Select("balance").
			Model(&model.PointsBalance{}).
			Scan(&newBalance).Error
	})
	if err != nil {
		Logger.Log.Errorf("failed to record points for user %s: %v", userID, err)
		return nil, apperr.Database("failed to record points", err)
	}

	s.leaderboard.InvalidateUser(userID)

	Logger.Log.Infof("points awarded: %d to %s for %s (balance: %d)", pts, userID, reason, newBalance)
	return &AwardResult{
		EntryID:    entry.Id,
		UserID:     userID,
		Points:     pts,
		Reason:     reason,
		NewBalance: newBalance,
	}, nil
}

// GetBalance returns the current balance, 0 for a user with no record.
func (s *Service) GetBalance(ctx context.Context, userID string) (int, error) {
	var balance model.PointsBalance
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, apperr.Database("failed to fetch balance", err)
	}
	return balance.Balance, nil
}

type HistoryPage struct {
	Entries  []model.PointsLedger `json:"entries"`
	Total    int64                `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"pageSize"`
}

// GetHistory returns ledger entries newest first with pagination metadata.
func (s *Service) GetHistory(ctx context.Context, userID string, page, pageSize int) (*HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxHistoryPageSize {
		pageSize = maxHistoryPageSize
	}

	var (
		entries []model.PointsLedger
		total   int64
	)
	db := s.db.WithContext(ctx)
	if err := db.Model(&model.PointsLedger{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, apperr.Database("failed to fetch points history", err)
	}
	err := db.Where("user_id = ?", userID).
		Order("created_at desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&entries).Error
	if err != nil {
		return nil, apperr.Database("failed to fetch points history", err)
	}

	return &HistoryPage{Entries: entries, Total: total, Page: page, PageSize: pageSize}, nil
}

// GetLeaderboard returns the top balances in descending order. Results are
// served from the in-process cache for up to 60 seconds, recomputing the
// full ordering on every public request is too expensive.
func (s *Service) GetLeaderboard(ctx context.Context, limit int) ([]model.PointsBalance, error) {
	if limit < 1 || limit > leaderboardFetchSize {
		limit = 20
	}

	if cached, ok := s.leaderboard.Get(limit); ok {
		return cached, nil
	}

	var balances []model.PointsBalance
	err := s.db.WithContext(ctx).
		Order("balance desc").
		Limit(leaderboardFetchSize).
		Find(&balances).Error
	if err != nil {
		return nil, apperr.Database("failed to fetch leaderboard", err)
	}

	s.leaderboard.Set(balances)
	if limit > len(balances) {
		limit = len(balances)
	}
	return balances[:limit], nil
}

// UserRank is the full rank projection exposed to callers that need a user's
// current permission limits.
type UserRank struct {
	UserID string         `json:"userId"`
	Role   model.UserRole `json:"role"`
	Points int            `json:"points"`
	rank.Rank
}

// GetUserRank computes the user's rank from the current balance and role.
// Unknown users rank as ordinary users with their (zero) balance.
func (s *Service) GetUserRank(ctx context.Context, userID string) (*UserRank, error) {
	balance, err := s.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	role := model.RoleUser
	var user model.User
	err = s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Database("failed to fetch user", pkgerr.Wrap(err, "rank lookup"))
	}
	if err == nil {
		role = user.Role
	}

	computed := rank.LadderFor(role).Compute(balance)
	return &UserRank{UserID: userID, Role: role, Points: balance, Rank: computed}, nil
}

// RankOrFallback never fails. On any error it degrades to the fixed
// lowest-tier limits so the caller's primary action can proceed.
func (s *Service) RankOrFallback(ctx context.Context, userID string) *UserRank {
	ur, err := s.GetUserRank(ctx, userID)
	if err != nil {
		Logger.Log.Errorf("failed to fetch rank for user %s, using fallback: %v", userID, err)
		return &UserRank{UserID: userID, Role: model.RoleUser, Points: 0, Rank: rank.Fallback()}
	}
	return ur
}
