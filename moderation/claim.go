package moderation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/anivartee/anivartee/apperr"
	"github.com/anivartee/anivartee/model"
	"github.com/anivartee/anivartee/utils"
	Logger "github.com/anivartee/anivartee/utils/log"
)

// ClaimTimeout is the fixed lease length. The timer starts at claim time and
// is never extended by activity, draft saves included.
const ClaimTimeout = 30 * time.Minute

/*

ClaimService grants exclusive, time-boxed custody of a queue item to one
fact-checker.

Acquisition is the contention hot path: two checkers racing for the same
post must never both win. The conditional queue update (PENDING -> CLAIMED)
and the claim insert run in one transaction, and the partial unique index on
active claims makes the exclusivity hold even if the earlier reads raced.

The janitor sweep and verdict submission race over the same rows, every
terminal transition is therefore an update conditioned on the row still
being ACTIVE, so a sweep can never undo a COMPLETED claim.
*/
type ClaimService struct {
	db     *gorm.DB
	queue  *QueueService
	ranks  RankSource
	status *ClaimStatusStore

	now func() time.Time
}

func NewClaimService(db *gorm.DB, queue *QueueService, ranks RankSource, status *ClaimStatusStore) *ClaimService {
	return &ClaimService{
		db:     db,
		queue:  queue,
		ranks:  ranks,
		status: status,
		now:    time.Now,
	}
}

// Claim acquires the lease on a post for a fact-checker.
func (s *ClaimService) Claim(ctx context.Context, postID, factCheckerID string) (*model.Claim, error) {
	item, err := s.queue.GetItemByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if item.Status != model.QueueStatusPending {
		return nil, apperr.Conflict("this post is already claimed or completed")
	}

	existing, err := s.GetActiveClaim(ctx, postID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("this post is already claimed by another fact-checker")
	}

	rankData := s.ranks.RankOrFallback(ctx, factCheckerID)
	claimsToday, err := s.claimsToday(ctx, factCheckerID)
	if err != nil {
		return nil, err
	}
	if claimsToday >= int64(rankData.Limits.PostsPerDay) {
		return nil, apperr.RateLimit("daily claim limit (%d) reached, increase your rank to claim more", rankData.Limits.PostsPerDay)
	}

	now := s.now()
	claim := model.Claim{
		Id:            uuid.NewString(),
		QueueItemID:   item.Id,
		PostID:        postID,
		FactCheckerID: factCheckerID,
		Status:        model.ClaimStatusActive,
		ClaimedAt:     now,
		ExpiresAt:     now.Add(ClaimTimeout),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The conditional update and the active-claim unique index close the
		// window between the reads above and this write.
		res := tx.Model(&model.QueueItem{}).
			Where("id = ? AND status = ?", item.Id, model.QueueStatusPending).
			Update("status", model.QueueStatusClaimed)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("this post is already claimed or completed")
		}
		return tx.Create(&claim).Error
	})
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		if strings.Contains(err.Error(), "duplicate key value") {
			return nil, apperr.Conflict("this post is already claimed by another fact-checker")
		}
		return nil, apperr.Database("failed to create claim", err)
	}

	s.markStatus(postID, true)
	Logger.Log.Infof("post %s claimed by fact-checker %s, expires at %s", postID, factCheckerID, claim.ExpiresAt.Format(time.RFC3339))
	return &claim, nil
}

// Abandon releases the caller's active claim and returns the queue item to
// PENDING.
func (s *ClaimService) Abandon(ctx context.Context, postID, factCheckerID string) error {
	claim, err := s.findActiveClaimOwned(ctx, postID, factCheckerID)
	if err != nil {
		return err
	}
	if claim == nil {
		return apperr.NotFound("no active claim found for this post")
	}

	if err := s.transition(ctx, claim.Id, model.ClaimStatusAbandoned); err != nil {
		return err
	}
	if err := s.queue.MarkPending(ctx, claim.QueueItemID); err != nil {
		return err
	}

	s.markStatus(postID, false)
	Logger.Log.Infof("claim on post %s abandoned by %s", postID, factCheckerID)
	return nil
}

// Complete marks the caller's active claim COMPLETED. Called only from the
// verdict pipeline after the verdict is persisted.
func (s *ClaimService) Complete(ctx context.Context, postID, factCheckerID string) error {
	claim, err := s.findActiveClaimOwned(ctx, postID, factCheckerID)
	if err != nil {
		return err
	}
	if claim == nil {
		return apperr.NotFound("no active claim found")
	}

	if err := s.transition(ctx, claim.Id, model.ClaimStatusCompleted); err != nil {
		return err
	}

	s.markStatus(postID, false)
	Logger.Log.Infof("claim on post %s completed by %s", postID, factCheckerID)
	return nil
}

// GetActiveClaim returns the active claim on a post, nil when there is none.
func (s *ClaimService) GetActiveClaim(ctx context.Context, postID string) (*model.Claim, error) {
	var claim model.Claim
	err := s.db.WithContext(ctx).
		Where("post_id = ? AND status = ?", postID, model.ClaimStatusActive).
		First(&claim).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Database("failed to find active claim", err)
	}
	return &claim, nil
}

// ExpireStale moves every ACTIVE claim past its deadline to EXPIRED and
// returns its queue item to PENDING. A failure on one claim is logged and
// the sweep continues, a stuck claim must not block the rest. Returns the
// number of claims expired.
func (s *ClaimService) ExpireStale(ctx context.Context) (int, error) {
	var stale []model.Claim
	err := s.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", model.ClaimStatusActive, s.now()).
		Find(&stale).Error
	if err != nil {
		return 0, apperr.Database("failed to find expired claims", err)
	}

	expired := 0
	for _, claim := range stale {
		if err := s.transition(ctx, claim.Id, model.ClaimStatusExpired); err != nil {
			Logger.Log.Errorf("failed to expire claim %s: %v", claim.Id, err)
			continue
		}
		if err := s.queue.MarkPending(ctx, claim.QueueItemID); err != nil {
			Logger.Log.Errorf("failed to return queue item %s to pending: %v", claim.QueueItemID, err)
			continue
		}
		s.markStatus(claim.PostID, false)
		expired++
	}

	if expired > 0 {
		Logger.Log.Infof("expired %d stale claim(s)", expired)
	}
	return expired, nil
}

func (s *ClaimService) findActiveClaimOwned(ctx context.Context, postID, factCheckerID string) (*model.Claim, error) {
	var claim model.Claim
	err := s.db.WithContext(ctx).
		Where("post_id = ? AND fact_checker_id = ? AND status = ?", postID, factCheckerID, model.ClaimStatusActive).
		First(&claim).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Database("failed to find active claim", err)
	}
	return &claim, nil
}

// transition sets a terminal status iff the claim is still ACTIVE. Losing
// the conditional update means someone else already terminated the claim.
func (s *ClaimService) transition(ctx context.Context, claimID string, status model.ClaimStatus) error {
	res := s.db.WithContext(ctx).Model(&model.Claim{}).
		Where("id = ? AND status = ?", claimID, model.ClaimStatusActive).
		Update("status", status)
	if res.Error != nil {
		return apperr.Database("failed to update claim status", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("claim is no longer active")
	}
	return nil
}

func (s *ClaimService) claimsToday(ctx context.Context, factCheckerID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Claim{}).
		Where("fact_checker_id = ? AND claimed_at >= ?", factCheckerID, utils.StartOfDay(s.now())).
		Count(&count).Error
	if err != nil {
		return 0, apperr.Database("failed to count today's claims", err)
	}
	return count, nil
}

// markStatus mirrors the claim bit into redis, best-effort.
func (s *ClaimService) markStatus(postID string, claimed bool) {
	if s.status == nil {
		return
	}
	if err := s.status.SetClaimed(postID, claimed); err != nil {
		Logger.Log.Errorf("failed to mirror claim status for post %s: %v", postID, err)
	}
}
