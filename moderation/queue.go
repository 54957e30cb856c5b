package moderation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anivartee/anivartee/apperr"
	"github.com/anivartee/anivartee/model"
	Logger "github.com/anivartee/anivartee/utils/log"
)

// QueueService owns the moderation backlog. Status transitions are driven
// exclusively by the claim service and the verdict pipeline, which are
// trusted internal callers, so the mark* methods do no validation.
type QueueService struct {
	db *gorm.DB
}

func NewQueueService(db *gorm.DB) *QueueService {
	return &QueueService{db: db}
}

// AddToQueue enqueues a post for moderation. Idempotent: a retried
// post-creation call finds the existing item and returns it unchanged.
func (s *QueueService) AddToQueue(ctx context.Context, postID, userID string, priority int) (*model.QueueItem, error) {
	item := model.QueueItem{
		Id:              uuid.NewString(),
		PostID:          postID,
		SubmitterUserID: userID,
		Priority:        priority,
		Status:          model.QueueStatusPending,
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}},
		DoNothing: true,
	}).Create(&item)
	if res.Error != nil {
		return nil, apperr.Database("failed to add post to moderation queue", res.Error)
	}
	if res.RowsAffected == 0 {
		Logger.Log.Warnf("post %s already in moderation queue", postID)
		return s.GetItemByPost(ctx, postID)
	}

	Logger.Log.Infof("post %s added to moderation queue", postID)
	return &item, nil
}

type QueuePage struct {
	Items    []model.QueueItem `json:"items"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

// GetQueue lists PENDING items, high priority first and FIFO within equal
// priority.
func (s *QueueService) GetQueue(ctx context.Context, page, pageSize int) (*QueuePage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	db := s.db.WithContext(ctx).Model(&model.QueueItem{}).Where("status = ?", model.QueueStatusPending)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, apperr.Database("failed to fetch moderation queue", err)
	}

	var items []model.QueueItem
	err := db.Order("priority desc").
		Order("added_at asc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, apperr.Database("failed to fetch moderation queue", err)
	}

	return &QueuePage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *QueueService) GetItemByPost(ctx context.Context, postID string) (*model.QueueItem, error) {
	var item model.QueueItem
	err := s.db.WithContext(ctx).Where("post_id = ?", postID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("post not found in moderation queue")
	}
	if err != nil {
		return nil, apperr.Database("failed to find queue item", err)
	}
	return &item, nil
}

func (s *QueueService) MarkPending(ctx context.Context, id string) error {
	return s.updateStatus(ctx, id, model.QueueStatusPending)
}

func (s *QueueService) MarkClaimed(ctx context.Context, id string) error {
	return s.updateStatus(ctx, id, model.QueueStatusClaimed)
}

// MarkCompletedByPost completes the queue item for a post after a verdict.
// A missing item is logged, not an error, the verdict already happened.
func (s *QueueService) MarkCompletedByPost(ctx context.Context, postID string) error {
	item, err := s.GetItemByPost(ctx, postID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			Logger.Log.Warnf("cannot complete non-existent queue item for post %s", postID)
			return nil
		}
		return err
	}
	if err := s.updateStatus(ctx, item.Id, model.QueueStatusCompleted); err != nil {
		return err
	}
	Logger.Log.Infof("queue item for post %s marked as completed", postID)
	return nil
}

// RemoveFromQueue soft-marks the item REMOVED when the underlying post is
// deleted. The row stays behind for the audit trail.
func (s *QueueService) RemoveFromQueue(ctx context.Context, postID string) error {
	err := s.db.WithContext(ctx).Model(&model.QueueItem{}).
		Where("post_id = ?", postID).
		Update("status", model.QueueStatusRemoved).Error
	if err != nil {
		return apperr.Database("failed to remove queue item", err)
	}
	Logger.Log.Infof("post %s removed from moderation queue", postID)
	return nil
}

func (s *QueueService) updateStatus(ctx context.Context, id string, status model.QueueStatus) error {
	err := s.db.WithContext(ctx).Model(&model.QueueItem{}).
		Where("id = ?", id).
		Update("status", status).Error
	if err != nil {
		return apperr.Database("failed to update queue status", err)
	}
	return nil
}
