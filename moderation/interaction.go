package moderation

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/anivartee/anivartee/apperr"
	"github.com/anivartee/anivartee/model"
	Logger "github.com/anivartee/anivartee/utils/log"
)

// InteractionService handles post likes. Likes are the denominator of the
// weighted flag score, so both directions trigger a rescore: a new like can
// lift a FLAGGED post back to PENDING, an unlike can push a post over the
// threshold.
type InteractionService struct {
	db      *gorm.DB
	flags   *FlagService
	effects SideEffects
}

func NewInteractionService(db *gorm.DB, flags *FlagService, effects SideEffects) *InteractionService {
	return &InteractionService{db: db, flags: flags, effects: effects}
}

func (s *InteractionService) Like(ctx context.Context, postID, userID string) error {
	if _, err := s.getPost(ctx, postID); err != nil {
		return err
	}

	like := model.Like{Id: uuid.NewString(), PostID: postID, UserID: userID}
	if err := s.db.WithContext(ctx).Create(&like).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key value") {
			return apperr.Conflict("you have already liked this post")
		}
		return apperr.Database("failed to create like", err)
	}

	if err := s.adjustLikes(ctx, postID, 1); err != nil {
		return err
	}
	if err := s.rescore(ctx, postID); err != nil {
		return err
	}

	s.effects.AwardPoints(userID, 1, "POST_LIKED", postID)
	Logger.Log.Infof("user %s liked post %s", userID, postID)
	return nil
}

func (s *InteractionService) Unlike(ctx context.Context, postID, userID string) error {
	if _, err := s.getPost(ctx, postID); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&model.Like{})
	if res.Error != nil {
		return apperr.Database("failed to delete like", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("you have not liked this post")
	}

	if err := s.adjustLikes(ctx, postID, -1); err != nil {
		return err
	}
	if err := s.rescore(ctx, postID); err != nil {
		return err
	}

	Logger.Log.Infof("user %s unliked post %s", userID, postID)
	return nil
}

func (s *InteractionService) adjustLikes(ctx context.Context, postID string, delta int) error {
	err := s.db.WithContext(ctx).Model(&model.Post{}).
		Where("id = ?", postID).
		Update("total_likes", gorm.Expr("total_likes + ?", delta)).Error
	if err != nil {
		return apperr.Database("failed to update like count", err)
	}
	return nil
}

// rescore re-reads the post so the score sees the fresh like count.
func (s *InteractionService) rescore(ctx context.Context, postID string) error {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return err
	}
	return s.flags.Rescore(ctx, post)
}

func (s *InteractionService) getPost(ctx context.Context, postID string) (*model.Post, error) {
	var post model.Post
	err := s.db.WithContext(ctx).Where("id = ?", postID).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("post not found")
	}
	if err != nil {
		return nil, apperr.Database("failed to fetch post", err)
	}
	return &post, nil
}
