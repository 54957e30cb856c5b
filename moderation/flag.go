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
	"github.com/anivartee/anivartee/rank"
	"github.com/anivartee/anivartee/utils"
	Logger "github.com/anivartee/anivartee/utils/log"
)

/*

FlagService computes the rank-weighted flag score of a post and flips the
post's status when the score crosses the like count.

The score must be recomputed from the same formula at every call site that
can move either side of the comparison: flag, unflag, like and unlike all
funnel through Rescore. Each flag stores the flagger's role and rank level
at flag time, so the score of an old flag does not drift when the flagger's
rank changes later.
*/
type FlagService struct {
	db      *gorm.DB
	ranks   RankSource
	effects SideEffects

	now func() time.Time
}

func NewFlagService(db *gorm.DB, ranks RankSource, effects SideEffects) *FlagService {
	return &FlagService{db: db, ranks: ranks, effects: effects, now: time.Now}
}

// Flag records a flag and rescores the post. A user may flag a post at most
// once and no more than their rank's flagsPerDay times per day.
func (s *FlagService) Flag(ctx context.Context, postID, userID string) error {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return err
	}

	rankData := s.ranks.RankOrFallback(ctx, userID)

	flagsToday, err := s.flagsToday(ctx, userID)
	if err != nil {
		return err
	}
	if flagsToday >= int64(rankData.Limits.FlagsPerDay) {
		return apperr.RateLimit("daily flag limit (%d) reached", rankData.Limits.FlagsPerDay)
	}

	flag := model.Flag{
		Id:               uuid.NewString(),
		PostID:           postID,
		FlaggerUserID:    userID,
		FlaggerRole:      rankData.Role,
		FlaggerRankLevel: rankData.Level,
		CreatedAt:        s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&flag).Error; err != nil {
		// The composite unique index carries duplicate detection, there is no
		// racy pre-insert existence check.
		if strings.Contains(err.Error(), "duplicate key value") {
			return apperr.Conflict("you have already flagged this post")
		}
		return apperr.Database("failed to create flag", err)
	}

	if err := s.Rescore(ctx, post); err != nil {
		return err
	}

	s.effects.AwardPoints(userID, 1, "POST_FLAGGED", postID)
	Logger.Log.Infof("user %s flagged post %s", userID, postID)
	return nil
}

// Unflag removes the user's flag and rescores the post.
func (s *FlagService) Unflag(ctx context.Context, postID, userID string) error {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("post_id = ? AND flagger_user_id = ?", postID, userID).
		Delete(&model.Flag{})
	if res.Error != nil {
		return apperr.Database("failed to delete flag", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("you have not flagged this post")
	}

	if err := s.Rescore(ctx, post); err != nil {
		return err
	}

	Logger.Log.Infof("user %s unflagged post %s", userID, postID)
	return nil
}

type FlagScore struct {
	TotalFlags      int     `json:"totalFlags"`
	WeightedScore   float64 `json:"weightedScore"`
	ShouldBeFlagged bool    `json:"shouldBeFlagged"`
}

// Score computes the weighted flag score of a post. A post is over the
// threshold when the weighted score strictly exceeds its like count.
func (s *FlagService) Score(ctx context.Context, postID string) (*FlagScore, error) {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return s.score(ctx, post)
}

func (s *FlagService) score(ctx context.Context, post *model.Post) (*FlagScore, error) {
	var flags []model.Flag
	err := s.db.WithContext(ctx).Where("post_id = ?", post.Id).Find(&flags).Error
	if err != nil {
		return nil, apperr.Database("failed to fetch flags", err)
	}

	weighted := 0.0
	for _, flag := range flags {
		weighted += rank.FlagWeight(flag.FlaggerRole, flag.FlaggerRankLevel)
	}

	return &FlagScore{
		TotalFlags:      len(flags),
		WeightedScore:   weighted,
		ShouldBeFlagged: weighted > float64(post.TotalLikes),
	}, nil
}

// Rescore recomputes the score against the post's current like count and
// applies the status transition in both directions: crossing the threshold
// flags the post, falling back under it reverts FLAGGED to PENDING.
func (s *FlagService) Rescore(ctx context.Context, post *model.Post) error {
	score, err := s.score(ctx, post)
	if err != nil {
		return err
	}

	switch {
	case score.ShouldBeFlagged && post.Status != model.PostStatusFlagged:
		if err := s.updatePostStatus(ctx, post, model.PostStatusFlagged); err != nil {
			return err
		}
		Logger.Log.Infof("post %s status changed to FLAGGED (score: %g)", post.Id, score.WeightedScore)
	case !score.ShouldBeFlagged && post.Status == model.PostStatusFlagged:
		if err := s.updatePostStatus(ctx, post, model.PostStatusPending); err != nil {
			return err
		}
		Logger.Log.Infof("post %s status reverted to PENDING (score: %g)", post.Id, score.WeightedScore)
	}
	return nil
}

func (s *FlagService) getPost(ctx context.Context, postID string) (*model.Post, error) {
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

func (s *FlagService) updatePostStatus(ctx context.Context, post *model.Post, status model.PostStatus) error {
	err := s.db.WithContext(ctx).Model(&model.Post{}).
		Where("id = ?", post.Id).
		Update("status", status).Error
	if err != nil {
		return apperr.Database("failed to update post status", err)
	}
	post.Status = status
	return nil
}

func (s *FlagService) flagsToday(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Flag{}).
		Where("flagger_user_id = ? AND created_at >= ?", userID, utils.StartOfDay(s.now())).
		Count(&count).Error
	if err != nil {
		return 0, apperr.Database("failed to count today's flags", err)
	}
	return count, nil
}
