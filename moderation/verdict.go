package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anivartee/anivartee/apperr"
	"github.com/anivartee/anivartee/model"
	"github.com/anivartee/anivartee/rank"
	Logger "github.com/anivartee/anivartee/utils/log"
)

/*

VerdictService is the end of a post's moderation lifecycle. Submitting a
verdict requires holding the active claim, persists the immutable fact
check, moves the post to its final status and completes both the claim and
the queue item. Draft cleanup, the points award and activity recording are
fire-and-forget, their failure never fails the submission.
*/
type VerdictService struct {
	db      *gorm.DB
	claims  *ClaimService
	queue   *QueueService
	ranks   RankSource
	effects SideEffects
}

func NewVerdictService(db *gorm.DB, claims *ClaimService, queue *QueueService, ranks RankSource, effects SideEffects) *VerdictService {
	return &VerdictService{db: db, claims: claims, queue: queue, ranks: ranks, effects: effects}
}

type VerdictInput struct {
	Verdict       string   `json:"verdict" binding:"required"`
	Header        string   `json:"header" binding:"required"`
	Description   string   `json:"description" binding:"required"`
	ReferenceUrls []string `json:"referenceUrls"`
}

type DraftInput struct {
	Verdict       *string  `json:"verdict"`
	Header        *string  `json:"header"`
	Description   *string  `json:"description"`
	ReferenceUrls []string `json:"referenceUrls"`
}

// SubmitVerdict finalizes a review.
func (s *VerdictService) SubmitVerdict(ctx context.Context, postID, factCheckerID string, input VerdictInput) (*model.FactCheck, error) {
	// The active claim is the sole gate keeping unauthorized or un-claimed
	// verdicts out.
	claim, err := s.claims.GetActiveClaim(ctx, postID)
	if err != nil {
		return nil, err
	}
	if claim == nil || claim.FactCheckerID != factCheckerID {
		return nil, apperr.Authorization("you do not have an active claim on this post")
	}

	verdict, err := parseVerdict(input.Verdict)
	if err != nil {
		return nil, err
	}

	var existing model.FactCheck
	err = s.db.WithContext(ctx).
		Where("post_id = ? AND fact_checker_id = ?", postID, factCheckerID).
		First(&existing).Error
	if err == nil {
		return nil, apperr.Conflict("you have already submitted a verdict for this post")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Database("failed to check for existing verdict", err)
	}

	var post model.Post
	err = s.db.WithContext(ctx).Where("id = ?", postID).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("post not found")
	}
	if err != nil {
		return nil, apperr.Database("failed to fetch post", err)
	}

	rankData := s.ranks.RankOrFallback(ctx, factCheckerID)
	if err := validateContentLimits(rankData.Limits, input.Header, input.Description); err != nil {
		return nil, err
	}

	urls, err := json.Marshal(input.ReferenceUrls)
	if err != nil {
		return nil, apperr.Validation("invalid reference urls")
	}
	factCheck := model.FactCheck{
		Id:            uuid.NewString(),
		PostID:        postID,
		FactCheckerID: factCheckerID,
		Verdict:       verdict,
		Header:        input.Header,
		Description:   input.Description,
		ReferenceUrls: datatypes.JSON(urls),
		CreatedAt:     time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&factCheck).Error; err != nil {
		return nil, apperr.Database("failed to create fact check", err)
	}

	newStatus := model.PostStatusValidated
	if verdict == model.VerdictDebunked {
		newStatus = model.PostStatusDebunked
	}
	err = s.db.WithContext(ctx).Model(&model.Post{}).
		Where("id = ?", postID).
		Update("status", newStatus).Error
	if err != nil {
		return nil, apperr.Database("failed to update post status", err)
	}

	if err := s.claims.Complete(ctx, postID, factCheckerID); err != nil {
		return nil, err
	}
	if err := s.queue.MarkCompletedByPost(ctx, postID); err != nil {
		return nil, err
	}

	s.effects.DeleteDraft(postID, factCheckerID)
	s.effects.AwardPoints(factCheckerID, rankData.Limits.PostPoints, "FACT_CHECK_COMPLETED", factCheck.Id)
	s.effects.RecordActivity(factCheckerID, model.ActivityFactCheckComplete)

	Logger.Log.Infof("verdict submitted: %s for post %s (%s)", factCheck.Id, postID, verdict)
	return &factCheck, nil
}

// SaveDraft upserts the in-progress verdict. Requires the active claim, but
// deliberately does not refresh its timer.
func (s *VerdictService) SaveDraft(ctx context.Context, postID, factCheckerID string, input DraftInput) (*model.FactCheckDraft, error) {
	claim, err := s.claims.GetActiveClaim(ctx, postID)
	if err != nil {
		return nil, err
	}
	if claim == nil || claim.FactCheckerID != factCheckerID {
		return nil, apperr.Authorization("you do not have an active claim on this post")
	}

	rankData := s.ranks.RankOrFallback(ctx, factCheckerID)
	header, description := "", ""
	if input.Header != nil {
		header = *input.Header
	}
	if input.Description != nil {
		description = *input.Description
	}
	if err := validateContentLimits(rankData.Limits, header, description); err != nil {
		return nil, err
	}

	var verdict *model.Verdict
	if input.Verdict != nil {
		v, err := parseVerdict(*input.Verdict)
		if err != nil {
			return nil, err
		}
		verdict = &v
	}

	urls, err := json.Marshal(input.ReferenceUrls)
	if err != nil {
		return nil, apperr.Validation("invalid reference urls")
	}
	draft := model.FactCheckDraft{
		Id:            uuid.NewString(),
		PostID:        postID,
		FactCheckerID: factCheckerID,
		Verdict:       verdict,
		Header:        input.Header,
		Description:   input.Description,
		ReferenceUrls: datatypes.JSON(urls),
		LastSavedAt:   time.Now(),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}, {Name: "fact_checker_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"verdict", "header", "description", "reference_urls", "last_saved_at"}),
	}).Create(&draft).Error
	if err != nil {
		return nil, apperr.Database("failed to save draft", err)
	}

	Logger.Log.Debugf("draft saved for post %s by %s", postID, factCheckerID)
	return &draft, nil
}

// GetDraft returns the saved draft, nil when there is none.
func (s *VerdictService) GetDraft(ctx context.Context, postID, factCheckerID string) (*model.FactCheckDraft, error) {
	var draft model.FactCheckDraft
	err := s.db.WithContext(ctx).
		Where("post_id = ? AND fact_checker_id = ?", postID, factCheckerID).
		First(&draft).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Database("failed to fetch draft", err)
	}
	return &draft, nil
}

// DeleteDraft removes the draft for a (post, checker) pair. Invoked by the
// side-effect worker after a verdict and on post deletion.
func (s *VerdictService) DeleteDraft(ctx context.Context, postID, factCheckerID string) error {
	err := s.db.WithContext(ctx).
		Where("post_id = ? AND fact_checker_id = ?", postID, factCheckerID).
		Delete(&model.FactCheckDraft{}).Error
	if err != nil {
		return apperr.Database("failed to delete draft", err)
	}
	return nil
}

func parseVerdict(raw string) (model.Verdict, error) {
	switch model.Verdict(raw) {
	case model.VerdictValidated:
		return model.VerdictValidated, nil
	case model.VerdictDebunked:
		return model.VerdictDebunked, nil
	default:
		return "", apperr.Validation("verdict must be VALIDATED or DEBUNKED")
	}
}

// validateContentLimits enforces the author's rank-derived length maxima.
// Violations are validation errors, content is never silently truncated.
func validateContentLimits(limits rank.Limits, header, description string) error {
	if len(header) > limits.MaxHeaderLength {
		return apperr.Validation("header exceeds your rank's maximum length (%d)", limits.MaxHeaderLength)
	}
	if len(description) > limits.MaxDescriptionLength {
		return apperr.Validation("description exceeds your rank's maximum length (%d)", limits.MaxDescriptionLength)
	}
	return nil
}
