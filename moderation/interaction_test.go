package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/anivartee/anivartee/apperr"
	"github.com/anivartee/anivartee/model"
	"github.com/anivartee/anivartee/points"
	"github.com/anivartee/anivartee/utils"
)

func newInteractionService(t *testing.T, ranks map[string]*points.UserRank) (*gorm.DB, *InteractionService, *recordingEffects) {
	db, _ := utils.CreateTempDB(t)
	effects := &recordingEffects{}
	flags := NewFlagService(db, &fakeRanks{ranks: ranks}, effects)
	interactions := NewInteractionService(db, flags, effects)
	return db, interactions, effects
}

func TestLikeAndUnlike(t *testing.T) {
	db, interactions, effects := newInteractionService(t, nil)
	ctx := context.Background()
	createTestPost(t, db, "post_1", 0)

	require.NoError(t, interactions.Like(ctx, "post_1", "user_1"))
	require.NoError(t, interactions.Like(ctx, "post_1", "user_2"))
	assert.Equal(t, 2, getPost(t, db, "post_1").TotalLikes)

	require.Len(t, effects.awards, 2)
	assert.Equal(t, awardCall{UserID: "user_1", Points: 1, Reason: "POST_LIKED", ContextID: "post_1"}, effects.awards[0])

	require.NoError(t, interactions.Unlike(ctx, "post_1", "user_1"))
	assert.Equal(t, 1, getPost(t, db, "post_1").TotalLikes)
}

func TestDuplicateLike(t *testing.T) {
	db, interactions, _ := newInteractionService(t, nil)
	ctx := context.Background()
	createTestPost(t, db, "post_1", 0)

	require.NoError(t, interactions.Like(ctx, "post_1", "user_1"))
	err := interactions.Like(ctx, "post_1", "user_1")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, 1, getPost(t, db, "post_1").TotalLikes)
}

func TestUnlikeWithoutLike(t *testing.T) {
	db, interactions, _ := newInteractionService(t, nil)
	createTestPost(t, db, "post_1", 0)

	err := interactions.Unlike(context.Background(), "post_1", "user_1")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestLikeLiftsFlaggedPost(t *testing.T) {
	// A like raises the threshold denominator, which can pull a FLAGGED
	// post back under and revert it to PENDING.
	ranks := map[string]*points.UserRank{
		"checker_1": rankAtLevel("checker_1", model.RoleFactChecker, 2),
	}
	db, interactions, _ := newInteractionService(t, ranks)
	flags := interactions.flags
	ctx := context.Background()
	createTestPost(t, db, "post_1", 1)

	// Weight 1.5 against 1 like crosses the threshold.
	require.NoError(t, flags.Flag(ctx, "post_1", "checker_1"))
	assert.Equal(t, model.PostStatusFlagged, getPost(t, db, "post_1").Status)

	require.NoError(t, interactions.Like(ctx, "post_1", "user_1"))
	assert.Equal(t, model.PostStatusPending, getPost(t, db, "post_1").Status)

	// Unliking drops the denominator back and re-flags.
	require.NoError(t, interactions.Unlike(ctx, "post_1", "user_1"))
	assert.Equal(t, model.PostStatusFlagged, getPost(t, db, "post_1").Status)
}
