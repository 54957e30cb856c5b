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

func newFlagService(t *testing.T, ranks map[string]*points.UserRank) (*gorm.DB, *FlagService, *recordingEffects) {
	db, _ := utils.CreateTempDB(t)
	effects := &recordingEffects{}
	flags := NewFlagService(db, &fakeRanks{ranks: ranks}, effects)
	return db, flags, effects
}

func TestWeightedScoreCrossesThreshold(t *testing.T) {
	// Four checker flags against a post with 5 likes. The first three carry
	// weights 1.0 + 1.2 + 1.5 = 3.7, under the threshold. The fourth adds
	// 2.0 for a total of 5.7, which strictly exceeds 5 and flags the post.
	db, flags, _ := newFlagService(t, map[string]*points.UserRank{
		"checker_0": rankAtLevel("checker_0", model.RoleFactChecker, 0),
		"checker_1": rankAtLevel("checker_1", model.RoleFactChecker, 1),
		"checker_2": rankAtLevel("checker_2", model.RoleFactChecker, 2),
		"checker_3": rankAtLevel("checker_3", model.RoleFactChecker, 3),
	})
	ctx := context.Background()
	createTestPost(t, db, "post_1", 5)

	for _, checker := range []string{"checker_0", "checker_1", "checker_2"} {
		require.NoError(t, flags.Flag(ctx, "post_1", checker))
	}

	score, err := flags.Score(ctx, "post_1")
	require.NoError(t, err)
	assert.Equal(t, 3, score.TotalFlags)
	assert.InDelta(t, 3.7, score.WeightedScore, 1e-9)
	assert.False(t, score.ShouldBeFlagged)
	assert.Equal(t, model.PostStatusPending, getPost(t, db, "post_1").Status)

	require.NoError(t, flags.Flag(ctx, "post_1", "checker_3"))

	score, err = flags.Score(ctx, "post_1")
	require.NoError(t, err)
	assert.Equal(t, 4, score.TotalFlags)
	assert.InDelta(t, 5.7, score.WeightedScore, 1e-9)
	assert.True(t, score.ShouldBeFlagged)
	assert.Equal(t, model.PostStatusFlagged, getPost(t, db, "post_1").Status)
}

func TestScoreEqualToLikesIsNotFlagged(t *testing.T) {
	// The comparison is strict: a score equal to the like count stays under.
	db, flags, _ := newFlagService(t, map[string]*points.UserRank{
		"checker_0": rankAtLevel("checker_0", model.RoleFactChecker, 0),
	})
	ctx := context.Background()
	createTestPost(t, db, "post_1", 1)

	require.NoError(t, flags.Flag(ctx, "post_1", "checker_0"))

	score, err := flags.Score(ctx, "post_1")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score.WeightedScore, 1e-9)
	assert.False(t, score.ShouldBeFlagged)
}

func TestUnflagRevertsStatus(t *testing.T) {
	db, flags, _ := newFlagService(t, map[string]*points.UserRank{
		"checker_4": rankAtLevel("checker_4", model.RoleFactChecker, 4),
	})
	ctx := context.Background()
	createTestPost(t, db, "post_1", 1)

	// Weight 3.5 against 1 like flags immediately.
	require.NoError(t, flags.Flag(ctx, "post_1", "checker_4"))
	assert.Equal(t, model.PostStatusFlagged, getPost(t, db, "post_1").Status)

	require.NoError(t, flags.Unflag(ctx, "post_1", "checker_4"))
	assert.Equal(t, model.PostStatusPending, getPost(t, db, "post_1").Status)
}

func TestDuplicateFlag(t *testing.T) {
	db, flags, _ := newFlagService(t, nil)
	ctx := context.Background()
	createTestPost(t, db, "post_1", 0)

	require.NoError(t, flags.Flag(ctx, "post_1", "user_1"))
	err := flags.Flag(ctx, "post_1", "user_1")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestUnflagWithoutFlag(t *testing.T) {
	db, flags, _ := newFlagService(t, nil)
	createTestPost(t, db, "post_1", 0)

	err := flags.Unflag(context.Background(), "post_1", "user_1")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestFlagMissingPost(t *testing.T) {
	_, flags, _ := newFlagService(t, nil)

	err := flags.Flag(context.Background(), "missing", "user_1")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestFlagDailyQuota(t *testing.T) {
	// The fallback Novice rank allows 2 flags per day.
	db, flags, _ := newFlagService(t, nil)
	ctx := context.Background()
	createTestPost(t, db, "post_1", 0)
	createTestPost(t, db, "post_2", 0)
	createTestPost(t, db, "post_3", 0)

	require.NoError(t, flags.Flag(ctx, "post_1", "user_1"))
	require.NoError(t, flags.Flag(ctx, "post_2", "user_1"))

	err := flags.Flag(ctx, "post_3", "user_1")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindRateLimit))
	assert.Contains(t, err.Error(), "daily flag limit (2)")
}

func TestFlagAwardsPoint(t *testing.T) {
	db, flags, effects := newFlagService(t, nil)
	createTestPost(t, db, "post_1", 0)

	require.NoError(t, flags.Flag(context.Background(), "post_1", "user_1"))

	require.Len(t, effects.awards, 1)
	assert.Equal(t, awardCall{UserID: "user_1", Points: 1, Reason: "POST_FLAGGED", ContextID: "post_1"}, effects.awards[0])
}

func TestFlagWeightFrozenAtFlagTime(t *testing.T) {
	// The flagger's rank is denormalized onto the flag row, a later rank
	// change does not move the score of existing flags.
	ranks := map[string]*points.UserRank{
		"checker_1": rankAtLevel("checker_1", model.RoleFactChecker, 4),
	}
	db, flags, _ := newFlagService(t, ranks)
	ctx := context.Background()
	createTestPost(t, db, "post_1", 0)

	require.NoError(t, flags.Flag(ctx, "post_1", "checker_1"))

	ranks["checker_1"] = rankAtLevel("checker_1", model.RoleFactChecker, 0)

	score, err := flags.Score(ctx, "post_1")
	require.NoError(t, err)
	assert.InDelta(t, 3.5, score.WeightedScore, 1e-9)
}
