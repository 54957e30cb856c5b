package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anivartee/anivartee/model"
)

func TestComputeUserLadder(t *testing.T) {
	ladder := LadderFor(model.RoleUser)

	tests := []struct {
		points int
		name   string
		level  int
	}{
		{0, "Novice", 4},
		{299, "Novice", 4},
		{300, "Contributor", 3},
		{749, "Contributor", 3},
		{750, "Researcher", 2},
		{1499, "Researcher", 2},
		{1500, "Trusted", 1},
		{99999, "Trusted", 1},
	}
	for _, tt := range tests {
		r := ladder.Compute(tt.points)
		assert.Equal(t, tt.name, r.Name, "points=%d", tt.points)
		assert.Equal(t, tt.level, r.Level, "points=%d", tt.points)
	}
}

func TestComputeCheckerLadder(t *testing.T) {
	ladder := LadderFor(model.RoleFactChecker)

	tests := []struct {
		points int
		name   string
		level  int
	}{
		{0, "Apprentice", 5},
		{199, "Apprentice", 5},
		{200, "Analyst", 4},
		{400, "Investigator", 3},
		{800, "Specialist", 2},
		{1500, "Sentinel", 1},
	}
	for _, tt := range tests {
		r := ladder.Compute(tt.points)
		assert.Equal(t, tt.name, r.Name, "points=%d", tt.points)
		assert.Equal(t, tt.level, r.Level, "points=%d", tt.points)
	}
}

func TestComputeNegativeBalance(t *testing.T) {
	// Penalties can drive a balance below zero, the lowest tier still applies.
	r := LadderFor(model.RoleUser).Compute(-50)
	assert.Equal(t, "Novice", r.Name)

	r = LadderFor(model.RoleFactChecker).Compute(-50)
	assert.Equal(t, "Apprentice", r.Name)
}

func TestAdminUsesUserLadder(t *testing.T) {
	r := LadderFor(model.RoleAdmin).Compute(800)
	assert.Equal(t, "Researcher", r.Name)
}

func TestTierLimitsProjection(t *testing.T) {
	r := LadderFor(model.RoleUser).Compute(1500)

	require.Equal(t, "Trusted", r.Name)
	assert.Equal(t, 150, r.Limits.MaxHeaderLength)
	assert.Equal(t, 400, r.Limits.MaxDescriptionLength)
	assert.Equal(t, 5, r.Limits.PostsPerDay)
	assert.Equal(t, 7, r.Limits.FlagsPerDay)
	assert.Equal(t, 9, r.Limits.PostPoints)
	assert.Nil(t, r.Limits.CommentEditWindowHours)

	r = LadderFor(model.RoleUser).Compute(0)
	require.NotNil(t, r.Limits.CommentEditWindowHours)
	assert.Equal(t, 12, *r.Limits.CommentEditWindowHours)
	assert.Equal(t, 2, r.Limits.PostsPerDay)
}

func TestFallback(t *testing.T) {
	r := Fallback()

	assert.Equal(t, "Novice", r.Name)
	assert.Equal(t, 0, r.Level)
	assert.Equal(t, 2, r.Limits.FlagsPerDay)
	assert.Equal(t, 80, r.Limits.MaxHeaderLength)
}

func TestFlagWeightUser(t *testing.T) {
	assert.Equal(t, 0.5, FlagWeight(model.RoleUser, 0))
	assert.Equal(t, 0.8, FlagWeight(model.RoleUser, 1))
	assert.Equal(t, 1.3, FlagWeight(model.RoleUser, 2))
	assert.Equal(t, 2.0, FlagWeight(model.RoleUser, 3))

	// Out of range falls back to the role's lowest weight.
	assert.Equal(t, 0.5, FlagWeight(model.RoleUser, 4))
	assert.Equal(t, 0.5, FlagWeight(model.RoleUser, -1))
}

func TestFlagWeightChecker(t *testing.T) {
	assert.Equal(t, 1.0, FlagWeight(model.RoleFactChecker, 0))
	assert.Equal(t, 1.2, FlagWeight(model.RoleFactChecker, 1))
	assert.Equal(t, 1.5, FlagWeight(model.RoleFactChecker, 2))
	assert.Equal(t, 2.0, FlagWeight(model.RoleFactChecker, 3))
	assert.Equal(t, 3.5, FlagWeight(model.RoleFactChecker, 4))

	assert.Equal(t, 1.0, FlagWeight(model.RoleFactChecker, 5))
}

func TestFlagWeightUnknownRole(t *testing.T) {
	assert.Equal(t, 0.5, FlagWeight(model.RoleAdmin, 2))
	assert.Equal(t, 0.5, FlagWeight(model.UserRole("MYSTERY"), 0))
}
