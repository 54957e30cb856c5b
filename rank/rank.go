package rank

import (
	"github.com/jinzhu/copier"

	"github.com/anivartee/anivartee/model"
)

/*

rank maps a point balance and an actor class to a named tier and the bundle
of permission limits that tier grants.

The two ladders (ordinary users and fact-checkers) are disjoint and each is
ordered highest minPoints first, so computing a rank is a single scan for the
first tier the balance satisfies. Ladders are static configuration, loaded at
process start and never mutated.
*/

// Tier is one immutable rung of a ladder.
type Tier struct {
	Name                 string
	MinPoints            int
	MaxHeaderLength      int
	MaxDescriptionLength int
	PostsPerDay          int
	EditsPerDay          int
	// nil means the edit window is unlimited.
	CommentEditWindowHours *int
	FlagsPerDay            int
	PostPoints             int
	FlagWeight             float64
	PenaltyPoints          int
}

// Limits is the read-only projection of a tier handed to callers. It omits
// the lookup fields (MinPoints, PenaltyPoints are awarding concerns).
type Limits struct {
	MaxHeaderLength        int  `json:"maxHeaderLength"`
	MaxDescriptionLength   int  `json:"maxDescriptionLength"`
	PostsPerDay            int  `json:"postsPerDay"`
	EditsPerDay            int  `json:"editsPerDay"`
	CommentEditWindowHours *int `json:"commentEditWindowHours"`
	FlagsPerDay            int  `json:"flagsPerDay"`
	PostPoints             int  `json:"postPoints"`
	FlagWeight             float64 `json:"flagWeight"`
}

// Rank is the result of a computation: a named tier plus its 1-based level,
// level 1 being the highest tier of the ladder.
type Rank struct {
	Name   string `json:"rankName"`
	Level  int    `json:"rankLevel"`
	Limits Limits `json:"limits"`
}

// Ladder is an ordered list of tiers, highest MinPoints first.
type Ladder []Tier

func hours(h int) *int { return &h }

var userLadder = Ladder{
	{Name: "Trusted", MinPoints: 1500, MaxHeaderLength: 150, MaxDescriptionLength: 400, PostsPerDay: 5, EditsPerDay: 4, CommentEditWindowHours: nil, FlagsPerDay: 7, PostPoints: 9, FlagWeight: 2, PenaltyPoints: -70},
	{Name: "Researcher", MinPoints: 750, MaxHeaderLength: 130, MaxDescriptionLength: 350, PostsPerDay: 5, EditsPerDay: 4, CommentEditWindowHours: nil, FlagsPerDay: 5, PostPoints: 7, FlagWeight: 1.3, PenaltyPoints: -30},
	{Name: "Contributor", MinPoints: 300, MaxHeaderLength: 100, MaxDescriptionLength: 300, PostsPerDay: 3, EditsPerDay: 2, CommentEditWindowHours: hours(12), FlagsPerDay: 3, PostPoints: 4, FlagWeight: 0.8, PenaltyPoints: -15},
	{Name: "Novice", MinPoints: 0, MaxHeaderLength: 80, MaxDescriptionLength: 200, PostsPerDay: 2, EditsPerDay: 1, CommentEditWindowHours: hours(12), FlagsPerDay: 2, PostPoints: 3, FlagWeight: 0.5, PenaltyPoints: -3},
}

var checkerLadder = Ladder{
	{Name: "Sentinel", MinPoints: 1500, MaxHeaderLength: 150, MaxDescriptionLength: 400, PostsPerDay: 5, EditsPerDay: 4, CommentEditWindowHours: nil, FlagsPerDay: 10, PostPoints: 4, FlagWeight: 3.5, PenaltyPoints: -60},
	{Name: "Specialist", MinPoints: 800, MaxHeaderLength: 140, MaxDescriptionLength: 380, PostsPerDay: 5, EditsPerDay: 4, CommentEditWindowHours: nil, FlagsPerDay: 10, PostPoints: 4, FlagWeight: 2, PenaltyPoints: -30},
	{Name: "Investigator", MinPoints: 400, MaxHeaderLength: 120, MaxDescriptionLength: 350, PostsPerDay: 4, EditsPerDay: 3, CommentEditWindowHours: nil, FlagsPerDay: 7, PostPoints: 4, FlagWeight: 1.5, PenaltyPoints: -16},
	{Name: "Analyst", MinPoints: 200, MaxHeaderLength: 100, MaxDescriptionLength: 300, PostsPerDay: 3, EditsPerDay: 2, CommentEditWindowHours: hours(12), FlagsPerDay: 5, PostPoints: 4, FlagWeight: 1.2, PenaltyPoints: -8},
	{Name: "Apprentice", MinPoints: 0, MaxHeaderLength: 80, MaxDescriptionLength: 250, PostsPerDay: 2, EditsPerDay: 1, CommentEditWindowHours: hours(12), FlagsPerDay: 3, PostPoints: 4, FlagWeight: 1, PenaltyPoints: -4},
}

// LadderFor returns the ladder for an actor class. Fact-checkers climb their
// own ladder, every other role (including admins) uses the user ladder.
func LadderFor(role model.UserRole) Ladder {
	if role == model.RoleFactChecker {
		return checkerLadder
	}
	return userLadder
}

// Compute returns the first tier of the ladder whose MinPoints the balance
// satisfies, with its 1-based position as the level. The lowest tier of both
// ladders has MinPoints 0 so the fallback branch is unreachable in practice,
// but a misconfigured ladder still yields the lowest tier rather than a miss.
func (l Ladder) Compute(points int) Rank {
	for i, tier := range l {
		if points >= tier.MinPoints {
			return Rank{Name: tier.Name, Level: i + 1, Limits: tier.Limits()}
		}
	}
	last := l[len(l)-1]
	return Rank{Name: last.Name, Level: len(l), Limits: last.Limits()}
}

// Limits projects the tier's quota and weight fields.
func (t Tier) Limits() Limits {
	var limits Limits
	// Tier and Limits share field names, the projection is a straight copy.
	if err := copier.Copy(&limits, &t); err != nil {
		panic(err)
	}
	return limits
}

// Fallback is the fixed lowest-tier rank handed out when the points
// subsystem is unreachable. Level 0 marks it as unranked.
func Fallback() Rank {
	novice := userLadder[len(userLadder)-1]
	return Rank{Name: novice.Name, Level: 0, Limits: novice.Limits()}
}
