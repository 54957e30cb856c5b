// Package moderation implements the fact-checking workflow: the queue of
// posts awaiting verdicts, exclusive time-boxed claims on queue items,
// rank-weighted flag scoring, and the verdict pipeline that ties them
// together.
package moderation

import (
	"context"

	"github.com/anivartee/anivartee/model"
	"github.com/anivartee/anivartee/points"
)

// RankSource yields a user's current rank and limits. Implementations must
// degrade to the lowest-tier fallback instead of failing, callers treat the
// result as always present.
type RankSource interface {
	RankOrFallback(ctx context.Context, userID string) *points.UserRank
}

// SideEffects is the best-effort, non-blocking contract for work that must
// never fail a primary action: points awards, activity recording and draft
// cleanup. Submissions return immediately, failures are logged by the
// consumer and swallowed.
type SideEffects interface {
	AwardPoints(userID string, pts int, reason string, contextID string)
	RecordActivity(userID string, activity model.ActivityType)
	DeleteDraft(postID, factCheckerID string)
}
