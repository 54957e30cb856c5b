package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/anivartee/anivartee/apperr"
	"github.com/anivartee/anivartee/moderation"
	"github.com/anivartee/anivartee/points"
	"github.com/anivartee/anivartee/server/middlewares"
	Logger "github.com/anivartee/anivartee/utils/log"
)

const (
	defaultQueuePageSize   = 20
	defaultHistoryPageSize = 20
	defaultLeaderboardSize = 10
)

// Handler bundles the service graph behind the HTTP surface.
type Handler struct {
	db           *gorm.DB
	queue        *moderation.QueueService
	claims       *moderation.ClaimService
	flags        *moderation.FlagService
	interactions *moderation.InteractionService
	verdicts     *moderation.VerdictService
	points       *points.Service

	// claimStatus is nil when redis is not configured, queue listings then
	// skip the claimed-status annotation.
	claimStatus *moderation.ClaimStatusStore
}

func NewHandler(
	db *gorm.DB,
	queue *moderation.QueueService,
	claims *moderation.ClaimService,
	flags *moderation.FlagService,
	interactions *moderation.InteractionService,
	verdicts *moderation.VerdictService,
	pointsService *points.Service,
	claimStatus *moderation.ClaimStatusStore,
) *Handler {
	return &Handler{
		db:           db,
		queue:        queue,
		claims:       claims,
		flags:        flags,
		interactions: interactions,
		verdicts:     verdicts,
		points:       pointsService,
		claimStatus:  claimStatus,
	}
}

func abortWithError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		Logger.Log.Errorf("request failed: %v", err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

// ==================== Moderation queue ====================

type queueItemView struct {
	Id       string `json:"id"`
	PostID   string `json:"postId"`
	Status   string `json:"status"`
	Priority int    `json:"priority"`
	AddedAt  string `json:"addedAt"`
	Claimed  *bool  `json:"claimed,omitempty"`
}

func (h *Handler) GetQueue(c *gin.Context) {
	page := intQuery(c, "page", 1)
	pageSize := intQuery(c, "pageSize", defaultQueuePageSize)

	result, err := h.queue.GetQueue(c.Request.Context(), page, pageSize)
	if err != nil {
		abortWithError(c, err)
		return
	}

	items := make([]queueItemView, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, queueItemView{
			Id:       item.Id,
			PostID:   item.PostID,
			Status:   string(item.Status),
			Priority: item.Priority,
			AddedAt:  item.AddedAt.Format(time.RFC3339),
		})
	}

	// Best effort, a redis hiccup should not fail the listing.
	if h.claimStatus != nil && len(items) > 0 {
		postIds := make([]string, 0, len(items))
		for _, item := range items {
			postIds = append(postIds, item.PostID)
		}
		statuses, err := h.claimStatus.GetClaimedStatuses(postIds)
		if err != nil {
			Logger.Log.Warnf("failed to annotate claimed statuses: %v", err)
		} else {
			for i := range items {
				claimed := statuses[i]
				items[i].Claimed = &claimed
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"items":    items,
		"total":    result.Total,
		"page":     result.Page,
		"pageSize": result.PageSize,
	})
}

type enqueueRequest struct {
	PostID   string `json:"postId" binding:"required"`
	AuthorID string `json:"authorId" binding:"required"`
	Priority int    `json:"priority"`
}

func (h *Handler) Enqueue(c *gin.Context) {
	var req enqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, apperr.Validation("invalid enqueue request: %v", err))
		return
	}

	item, err := h.queue.AddToQueue(c.Request.Context(), req.PostID, req.AuthorID, req.Priority)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) Dequeue(c *gin.Context) {
	if err := h.queue.RemoveFromQueue(c.Request.Context(), c.Param("postId")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

// ==================== Claims ====================

func (h *Handler) ClaimPost(c *gin.Context) {
	claim, err := h.claims.Claim(c.Request.Context(), c.Param("postId"), middlewares.UserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, claim)
}

func (h *Handler) AbandonClaim(c *gin.Context) {
	err := h.claims.Abandon(c.Request.Context(), c.Param("postId"), middlewares.UserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"abandoned": true})
}

func (h *Handler) GetActiveClaim(c *gin.Context) {
	claim, err := h.claims.GetActiveClaim(c.Request.Context(), c.Param("postId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if claim == nil {
		c.JSON(http.StatusOK, gin.H{"claimed": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"claimed": true, "claim": claim})
}

// ==================== Verdicts and drafts ====================

func (h *Handler) SubmitVerdict(c *gin.Context) {
	var input moderation.VerdictInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithError(c, apperr.Validation("invalid verdict request: %v", err))
		return
	}

	factCheck, err := h.verdicts.SubmitVerdict(c.Request.Context(), c.Param("postId"), middlewares.UserID(c), input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, factCheck)
}

func (h *Handler) SaveDraft(c *gin.Context) {
	var input moderation.DraftInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithError(c, apperr.Validation("invalid draft request: %v", err))
		return
	}

	draft, err := h.verdicts.SaveDraft(c.Request.Context(), c.Param("postId"), middlewares.UserID(c), input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (h *Handler) GetDraft(c *gin.Context) {
	draft, err := h.verdicts.GetDraft(c.Request.Context(), c.Param("postId"), middlewares.UserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if draft == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no draft found for this post"})
		return
	}
	c.JSON(http.StatusOK, draft)
}

// ==================== Flags and likes ====================

func (h *Handler) FlagPost(c *gin.Context) {
	if err := h.flags.Flag(c.Request.Context(), c.Param("postId"), middlewares.UserID(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flagged": true})
}

func (h *Handler) UnflagPost(c *gin.Context) {
	if err := h.flags.Unflag(c.Request.Context(), c.Param("postId"), middlewares.UserID(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flagged": false})
}

func (h *Handler) GetFlagScore(c *gin.Context) {
	score, err := h.flags.Score(c.Request.Context(), c.Param("postId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, score)
}

func (h *Handler) LikePost(c *gin.Context) {
	if err := h.interactions.Like(c.Request.Context(), c.Param("postId"), middlewares.UserID(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": true})
}

func (h *Handler) UnlikePost(c *gin.Context) {
	if err := h.interactions.Unlike(c.Request.Context(), c.Param("postId"), middlewares.UserID(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": false})
}

// ==================== Points and ranks ====================

func (h *Handler) GetBalance(c *gin.Context) {
	balance, err := h.points.GetBalance(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": middlewares.UserID(c), "balance": balance})
}

func (h *Handler) GetHistory(c *gin.Context) {
	page := intQuery(c, "page", 1)
	pageSize := intQuery(c, "pageSize", defaultHistoryPageSize)

	history, err := h.points.GetHistory(c.Request.Context(), middlewares.UserID(c), page, pageSize)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *Handler) GetLeaderboard(c *gin.Context) {
	limit := intQuery(c, "limit", defaultLeaderboardSize)

	entries, err := h.points.GetLeaderboard(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

func (h *Handler) GetUserRank(c *gin.Context) {
	userRank, err := h.points.GetUserRank(c.Request.Context(), c.Param("userId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, userRank)
}

type awardRequest struct {
	UserID    string  `json:"userId" binding:"required"`
	Points    int     `json:"points" binding:"required"`
	Reason    string  `json:"reason" binding:"required"`
	ContextID *string `json:"contextId"`
}

// AwardPoints is the internal endpoint other services call to grant or
// deduct points outside of the moderation flows.
func (h *Handler) AwardPoints(c *gin.Context) {
	var req awardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, apperr.Validation("invalid award request: %v", err))
		return
	}

	result, err := h.points.Award(c.Request.Context(), req.UserID, req.Points, req.Reason, req.ContextID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
