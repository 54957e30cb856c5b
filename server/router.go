package server

import (
	"github.com/gin-gonic/gin"

	"github.com/anivartee/anivartee/server/middlewares"
)

// RegisterRoutes mounts the moderation API on the given engine. Identity is
// resolved for every route, fact-checker routes carry an extra role gate.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/", middlewares.Identity())

	// Moderation queue. Listing is open to every identity, fact-checkers use
	// it to pick work.
	api.GET("/queue", h.GetQueue)

	// Community signals on posts.
	posts := api.Group("/posts")
	posts.POST("/:postId/flag", h.FlagPost)
	posts.DELETE("/:postId/flag", h.UnflagPost)
	posts.GET("/:postId/flag-score", h.GetFlagScore)
	posts.POST("/:postId/like", h.LikePost)
	posts.DELETE("/:postId/like", h.UnlikePost)

	// Review flows, fact-checkers only.
	review := posts.Group("/", middlewares.RequireFactChecker(h.db))
	review.POST("/:postId/claim", h.ClaimPost)
	review.DELETE("/:postId/claim", h.AbandonClaim)
	review.GET("/:postId/claim", h.GetActiveClaim)
	review.POST("/:postId/verdict", h.SubmitVerdict)
	review.PUT("/:postId/draft", h.SaveDraft)
	review.GET("/:postId/draft", h.GetDraft)

	// Points and ranks.
	api.GET("/points/balance", h.GetBalance)
	api.GET("/points/history", h.GetHistory)
	api.GET("/leaderboard", h.GetLeaderboard)
	api.GET("/users/:userId/rank", h.GetUserRank)

	// Internal surface for sibling services (post lifecycle hooks and
	// out-of-band point grants). Not exposed through the public gateway.
	internal := router.Group("/internal")
	internal.POST("/queue", h.Enqueue)
	internal.DELETE("/queue/:postId", h.Dequeue)
	internal.POST("/points/award", h.AwardPoints)
}
