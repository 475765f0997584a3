package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xiaoxiunique/xhs-poster/internal/cache"
	"github.com/xiaoxiunique/xhs-poster/internal/xhs"
)

// topicCacheTTL bounds how long a topic autocomplete result is reused.
const topicCacheTTL = 10 * time.Minute

type searchTopicsRequest struct {
	Keyword string `json:"keyword" binding:"required"`
}

func (r *Router) searchTopics(c *gin.Context) {
	var req searchTopicsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "keyword is required"})
		return
	}

	ctx := c.Request.Context()

	cacheKey := "topics:" + cache.HashKey(req.Keyword)
	if cached, err := r.cache.Get(ctx, cacheKey); err == nil {
		var topics []xhs.Topic
		if err := json.Unmarshal([]byte(cached), &topics); err == nil {
			c.JSON(http.StatusOK, topics)
			return
		}
	}

	account, err := r.session.Resolve(ctx, nil)
	if err != nil {
		r.respondError(c, err)
		return
	}

	topics, err := r.newClient(account.Cookie).SearchTopics(ctx, req.Keyword)
	if err != nil {
		r.respondError(c, err)
		return
	}

	if encoded, err := json.Marshal(topics); err == nil {
		if err := r.cache.Set(ctx, cacheKey, string(encoded), topicCacheTTL); err != nil && err != cache.ErrCacheDisabled {
			r.logger.Warn("Failed to cache topic search", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, topics)
}
