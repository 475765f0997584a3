package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type publishRequest struct {
	AccountID *int64 `json:"accountId"`
}

func (r *Router) publishPost(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	// Body is optional; absent or non-JSON means "publish as the active
	// account".
	var req publishRequest
	_ = c.ShouldBindJSON(&req)

	result, err := r.publisher.Publish(c.Request.Context(), id, req.AccountID)
	if err != nil {
		r.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"post":    result.Post,
		"res":     result.PlatformResponse,
	})
}
