package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type searchNotesRequest struct {
	Keyword  string `json:"keyword" binding:"required"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
	Sort     string `json:"sort"`
	NoteType string `json:"noteType"`
}

func (r *Router) searchNotes(c *gin.Context) {
	var req searchNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "keyword is required"})
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 20
	}

	ctx := c.Request.Context()
	account, err := r.session.Resolve(ctx, nil)
	if err != nil {
		r.respondError(c, err)
		return
	}

	result, err := r.newClient(account.Cookie).SearchNotes(ctx, req.Keyword, req.Page, req.PageSize, req.Sort, req.NoteType)
	if err != nil {
		r.respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json", result)
}

func (r *Router) deleteNote(c *gin.Context) {
	noteID := c.Param("id")
	if noteID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "note id is required"})
		return
	}

	ctx := c.Request.Context()
	account, err := r.session.Resolve(ctx, nil)
	if err != nil {
		r.respondError(c, err)
		return
	}

	if err := r.newClient(account.Cookie).Delete(ctx, noteID); err != nil {
		r.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type cleanupNotesRequest struct {
	ViewThreshold int64 `json:"viewThreshold" binding:"required"`
}

// cleanupNotes deletes the active account's own published notes whose view
// count fell below the threshold. The sweep runs synchronously and paces
// itself between deletes, so large cleanups take a while.
func (r *Router) cleanupNotes(c *gin.Context) {
	var req cleanupNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "viewThreshold is required"})
		return
	}

	ctx := c.Request.Context()
	account, err := r.session.Resolve(ctx, nil)
	if err != nil {
		r.respondError(c, err)
		return
	}

	if err := r.newClient(account.Cookie).DeleteByView(ctx, req.ViewThreshold); err != nil {
		r.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
