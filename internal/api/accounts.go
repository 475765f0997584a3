package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type createAccountRequest struct {
	Name   string `json:"name" binding:"required"`
	Cookie string `json:"cookie" binding:"required"`
}

func (r *Router) listAccounts(c *gin.Context) {
	accounts, err := r.accounts.List(c.Request.Context())
	if err != nil {
		r.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

func (r *Router) createAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and cookie are required"})
		return
	}

	existing, err := r.accounts.GetByName(c.Request.Context(), req.Name)
	if err != nil {
		r.respondError(c, err)
		return
	}
	if existing != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account name already exists"})
		return
	}

	account, err := r.session.Register(c.Request.Context(), req.Name, req.Cookie)
	if err != nil {
		r.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "id": account.ID, "status": account.Status})
}

func (r *Router) getAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	account, err := r.accounts.GetByID(c.Request.Context(), id)
	if err != nil {
		r.respondError(c, err)
		return
	}
	if account == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}

	c.JSON(http.StatusOK, account)
}

func (r *Router) deleteAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := r.accounts.Delete(c.Request.Context(), id); err != nil {
		r.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (r *Router) activateAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := r.session.Activate(c.Request.Context(), id); err != nil {
		r.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (r *Router) checkAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	status, err := r.session.CheckValidity(c.Request.Context(), id)
	if err != nil {
		r.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": status})
}

// pathID parses the :id path parameter, responding 400 on garbage.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
