package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type importMaterialsRequest struct {
	UserInput string `json:"userInput" binding:"required"`
}

func (r *Router) importMaterials(c *gin.Context) {
	var req importMaterialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userInput is required"})
		return
	}

	stats, err := r.importer.ImportFromUser(c.Request.Context(), req.UserInput)
	if err != nil {
		r.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"imported": stats.Imported,
		"existed":  stats.Existed,
		"total":    stats.Total,
	})
}

func (r *Router) listMaterials(c *gin.Context) {
	ctx := c.Request.Context()

	account, err := r.session.Resolve(ctx, nil)
	if err != nil {
		r.respondError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	keyword := c.Query("q")

	materials, total, err := r.materials.List(ctx, account.ID, keyword, page, pageSize)
	if err != nil {
		r.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
		"data":     materials,
	})
}
