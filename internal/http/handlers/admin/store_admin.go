package admin

import (
	"strings"

	"github.com/xmrpay-next/internal/http/response"
	"github.com/xmrpay-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateStore 创建店铺
func (h *Handler) CreateStore(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req service.CreateStoreInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request: "+err.Error(), nil)
		return
	}
	store, err := h.MoneroService.CreateStore(req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_store_created", "admin_id", adminID, "store_id", store.ID)
	response.Success(c, store)
}

// GetStore 获取店铺
func (h *Handler) GetStore(c *gin.Context) {
	store, err := h.MoneroService.GetStore(strings.TrimSpace(c.Param("store_id")))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, store)
}
