package admin

import (
	"github.com/xmrpay-next/internal/provider"
	"github.com/xmrpay-next/internal/service"
)

// Handler 管理端接口，只依赖店铺与 Monero 支付方式服务
type Handler struct {
	MoneroService *service.MoneroStoreService
	// 单个钱包文件的大小上限，0 表示不限制
	maxUploadSize int64
}

// New 从容器取出处理器依赖
func New(c *provider.Container) *Handler {
	h := &Handler{MoneroService: c.MoneroService}
	if c.Config != nil {
		h.maxUploadSize = c.Config.Upload.MaxSize
	}
	return h
}
