package admin

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/xmrpay-next/internal/http/response"
	"github.com/xmrpay-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// moneroCommandJSONRequest JSON 提交的命令请求
type moneroCommandJSONRequest struct {
	Command string `json:"command"`
	service.MoneroPaymentMethodForm
}

// moneroCommandFormRequest 表单提交的命令请求，数字与开关按字符串接收后再解析
type moneroCommandFormRequest struct {
	Command                   string `form:"command"`
	Enabled                   string `form:"enabled"`
	AccountIndex              string `form:"account_index"`
	NewAccountLabel           string `form:"new_account_label"`
	SettlementChoice          string `form:"settlement_confirmation_threshold_choice"`
	CustomSettlementThreshold string `form:"custom_confirmation_threshold"`
	UseRemoteNode             string `form:"use_remote_node"`
	RemoteNodeProtocol        string `form:"remote_node_protocol"`
	RemoteNodeAddress         string `form:"remote_node_address"`
	RemoteNodePort            string `form:"remote_node_port"`
	WalletPassword            string `form:"wallet_password"`
}

// ListMoneroPaymentMethods 获取店铺全部 Monero 类支付方式
func (h *Handler) ListMoneroPaymentMethods(c *gin.Context) {
	views, err := h.MoneroService.GetPaymentMethods(c.Request.Context(), strings.TrimSpace(c.Param("store_id")))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, views)
}

// GetMoneroPaymentMethod 获取单个支付方式视图
func (h *Handler) GetMoneroPaymentMethod(c *gin.Context) {
	view, err := h.MoneroService.GetPaymentMethod(c.Request.Context(), strings.TrimSpace(c.Param("store_id")), c.Param("crypto_code"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, view)
}

// ApplyMoneroCommand 执行保存、添加远程节点、创建账户或上传钱包命令
func (h *Handler) ApplyMoneroCommand(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	storeID := strings.TrimSpace(c.Param("store_id"))
	cryptoCode := c.Param("crypto_code")

	var (
		command string
		form    service.MoneroPaymentMethodForm
		upload  service.WalletUploadInput
	)
	if c.ContentType() == binding.MIMEJSON {
		var req moneroCommandJSONRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "invalid request: "+err.Error(), nil)
			return
		}
		command = req.Command
		form = req.MoneroPaymentMethodForm
	} else {
		var req moneroCommandFormRequest
		if err := c.ShouldBind(&req); err != nil {
			respondError(c, response.CodeBadRequest, "invalid request: "+err.Error(), nil)
			return
		}
		command = req.Command
		form = req.toForm()

		closers, err := h.openWalletUploads(c, &upload)
		defer func() {
			for _, closer := range closers {
				_ = closer.Close()
			}
		}()
		if err != nil {
			respondError(c, response.CodeBadRequest, err.Error(), nil)
			return
		}
	}
	if strings.TrimSpace(command) == "" {
		command = c.Query("command")
	}

	result, err := h.MoneroService.ApplyCommand(c.Request.Context(), storeID, cryptoCode, command, form, upload)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if result.HasErrors() {
		requestLog(c).Debugw("admin_monero_command_rejected",
			"admin_id", adminID,
			"store_id", storeID,
			"crypto_code", cryptoCode,
			"command", result.Command,
			"errors", len(result.Errors),
		)
		response.ErrorWithData(c, response.CodeBadRequest, "validation failed", gin.H{
			"command": result.Command,
			"errors":  result.Errors,
			"view":    result.View,
		})
		return
	}
	requestLog(c).Infow("admin_monero_command_applied",
		"admin_id", adminID,
		"store_id", storeID,
		"crypto_code", cryptoCode,
		"command", result.Command,
		"saved", result.Saved,
	)
	msg := result.Message
	if msg == "" {
		msg = "success"
	}
	response.SuccessWithMsg(c, msg, result)
}

// openWalletUploads 打开 multipart 中的钱包文件，未提交的文件保持为 nil
func (h *Handler) openWalletUploads(c *gin.Context, upload *service.WalletUploadInput) ([]io.Closer, error) {
	var closers []io.Closer
	if !strings.HasPrefix(c.ContentType(), binding.MIMEMultipartPOSTForm) {
		return closers, nil
	}
	maxSize := h.maxUploadSize
	open := func(field string) (multipart.File, error) {
		header, err := c.FormFile(field)
		if err != nil || header == nil {
			return nil, nil
		}
		if maxSize > 0 && header.Size > maxSize {
			return nil, fmt.Errorf("%s exceeds the upload size limit", field)
		}
		file, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("%s could not be read", field)
		}
		closers = append(closers, file)
		return file, nil
	}

	walletFile, err := open(service.FieldWalletFile)
	if err != nil {
		return closers, err
	}
	keysFile, err := open(service.FieldWalletKeysFile)
	if err != nil {
		return closers, err
	}
	if walletFile != nil {
		upload.WalletFile = walletFile
	}
	if keysFile != nil {
		upload.WalletKeysFile = keysFile
	}
	return closers, nil
}

// toForm 解析表单字段，格式非法的数字记为字段错误
func (r moneroCommandFormRequest) toForm() service.MoneroPaymentMethodForm {
	form := service.MoneroPaymentMethodForm{
		Enabled:            parseFormBool(r.Enabled),
		NewAccountLabel:    r.NewAccountLabel,
		SettlementChoice:   service.SettlementChoice(r.SettlementChoice),
		UseRemoteNode:      parseFormBool(r.UseRemoteNode),
		RemoteNodeProtocol: r.RemoteNodeProtocol,
		RemoteNodeAddress:  r.RemoteNodeAddress,
		WalletPassword:     r.WalletPassword,
	}
	inputError := func(field, message string) {
		form.InputErrors = append(form.InputErrors, service.FieldError{
			Field:   field,
			Code:    service.FieldErrorValidation,
			Message: message,
		})
	}

	if raw := strings.TrimSpace(r.AccountIndex); raw != "" {
		index, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			inputError(service.FieldAccountIndex, "The account index must be a non-negative number.")
		} else {
			form.AccountIndex = index
		}
	}
	if raw := strings.TrimSpace(r.CustomSettlementThreshold); raw != "" {
		threshold, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			inputError(service.FieldCustomThreshold, "The custom confirmation threshold must be a number.")
		} else {
			form.CustomSettlementThreshold = &threshold
		}
	}
	if raw := strings.TrimSpace(r.RemoteNodePort); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			inputError(service.FieldRemotePort, "The remote node port must be a number.")
		} else {
			form.RemoteNodePort = &port
		}
	}
	return form
}

func parseFormBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "on", "true", "yes":
		return true
	default:
		return false
	}
}
