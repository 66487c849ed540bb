package queue

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xmrpay-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskMoneroSummaryRefresh 钱包状态刷新任务
	TaskMoneroSummaryRefresh = constants.TaskMoneroSummaryRefresh
)

// MoneroSummaryRefreshPayload 钱包状态刷新任务载荷
type MoneroSummaryRefreshPayload struct {
	CryptoCode string `json:"crypto_code"`
}

// NewMoneroSummaryRefreshTask 创建钱包状态刷新任务
func NewMoneroSummaryRefreshTask(payload MoneroSummaryRefreshPayload) (*asynq.Task, error) {
	payload.CryptoCode = strings.ToUpper(strings.TrimSpace(payload.CryptoCode))
	if payload.CryptoCode == "" {
		return nil, fmt.Errorf("crypto code is required")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMoneroSummaryRefresh, body), nil
}

// ParseMoneroSummaryRefreshPayload 解析钱包状态刷新任务载荷
func ParseMoneroSummaryRefreshPayload(body []byte) (MoneroSummaryRefreshPayload, error) {
	var payload MoneroSummaryRefreshPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return payload, err
	}
	payload.CryptoCode = strings.ToUpper(strings.TrimSpace(payload.CryptoCode))
	if payload.CryptoCode == "" {
		return payload, fmt.Errorf("crypto code is required")
	}
	return payload, nil
}
