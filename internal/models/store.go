package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Store 店铺表
// 支付方式配置与禁用集合以 JSON blob 形式整体存储
type Store struct {
	ID        string    `gorm:"primarykey;size:64" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Blob      StoreBlob `gorm:"column:blob_json;type:json" json:"blob"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

// TableName 指定表名
func (Store) TableName() string {
	return "stores"
}

// StoreBlob 店铺配置 blob
type StoreBlob struct {
	ExcludedPaymentMethods []string                   `json:"excluded_payment_methods,omitempty"`
	PaymentMethodConfigs   map[string]json.RawMessage `json:"payment_method_configs,omitempty"`
}

// Value 实现 driver.Valuer 接口
func (b StoreBlob) Value() (driver.Value, error) {
	return json.Marshal(b)
}

// Scan 实现 sql.Scanner 接口
func (b *StoreBlob) Scan(value interface{}) error {
	*b = StoreBlob{}
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported store blob type %T", value)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, b)
}

// ExcludedSet 返回当前禁用的支付方式 ID 列表副本
func (b StoreBlob) ExcludedSet() []string {
	out := make([]string, len(b.ExcludedPaymentMethods))
	copy(out, b.ExcludedPaymentMethods)
	return out
}

// SetExcluded 设置支付方式是否处于禁用集合中
func (b *StoreBlob) SetExcluded(paymentMethodID string, excluded bool) {
	id := strings.TrimSpace(paymentMethodID)
	if id == "" {
		return
	}
	kept := make([]string, 0, len(b.ExcludedPaymentMethods)+1)
	for _, existing := range b.ExcludedPaymentMethods {
		if existing == id {
			continue
		}
		kept = append(kept, existing)
	}
	if excluded {
		kept = append(kept, id)
	}
	sort.Strings(kept)
	b.ExcludedPaymentMethods = kept
}

// GetPaymentMethodConfig 读取支付方式配置，未配置时返回 false
func (b StoreBlob) GetPaymentMethodConfig(paymentMethodID string, dest interface{}) (bool, error) {
	raw, ok := b.PaymentMethodConfigs[paymentMethodID]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode payment method config %s: %w", paymentMethodID, err)
	}
	return true, nil
}

// SetPaymentMethodConfig 写入支付方式配置，其他支付方式的配置保持不变
func (b *StoreBlob) SetPaymentMethodConfig(paymentMethodID string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode payment method config %s: %w", paymentMethodID, err)
	}
	if b.PaymentMethodConfigs == nil {
		b.PaymentMethodConfigs = make(map[string]json.RawMessage)
	}
	b.PaymentMethodConfigs[paymentMethodID] = raw
	return nil
}
