package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xmrpay-next/internal/constants"
)

// SettlementChoice 结算确认数选项
type SettlementChoice string

const (
	SettlementChoiceStoreSpeedPolicy SettlementChoice = "store_speed_policy"
	SettlementChoiceZeroConfirmation SettlementChoice = "zero_confirmation"
	SettlementChoiceAtLeastOne       SettlementChoice = "at_least_one"
	SettlementChoiceAtLeastTen       SettlementChoice = "at_least_ten"
	SettlementChoiceCustom           SettlementChoice = "custom"
)

var (
	ErrSettlementChoiceInvalid = errors.New("settlement choice invalid")
	ErrCustomThresholdRequired = errors.New("custom settlement threshold required")
)

// ParseSettlementChoice 解析选项，空值视为店铺默认策略
func ParseSettlementChoice(raw string) (SettlementChoice, bool) {
	choice := SettlementChoice(strings.ToLower(strings.TrimSpace(raw)))
	switch choice {
	case "":
		return SettlementChoiceStoreSpeedPolicy, true
	case SettlementChoiceStoreSpeedPolicy,
		SettlementChoiceZeroConfirmation,
		SettlementChoiceAtLeastOne,
		SettlementChoiceAtLeastTen,
		SettlementChoiceCustom:
		return choice, true
	default:
		return choice, false
	}
}

// SettlementThresholdFromChoice 选项转换为确认数，nil 表示沿用店铺默认策略
func SettlementThresholdFromChoice(choice SettlementChoice, custom *int64) (*int64, error) {
	switch choice {
	case SettlementChoiceStoreSpeedPolicy, "":
		return nil, nil
	case SettlementChoiceZeroConfirmation:
		return int64Ptr(constants.SettlementThresholdZero), nil
	case SettlementChoiceAtLeastOne:
		return int64Ptr(constants.SettlementThresholdAtLeastOne), nil
	case SettlementChoiceAtLeastTen:
		return int64Ptr(constants.SettlementThresholdAtLeastTen), nil
	case SettlementChoiceCustom:
		if custom == nil {
			return nil, ErrCustomThresholdRequired
		}
		if *custom < 0 {
			return nil, fmt.Errorf("%w: negative threshold %d", ErrSettlementChoiceInvalid, *custom)
		}
		return int64Ptr(*custom), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrSettlementChoiceInvalid, choice)
	}
}

// SettlementChoiceFromThreshold 确认数转换为选项，非固定值归为自定义并保留原值
func SettlementChoiceFromThreshold(threshold *int64) (SettlementChoice, *int64) {
	if threshold == nil {
		return SettlementChoiceStoreSpeedPolicy, nil
	}
	switch *threshold {
	case constants.SettlementThresholdZero:
		return SettlementChoiceZeroConfirmation, nil
	case constants.SettlementThresholdAtLeastOne:
		return SettlementChoiceAtLeastOne, nil
	case constants.SettlementThresholdAtLeastTen:
		return SettlementChoiceAtLeastTen, nil
	default:
		return SettlementChoiceCustom, int64Ptr(*threshold)
	}
}

func int64Ptr(v int64) *int64 {
	return &v
}
