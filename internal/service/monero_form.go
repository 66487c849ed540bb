package service

import (
	"strings"

	"github.com/xmrpay-next/internal/constants"
)

// Normalize 归一化表单，协议为空时使用 http
func (f *MoneroPaymentMethodForm) Normalize() {
	f.NewAccountLabel = strings.TrimSpace(f.NewAccountLabel)
	f.RemoteNodeAddress = strings.TrimSpace(f.RemoteNodeAddress)
	f.RemoteNodeProtocol = strings.ToLower(strings.TrimSpace(f.RemoteNodeProtocol))
	if f.RemoteNodeProtocol == "" {
		f.RemoteNodeProtocol = constants.MoneroRemoteNodeProtocolDefault
	}
	if choice, ok := ParseSettlementChoice(string(f.SettlementChoice)); ok {
		f.SettlementChoice = choice
	}
}

// Validate 校验表单，返回全部字段错误
func (f MoneroPaymentMethodForm) Validate() []FieldError {
	var errs []FieldError
	if f.AccountIndex < 0 {
		errs = append(errs, validationError(FieldAccountIndex, "The account index must be a non-negative number."))
	}

	choice, ok := ParseSettlementChoice(string(f.SettlementChoice))
	if !ok {
		errs = append(errs, validationError(FieldSettlementChoice, "Unknown settlement confirmation threshold choice."))
	}
	if choice == SettlementChoiceCustom {
		switch {
		case f.CustomSettlementThreshold == nil:
			errs = append(errs, validationError(FieldCustomThreshold,
				"You must specify the number of required confirmations when using a custom threshold."))
		case *f.CustomSettlementThreshold < 0 || *f.CustomSettlementThreshold > constants.SettlementThresholdCustomMax:
			errs = append(errs, validationError(FieldCustomThreshold,
				"The custom confirmation threshold must be between 0 and 100."))
		}
	}

	if f.UseRemoteNode {
		errs = append(errs, remoteNodeErrors(f)...)
	} else if f.RemoteNodePort != nil && !validPort(*f.RemoteNodePort) {
		errs = append(errs, validationError(FieldRemotePort, "The remote node port must be between 1 and 65535."))
	}
	return withInputErrors(f.InputErrors, errs)
}

// withInputErrors 解析错误优先，同字段的后续校验错误被忽略
func withInputErrors(input, errs []FieldError) []FieldError {
	if len(input) == 0 {
		return errs
	}
	taken := make(map[string]struct{}, len(input))
	for _, e := range input {
		taken[e.Field] = struct{}{}
	}
	merged := append([]FieldError{}, input...)
	for _, e := range errs {
		if _, ok := taken[e.Field]; ok {
			continue
		}
		merged = append(merged, e)
	}
	return merged
}

// remoteNodeErrors 校验远程节点字段，不依赖 UseRemoteNode 开关
func remoteNodeErrors(f MoneroPaymentMethodForm) []FieldError {
	var errs []FieldError
	switch f.RemoteNodeProtocol {
	case "http", "https":
	default:
		errs = append(errs, validationError(FieldRemoteProtocol, "The remote node protocol must be http or https."))
	}
	switch {
	case f.RemoteNodeAddress == "":
		errs = append(errs, validationError(FieldRemoteAddress, "Please provide an address for the remote node."))
	case strings.ContainsAny(f.RemoteNodeAddress, "/ \t?#@"):
		errs = append(errs, validationError(FieldRemoteAddress, "The remote node address must be a host name or IP address."))
	}
	switch {
	case f.RemoteNodePort == nil:
		errs = append(errs, validationError(FieldRemotePort, "Please provide a port number for the remote node."))
	case !validPort(*f.RemoteNodePort):
		errs = append(errs, validationError(FieldRemotePort, "The remote node port must be between 1 and 65535."))
	}
	return errs
}

func validPort(port int) bool {
	return port >= 1 && port <= 65535
}

func validationError(field, message string) FieldError {
	return FieldError{Field: field, Code: FieldErrorValidation, Message: message}
}

// mergeFieldErrors 合并错误并去重
func mergeFieldErrors(base []FieldError, extra ...FieldError) []FieldError {
	for _, candidate := range extra {
		duplicated := false
		for _, existing := range base {
			if existing == candidate {
				duplicated = true
				break
			}
		}
		if !duplicated {
			base = append(base, candidate)
		}
	}
	return base
}
