package monero

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	ErrRequestFailed   = errors.New("monero rpc request failed")
	ErrResponseInvalid = errors.New("monero rpc response invalid")
	ErrConfigInvalid   = errors.New("monero rpc config invalid")
)

const jsonRPCPath = "/json_rpc"

// RPCError 节点返回的 JSON-RPC 错误
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("monero rpc error %d: %s", e.Code, e.Message)
}

// IsRPCError 判断是否为节点返回的业务错误
func IsRPCError(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr)
}

// IsTransportError 判断是否为网络或响应格式错误
func IsTransportError(err error) bool {
	return errors.Is(err, ErrRequestFailed) || errors.Is(err, ErrResponseInvalid)
}

// RPCMessage 提取节点错误信息，非 RPC 错误返回 err.Error()
func RPCMessage(err error) string {
	if err == nil {
		return ""
	}
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Message
	}
	return err.Error()
}

// CallObserver 观察每次 RPC 调用
type CallObserver interface {
	ObserveRPC(cryptoCode, method string, err error, elapsed time.Duration)
}

// ClientOptions 客户端参数
type ClientOptions struct {
	CryptoCode string
	URI        string
	Username   string
	Password   string
	Timeout    time.Duration
	Observer   CallObserver
}

// Client monero-wallet-rpc / monerod 的 JSON-RPC 客户端
type Client struct {
	cryptoCode string
	uri        string
	http       *resty.Client
	observer   CallObserver
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      string      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// NewClient 创建 RPC 客户端
func NewClient(opts ClientOptions) (*Client, error) {
	uri := strings.TrimRight(strings.TrimSpace(opts.URI), "/")
	if uri == "" {
		return nil, fmt.Errorf("%w: uri is required", ErrConfigInvalid)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := resty.New()
	httpClient.SetTimeout(timeout)
	if opts.Username != "" || opts.Password != "" {
		httpClient.SetBasicAuth(opts.Username, opts.Password)
	}
	return &Client{
		cryptoCode: strings.ToUpper(strings.TrimSpace(opts.CryptoCode)),
		uri:        uri,
		http:       httpClient,
		observer:   opts.Observer,
	}, nil
}

// URI 返回节点地址
func (c *Client) URI() string {
	return c.uri
}

// Call 发送 JSON-RPC 请求并解析 result
func (c *Client) Call(ctx context.Context, method string, params, result interface{}) (err error) {
	started := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer.ObserveRPC(c.cryptoCode, method, err, time.Since(started))
		}
	}()

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(rpcRequest{JSONRPC: "2.0", ID: "0", Method: method, Params: params}).
		Post(c.uri + jsonRPCPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: http status %d", ErrRequestFailed, resp.StatusCode())
	}

	var envelope rpcResponse
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return fmt.Errorf("%w: missing result", ErrResponseInvalid)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	return nil
}

// GetAccounts 获取子地址账户列表
func (c *Client) GetAccounts(ctx context.Context) (*GetAccountsResult, error) {
	var result GetAccountsResult
	if err := c.Call(ctx, "get_accounts", struct{}{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateAccount 创建账户
func (c *Client) CreateAccount(ctx context.Context, label string) (*CreateAccountResult, error) {
	var result CreateAccountResult
	params := map[string]interface{}{"label": label}
	if err := c.Call(ctx, "create_account", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SetDaemon 切换钱包连接的节点
func (c *Client) SetDaemon(ctx context.Context, params DaemonParams) error {
	return c.Call(ctx, "set_daemon", params, nil)
}

// OpenWallet 打开钱包目录中的钱包文件
func (c *Client) OpenWallet(ctx context.Context, filename, password string) error {
	params := map[string]interface{}{
		"filename": filename,
		"password": password,
	}
	return c.Call(ctx, "open_wallet", params, nil)
}

// GetHeight 获取钱包同步高度
func (c *Client) GetHeight(ctx context.Context) (*GetHeightResult, error) {
	var result GetHeightResult
	if err := c.Call(ctx, "get_height", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetInfo 获取节点状态
func (c *Client) GetInfo(ctx context.Context) (*GetInfoResult, error) {
	var result GetInfoResult
	if err := c.Call(ctx, "get_info", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
