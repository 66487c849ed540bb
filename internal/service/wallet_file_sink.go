package service

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// walletFileMode 钱包 RPC 进程通常以其他用户运行，文件需对其可读写
const walletFileMode os.FileMode = 0o666

// ErrWalletFileTooLarge 钱包文件超过上传大小限制
var ErrWalletFileTooLarge = errors.New("wallet file exceeds the upload size limit")

// LocalWalletFileSink 将钱包文件写入本地钱包目录
type LocalWalletFileSink struct {
	maxSize int64
}

// NewLocalWalletFileSink 创建本地文件写入器，maxSize<=0 表示不限制
func NewLocalWalletFileSink(maxSize int64) *LocalWalletFileSink {
	return &LocalWalletFileSink{maxSize: maxSize}
}

// Exists 判断钱包目录中是否存在指定文件
func (s *LocalWalletFileSink) Exists(dir, name string) bool {
	path, err := walletFilePath(dir, name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Write 覆盖写入钱包文件
func (s *LocalWalletFileSink) Write(dir, name string, src io.Reader) error {
	path, err := walletFilePath(dir, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, walletFileMode)
	if err != nil {
		return err
	}

	reader := src
	if s.maxSize > 0 {
		reader = io.LimitReader(src, s.maxSize+1)
	}
	written, copyErr := io.Copy(dst, reader)
	// Close 可能才暴露写入失败
	if err := dst.Close(); err != nil && copyErr == nil {
		copyErr = err
	}
	if copyErr != nil {
		return copyErr
	}
	if s.maxSize > 0 && written > s.maxSize {
		return fmt.Errorf("%w (max %d bytes)", ErrWalletFileTooLarge, s.maxSize)
	}
	// umask 会裁剪 OpenFile 的权限位
	return os.Chmod(path, walletFileMode)
}

func walletFilePath(dir, name string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", fmt.Errorf("wallet directory is not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid wallet file name: %q", name)
	}
	return filepath.Join(dir, name), nil
}
