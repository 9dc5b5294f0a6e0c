package config

import (
	"errors"
	"fmt"
)

// ErrMissingRequiredConfig 必填配置项在所有配置源合并之后仍然缺失。
// 属于致命错误：进程不应继续启动。
var ErrMissingRequiredConfig = errors.New("missing required config")

// MissingRequiredConfigError 携带缺失字段的完整键名（含前缀）
type MissingRequiredConfigError struct {
	Field string
}

func (e *MissingRequiredConfigError) Error() string {
	return fmt.Sprintf("missing required config: %s", e.Field)
}

func (e *MissingRequiredConfigError) Unwrap() error {
	return ErrMissingRequiredConfig
}

// ErrSecretStoreUnavailable 远程密钥库不可达。
// 非致命：解析器记录日志后降级为空配置源，不向调用方传播。
var ErrSecretStoreUnavailable = errors.New("secret store unavailable")
