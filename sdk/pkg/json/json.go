package json

import (
	jsoniter "github.com/json-iterator/go"
)

// JSON 统一的 jsoniter 配置实例
// 使用 ConfigCompatibleWithStandardLibrary 确保与标准库完全兼容，
// 同时获得更高的性能
//
// ride-core 所有需要 JSON 序列化的组件都应该使用这个统一配置，包括：
// - restapi/response: 响应体序列化
// - config: 启动时打印掩码后的配置快照
var JSON = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONFast 高性能 jsoniter 配置实例
// 使用 ConfigFastest 获得最高性能，但可能在某些边缘情况下与标准库不完全兼容
var JSONFast = jsoniter.ConfigFastest

// Marshal 序列化对象为 JSON 字节数组，兼容标准库 json.Marshal 接口
func Marshal(v interface{}) ([]byte, error) {
	return JSON.Marshal(v)
}

// Unmarshal 从 JSON 字节数组反序列化对象，兼容标准库 json.Unmarshal 接口
func Unmarshal(data []byte, v interface{}) error {
	return JSON.Unmarshal(data, v)
}

// MarshalToString 将对象序列化为 JSON 字符串，
// 使用 jsoniter 的原生 API 避免字节数组到字符串的拷贝
func MarshalToString(v interface{}) (string, error) {
	return JSON.MarshalToString(v)
}

// UnmarshalFromString 从 JSON 字符串反序列化对象，
// 避免字符串到字节数组的拷贝
func UnmarshalFromString(str string, v interface{}) error {
	return JSON.UnmarshalFromString(str, v)
}

// MarshalFast 使用最高性能配置序列化对象，适用于数据格式可控的场景
func MarshalFast(v interface{}) ([]byte, error) {
	return JSONFast.Marshal(v)
}

// UnmarshalFast 使用最高性能配置反序列化对象
func UnmarshalFast(data []byte, v interface{}) error {
	return JSONFast.Unmarshal(data, v)
}

// RawMessage jsoniter 兼容的 RawMessage 类型，
// 与标准库 json.RawMessage 完全兼容，适用于延迟解析或透传 JSON 的场景
type RawMessage = jsoniter.RawMessage
