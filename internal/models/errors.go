package models

import "errors"

// 错误分类：NotFound / InvalidInput 是调用方可恢复的预期错误，
// 其余一律视为依赖失败，原样向上传播。
var (
	// ErrNotFound id 查找未命中
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput 缺少必填 id 或更新载荷非法
	ErrInvalidInput = errors.New("invalid input")
)
