// Package tools 定义了工具接口和共享类型，
// 并提供工具注册表和执行器。工具服务器通过 MCP 对外暴露这些工具。
package tools

import (
	"context"
	"encoding/json"
)

// PermissionLevel 定义工具操作的权限级别
type PermissionLevel int

const (
	PermissionRead    PermissionLevel = iota // 只读
	PermissionWrite                          // 写入文件
	PermissionExecute                        // 执行命令
	PermissionNetwork                        // 调用远程 LLM API
)

// ToolResult 是工具执行的结果
type ToolResult struct {
	Content   string // 主要输出内容
	IsError   bool   // 是否为错误结果
	Truncated bool   // 内容是否被截断
}

// Tool 是所有通过工具协议暴露的工具的统一接口
type Tool interface {
	// Name 返回工具名称（camelCase），如 "readFile"
	// 这是客户端调用时使用的名字，必须唯一
	Name() string

	// Description 返回工具描述
	Description() string

	// Parameters 返回 JSON Schema 格式的参数定义（properties 部分）
	Parameters() map[string]any

	// Required 返回必填参数名
	Required() []string

	// Execute 执行工具
	// ctx 来自调用方的请求，客户端 Ctrl+C 时会被取消
	// params 是调用参数（已验证为合法 JSON）
	Execute(ctx context.Context, params json.RawMessage) (ToolResult, error)

	// IsReadOnly 标记该工具是否为只读操作
	IsReadOnly() bool

	// PermissionLevel 返回该工具所需的权限级别
	PermissionLevel() PermissionLevel
}

// InputSchema 返回工具完整的 JSON Schema（type=object）
func InputSchema(t Tool) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": t.Parameters(),
	}
	if req := t.Required(); len(req) > 0 {
		schema["required"] = req
	}
	return schema
}
