// Package port 定义工作流层对外部能力的依赖接口
package port

import (
	"context"

	"github.com/cloudwego/eino/components/model"
)

// ChatModelFactory 按提供商名称解析 ChatModel 实例
// name 为空时由实现方选择默认提供商。
type ChatModelFactory interface {
	Get(ctx context.Context, name string) (model.BaseChatModel, error)
}
