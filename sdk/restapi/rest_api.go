package restapi

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/poputka/ride-core/sdk/pkg/dbrouter"
	"github.com/poputka/ride-core/sdk/pkg/logger"
	"github.com/poputka/ride-core/sdk/pkg/response"
)

// RestApi 数据访问接口的公共基类，业务 handler 内嵌它获得
// 日志、响应封装与数据库会话获取能力
type RestApi struct {
	Pools *dbrouter.PoolSet
}

// GetLogger 获取上下文提供的日志器，对GetRequestLogger做封装，可实现解耦。
func (e *RestApi) GetLogger(c *gin.Context) *zap.Logger {
	return logger.GetRequestLogger(c)
}

// AcquireSession 为当前请求获取一个路由会话。
// 调用方必须在所有退出路径上释放：defer session.Close()
func (e *RestApi) AcquireSession() *dbrouter.RoutingSession {
	return e.Pools.Acquire()
}

// Error 通常错误数据处理
func (e *RestApi) Error(c *gin.Context, code int, err error, msg string) {
	response.Error(c, code, err, msg)
}

// OK 通常成功数据处理
func (e *RestApi) OK(c *gin.Context, data interface{}, msg string) {
	response.OK(c, data, msg)
}

// PageOK 分页数据处理
func (e *RestApi) PageOK(c *gin.Context, result interface{}, count int, pageIndex int, pageSize int, msg string) {
	response.PageOK(c, result, count, pageIndex, pageSize, msg)
}

// Custom 兼容函数
func (e *RestApi) Custom(c *gin.Context, data gin.H) {
	response.Custum(c, data)
}
