package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	corejson "github.com/poputka/ride-core/sdk/pkg/json"
	"github.com/poputka/ride-core/sdk/pkg/logger"
)

// Response 统一响应结构
type Response struct {
	RequestId string      `json:"requestId,omitempty"`
	Code      int         `json:"code"`
	Msg       string      `json:"msg,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// Page 分页响应数据
type Page struct {
	Count     int         `json:"count"`
	PageIndex int         `json:"pageIndex"`
	PageSize  int         `json:"pageSize"`
	List      interface{} `json:"list"`
}

// Error 通常错误数据处理
func Error(c *gin.Context, code int, err error, msg string) {
	res := Response{
		RequestId: requestId(c),
		Code:      code,
		Msg:       msg,
	}
	if err != nil && msg == "" {
		res.Msg = err.Error()
	}
	write(c, http.StatusOK, res)
}

// OK 通常成功数据处理
func OK(c *gin.Context, data interface{}, msg string) {
	write(c, http.StatusOK, Response{
		RequestId: requestId(c),
		Code:      http.StatusOK,
		Msg:       msg,
		Data:      data,
	})
}

// PageOK 分页数据处理
func PageOK(c *gin.Context, result interface{}, count, pageIndex, pageSize int, msg string) {
	OK(c, Page{
		Count:     count,
		PageIndex: pageIndex,
		PageSize:  pageSize,
		List:      result,
	}, msg)
}

// Custum 兼容函数：直接返回自定义结构
func Custum(c *gin.Context, data gin.H) {
	write(c, http.StatusOK, data)
}

func requestId(c *gin.Context) string {
	if v := c.Request.Context().Value(logger.TrafficKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// write 统一走 jsoniter 序列化
func write(c *gin.Context, status int, body interface{}) {
	data, err := corejson.Marshal(body)
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(status, "application/json; charset=utf-8", data)
}
