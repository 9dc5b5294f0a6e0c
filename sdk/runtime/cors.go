package runtime

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/poputka/ride-core/sdk/config"
)

// CORSMiddleware 按解析完成的CORS策略生成gin中间件。
// 三个列表默认全放行；配置了具体来源时只回显命中的来源。
func CORSMiddleware(cfg *config.CORSConfig) gin.HandlerFunc {
	methods := strings.Join(cfg.Methods, ",")
	headers := strings.Join(cfg.Headers, ",")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if cfg.AllowAllOrigins() {
				c.Header("Access-Control-Allow-Origin", "*")
			} else if containsOrigin(cfg.Origins, origin) {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
		}
		c.Header("Access-Control-Allow-Methods", methods)
		c.Header("Access-Control-Allow-Headers", headers)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func containsOrigin(origins []string, origin string) bool {
	for _, o := range origins {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}
