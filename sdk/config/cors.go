package config

import "strings"

// CORSConfig 跨域资源共享策略，三个列表默认全放行
type CORSConfig struct {
	Origins []string
	Methods []string
	Headers []string
}

func (c *CORSConfig) schema() *Schema {
	return &Schema{
		Prefix: "cors_",
		Fields: []Field{
			scalarDefault("origins", "*", func(v string) error { c.Origins = splitList(v); return nil }),
			scalarDefault("methods", "*", func(v string) error { c.Methods = splitList(v); return nil }),
			scalarDefault("headers", "*", func(v string) error { c.Headers = splitList(v); return nil }),
		},
	}
}

// AllowAllOrigins 是否放行任意来源
func (c *CORSConfig) AllowAllOrigins() bool {
	for _, o := range c.Origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// splitList 按逗号切分列表值并去掉空白项
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
