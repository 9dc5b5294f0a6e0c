package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"

	corejson "github.com/poputka/ride-core/sdk/pkg/json"
)

// Config 进程级配置。启动时解析一次，此后只读：
// 下游组件（校验器、连接池构建）看到的永远是合并完成的值。
type Config struct {
	ProjectName string `validate:"required"`
	Environment string `validate:"required"`
	Debug       bool

	CORS     CORSConfig
	Database Database
}

// AppConfig 包级配置入口，Setup 成功后写入
var AppConfig *Config

// Schema 顶层配置的字段描述符
func (c *Config) Schema() *Schema {
	return &Schema{
		Fields: []Field{
			scalarDefault("project_name", "poputka", func(v string) error { c.ProjectName = v; return nil }),
			scalarDefault("environment", "dev", func(v string) error { c.Environment = v; return nil }),
			scalarDefault("debug", "false", func(v string) error {
				b, err := cast.ToBoolE(v)
				if err != nil {
					return err
				}
				c.Debug = b
				return nil
			}),
			nested("cors", c.CORS.schema()),
			nested("database", c.Database.schema()),
		},
	}
}

// Setup 解析进程配置：合并所有配置源并做结构校验。
// 解析失败是致命错误，进程不应继续启动。
func Setup(opts ...ResolverOption) (*Config, error) {
	cfg := new(Config)
	r := NewResolver(opts...)
	if err := r.Resolve(cfg.Schema()); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	AppConfig = cfg
	return cfg, nil
}

// validate 对合并完成的配置做结构校验
func (c *Config) validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, ve := range verrs {
			if ve.Tag() == "required" {
				return &MissingRequiredConfigError{Field: strings.ToLower(ve.Field())}
			}
		}
	}
	return fmt.Errorf("config validation: %w", err)
}

// Sanitized 返回可安全打印的配置快照，口令与连接串中的密码被掩码
func (c *Config) Sanitized() map[string]interface{} {
	return map[string]interface{}{
		"project_name": c.ProjectName,
		"environment":  c.Environment,
		"debug":        c.Debug,
		"cors": map[string]interface{}{
			"origins": c.CORS.Origins,
			"methods": c.CORS.Methods,
			"headers": c.CORS.Headers,
		},
		"database": map[string]interface{}{
			"mode":   c.Database.Mode().String(),
			"single": c.Database.Single.sanitized(),
			"master": c.Database.Master.sanitized(),
			"slave":  c.Database.Slave.sanitized(),
		},
	}
}

// String 打印掩码后的配置，启动日志用
func (c *Config) String() string {
	data, err := corejson.Marshal(c.Sanitized())
	if err != nil {
		return fmt.Sprintf("config<%s/%s>", c.ProjectName, c.Environment)
	}
	return string(data)
}

func (p *PostgresConfig) sanitized() map[string]interface{} {
	if !p.populated() {
		return nil
	}
	return map[string]interface{}{
		"host":     p.Host,
		"port":     p.Port,
		"user":     p.User,
		"password": "******",
		"db":       p.DB,
		"sslmode":  p.SSLMode,
		"uri":      maskURI(p.DSN()),
	}
}

// maskURI 掩掉连接 URI 中的密码部分
func maskURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.User == nil {
		return uri
	}
	if _, has := u.User.Password(); has {
		u.User = url.UserPassword(u.User.Username(), "******")
	}
	return u.String()
}
