package config

import (
	"fmt"

	"go.uber.org/zap"
)

// Resolver 分层配置解析器。
//
// 配置源按优先级从低到高排列：
// 声明默认值 -> 显式覆盖（测试注入）-> 环境变量 -> 本地 .env 文件 -> 远程密钥库。
// 解析时遍历 schema 声明的每个字段，依次询问各配置源，保留最后一个命中的值。
//
// 解析器在进程启动路径上同步运行一次；至多发起一次密钥库网络调用
// （见 vaultSource 的记忆化约定）。同一个实例可安全地解析多个 schema。
type Resolver struct {
	logger  *zap.Logger
	sources []Source
}

// ResolverOption 解析器构造选项
type ResolverOption func(*resolverOptions)

type resolverOptions struct {
	logger    *zap.Logger
	overrides map[string]string
	dotenv    string
	secret    Source
}

// WithOverrides 注入显式覆盖值，优先级高于默认值、低于环境变量
func WithOverrides(values map[string]string) ResolverOption {
	return func(o *resolverOptions) { o.overrides = values }
}

// WithDotenvFile 指定 .env 文件路径，默认为工作目录下的 .env
func WithDotenvFile(path string) ResolverOption {
	return func(o *resolverOptions) { o.dotenv = path }
}

// WithSecretSource 替换远程密钥库配置源（测试注入）
func WithSecretSource(src Source) ResolverOption {
	return func(o *resolverOptions) { o.secret = src }
}

// WithLogger 指定解析期间使用的日志器。
// 解析发生在全局日志器初始化之前，默认为 Nop。
func WithLogger(logger *zap.Logger) ResolverOption {
	return func(o *resolverOptions) { o.logger = logger }
}

// NewResolver 构造解析器。
// 原实现的密钥库缓存是模块级单例，这里所有状态都在实例上。
func NewResolver(opts ...ResolverOption) *Resolver {
	o := &resolverOptions{}
	for _, fn := range opts {
		fn(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.secret == nil {
		o.secret = newVaultSource(o.logger)
	}

	return &Resolver{
		logger: o.logger,
		// 低优先级在前；默认值源在 Resolve 时由 schema 生成后插到最前
		sources: []Source{
			newMapSource("overrides", o.overrides),
			newEnvSource(),
			newDotenvSource(o.dotenv),
			o.secret,
		},
	}
}

// Resolve 按 schema 解析配置。
// 两遍解析：第一遍解析标量与嵌套字段，第二遍求值派生字段，
// 保证派生字段（如连接 URI）看到的兄弟字段都已合并完成。
// 仅当必填字段在所有配置源合并后仍缺失时返回 MissingRequiredConfigError。
func (r *Resolver) Resolve(s *Schema) error {
	defaults := map[string]string{}
	walkDefaults(s, defaults)
	sources := append([]Source{newMapSource("defaults", defaults)}, r.sources...)
	if err := r.resolveSchema(s, sources); err != nil {
		return err
	}
	r.logger.Debug("配置解析完成", zap.Int("sources", len(sources)))
	return nil
}

func (r *Resolver) resolveSchema(s *Schema, sources []Source) error {
	var derivedFields []Field

	for _, f := range s.Fields {
		switch f.Kind {
		case FieldNested:
			if err := r.resolveSchema(f.Nested, sources); err != nil {
				return err
			}
		case FieldDerived:
			derivedFields = append(derivedFields, f)
		default:
			key := s.Prefix + f.Key
			val, ok := lookup(sources, key)
			if !ok {
				if f.Required {
					return &MissingRequiredConfigError{Field: key}
				}
				continue
			}
			if err := f.Set(val); err != nil {
				return fmt.Errorf("config %s: %w", key, err)
			}
		}
	}

	// 第二遍：派生字段。显式提供时原样采用，否则由已解析的兄弟字段组装
	for _, f := range derivedFields {
		key := s.Prefix + f.Key
		if val, ok := lookup(sources, key); ok {
			if err := f.Set(val); err != nil {
				return fmt.Errorf("config %s: %w", key, err)
			}
			continue
		}
		if err := f.Derive(); err != nil {
			return fmt.Errorf("config %s: %w", key, err)
		}
	}

	return nil
}

// lookup 依次询问所有配置源，保留最后一个命中的值（后面的源优先级更高）
func lookup(sources []Source, key string) (string, bool) {
	var (
		result string
		found  bool
	)
	for _, src := range sources {
		if v, ok := src.Lookup(key); ok {
			result = v
			found = true
		}
	}
	return result, found
}
