package config

import (
	"os"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Source 配置源：按扁平字段名（小写下划线风格）查询一个可选值。
// 所有配置源都是大小写不敏感的；不存在的键返回 ok=false，绝不报错。
type Source interface {
	Name() string
	Lookup(key string) (string, bool)
}

// mapSource 基于内存映射的配置源，承载声明默认值与显式注入的覆盖值
type mapSource struct {
	name   string
	values map[string]string
}

func newMapSource(name string, values map[string]string) *mapSource {
	lowered := make(map[string]string, len(values))
	for k, v := range values {
		lowered[strings.ToLower(k)] = v
	}
	return &mapSource{name: name, values: lowered}
}

func (s *mapSource) Name() string { return s.name }

func (s *mapSource) Lookup(key string) (string, bool) {
	v, ok := s.values[strings.ToLower(key)]
	return v, ok
}

// envSource 进程环境变量配置源。
// 借助 viper 的 AutomaticEnv 实现大小写不敏感匹配：
// 查询 postgres_master_host 时读取环境变量 POSTGRES_MASTER_HOST。
type envSource struct {
	v *viper.Viper
}

func newEnvSource() *envSource {
	v := viper.New()
	v.AutomaticEnv()
	return &envSource{v: v}
}

func (s *envSource) Name() string { return "env" }

func (s *envSource) Lookup(key string) (string, bool) {
	val := s.v.Get(key)
	if val == nil {
		return "", false
	}
	str := cast.ToString(val)
	if str == "" {
		// viper 对未设置的环境变量可能返回空串，回查一次确认确实存在
		if _, present := os.LookupEnv(strings.ToUpper(key)); !present {
			return "", false
		}
	}
	return str, true
}

// dotenvSource 本地 .env 文件配置源。文件不存在时表现为空源。
type dotenvSource struct {
	v       *viper.Viper
	present bool
}

func newDotenvSource(path string) *dotenvSource {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return &dotenvSource{}
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		// 文件损坏与文件缺失同样降级为空源，由更高层配置源兜底
		return &dotenvSource{}
	}
	return &dotenvSource{v: v, present: true}
}

func (s *dotenvSource) Name() string { return "dotenv" }

func (s *dotenvSource) Lookup(key string) (string, bool) {
	if !s.present {
		return "", false
	}
	if !s.v.IsSet(key) {
		return "", false
	}
	return cast.ToString(s.v.Get(key)), true
}
