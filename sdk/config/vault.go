package config

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Vault 相关的保留环境变量
const (
	EnvVaultHost      = "VAULT_HOST"      // 密钥库地址
	EnvVaultToken     = "VAULT_TOKEN"     // 访问令牌
	EnvVaultNamespace = "VAULT_NAMESPACE" // KV 引擎挂载点
	EnvVaultPath      = "VAULT_PATH"      // 要读取的密钥路径
)

// defaultVaultTimeout 密钥库网络调用的超时上限，
// 避免密钥库宕机时无限期阻塞进程启动
const defaultVaultTimeout = 5 * time.Second

var vaultFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ridecore",
	Subsystem: "config",
	Name:      "vault_fetch_total",
	Help:      "Vault secret fetch outcomes by result (kv2, kv1, empty, error, skipped).",
}, []string{"result"})

// vaultSource 远程密钥库配置源。
//
// 行为要点：
//   - 仅当 VAULT_HOST 与 VAULT_TOKEN 同时存在时激活，否则表现为空源
//     （本地开发没有 Vault 不应报错）；
//   - 每个实例至多发起一次读取：先试 KV v2，失败后降级 KV v1 再试一次，
//     两次都失败则记录日志并记住空结果——后续字段查询不再触发网络调用；
//   - 返回的嵌套映射被拍平成单层键值（嵌套键用 _ 连接）并统一转为小写，
//     与其余配置源的大小写不敏感约定保持一致；
//   - 首次并发访问通过 singleflight 串行化，所有调用方观察到同一结果。
//
// 原实现把缓存挂在模块级单例上，这里改为实例字段：
// 调用方控制生命周期，测试可以随时构造一个全新的实例。
type vaultSource struct {
	logger  *zap.Logger
	timeout time.Duration

	// fetch 可注入的取数函数，测试用；为空时走真实的 Vault 客户端
	fetch func(ctx context.Context) (map[string]interface{}, error)

	group  singleflight.Group
	mu     sync.RWMutex
	loaded bool
	memo   map[string]string
}

func newVaultSource(logger *zap.Logger) *vaultSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &vaultSource{logger: logger, timeout: defaultVaultTimeout}
}

func (s *vaultSource) Name() string { return "vault" }

func (s *vaultSource) Lookup(key string) (string, bool) {
	m := s.load()
	v, ok := m[strings.ToLower(key)]
	return v, ok
}

// load 返回拍平后的密钥映射，整个实例生命周期内只取数一次
func (s *vaultSource) load() map[string]string {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()
		return s.memo
	}
	s.mu.RUnlock()

	result, _, _ := s.group.Do("vault", func() (interface{}, error) {
		m := s.fetchFlattened()
		s.mu.Lock()
		s.memo = m
		s.loaded = true
		s.mu.Unlock()
		return m, nil
	})
	return result.(map[string]string)
}

func (s *vaultSource) fetchFlattened() map[string]string {
	empty := map[string]string{}

	host := os.Getenv(EnvVaultHost)
	token := os.Getenv(EnvVaultToken)
	if host == "" || token == "" {
		vaultFetchTotal.WithLabelValues("skipped").Inc()
		return empty
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	fetch := s.fetch
	if fetch == nil {
		fetch = func(ctx context.Context) (map[string]interface{}, error) {
			return readVaultSecret(ctx, host, token, s.timeout, s.logger)
		}
	}

	data, err := fetch(ctx)
	if err != nil {
		// 密钥库不可达不阻断启动，该层降级为不贡献任何配置
		s.logger.Error("读取Vault失败，密钥库配置源降级为空",
			zap.String("host", host), zap.Error(err))
		vaultFetchTotal.WithLabelValues("error").Inc()
		return empty
	}
	if len(data) == 0 {
		vaultFetchTotal.WithLabelValues("empty").Inc()
		return empty
	}

	flat := map[string]string{}
	flattenSecretData(data, "", flat)
	return flat
}

// readVaultSecret 调用 Vault 的版本化 KV 读取接口：
// 先试 KV v2（响应形如 data.data），失败后降级 KV v1（响应形如 data）。
// 路径不存在、引擎版本不匹配、网络错误在这里不做区分，
// 仅以不同级别记录日志后统一走降级路径。
func readVaultSecret(ctx context.Context, host, token string, timeout time.Duration, logger *zap.Logger) (map[string]interface{}, error) {
	cfg := vault.DefaultConfig()
	cfg.Address = host
	client, err := vault.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)
	client.SetClientTimeout(timeout)

	mount := os.Getenv(EnvVaultNamespace)
	path := os.Getenv(EnvVaultPath)

	secret, err := client.KVv2(mount).Get(ctx, path)
	if err == nil {
		logger.Info("使用KV v2引擎读取Vault", zap.String("mount", mount), zap.String("path", path))
		vaultFetchTotal.WithLabelValues("kv2").Inc()
		return secret.Data, nil
	}
	// KV v2 失败是挂载点为 v1 时的正常探测结果，降级重试一次
	logger.Warn("KV v2读取失败，降级尝试KV v1", zap.Error(err))

	v1secret, err := client.KVv1(mount).Get(ctx, path)
	if err != nil {
		return nil, err
	}
	logger.Info("使用KV v1引擎读取Vault", zap.String("mount", mount), zap.String("path", path))
	vaultFetchTotal.WithLabelValues("kv1").Inc()
	return v1secret.Data, nil
}

// flattenSecretData 把嵌套映射拍平成单层键值，嵌套键用 _ 连接并转小写：
// {"db": {"host": "x"}} => db_host=x
func flattenSecretData(data map[string]interface{}, prefix string, out map[string]string) {
	for k, v := range data {
		key := k
		if prefix != "" {
			key = prefix + "_" + k
		}
		if m, ok := v.(map[string]interface{}); ok {
			flattenSecretData(m, key, out)
			continue
		}
		out[strings.ToLower(key)] = cast.ToString(v)
	}
}
