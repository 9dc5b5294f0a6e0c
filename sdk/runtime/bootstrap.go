package runtime

import (
	"github.com/poputka/ride-core/sdk/config"
	"github.com/poputka/ride-core/sdk/pkg/dbrouter"
	"github.com/poputka/ride-core/sdk/pkg/logger"
)

// Bootstrap 完整启动路径，顺序是固定的：
// 先解析配置（期间至多一次密钥库网络调用），
// 再初始化日志，最后用解析出的数据库凭据构建连接池。
// 配置或拓扑错误直接向上传播，进程不应继续启动。
func Bootstrap(resolverOpts []config.ResolverOption, poolOpts []dbrouter.Option) (*Application, error) {
	cfg, err := config.Setup(resolverOpts...)
	if err != nil {
		return nil, err
	}

	logCfg := logger.DefaultLogConfig()
	if cfg.Debug {
		logCfg.Level = "debug"
	}
	logger.Setup(logCfg)
	logger.Infof("配置解析完成: %s", cfg.String())

	pools, err := dbrouter.BuildPools(&cfg.Database, poolOpts...)
	if err != nil {
		return nil, err
	}

	app := NewApplication()
	app.SetConfig(cfg)
	app.SetPools(pools)
	return app, nil
}
