// Package dbrouter 读写连接路由：根据配置构建单节点连接池或主从连接池对，
// 并以 RoutingSession 为单位把每个操作分发到正确的池。
// 消费方不直接选择主库或从库，路由器按操作形态推断。
package dbrouter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"github.com/poputka/ride-core/sdk/config"
	"github.com/poputka/ride-core/sdk/pkg/logger"
)

// poolTag 连接池标签，同时用作路由指标的label
type poolTag string

const (
	tagSingle poolTag = "single_node"
	tagMaster poolTag = "master"
	tagSlave  poolTag = "slave"
)

// ErrInvalidTopology 解析后的配置既不是单节点也不是完整的主从对。
// 在连接池构建阶段致命：这是必须先修复的配置错误，不做重试。
var ErrInvalidTopology = errors.New("dbrouter: invalid database topology")

// buildPingTimeout 启动时逐池连通性验证的超时
const buildPingTimeout = 5 * time.Second

// PoolSet 进程级连接池集合。启动时构建一次，进程退出时 Close。
// 池之间不共享连接；池内的断线重连由底层 sql.DB 负责。
type PoolSet struct {
	topology config.TopologyMode
	logger   *zap.Logger

	single *gorm.DB
	master *gorm.DB
	slave  *gorm.DB

	singleCfg *config.PostgresConfig
	masterCfg *config.PostgresConfig
	slaveCfg  *config.PostgresConfig

	resolverOnce sync.Once
	resolverDB   *gorm.DB
	resolverErr  error
}

// Option 连接池构建选项
type Option func(*options)

type options struct {
	logger       *zap.Logger
	ping         bool
	gormLogLevel int
}

// WithPoolLogger 指定连接池与会话使用的日志器，默认使用全局日志器
func WithPoolLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithoutPing 跳过构建时的连通性验证（测试用）
func WithoutPing() Option {
	return func(o *options) { o.ping = false }
}

// WithGormLogLevel 设置GORM日志级别（gorm logger.LogLevel 的整数值）
func WithGormLogLevel(level int) Option {
	return func(o *options) { o.gormLogLevel = level }
}

// BuildPools 根据数据库拓扑构建连接池集合。
// 单节点拓扑构建一个池；主从拓扑构建两个独立的池。
// 拓扑不成立时返回 ErrInvalidTopology，调用方应当直接终止启动。
func BuildPools(dbcfg *config.Database, opts ...Option) (*PoolSet, error) {
	o := &options{ping: true, gormLogLevel: 2} // 默认 Error 级别
	for _, fn := range opts {
		fn(o)
	}
	if o.logger == nil {
		if logger.Logger != nil {
			o.logger = logger.Logger
		} else {
			o.logger = zap.NewNop()
		}
	}

	p := &PoolSet{topology: dbcfg.Mode(), logger: o.logger}

	switch p.topology {
	case config.ModeSingleNode:
		db, err := openPool(&dbcfg.Single, tagSingle, o)
		if err != nil {
			return nil, err
		}
		p.single = db
		p.singleCfg = &dbcfg.Single

	case config.ModeMasterSlave:
		master, err := openPool(&dbcfg.Master, tagMaster, o)
		if err != nil {
			return nil, err
		}
		slave, err := openPool(&dbcfg.Slave, tagSlave, o)
		if err != nil {
			closePool(master)
			return nil, err
		}
		p.master, p.slave = master, slave
		p.masterCfg, p.slaveCfg = &dbcfg.Master, &dbcfg.Slave

	default:
		return nil, fmt.Errorf("%w: 既没有单节点描述，也没有完整的主从对", ErrInvalidTopology)
	}

	o.logger.Info("数据库连接池构建完成", zap.String("topology", p.topology.String()))
	return p, nil
}

// openPool 打开一个连接池并应用池参数，失败即向上传播（启动期快速失败）
func openPool(pc *config.PostgresConfig, tag poolTag, o *options) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(pc.DSN()), &gorm.Config{
		Logger: logger.NewGormLogger(o.logger, string(tag), o.gormLogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s pool: %w", tag, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open %s pool: %w", tag, err)
	}
	sqlDB.SetMaxOpenConns(pc.MaxOpenConns)
	sqlDB.SetMaxIdleConns(pc.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(pc.ConnMaxLifetime) * time.Second)

	if o.ping {
		ctx, cancel := context.WithTimeout(context.Background(), buildPingTimeout)
		defer cancel()
		if err := sqlDB.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("ping %s pool: %w", tag, err)
		}
	}
	return db, nil
}

func closePool(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Mode 生效的拓扑模式
func (p *PoolSet) Mode() config.TopologyMode {
	return p.topology
}

// byTag 按标签取池。路由决定保证标签总是落在已构建的池上。
func (p *PoolSet) byTag(tag poolTag) *gorm.DB {
	switch tag {
	case tagMaster:
		return p.master
	case tagSlave:
		return p.slave
	default:
		return p.single
	}
}

// Close 关闭所有连接池，进程退出时调用
func (p *PoolSet) Close() error {
	errs := []error{
		closePool(p.single),
		closePool(p.master),
		closePool(p.slave),
	}
	p.resolverOnce.Do(func() {}) // 确保懒构建不再发生
	if p.resolverDB != nil && p.resolverDB != p.single {
		errs = append(errs, closePool(p.resolverDB))
	}
	return errors.Join(errs...)
}

// ResolverDB 返回一个由 gorm dbresolver 插件做读写分离的句柄，
// 供希望在ORM层自动分流、而不是显式使用 RoutingSession 的调用方使用。
// 主从拓扑下懒构建一个独立的 gorm.DB（连接池与 PoolSet 自有的池互不共享），
// 单节点拓扑直接复用单节点池。
func (p *PoolSet) ResolverDB() (*gorm.DB, error) {
	p.resolverOnce.Do(func() {
		if p.topology == config.ModeSingleNode {
			p.resolverDB = p.single
			return
		}
		db, err := gorm.Open(postgres.Open(p.masterCfg.DSN()), &gorm.Config{
			Logger: logger.NewGormLogger(p.logger, "resolver", 2),
		})
		if err != nil {
			p.resolverErr = fmt.Errorf("open resolver pool: %w", err)
			return
		}
		if err := db.Use(dbresolver.Register(dbresolver.Config{
			Sources:  []gorm.Dialector{postgres.Open(p.masterCfg.DSN())},
			Replicas: []gorm.Dialector{postgres.Open(p.slaveCfg.DSN())},
			Policy:   dbresolver.RandomPolicy{},
		})); err != nil {
			p.resolverErr = fmt.Errorf("register dbresolver: %w", err)
			return
		}
		p.resolverDB = db
	})
	return p.resolverDB, p.resolverErr
}
