package dbrouter

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/poputka/ride-core/sdk/config"
)

// SessionState 会话可观察状态。
// 原实现依赖 Session 子类的内部标志（_flushing/in_transaction）决定绑定，
// 这里改为显式状态机，绑定函数是(拓扑, 状态, 操作类型)的纯函数，
// 不需要真实数据库即可单测。
type SessionState int

const (
	StateIdle SessionState = iota // 尚未执行任何操作
	StateReading                  // 只执行过读操作
	StateWriting                  // 执行过写操作，等价于"有待落盘的变更"
	StateInTransaction            // 事务已打开
)

func (s SessionState) String() string {
	switch s {
	case StateReading:
		return "reading"
	case StateWriting:
		return "writing"
	case StateInTransaction:
		return "in_transaction"
	default:
		return "idle"
	}
}

// opKind 操作类型
type opKind int

const (
	opRead opKind = iota
	opWrite
)

var (
	// ErrSessionClosed 会话已关闭后继续使用
	ErrSessionClosed = errors.New("dbrouter: session closed")
	// ErrTransactionOpen 会话上已有未结束的事务
	ErrTransactionOpen = errors.New("dbrouter: transaction already open")
	// ErrNoTransaction 会话上没有打开的事务
	ErrNoTransaction = errors.New("dbrouter: no open transaction")
)

// RoutingSession 一个工作单元的作用域句柄。
// 每个操作执行时才做绑定决定，且逐操作重新评估：
// 会话可以先读（走从库），中途开事务或写入后，
// 同一工作单元的后续操作升级到主库。
//
// 会话不跨并发调用方共享，因此不加锁；
// 调用方必须在所有退出路径上 Close（包括出错路径）。
type RoutingSession struct {
	id     string
	pools  *PoolSet
	state  SessionState
	tx     *gorm.DB
	closed bool
}

// Acquire 获取一个新会话。
// 连接在首个操作时才真正占用；池耗尽的等待由底层 sql.DB 实施，
// 表现为操作阻塞直至拿到连接或 context 超时，路由器不做重试。
func (p *PoolSet) Acquire() *RoutingSession {
	sessionsOpen.Inc()
	return &RoutingSession{id: uuid.NewString(), pools: p}
}

// ID 会话标识，日志关联用
func (s *RoutingSession) ID() string { return s.id }

// State 当前状态机状态
func (s *RoutingSession) State() SessionState { return s.state }

// bindTarget 绑定决定：纯函数。
// 单节点拓扑一律绑定单节点池；主从拓扑下，
// 写操作、事务中、或有待落盘变更的会话绑定主库，其余绑定从库。
func bindTarget(topology config.TopologyMode, state SessionState, kind opKind) poolTag {
	if topology == config.ModeSingleNode {
		return tagSingle
	}
	if kind == opWrite || state == StateInTransaction || state == StateWriting {
		return tagMaster
	}
	return tagSlave
}

// route 为一个操作选择连接，推进状态机并记录路由指标
func (s *RoutingSession) route(kind opKind) *gorm.DB {
	tag := bindTarget(s.pools.topology, s.state, kind)
	bindsTotal.WithLabelValues(string(tag)).Inc()
	s.advance(kind)
	if s.tx != nil {
		return s.tx
	}
	return s.pools.byTag(tag)
}

// advance 状态机推进：写操作进入 writing，读操作从 idle 进入 reading；
// 事务状态只能由 Commit/Rollback 退出
func (s *RoutingSession) advance(kind opKind) {
	if s.state == StateInTransaction {
		return
	}
	if kind == opWrite {
		s.state = StateWriting
	} else if s.state == StateIdle {
		s.state = StateReading
	}
}

// Find 读操作：查询多条记录
func (s *RoutingSession) Find(ctx context.Context, dest interface{}, conds ...interface{}) error {
	if s.closed {
		return ErrSessionClosed
	}
	return s.route(opRead).WithContext(ctx).Find(dest, conds...).Error
}

// First 读操作：查询单条记录
func (s *RoutingSession) First(ctx context.Context, dest interface{}, conds ...interface{}) error {
	if s.closed {
		return ErrSessionClosed
	}
	return s.route(opRead).WithContext(ctx).First(dest, conds...).Error
}

// Raw 读操作：执行查询SQL并扫描结果。变更语句请用 Exec。
func (s *RoutingSession) Raw(ctx context.Context, dest interface{}, sql string, values ...interface{}) error {
	if s.closed {
		return ErrSessionClosed
	}
	return s.route(opRead).WithContext(ctx).Raw(sql, values...).Scan(dest).Error
}

// Exec 写操作：执行变更SQL
func (s *RoutingSession) Exec(ctx context.Context, sql string, values ...interface{}) error {
	if s.closed {
		return ErrSessionClosed
	}
	return s.route(opWrite).WithContext(ctx).Exec(sql, values...).Error
}

// Create 写操作：插入记录
func (s *RoutingSession) Create(ctx context.Context, value interface{}) error {
	if s.closed {
		return ErrSessionClosed
	}
	return s.route(opWrite).WithContext(ctx).Create(value).Error
}

// Save 写操作：保存记录（存在则更新）
func (s *RoutingSession) Save(ctx context.Context, value interface{}) error {
	if s.closed {
		return ErrSessionClosed
	}
	return s.route(opWrite).WithContext(ctx).Save(value).Error
}

// Delete 写操作：删除记录
func (s *RoutingSession) Delete(ctx context.Context, value interface{}, conds ...interface{}) error {
	if s.closed {
		return ErrSessionClosed
	}
	return s.route(opWrite).WithContext(ctx).Delete(value, conds...).Error
}

// Begin 打开事务。事务总是落在主库（单节点拓扑落在单节点池），
// 此后同一会话的所有操作都升级到事务连接上，直至 Commit 或 Rollback。
func (s *RoutingSession) Begin(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.tx != nil {
		return ErrTransactionOpen
	}

	tag := tagMaster
	if s.pools.topology == config.ModeSingleNode {
		tag = tagSingle
	}
	bindsTotal.WithLabelValues(string(tag)).Inc()

	tx := s.pools.byTag(tag).WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	s.tx = tx
	s.state = StateInTransaction
	return nil
}

// Commit 提交事务
func (s *RoutingSession) Commit() error {
	if s.tx == nil {
		return ErrNoTransaction
	}
	err := s.tx.Commit().Error
	s.tx = nil
	s.state = StateIdle
	return err
}

// Rollback 回滚事务
func (s *RoutingSession) Rollback() error {
	if s.tx == nil {
		return ErrNoTransaction
	}
	err := s.tx.Rollback().Error
	s.tx = nil
	s.state = StateIdle
	return err
}

// Close 结束工作单元。调用方放弃会话时未结束的事务在这里回滚，
// 保证连接总能归还连接池。重复 Close 是安全的空操作。
func (s *RoutingSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	sessionsOpen.Dec()
	if s.tx != nil {
		err := s.tx.Rollback().Error
		s.tx = nil
		s.state = StateIdle
		return err
	}
	return nil
}
