package dbrouter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poputka/ride-core/sdk/config"
)

// 绑定决定是(拓扑, 会话状态, 操作类型)的纯函数，不需要真实数据库即可验证
func TestBindTarget(t *testing.T) {
	tests := []struct {
		name     string
		topology config.TopologyMode
		state    SessionState
		kind     opKind
		want     poolTag
	}{
		{"单节点拓扑下读操作绑定单节点池", config.ModeSingleNode, StateIdle, opRead, tagSingle},
		{"单节点拓扑下写操作绑定单节点池", config.ModeSingleNode, StateIdle, opWrite, tagSingle},
		{"单节点拓扑下事务内操作绑定单节点池", config.ModeSingleNode, StateInTransaction, opRead, tagSingle},
		{"主从拓扑下事务外的读绑定从库", config.ModeMasterSlave, StateIdle, opRead, tagSlave},
		{"主从拓扑下连续读仍然绑定从库", config.ModeMasterSlave, StateReading, opRead, tagSlave},
		{"主从拓扑下写操作绑定主库", config.ModeMasterSlave, StateIdle, opWrite, tagMaster},
		{"主从拓扑下事务内的读绑定主库", config.ModeMasterSlave, StateInTransaction, opRead, tagMaster},
		{"主从拓扑下有待落盘变更的读绑定主库", config.ModeMasterSlave, StateWriting, opRead, tagMaster},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bindTarget(tt.topology, tt.state, tt.kind))
		})
	}
}

func TestSessionStateMachine(t *testing.T) {
	pools := &PoolSet{topology: config.ModeMasterSlave}

	t.Run("新会话处于idle状态", func(t *testing.T) {
		s := pools.Acquire()
		defer s.Close()
		assert.Equal(t, StateIdle, s.State())
		assert.NotEmpty(t, s.ID())
	})

	t.Run("读操作推进到reading且绑定从库", func(t *testing.T) {
		s := pools.Acquire()
		defer s.Close()
		s.route(opRead)
		assert.Equal(t, StateReading, s.State())
		assert.Equal(t, tagSlave, bindTarget(pools.topology, s.State(), opRead))
	})

	t.Run("写操作把会话升级到writing，后续读也走主库", func(t *testing.T) {
		s := pools.Acquire()
		defer s.Close()

		// 先是普通读，走从库
		s.route(opRead)
		assert.Equal(t, tagSlave, bindTarget(pools.topology, s.State(), opRead))

		// 同一工作单元内写入之后，绑定升级
		s.route(opWrite)
		assert.Equal(t, StateWriting, s.State())
		assert.Equal(t, tagMaster, bindTarget(pools.topology, s.State(), opRead))

		// 升级是粘性的：后续读不再回落从库
		s.route(opRead)
		assert.Equal(t, StateWriting, s.State())
	})

	t.Run("事务状态只能由提交或回滚退出", func(t *testing.T) {
		s := pools.Acquire()
		defer s.Close()

		s.state = StateInTransaction
		s.route(opRead)
		assert.Equal(t, StateInTransaction, s.State())
		s.route(opWrite)
		assert.Equal(t, StateInTransaction, s.State())
	})
}

func TestSessionLifecycle(t *testing.T) {
	pools := &PoolSet{topology: config.ModeSingleNode}

	t.Run("关闭后的会话拒绝所有操作", func(t *testing.T) {
		s := pools.Acquire()
		require.NoError(t, s.Close())

		assert.ErrorIs(t, s.Find(context.Background(), nil), ErrSessionClosed)
		assert.ErrorIs(t, s.Exec(context.Background(), "UPDATE trips SET status = 4"), ErrSessionClosed)
		assert.ErrorIs(t, s.Begin(context.Background()), ErrSessionClosed)
	})

	t.Run("重复关闭是安全的空操作", func(t *testing.T) {
		s := pools.Acquire()
		require.NoError(t, s.Close())
		require.NoError(t, s.Close())
	})

	t.Run("没有打开的事务时提交与回滚报错", func(t *testing.T) {
		s := pools.Acquire()
		defer s.Close()
		assert.ErrorIs(t, s.Commit(), ErrNoTransaction)
		assert.ErrorIs(t, s.Rollback(), ErrNoTransaction)
	})
}

func TestSessionStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "reading", StateReading.String())
	assert.Equal(t, "writing", StateWriting.String())
	assert.Equal(t, "in_transaction", StateInTransaction.String())
}
