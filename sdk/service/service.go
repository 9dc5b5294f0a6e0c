package service

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/poputka/ride-core/sdk/pkg/dbrouter"
)

// Service 业务服务基类。每个工作单元持有一个路由会话，
// 读写分流由会话内部决定，业务代码不感知主从。
type Service struct {
	Session *dbrouter.RoutingSession
	Msg     string
	MsgID   string
	Log     *zap.Logger
	Error   error
}

// AddError 累积错误，保留首个错误作为主错误
func (db *Service) AddError(err error) error {
	if db.Error == nil {
		db.Error = err
	} else if err != nil {
		db.Error = fmt.Errorf("%v; %w", db.Error, err)
	}
	return db.Error
}
