package runtime

import (
	"net/http"
	"sync"

	"github.com/poputka/ride-core/sdk/config"
	"github.com/poputka/ride-core/sdk/pkg/dbrouter"
)

// Application 进程级运行时注册表：
// 持有解析完成的配置、连接池集合与路由引擎。
// 配置与连接池在启动路径上各构建一次，此后只读。
type Application struct {
	mux     sync.RWMutex
	config  *config.Config
	pools   *dbrouter.PoolSet
	engine  http.Handler
	routers []Router
}

// Router 路由注册信息
type Router struct {
	HttpMethod, RelativePath, Handler string
}

// NewApplication 创建运行时实例
func NewApplication() *Application {
	return &Application{}
}

// SetConfig 设置解析完成的配置
func (e *Application) SetConfig(cfg *config.Config) {
	e.mux.Lock()
	defer e.mux.Unlock()
	e.config = cfg
}

// GetConfig 获取配置
func (e *Application) GetConfig() *config.Config {
	e.mux.RLock()
	defer e.mux.RUnlock()
	return e.config
}

// SetPools 设置连接池集合
func (e *Application) SetPools(p *dbrouter.PoolSet) {
	e.mux.Lock()
	defer e.mux.Unlock()
	e.pools = p
}

// GetPools 获取连接池集合
func (e *Application) GetPools() *dbrouter.PoolSet {
	e.mux.RLock()
	defer e.mux.RUnlock()
	return e.pools
}

// SetEngine 设置路由引擎
func (e *Application) SetEngine(engine http.Handler) {
	e.mux.Lock()
	defer e.mux.Unlock()
	e.engine = engine
}

// GetEngine 获取路由引擎
func (e *Application) GetEngine() http.Handler {
	e.mux.RLock()
	defer e.mux.RUnlock()
	return e.engine
}

// SetRouters 设置路由注册表
func (e *Application) SetRouters(routers []Router) {
	e.mux.Lock()
	defer e.mux.Unlock()
	e.routers = routers
}

// GetRouters 获取路由注册表
func (e *Application) GetRouters() []Router {
	e.mux.RLock()
	defer e.mux.RUnlock()
	return append([]Router(nil), e.routers...)
}
