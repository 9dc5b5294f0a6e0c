package dbrouter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 路由指标：按池统计绑定决定的次数，以及当前打开的会话数。
// 主从拓扑下 master/slave 的比例可以直接反映读写分离的效果。
var (
	bindsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ridecore",
		Subsystem: "dbrouter",
		Name:      "session_binds_total",
		Help:      "Binding decisions by target pool (single_node, master, slave).",
	}, []string{"pool"})

	sessionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ridecore",
		Subsystem: "dbrouter",
		Name:      "sessions_open",
		Help:      "Currently open routing sessions.",
	})
)
