package config

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"
)

func TestFlattenSecretData(t *testing.T) {
	Convey("嵌套密钥映射拍平成单层键值", t, func() {
		out := map[string]string{}
		flattenSecretData(map[string]interface{}{
			"db": map[string]interface{}{
				"host": "x",
				"port": "5432",
			},
			"PROJECT_NAME": "poputka",
			"depth": map[string]interface{}{
				"a": map[string]interface{}{"b": 1},
			},
		}, "", out)

		So(out["db_host"], ShouldEqual, "x")
		So(out["db_port"], ShouldEqual, "5432")
		So(out["depth_a_b"], ShouldEqual, "1")

		Convey("所有键统一转为小写", func() {
			So(out["project_name"], ShouldEqual, "poputka")
		})
	})
}

func TestVaultSourceInactive(t *testing.T) {
	Convey("缺少端点或令牌时密钥库配置源表现为空源", t, func() {
		t.Setenv(EnvVaultHost, "")
		t.Setenv(EnvVaultToken, "")

		var calls int32
		src := newVaultSource(zap.NewNop())
		src.fetch = func(ctx context.Context) (map[string]interface{}, error) {
			atomic.AddInt32(&calls, 1)
			return map[string]interface{}{"debug": "true"}, nil
		}

		_, ok := src.Lookup("debug")
		So(ok, ShouldBeFalse)
		// 未激活时完全不触发取数
		So(atomic.LoadInt32(&calls), ShouldEqual, 0)
	})
}

func TestVaultSourceMemoization(t *testing.T) {
	Convey("密钥库每个实例至多取数一次", t, func() {
		t.Setenv(EnvVaultHost, "http://vault.local:8200")
		t.Setenv(EnvVaultToken, "test-token")

		Convey("成功的取数被记忆", func() {
			var calls int32
			src := newVaultSource(zap.NewNop())
			src.fetch = func(ctx context.Context) (map[string]interface{}, error) {
				atomic.AddInt32(&calls, 1)
				return map[string]interface{}{
					"db": map[string]interface{}{"host": "vault-db"},
				}, nil
			}

			v, ok := src.Lookup("db_host")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "vault-db")

			_, _ = src.Lookup("db_host")
			_, _ = src.Lookup("missing_key")
			So(atomic.LoadInt32(&calls), ShouldEqual, 1)
		})

		Convey("失败的取数记忆空结果而不是逐字段重试", func() {
			var calls int32
			src := newVaultSource(zap.NewNop())
			src.fetch = func(ctx context.Context) (map[string]interface{}, error) {
				atomic.AddInt32(&calls, 1)
				return nil, errors.New("connection refused")
			}

			_, ok := src.Lookup("db_host")
			So(ok, ShouldBeFalse)
			_, ok = src.Lookup("db_port")
			So(ok, ShouldBeFalse)

			So(atomic.LoadInt32(&calls), ShouldEqual, 1)
		})

		Convey("并发首次访问只触发一次取数", func() {
			var calls int32
			src := newVaultSource(zap.NewNop())
			src.fetch = func(ctx context.Context) (map[string]interface{}, error) {
				atomic.AddInt32(&calls, 1)
				return map[string]interface{}{"environment": "stage"}, nil
			}

			var wg sync.WaitGroup
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					v, ok := src.Lookup("environment")
					if !ok || v != "stage" {
						t.Errorf("unexpected lookup result: %q %v", v, ok)
					}
				}()
			}
			wg.Wait()
			So(atomic.LoadInt32(&calls), ShouldEqual, 1)
		})
	})
}

func TestResolverSurvivesVaultOutage(t *testing.T) {
	Convey("密钥库不可达时，低层配置源足够即解析成功", t, func() {
		t.Setenv(EnvVaultHost, "http://unreachable.vault:8200")
		t.Setenv(EnvVaultToken, "test-token")
		t.Setenv("POSTGRES_HOST", "fallback-db")

		var calls int32
		src := newVaultSource(zap.NewNop())
		src.fetch = func(ctx context.Context) (map[string]interface{}, error) {
			atomic.AddInt32(&calls, 1)
			return nil, errors.New("dial tcp: connection refused")
		}

		db := &Database{}
		r := NewResolver(WithSecretSource(src))
		So(r.Resolve(db.schema()), ShouldBeNil)
		So(db.Single.Host, ShouldEqual, "fallback-db")

		// 多个字段查询也只发起一次网络调用
		So(atomic.LoadInt32(&calls), ShouldEqual, 1)
	})
}
