package store

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestObservableStore(t *testing.T) {
	Convey("测试 ObservableStore 方法", t, func() {
		ctx := context.Background()

		inner := NewMapStoreWithOptions[string, string]()
		store, err := NewObservableStoreWithOptions[string, string](inner, &ObservableStoreOptions{
			EnableMetrics: true,
			EnableLogging: true,
			Name:          "schema_cache",
			Registerer:    prometheus.NewRegistry(),
		})
		So(err, ShouldBeNil)
		defer store.Close()

		Convey("透传 Set/Get/Del 语义", func() {
			So(store.Set(ctx, "key1", "val1"), ShouldBeNil)

			val, err := store.Get(ctx, "key1")
			So(err, ShouldBeNil)
			So(val, ShouldEqual, "val1")

			So(store.Del(ctx, "key1"), ShouldBeNil)
			_, err = store.Get(ctx, "key1")
			So(errors.Is(err, ErrKeyNotFound), ShouldBeTrue)
		})

		Convey("透传 Set 选项", func() {
			So(store.Set(ctx, "key1", "val1"), ShouldBeNil)

			err := store.Set(ctx, "key1", "val2", WithIfNotExist())
			So(errors.Is(err, ErrConditionFailed), ShouldBeTrue)
		})
	})
}

func TestObservableStoreMetrics(t *testing.T) {
	Convey("测试 ObservableStore 指标收集", t, func() {
		ctx := context.Background()

		registry := prometheus.NewRegistry()
		inner := NewMapStoreWithOptions[string, string]()
		store, err := NewObservableStoreWithOptions[string, string](inner, &ObservableStoreOptions{
			EnableMetrics: true,
			Name:          "schema_cache",
			Registerer:    registry,
		})
		So(err, ShouldBeNil)
		defer store.Close()

		So(store.Set(ctx, "key1", "val1"), ShouldBeNil)
		_, _ = store.Get(ctx, "key1")
		_, _ = store.Get(ctx, "no-such-key")

		families, err := registry.Gather()
		So(err, ShouldBeNil)

		counters := map[string]float64{}
		for _, family := range families {
			if family.GetName() != "schema_cache_operations_total" {
				continue
			}
			for _, metric := range family.GetMetric() {
				var operation, status string
				for _, label := range metric.GetLabel() {
					switch label.GetName() {
					case "operation":
						operation = label.GetValue()
					case "status":
						status = label.GetValue()
					}
				}
				counters[operation+"/"+status] = metric.GetCounter().GetValue()
			}
		}

		So(counters["set/success"], ShouldEqual, 1)
		So(counters["get/success"], ShouldEqual, 1)
		So(counters["get/error"], ShouldEqual, 1)
	})
}

func TestNewObservableStoreWithOptions(t *testing.T) {
	Convey("测试 NewObservableStoreWithOptions 方法", t, func() {
		Convey("缺少底层存储返回错误", func() {
			_, err := NewObservableStoreWithOptions[string, string](nil, &ObservableStoreOptions{})
			So(err, ShouldNotBeNil)
		})

		Convey("缺少选项返回错误", func() {
			inner := NewMapStoreWithOptions[string, string]()
			_, err := NewObservableStoreWithOptions[string, string](inner, nil)
			So(err, ShouldNotBeNil)
		})
	})
}
