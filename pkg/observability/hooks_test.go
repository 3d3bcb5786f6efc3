package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	b := NoopBuildHooks{}
	b.OnDanglingReference("relationship", "a", "b")
	b.OnGraphBuilt(3, 2, 1)

	l := NoopLayoutHooks{}
	l.OnLayoutStart(ctx, "layered", 10)
	l.OnLayoutComplete(ctx, "layered", time.Second, nil)

	NoopMetricHooks{}.OnMetricComputed("area", 12)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "layout")
	c.OnCacheMiss(ctx, "layout")
	c.OnCacheSet(ctx, "layout", 1024)

	NoopHTTPHooks{}.OnRequest(ctx, "POST", "/v1/layout", 200, time.Millisecond)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Layout().(NoopLayoutHooks); !ok {
		t.Error("Layout() should return NoopLayoutHooks by default")
	}
	if _, ok := Build().(NoopBuildHooks); !ok {
		t.Error("Build() should return NoopBuildHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	customLayout := &testLayoutHooks{}
	SetLayoutHooks(customLayout)
	if Layout() != customLayout {
		t.Error("SetLayoutHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	Reset()
	if _, ok := Layout().(NoopLayoutHooks); !ok {
		t.Error("Reset() should restore NoopLayoutHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testLayoutHooks{}
	SetLayoutHooks(custom)
	SetLayoutHooks(nil)

	if Layout() != custom {
		t.Error("SetLayoutHooks(nil) should be ignored")
	}
}

func TestPrometheusHooks(t *testing.T) {
	Reset()
	defer Reset()

	p := NewPrometheusHooks(nil)
	p.Install()
	ctx := context.Background()

	Build().OnDanglingReference("generalization", "a", "b")
	Build().OnDanglingReference("generalization", "a", "c")
	Layout().OnLayoutStart(ctx, "stress", 4)
	if got := testutil.ToFloat64(p.LayoutInFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
	Layout().OnLayoutComplete(ctx, "stress", 20*time.Millisecond, errors.New("boom"))
	Metrics().OnMetricComputed("edge_crossing", 3)
	Cache().OnCacheHit(ctx, "layout")

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"dangling", testutil.ToFloat64(p.DanglingReferencesTotal.WithLabelValues("generalization")), 2},
		{"in flight", testutil.ToFloat64(p.LayoutInFlight), 0},
		{"layout errors", testutil.ToFloat64(p.LayoutsTotal.WithLabelValues("stress", "error")), 1},
		{"metric", testutil.ToFloat64(p.MetricScore.WithLabelValues("edge_crossing")), 3},
		{"cache hit", testutil.ToFloat64(p.CacheOpsTotal.WithLabelValues("layout", "hit")), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if n, err := testutil.GatherAndCount(p.Registry()); err != nil || n == 0 {
		t.Errorf("GatherAndCount = %d, %v; want registered metrics", n, err)
	}
}

// Test implementations
type testLayoutHooks struct{ NoopLayoutHooks }
type testCacheHooks struct{ NoopCacheHooks }
