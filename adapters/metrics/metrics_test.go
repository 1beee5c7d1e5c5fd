package metrics_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/artpar/convreg/adapters/metrics"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

func TestNewWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	if m == nil {
		t.Fatal("NewWithRegistry returned nil")
	}
	if m.RequestsTotal == nil || m.ResolutionsTotal == nil || m.ConversionsTotal == nil {
		t.Error("counter vectors not initialised")
	}
	if m.ResolutionDuration == nil || m.RequestDuration == nil {
		t.Error("histograms not initialised")
	}
	if m.ConfigReloads == nil || m.SavedSelectors == nil {
		t.Error("config metrics not initialised")
	}
}

func TestResolutionsTotal(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ResolutionsTotal.WithLabelValues("ok").Inc()
	m.ResolutionsTotal.WithLabelValues("unknown_component").Add(2)

	f := gather(t, reg, "convreg_resolutions_total")
	if len(f.GetMetric()) != 2 {
		t.Errorf("expected 2 metric series, got %d", len(f.GetMetric()))
	}
}

func TestResolutionDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ResolutionDuration.Observe(0.00002)
	m.ResolutionDuration.Observe(0.002)

	f := gather(t, reg, "convreg_resolution_duration_seconds")
	if got := f.GetMetric()[0].GetHistogram().GetSampleCount(); got != 2 {
		t.Errorf("sample count = %d, want 2", got)
	}
}

func TestConversionsTotal(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ConversionsTotal.WithLabelValues("int", "ok").Inc()
	m.ConversionsTotal.WithLabelValues("int", "conversion_failed").Inc()
	m.ConversionsTotal.WithLabelValues("decimal", "ok").Inc()

	f := gather(t, reg, "convreg_conversions_total")
	if len(f.GetMetric()) != 3 {
		t.Errorf("expected 3 metric series, got %d", len(f.GetMetric()))
	}
}

func TestConfigReloads(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ObserveConfigReload(nil)
	m.ObserveConfigReload(errors.New("bad yaml"))

	if f := gather(t, reg, "convreg_config_reloads_total"); f.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Error("reloads != 1")
	}
	if f := gather(t, reg, "convreg_config_reload_errors_total"); f.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Error("reload errors != 1")
	}
	if f := gather(t, reg, "convreg_config_last_reload_timestamp"); f.GetMetric()[0].GetGauge().GetValue() == 0 {
		t.Error("last reload timestamp not set")
	}
}

func TestNormalizePath(t *testing.T) {
	if got := metrics.NormalizePath("/api/v1/converters"); got != "/api/v1/converters" {
		t.Errorf("NormalizePath short = %s", got)
	}
	long := "/" + strings.Repeat("x", 80)
	got := metrics.NormalizePath(long)
	if len(got) != 53 || !strings.HasSuffix(got, "...") {
		t.Errorf("NormalizePath long = %s", got)
	}
}

func TestCollector_Observer(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ObserveResolution("ok", 3*time.Millisecond)
	m.ObserveConversion("decimal", "ok")
	m.SetSavedSelectors(4)

	if f := gather(t, reg, "convreg_resolutions_total"); f.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Error("resolution not counted")
	}
	gather(t, reg, "convreg_conversions_total")
	if f := gather(t, reg, "convreg_saved_selectors"); f.GetMetric()[0].GetGauge().GetValue() != 4 {
		t.Errorf("saved_selectors = %v, want 4", f.GetMetric()[0].GetGauge().GetValue())
	}
}
