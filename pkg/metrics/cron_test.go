package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	end := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

	m.ObserveRun("expiration-sweep", 250*time.Millisecond, end, nil)
	m.ObserveRun("expiration-sweep", time.Second, end.Add(time.Minute), errors.New("db down"))
	m.ObserveRun("", time.Millisecond, end, nil)
	m.IncSkippedCycle()

	if got := testutil.ToFloat64(m.runs.WithLabelValues("expiration-sweep", outcomeSuccess)); got != 1 {
		t.Fatalf("expected 1 success, got %f", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues("expiration-sweep", outcomeFailure)); got != 1 {
		t.Fatalf("expected 1 failure, got %f", got)
	}
	if got := testutil.ToFloat64(m.lastSuccess.WithLabelValues("expiration-sweep")); got != float64(end.Unix()) {
		t.Fatalf("failed run must not move last success, got %f", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues("unnamed", outcomeSuccess)); got != 1 {
		t.Fatalf("expected blank job name to be labelled unnamed, got %f", got)
	}
	if got := testutil.ToFloat64(m.skipped); got != 1 {
		t.Fatalf("expected 1 skipped cycle, got %f", got)
	}
	if n := testutil.CollectAndCount(m.duration, "medstock_cron_job_duration_seconds"); n != 2 {
		t.Fatalf("expected 2 duration series, got %d", n)
	}
}

func TestCronDurationHistogramPerJob(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	m.ObserveRun("expiration-sweep", 250*time.Millisecond, time.Now(), nil)
	m.ObserveRun("expiration-sweep", time.Second, time.Now(), errors.New("db down"))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	family := findFamily(families, "medstock_cron_job_duration_seconds")
	if family == nil {
		t.Fatal("duration histogram not registered")
	}
	if family.GetType() != dto.MetricType_HISTOGRAM {
		t.Fatalf("expected histogram, got %s", family.GetType())
	}
	series := family.GetMetric()
	if len(series) != 1 {
		t.Fatalf("expected one series, got %d", len(series))
	}
	if label := series[0].GetLabel()[0]; label.GetName() != "job" || label.GetValue() != "expiration-sweep" {
		t.Fatalf("unexpected label %s=%s", label.GetName(), label.GetValue())
	}
	h := series[0].GetHistogram()
	if h.GetSampleCount() != 2 {
		t.Fatalf("failed runs must still be timed, got %d samples", h.GetSampleCount())
	}
	if h.GetSampleSum() != 1.25 {
		t.Fatalf("expected 1.25s total, got %f", h.GetSampleSum())
	}
}

func findFamily(families []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func TestNilCronMetricsAreNoops(t *testing.T) {
	var m *CronJobMetrics
	m.ObserveRun("x", time.Second, time.Now(), nil)
	m.IncSkippedCycle()
	NewCronJobMetrics(nil).ObserveRun("x", time.Second, time.Now(), errors.New("x"))
	NewCronJobMetrics(nil).IncSkippedCycle()
}
