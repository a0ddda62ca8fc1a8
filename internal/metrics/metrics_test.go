package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"podpull/internal/metrics"
)

func TestCollectorRegistersAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.RecordFetch(false, false, 120*time.Millisecond)
	c.RecordFetch(true, false, 10*time.Millisecond)
	c.RecordFetch(false, true, 30*time.Millisecond)
	c.RecordDiscovered(3)
	c.RecordDownloads(2, 1)
	c.RecordReclaimed(4)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	counts := map[string]float64{}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			if metric.GetCounter() != nil {
				counts[family.GetName()] += metric.GetCounter().GetValue()
			}
		}
	}

	expectations := map[string]float64{
		"podpull_fetch_success_total":      1,
		"podpull_fetch_not_modified_total": 1,
		"podpull_fetch_fail_total":         1,
		"podpull_episodes_discovered_total": 3,
		"podpull_download_success_total":   2,
		"podpull_download_fail_total":      1,
		"podpull_claims_reclaimed_total":   4,
	}
	for name, want := range expectations {
		if counts[name] != want {
			t.Errorf("%s = %v, want %v", name, counts[name], want)
		}
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *metrics.Collector
	c.RecordFetch(false, false, time.Second)
	c.RecordDiscovered(1)
	c.RecordDownloads(1, 0)
	c.RecordReclaimed(1)
}
