package metrics

import "testing"

func TestCounterAccumulates(t *testing.T) {
	c := NewCollector()
	c.Counter("records_inserted", 3)
	c.Counter("records_inserted", 4)
	if got := c.GetCounter("records_inserted"); got != 7 {
		t.Fatalf("GetCounter() = %d, want 7", got)
	}
}

func TestGaugeOverwrites(t *testing.T) {
	c := NewCollector()
	c.Gauge("collection_size", 10)
	c.Gauge("collection_size", 25)
	if got := c.GetGauge("collection_size"); got != 25 {
		t.Fatalf("GetGauge() = %d, want 25", got)
	}
}

func TestHistogramAggregates(t *testing.T) {
	c := NewCollector()
	for _, v := range []float64{1, 2, 3, 4, 5} {
		c.Histogram("search_latency_ms", v)
	}
	stats := c.GetHistogram("search_latency_ms")
	if stats == nil {
		t.Fatal("GetHistogram() = nil")
	}
	if stats.Count != 5 {
		t.Fatalf("Count = %d, want 5", stats.Count)
	}
	if stats.Min != 1 || stats.Max != 5 {
		t.Fatalf("Min/Max = %v/%v, want 1/5", stats.Min, stats.Max)
	}
	if stats.Mean != 3 {
		t.Fatalf("Mean = %v, want 3", stats.Mean)
	}
}

func TestGetHistogramUnknownNameReturnsNil(t *testing.T) {
	c := NewCollector()
	if stats := c.GetHistogram("nope"); stats != nil {
		t.Fatalf("GetHistogram() = %v, want nil", stats)
	}
}

func TestSnapshotIncludesAllMetricKinds(t *testing.T) {
	c := NewCollector()
	c.Counter("records_inserted", 1)
	c.Gauge("collection_size", 2)
	c.Histogram("build_duration_ms", 42)

	snap := c.Snapshot()
	if snap.Counters["records_inserted"] != 1 {
		t.Fatalf("Counters[records_inserted] = %d, want 1", snap.Counters["records_inserted"])
	}
	if snap.Gauges["collection_size"] != 2 {
		t.Fatalf("Gauges[collection_size] = %d, want 2", snap.Gauges["collection_size"])
	}
	if snap.Histograms["build_duration_ms"] == nil || snap.Histograms["build_duration_ms"].Count != 1 {
		t.Fatal("Histograms[build_duration_ms] missing or wrong count")
	}
}

func TestResetClearsAllMetrics(t *testing.T) {
	c := NewCollector()
	c.Counter("x", 1)
	c.Gauge("y", 1)
	c.Histogram("z", 1)
	c.Reset()

	if c.GetCounter("x") != 0 || c.GetGauge("y") != 0 || c.GetHistogram("z") != nil {
		t.Fatal("Reset() left stale metric state")
	}
}
