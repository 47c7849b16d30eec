package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// counterValue は指定した名前とラベルのカウンタ値を取得する。
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			got := make(map[string]string, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				got[lp.GetName()] = lp.GetValue()
			}
			matched := true
			for k, v := range labels {
				if got[k] != v {
					matched = false
					break
				}
			}
			if matched {
				return m.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordPageRender_IncrementsCounter はページレンダリングカウンタが増加することを検証する。
func TestRecordPageRender_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordPageRender("home")
	c.RecordPageRender("home")
	c.RecordPageRender("library")

	if val := counterValue(t, reg, "myb_page_renders_total", map[string]string{"page": "home"}); val != 2 {
		t.Errorf("page_renders_total{page=home} = %v, want 2", val)
	}
	if val := counterValue(t, reg, "myb_page_renders_total", map[string]string{"page": "library"}); val != 1 {
		t.Errorf("page_renders_total{page=library} = %v, want 1", val)
	}
}

// TestRecordBackendRequest_LabelsByResourceAndStatus はリソース・ステータス別に記録されることを検証する。
func TestRecordBackendRequest_LabelsByResourceAndStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordBackendRequest("books", 200)
	c.RecordBackendRequest("books", 200)
	c.RecordBackendRequest("books", 503)
	c.RecordBackendRequest("payments", 201)

	if val := counterValue(t, reg, "myb_backend_requests_total", map[string]string{"resource": "books", "status_code": "200"}); val != 2 {
		t.Errorf("backend_requests_total{books,200} = %v, want 2", val)
	}
	if val := counterValue(t, reg, "myb_backend_requests_total", map[string]string{"resource": "books", "status_code": "503"}); val != 1 {
		t.Errorf("backend_requests_total{books,503} = %v, want 1", val)
	}
	if val := counterValue(t, reg, "myb_backend_requests_total", map[string]string{"resource": "payments", "status_code": "201"}); val != 1 {
		t.Errorf("backend_requests_total{payments,201} = %v, want 1", val)
	}
}

// TestRecordBackendLatency_ObservesHistogram はレイテンシがヒストグラムに記録されることを検証する。
func TestRecordBackendLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordBackendLatency(150 * time.Millisecond)
	c.RecordBackendLatency(300 * time.Millisecond)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "myb_backend_latency_seconds" {
			found = true
			h := mf.GetMetric()[0].GetHistogram()
			if h.GetSampleCount() != 2 {
				t.Errorf("sample count = %d, want 2", h.GetSampleCount())
			}
			want := 0.45
			if diff := h.GetSampleSum() - want; diff > 0.001 || diff < -0.001 {
				t.Errorf("sample sum = %v, want %v", h.GetSampleSum(), want)
			}
		}
	}
	if !found {
		t.Error("myb_backend_latency_seconds metric not found")
	}
}

// TestRecordStoryUpload_LabelsByOutcome は投稿結果別に記録されることを検証する。
func TestRecordStoryUpload_LabelsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordStoryUpload("accepted")
	c.RecordStoryUpload("accepted")
	c.RecordStoryUpload("blocked")

	if val := counterValue(t, reg, "myb_story_uploads_total", map[string]string{"outcome": "accepted"}); val != 2 {
		t.Errorf("story_uploads_total{accepted} = %v, want 2", val)
	}
	if val := counterValue(t, reg, "myb_story_uploads_total", map[string]string{"outcome": "blocked"}); val != 1 {
		t.Errorf("story_uploads_total{blocked} = %v, want 1", val)
	}
}

// TestRecordPurchaseAndSettlement は購入と決済承認のカウンタを検証する。
func TestRecordPurchaseAndSettlement(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordPurchase("card")
	c.RecordPurchase("mtn")
	c.RecordPurchase("mtn")
	c.RecordSettlement(3)

	if val := counterValue(t, reg, "myb_purchases_total", map[string]string{"method": "mtn"}); val != 2 {
		t.Errorf("purchases_total{mtn} = %v, want 2", val)
	}
	if val := counterValue(t, reg, "myb_purchases_total", map[string]string{"method": "card"}); val != 1 {
		t.Errorf("purchases_total{card} = %v, want 1", val)
	}
	if val := counterValue(t, reg, "myb_settlements_total", nil); val != 3 {
		t.Errorf("settlements_total = %v, want 3", val)
	}
}
