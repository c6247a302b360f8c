package metrics

import (
	"testing"
)

func TestNew_GathersMetrics(t *testing.T) {
	m := New()

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	// Should include at least Go runtime and process collectors.
	if len(families) == 0 {
		t.Fatal("expected non-empty metric families from Gather()")
	}

	// Vec collectors only show up once a label set has been observed.
	m.RequestsTotal.WithLabelValues("GET", "302", "/").Inc()
	m.GatewayDecisions.WithLabelValues(OutcomeRedirect).Inc()
	m.StoreErrors.WithLabelValues("insert").Inc()

	families, err = m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	want := map[string]bool{
		"coi_gateway_http_requests_total": false,
		"coi_gateway_decisions_total":     false,
		"coi_gateway_store_errors_total":  false,
	}
	for _, f := range families {
		if _, ok := want[f.GetName()]; ok {
			want[f.GetName()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected %s in gathered metrics", name)
		}
	}
}

func TestNormalizeMethod(t *testing.T) {
	tests := []struct {
		method string
		want   string
	}{
		{"GET", "GET"},
		{"POST", "POST"},
		{"OPTIONS", "OPTIONS"},
		{"HEAD", "HEAD"},
		{"FOOBAR", "other"},
		{"get", "other"},
		{"", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			got := NormalizeMethod(tt.method)
			if got != tt.want {
				t.Errorf("NormalizeMethod(%q) = %q, want %q", tt.method, got, tt.want)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "/"},
		{"", "/"},
		{"/submit-calculation", "/submit-calculation"},
		{"/submit-calculation/", "/submit-calculation"},
		{"/healthz", "/healthz"},
		{"/gateway/status", "/gateway/status"},
		{"/metrics", "/metrics"},
		{"/unknown", "other"},
		{"/submit-calculationx", "other"},
		{"/favicon.ico", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := NormalizePath(tt.path)
			if got != tt.want {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
