package obs

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"ngohub.org/internal/ids"
)

func TestCanonicalPath(t *testing.T) {
	id := ids.New()
	cases := map[string]string{
		"":                       "/",
		"/":                      "/",
		"/metrics":               "/metrics",
		"/reports/" + id:         "/reports/:id",
		"/users/" + id + "/role": "/users/:id/role",
		"/reports/not-an-id":     "/reports/not-an-id",
		"/donors?limit=10":       "/donors",
		"/auth/login":            "/auth/login",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}

func TestInstrumentCountsRequests(t *testing.T) {
	h := Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/brew", "418"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brew", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/brew", "418"))
	if after-before != 1 {
		t.Fatalf("expected one counted request, got %v", after-before)
	}
	if v := testutil.ToFloat64(httpInFlight); v != 0 {
		t.Fatalf("in-flight gauge = %v, want 0", v)
	}
}

func TestLogAuthRejection(t *testing.T) {
	l := Logger()
	orig := l.Out
	var buf bytes.Buffer
	l.SetOutput(&buf)
	defer l.SetOutput(orig)

	before := testutil.ToFloat64(authDecisions.WithLabelValues("token_expired"))
	LogAuthRejection("token_expired", map[string]any{"path": "/reports"})
	if got := testutil.ToFloat64(authDecisions.WithLabelValues("token_expired")) - before; got != 1 {
		t.Fatalf("auth decision counter delta = %v", got)
	}

	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected log output")
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["outcome"] != "token_expired" || entry["path"] != "/reports" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("missing ts field: %v", entry)
	}
}

func TestConfigure(t *testing.T) {
	if err := Configure("debug", "text"); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	defer Configure("info", "json")
	if err := Configure("loud", "json"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if err := Configure("info", "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
