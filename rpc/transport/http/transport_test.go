package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ValentinKolb/objlock/rpc/common"
	"github.com/ValentinKolb/objlock/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
)

func TestHandleRequest(t *testing.T) {
	srv := &httpServerTransport{}
	srv.RegisterHandler(func(shardId uint64, peer transport.Peer, req []byte) []byte {
		if peer.Network != "http" || peer.Addr == "" {
			t.Errorf("unexpected peer %+v", peer)
		}
		return append([]byte(strings.Repeat("x", int(shardId))), req...)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("POST /{shardId}", srv.handleRequest)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		resp   string
	}{
		{"ok", "/2", "abc", http.StatusOK, "xxabc"},
		{"empty body", "/0", "", http.StatusOK, ""},
		{"bad shard", "/nope", "abc", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusOK && rec.Body.String() != tt.resp {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.resp)
			}
		})
	}
}

func TestClientAgainstServer(t *testing.T) {
	srv := &httpServerTransport{}
	srv.RegisterHandler(func(shardId uint64, _ transport.Peer, req []byte) []byte {
		return []byte(strings.ToUpper(string(req)))
	})
	mux := http.NewServeMux()
	mux.HandleFunc("POST /{shardId}", srv.handleRequest)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := NewHttpClientTransport()
	if err := client.Connect(common.ClientConfig{
		TimeoutSecond: 5,
		Transport:     common.ClientTransportConf{Endpoints: []string{ts.URL}, RetryCount: 2},
	}); err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	resp, err := client.Send(1, []byte("lock"))
	if err != nil {
		t.Fatal(err)
	}
	if string(resp) != "LOCK" {
		t.Errorf("Send = %q", resp)
	}
}

func TestMetricsHandler(t *testing.T) {
	metrics.GetOrCreateCounter(`objlock_transport_test_total`).Inc()

	rec := httptest.NewRecorder()
	MetricsHandler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "objlock_transport_test_total 1") {
		t.Errorf("metrics output misses counter:\n%s", body)
	}
}
