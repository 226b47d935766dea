package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/atvirokodosprendimai/gaasapi/internal/adapters/events"
)

func TestNewServerServesGraphsWithBootstrapKey(t *testing.T) {
	server, closer, err := NewServer(context.Background(), Config{
		Addr:             "127.0.0.1:0",
		DBPath:           filepath.Join(t.TempDir(), "gaas.sqlite"),
		BootstrapAPIKey:  "secret-token",
		BootstrapTenant:  "tenant-a",
		DispatchInterval: time.Hour,
	}, nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(func() { _ = closer.Close() })

	body := `{"graphId":"roadtraffic","schema":{"elements":{"edges":{"RoadUse":{"description":"d","source":"j","destination":"j","directed":"true"}}},"types":{"j":{"class":"java.lang.String"}}}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/graphs", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer secret-token")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/graphs/roadtraffic", nil)
	req.Header.Set("X-API-Key", "secret-token")
	rec = httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"owner":"tenant-a"`) {
		t.Fatalf("unexpected get response %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNewPublisherPicksWebhookWhenConfigured(t *testing.T) {
	logger := zap.NewNop()
	if _, ok := newPublisher(Config{}, logger).(*events.LogPublisher); !ok {
		t.Fatal("expected log publisher without webhook url")
	}
	if _, ok := newPublisher(Config{WebhookURL: "http://deployer.local/hook"}, logger).(*events.WebhookPublisher); !ok {
		t.Fatal("expected webhook publisher")
	}
}
