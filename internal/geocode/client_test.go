package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_Resolve_FirstResultWins(t *testing.T) {
	// Провайдер возвращает два результата: берём первый.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "Salem, Tamil Nadu" {
			t.Errorf("неожиданный запрос q=%q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"results": [
				{"geometry": {"lat": 11.6643, "lng": 78.1460}},
				{"geometry": {"lat": 42.5195, "lng": -70.8967}}
			],
			"status": {"code": 200, "message": "OK"}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second)
	point, err := client.Resolve(context.Background(), "Salem, Tamil Nadu")
	if err != nil {
		t.Fatalf("resolve вернул ошибку: %v", err)
	}

	if point.Lng != 78.1460 || point.Lat != 11.6643 {
		t.Fatalf("ожидали lng=78.1460 lat=11.6643, получили lng=%v lat=%v", point.Lng, point.Lat)
	}
}

func TestClient_Resolve_ZeroResultsIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": [], "status": {"code": 200, "message": "OK"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second)
	_, err := client.Resolve(context.Background(), "несуществующее место xyzzy")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("ожидали ErrNotFound, получили %v", err)
	}
}

func TestClient_Resolve_ProviderErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second)
	_, err := client.Resolve(context.Background(), "Москва")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("ожидали ErrUnavailable, получили %v", err)
	}
}

func TestClient_Resolve_EmptyQuery(t *testing.T) {
	client := NewClient("http://localhost", "test-key", time.Second)
	_, err := client.Resolve(context.Background(), "   ")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("пустой запрос должен возвращать ErrNotFound, получили %v", err)
	}
}
