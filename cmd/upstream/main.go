// Command upstream is a mock of the tour-search API for local development.
// It issues request ids from the submit endpoint and stages poll responses:
// first searching, then a result block without prices, then priced tours.
// The reference-list endpoints serve small static tables.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	port := getEnv("PORT", "9001")
	logger, _ := zap.NewDevelopment()
	defer func() {
		_ = logger.Sync()
	}()

	m := newMock()

	mux := http.NewServeMux()
	mux.HandleFunc("/xml/modsearch.php", m.modsearch)
	mux.HandleFunc("/xml/modresult.php", m.modresult)
	mux.HandleFunc("/xml/listcountry.php", listHandler("country", countries))
	mux.HandleFunc("/xml/listdep.php", listHandler("departure", departures))
	mux.HandleFunc("/xml/listmeal.php", listHandler("meal", meals))
	mux.HandleFunc("/xml/listroom.php", listHandler("room", rooms))
	mux.HandleFunc("/xml/listoperator.php", listHandler("operator", operators))
	mux.HandleFunc("/xml/listhotel.php", listHandler("hotel", hotels))
	mux.HandleFunc("/xml/listdev.php", m.listdev)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	addr := ":" + port
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("mock upstream listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

// mock tracks per-request poll progress.
type mock struct {
	mu    sync.Mutex
	polls map[string]int
}

func newMock() *mock {
	return &mock{polls: map[string]int{}}
}

func (m *mock) modsearch(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("country") == "" {
		// No destination: behave like the real API when it has no
		// packaged tours, answering without a request id.
		writeJSON(w, map[string]any{"result": map[string]any{}})
		return
	}
	id := uuid.New().String()[:8]
	m.mu.Lock()
	m.polls[id] = 0
	m.mu.Unlock()
	writeJSON(w, map[string]any{"result": map[string]any{"requestid": id}})
}

func (m *mock) modresult(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("requestid")
	m.mu.Lock()
	m.polls[id]++
	n := m.polls[id]
	m.mu.Unlock()

	switch {
	case n <= 2:
		writeJSON(w, map[string]any{"data": map[string]any{"status": map[string]any{"state": "searching"}}})
	case n == 3:
		// Block present but nothing priced yet.
		writeJSON(w, map[string]any{"data": map[string]any{
			"block": []any{map[string]any{"hotel": map[string]any{"hotelid": 501, "tour": map[string]any{"date": "01.06.2026"}}}},
		}})
	default:
		writeJSON(w, map[string]any{"data": map[string]any{
			"block": []any{
				map[string]any{"hotel": []any{
					map[string]any{"hotelid": 501, "tour": []any{
						map[string]any{"price": "84500", "date": "01.06.2026", "nights": "7", "room": "2", "meal": "3", "operator": "16"},
						map[string]any{"pr": "79900", "dt": "03.06.2026", "nt": "7", "rm": "2", "ml": "2", "op": "16"},
					}},
					map[string]any{"hotelid": 502, "tour": map[string]any{"price": "121000", "date": "01.06.2026", "nights": "10", "room": "1", "meal": "4", "operator": "9"}},
				}},
			},
			"hotels": map[string]any{
				"501": map[string]any{"name": "Coral Beach Resort", "stars": 4, "link": "coral-beach-501"},
				"502": map[string]any{"name": "Sunrise Palace", "stars": 5, "link": "sunrise-502"},
			},
			"operators": []any{
				map[string]any{"id": 16, "name": "Sunny Tour"},
				map[string]any{"id": 9, "name": "Blue Wave"},
			},
		}})
	}
}

func (m *mock) listdev(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"lists": map[string]any{"hotels": map[string]any{"hotel": []any{
		map[string]any{"id": 501, "name": "Coral Beach Resort"},
		map[string]any{"id": 502, "name": "Sunrise Palace"},
		map[string]any{"id": 503, "name": "Laguna Vista"},
	}}}})
}

func listHandler(key string, items []map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{key: items})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

var countries = []map[string]any{
	{"id": 1, "name": "Египет"},
	{"id": 4, "name": "Турция"},
	{"id": 9, "name": "ОАЭ"},
	{"id": 2, "name": "Таиланд"},
}

var departures = []map[string]any{
	{"id": 1, "name": "Москва"},
	{"id": 5, "name": "Санкт-Петербург"},
	{"id": 10, "name": "Казань"},
}

var meals = []map[string]any{
	{"id": 2, "name": "BB"},
	{"id": 3, "name": "HB"},
	{"id": 4, "name": "AI"},
}

var rooms = []map[string]any{
	{"id": 1, "name": "Suite"},
	{"id": 2, "name": "Standard"},
}

var operators = []map[string]any{
	{"id": 16, "name": "Sunny Tour"},
	{"id": 9, "name": "Blue Wave"},
}

var hotels = []map[string]any{
	{"id": 501, "name": "Coral Beach Resort"},
	{"id": 502, "name": "Sunrise Palace"},
}
