package catalog

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/weva-assistant/internal/domain"
	apperrors "github.com/Proton-105/weva-assistant/internal/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingObserver struct {
	mu      sync.Mutex
	samples []string
}

func (o *recordingObserver) ObserveCatalogRequest(endpoint, outcome string, _ float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.samples = append(o.samples, endpoint+":"+outcome)
}

func newTestClient(t *testing.T, handler http.Handler, cfg Config) *Client {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	cfg.BaseURL = ts.URL
	return NewClient(cfg, nil, testLogger())
}

func catalogMux(t *testing.T) *http.ServeMux {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/section", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ar", r.Header.Get("Requestlocale"))
		_, _ = io.WriteString(w, `[{"id":1,"name":"Spa"},{"id":"2","name":"Empty"},{"id":3,"name":"Missing"},{"id":4,"name":"Salon"}]`)
	})
	mux.HandleFunc("/home/1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ar", r.Header.Get("Requestlocale"))
		_, _ = io.WriteString(w, `{"stores":[{"id":10,"name":"Sea Spa"}]}`)
	})
	mux.HandleFunc("/home/2", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"stores":[]}`)
	})
	mux.HandleFunc("/home/3", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"banner":"x"}`)
	})
	mux.HandleFunc("/home/4", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"stores":[{"id":40,"name":"Cut"},{"id":41,"name":"Curl"}]}`)
	})
	return mux
}

func TestListCategoriesDropsEmpty(t *testing.T) {
	client := newTestClient(t, catalogMux(t), Config{ProbeConcurrency: 2})

	categories, err := client.ListCategories(context.Background(), domain.LocaleArabic)
	require.NoError(t, err)

	assert.Equal(t, []domain.Category{
		{ID: "1", Name: "Spa"},
		{ID: "4", Name: "Salon"},
	}, categories)
}

func TestListCategoriesProbeFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/section", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"id":1,"name":"Spa"},{"id":2,"name":"Broken"}]`)
	})
	mux.HandleFunc("/home/1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"stores":[{"id":10,"name":"Sea Spa"}]}`)
	})
	mux.HandleFunc("/home/2", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	client := newTestClient(t, mux, Config{})

	_, err := client.ListCategories(context.Background(), domain.LocaleEnglish)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeCatalogUnavailable))
}

func TestFetchCategoryDetailNormalizesStores(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/home/7", r.URL.Path)
		_, _ = io.WriteString(w, `{"stores":[
			{"id":10,"name":"Rated","image":"https://img/10.png","review":{"rating":4.5,"count":12}},
			{"id":"11","name":"Legacy","review":{"ratinng":3}},
			{"id":12,"name":"Unrated","review":null},
			{"id":13,"name":"No review"}
		]}`)
	})
	client := newTestClient(t, handler, Config{})

	detail, err := client.FetchCategoryDetail(context.Background(), "7", domain.LocaleEnglish)
	require.NoError(t, err)

	assert.Equal(t, []domain.Store{
		{ID: "10", Name: "Rated", Image: "https://img/10.png", Rating: 4.5, ReviewCount: 12},
		{ID: "11", Name: "Legacy", Rating: 3},
		{ID: "12", Name: "Unrated"},
		{ID: "13", Name: "No review"},
	}, detail.Stores)
}

func TestFetchServicesForDepartment(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/center/10", r.URL.Path)
		_, _ = io.WriteString(w, `{
			"departments":[{"id":20,"name":"Massage"},{"id":21,"name":"Facial"}],
			"services":[
				{"id":30,"name":"Hot stone","price":300,"duration":"60 min","department_ids":[20]},
				{"id":31,"name":"Glow","price":"150","duration":45,"department_ids":[21]},
				{"id":32,"name":"Combo","department_ids":["20","21"]}
			]
		}`)
	})
	client := newTestClient(t, handler, Config{})

	detail, err := client.FetchCenterDetail(context.Background(), "10", domain.LocaleEnglish)
	require.NoError(t, err)
	assert.Len(t, detail.Departments, 2)
	assert.Len(t, detail.Services, 3)

	services, err := client.FetchServicesForDepartment(context.Background(), "10", "20", domain.LocaleEnglish)
	require.NoError(t, err)
	require.Len(t, services, 2)
	assert.Equal(t, domain.ID("30"), services[0].ID)
	assert.Equal(t, domain.Label("300"), services[0].Price)
	assert.Equal(t, domain.Label("60 min"), services[0].Duration)
	assert.Equal(t, domain.ID("32"), services[1].ID)
}

func TestClientFailuresAreCatalogUnavailable(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non 2xx",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", http.StatusBadGateway)
			},
		},
		{
			name: "malformed payload",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"stores":`)
			},
		},
		{
			name: "wrong shape",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"stores":"many"}`)
			},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, tc.handler, Config{})

			_, err := client.FetchCategoryDetail(context.Background(), "1", domain.LocaleEnglish)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeCatalogUnavailable))
		})
	}
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	client := newTestClient(t, handler, Config{})
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.FetchCenterDetail(ctx, "1", domain.LocaleEnglish)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeCatalogUnavailable))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClientCircuitOpens(t *testing.T) {
	var hits atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	observer := &recordingObserver{}
	client := NewClient(Config{
		BaseURL: ts.URL,
		Breaker: apperrors.BreakerConfig{MinRequests: 2, OpenTimeout: time.Hour},
	}, observer, testLogger())

	for i := 0; i < 3; i++ {
		_, err := client.FetchCenterDetail(context.Background(), "1", domain.LocaleEnglish)
		require.Error(t, err)
	}

	assert.Equal(t, int32(2), hits.Load())

	_, err := client.FetchCenterDetail(context.Background(), "1", domain.LocaleEnglish)
	assert.ErrorIs(t, err, apperrors.ErrCircuitOpen)
	assert.Equal(t, []string{"center:error", "center:error", "center:circuit_open", "center:circuit_open"}, observer.samples)
}
