package webapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/kiryu-dev/scoreboard-sync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type remote struct {
	mu   sync.Mutex
	body []byte
}

func (s *remote) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch r.Method {
	case http.MethodGet:
		if s.body == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(s.body)
	case http.MethodPost:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.body = body
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	srv := httptest.NewServer(&remote{})
	defer srv.Close()
	repo := New(srv.URL+"/scoreboard", time.Second)
	ctx := context.Background()

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "404 means nothing stored")

	board := domain.Scoreboard{GameTitle: "spring", OutCnt: 2, ThirdBase: true}
	require.NoError(t, repo.Save(ctx, board))

	got, err = repo.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, board, *got)
}

func TestRepositoryUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	repo := New(srv.URL, time.Second)

	_, err := repo.Load(context.Background())
	assert.Error(t, err)
	assert.Error(t, repo.Save(context.Background(), domain.Scoreboard{}))
}
