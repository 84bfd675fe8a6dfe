package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tush00nka/filehub/internal/testutil"
	"tush00nka/filehub/internal/ws"
)

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		dbErr      error
		storageErr error
		wantStatus int
		want       HealthResponse
	}{
		{
			name:       "all up",
			wantStatus: http.StatusOK,
			want:       HealthResponse{Status: "ok", Database: "up", Storage: "up"},
		},
		{
			name:       "database down",
			dbErr:      testutil.ErrBoom,
			wantStatus: http.StatusServiceUnavailable,
			want:       HealthResponse{Status: "degraded", Database: "down", Storage: "up"},
		},
		{
			name:       "storage down",
			storageErr: testutil.ErrBoom,
			wantStatus: http.StatusServiceUnavailable,
			want:       HealthResponse{Status: "degraded", Database: "up", Storage: "down"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := testutil.NewStorage()
			st.HealthErr = tt.storageErr

			router := mux.NewRouter()
			NewHealthHandler(fakePinger{err: tt.dbErr}, st, ws.NewHub(), testutil.DiscardLogger()).RegisterRoutes(router)

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			var got HealthResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}
