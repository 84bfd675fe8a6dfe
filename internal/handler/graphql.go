package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/graphql-go/graphql"

	"tush00nka/filehub/internal/graph"
	"tush00nka/filehub/internal/pkg/auth"
	"tush00nka/filehub/internal/pkg/httputils"
)

type Executor interface {
	Execute(ctx context.Context, req graph.Request) *graphql.Result
}

type GraphQLHandler struct {
	exec   Executor
	ws     http.Handler
	limits UploadLimits
	log    *slog.Logger
}

// NewGraphQLHandler serves queries and mutations over POST and hands
// websocket upgrades on the same path to ws.
func NewGraphQLHandler(exec Executor, ws http.Handler, limits UploadLimits, log *slog.Logger) *GraphQLHandler {
	return &GraphQLHandler{exec: exec, ws: ws, limits: limits, log: log}
}

func (h *GraphQLHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/graphql", h.serveGraphQL).Methods("GET", "POST", "OPTIONS")
}

// @Summary GraphQL endpoint
// @Description Executes a GraphQL query or mutation. File uploads use multipart/form-data
// @Description with "operations" and "map" fields. Subscriptions upgrade a GET request
// @Description to a graphql-transport-ws websocket.
// @Tags graphql
// @Accept json,mpfd
// @Produce json
// @Param Authorization header string false "Bearer access token"
// @Param request body graph.Request true "GraphQL request"
// @Success 200 {object} GraphQLResponse
// @Failure 400 {object} httputils.ErrorResponse
// @Failure 413 {object} httputils.ErrorResponse
// @Failure 415 {object} httputils.ErrorResponse
// @Router /graphql [post]
func (h *GraphQLHandler) serveGraphQL(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method == http.MethodGet {
		if websocket.IsWebSocketUpgrade(r) && h.ws != nil {
			h.ws.ServeHTTP(w, r)
			return
		}
		httputils.ResponseError(w, r, http.StatusBadRequest, "GET requests must upgrade to a WebSocket")
		return
	}

	req, cleanup, err := h.decode(w, r)
	defer cleanup()
	if err != nil {
		var reqErr *requestError
		if errors.As(err, &reqErr) {
			httputils.ResponseError(w, r, reqErr.status, reqErr.message)
			return
		}
		h.log.ErrorContext(r.Context(), "failed to read graphql request", "err", err)
		httputils.ResponseError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	if req.Query == "" {
		httputils.ResponseError(w, r, http.StatusBadRequest, "Missing query")
		return
	}

	ctx := graph.WithToken(r.Context(), auth.BearerToken(r.Header.Get("Authorization")))
	res := h.exec.Execute(ctx, req)

	status := http.StatusOK
	if res.Data == nil && isValidationFailure(res) {
		status = http.StatusBadRequest
	}
	httputils.ResponseJSON(w, status, res)
}

func (h *GraphQLHandler) decode(w http.ResponseWriter, r *http.Request) (graph.Request, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json", "application/graphql-response+json":
		var req graph.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, func() {}, badRequest("Invalid request format")
		}
		return req, func() {}, nil
	case "multipart/form-data":
		return parseMultipartRequest(w, r, h.limits)
	default:
		return graph.Request{}, func() {}, &requestError{
			status:  http.StatusUnsupportedMediaType,
			message: "Content-Type must be application/json or multipart/form-data",
		}
	}
}

func isValidationFailure(res *graphql.Result) bool {
	for _, e := range res.Errors {
		if e.Extensions["code"] == graph.CodeValidationFailed {
			return true
		}
	}
	return false
}

// GraphQLResponse documents the response envelope.
type GraphQLResponse struct {
	Data   map[string]any   `json:"data,omitempty"`
	Errors []map[string]any `json:"errors,omitempty"`
}
