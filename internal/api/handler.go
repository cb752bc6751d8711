package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/RedouaeElalami/chutney/internal/action"
	"github.com/RedouaeElalami/chutney/internal/dataset"
	"github.com/RedouaeElalami/chutney/internal/engine"
	"github.com/RedouaeElalami/chutney/internal/environment"
	"github.com/RedouaeElalami/chutney/internal/history"
)

const overloadThreshold = 0.8

type invoker interface {
	RunSync(ctx context.Context, inv engine.Invocation) (*engine.Report, error)
	RunAsync(inv engine.Invocation) (string, error)
	QueueUtilization() float64
}

type historyService interface {
	GetExecutions(ctx context.Context, scenarioID string) ([]history.Summary, error)
	GetExecutionSummary(ctx context.Context, id int64) (history.Summary, error)
	GetExecution(ctx context.Context, scenarioID string, id int64) (history.Execution, error)
	DeleteExecutions(ctx context.Context, ids []int64) error
}

type environmentService interface {
	CreateEnvironment(ctx context.Context, env environment.Environment, force bool) (environment.Environment, error)
	UpdateEnvironment(ctx context.Context, oldName string, env environment.Environment) (environment.Environment, error)
	GetEnvironment(ctx context.Context, name string) (environment.Environment, error)
	ListEnvironments(ctx context.Context) ([]environment.Environment, error)
	DeleteEnvironment(ctx context.Context, name string) error
}

type datasetService interface {
	Save(ctx context.Context, ds dataset.DataSet) (string, error)
	FindByID(ctx context.Context, id string) (dataset.DataSet, error)
	RemoveByID(ctx context.Context, id string) error
	FindAll(ctx context.Context) ([]dataset.DataSet, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the HTTP layer delegates to. Authorization is
// enforced in front of this handler.
type Deps struct {
	Engine       invoker
	History      historyService
	Environments environmentService
	Datasets     datasetService
	DB           pinger
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	Deps
	log *slog.Logger
	mux *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(log *slog.Logger, deps Deps) http.Handler {
	h := &Handler{Deps: deps, log: log.With("service", "api"), mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/actions/{type}", h.runAction)

	h.mux.HandleFunc("GET /v1/scenarios/{scenarioId}/executions", h.listExecutions)
	h.mux.HandleFunc("GET /v1/scenarios/{scenarioId}/executions/{executionId}", h.getExecution)
	h.mux.HandleFunc("GET /v1/executions/{executionId}/summary", h.getExecutionSummary)
	h.mux.HandleFunc("DELETE /v1/executions/{executionId}", h.deleteExecution)
	h.mux.HandleFunc("POST /v1/executions/delete", h.deleteExecutions)

	h.mux.HandleFunc("GET /v1/environments", h.listEnvironments)
	h.mux.HandleFunc("POST /v1/environments", h.createEnvironment)
	h.mux.HandleFunc("GET /v1/environments/{name}", h.getEnvironment)
	h.mux.HandleFunc("PUT /v1/environments/{name}", h.updateEnvironment)
	h.mux.HandleFunc("DELETE /v1/environments/{name}", h.deleteEnvironment)

	h.mux.HandleFunc("GET /v1/datasets", h.listDatasets)
	h.mux.HandleFunc("POST /v1/datasets", h.saveDataset)
	h.mux.HandleFunc("GET /v1/datasets/{id}", h.getDataset)
	h.mux.HandleFunc("DELETE /v1/datasets/{id}", h.deleteDataset)

	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.log, h.mux)
}

type runActionRequest struct {
	Environment string        `json:"environment"`
	Target      string        `json:"target"`
	ScenarioID  string        `json:"scenario_id"`
	DatasetID   string        `json:"dataset_id"`
	User        string        `json:"user"`
	Inputs      action.Inputs `json:"inputs"`
}

// POST /v1/actions/{type}: run one action; ?async=true queues it instead.
func (h *Handler) runAction(w http.ResponseWriter, r *http.Request) {
	var req runActionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Invocation ids are always server-assigned; the request id only
	// correlates log lines.
	inv := engine.Invocation{
		ID:          uuid.NewString(),
		ActionType:  r.PathValue("type"),
		Environment: req.Environment,
		Target:      req.Target,
		ScenarioID:  req.ScenarioID,
		DatasetID:   req.DatasetID,
		User:        req.User,
		Inputs:      req.Inputs,
	}
	h.log.InfoContext(r.Context(), "invocation accepted",
		slog.String("request_id", RequestIDFromCtx(r.Context())),
		slog.String("invocation_id", inv.ID),
		slog.String("action", inv.ActionType),
	)

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		id, err := h.Engine.RunAsync(inv)
		if err != nil {
			writeServiceError(w, r, h.log, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"invocation_id": id})
		return
	}

	rep, err := h.Engine.RunSync(r.Context(), inv)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz: 503 if the invocation queue is >80% full or the database is unreachable.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.Engine.QueueUtilization()
	if h.DB != nil {
		if err := h.DB.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "database unavailable",
				"error":  err.Error(),
			})
			return
		}
	}
	if util > overloadThreshold {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ready",
		"queue_utilization": util,
	})
}
