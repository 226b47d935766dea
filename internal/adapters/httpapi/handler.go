package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atvirokodosprendimai/gaasapi/internal/core/domain"
	"github.com/atvirokodosprendimai/gaasapi/internal/core/usecase"
)

type ctxKey string

const (
	timeFormat             = "2006-01-02T15:04:05.999999999Z07:00"
	tenantIDCtxKey  ctxKey = "tenant_id"
	apiActorCtxKey  ctxKey = "api_actor"
	maxJSONBodySize        = 1 << 20
)

type Handler struct {
	schemaService       *usecase.SchemaService
	graphService        *usecase.GraphService
	collaboratorService *usecase.CollaboratorService
	authService         *usecase.AuthService
	logger              *zap.Logger
}

func NewHandler(
	schemaService *usecase.SchemaService,
	graphService *usecase.GraphService,
	collaboratorService *usecase.CollaboratorService,
	authService *usecase.AuthService,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		schemaService:       schemaService,
		graphService:        graphService,
		collaboratorService: collaboratorService,
		authService:         authService,
		logger:              logger.Named("http"),
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.healthz)
	r.Get("/openapi.json", h.openapi)

	r.Group(func(pr chi.Router) {
		pr.Use(h.requireAPIKey)
		pr.Post("/v1/schemas/{kind}:validate", h.validateSchema)

		pr.Get("/v1/graphs", h.listGraphs)
		pr.Post("/v1/graphs", h.createGraph)
		pr.Get("/v1/graphs/{graphId}", h.getGraph)
		pr.Delete("/v1/graphs/{graphId}", h.deleteGraph)

		pr.Get("/v1/graphs/{graphId}/collaborators", h.listCollaborators)
		pr.Post("/v1/graphs/{graphId}/collaborators", h.addCollaborator)
		pr.Delete("/v1/graphs/{graphId}/collaborators/{username}", h.removeCollaborator)
	})

	return r
}

type validationResponse struct {
	Valid   bool     `json:"valid"`
	Errors  []string `json:"errors"`
	Message string   `json:"message"`
}

type schemaResponse struct {
	Elements json.RawMessage `json:"elements"`
	Types    json.RawMessage `json:"types"`
}

type graphResponse struct {
	GraphID     string         `json:"graphId"`
	Description string         `json:"description"`
	Owner       string         `json:"owner"`
	Status      string         `json:"status"`
	Schema      schemaResponse `json:"schema"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}

type collaboratorRequest struct {
	Username string `json:"username"`
}

type collaboratorResponse struct {
	GraphID   string `json:"graphId"`
	Username  string `json:"username"`
	AddedBy   string `json:"added_by"`
	CreatedAt string `json:"created_at"`
}

// validateSchema runs one validator over the raw request body. An invalid
// schema is still a 200: the verdict is the response.
func (h *Handler) validateSchema(w http.ResponseWriter, r *http.Request) {
	kind := usecase.SchemaKind(chi.URLParam(r, "kind"))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBodySize))
	if err != nil {
		h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	n, err := h.schemaService.Validate(kind, string(body))
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	messages := n.Messages()
	if messages == nil {
		messages = []string{}
	}
	h.writeJSON(w, http.StatusOK, validationResponse{
		Valid:   n.IsEmpty(),
		Errors:  messages,
		Message: n.ErrorMessage(),
	})
}

func (h *Handler) createGraph(w http.ResponseWriter, r *http.Request) {
	tenantID := tenantIDFromContext(r.Context())
	actor := actorFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	decoder := json.NewDecoder(r.Body)
	var body json.RawMessage
	if err := decoder.Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := ensureEOF(decoder); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	req, err := h.schemaService.DecodeCreateGraphRequest(body)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	graph, err := h.graphService.Create(r.Context(), tenantID, req, actor)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toGraphResponse(graph))
}

func (h *Handler) getGraph(w http.ResponseWriter, r *http.Request) {
	graph, err := h.graphService.Get(r.Context(), tenantIDFromContext(r.Context()), chi.URLParam(r, "graphId"))
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toGraphResponse(graph))
}

func (h *Handler) listGraphs(w http.ResponseWriter, r *http.Request) {
	graphs, err := h.graphService.List(r.Context(), tenantIDFromContext(r.Context()))
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	result := make([]graphResponse, 0, len(graphs))
	for _, g := range graphs {
		result = append(result, toGraphResponse(g))
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func (h *Handler) deleteGraph(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphId")
	tenantID := tenantIDFromContext(r.Context())
	actor := actorFromContext(r.Context())

	deleted, err := h.graphService.Delete(r.Context(), tenantID, graphID, actor)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (h *Handler) addCollaborator(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphId")
	tenantID := tenantIDFromContext(r.Context())
	actor := actorFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	var req collaboratorRequest
	if err := decoder.Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := ensureEOF(decoder); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	c, err := h.collaboratorService.Add(r.Context(), tenantID, graphID, strings.TrimSpace(req.Username), actor)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toCollaboratorResponse(c))
}

func (h *Handler) listCollaborators(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphId")
	tenantID := tenantIDFromContext(r.Context())

	collaborators, err := h.collaboratorService.List(r.Context(), tenantID, graphID)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	result := make([]collaboratorResponse, 0, len(collaborators))
	for _, c := range collaborators {
		result = append(result, toCollaboratorResponse(c))
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func (h *Handler) removeCollaborator(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphId")
	username := chi.URLParam(r, "username")
	tenantID := tenantIDFromContext(r.Context())
	actor := actorFromContext(r.Context())

	removed, err := h.collaboratorService.Remove(r.Context(), tenantID, graphID, username, actor)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"deleted": removed})
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) openapi(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, openapiSpec())
}

func (h *Handler) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get("X-API-Key"))
		if token == "" {
			auth := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				token = strings.TrimSpace(auth[7:])
			}
		}

		apiKey, err := h.authService.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				h.writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			h.logger.Error("authenticate", zap.Error(err))
			h.writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		ctx := context.WithValue(r.Context(), tenantIDCtxKey, apiKey.TenantID)
		ctx = context.WithValue(ctx, apiActorCtxKey, apiKey.Name)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func toGraphResponse(g domain.Graph) graphResponse {
	return graphResponse{
		GraphID:     g.GraphID,
		Description: g.Description,
		Owner:       g.Owner,
		Status:      string(g.Status),
		Schema: schemaResponse{
			Elements: rawOrNull(g.Schema.Elements),
			Types:    rawOrNull(g.Schema.Types),
		},
		CreatedAt: g.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt: g.UpdatedAt.UTC().Format(timeFormat),
	}
}

func toCollaboratorResponse(c domain.Collaborator) collaboratorResponse {
	return collaboratorResponse{
		GraphID:   c.GraphID,
		Username:  c.Username,
		AddedBy:   c.AddedBy,
		CreatedAt: c.CreatedAt.UTC().Format(timeFormat),
	}
}

// rawOrNull keeps json.Marshal from failing on an empty RawMessage.
func rawOrNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		h.logger.Error("encode json response", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		h.logger.Warn("write response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]any{"error": message})
}

func (h *Handler) handleDomainError(w http.ResponseWriter, err error) {
	var violation *domain.ErrSchemaViolation
	switch {
	case errors.As(err, &violation):
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "schema validation failed",
			"errors": violation.Errors,
		})
	case errors.Is(err, domain.ErrInvalidGraphID),
		errors.Is(err, domain.ErrInvalidUsername),
		errors.Is(err, domain.ErrInvalidTenant):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, usecase.ErrUnknownSchemaKind), errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		h.writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("request failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func ensureEOF(decoder *json.Decoder) error {
	var extra json.RawMessage
	if err := decoder.Decode(&extra); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return errors.New("extra json tokens")
}

func tenantIDFromContext(ctx context.Context) string {
	tenant, _ := ctx.Value(tenantIDCtxKey).(string)
	return tenant
}

func actorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(apiActorCtxKey).(string)
	return actor
}

func openapiSpec() map[string]any {
	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "gaasapi",
			"version": "1.0.0",
		},
		"paths": map[string]any{
			"/v1/schemas/{kind}:validate": map[string]any{
				"post": map[string]any{"summary": "Validate an elements, entities, edges or types schema"},
			},
			"/v1/graphs": map[string]any{
				"get":  map[string]any{"summary": "List graphs"},
				"post": map[string]any{"summary": "Create graph"},
			},
			"/v1/graphs/{graphId}": map[string]any{
				"get":    map[string]any{"summary": "Get graph"},
				"delete": map[string]any{"summary": "Delete graph"},
			},
			"/v1/graphs/{graphId}/collaborators": map[string]any{
				"get":  map[string]any{"summary": "List collaborators"},
				"post": map[string]any{"summary": "Add collaborator"},
			},
			"/v1/graphs/{graphId}/collaborators/{username}": map[string]any{
				"delete": map[string]any{"summary": "Remove collaborator"},
			},
		},
	}
}
