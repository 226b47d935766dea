package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/atvirokodosprendimai/gaasapi/internal/core/domain"
	"github.com/atvirokodosprendimai/gaasapi/internal/core/usecase"
)

const (
	testAPIKey = "test-api-key"

	testElements = `{"entities":{"Cardinality":{"description":"d","vertex":"anyVertex","properties":{"count":"count.long"},"groupBy":[]}}}`
	testTypes    = `{"count.long":{"class":"java.lang.Long"}}`
)

type stubGraphStore struct {
	graphs map[string]domain.Graph
	getErr error
}

func newStubGraphStore() *stubGraphStore {
	return &stubGraphStore{graphs: make(map[string]domain.Graph)}
}

func (s *stubGraphStore) CreateWithEvent(_ context.Context, graph domain.Graph, _ string) (domain.Graph, error) {
	if _, ok := s.graphs[graph.GraphID]; ok {
		return domain.Graph{}, domain.ErrAlreadyExists
	}
	now := time.Now().UTC()
	graph.CreatedAt = now
	graph.UpdatedAt = now
	s.graphs[graph.GraphID] = graph
	return graph, nil
}

func (s *stubGraphStore) DeleteWithEvent(_ context.Context, owner, graphID, _ string) (bool, error) {
	g, ok := s.graphs[graphID]
	if !ok || g.Owner != owner {
		return false, nil
	}
	delete(s.graphs, graphID)
	return true, nil
}

func (s *stubGraphStore) Get(_ context.Context, owner, graphID string) (domain.Graph, error) {
	if s.getErr != nil {
		return domain.Graph{}, s.getErr
	}
	g, ok := s.graphs[graphID]
	if !ok || g.Owner != owner {
		return domain.Graph{}, domain.ErrNotFound
	}
	return g, nil
}

func (s *stubGraphStore) List(_ context.Context, owner string) ([]domain.Graph, error) {
	var out []domain.Graph
	for _, g := range s.graphs {
		if g.Owner == owner {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GraphID < out[j].GraphID })
	return out, nil
}

type stubCollaboratorStore struct {
	items []domain.Collaborator
}

func (s *stubCollaboratorStore) AddWithEvent(_ context.Context, _ string, c domain.Collaborator) (domain.Collaborator, error) {
	for _, existing := range s.items {
		if existing.GraphID == c.GraphID && existing.Username == c.Username {
			return domain.Collaborator{}, domain.ErrAlreadyExists
		}
	}
	c.CreatedAt = time.Now().UTC()
	s.items = append(s.items, c)
	return c, nil
}

func (s *stubCollaboratorStore) RemoveWithEvent(_ context.Context, _, graphID, username, _ string) (bool, error) {
	for i, c := range s.items {
		if c.GraphID == graphID && c.Username == username {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *stubCollaboratorStore) List(_ context.Context, graphID string) ([]domain.Collaborator, error) {
	var out []domain.Collaborator
	for _, c := range s.items {
		if c.GraphID == graphID {
			out = append(out, c)
		}
	}
	return out, nil
}

type stubAPIKeyRepo struct {
	err error
}

func (s *stubAPIKeyRepo) FindByTokenHash(_ context.Context, hash string) (domain.APIKey, error) {
	if s.err != nil {
		return domain.APIKey{}, s.err
	}
	if hash != usecase.HashToken(testAPIKey) {
		return domain.APIKey{}, domain.ErrNotFound
	}
	return domain.APIKey{TokenHash: hash, TenantID: "tenant-a", Name: "test-client", Active: true, CreatedAt: time.Now().UTC()}, nil
}

func (s *stubAPIKeyRepo) Upsert(context.Context, domain.APIKey) error { return nil }

type testEnv struct {
	graphs        *stubGraphStore
	collaborators *stubCollaboratorStore
	keys          *stubAPIKeyRepo
	router        http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	schemas, err := usecase.NewSchemaService()
	if err != nil {
		t.Fatalf("new schema service: %v", err)
	}
	env := &testEnv{
		graphs:        newStubGraphStore(),
		collaborators: &stubCollaboratorStore{},
		keys:          &stubAPIKeyRepo{},
	}
	env.router = NewHandler(
		schemas,
		usecase.NewGraphService(env.graphs, schemas),
		usecase.NewCollaboratorService(env.graphs, env.collaborators),
		usecase.NewAuthService(env.keys),
		nil,
	).Router()
	return env
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func createGraphBody(id string) string {
	return `{"graphId":"` + id + `","description":"Road traffic","schema":{"elements":` + testElements + `,"types":` + testTypes + `}}`
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthzIsPublic(t *testing.T) {
	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestOpenAPIListsGraphRoutes(t *testing.T) {
	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var doc struct {
		Paths map[string]any `json:"paths"`
	}
	decodeBody(t, rec, &doc)
	if _, ok := doc.Paths["/v1/graphs/{graphId}"]; !ok {
		t.Fatalf("missing graph path in %v", doc.Paths)
	}
}

func TestProtectedRouteWithoutAuth(t *testing.T) {
	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/graphs", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestBearerTokenIsAccepted(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/graphs", nil)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthRepositoryFailureIs500(t *testing.T) {
	env := newTestEnv(t)
	env.keys.err = errors.New("db down")
	rec := env.do(http.MethodGet, "/v1/graphs", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestCreateGetListDeleteGraph(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/v1/graphs", createGraphBody("roadtraffic"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created graphResponse
	decodeBody(t, rec, &created)
	if created.GraphID != "roadtraffic" || created.Owner != "tenant-a" || created.Status != "DEPLOYED" {
		t.Fatalf("unexpected graph: %+v", created)
	}

	rec = env.do(http.MethodPost, "/v1/graphs", createGraphBody("roadtraffic"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate, got %d", rec.Code)
	}

	rec = env.do(http.MethodGet, "/v1/graphs/roadtraffic", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got graphResponse
	decodeBody(t, rec, &got)
	if string(got.Schema.Types) != testTypes {
		t.Fatalf("unexpected types: %s", got.Schema.Types)
	}

	rec = env.do(http.MethodGet, "/v1/graphs", "")
	var list struct {
		Items []graphResponse `json:"items"`
	}
	decodeBody(t, rec, &list)
	if len(list.Items) != 1 {
		t.Fatalf("expected one graph, got %+v", list.Items)
	}

	rec = env.do(http.MethodDelete, "/v1/graphs/roadtraffic", "")
	var deleted map[string]bool
	decodeBody(t, rec, &deleted)
	if rec.Code != http.StatusOK || !deleted["deleted"] {
		t.Fatalf("expected deletion, got %d %v", rec.Code, deleted)
	}

	rec = env.do(http.MethodGet, "/v1/graphs/roadtraffic", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestCreateGraphSchemaViolationIs422(t *testing.T) {
	env := newTestEnv(t)
	body := `{"graphId":"roadtraffic","schema":{"elements":{"entities":{"E":{"vertex":"v"}}},"types":{"t":{"class":1}}}}`

	rec := env.do(http.MethodPost, "/v1/graphs", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Errors []string `json:"errors"`
	}
	decodeBody(t, rec, &resp)
	want := []string{
		`E entity is missing ["description", "properties", "groupBy"]`,
		"class in t type is a number, it needs to be a string",
	}
	if len(resp.Errors) != len(want) || resp.Errors[0] != want[0] || resp.Errors[1] != want[1] {
		t.Fatalf("unexpected errors: %v", resp.Errors)
	}
	if len(env.graphs.graphs) != 0 {
		t.Fatal("rejected graph must not be stored")
	}
}

func TestCreateGraphEnvelopeErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "not json", body: `{`, want: http.StatusBadRequest},
		{name: "trailing tokens", body: `{"graphId":"a"} {}`, want: http.StatusBadRequest},
		{name: "missing id", body: `{"description":"x"}`, want: http.StatusUnprocessableEntity},
		{name: "unknown field", body: `{"graphId":"a","owner":"x"}`, want: http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/v1/graphs", tt.body)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestGetGraphInvalidIDIs400(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/v1/graphs/Bad-ID", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetGraphStoreFailureIs500(t *testing.T) {
	env := newTestEnv(t)
	env.graphs.getErr = errors.New("disk on fire")
	rec := env.do(http.MethodGet, "/v1/graphs/roadtraffic", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "disk on fire") {
		t.Fatalf("internal error leaked: %s", rec.Body.String())
	}
}

func TestCollaboratorRoutes(t *testing.T) {
	env := newTestEnv(t)
	if rec := env.do(http.MethodPost, "/v1/graphs", createGraphBody("roadtraffic")); rec.Code != http.StatusCreated {
		t.Fatalf("create graph: %d", rec.Code)
	}

	rec := env.do(http.MethodPost, "/v1/graphs/roadtraffic/collaborators", `{"username":"bob@example.com"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var added collaboratorResponse
	decodeBody(t, rec, &added)
	if added.Username != "bob@example.com" || added.AddedBy != "test-client" {
		t.Fatalf("unexpected collaborator: %+v", added)
	}

	rec = env.do(http.MethodPost, "/v1/graphs/roadtraffic/collaborators", `{"username":"bob@example.com"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	rec = env.do(http.MethodPost, "/v1/graphs/roadtraffic/collaborators", `{"username":"no spaces"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	rec = env.do(http.MethodPost, "/v1/graphs/missing/collaborators", `{"username":"bob"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown graph, got %d", rec.Code)
	}

	rec = env.do(http.MethodGet, "/v1/graphs/roadtraffic/collaborators", "")
	var list struct {
		Items []collaboratorResponse `json:"items"`
	}
	decodeBody(t, rec, &list)
	if len(list.Items) != 1 {
		t.Fatalf("expected one collaborator, got %+v", list.Items)
	}

	rec = env.do(http.MethodDelete, "/v1/graphs/roadtraffic/collaborators/bob@example.com", "")
	var removed map[string]bool
	decodeBody(t, rec, &removed)
	if rec.Code != http.StatusOK || !removed["deleted"] {
		t.Fatalf("expected removal, got %d %v", rec.Code, removed)
	}
}

func TestToGraphResponseRendersEmptySchemaAsNull(t *testing.T) {
	resp := toGraphResponse(domain.Graph{GraphID: "g"})
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"schema":{"elements":null,"types":null}`) {
		t.Fatalf("unexpected body: %s", data)
	}
}
