package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"realestate_crm_backend/internal/leads/repository"
	"realestate_crm_backend/internal/leads/scoring"
	"realestate_crm_backend/internal/leads/service"
	"realestate_crm_backend/internal/leads/transport"
	"realestate_crm_backend/internal/properties"
	"realestate_crm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func newTestRouter(t *testing.T, agentID uuid.UUID) (*gin.Engine, *repository.MemoryRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemory()
	engine, err := scoring.NewEngine(scoring.DefaultWeights, scoring.FourTierScheme, nil)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	snapshot := &properties.StaticProvider{Entries: []properties.SnapshotEntry{
		{ID: uuid.New(), Price: 4_800_000, Location: "Baner, Pune", PropertyType: "apartment", Status: "active"},
		{ID: uuid.New(), Price: 9_000_000, Location: "Koregaon Park, Pune", PropertyType: "villa", Status: "active"},
	}}
	svc := service.New(repo, engine, snapshot, nil, nil)

	router := gin.New()
	// Stand-in for the JWT middleware: inject the authenticated agent.
	router.Use(func(c *gin.Context) {
		c.Set(httpkit.ContextAgentIDKey, agentID)
		c.Next()
	})
	New(svc).RegisterRoutes(router.Group("/api/v1/leads"))
	return router, repo
}

func performJSON(t *testing.T, router *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeLead(t *testing.T, rec *httptest.ResponseRecorder) transport.LeadResponse {
	t.Helper()
	var lead transport.LeadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &lead); err != nil {
		t.Fatalf("decode lead: %v (body %s)", err, rec.Body.String())
	}
	return lead
}

func validCreatePayload() map[string]interface{} {
	return map[string]interface{}{
		"name":    "Asha Deshmukh",
		"email":   "asha@example.com",
		"phone":   "+919876543210",
		"budget":  5_000_000,
		"urgency": "high",
		"source":  "website",
	}
}

func TestCreateLeadEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, uuid.New())

	rec := performJSON(t, router, http.MethodPost, "/api/v1/leads", validCreatePayload())
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	lead := decodeLead(t, rec)
	if lead.ID == uuid.Nil {
		t.Fatal("expected lead id in response")
	}
	if lead.Status != transport.LeadStatusNew {
		t.Fatalf("expected status new, got %s", lead.Status)
	}
	if len(lead.Scoring.ScoreBreakdown) != 6 {
		t.Fatalf("expected full score breakdown, got %v", lead.Scoring.ScoreBreakdown)
	}
}

func TestCreateLeadValidation(t *testing.T) {
	router, _ := newTestRouter(t, uuid.New())

	payload := validCreatePayload()
	delete(payload, "email")
	rec := performJSON(t, router, http.MethodPost, "/api/v1/leads", payload)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing email, got %d", rec.Code)
	}

	payload = validCreatePayload()
	payload["urgency"] = "panic"
	rec = performJSON(t, router, http.MethodPost, "/api/v1/leads", payload)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid urgency, got %d", rec.Code)
	}

	payload = validCreatePayload()
	payload["budget"] = -5
	rec = performJSON(t, router, http.MethodPost, "/api/v1/leads", payload)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative budget, got %d", rec.Code)
	}
}

func TestGetLeadEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, uuid.New())

	created := decodeLead(t, performJSON(t, router, http.MethodPost, "/api/v1/leads", validCreatePayload()))

	rec := performJSON(t, router, http.MethodGet, "/api/v1/leads/"+created.ID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decodeLead(t, rec); got.ID != created.ID {
		t.Fatalf("expected lead %s, got %s", created.ID, got.ID)
	}

	rec = performJSON(t, router, http.MethodGet, "/api/v1/leads/"+uuid.New().String(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown lead, got %d", rec.Code)
	}

	rec = performJSON(t, router, http.MethodGet, "/api/v1/leads/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", rec.Code)
	}
}

func TestUpdateStatusEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, uuid.New())
	created := decodeLead(t, performJSON(t, router, http.MethodPost, "/api/v1/leads", validCreatePayload()))

	rec := performJSON(t, router, http.MethodPatch, "/api/v1/leads/"+created.ID.String()+"/status", map[string]interface{}{
		"status":          "converted",
		"conversionValue": 4_950_000,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeLead(t, rec); got.Status != transport.LeadStatusConverted {
		t.Fatalf("expected converted, got %s", got.Status)
	}

	rec = performJSON(t, router, http.MethodPatch, "/api/v1/leads/"+created.ID.String()+"/status", map[string]interface{}{
		"status": "archived",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}
}

func TestRescoreEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, uuid.New())
	created := decodeLead(t, performJSON(t, router, http.MethodPost, "/api/v1/leads", validCreatePayload()))

	rec := performJSON(t, router, http.MethodPost, "/api/v1/leads/"+created.ID.String()+"/rescore", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rescored := decodeLead(t, rec)
	if rescored.Scoring.LastCalculated.Before(created.Scoring.LastCalculated) {
		t.Fatal("expected fresh calculation timestamp")
	}
}

func TestSearchEndpointPagination(t *testing.T) {
	router, _ := newTestRouter(t, uuid.New())
	for i := 0; i < 3; i++ {
		payload := validCreatePayload()
		payload["email"] = "lead" + string(rune('a'+i)) + "@example.com"
		if rec := performJSON(t, router, http.MethodPost, "/api/v1/leads", payload); rec.Code != http.StatusCreated {
			t.Fatalf("create %d: %d", i, rec.Code)
		}
	}

	rec := performJSON(t, router, http.MethodGet, "/api/v1/leads?page=1&perPage=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result transport.SearchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Total != 3 || len(result.Items) != 2 || result.TotalPages != 2 {
		t.Fatalf("unexpected pagination: total %d, items %d, pages %d", result.Total, len(result.Items), result.TotalPages)
	}
}

func TestActivityEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, uuid.New())
	created := decodeLead(t, performJSON(t, router, http.MethodPost, "/api/v1/leads", validCreatePayload()))

	rec := performJSON(t, router, http.MethodPost, "/api/v1/leads/"+created.ID.String()+"/contact", map[string]interface{}{
		"note": "Called about Baner listings",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("record contact: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = performJSON(t, router, http.MethodGet, "/api/v1/leads/"+created.ID.String()+"/activity", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var items []transport.ActivityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode activity: %v", err)
	}
	if len(items) < 2 {
		t.Fatalf("expected created and contact activities, got %v", items)
	}
}

func TestStatsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, uuid.New())
	if rec := performJSON(t, router, http.MethodPost, "/api/v1/leads", validCreatePayload()); rec.Code != http.StatusCreated {
		t.Fatalf("create: %d", rec.Code)
	}

	rec := performJSON(t, router, http.MethodGet, "/api/v1/leads/stats/dashboard", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var stats transport.StatsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalLeads != 1 {
		t.Fatalf("expected one lead, got %d", stats.TotalLeads)
	}
}
