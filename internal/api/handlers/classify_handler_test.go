package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticket-triage/backend/internal/dataset"
	"github.com/ticket-triage/backend/internal/dispatch"
	"github.com/ticket-triage/backend/internal/routing"
	"github.com/ticket-triage/backend/internal/storage/sqlite"
	"github.com/ticket-triage/backend/internal/triage"
)

func newTestApp(t *testing.T, withModel bool) *fiber.App {
	t.Helper()

	router, err := routing.New(routing.Config{})
	require.NoError(t, err)

	db, err := sqlite.NewClient(filepath.Join(t.TempDir(), "triage.db"))
	require.NoError(t, err)
	require.NoError(t, db.InitSchema())
	t.Cleanup(func() { db.Close() })

	var pipeline *triage.Pipeline
	if withModel {
		pipeline, err = triage.Train(dataset.Generate(dataset.GeneratorConfig{}), 1000, "test")
		require.NoError(t, err)
	}

	service := triage.NewService(pipeline, router, dispatch.NewExecutor(db, nil, true), db, nil, nil, nil, triage.Config{})

	classifyHandler := NewClassifyHandler(service, 3)
	ticketHandler := NewTicketHandler(service)
	dashboardHandler := NewDashboardHandler(service)
	modelHandler := NewModelHandler(service)

	app := fiber.New()
	api := app.Group("/api/v1")
	api.Post("/classify", classifyHandler.HandleClassify)
	api.Post("/classify/smart", classifyHandler.HandleClassifySmart)
	api.Post("/classify/batch", classifyHandler.HandleClassifyBatch)
	api.Get("/tickets/:id", ticketHandler.HandleGetTicket)
	api.Get("/tickets/:id/similar", ticketHandler.HandleSimilarTickets)
	api.Get("/dashboard/stats", dashboardHandler.HandleStats)
	api.Get("/model", modelHandler.HandleModelInfo)
	api.Get("/health", modelHandler.HandleHealth)
	api.Get("/ready", modelHandler.HandleReady)

	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	return resp, decodeBody(t, resp)
}

func getJSON(t *testing.T, app *fiber.App, path string) (*http.Response, map[string]interface{}) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	return body
}

func TestHandleClassify(t *testing.T) {
	app := newTestApp(t, true)

	resp, body := postJSON(t, app, "/api/v1/classify", map[string]string{
		"subject":     "Payment issue",
		"description": "Double charge on my card",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Billing", body["category"])
	assert.GreaterOrEqual(t, body["confidence"].(float64), 0.85)
	assert.Contains(t, body["ticket_id"], "TICKET-")

	routed, ok := body["routing"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "auto_resolve", routed["action"])

	probs, ok := body["probabilities"].(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, probs, 5)
}

func TestHandleClassifyEmptyInput(t *testing.T) {
	app := newTestApp(t, true)

	resp, body := postJSON(t, app, "/api/v1/classify", map[string]string{
		"subject":     "",
		"description": "",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	routed, ok := body["routing"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "flag_for_review", routed["action"])
}

func TestHandleClassifyBadBody(t *testing.T) {
	app := newTestApp(t, true)

	req, err := http.NewRequest(http.MethodPost, "/api/v1/classify", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleClassifyWithoutModel(t *testing.T) {
	app := newTestApp(t, false)

	resp, body := postJSON(t, app, "/api/v1/classify", map[string]string{
		"subject":     "Login failed",
		"description": "Cannot access account",
	})

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "Model is not loaded", body["error"])
}

func TestHandleClassifySmart(t *testing.T) {
	app := newTestApp(t, true)

	resp, body := postJSON(t, app, "/api/v1/classify/smart", map[string]string{
		"subject":     "App crashes",
		"description": "Bug on startup screen",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bug", body["category"])

	analysis, ok := body["analysis"].(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, analysis["priority"])
	assert.NotEmpty(t, analysis["response_template"])
}

func TestHandleClassifyBatch(t *testing.T) {
	app := newTestApp(t, true)

	resp, body := postJSON(t, app, "/api/v1/classify/batch", map[string]interface{}{
		"tickets": []map[string]string{
			{"subject": "Payment issue", "description": "Double charge on my card"},
			{"subject": "Feature request", "description": "Please add CSV export"},
		},
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	summary, ok := body["summary"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), summary["count"])

	results, ok := body["results"].([]interface{})
	require.True(t, ok)
	assert.Len(t, results, 2)
}

func TestHandleClassifyBatchLimits(t *testing.T) {
	app := newTestApp(t, true)

	resp, _ := postJSON(t, app, "/api/v1/classify/batch", map[string]interface{}{
		"tickets": []map[string]string{},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	oversized := make([]map[string]string, 4)
	for i := range oversized {
		oversized[i] = map[string]string{"subject": "Payment issue", "description": "Double charge"}
	}
	resp, body := postJSON(t, app, "/api/v1/classify/batch", map[string]interface{}{
		"tickets": oversized,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, float64(3), body["max_size"])
}

func TestHandleGetTicket(t *testing.T) {
	app := newTestApp(t, true)

	_, created := postJSON(t, app, "/api/v1/classify", map[string]string{
		"subject":     "Server timeout",
		"description": "Technical issue connecting to API",
	})
	reference := created["ticket_id"].(string)

	resp, body := getJSON(t, app, "/api/v1/tickets/"+reference)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, reference, body["reference"])
	assert.Equal(t, "Technical", body["category"])

	resp, _ = getJSON(t, app, "/api/v1/tickets/TICKET-MISSING1")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleSimilarTicketsDisabled(t *testing.T) {
	app := newTestApp(t, true)

	_, created := postJSON(t, app, "/api/v1/classify", map[string]string{
		"subject":     "Login failed",
		"description": "Cannot access account with correct password",
	})
	reference := created["ticket_id"].(string)

	resp, _ := getJSON(t, app, "/api/v1/tickets/"+reference+"/similar")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHandleDashboardStats(t *testing.T) {
	app := newTestApp(t, true)

	postJSON(t, app, "/api/v1/classify", map[string]string{
		"subject":     "Payment issue",
		"description": "Double charge on my card",
	})

	resp, body := getJSON(t, app, "/api/v1/dashboard/stats")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["total_tickets"])
	assert.NotEmpty(t, body["system_health"])
}

func TestHandleModelAndHealth(t *testing.T) {
	app := newTestApp(t, true)

	resp, body := getJSON(t, app, "/api/v1/model")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["loaded"])
	assert.Equal(t, 0.85, body["auto_resolve_threshold"])

	resp, body = getJSON(t, app, "/api/v1/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])

	resp, _ = getJSON(t, app, "/api/v1/ready")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandleHealthWithoutModel(t *testing.T) {
	app := newTestApp(t, false)

	resp, body := getJSON(t, app, "/api/v1/health")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "degraded", body["status"])

	resp, _ = getJSON(t, app, "/api/v1/ready")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
