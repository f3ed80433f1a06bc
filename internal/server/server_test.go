package server

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/erpgenie-cli/internal/ai"
)

const salesTable = "| Month | Sales |\n|---|---|\n| Jan | $100 |\n| Feb | $250 |"

type fakeRuntime struct {
	reply string
	err   error
	got   ai.ChatRequest
}

func (f *fakeRuntime) Send(_ context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &ai.ChatResponse{Text: f.reply, RequestID: "exec_1"}, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) (APIResponse, map[string]any) {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, _ := resp.Data.(map[string]any)
	return resp, data
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	NewHandler(nil, 0, 0).Health(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRequestIDHeader(t *testing.T) {
	r := Setup(NewHandler(nil, 0, 0))
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))

	w = do(t, r, http.MethodGet, "/healthz", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestExtractFindsTable(t *testing.T) {
	r := Setup(NewHandler(nil, 0, 0))
	w := do(t, r, http.MethodPost, "/api/v1/extract", TextRequest{Text: salesTable})
	require.Equal(t, http.StatusOK, w.Code)

	resp, data := decode(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, true, data["graphable"])
	tbl := data["table"].(map[string]any)
	assert.Equal(t, []any{"Month", "Sales"}, tbl["columns"])
	assert.Equal(t, "markdown", tbl["source"])
	cls := data["classification"].(map[string]any)
	assert.Equal(t, "Month", cls["label_column"])
}

func TestExtractPlainText(t *testing.T) {
	r := Setup(NewHandler(nil, 0, 0))
	w := do(t, r, http.MethodPost, "/api/v1/extract", TextRequest{Text: "hello there"})
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decode(t, w)
	assert.Nil(t, data["table"])
	assert.Nil(t, data["classification"])
	assert.Equal(t, false, data["graphable"])
}

func TestExtractRejectsMissingText(t *testing.T) {
	r := Setup(NewHandler(nil, 0, 0))
	w := do(t, r, http.MethodPost, "/api/v1/extract", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp, _ := decode(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "INVALID_REQUEST", resp.Error.Code)
}

func TestChatReturnsReplyAndTable(t *testing.T) {
	rt := &fakeRuntime{reply: "Revenue: $500\nCost: $200"}
	r := Setup(NewHandler(rt, 0, 0))
	w := do(t, r, http.MethodPost, "/api/v1/chat", TextRequest{Text: "profit?"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "profit?", rt.got.Text)

	_, data := decode(t, w)
	assert.Equal(t, "Revenue: $500\nCost: $200", data["reply"])
	assert.Equal(t, "exec_1", data["request_id"])
	assert.Equal(t, true, data["graphable"])
}

func TestChatErrors(t *testing.T) {
	cases := []struct {
		name   string
		rt     ai.Runtime
		status int
		code   string
		msg    string
	}{
		{"no runtime", nil, http.StatusServiceUnavailable, "NO_RUNTIME", "no chat runtime configured"},
		{"bad status", &fakeRuntime{err: &ai.WebhookStatusError{StatusCode: 500}}, http.StatusBadGateway, "UPSTREAM_STATUS", "Error: webhook returned status 500"},
		{"unreachable", &fakeRuntime{err: &ai.UnreachableError{Host: "localhost:5678", Err: errors.New("refused")}}, http.StatusBadGateway, "UPSTREAM_UNREACHABLE", "Error: Could not connect to webhook. Is it running?"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := do(t, Setup(NewHandler(c.rt, 0, 0)), http.MethodPost, "/api/v1/chat", TextRequest{Text: "hi"})
			assert.Equal(t, c.status, w.Code)
			resp, _ := decode(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, c.code, resp.Error.Code)
			assert.Equal(t, c.msg, resp.Error.Message)
		})
	}
}

func TestChartJSON(t *testing.T) {
	r := Setup(NewHandler(nil, 0, 0))
	w := do(t, r, http.MethodPost, "/api/v1/charts/pie", TextRequest{Text: salesTable})
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decode(t, w)
	assert.Equal(t, "pie", data["kind"])
	assert.Equal(t, "Distribution", data["title"])
	assert.Len(t, data["slices"], 2)
}

func TestChartJSONWithNonFiniteCells(t *testing.T) {
	r := Setup(NewHandler(nil, 0, 0))
	text := "| Month | Sales |\n|---|---|\n| Jan | 10 |\n| Feb | NaN |\n| Mar | inf |"
	w := do(t, r, http.MethodPost, "/api/v1/charts/line", TextRequest{Text: text})
	require.Equal(t, http.StatusOK, w.Code)
	resp, data := decode(t, w)
	assert.True(t, resp.Success)
	series, ok := data["series"].([]any)
	require.True(t, ok, "series = %#v", data["series"])
	require.Len(t, series, 1)
	first := series[0].(map[string]any)
	assert.Equal(t, []any{10.0, nil, nil}, first["values"])
}

func TestChartImage(t *testing.T) {
	r := Setup(NewHandler(nil, 400, 300))
	w := do(t, r, http.MethodPost, "/api/v1/charts/bar?format=png", TextRequest{Text: salesTable})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = do(t, r, http.MethodPost, "/api/v1/charts/line?format=svg", TextRequest{Text: salesTable})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<svg")
}

func TestChartNotGraphable(t *testing.T) {
	r := Setup(NewHandler(nil, 0, 0))
	text := "| Name | City |\n|---|---|\n| Ann | Oslo |"
	w := do(t, r, http.MethodPost, "/api/v1/charts/line", TextRequest{Text: text})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp, _ := decode(t, w)
	assert.Equal(t, "NOT_GRAPHABLE", resp.Error.Code)
	assert.Equal(t, "No numeric data available for line chart.", resp.Error.Message)
}

func TestChartBadInput(t *testing.T) {
	r := Setup(NewHandler(nil, 0, 0))
	w := do(t, r, http.MethodPost, "/api/v1/charts/scatter", TextRequest{Text: salesTable})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/charts/bar?format=gif", TextRequest{Text: salesTable})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/charts/bar", TextRequest{Text: "no data here"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp, _ := decode(t, w)
	assert.Equal(t, "NO_TABLE", resp.Error.Code)
}

func TestExportCSV(t *testing.T) {
	r := Setup(NewHandler(nil, 0, 0))
	w := do(t, r, http.MethodPost, "/api/v1/export", TextRequest{Text: salesTable})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="erpgenie_data_0.csv"`, w.Header().Get("Content-Disposition"))

	recs, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Month", "Sales"}, {"Jan", "$100"}, {"Feb", "$250"}}, recs)
}

func TestExportFormats(t *testing.T) {
	r := Setup(NewHandler(nil, 0, 0))
	w := do(t, r, http.MethodPost, "/api/v1/export?format=xlsx", TextRequest{Text: salesTable})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))

	w = do(t, r, http.MethodPost, "/api/v1/export?format=pdf", TextRequest{Text: salesTable})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = do(t, r, http.MethodPost, "/api/v1/export?format=doc", TextRequest{Text: salesTable})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/export", TextRequest{Text: "hi"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, "127.0.0.1:0", Setup(NewHandler(nil, 0, 0))) }()
	cancel()
	assert.NoError(t, <-done)
}
