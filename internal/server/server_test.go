package server

import (
	"bytes"
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/iwvelando/rent-finance/pkg/affordability"
	"github.com/iwvelando/rent-finance/pkg/constants"
	"github.com/iwvelando/rent-finance/pkg/financing"
	"go.uber.org/zap"
)

func readTestConfig(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "test", "test_config.yaml"))
	if err != nil {
		t.Fatalf("failed to read test config: %v", err)
	}
	return string(data)
}

func TestHandleEvaluateSuccess(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	rr := performUpload(t, handler, readTestConfig(t), "test_config.yaml", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp evaluateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(resp.Outcomes) != 6 {
		t.Fatalf("expected 6 outcomes, got %d", len(resp.Outcomes))
	}
	if resp.Outcomes[0].Name != "installment purchase" || resp.Outcomes[0].Comparison == nil {
		t.Errorf("expected installment purchase with comparison first, got %+v", resp.Outcomes[0])
	}
	if !strings.HasPrefix(resp.CSV, "name,kind,policy") {
		t.Errorf("expected CSV data in response, got %q", resp.CSV)
	}
	if len(resp.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", resp.Warnings)
	}
	if resp.Duration == "" {
		t.Fatal("expected duration in response")
	}
	if resp.Config == nil || resp.ConfigYAML == "" {
		t.Fatal("expected config data in response")
	}
	for _, outcome := range resp.Outcomes {
		if len(outcome.Optimizations) != 0 {
			t.Errorf("optimizer should not run unless requested, got %v on %s", outcome.Optimizations, outcome.Name)
		}
	}
}

func TestHandleEvaluateOptimize(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	rr := performUpload(t, handler, readTestConfig(t), "test_config.yaml", map[string]string{"optimize": "true"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp evaluateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	var found bool
	for _, outcome := range resp.Outcomes {
		if outcome.Name != "rent with charges" {
			continue
		}
		found = true
		if len(outcome.Optimizations) != 1 || outcome.Optimizations[0].Value != 10 {
			t.Errorf("expected tenure optimized to 10, got %+v", outcome.Optimizations)
		}
		if outcome.Financing.TenureMonths != 10 {
			t.Errorf("expected evaluation at optimized tenure, got %d", outcome.Financing.TenureMonths)
		}
	}
	if !found {
		t.Fatal("missing rent with charges outcome")
	}
	if !strings.Contains(resp.ConfigYAML, "tenureMonths: 10") {
		t.Errorf("expected optimized configuration YAML, got %q", resp.ConfigYAML)
	}
}

func TestHandleEvaluateEditorSuccess(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	payload := map[string]interface{}{
		"config": map[string]interface{}{
			"financing": []interface{}{
				map[string]interface{}{
					"name":         "editor rent",
					"active":       true,
					"totalCost":    1200000,
					"deposit":      map[string]interface{}{"kind": "percentage", "value": 50},
					"tenureMonths": 10,
					"monthlyRate":  0.03,
					"optimize":     map[string]interface{}{"maxInstallment": 100000, "maxTenureMonths": 12},
				},
			},
		},
		"options": map[string]interface{}{"optimize": true},
	}

	rr := performEditorJSON(t, handler, payload, "/api/editor/evaluate")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp evaluateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(resp.Outcomes))
	}

	// 600,000 financed at 3% flat: 60,000/n + 18,000 <= 100,000 first holds at 8 months.
	outcome := resp.Outcomes[0]
	if len(outcome.Optimizations) != 1 || outcome.Optimizations[0].Value != 8 {
		t.Fatalf("expected tenure optimized to 8, got %+v", outcome.Optimizations)
	}
	if math.Abs(outcome.Financing.MonthlyInstallment-93000) > 0.01 {
		t.Errorf("expected installment 93000, got %.2f", outcome.Financing.MonthlyInstallment)
	}
}

func TestHandleEvaluateEditorInvalidPayload(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	rr := performEditorJSON(t, handler, map[string]interface{}{"config": "nope"}, "/api/editor/evaluate")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}

	rr = performEditorJSON(t, handler, map[string]interface{}{"options": []interface{}{}}, "/api/editor/evaluate")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for bad options, got %d", rr.Code)
	}
}

func TestHandleFinancing(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	rr := performJSON(t, handler, "/api/financing", `{
		"totalCost": 1200000,
		"deposit": {"kind": "percentage", "value": 50},
		"tenureMonths": 10,
		"monthlyRate": 0.03,
		"accrual": "flat",
		"includeSchedule": true
	}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var result financing.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if math.Abs(result.MonthlyInstallment-78000) > 0.01 || math.Abs(result.TotalInterest-180000) > 0.01 {
		t.Errorf("unexpected result %+v", result)
	}
	if len(result.Schedule) != 11 {
		t.Errorf("expected 11 schedule points, got %d", len(result.Schedule))
	}
}

func TestHandleFinancingReportsNotices(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	rr := performJSON(t, handler, "/api/financing", `{
		"totalCost": 1000000,
		"deposit": {"kind": "percentage", "value": 95},
		"tenureMonths": 0,
		"monthlyRate": -0.1
	}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("clamped input should still succeed, got %d: %s", rr.Code, rr.Body.String())
	}

	var result financing.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	kinds := make(map[financing.NoticeKind]int)
	for _, notice := range result.Notices {
		kinds[notice.Kind]++
	}
	if kinds[financing.NoticeDepositCapped] != 1 || kinds[financing.NoticeInvalidInput] != 2 {
		t.Errorf("unexpected notices %+v", result.Notices)
	}
	if result.TenureMonths != 1 || result.DepositAmount != 900000 {
		t.Errorf("expected clamped tenure 1 and deposit 900000, got %d and %.2f", result.TenureMonths, result.DepositAmount)
	}
}

func TestHandleCompare(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	rr := performJSON(t, handler, "/api/compare", `{
		"totalCost": 1200000,
		"deposit": {"kind": "percentage", "value": 50},
		"tenureMonths": 10,
		"monthlyRate": 0.03
	}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var cmp financing.Comparison
	if err := json.Unmarshal(rr.Body.Bytes(), &cmp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if math.Abs(cmp.Delta-180000) > 0.01 || math.Abs(cmp.DeltaPercentage-0.15) > 1e-9 {
		t.Errorf("unexpected comparison %+v", cmp)
	}
}

func TestHandleAffordability(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	rr := performJSON(t, handler, "/api/affordability", `{
		"monthlyIncome": 300000,
		"affordabilityRatio": 0.3,
		"tenureMonths": 10,
		"monthlyRate": 0.02
	}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var result affordability.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.MaxPrincipal != 808432 || result.MaxRent != 1616864 || !result.Qualifies {
		t.Errorf("unexpected result %+v", result)
	}
	if result.Reasons == nil {
		t.Errorf("reasons should encode as an empty list")
	}
}

func TestHandleCalculationErrors(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	for _, path := range []string{"/api/financing", "/api/compare", "/api/affordability"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != http.StatusMethodNotAllowed {
				t.Errorf("expected status 405, got %d", rr.Code)
			}

			rr = performJSON(t, handler, path, `{"unknownField": 1}`)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("expected status 400 for unknown field, got %d", rr.Code)
			}

			rr = performJSON(t, handler, path, `{"totalCost": `)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("expected status 400 for malformed body, got %d", rr.Code)
			}
		})
	}

	small := NewHandler(zap.NewNop(), 16, "test")
	rr := performJSON(t, small, "/api/financing", `{"totalCost": 1200000, "tenureMonths": 10}`)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected status 413, got %d", rr.Code)
	}
}

func TestHandleCalculationTenureBound(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	tests := []struct {
		path       string
		body       string
		wantStatus int
	}{
		{"/api/financing", `{"totalCost": 1000, "tenureMonths": 1152921504606846976, "includeSchedule": true}`, http.StatusBadRequest},
		{"/api/compare", `{"totalCost": 1000, "tenureMonths": 1201}`, http.StatusBadRequest},
		{"/api/affordability", `{"monthlyIncome": 300000, "affordabilityRatio": 0.3, "tenureMonths": 36000, "monthlyRate": 0.02}`, http.StatusBadRequest},
		{"/api/affordability", `{"monthlyIncome": 300000, "affordabilityRatio": 0.3, "tenureMonths": 1200, "monthlyRate": 0.02}`, http.StatusOK},
	}

	for _, tt := range tests {
		rr := performJSON(t, handler, tt.path, tt.body)
		if rr.Code != tt.wantStatus {
			t.Errorf("%s: expected status %d, got %d: %s", tt.path, tt.wantStatus, rr.Code, rr.Body.String())
		}
		if tt.wantStatus == http.StatusBadRequest && !strings.Contains(rr.Body.String(), "exceeds the maximum") {
			t.Errorf("%s: expected tenure bound error, got %s", tt.path, rr.Body.String())
		}
	}
}

func TestHandleCompareOverflowStaysEncodable(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	rr := performJSON(t, handler, "/api/compare", `{
		"totalCost": 1200000,
		"deposit": {"kind": "percentage", "value": 50},
		"tenureMonths": 1200,
		"monthlyRate": 10,
		"accrual": "compound"
	}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var cmp financing.Comparison
	if err := json.Unmarshal(rr.Body.Bytes(), &cmp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	found := false
	for _, n := range cmp.Installment.Notices {
		if n.Field == "totalRepayable" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected totalRepayable notice, got %+v", cmp.Installment.Notices)
	}
}

func TestWriteJSONUnencodablePayload(t *testing.T) {
	h := &handler{logger: zap.NewNop()}

	rr := httptest.NewRecorder()
	h.writeJSON(rr, http.StatusOK, map[string]float64{"value": math.Inf(1)})

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["error"] == "" {
		t.Errorf("expected an error message, got %s", rr.Body.String())
	}
}

func TestEditorEndpointsEnforceSizeLimit(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 64, "test")

	payload := map[string]interface{}{
		"config": map[string]interface{}{"extra": strings.Repeat("a", 256)},
	}
	for _, path := range []string{"/api/editor/evaluate", "/api/editor/export"} {
		rr := performEditorJSON(t, handler, payload, path)
		if rr.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("%s: expected status 413, got %d: %s", path, rr.Code, rr.Body.String())
		}
	}
}

func TestHandleConfigExport(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	payload := map[string]interface{}{
		"financing": []interface{}{
			map[string]interface{}{
				"name":   "sample",
				"active": true,
			},
		},
		"policies": []interface{}{
			map[string]interface{}{"name": "rent-split"},
		},
		"extra": "kept",
		"output": map[string]interface{}{
			"format": "pretty",
		},
		"logging": map[string]interface{}{
			"level": "info",
		},
	}

	rr := performEditorJSON(t, handler, payload, "/api/editor/export")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	yamlStr := resp["configYaml"]
	if yamlStr == "" {
		t.Fatal("expected configYaml in response")
	}

	var orderedTop []string
	for _, line := range strings.Split(strings.TrimRight(yamlStr, "\n"), "\n") {
		if len(line) == 0 || strings.HasPrefix(line, " ") || strings.HasPrefix(line, "-") {
			continue
		}
		orderedTop = append(orderedTop, strings.TrimSuffix(strings.SplitN(line, ":", 2)[0], ":"))
	}

	expected := []string{"logging", "output", "policies", "financing", "extra"}
	if strings.Join(orderedTop, ",") != strings.Join(expected, ",") {
		t.Fatalf("expected key order %v, got %v", expected, orderedTop)
	}
}

func TestHandleEvaluateMethodNotAllowed(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	for _, path := range []string{"/api/evaluate", "/api/editor/evaluate", "/api/editor/export"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected status 405, got %d", path, rr.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/version", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405 for POST /api/version, got %d", rr.Code)
	}
}

func TestHandleEvaluateUploadTooLarge(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 128, "test")

	rr := performUpload(t, handler, strings.Repeat("a", 1024), "large.yaml", nil)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", rr.Code)
	}
}

func TestHandleEvaluateMissingFile(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("note", "no file here"); err != nil {
		t.Fatalf("failed to write field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/evaluate", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["error"] != "missing configuration file" {
		t.Fatalf("unexpected error message %q", resp["error"])
	}
}

func TestHandleEvaluateInvalidYAML(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	rr := performUpload(t, handler, "financing: [", "bad.yaml", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleEvaluateUnknownPolicy(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	content := `
financing:
  - name: orphan
    active: true
    policy: missing
    totalCost: 1000
`
	rr := performUpload(t, handler, content, "orphan.yaml", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "orphan") {
		t.Errorf("expected error to name the request, got %s", rr.Body.String())
	}
}

func TestHandleVersion(t *testing.T) {
	handler := NewHandler(nil, 0, "  ")

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["version"] != "dev" {
		t.Fatalf("expected version dev, got %q", resp["version"])
	}
}

func TestRequestIDHeader(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	generated := rr.Header().Get(constants.RequestIDHeader)
	if _, err := uuid.Parse(generated); err != nil {
		t.Fatalf("expected generated uuid request id, got %q", generated)
	}

	incoming := uuid.NewString()
	req = httptest.NewRequest(http.MethodGet, "/api/version", nil)
	req.Header.Set(constants.RequestIDHeader, incoming)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if got := rr.Header().Get(constants.RequestIDHeader); got != incoming {
		t.Fatalf("expected incoming request id %q to be echoed, got %q", incoming, got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/version", nil)
	req.Header.Set(constants.RequestIDHeader, "not-a-uuid")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	got := rr.Header().Get(constants.RequestIDHeader)
	if got == "not-a-uuid" {
		t.Fatal("invalid request id should be replaced")
	}
	if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("expected replacement uuid, got %q", got)
	}

	rr = performJSON(t, handler, "/api/financing", `{"bad": true}`)
	if rr.Header().Get(constants.RequestIDHeader) == "" {
		t.Fatal("error responses should carry a request id")
	}
}

func performUpload(t *testing.T, handler http.Handler, content, filename string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write form data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/evaluate", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}

func performEditorJSON(t *testing.T, handler http.Handler, payload map[string]interface{}, path string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	return performJSON(t, handler, path, string(body))
}

func performJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}
