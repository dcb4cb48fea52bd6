package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/rent-finance/internal/config"
	"github.com/iwvelando/rent-finance/internal/engine"
	"github.com/iwvelando/rent-finance/internal/optimizer"
	"github.com/iwvelando/rent-finance/pkg/affordability"
	"github.com/iwvelando/rent-finance/pkg/constants"
	"github.com/iwvelando/rent-finance/pkg/financing"
	"github.com/iwvelando/rent-finance/pkg/output"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	calculator    *financing.Calculator
	solver        *affordability.Solver
}

// editorRequest is the body of /api/editor/evaluate. Optimize accepts a
// bool, a number or a string such as "true".
type editorRequest struct {
	Config  map[string]interface{} `json:"config"`
	Options struct {
		Optimize interface{} `json:"optimize"`
	} `json:"options"`
}

// NewHandler constructs the HTTP handler that serves the calculation API.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		calculator:    financing.NewCalculator(logger),
		solver:        affordability.NewSolver(logger),
	}

	mux := http.NewServeMux()

	// Single calculations
	mux.HandleFunc("/api/financing", h.handleFinancing)
	mux.HandleFunc("/api/compare", h.handleCompare)
	mux.HandleFunc("/api/affordability", h.handleAffordability)

	// Batch evaluation (file upload)
	mux.HandleFunc("/api/evaluate", h.handleEvaluate)

	// Batch evaluation for editor-driven updates
	mux.HandleFunc("/api/editor/evaluate", h.handleEvaluateEditor)

	// Config serialization endpoint for editor downloads
	mux.HandleFunc("/api/editor/export", h.handleConfigExport)

	mux.HandleFunc("/api/version", h.handleVersion)

	return withRequestLogging(logger, mux)
}

type evaluateResponse struct {
	Outcomes   []engine.Outcome       `json:"outcomes"`
	CSV        string                 `json:"csv"`
	Warnings   []string               `json:"warnings,omitempty"`
	Duration   string                 `json:"duration"`
	Config     map[string]interface{} `json:"config,omitempty"`
	ConfigYAML string                 `json:"configYaml,omitempty"`
}

func (h *handler) handleFinancing(w http.ResponseWriter, r *http.Request) {
	var in financing.Input
	if !h.decodeCalculation(w, r, &in, "server.handleFinancing") {
		return
	}
	h.writeJSON(w, http.StatusOK, h.calculator.Compute(in))
}

func (h *handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	var in financing.Input
	if !h.decodeCalculation(w, r, &in, "server.handleCompare") {
		return
	}
	h.writeJSON(w, http.StatusOK, h.calculator.Compare(in))
}

func (h *handler) handleAffordability(w http.ResponseWriter, r *http.Request) {
	var in affordability.Input
	if !h.decodeCalculation(w, r, &in, "server.handleAffordability") {
		return
	}
	h.writeJSON(w, http.StatusOK, h.solver.Solve(in))
}

// decodeCalculation decodes a JSON calculation body into dst and reports
// whether the handler should continue. Tenures above
// constants.MaxTenureMonths are rejected.
func (h *handler) decodeCalculation(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	if !allowMethod(w, r, http.MethodPost) {
		return false
	}

	if status, err := h.readJSON(w, r, dst, true); err != nil {
		h.respondError(w, status, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}

	if tenure := requestedTenure(dst); tenure > constants.MaxTenureMonths {
		h.respondError(w, http.StatusBadRequest,
			fmt.Sprintf("tenureMonths %d exceeds the maximum of %d", tenure, constants.MaxTenureMonths), op)
		return false
	}
	return true
}

// readJSON decodes a body of at most maxUploadSize bytes into dst. The
// returned status is only meaningful with a non-nil error.
func (h *handler) readJSON(w http.ResponseWriter, r *http.Request, dst interface{}, strict bool) (int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	decoder := json.NewDecoder(r.Body)
	if strict {
		decoder.DisallowUnknownFields()
	}
	if err := decoder.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return http.StatusRequestEntityTooLarge, fmt.Errorf("request exceeds limit of %d bytes", h.maxUploadSize)
		}
		return http.StatusBadRequest, err
	}
	return http.StatusOK, nil
}

func requestedTenure(dst interface{}) int {
	switch in := dst.(type) {
	case *financing.Input:
		return in.TenureMonths
	case *affordability.Input:
		return in.TenureMonths
	}
	return 0
}

func (h *handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleEvaluate"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	start := time.Now()
	configBytes, status, err := h.readUploadedConfig(w, r)
	if err != nil {
		h.respondError(w, status, err.Error(), op)
		return
	}

	h.runEvaluation(w, configBytes, start, op, coerceBool(r.FormValue("optimize")))
}

// readUploadedConfig returns the multipart "file" part along with the status
// to report when it cannot be read.
func (h *handler) readUploadedConfig(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds limit of %d bytes", h.maxUploadSize)
		}
		return nil, http.StatusBadRequest, fmt.Errorf("failed to parse upload: %w", err)
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, http.StatusBadRequest, errors.New("missing configuration file")
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", "server.readUploadedConfig"),
				zap.Error(closeErr),
			)
		}
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to read configuration: %w", err)
	}
	return data, http.StatusOK, nil
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"version": h.version})
}

func (h *handler) handleEvaluateEditor(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleEvaluateEditor"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	start := time.Now()
	var req editorRequest
	if status, err := h.readJSON(w, r, &req, false); err != nil {
		h.respondError(w, status, fmt.Sprintf("failed to decode editor request: %v", err), op)
		return
	}
	if req.Config == nil {
		req.Config = map[string]interface{}{}
	}

	configBytes, err := yaml.Marshal(req.Config)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	h.runEvaluation(w, configBytes, start, op, coerceBool(req.Options.Optimize))
}

func (h *handler) handleConfigExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleConfigExport"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var sections map[string]interface{}
	if status, err := h.readJSON(w, r, &sections, false); err != nil {
		h.respondError(w, status, fmt.Sprintf("failed to decode configuration: %v", err), op)
		return
	}

	node, err := sectionsNode(sections)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}
	out, err := yaml.Marshal(node)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"configYaml": string(out)})
}

// sectionOrder is the top-level order of exported configurations; unknown
// sections follow alphabetically.
var sectionOrder = []string{"logging", "output", "currency", "policies", "financing", "affordability"}

// sectionsNode encodes sections as a YAML mapping in export order.
func sectionsNode(sections map[string]interface{}) (*yaml.Node, error) {
	keys := make([]string, 0, len(sections))
	for _, key := range sectionOrder {
		if _, ok := sections[key]; ok {
			keys = append(keys, key)
		}
	}
	known := len(keys)
	for key := range sections {
		if !containsString(sectionOrder, key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys[known:])

	mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range keys {
		value := &yaml.Node{}
		if err := value.Encode(sections[key]); err != nil {
			return nil, fmt.Errorf("section %s: %w", key, err)
		}
		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			value,
		)
	}
	return mapping, nil
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

// runEvaluation loads configBytes, optionally optimizes tenures and writes
// the report. An optimized run returns the updated configuration.
func (h *handler) runEvaluation(w http.ResponseWriter, configBytes []byte, start time.Time, op string, optimize bool) {
	configMap, err := decodeYAMLToMap(configBytes)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("error reading config data, %v", err), op)
		return
	}
	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	warnings := cfg.ValidateConfiguration()

	var tuned *optimizer.Result
	if optimize {
		runner, err := optimizer.NewRunner(h.logger, cfg)
		if err == nil {
			tuned, err = runner.Run()
		}
		if err != nil {
			h.respondError(w, http.StatusBadRequest, fmt.Sprintf("optimizer failed: %v", err), op)
			return
		}
	}

	report, err := engine.Evaluate(h.logger, *cfg)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to evaluate configuration: %v", err), op)
		return
	}

	if tuned != nil && !tuned.Empty() {
		tuned.Apply(&report)
		if updated, err := yaml.Marshal(cfg); err == nil {
			if updatedMap, mapErr := decodeYAMLToMap(updated); mapErr == nil {
				configBytes, configMap = updated, updatedMap
			}
		} else {
			h.logger.Warn("optimized configuration not re-encoded",
				zap.String("op", op),
				zap.Error(err),
			)
		}
	}

	csvData, err := output.CsvString(report)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render CSV: %v", err), op)
		return
	}

	elapsed := time.Since(start)
	h.logger.Info("configuration evaluated",
		zap.String("op", op),
		zap.Int("outcomes", len(report.Outcomes)),
		zap.Int("warnings", len(warnings)),
		zap.Bool("optimized", tuned != nil),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, evaluateResponse{
		Outcomes:   report.Outcomes,
		CSV:        csvData,
		Warnings:   warnings,
		Duration:   elapsed.String(),
		Config:     configMap,
		ConfigYAML: string(configBytes),
	})
}

// decodeYAMLToMap never returns a nil map on success.
func decodeYAMLToMap(data []byte) (map[string]interface{}, error) {
	result := map[string]interface{}{}
	if len(bytes.TrimSpace(data)) == 0 {
		return result, nil
	}
	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = map[string]interface{}{}
	}
	return result, nil
}

func coerceBool(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && parsed
	}
	return false
}

// allowMethod answers 405 with an Allow header unless r uses method.
func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	return false
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)
	h.writeJSON(w, status, map[string]string{"error": msg})
}

// writeJSON encodes payload before committing the status, so an
// unencodable payload becomes a 500 instead of an empty 200.
func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode JSON response",
			zap.String("op", "server.writeJSON"),
			zap.Int("status", status),
			zap.Error(err),
		)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"failed to encode response"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		h.logger.Warn("failed to write JSON response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
	}
}
