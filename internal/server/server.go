package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jj82931/Cost-of-Living-saver/internal/catalog"
	"github.com/jj82931/Cost-of-Living-saver/internal/pipeline"
	"github.com/jj82931/Cost-of-Living-saver/pkg/billing"
	"github.com/jj82931/Cost-of-Living-saver/pkg/constants"
	"github.com/jj82931/Cost-of-Living-saver/pkg/extract"
	"github.com/jj82931/Cost-of-Living-saver/pkg/output"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

//go:embed static/*
var staticFiles embed.FS

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Options configure the HTTP handler.
type Options struct {
	Logger        *zap.Logger
	MaxUploadSize int64
	Version       string
	// Plans is the catalog every comparison ranks against.
	Plans   []billing.Plan
	Compare pipeline.Options
	// Explainer, when set, enables ?explain=1 on /api/compare.
	Explainer       pipeline.TextGenerator
	ExplainCacheTTL time.Duration
	// RequestsPerMinute limits /api/ calls; zero or less disables the limit.
	RequestsPerMinute int
}

type handler struct {
	logger          *zap.Logger
	maxUploadSize   int64
	version         string
	plans           []billing.Plan
	planWarnings    []string
	compare         pipeline.Options
	explainer       pipeline.TextGenerator
	explainCacheTTL time.Duration
}

// NewHandler constructs the HTTP handler that serves the web UI and comparison API.
func NewHandler(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	maxUploadSize := opts.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:          logger,
		maxUploadSize:   maxUploadSize,
		version:         trimmedVersion,
		plans:           opts.Plans,
		planWarnings:    catalog.Validate(opts.Plans),
		compare:         opts.Compare,
		explainer:       opts.Explainer,
		explainCacheTTL: opts.ExplainCacheTTL,
	}

	api := http.NewServeMux()
	api.HandleFunc("/api/extract", h.handleExtract)
	api.HandleFunc("/api/compare", h.handleCompare)
	api.HandleFunc("/api/compare.xlsx", h.handleCompareXLSX)
	api.HandleFunc("/api/plans", h.handlePlans)
	api.HandleFunc("/api/version", h.handleVersion)

	var apiHandler http.Handler = api
	if opts.RequestsPerMinute > 0 {
		apiHandler = h.limit(apiHandler, opts.RequestsPerMinute)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)

	// Static assets (web UI)
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to prepare embedded static files: %v", err))
	}
	mux.Handle("/", http.FileServer(http.FS(sub)))

	return h.requestID(mux)
}

// requestID echoes an incoming X-Request-ID or assigns a fresh one.
func (h *handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

type requestIDKey struct{}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// limit rejects requests beyond perMinute with 429; bursts up to one
// minute's quota are allowed.
func (h *handler) limit(next http.Handler, perMinute int) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(float64(perMinute)/60), perMinute)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			w.Header().Set("Retry-After", "60")
			h.respondErrorWithOp(w, r, http.StatusTooManyRequests, "rate limit exceeded", "server.limit")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type extractResponse struct {
	Bill       billing.ElectricityBillExtract `json:"bill"`
	DocType    extract.DocType                `json:"docType"`
	Fields     []string                       `json:"fields"`
	Confidence float64                        `json:"confidence"`
	Duration   string                         `json:"duration"`
}

type compareRequest struct {
	Text  string `json:"text"`
	Limit *int   `json:"limit,omitempty"`
}

type compareResponse struct {
	pipeline.Report
	ExplainError string `json:"explainError,omitempty"`
	Duration     string `json:"duration"`
}

type plansResponse struct {
	Plans    []billing.Plan `json:"plans"`
	Warnings []string       `json:"warnings,omitempty"`
}

func (h *handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExtract"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	req, ok := h.readBill(w, r, op)
	if !ok {
		return
	}

	text := req.Text
	if h.compare.NormalizeText {
		text = extract.NormalizeText(text)
	}
	extraction := extract.Recognize(text)
	fields := extraction.Fields
	if fields == nil {
		fields = []string{}
	}

	elapsed := time.Since(start)
	h.logger.Info("bill extracted",
		zap.String("op", op),
		zap.String("requestId", requestIDFrom(r.Context())),
		zap.Int("fields", len(fields)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, extractResponse{
		Bill:       extraction.Bill,
		DocType:    extract.DetectDocType(text),
		Fields:     fields,
		Confidence: extraction.Bill.Confidence,
		Duration:   elapsed.String(),
	})
}

func (h *handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompare"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	rep, ok := h.runCompare(w, r, op)
	if !ok {
		return
	}

	response := compareResponse{Report: rep}
	if coerceBool(r.URL.Query().Get("explain")) {
		if h.explainer == nil {
			response.ExplainError = "explanations are not enabled"
		} else {
			text, err := pipeline.Explain(r.Context(), h.logger, h.explainer, rep, h.explainCacheTTL)
			if err != nil {
				h.logger.Warn("explanation failed",
					zap.String("op", op),
					zap.String("requestId", requestIDFrom(r.Context())),
					zap.Error(err),
				)
				response.ExplainError = err.Error()
			} else {
				response.Explanation = text
			}
		}
	}

	elapsed := time.Since(start)
	response.Duration = elapsed.String()

	h.logger.Info("comparison computed",
		zap.String("op", op),
		zap.String("requestId", requestIDFrom(r.Context())),
		zap.Int("results", len(rep.Results)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleCompareXLSX(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompareXLSX"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	rep, ok := h.runCompare(w, r, op)
	if !ok {
		return
	}

	data, err := output.XLSX(rep)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to build workbook: %v", err), op)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="comparison.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("failed to write workbook", zap.String("op", op), zap.Error(err))
	}
}

func (h *handler) handlePlans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	plans := h.plans
	if plans == nil {
		plans = []billing.Plan{}
	}
	h.writeJSON(w, http.StatusOK, plansResponse{Plans: plans, Warnings: h.planWarnings})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) runCompare(w http.ResponseWriter, r *http.Request, op string) (pipeline.Report, bool) {
	req, ok := h.readBill(w, r, op)
	if !ok {
		return pipeline.Report{}, false
	}

	opts := h.compare
	if req.Limit != nil {
		if *req.Limit < 0 {
			h.respondErrorWithOp(w, r, http.StatusBadRequest, "limit must not be negative", op)
			return pipeline.Report{}, false
		}
		opts.Limit = *req.Limit
	} else if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v), op)
			return pipeline.Report{}, false
		}
		opts.Limit = n
	}

	logger := h.logger.With(zap.String("requestId", requestIDFrom(r.Context())))
	return pipeline.Compare(logger, req.Text, h.plans, opts), true
}

// readBill accepts bill text as a JSON body {"text": ...}, a multipart form
// with a "file" or "text" part, or a raw text body.
func (h *handler) readBill(w http.ResponseWriter, r *http.Request, op string) (compareRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var req compareRequest

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
			h.respondReadError(w, r, err, "failed to parse upload", op)
			return req, false
		}
		text, err := h.formText(r, op)
		if err != nil {
			h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
			return req, false
		}
		req.Text = text
		if v := r.FormValue("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v), op)
				return req, false
			}
			req.Limit = &n
		}
	case "application/json":
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.respondReadError(w, r, err, "failed to decode request", op)
			return req, false
		}
	default:
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, r.Body); err != nil {
			h.respondReadError(w, r, err, "failed to read bill", op)
			return req, false
		}
		req.Text = buf.String()
	}

	if strings.TrimSpace(req.Text) == "" {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, "missing bill text", op)
		return req, false
	}
	return req, true
}

func (h *handler) formText(r *http.Request, op string) (string, error) {
	file, _, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return r.FormValue("text"), nil
		}
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	return buf.String(), nil
}

func (h *handler) respondReadError(w http.ResponseWriter, r *http.Request, err error, msg, op string) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.respondErrorWithOp(w, r, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
		return
	}
	h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("%s: %v", msg, err), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, r *http.Request, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.String("requestId", requestIDFrom(r.Context())),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func coerceBool(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return false
	}
	parsed, err := strconv.ParseBool(trimmed)
	return err == nil && parsed
}
