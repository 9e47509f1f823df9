package httpadapter

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/answerforge/rfp-engine/internal/core/domain"
	"github.com/answerforge/rfp-engine/internal/core/ports"
	"github.com/answerforge/rfp-engine/internal/core/usecase"
	"github.com/answerforge/rfp-engine/internal/infrastructure/export"
	"github.com/answerforge/rfp-engine/internal/observability/metrics"
)

const serviceName = "api"

// Router wires the inbound HTTP surface to the core use cases. It is a thin
// adapter; request validation beyond shape checks lives in the core.
type Router struct {
	indexer  ports.RecordIndexer
	answers  ports.AnswerService
	bulk     ports.BulkRunner
	uploadUC *usecase.UploadImportUseCase
	jobs     ports.ImportJobStore
	parser   ports.RecordFileParser
	exporter *export.Exporter
	metrics  *metrics.HTTPServerMetrics
	logger   *slog.Logger

	bulkWorkers int
}

type RouterOptions struct {
	Indexer     ports.RecordIndexer
	Answers     ports.AnswerService
	Bulk        ports.BulkRunner
	UploadUC    *usecase.UploadImportUseCase
	Jobs        ports.ImportJobStore
	Parser      ports.RecordFileParser
	Exporter    *export.Exporter
	Metrics     *metrics.HTTPServerMetrics
	Logger      *slog.Logger
	BulkWorkers int
}

func NewRouter(options RouterOptions) *Router {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	bulkWorkers := options.BulkWorkers
	if bulkWorkers <= 0 {
		bulkWorkers = usecase.DefaultBulkWorkers
	}
	return &Router{
		indexer:     options.Indexer,
		answers:     options.Answers,
		bulk:        options.Bulk,
		uploadUC:    options.UploadUC,
		jobs:        options.Jobs,
		parser:      options.Parser,
		exporter:    options.Exporter,
		metrics:     options.Metrics,
		logger:      logger,
		bulkWorkers: bulkWorkers,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/records", rt.indexRecord)
	mux.HandleFunc("/v1/imports", rt.uploadImport)
	mux.HandleFunc("/v1/imports/", rt.getImportByID)
	mux.HandleFunc("/v1/query", rt.query)
	mux.HandleFunc("/v1/bulk", rt.runBulk)
	mux.HandleFunc("/v1/bulk/files/", rt.downloadBulkFile)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = accessLogMiddleware(handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) indexRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var record domain.Record
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	id, err := rt.indexer.Index(r.Context(), record)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (rt *Router) uploadImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	job, err := rt.uploadUC.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		domain.ImportRecords,
		file,
	)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (rt *Router) getImportByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/imports/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "import id is required")
		return
	}

	job, err := rt.jobs.GetByID(r.Context(), id)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (rt *Router) query(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Question string `json:"question"`
		TopK     int    `json:"top_k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	start := time.Now()
	result, err := rt.answers.Answer(r.Context(), req.Question, req.TopK)
	if err != nil {
		if rt.metrics != nil {
			rt.metrics.RecordQuery(serviceName, "error", 0, 0, time.Since(start))
		}
		rt.writeDomainError(w, r, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordQuery(serviceName, "success", len(result.SearchResults), result.Confidence, time.Since(start))
	}
	writeJSON(w, http.StatusOK, result)
}

// runBulk accepts a multipart question file, answers every question with the
// bulk executor and exports the results. The response carries both the items
// and the generated export file name.
func (rt *Router) runBulk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	questions, err := rt.parser.ParseQuestions(fileHeader.Filename, file)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	if len(questions) == 0 {
		writeError(w, http.StatusBadRequest, "file contains no questions")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = export.FormatCSV
	}

	start := time.Now()
	results := rt.bulk.Run(r.Context(), questions, rt.bulkWorkers)

	fileName, err := rt.exporter.Export(results, format)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}

	succeeded, failed := 0, 0
	for _, item := range results {
		if item.Status == domain.BulkSuccess {
			succeeded++
		} else {
			failed++
		}
	}
	if rt.metrics != nil {
		rt.metrics.RecordBulkRun(serviceName, succeeded, failed, time.Since(start))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"results":     results,
		"export_file": fileName,
		"succeeded":   succeeded,
		"failed":      failed,
	})
}

func (rt *Router) downloadBulkFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/v1/bulk/files/")
	if name == "" {
		writeError(w, http.StatusBadRequest, "file name is required")
		return
	}

	file, err := rt.exporter.Open(name)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	defer file.Close()

	switch filepath.Ext(name) {
	case ".xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	default:
		w.Header().Set("Content-Type", "text/csv")
	}
	w.Header().Set("Content-Disposition", "attachment; filename="+filepath.Base(name))
	_, _ = io.Copy(w, file)
}

func (rt *Router) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		rt.logger.Error("request failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
