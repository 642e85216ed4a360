package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"vision-backend/internal/core"
	"vision-backend/internal/database"
	"vision-backend/pkg/api"
)

const (
	ServiceName = "VisionSense API"
	Version     = "1.0.0"

	maxUploadBytes  = 10 << 20 // 10MB
	defaultLogLimit = 50
)

// ClassifierService exposes the classifier over HTTP. The classifier is
// injected as the narrow Predictor interface so tests can run against a
// fake without an ONNX runtime.
type ClassifierService struct {
	db          *gorm.DB
	classifier  core.Predictor
	modelName   string
	defaultTopK int
}

func NewClassifierService(db *gorm.DB, classifier core.Predictor, modelName string, defaultTopK int) *ClassifierService {
	return &ClassifierService{
		db:          db,
		classifier:  classifier,
		modelName:   modelName,
		defaultTopK: defaultTopK,
	}
}

func (s *ClassifierService) AddRoutes(r chi.Router) {
	r.Get("/", RestHandler(s.Root))
	r.Get("/health", RestHandler(s.Health))
	r.Get("/info", RestHandler(s.Info))
	r.Get("/logs", RestHandler(s.Logs))
	r.Get("/dashboard", s.Dashboard)
	r.Post("/predict", RestHandler(s.Predict))
}

func (s *ClassifierService) Root(r *http.Request) (any, error) {
	return api.RootResponse{
		Message: fmt.Sprintf("Welcome to %s. POST an image to /predict to classify it.", ServiceName),
	}, nil
}

func (s *ClassifierService) Health(r *http.Request) (any, error) {
	return api.HealthResponse{
		Status:      "healthy",
		ModelLoaded: "True",
		Device:      "cpu",
		Message:     ServiceName + " is running",
	}, nil
}

func (s *ClassifierService) Info(r *http.Request) (any, error) {
	return api.InfoResponse{
		Service:     ServiceName,
		Version:     Version,
		Model:       s.modelName,
		Framework:   "onnxruntime",
		Description: "Image classification inference service returning top-K labels with confidence scores",
		Classes:     len(s.classifier.Labels()),
	}, nil
}

type logsQuery struct {
	Limit int `schema:"limit"`
}

func (s *ClassifierService) Logs(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[logsQuery](r)
	if err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultLogLimit
	}

	entries, err := database.RecentPredictions(r.Context(), s.db, limit)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving prediction logs")
	}

	logs := make([]api.LogEntry, 0, len(entries))
	for _, entry := range entries {
		logs = append(logs, api.LogEntry{
			Id:         entry.Id,
			Filename:   entry.Filename,
			TopLabel:   entry.TopLabel,
			Confidence: entry.Confidence,
			Success:    entry.Success,
			Error:      entry.Error,
			LatencyMs:  entry.LatencyMs,
			Timestamp:  entry.CreationTime,
		})
	}

	return api.LogsResponse{Logs: logs}, nil
}

// Predict accepts a multipart upload in the 'file' field with an
// optional 'top_k' value and returns the ranked predictions. Any
// pipeline error is reported as a 500 with the failure envelope; the
// request is logged either way.
func (s *ClassifierService) Predict(r *http.Request) (any, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "unable to parse multipart form: %v", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "no file provided, use 'file' as the form field name")
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "unable to read uploaded file: %v", err)
	}

	topK := s.defaultTopK
	if v := r.FormValue("top_k"); v != "" {
		topK, err = strconv.Atoi(v)
		if err != nil || topK < 0 {
			return nil, CodedErrorf(http.StatusBadRequest, "invalid top_k value '%s'", v)
		}
	}

	start := time.Now()
	result, err := s.classifier.Predict(image, topK)

	entry := &database.PredictionLog{
		Filename:  header.Filename,
		SizeBytes: header.Size,
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
	}
	if err != nil {
		entry.Error = err.Error()
		database.SavePredictionLog(r.Context(), s.db, entry)
		return nil, CodedError(http.StatusInternalServerError, err)
	}

	if len(result) > 0 {
		entry.TopLabel = result[0].Label
		entry.Confidence = result[0].Confidence
	}
	if blob, marshalErr := json.Marshal(result); marshalErr == nil {
		entry.Result = datatypes.JSON(blob)
	}
	database.SavePredictionLog(r.Context(), s.db, entry)

	return api.PredictResponse{Success: true, Result: result}, nil
}
