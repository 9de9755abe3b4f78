package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/visiongate/visiongate/internal/auth"
	"github.com/visiongate/visiongate/internal/inference"
	"github.com/visiongate/visiongate/internal/metering"
	"github.com/visiongate/visiongate/internal/metrics"
	"github.com/visiongate/visiongate/internal/middleware"
	"github.com/visiongate/visiongate/internal/model"
)

// maxImageMemory caps the in-memory portion of multipart parsing.
const maxImageMemory = 8 << 20

// ErrImageDecode marks a request whose image part is not a decodable bitmap.
// Distinguished from inference errors so handlers and metrics can tell an
// invalid upload apart from a model failure.
var ErrImageDecode = errors.New("image decode failed")

// CompletionHandler serves the inference endpoint.
type CompletionHandler struct {
	logger   *slog.Logger
	engine   inference.Engine
	metering *metering.Service
	metrics  metrics.Recorder
}

// NewCompletionHandler creates a new CompletionHandler.
func NewCompletionHandler(logger *slog.Logger, engine inference.Engine, meter *metering.Service, recorder metrics.Recorder) *CompletionHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CompletionHandler{
		logger:   logger,
		engine:   engine,
		metering: meter,
		metrics:  recorder,
	}
}

// Completion handles POST /completion.
// Accepts either a multipart form with a "query" JSON part and an optional
// "image" file part, or a bare JSON Query body. Runs inference and records
// usage for the authenticated user.
func (h *CompletionHandler) Completion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.UserFromContext(ctx)
	if user == nil {
		writeDetail(w, http.StatusForbidden, "Invalid API Key")
		return
	}

	query, imageBytes, err := parseCompletionRequest(r)
	if err != nil {
		if errors.Is(err, ErrImageDecode) {
			h.metrics.IncCompletion(metrics.StatusDecodeError)
			h.logger.Error("image decode failed",
				slog.String("error", err.Error()),
				slog.String("user_id", user.ID),
				slog.String("request_id", middleware.GetRequestID(ctx)),
			)
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	input := inference.DescribeInput{
		Text:                query.Text,
		DescriptionType:     query.DescriptionType,
		EnableSampling:      query.EnableSampling,
		SamplingTopP:        query.SamplingTopP,
		SamplingTemperature: query.SamplingTemperature,
		Image:               imageBytes,
	}

	start := time.Now()
	response, err := h.engine.Describe(ctx, input)
	h.metrics.ObserveInferenceDuration(time.Since(start))
	if err != nil {
		h.metrics.IncCompletion(metrics.StatusInferenceError)
		h.logger.Error("inference failed",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID),
			slog.String("request_id", middleware.GetRequestID(ctx)),
		)
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	usage := model.Usage{
		UserID:       user.ID,
		PromptTokens: metering.CountTokens(query.Text),
	}
	if len(imageBytes) > 0 {
		usage.Images = 1
	}
	if err := h.metering.Record(ctx, usage); err != nil {
		// Usage recording failures don't cost the caller their result.
		h.logger.Warn("failed to record usage",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID),
		)
	}

	h.metrics.IncCompletion(metrics.StatusOK)
	writeJSON(w, http.StatusOK, model.InferenceResult{Response: response})
}

// parseCompletionRequest extracts the query and optional image bytes from
// either a multipart form or a bare JSON body.
func parseCompletionRequest(r *http.Request) (model.Query, []byte, error) {
	var query model.Query

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "multipart/") {
		if err := json.NewDecoder(r.Body).Decode(&query); err != nil && !errors.Is(err, io.EOF) {
			return query, nil, errors.New("invalid request body")
		}
		return query, nil, nil
	}

	if err := r.ParseMultipartForm(maxImageMemory); err != nil {
		return query, nil, errors.New("invalid multipart form")
	}

	if raw := r.FormValue("query"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &query); err != nil {
			return query, nil, errors.New("invalid query part")
		}
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return query, nil, nil
		}
		return query, nil, errors.New("invalid image part")
	}
	defer file.Close()

	imageBytes, err := io.ReadAll(file)
	if err != nil {
		return query, nil, errors.New("failed to read image part")
	}

	// Reject uploads the model server could not decode either.
	if _, _, err := image.DecodeConfig(bytes.NewReader(imageBytes)); err != nil {
		return query, nil, ErrImageDecode
	}

	return query, imageBytes, nil
}
