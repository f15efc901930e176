package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/inkpress/inkpress-go/internal/api/request"
	"github.com/inkpress/inkpress-go/internal/api/response"
	"github.com/inkpress/inkpress-go/internal/model"
	"github.com/inkpress/inkpress-go/internal/services/pipeline"
)

// DemoHandler handles the demo pipeline endpoints. No auth required: the
// demo exists for visitors who don't have an account yet.
type DemoHandler struct {
	pipeline *pipeline.Service
}

// NewDemoHandler creates a new demo handler
func NewDemoHandler(pipelineService *pipeline.Service) *DemoHandler {
	return &DemoHandler{
		pipeline: pipelineService,
	}
}

// Submit handles POST /api/v1/demo/jobs
func (h *DemoHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Title == "" {
		WriteError(w, NewInvalidRequestError("title is required"))
		return
	}
	if req.WordCount <= 0 {
		WriteError(w, NewInvalidRequestError("word_count must be positive"))
		return
	}

	job, err := h.pipeline.Submit(r.Context(), req.Title, req.WordCount)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusAccepted, response.JobFromModel(job))
}

// Get handles GET /api/v1/demo/jobs/{id}
func (h *DemoHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.JobID(mux.Vars(r)["id"])

	job, err := h.pipeline.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.JobFromModel(job))
}
