package handlers

import (
	"context"
	"net/http"

	"github.com/taskearn/ledger/internal/logging"
	"github.com/taskearn/ledger/internal/models"
	"github.com/taskearn/ledger/internal/services"
	"go.uber.org/zap"
)

type taskDistributor interface {
	DistributeTaskIncome(ctx context.Context, userID, videoID int64, evidence models.WatchEvidence) (*models.DistributionResult, error)
}

type TaskHandler struct {
	tasks     taskDistributor
	validator *services.ValidationHelper
	logger    *zap.Logger
}

func NewTaskHandler(tasks taskDistributor, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		tasks:     tasks,
		validator: services.NewValidationHelper(),
		logger:    logging.OrNop(logger),
	}
}

type completeTaskRequest struct {
	VideoID              int64 `json:"videoId" validate:"required,gt=0"`
	WatchedSeconds       int   `json:"watchedSeconds" validate:"gte=0"`
	VideoDurationSeconds int   `json:"videoDurationSeconds" validate:"required,gt=0"`
}

// CompleteTask pays the reward for a watched video
// @Summary Complete a video task
// @Description Records a watched video, pays the task reward and the A/B/C management bonuses
// @Tags Tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body completeTaskRequest true "Watch evidence"
// @Success 200 {object} models.DistributionResult
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse "Insufficient position"
// @Failure 409 {object} services.ErrorResponse "Already completed"
// @Failure 429 {object} services.ErrorResponse "Daily quota reached"
// @Router /tasks/complete [post]
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req completeTaskRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	result, err := h.tasks.DistributeTaskIncome(r.Context(), userID, req.VideoID, models.WatchEvidence{
		WatchedSeconds:       req.WatchedSeconds,
		VideoDurationSeconds: req.VideoDurationSeconds,
	})
	if err != nil {
		sendError(w, h.logger, err)
		return
	}
	sendJSON(w, http.StatusOK, result)
}
