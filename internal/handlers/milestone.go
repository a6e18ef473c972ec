package handlers

import (
	"net/http"

	"github.com/chepyr/milestone-tracker/internal/models"
)

/*
handles routes:
- GET /milestones?task_id={task_id} - list milestones of a task by order_index
- POST /milestones - create milestone
*/
func (h *Handler) HandleMilestones(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listMilestones(w, r)
	case http.MethodPost:
		h.createMilestone(w, r)
	default:
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) HandleMilestoneByID(w http.ResponseWriter, r *http.Request) {
	milestoneID := pathID(r, "/milestones/")
	if milestoneID == "" {
		sendError(w, "Milestone ID is required", http.StatusBadRequest)
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.getMilestone(w, r, milestoneID)
	case http.MethodPut, http.MethodPatch:
		h.updateMilestone(w, r, milestoneID)
	case http.MethodDelete:
		h.deleteMilestone(w, r, milestoneID)
	default:
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) listMilestones(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	milestones, err := h.Service.ListMilestones(ctx, r.URL.Query().Get("task_id"))
	if err != nil {
		h.sendServiceError(w, err, http.StatusBadRequest, "Failed to fetch milestones", "")
		return
	}
	sendJSON(w, http.StatusOK, milestones)
}

func (h *Handler) getMilestone(w http.ResponseWriter, r *http.Request, milestoneID string) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	m, err := h.Service.GetMilestone(ctx, milestoneID)
	if err != nil {
		h.sendServiceError(w, err, http.StatusInternalServerError, "Failed to fetch milestone", "Milestone not found")
		return
	}
	sendJSON(w, http.StatusOK, m)
}

func (h *Handler) createMilestone(w http.ResponseWriter, r *http.Request) {
	var input models.NewMilestone
	if !decodeJSON(w, r, &input) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	m, err := h.Service.CreateMilestone(ctx, input)
	if err != nil {
		h.sendServiceError(w, err, http.StatusBadRequest, "Failed to create milestone", "")
		return
	}
	w.Header().Set("Location", "/milestones/"+m.ID)
	sendJSON(w, http.StatusCreated, m)
}

func (h *Handler) updateMilestone(w http.ResponseWriter, r *http.Request, milestoneID string) {
	var patch models.MilestonePatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	m, err := h.Service.UpdateMilestone(ctx, milestoneID, patch)
	if err != nil {
		h.sendServiceError(w, err, http.StatusBadRequest, "Failed to update milestone", "Milestone not found")
		return
	}
	sendJSON(w, http.StatusOK, m)
}

func (h *Handler) deleteMilestone(w http.ResponseWriter, r *http.Request, milestoneID string) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	if err := h.Service.DeleteMilestone(ctx, milestoneID); err != nil {
		h.sendServiceError(w, err, http.StatusBadRequest, "Failed to delete milestone", "Milestone not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
