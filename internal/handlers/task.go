package handlers

import (
	"net/http"

	"github.com/chepyr/milestone-tracker/internal/models"
	"go.uber.org/zap"
)

/*
handles routes:
GET /tasks - list tasks, newest first
POST /tasks - create task
*/
func (h *Handler) HandleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listTasks(w, r)
	case http.MethodPost:
		h.createTask(w, r)
	default:
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

/*
routes:
- GET /tasks/{id} - task with its milestones
- PUT/PATCH /tasks/{id}
- DELETE /tasks/{id}
*/
func (h *Handler) HandleTaskByID(w http.ResponseWriter, r *http.Request) {
	taskID := pathID(r, "/tasks/")
	if taskID == "" {
		sendError(w, "Task ID is required", http.StatusBadRequest)
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.getTask(w, r, taskID)
	case http.MethodPut, http.MethodPatch:
		h.updateTask(w, r, taskID)
	case http.MethodDelete:
		h.deleteTask(w, r, taskID)
	default:
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	tasks, err := h.Service.ListTasks(ctx)
	if err != nil {
		h.sendServiceError(w, err, http.StatusInternalServerError, "Failed to fetch tasks", "")
		return
	}
	sendJSON(w, http.StatusOK, tasks)
}

func (h *Handler) getTask(w http.ResponseWriter, r *http.Request, taskID string) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	task, err := h.Service.GetTask(ctx, taskID)
	if err != nil {
		h.sendServiceError(w, err, http.StatusInternalServerError, "Failed to fetch task", "Task not found")
		return
	}
	sendJSON(w, http.StatusOK, task)
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	var input models.NewTask
	if !decodeJSON(w, r, &input) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	task, err := h.Service.CreateTask(ctx, input)
	if err != nil {
		h.sendServiceError(w, err, http.StatusBadRequest, "Failed to create task", "")
		return
	}
	h.Logger.Info("task created", zap.String("task_id", task.ID))
	w.Header().Set("Location", "/tasks/"+task.ID)
	sendJSON(w, http.StatusCreated, task)
}

func (h *Handler) updateTask(w http.ResponseWriter, r *http.Request, taskID string) {
	var patch models.TaskPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	task, err := h.Service.UpdateTask(ctx, taskID, patch)
	if err != nil {
		h.sendServiceError(w, err, http.StatusBadRequest, "Failed to update task", "Task not found")
		return
	}
	sendJSON(w, http.StatusOK, task)
}

func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request, taskID string) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	if err := h.Service.DeleteTask(ctx, taskID); err != nil {
		h.sendServiceError(w, err, http.StatusBadRequest, "Failed to delete task", "Task not found")
		return
	}
	h.Logger.Info("task deleted", zap.String("task_id", taskID))
	w.WriteHeader(http.StatusNoContent)
}
