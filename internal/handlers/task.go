package handlers

import (
	"context"
	"errors"

	"github.com/dkovac/taskboard-api/internal/models"
	"github.com/dkovac/taskboard-api/internal/services"
	"github.com/dkovac/taskboard-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type TaskHandler struct {
	taskService      TaskServiceInterface
	workspaceService WorkspaceServiceInterface
	dispatcher       EventDispatcher
}

func NewTaskHandler(
	taskService TaskServiceInterface,
	workspaceService WorkspaceServiceInterface,
	dispatcher EventDispatcher,
) *TaskHandler {
	return &TaskHandler{
		taskService:      taskService,
		workspaceService: workspaceService,
		dispatcher:       dispatcher,
	}
}

func taskResponse(task *models.Task) dto.TaskResponse {
	resp := dto.TaskResponse{
		ID:           task.ID,
		WorkspaceID:  task.WorkspaceID,
		Title:        task.Title,
		Description:  task.Description,
		Priority:     task.Priority,
		Status:       task.Status,
		DueDate:      task.DueDate,
		AssigneeID:   task.AssigneeID,
		CreatedBy:    task.CreatedBy,
		DisplayOrder: task.DisplayOrder,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}
	if task.Assignee != nil {
		assignee := userResponse(task.Assignee)
		resp.Assignee = &assignee
	}
	return resp
}

func (h *TaskHandler) Create(c *drift.Context) {
	member := requireMember(c, h.workspaceService)
	if member == nil {
		return
	}

	var req dto.CreateTaskRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Title == "" || len(req.Title) > 255 {
		c.BadRequest("title must be between 1 and 255 characters")
		return
	}

	task, evts, err := h.taskService.Create(context.Background(), member.WorkspaceID, member.UserID, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		DueDate:     req.DueDate,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		c.BadRequest(err.Error())
		return
	}

	h.dispatcher.Dispatch(evts...)

	_ = c.JSON(201, taskResponse(task))
}

func (h *TaskHandler) List(c *drift.Context) {
	member := requireMember(c, h.workspaceService)
	if member == nil {
		return
	}

	filter := services.TaskFilter{
		Status: c.QueryParam("status"),
	}
	if filter.Status != "" && !models.ValidTaskStatus(filter.Status) {
		c.BadRequest("invalid status filter")
		return
	}
	if assignee := c.QueryParam("assignee_id"); assignee != "" {
		id, err := uuid.Parse(assignee)
		if err != nil {
			c.BadRequest("invalid assignee id")
			return
		}
		filter.AssigneeID = &id
	}

	tasks, err := h.taskService.List(context.Background(), member.WorkspaceID, filter)
	if err != nil {
		c.InternalServerError("failed to list tasks")
		return
	}

	resp := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		resp = append(resp, taskResponse(&tasks[i]))
	}

	_ = c.JSON(200, resp)
}

func (h *TaskHandler) Get(c *drift.Context) {
	member := requireMember(c, h.workspaceService)
	if member == nil {
		return
	}

	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.BadRequest("invalid task id")
		return
	}

	task, err := h.taskService.Get(context.Background(), member.WorkspaceID, taskID)
	if err != nil {
		c.NotFound("task not found")
		return
	}

	_ = c.JSON(200, taskResponse(task))
}

func (h *TaskHandler) Update(c *drift.Context) {
	member := requireMember(c, h.workspaceService)
	if member == nil {
		return
	}

	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.BadRequest("invalid task id")
		return
	}

	var req dto.UpdateTaskRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Title != nil && (*req.Title == "" || len(*req.Title) > 255) {
		c.BadRequest("title must be between 1 and 255 characters")
		return
	}

	task, evts, err := h.taskService.Update(context.Background(), member.WorkspaceID, taskID, member.UserID, services.UpdateTaskInput{
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		Status:        req.Status,
		DueDate:       req.DueDate,
		ClearDue:      req.ClearDueDate,
		AssigneeID:    req.AssigneeID,
		ClearAssignee: req.ClearAssignee,
	})
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			c.NotFound("task not found")
			return
		}
		c.BadRequest(err.Error())
		return
	}

	h.dispatcher.Dispatch(evts...)

	_ = c.JSON(200, taskResponse(task))
}

func (h *TaskHandler) Complete(c *drift.Context) {
	member := requireMember(c, h.workspaceService)
	if member == nil {
		return
	}

	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.BadRequest("invalid task id")
		return
	}

	task, evts, err := h.taskService.Complete(context.Background(), member.WorkspaceID, taskID, member.UserID)
	if err != nil {
		c.NotFound("task not found")
		return
	}

	h.dispatcher.Dispatch(evts...)

	_ = c.JSON(200, taskResponse(task))
}

func (h *TaskHandler) Delete(c *drift.Context) {
	member := requireMember(c, h.workspaceService)
	if member == nil {
		return
	}

	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.BadRequest("invalid task id")
		return
	}

	evts, err := h.taskService.Delete(context.Background(), member.WorkspaceID, taskID, member.UserID)
	if err != nil {
		c.NotFound("task not found")
		return
	}

	h.dispatcher.Dispatch(evts...)

	_ = c.JSON(200, map[string]string{"message": "task deleted"})
}

func (h *TaskHandler) Reorder(c *drift.Context) {
	member := requireMember(c, h.workspaceService)
	if member == nil {
		return
	}

	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.BadRequest("invalid task id")
		return
	}

	var req dto.ReorderTaskRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	task, err := h.taskService.Reorder(context.Background(), member.WorkspaceID, taskID, req.PrevKey, req.NextKey)
	if err != nil {
		c.NotFound("task not found")
		return
	}

	_ = c.JSON(200, taskResponse(task))
}
