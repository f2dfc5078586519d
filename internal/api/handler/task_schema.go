package handler

import "time"

type createTaskRequest struct {
	Description string `json:"description" validate:"required,min=5"`
	Status      string `json:"status" validate:"omitempty"`
}

// replaceTaskRequest is the full-replace payload. A missing status is valid
// and coerced to todo by the mutation engine.
type replaceTaskRequest struct {
	Description string `json:"description" validate:"required,min=5"`
	Status      string `json:"status" validate:"omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type taskResponse struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Owner       string    `json:"owner"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type deleteTaskResponse struct {
	TaskID  string `json:"task_id"`
	Message string `json:"message"`
}
