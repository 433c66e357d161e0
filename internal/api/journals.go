// ABOUTME: HTTP handlers for journals and their tasks
// ABOUTME: Every handler acts on behalf of the authenticated user from the request context

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/2389/journal-gateway/internal/auth"
	"github.com/2389/journal-gateway/internal/store"
)

// CreateJournalRequest is the JSON request body for POST /journals.
type CreateJournalRequest struct {
	Title string `json:"title"`
	Notes string `json:"notes"`
}

// UpdateJournalRequest is the JSON request body for PATCH /journals/{id}.
type UpdateJournalRequest struct {
	Notes string `json:"notes"`
}

// CreateTaskRequest is the JSON request body for POST /journals/{id}/tasks.
type CreateTaskRequest struct {
	Task string  `json:"task" validate:"required"`
	Time *string `json:"time"`
}

// UpdateTaskRequest is the JSON request body for PATCH /tasks/{id}.
// A missing or null completed field leaves the task unchanged.
type UpdateTaskRequest struct {
	Completed *bool `json:"completed"`
}

// JournalResponse is the JSON representation of a journal.
type JournalResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Notes     string `json:"notes"`
	NotesHTML string `json:"notes_html"`
	CreatedAt string `json:"created_at"`
}

// ListJournalsResponse is the JSON response for GET /journals.
type ListJournalsResponse struct {
	Journals []JournalResponse `json:"journals"`
}

// TaskResponse is the JSON representation of a task.
type TaskResponse struct {
	ID        string  `json:"id"`
	JournalID string  `json:"journal_id"`
	Task      string  `json:"task"`
	Time      *string `json:"time"`
	Completed bool    `json:"completed"`
	CreatedAt string  `json:"created_at"`
}

// ListTasksResponse is the JSON response for GET /journals/{id}/tasks.
type ListTasksResponse struct {
	Tasks []TaskResponse `json:"tasks"`
}

// SingleTaskResponse wraps a task for PATCH and DELETE /tasks/{id}.
type SingleTaskResponse struct {
	Task TaskResponse `json:"task"`
}

func (a *API) newJournalResponse(j *store.Journal) JournalResponse {
	return JournalResponse{
		ID:        j.ID,
		Title:     j.Title,
		Notes:     j.Notes,
		NotesHTML: a.renderNotes(j.Notes),
		CreatedAt: j.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func newTaskResponse(t *store.Task) TaskResponse {
	return TaskResponse{
		ID:        t.ID,
		JournalID: t.JournalID,
		Task:      t.Text,
		Time:      t.Time,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// handleCreateJournal handles POST /journals.
func (a *API) handleCreateJournal(w http.ResponseWriter, r *http.Request) {
	var req CreateJournalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	principal := auth.MustFromContext(r.Context()).Principal
	j, err := a.journals.CreateJournal(r.Context(), principal, req.Title, req.Notes)
	if err != nil {
		a.sendServiceError(w, r, err)
		return
	}

	a.sendJSON(w, http.StatusOK, a.newJournalResponse(j))
}

// handleListJournals handles GET /journals.
func (a *API) handleListJournals(w http.ResponseWriter, r *http.Request) {
	principal := auth.MustFromContext(r.Context()).Principal
	journals, err := a.journals.ListJournals(r.Context(), principal)
	if err != nil {
		a.sendServiceError(w, r, err)
		return
	}

	resp := ListJournalsResponse{Journals: make([]JournalResponse, 0, len(journals))}
	for _, j := range journals {
		resp.Journals = append(resp.Journals, a.newJournalResponse(j))
	}
	a.sendJSON(w, http.StatusOK, resp)
}

// handleGetJournal handles GET /journals/{id}.
func (a *API) handleGetJournal(w http.ResponseWriter, r *http.Request) {
	principal := auth.MustFromContext(r.Context()).Principal
	j, err := a.journals.GetJournal(r.Context(), principal, mux.Vars(r)["id"])
	if err != nil {
		a.sendServiceError(w, r, err)
		return
	}
	a.sendJSON(w, http.StatusOK, a.newJournalResponse(j))
}

// handleUpdateJournal handles PATCH /journals/{id}.
func (a *API) handleUpdateJournal(w http.ResponseWriter, r *http.Request) {
	var req UpdateJournalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	principal := auth.MustFromContext(r.Context()).Principal
	j, err := a.journals.UpdateJournalNotes(r.Context(), principal, mux.Vars(r)["id"], req.Notes)
	if err != nil {
		a.sendServiceError(w, r, err)
		return
	}
	a.sendJSON(w, http.StatusOK, a.newJournalResponse(j))
}

// handleCreateTask handles POST /journals/{id}/tasks.
func (a *API) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	principal := auth.MustFromContext(r.Context()).Principal
	t, err := a.journals.CreateTask(r.Context(), principal, mux.Vars(r)["id"], req.Task, req.Time)
	if err != nil {
		a.sendServiceError(w, r, err)
		return
	}
	a.sendJSON(w, http.StatusOK, newTaskResponse(t))
}

// handleListTasks handles GET /journals/{id}/tasks.
func (a *API) handleListTasks(w http.ResponseWriter, r *http.Request) {
	principal := auth.MustFromContext(r.Context()).Principal
	tasks, err := a.journals.ListTasks(r.Context(), principal, mux.Vars(r)["id"])
	if err != nil {
		a.sendServiceError(w, r, err)
		return
	}

	resp := ListTasksResponse{Tasks: make([]TaskResponse, 0, len(tasks))}
	for _, t := range tasks {
		resp.Tasks = append(resp.Tasks, newTaskResponse(t))
	}
	a.sendJSON(w, http.StatusOK, resp)
}

// handleUpdateTask handles PATCH /tasks/{id}.
func (a *API) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req UpdateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	principal := auth.MustFromContext(r.Context()).Principal
	t, err := a.journals.UpdateTaskCompletion(r.Context(), principal, mux.Vars(r)["id"], req.Completed)
	if err != nil {
		a.sendServiceError(w, r, err)
		return
	}
	a.sendJSON(w, http.StatusOK, SingleTaskResponse{Task: newTaskResponse(t)})
}

// handleDeleteTask handles DELETE /tasks/{id}.
func (a *API) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	principal := auth.MustFromContext(r.Context()).Principal
	t, err := a.journals.DeleteTask(r.Context(), principal, mux.Vars(r)["id"])
	if err != nil {
		a.sendServiceError(w, r, err)
		return
	}
	a.sendJSON(w, http.StatusOK, SingleTaskResponse{Task: newTaskResponse(t)})
}
