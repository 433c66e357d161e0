// ABOUTME: REST API routing for users, journals and tasks
// ABOUTME: Registers gorilla/mux routes and maps service errors to HTTP status codes

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/2389/journal-gateway/internal/accounts"
	"github.com/2389/journal-gateway/internal/auth"
	"github.com/2389/journal-gateway/internal/journal"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// API serves the journal REST endpoints.
type API struct {
	accounts *accounts.Service
	journals *journal.Service
	logger   *slog.Logger
}

// New creates an API over the given services.
func New(accountsSvc *accounts.Service, journalSvc *journal.Service, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		accounts: accountsSvc,
		journals: journalSvc,
		logger:   logger.With("component", "api"),
	}
}

// Register adds the API routes to r. Routes other than registration and
// login require a session token.
func (a *API) Register(r *mux.Router) {
	requireAuth := auth.HTTPAuthMiddleware(a.accounts, a.logger)
	protected := func(h http.HandlerFunc) http.Handler {
		return requireAuth(h)
	}

	r.HandleFunc("/users", a.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/users/login", a.handleLogin).Methods(http.MethodPost)
	r.Handle("/users/me", protected(a.handleMe)).Methods(http.MethodGet)
	r.Handle("/users/me/token", protected(a.handleLogout)).Methods(http.MethodDelete)

	r.Handle("/journals", protected(a.handleCreateJournal)).Methods(http.MethodPost)
	r.Handle("/journals", protected(a.handleListJournals)).Methods(http.MethodGet)
	r.Handle("/journals/{id}", protected(a.handleGetJournal)).Methods(http.MethodGet)
	r.Handle("/journals/{id}", protected(a.handleUpdateJournal)).Methods(http.MethodPatch)
	r.Handle("/journals/{id}/tasks", protected(a.handleCreateTask)).Methods(http.MethodPost)
	r.Handle("/journals/{id}/tasks", protected(a.handleListTasks)).Methods(http.MethodGet)

	r.Handle("/tasks/{id}", protected(a.handleUpdateTask)).Methods(http.MethodPatch)
	r.Handle("/tasks/{id}", protected(a.handleDeleteTask)).Methods(http.MethodDelete)
}

// Handler returns a router with only the API routes, wrapped in CORS.
func (a *API) Handler(corsOrigins []string) http.Handler {
	r := mux.NewRouter()
	a.Register(r)
	return CORS(corsOrigins)(r)
}

// validate checks the `validate` tags on request bodies. Errors name fields
// by their JSON key.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON decodes a request body into dst, rejecting unknown fields and
// trailing data, then applies dst's validation tags.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON body: trailing data")
	}
	if err := validate.Struct(dst); err != nil {
		return validationMessage(err)
	}
	return nil
}

// validationMessage turns the first failed tag into a client-facing error.
func validationMessage(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validation failed: %w", err)
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("validation failed: %s is required", fe.Field())
	case "email":
		return fmt.Errorf("validation failed: %q is not a valid email", fe.Value())
	case "min":
		return fmt.Errorf("validation failed: %s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Errorf("validation failed: %s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Errorf("validation failed: %s is invalid", fe.Field())
	}
}

func (a *API) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Debug("failed to write response", "error", err)
	}
}

// sendJSONError writes a JSON error response with the given status code and message.
func (a *API) sendJSONError(w http.ResponseWriter, status int, message string) {
	a.sendJSON(w, status, map[string]string{"error": message})
}

// sendServiceError maps an accounts or journal error to a status code.
func (a *API) sendServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, accounts.ErrValidationFailed), errors.Is(err, journal.ErrValidationFailed):
		a.sendJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, accounts.ErrDuplicateEmail):
		a.sendJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, accounts.ErrNotFound):
		a.sendJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, journal.ErrInvalidID), errors.Is(err, journal.ErrNotFound):
		// Malformed ids and other users' records look the same as missing ones
		w.WriteHeader(http.StatusNotFound)
	default:
		a.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		a.sendJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}
