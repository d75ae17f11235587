package board

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"boardd/pkg/cerr"
)

// Server exposes the store over HTTP/JSON. Handlers record their outcome
// through the cerr response receiver; the middleware installed around the
// /api subtree writes the body.
type Server struct {
	store *Store
}

func NewServer(store *Store) *Server {
	return &Server{store: store}
}

// RegisterRoutes mounts all board endpoints on r.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", s.createTask)
		r.Get("/", s.listTasks)
		r.Post("/bulk-assign", s.bulkAssignOwner)
		r.Route("/{taskID}", func(r chi.Router) {
			r.Get("/", s.getTask)
			r.Delete("/", s.deleteTask)
			r.Post("/owners", s.addOwnerToTask)
			r.Put("/owners", s.transferOwnership)
			r.Delete("/owners", s.clearTaskOwners)
			r.Delete("/owners/{owner}", s.removeOwnerFromTask)
		})
	})
	r.Route("/owners", func(r chi.Router) {
		r.Get("/", s.listOwners)
		r.Post("/", s.registerOwner)
		r.Get("/suggestions", s.ownerSuggestions)
		r.Get("/names", s.uniqueOwners)
		r.Post("/recompute", s.recomputeStatistics)
		r.Delete("/{owner}", s.removeOwner)
	})
}

type createTaskRequest struct {
	Title  string `json:"title"`
	Status string `json:"status"`
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createTaskRequest
	if !decodeJSON(ctx, r, &req) {
		return
	}
	t, err := s.store.CreateTask(ctx, req.Title, req.Status)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, t)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	var tasks []*Task
	switch {
	case q.Get("owner") != "":
		tasks = s.store.TasksByOwner(q.Get("owner"))
	case q.Get("unowned") == "true":
		tasks = s.store.UnownedTasks()
	default:
		tasks = s.store.ListTasks()
	}
	if tasks == nil {
		tasks = []*Task{}
	}
	cerr.SetJSONResponse(ctx, map[string]any{"tasks": tasks})
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t := s.store.GetTask(chi.URLParam(r, "taskID"))
	if t == nil {
		cerr.SetNewJSONError(ctx, cerr.NotFound, "task not found", nil)
		return
	}
	cerr.SetJSONResponse(ctx, t)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.store.DeleteTask(ctx, chi.URLParam(r, "taskID")); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{})
}

type ownerRequest struct {
	Name string `json:"name"`
}

func (s *Server) addOwnerToTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ownerRequest
	if !decodeJSON(ctx, r, &req) {
		return
	}
	if err := s.store.AddOwnerToTask(ctx, chi.URLParam(r, "taskID"), req.Name); err != nil {
		setOwnerError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{})
}

func (s *Server) removeOwnerFromTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name, ok := pathOwner(ctx, r)
	if !ok {
		return
	}
	s.store.RemoveOwnerFromTask(ctx, chi.URLParam(r, "taskID"), name)
	cerr.SetJSONResponse(ctx, map[string]any{})
}

func (s *Server) transferOwnership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ownerRequest
	if !decodeJSON(ctx, r, &req) {
		return
	}
	if err := s.store.TransferOwnership(ctx, chi.URLParam(r, "taskID"), req.Name); err != nil {
		setOwnerError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{})
}

func (s *Server) clearTaskOwners(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.store.ClearTaskOwners(ctx, chi.URLParam(r, "taskID"))
	cerr.SetJSONResponse(ctx, map[string]any{})
}

type bulkAssignRequest struct {
	TaskIDs []string `json:"taskIds"`
	Name    string   `json:"name"`
}

func (s *Server) bulkAssignOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req bulkAssignRequest
	if !decodeJSON(ctx, r, &req) {
		return
	}
	res, err := s.store.BulkAssignOwner(ctx, req.TaskIDs, req.Name)
	if err != nil {
		setOwnerError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, res)
}

func (s *Server) listOwners(w http.ResponseWriter, r *http.Request) {
	cerr.SetJSONResponse(r.Context(), map[string]any{"owners": s.store.OwnersWithStats()})
}

func (s *Server) registerOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ownerRequest
	if !decodeJSON(ctx, r, &req) {
		return
	}
	name, err := s.store.RegisterOwner(ctx, req.Name)
	if err != nil {
		setOwnerError(ctx, err)
		return
	}
	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, map[string]any{"name": name})
}

func (s *Server) removeOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name, ok := pathOwner(ctx, r)
	if !ok {
		return
	}
	updated := s.store.RemoveOwner(ctx, name)
	cerr.SetJSONResponse(ctx, map[string]any{"tasksUpdated": updated})
}

func (s *Server) ownerSuggestions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	suggestions := s.store.OwnerSuggestions(r.URL.Query().Get("q"))
	if suggestions == nil {
		suggestions = []OwnerSuggestion{}
	}
	cerr.SetJSONResponse(ctx, map[string]any{"suggestions": suggestions})
}

func (s *Server) uniqueOwners(w http.ResponseWriter, r *http.Request) {
	cerr.SetJSONResponse(r.Context(), map[string]any{"names": s.store.UniqueOwners()})
}

func (s *Server) recomputeStatistics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.store.RecomputeStatistics(ctx)
	cerr.SetJSONResponse(ctx, map[string]any{})
}

// decodeJSON reads the request body into v, recording an InvalidArgument
// error and returning false on malformed input.
func decodeJSON(ctx context.Context, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return false
	}
	return true
}

// pathOwner decodes the {owner} path parameter; owner names may contain
// spaces and apostrophes and arrive percent-encoded.
func pathOwner(ctx context.Context, r *http.Request) (string, bool) {
	name, err := url.PathUnescape(chi.URLParam(r, "owner"))
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid owner name encoding", err)
		return "", false
	}
	return name, true
}

// setOwnerError maps domain validation outcomes onto the transport error
// layer; anything else passes through untouched.
func setOwnerError(ctx context.Context, err error) {
	var oe *OwnerError
	if errors.As(err, &oe) {
		cerr.SetJSONError(ctx, oe.Cerr())
		return
	}
	cerr.SetJSONError(ctx, err)
}
