package twin

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/arnavsurve/stepcheck/pkg/types"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// Handler serves the posts collection.
type Handler struct {
	store    *Store
	logger   types.Logger
	validate *validator.Validate
}

func NewHandler(s *Store, logger types.Logger) *Handler {
	return &Handler{
		store:    s,
		logger:   logger,
		validate: validator.New(),
	}
}

// Router mounts the /posts routes behind the common middleware.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(h.requestLog)

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", h.ListPosts)
		r.Post("/", h.CreatePost)
		r.Get("/{id}", h.GetPost)
		r.Put("/{id}", h.ReplacePost)
		r.Patch("/{id}", h.PatchPost)
		r.Delete("/{id}", h.DeletePost)
	})
	return r
}

// ListPosts handles GET /posts, optionally filtered by ?userId=.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	owner := 0
	if v := r.URL.Query().Get("userId"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			// Upstream answers an unparseable filter with an empty list.
			writeJSON(w, http.StatusOK, []Post{})
			return
		}
		owner = n
	}
	writeJSON(w, http.StatusOK, h.store.List(owner))
}

// GetPost handles GET /posts/{id}. A missing post is 404 with an empty object.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, struct{}{})
		return
	}
	p, found := h.store.Get(id)
	if !found {
		writeJSON(w, http.StatusNotFound, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var in PostInput
	if !h.decode(w, r, &in) {
		return
	}
	writeJSON(w, http.StatusCreated, h.store.Create(in))
}

func (h *Handler) ReplacePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, struct{}{})
		return
	}
	var in PostInput
	if !h.decode(w, r, &in) {
		return
	}
	p, found := h.store.Replace(id, in)
	if !found {
		writeJSON(w, http.StatusNotFound, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) PatchPost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, struct{}{})
		return
	}
	var patch PostPatch
	if !h.decode(w, r, &patch) {
		return
	}
	p, found := h.store.Patch(id, patch)
	if !found {
		writeJSON(w, http.StatusNotFound, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePost answers 200 with an empty object whether or not the post existed.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if id, ok := postID(r); ok {
		h.store.Delete(id)
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// decode reads a JSON body into dst and validates it, writing a 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func (h *Handler) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("Handled request")
	})
}

func postID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    status,
		},
	})
}
