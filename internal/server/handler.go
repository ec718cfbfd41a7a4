package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Rabinkhulimuli/blog-post-web-app/internal/auth"
	"github.com/Rabinkhulimuli/blog-post-web-app/internal/entities"
	"github.com/Rabinkhulimuli/blog-post-web-app/internal/store"
)

var log = logrus.WithField("layer", "server")

func (s server) getState(w http.ResponseWriter, _ *http.Request) {
	// swagger:operation GET /posts Posts GetState
	//
	// Return the current posts state: the remotely fetched feed, locally
	// authored posts, the loading flag and the last load error.

	writeOK(w, http.StatusOK, newStateResponse(s.s.State()))
}

func (s server) refreshPosts(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /posts/refresh Posts RefreshPosts
	//
	// Reload the feed from the remote post source and return the new
	// state. A source failure is reported in the state's error field, not
	// as an HTTP error, and keeps the stale feed.

	s.s.LoadPosts(r.Context())

	writeOK(w, http.StatusOK, newStateResponse(s.s.State()))
}

func (s server) getPost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /posts/{id} Posts GetPost
	//
	// Fetch a single post from the remote source into the selected slot
	// and return it.

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	s.s.LoadPostByID(r.Context(), id)

	state := s.s.State()
	if state.SelectedPost == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	writeOK(w, http.StatusOK, PostResponse{Post: state.SelectedPost})
}

func (s server) createPost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /posts Posts CreatePost
	//
	// Add a locally authored post. The caller supplies the display
	// fields; a missing id is generated.

	var post entities.Post
	if err := decode(w, r, &post); err != nil {
		writeError(w, http.StatusBadRequest, "failed to decode post")
		return
	}

	if post.ID == "" {
		post.ID = uuid.New().String()
	}

	created := s.s.CreatePost(r.Context(), post)

	writeOK(w, http.StatusCreated, PostResponse{Post: &created})
}

func (s server) updatePost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation PUT /posts/{id} Posts UpdatePost
	//
	// Replace a locally authored post wholesale.

	id := chi.URLParam(r, "id")

	var post entities.Post
	if err := decode(w, r, &post); err != nil {
		writeError(w, http.StatusBadRequest, "failed to decode post")
		return
	}
	post.ID = id

	// the store absorbs unknown ids silently, existence is checked here
	if _, ok := s.s.Post(store.CollectionUserPosts, id); !ok {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	s.s.UpdatePost(r.Context(), post)

	updated, _ := s.s.Post(store.CollectionUserPosts, id)
	writeOK(w, http.StatusOK, PostResponse{Post: &updated})
}

func (s server) deletePost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation DELETE /posts/{id} Posts DeletePost
	//
	// Delete a locally authored post. Deleting is idempotent, an unknown
	// id also answers 204.

	s.s.DeletePost(r.Context(), chi.URLParam(r, "id"))

	w.WriteHeader(http.StatusNoContent)
}

func (s server) react(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /posts/{id}/reactions Posts React
	//
	// Toggle the user's like/dislike on a post of the given collection.

	id := chi.URLParam(r, "id")

	var req ReactionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "failed to decode reaction")
		return
	}

	collection, ok := store.ParseCollection(req.Collection)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid collection")
		return
	}

	kind := entities.ReactionKind(req.Reaction)
	if !kind.Valid() {
		writeError(w, http.StatusBadRequest, "invalid reaction")
		return
	}

	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "invalid userId")
		return
	}

	if _, ok := s.s.Post(collection, id); !ok {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	s.s.React(r.Context(), collection, id, kind, req.UserID)

	post, _ := s.s.Post(collection, id)
	writeOK(w, http.StatusOK, PostResponse{Post: &post})
}

func (s server) register(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /auth/register Auth Register
	//
	// Register a new user.

	var req RegisterRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "failed to decode request")
		return
	}

	u, err := s.a.Register(r.Context(), req.Name, req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, auth.ErrEmailExists):
		writeError(w, http.StatusConflict, "email already registered")
		return
	case err != nil:
		writeInternalError(w, err, "failed to register user")
		return
	}

	writeOK(w, http.StatusCreated, UserResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	})
}

func (s server) login(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /auth/login Auth Login
	//
	// Check credentials and issue an access token.

	var req LoginRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "failed to decode request")
		return
	}

	u, token, err := s.a.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	case err != nil:
		writeInternalError(w, err, "failed to login")
		return
	}

	writeOK(w, http.StatusOK, LoginResponse{
		AccessToken: token,
		User: UserResponse{
			ID:    u.ID,
			Name:  u.Name,
			Email: u.Email,
		},
	})
}

func (s server) health(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, http.StatusOK, struct {
		Status string `json:"status"`
	}{
		Status: "ok",
	})
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeOK(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeOK(w, status, Error{Error: msg})
}

func writeInternalError(w http.ResponseWriter, err error, msg string) {
	log.WithError(err).Error(msg)
	writeError(w, http.StatusInternalServerError, msg)
}
