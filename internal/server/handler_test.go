package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rabinkhulimuli/blog-post-web-app/internal/auth"
	"github.com/Rabinkhulimuli/blog-post-web-app/internal/entities"
	sourcemock "github.com/Rabinkhulimuli/blog-post-web-app/internal/source/mock"
	"github.com/Rabinkhulimuli/blog-post-web-app/internal/storage"
	storagemock "github.com/Rabinkhulimuli/blog-post-web-app/internal/storage/mock"
	"github.com/Rabinkhulimuli/blog-post-web-app/internal/store"
)

var ctx = context.Background()

type env struct {
	src    *sourcemock.MockSource
	kv     *storagemock.MockStorage
	store  *store.Store
	router chi.Router
}

func setup(t *testing.T) env {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	src := sourcemock.NewMockSource(ctrl)
	kv := storagemock.NewMockStorage(ctrl)

	s := store.New(src)
	r := chi.NewRouter()
	SetupRouter(s, auth.New(kv), r, 0)

	return env{
		src:    src,
		kv:     kv,
		store:  s,
		router: r,
	}
}

func (e env) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	var r *http.Request
	var err error

	if body == "" {
		r, err = http.NewRequest(method, target, nil)
	} else {
		r, err = http.NewRequest(method, target, strings.NewReader(body))
	}
	require.NoError(t, err)

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)

	return w
}

func Test_getState(t *testing.T) {
	e := setup(t)
	e.store.CreatePost(ctx, entities.Post{ID: "1", Title: "T"})

	w := e.do(t, http.MethodGet, "/v1/posts", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"apiPosts": [],
		"userPosts": [{
			"id":"1","title":"T","content":"","excerpt":"","category":"",
			"author":{"name":"","avatar":""},"readTime":"","date":"",
			"status":"draft","reactions":{"likes":0,"dislikes":0},"userReactions":{}
		}],
		"loading": false,
		"error": null
	}`, w.Body.String())
}

func Test_refreshPosts(t *testing.T) {
	e := setup(t)
	e.src.EXPECT().ListPosts(gomock.Any()).Return([]entities.Post{{ID: "r1", Title: "remote"}}, nil)

	w := e.do(t, http.MethodPost, "/v1/posts/refresh", "")

	require.Equal(t, http.StatusOK, w.Code)

	state := e.store.State()
	require.Len(t, state.APIPosts, 1)
	assert.Equal(t, "r1", state.APIPosts[0].ID)
}

func Test_refreshPosts_sourceError(t *testing.T) {
	e := setup(t)
	e.src.EXPECT().ListPosts(gomock.Any()).Return(nil, errors.New("connection refused"))

	w := e.do(t, http.MethodPost, "/v1/posts/refresh", "")

	// a load failure is state, not an HTTP failure
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"connection refused"`)
}

func Test_getPost(t *testing.T) {
	e := setup(t)
	e.src.EXPECT().GetPost(gomock.Any(), "42").Return(entities.Post{ID: "42", Title: "detail"}, nil)

	w := e.do(t, http.MethodGet, "/v1/posts/42", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"detail"`)
}

func Test_getPost_notFound(t *testing.T) {
	e := setup(t)
	e.src.EXPECT().GetPost(gomock.Any(), "42").Return(entities.Post{}, errors.New("unexpected status 404 Not Found"))

	w := e.do(t, http.MethodGet, "/v1/posts/42", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func Test_createPost(t *testing.T) {
	e := setup(t)

	w := e.do(t, http.MethodPost, "/v1/posts", `{"title":"mine","content":"c","creatorId":"u1"}`)

	require.Equal(t, http.StatusCreated, w.Code)

	state := e.store.State()
	require.Len(t, state.UserPosts, 1)
	assert.NotEmpty(t, state.UserPosts[0].ID)
	assert.Equal(t, "mine", state.UserPosts[0].Title)
	assert.Equal(t, "u1", state.UserPosts[0].CreatorID)
}

func Test_createPost_badBody(t *testing.T) {
	e := setup(t)

	w := e.do(t, http.MethodPost, "/v1/posts", `{"title":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, e.store.State().UserPosts)
}

func Test_updatePost(t *testing.T) {
	e := setup(t)
	e.store.CreatePost(ctx, entities.Post{ID: "1", Title: "old"})

	w := e.do(t, http.MethodPut, "/v1/posts/1", `{"title":"new"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "new", e.store.State().UserPosts[0].Title)
}

func Test_updatePost_notFound(t *testing.T) {
	e := setup(t)

	w := e.do(t, http.MethodPut, "/v1/posts/1", `{"title":"new"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func Test_deletePost(t *testing.T) {
	e := setup(t)
	e.store.CreatePost(ctx, entities.Post{ID: "1"})

	w := e.do(t, http.MethodDelete, "/v1/posts/1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, e.store.State().UserPosts)

	// idempotent
	w = e.do(t, http.MethodDelete, "/v1/posts/1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func Test_react(t *testing.T) {
	e := setup(t)
	e.store.CreatePost(ctx, entities.Post{ID: "1"})

	w := e.do(t, http.MethodPost, "/v1/posts/1/reactions", `{"collection":"userPosts","reaction":"likes","userId":"u1"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"reactions":{"likes":1,"dislikes":0}`)

	// same reaction again is a retraction
	w = e.do(t, http.MethodPost, "/v1/posts/1/reactions", `{"collection":"userPosts","reaction":"likes","userId":"u1"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"reactions":{"likes":0,"dislikes":0}`)
}

func Test_react_badRequest(t *testing.T) {
	e := setup(t)
	e.store.CreatePost(ctx, entities.Post{ID: "1"})

	tt := []struct {
		name string
		body string
	}{
		{"collection", `{"collection":"comments","reaction":"likes","userId":"u1"}`},
		{"reaction", `{"collection":"userPosts","reaction":"wow","userId":"u1"}`},
		{"userId", `{"collection":"userPosts","reaction":"likes","userId":""}`},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			w := e.do(t, http.MethodPost, "/v1/posts/1/reactions", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func Test_react_notFound(t *testing.T) {
	e := setup(t)

	w := e.do(t, http.MethodPost, "/v1/posts/1/reactions", `{"collection":"userPosts","reaction":"likes","userId":"u1"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func Test_register(t *testing.T) {
	e := setup(t)
	e.kv.EXPECT().Get(gomock.Any(), "auth:users").Return(nil, storage.ErrNotFound)
	e.kv.EXPECT().Set(gomock.Any(), "auth:users", gomock.Any()).Return(nil)

	w := e.do(t, http.MethodPost, "/v1/auth/register", `{"name":"Jane","email":"jane@example.com","password":"secret1"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"jane@example.com"`)
	assert.NotContains(t, w.Body.String(), "password")
}

func Test_register_invalid(t *testing.T) {
	e := setup(t)

	w := e.do(t, http.MethodPost, "/v1/auth/register", `{"name":"Jane","email":"nope","password":"secret1"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func Test_login_unknownUser(t *testing.T) {
	e := setup(t)
	e.kv.EXPECT().Get(gomock.Any(), "auth:users").Return(nil, storage.ErrNotFound)

	w := e.do(t, http.MethodPost, "/v1/auth/login", `{"email":"jane@example.com","password":"secret1"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func Test_health(t *testing.T) {
	e := setup(t)

	w := e.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func Test_getState_cached(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	src := sourcemock.NewMockSource(ctrl)
	s := store.New(src)
	r := chi.NewRouter()
	SetupRouter(s, auth.New(storagemock.NewMockStorage(ctrl)), r, time.Minute)

	first := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/v1/posts", nil)
	require.NoError(t, err)
	r.ServeHTTP(first, req)

	s.CreatePost(ctx, entities.Post{ID: "1"})

	second := httptest.NewRecorder()
	req, err = http.NewRequest(http.MethodGet, "/v1/posts", nil)
	require.NoError(t, err)
	r.ServeHTTP(second, req)

	// cached: the mutation is not visible within the ttl
	assert.Equal(t, first.Body.String(), second.Body.String())
}
