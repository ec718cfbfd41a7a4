package server

import (
	"github.com/Rabinkhulimuli/blog-post-web-app/internal/entities"
	"github.com/Rabinkhulimuli/blog-post-web-app/internal/store"
)

// Error ...
type Error struct {
	Error string `json:"error"`
}

// StateResponse mirrors the sanctioned read contract of the store.
type StateResponse struct {
	APIPosts  []entities.Post `json:"apiPosts"`
	UserPosts []entities.Post `json:"userPosts"`
	Loading   bool            `json:"loading"`
	Error     *string         `json:"error"`
}

// PostResponse ...
type PostResponse struct {
	Post *entities.Post `json:"post"`
}

// ReactionRequest ...
type ReactionRequest struct {
	// Collection is one of apiPosts, userPosts, selectedPost.
	Collection string `json:"collection"`
	// Reaction is one of likes, dislikes.
	Reaction string `json:"reaction"`
	UserID   string `json:"userId"`
}

// RegisterRequest ...
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest ...
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse ...
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LoginResponse ...
type LoginResponse struct {
	AccessToken string       `json:"accessToken"`
	User        UserResponse `json:"user"`
}

func newStateResponse(st store.State) StateResponse {
	out := StateResponse{
		APIPosts:  st.APIPosts,
		UserPosts: st.UserPosts,
		Loading:   st.Loading,
	}

	if out.APIPosts == nil {
		out.APIPosts = []entities.Post{}
	}
	if out.UserPosts == nil {
		out.UserPosts = []entities.Post{}
	}
	if st.Err != "" {
		out.Error = &st.Err
	}

	return out
}
