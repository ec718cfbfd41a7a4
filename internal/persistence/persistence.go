// Package persistence durably stores the whitelisted slice of the posts
// state and restores it at process start.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"

	"github.com/Rabinkhulimuli/blog-post-web-app/internal/entities"
	"github.com/Rabinkhulimuli/blog-post-web-app/internal/storage"
)

var log = logrus.WithField("layer", "persistence")

// rootKey is the fixed storage key the whole snapshot lives under.
const rootKey = "persist:root"

// persistedState is the whitelisted subset of the posts state. Remotely
// fetched posts are re-fetched each session and never stored.
type persistedState struct {
	UserPosts []entities.Post `json:"userPosts"`
}

// Persister stores and restores locally authored posts.
type Persister struct {
	s storage.Storage
}

// New creates new instance of Persister.
func New(s storage.Storage) *Persister {
	return &Persister{
		s: s,
	}
}

// Rehydrate returns previously persisted user posts. A missing key or a
// malformed payload degrades to an empty state, it is never an error.
func (p *Persister) Rehydrate(ctx context.Context) []entities.Post {
	b, err := p.s.Get(ctx, rootKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.WithError(err).Warn("failed to read persisted state")
		}
		return nil
	}

	var state persistedState
	if err := json.Unmarshal(b, &state); err != nil {
		log.WithError(err).Warn("failed to decode persisted state")
		return nil
	}

	out := make([]entities.Post, len(state.UserPosts))
	for i := range state.UserPosts {
		out[i] = entities.Normalize(state.UserPosts[i])
	}

	if log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		log.Debugf("rehydrated state: %s", spew.Sdump(out))
	}

	return out
}

// Save writes the user posts snapshot under the root key.
func (p *Persister) Save(ctx context.Context, userPosts []entities.Post) error {
	if userPosts == nil {
		userPosts = []entities.Post{}
	}

	b, err := json.Marshal(persistedState{UserPosts: userPosts})
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := p.s.Set(ctx, rootKey, b); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}

	return nil
}
