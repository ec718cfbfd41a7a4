// Package store contains the posts state container. It is the single
// source of truth for post data and reaction state: it mediates between
// the remote post source and all consumers, mirrors locally authored
// posts to the persister and applies every mutation atomically.
package store

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Rabinkhulimuli/blog-post-web-app/internal/entities"
	"github.com/Rabinkhulimuli/blog-post-web-app/internal/source"
)

var log = logrus.WithField("layer", "store")

// Collection selects which post population an operation targets.
type Collection string

const (
	// CollectionAPIPosts ...
	CollectionAPIPosts Collection = "apiPosts"
	// CollectionUserPosts ...
	CollectionUserPosts Collection = "userPosts"
	// CollectionSelectedPost ...
	CollectionSelectedPost Collection = "selectedPost"
)

// ParseCollection ...
func ParseCollection(s string) (Collection, bool) {
	switch c := Collection(s); c {
	case CollectionAPIPosts, CollectionUserPosts, CollectionSelectedPost:
		return c, true
	default:
		return "", false
	}
}

// Persister mirrors committed changes of the user posts slice to durable
// storage.
type Persister interface {
	Save(ctx context.Context, userPosts []entities.Post) error
}

// State is a read snapshot of the container. Err is empty when the last
// load succeeded.
type State struct {
	APIPosts     []entities.Post
	UserPosts    []entities.Post
	Loading      bool
	Err          string
	SelectedPost *entities.Post
}

// Store ...
type Store struct {
	src       source.Source
	persister Persister

	mu        sync.Mutex
	apiPosts  []entities.Post
	userPosts []entities.Post
	selected  *entities.Post
	loading   bool
	err       string
}

// Option ...
type Option func(s *Store)

// WithPersister makes the store write the user posts slice through p on
// every committed change.
func WithPersister(p Persister) Option {
	return func(s *Store) {
		s.persister = p
	}
}

// WithUserPosts seeds the container with rehydrated user posts.
func WithUserPosts(posts []entities.Post) Option {
	return func(s *Store) {
		s.userPosts = make([]entities.Post, len(posts))
		for i := range posts {
			s.userPosts[i] = entities.Normalize(posts[i])
		}
	}
}

// New creates new instance of Store.
func New(src source.Source, opts ...Option) *Store {
	s := &Store{
		src: src,
	}

	for _, o := range opts {
		o(s)
	}

	return s
}

// LoadPosts replaces the remotely fetched posts with the current state of
// the remote source. A failure is recorded in Err and keeps the stale
// posts visible. There is no ordering guarantee between concurrent loads,
// the response applied last wins.
func (s *Store) LoadPosts(ctx context.Context) {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()

	posts, err := s.src.ListPosts(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = false

	if err != nil {
		log.WithError(err).Error("failed to load posts")
		s.err = err.Error()
		return
	}

	out := make([]entities.Post, len(posts))
	for i := range posts {
		out[i] = entities.Normalize(posts[i])
	}
	s.apiPosts = out
}

// LoadPostByID fetches a single post into the selected slot. The slot is
// cleared while the request is in flight so stale detail data is never
// shown during a transition.
func (s *Store) LoadPostByID(ctx context.Context, id string) {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.selected = nil
	s.mu.Unlock()

	post, err := s.src.GetPost(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = false

	if err != nil {
		log.WithError(err).WithField("id", id).Error("failed to load post")
		s.err = err.Error()
		return
	}

	p := entities.Normalize(post)
	s.selected = &p
}

// CreatePost appends a locally authored post. The caller supplies all
// display fields including a unique id; ids are not checked against
// existing posts. The normalized post is returned.
func (s *Store) CreatePost(ctx context.Context, post entities.Post) entities.Post {
	p := entities.Normalize(post)

	s.mu.Lock()
	s.userPosts = append(s.userPosts, p)
	snap := clonePosts(s.userPosts)
	s.mu.Unlock()

	s.persist(ctx, snap)

	return p.Clone()
}

// UpdatePost replaces the user post with a matching id wholesale. An
// unknown id is a silent no-op, callers needing failure feedback must
// check existence first.
func (s *Store) UpdatePost(ctx context.Context, post entities.Post) {
	s.mu.Lock()

	idx := -1
	for i := range s.userPosts {
		if s.userPosts[i].ID == post.ID {
			idx = i
			break
		}
	}

	if idx == -1 {
		s.mu.Unlock()
		return
	}

	s.userPosts[idx] = entities.Normalize(post)
	snap := clonePosts(s.userPosts)
	s.mu.Unlock()

	s.persist(ctx, snap)
}

// DeletePost removes all user posts with the given id. Deleting an
// unknown id is a no-op, the operation is idempotent.
func (s *Store) DeletePost(ctx context.Context, id string) {
	s.mu.Lock()

	out := s.userPosts[:0]
	for _, p := range s.userPosts {
		if p.ID != id {
			out = append(out, p)
		}
	}

	if len(out) == len(s.userPosts) {
		s.mu.Unlock()
		return
	}

	s.userPosts = out
	snap := clonePosts(s.userPosts)
	s.mu.Unlock()

	s.persist(ctx, snap)
}

// React toggles the user's reaction on the target post. Reacting with the
// active kind retracts it, reacting with the other kind switches the vote
// atomically. An absent target, unknown kind or empty user id is a no-op.
// The id argument is ignored for the selected post collection, the slot
// itself is the target.
func (s *Store) React(ctx context.Context, c Collection, id string, kind entities.ReactionKind, userID string) {
	if !kind.Valid() || userID == "" {
		return
	}

	s.mu.Lock()

	var target *entities.Post
	switch c {
	case CollectionAPIPosts:
		target = findPost(s.apiPosts, id)
	case CollectionUserPosts:
		target = findPost(s.userPosts, id)
	case CollectionSelectedPost:
		target = s.selected
	}

	if target == nil {
		s.mu.Unlock()
		return
	}

	toggleReaction(target, kind, userID)

	var snap []entities.Post
	if c == CollectionUserPosts {
		snap = clonePosts(s.userPosts)
	}
	s.mu.Unlock()

	if snap != nil {
		s.persist(ctx, snap)
	}
}

// SetSelectedPost sets the selected slot directly, it is used when
// navigating into a detail view from already loaded data. A nil post
// clears the slot.
func (s *Store) SetSelectedPost(post *entities.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if post == nil {
		s.selected = nil
		return
	}

	p := entities.Normalize(*post)
	s.selected = &p
}

// State returns a deep copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := State{
		APIPosts:  clonePosts(s.apiPosts),
		UserPosts: clonePosts(s.userPosts),
		Loading:   s.loading,
		Err:       s.err,
	}

	if s.selected != nil {
		p := s.selected.Clone()
		out.SelectedPost = &p
	}

	return out
}

// Post returns a copy of the post with the given id from the collection.
func (s *Store) Post(c Collection, id string) (entities.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target *entities.Post
	switch c {
	case CollectionAPIPosts:
		target = findPost(s.apiPosts, id)
	case CollectionUserPosts:
		target = findPost(s.userPosts, id)
	case CollectionSelectedPost:
		target = s.selected
	}

	if target == nil {
		return entities.Post{}, false
	}

	return target.Clone(), true
}

// toggleReaction is the single implementation of the reaction algorithm,
// shared by all collection variants.
func toggleReaction(p *entities.Post, kind entities.ReactionKind, userID string) {
	if p.UserReactions == nil {
		p.UserReactions = make(map[string]entities.ReactionKind)
	}

	prev, ok := p.UserReactions[userID]

	// retraction
	if ok && prev == kind {
		p.Reactions.Remove(kind)
		delete(p.UserReactions, userID)
		return
	}

	// switch undoes the previous vote first
	if ok {
		p.Reactions.Remove(prev)
	}

	p.Reactions.Add(kind)
	p.UserReactions[userID] = kind
}

func (s *Store) persist(ctx context.Context, userPosts []entities.Post) {
	if s.persister == nil {
		return
	}

	if err := s.persister.Save(ctx, userPosts); err != nil {
		log.WithError(err).Error("failed to persist user posts")
	}
}

func findPost(posts []entities.Post, id string) *entities.Post {
	for i := range posts {
		if posts[i].ID == id {
			return &posts[i]
		}
	}

	return nil
}

func clonePosts(posts []entities.Post) []entities.Post {
	out := make([]entities.Post, len(posts))
	for i := range posts {
		out[i] = posts[i].Clone()
	}

	return out
}
