// Package entities contains main entities of service.
package entities

// ReactionKind is a vote a user can put on a post.
type ReactionKind string

const (
	// Likes ...
	Likes ReactionKind = "likes"
	// Dislikes ...
	Dislikes ReactionKind = "dislikes"
)

// Valid reports whether k is a known reaction kind.
func (k ReactionKind) Valid() bool {
	return k == Likes || k == Dislikes
}

// PostStatus ...
type PostStatus string

const (
	// StatusDraft ...
	StatusDraft PostStatus = "draft"
	// StatusPublished ...
	StatusPublished PostStatus = "published"
)

// Author is embedded into a post, it is not an owned entity.
type Author struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Bio    string `json:"bio,omitempty"`
}

// Reactions holds aggregate reaction counters of a post.
type Reactions struct {
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
}

// Add increments the counter for k.
func (r *Reactions) Add(k ReactionKind) {
	switch k {
	case Likes:
		r.Likes++
	case Dislikes:
		r.Dislikes++
	}
}

// Remove decrements the counter for k. Counters never go below zero.
func (r *Reactions) Remove(k ReactionKind) {
	switch k {
	case Likes:
		if r.Likes > 0 {
			r.Likes--
		}
	case Dislikes:
		if r.Dislikes > 0 {
			r.Dislikes--
		}
	}
}

// Post ...
type Post struct {
	ID            string                  `json:"id"`
	Title         string                  `json:"title"`
	Content       string                  `json:"content"`
	Excerpt       string                  `json:"excerpt"`
	Category      string                  `json:"category"`
	ImageURL      string                  `json:"imageUrl,omitempty"`
	Author        Author                  `json:"author"`
	ReadTime      string                  `json:"readTime"`
	Date          string                  `json:"date"`
	Status        PostStatus              `json:"status,omitempty"`
	Reactions     Reactions               `json:"reactions"`
	UserReactions map[string]ReactionKind `json:"userReactions"`
	CreatorID     string                  `json:"creatorId,omitempty"`
}

// Clone returns a deep copy of the post.
func (p Post) Clone() Post {
	out := p
	out.UserReactions = make(map[string]ReactionKind, len(p.UserReactions))
	for id, k := range p.UserReactions {
		out.UserReactions[id] = k
	}
	return out
}

// Normalize returns a post satisfying the shape invariants regardless of
// source: non-negative counters, non-nil userReactions without unknown
// kinds, defaulted status. It is applied at every entry point which
// introduces a post into the state.
func Normalize(p Post) Post {
	if p.Reactions.Likes < 0 {
		p.Reactions.Likes = 0
	}
	if p.Reactions.Dislikes < 0 {
		p.Reactions.Dislikes = 0
	}

	if p.Status == "" {
		p.Status = StatusDraft
	}

	// an explicit null reaction means the same as an absent one
	ur := make(map[string]ReactionKind, len(p.UserReactions))
	for id, k := range p.UserReactions {
		if k.Valid() {
			ur[id] = k
		}
	}
	p.UserReactions = ur

	return p
}
