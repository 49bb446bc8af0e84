// Package demo builds the example router served by procd.
package demo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bjaus/procedure"
)

// GreetInput is the input of the greeting procedure.
type GreetInput struct {
	Name string `json:"name"`
}

// Validate implements the validation hook of procedure.JSON.
func (in GreetInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}

// Post is a stored post.
type Post struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author,omitempty"`
}

// CreatePostInput is the input of posts.create.
type CreatePostInput struct {
	Title string `json:"title"`
}

// Validate implements the validation hook of procedure.JSON.
func (in CreatePostInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return errors.New("title is required")
	}
	return nil
}

// ByIDInput selects one post.
type ByIDInput struct {
	ID int `json:"id"`
}

// Store keeps posts in memory.
type Store struct {
	mu    sync.RWMutex
	posts map[int]Post
	next  int
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{posts: make(map[int]Post), next: 1}
}

// Add stores a post and returns it with its ID.
func (s *Store) Add(title, author string) Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := Post{ID: s.next, Title: title, Author: author}
	s.posts[p.ID] = p
	s.next++
	return p
}

// Get returns the post with the given ID.
func (s *Store) Get(id int) (Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	return p, ok
}

// List returns all posts ordered by ID.
func (s *Store) List() []Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Authenticate reads the "token" context value set by the transport and
// adds "user". Calls without a token fail with UNAUTHORIZED.
var Authenticate = procedure.Declare(func(ctx context.Context, req procedure.Request, next procedure.Next) (any, error) {
	token := req.Values.String("token")
	user, ok := strings.CutPrefix(token, "user:")
	if !ok || user == "" {
		return nil, procedure.NewError(procedure.CodeUnauthorized, "a valid token is required")
	}
	return next(procedure.Values{"user": user})
}, "user")

// NewRouter returns the demo router over store. Extra middleware is applied
// to every procedure, outermost first.
func NewRouter(store *Store, mws ...procedure.Middleware) (*procedure.Router, error) {
	base := procedure.Query().Use(mws...)

	greetings, err := procedure.NewRouter(procedure.Routes{
		"hello": base.Handle(func(ctx context.Context, req procedure.Request) (any, error) {
			return "world", nil
		}),
		"greeting": base.Input(procedure.JSON[GreetInput]()).Handle(func(ctx context.Context, req procedure.Request) (any, error) {
			return "hello " + req.Input.(GreetInput).Name, nil
		}),
	})
	if err != nil {
		return nil, err
	}

	posts, err := procedure.NewRouter(procedure.Routes{
		"list": base.HandleFunc(func(ctx context.Context, input any) (any, error) {
			return store.List(), nil
		}),
		"byId": base.Input(procedure.JSON[ByIDInput]()).Handle(func(ctx context.Context, req procedure.Request) (any, error) {
			id := req.Input.(ByIDInput).ID
			p, ok := store.Get(id)
			if !ok {
				return nil, procedure.Errorf(procedure.CodeNotFound, "no post with id %d", id)
			}
			return p, nil
		}),
		"create": procedure.Mutation().
			Use(mws...).
			Use(Authenticate).
			Meta(procedure.Meta{"auth": true}).
			Input(procedure.Guard(procedure.HasFields("title"))).
			Input(procedure.JSON[CreatePostInput]()).
			Handle(func(ctx context.Context, req procedure.Request) (any, error) {
				user, err := procedure.ValueOf[string](req.Values, "user")
				if err != nil {
					return nil, err
				}
				return store.Add(req.Input.(CreatePostInput).Title, user), nil
			}),
		"onAdd": procedure.Subscription().Use(mws...).Handle(func(ctx context.Context, req procedure.Request) (any, error) {
			return nil, fmt.Errorf("subscriptions need a streaming transport")
		}),
	})
	if err != nil {
		return nil, err
	}

	return procedure.Merge(
		greetings,
		procedure.MustRouter(procedure.Routes{"posts": posts}),
	)
}
