package twin

import (
	"fmt"
	"sort"
	"sync"
)

// PostsPerOwner is how many seeded posts each owner gets.
const PostsPerOwner = 10

// Store holds the posts collection. In ephemeral mode writes are computed and
// returned but never stored, the way JSONPlaceholder behaves.
type Store struct {
	mu        sync.RWMutex
	posts     map[int]Post
	nextID    int
	ephemeral bool
}

func NewStore(ephemeral bool) *Store {
	return &Store{
		posts:     make(map[int]Post),
		nextID:    1,
		ephemeral: ephemeral,
	}
}

// Seed replaces the collection with n generated posts.
func (s *Store) Seed(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = make(map[int]Post, n)
	for i := 1; i <= n; i++ {
		s.posts[i] = Post{
			ID:      i,
			OwnerID: (i-1)/PostsPerOwner + 1,
			Title:   fmt.Sprintf("post %d", i),
			Body:    fmt.Sprintf("body of post %d", i),
		}
	}
	s.nextID = n + 1
}

func (s *Store) Ephemeral() bool {
	return s.ephemeral
}

// List returns posts ordered by id. ownerID 0 means every owner.
func (s *Store) List(ownerID int) []Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Post, 0, len(s.posts))
	for _, p := range s.posts {
		if ownerID != 0 && p.OwnerID != ownerID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Get(id int) (Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	return p, ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts)
}

func (s *Store) Create(in PostInput) Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := Post{ID: s.nextID, OwnerID: in.OwnerID, Title: in.Title, Body: in.Body}
	if s.ephemeral {
		// The id is handed out again on the next create.
		return p
	}
	s.posts[p.ID] = p
	s.nextID++
	return p
}

func (s *Store) Replace(id int, in PostInput) (Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return Post{}, false
	}
	p := Post{ID: id, OwnerID: in.OwnerID, Title: in.Title, Body: in.Body}
	if !s.ephemeral {
		s.posts[id] = p
	}
	return p, true
}

func (s *Store) Patch(id int, patch PostPatch) (Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return Post{}, false
	}
	p = patch.apply(p)
	if !s.ephemeral {
		s.posts[id] = p
	}
	return p, true
}

// Delete reports whether id existed. Deleting a missing post is not an error,
// matching the upstream service.
func (s *Store) Delete(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.posts[id]
	if ok && !s.ephemeral {
		delete(s.posts, id)
	}
	return ok
}
