package article

import (
	"sync"
	"time"

	errx "github.com/ragbot-core/server/internal/core/error"
)

// Article is the demo board post resource.
type Article struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	Contents        string `json:"contents"`
	ViewCount       int    `json:"view_cnt"`
	IPAddress       string `json:"ip_address"`
	CreatedAt       string `json:"created_at"`
	CreatedMemberID int    `json:"created_memberid"`
}

// Store is an in-memory article table seeded with demo rows.
type Store struct {
	mu       sync.RWMutex
	articles map[int]Article
	nextID   int
}

func NewStore() *Store {
	s := &Store{articles: make(map[int]Article), nextID: 1}
	now := time.Now().UTC().Format(time.RFC3339)
	s.seed(Article{Title: "First post", Contents: "Welcome to the demo board.", CreatedAt: now, CreatedMemberID: 1})
	s.seed(Article{Title: "Second post", Contents: "Nothing here persists across restarts.", CreatedAt: now, CreatedMemberID: 2})
	return s
}

func (s *Store) seed(a Article) {
	a.ID = s.nextID
	s.nextID++
	s.articles[a.ID] = a
}

// List returns all articles ordered by id.
func (s *Store) List() []Article {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Article, 0, len(s.articles))
	for id := 1; id < s.nextID; id++ {
		if a, ok := s.articles[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

func (s *Store) Get(id int) (Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.articles[id]
	if !ok {
		return Article{}, errx.NotFound("article not found")
	}
	return a, nil
}

// Create inserts a new article and returns it with its assigned id.
func (s *Store) Create(title, contents string, memberID int, ip string) Article {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := Article{
		ID:              s.nextID,
		Title:           title,
		Contents:        contents,
		IPAddress:       ip,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
		CreatedMemberID: memberID,
	}
	s.nextID++
	s.articles[a.ID] = a
	return a
}

// Update replaces the title and contents of an existing article.
func (s *Store) Update(id int, title, contents string) (Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.articles[id]
	if !ok {
		return Article{}, errx.NotFound("article not found")
	}
	a.Title = title
	a.Contents = contents
	s.articles[id] = a
	return a, nil
}

func (s *Store) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.articles[id]; !ok {
		return errx.NotFound("article not found")
	}
	delete(s.articles, id)
	return nil
}
