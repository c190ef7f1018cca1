package product

import (
	"sort"
	"sync"
)

type Repository interface {
	Find(id int) (Product, bool)
	Save(p Product)
	Delete(id int)
	List() []Product
}

// Store is an in-memory Repository.
type Store struct {
	sync.RWMutex
	products map[int]Product
}

func NewStore() *Store {
	return &Store{
		products: make(map[int]Product),
	}
}

func (s *Store) Find(id int) (Product, bool) {
	s.RLock()
	defer s.RUnlock()
	p, exists := s.products[id]
	return p, exists
}

func (s *Store) Save(p Product) {
	s.Lock()
	defer s.Unlock()
	s.products[p.ID] = p
}

func (s *Store) Delete(id int) {
	s.Lock()
	defer s.Unlock()
	delete(s.products, id)
}

// List returns products ordered by id.
func (s *Store) List() []Product {
	s.RLock()
	defer s.RUnlock()
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
