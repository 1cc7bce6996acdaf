// Package items is the demo resource served by ultracache-server and used by
// the end-to-end tests: GET /items/{item_id} returns {"item_id": <id>}.
package items

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/Sternrassler/ultracache/pkg/ultracache"
	"github.com/go-chi/chi/v5"
)

// Item is the cached resource.
type Item struct {
	ItemID int `json:"item_id"`
}

// Service serves items through a cache.
type Service struct {
	get   *ultracache.Cached[Item]
	loads atomic.Int64
}

// NewService wraps the item loader with c. Extra wrap options are passed
// through, e.g. ultracache.Blocking().
func NewService(c *ultracache.UltraCache, opts ...ultracache.WrapOption) *Service {
	s := &Service{}
	opts = append([]ultracache.WrapOption{ultracache.WithName("items.readItem")}, opts...)
	s.get = ultracache.Wrap(c, s.readItem, opts...)
	return s
}

func (s *Service) readItem(_ context.Context, call ultracache.Call) (Item, error) {
	id, ok := call.Kwargs["item_id"].(int)
	if !ok {
		return Item{}, &ultracache.BadRequestError{Err: fmt.Errorf("item_id missing")}
	}
	s.loads.Add(1)
	return Item{ItemID: id}, nil
}

// Loads returns how often the loader ran, i.e. the number of misses.
func (s *Service) Loads() int64 {
	return s.loads.Load()
}

// Get returns the cached item handle.
func (s *Service) Get() *ultracache.Cached[Item] {
	return s.get
}

// Routes mounts the item endpoints on r.
func (s *Service) Routes(r chi.Router) {
	h := ultracache.Handler(s.get, BindItemID)
	r.Get("/items/{item_id}", h)
	r.Head("/items/{item_id}", h)
}

// BindItemID reads the item_id path parameter.
func BindItemID(r *http.Request) ([]any, map[string]any, error) {
	raw := chi.URLParam(r, "item_id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return nil, nil, &ultracache.BadRequestError{Err: fmt.Errorf("invalid item_id %q", raw)}
	}
	return nil, map[string]any{"item_id": id}, nil
}
