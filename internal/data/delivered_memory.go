package data

import (
	"context"

	"github.com/nicwh1988/weibo-stock-alert/internal/biz/repo"
)

// memoryDelivered is the default delivered-ID store: process lifetime,
// grows monotonically, lost on restart. Not safe for concurrent use; the
// pipeline is single-threaded.
type memoryDelivered struct {
	ids map[string]struct{}
}

// NewMemoryDelivered creates an in-memory delivered-ID store.
func NewMemoryDelivered() repo.DeliveredRepo {
	return &memoryDelivered{ids: make(map[string]struct{})}
}

func (s *memoryDelivered) Contains(_ context.Context, id string) (bool, error) {
	_, ok := s.ids[id]
	return ok, nil
}

func (s *memoryDelivered) Add(_ context.Context, id string) error {
	s.ids[id] = struct{}{}
	return nil
}
