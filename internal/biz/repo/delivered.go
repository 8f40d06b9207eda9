package repo

import "context"

// DeliveredRepo tracks post IDs that have already been pushed, so the same
// weibo is never delivered twice. IDs are added only after an acknowledged
// delivery.
type DeliveredRepo interface {
	Contains(ctx context.Context, id string) (bool, error)
	Add(ctx context.Context, id string) error
}
