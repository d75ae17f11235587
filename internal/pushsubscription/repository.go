package pushsubscription

import "context"

// Repository persists subscriptions. Endpoint-keyed lookups exist because
// the browser only knows its endpoint URL: re-registration and unsubscribe
// both arrive without our id.
type Repository interface {
	Create(ctx context.Context, s *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	List(ctx context.Context) ([]*Subscription, error)
	Delete(ctx context.Context, id string) error
	FindByEndpoint(ctx context.Context, endpoint string) (*Subscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}
