package clients

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sigmatax/console/internal/api"
	"github.com/sigmatax/console/internal/util"
)

const basePath = "clients/"

// Repository reads and writes clients.
type Repository interface {
	List(ctx context.Context) ([]Client, error)
	Get(ctx context.Context, id util.ID) (Client, error)
	Create(ctx context.Context, c Client) (Client, error)
	Update(ctx context.Context, id util.ID, c Client) (Client, error)
	Delete(ctx context.Context, id util.ID) error
}

// APIRepository implements Repository over the REST API.
type APIRepository struct {
	client *api.Client
}

// NewRepository binds the repository to a session-scoped API client.
func NewRepository(client *api.Client) *APIRepository {
	return &APIRepository{client: client}
}

func itemPath(id util.ID) string {
	return basePath + url.PathEscape(id.String())
}

func (r *APIRepository) List(ctx context.Context) ([]Client, error) {
	var out []Client
	if err := r.client.Get(ctx, basePath, nil, &out); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return out, nil
}

func (r *APIRepository) Get(ctx context.Context, id util.ID) (Client, error) {
	var out Client
	if err := r.client.Get(ctx, itemPath(id), nil, &out); err != nil {
		return Client{}, fmt.Errorf("get client %s: %w", id, err)
	}
	return out, nil
}

func (r *APIRepository) Create(ctx context.Context, c Client) (Client, error) {
	c.ID = ""
	var out Client
	if err := r.client.Post(ctx, basePath, c, &out); err != nil {
		return Client{}, fmt.Errorf("create client: %w", err)
	}
	return out, nil
}

func (r *APIRepository) Update(ctx context.Context, id util.ID, c Client) (Client, error) {
	c.ID = ""
	var out Client
	if err := r.client.Patch(ctx, itemPath(id), c, &out); err != nil {
		return Client{}, fmt.Errorf("update client %s: %w", id, err)
	}
	return out, nil
}

func (r *APIRepository) Delete(ctx context.Context, id util.ID) error {
	if err := r.client.Delete(ctx, itemPath(id)); err != nil {
		return fmt.Errorf("delete client %s: %w", id, err)
	}
	return nil
}
