package staff

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sigmatax/console/internal/api"
	"github.com/sigmatax/console/internal/util"
)

const basePath = "staffs/"

// Repository reads and writes staff.
type Repository interface {
	List(ctx context.Context) ([]Staff, error)
	Get(ctx context.Context, id util.ID) (Staff, error)
	Create(ctx context.Context, s NewStaff) (Staff, error)
	Update(ctx context.Context, id util.ID, s Staff) error
	ChangePassword(ctx context.Context, id util.ID, password string) error
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

func (r *APIRepository) List(ctx context.Context) ([]Staff, error) {
	var out []Staff
	if err := r.client.Get(ctx, basePath, nil, &out); err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return out, nil
}

func (r *APIRepository) Get(ctx context.Context, id util.ID) (Staff, error) {
	var out Staff
	if err := r.client.Get(ctx, itemPath(id), nil, &out); err != nil {
		return Staff{}, fmt.Errorf("get staff %s: %w", id, err)
	}
	return out, nil
}

func (r *APIRepository) Create(ctx context.Context, s NewStaff) (Staff, error) {
	s.ID = ""
	var out Staff
	if err := r.client.Post(ctx, basePath, s, &out); err != nil {
		return Staff{}, fmt.Errorf("create staff: %w", err)
	}
	return out, nil
}

// Update patches name, email and role only.
func (r *APIRepository) Update(ctx context.Context, id util.ID, s Staff) error {
	body := map[string]string{"nama": s.Name, "email": s.Email, "role": s.Role}
	if err := r.client.Patch(ctx, itemPath(id), body, nil); err != nil {
		return fmt.Errorf("update staff %s: %w", id, err)
	}
	return nil
}

func (r *APIRepository) ChangePassword(ctx context.Context, id util.ID, password string) error {
	body := map[string]string{"new_password": password}
	if err := r.client.Patch(ctx, itemPath(id)+"/password", body, nil); err != nil {
		return fmt.Errorf("change password for staff %s: %w", id, err)
	}
	return nil
}

func (r *APIRepository) Delete(ctx context.Context, id util.ID) error {
	if err := r.client.Delete(ctx, itemPath(id)); err != nil {
		return fmt.Errorf("delete staff %s: %w", id, err)
	}
	return nil
}
