package clients

import (
	"context"
	"sort"
	"strings"

	"github.com/sigmatax/console/internal/util"
)

// Service applies validation in front of a Repository.
type Service struct {
	repo Repository
}

// NewService creates the service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns clients whose name contains query (case-insensitive), sorted by name.
func (s *Service) List(ctx context.Context, query string) ([]Client, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]Client, 0, len(all))
	for _, c := range all {
		if query == "" || strings.Contains(strings.ToLower(c.Name), query) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// Get loads one client.
func (s *Service) Get(ctx context.Context, id util.ID) (Client, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and creates. Validation failures never reach the API.
func (s *Service) Create(ctx context.Context, c Client) (Client, error) {
	normalize(&c)
	if err := c.Validate().Err(); err != nil {
		return Client{}, err
	}
	return s.repo.Create(ctx, c)
}

// Update validates and patches.
func (s *Service) Update(ctx context.Context, id util.ID, c Client) (Client, error) {
	normalize(&c)
	if err := c.Validate().Err(); err != nil {
		return Client{}, err
	}
	return s.repo.Update(ctx, id, c)
}

// Delete removes a client immediately.
func (s *Service) Delete(ctx context.Context, id util.ID) error {
	return s.repo.Delete(ctx, id)
}

func normalize(c *Client) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.MembershipStatus = strings.ToLower(strings.TrimSpace(c.MembershipStatus))
	if c.MembershipStatus == "" {
		c.MembershipStatus = MembershipActive
	}
}
