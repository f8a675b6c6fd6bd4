package staff

import (
	"context"
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

// List returns every staff member.
func (s *Service) List(ctx context.Context) ([]Staff, error) {
	return s.repo.List(ctx)
}

// Get loads one staff member.
func (s *Service) Get(ctx context.Context, id util.ID) (Staff, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and creates a staff member with an initial password.
func (s *Service) Create(ctx context.Context, n NewStaff) (Staff, error) {
	normalize(&n.Staff)
	if err := n.Validate().Err(); err != nil {
		return Staff{}, err
	}
	return s.repo.Create(ctx, n)
}

// Update changes profile fields. Passwords go through ChangePassword.
func (s *Service) Update(ctx context.Context, id util.ID, st Staff) error {
	normalize(&st)
	if err := st.Validate().Err(); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, st)
}

// ChangePassword sets a new password.
func (s *Service) ChangePassword(ctx context.Context, id util.ID, password, confirm string) error {
	errs := util.FieldErrors{}
	errs.Check("new_password", util.ValidatePassword(password))
	if confirm != password {
		errs.Add("confirm_password", "passwords do not match")
	}
	if err := errs.Err(); err != nil {
		return err
	}
	return s.repo.ChangePassword(ctx, id, password)
}

// Delete removes a staff member.
func (s *Service) Delete(ctx context.Context, id util.ID) error {
	return s.repo.Delete(ctx, id)
}

func normalize(s *Staff) {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.Role = strings.ToUpper(strings.TrimSpace(s.Role))
}
