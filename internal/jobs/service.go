package jobs

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sigmatax/console/internal/reconcile"
	"github.com/sigmatax/console/internal/util"
)

// ErrStatusRequired is returned when a status change names no status.
var ErrStatusRequired = errors.New("status is required")

// Service implements the job workflows on top of a Repository.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService creates the service.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List loads one filtered page.
func (s *Service) List(ctx context.Context, f Family, filter Filter) (Page, error) {
	filter = filter.Normalize(f)
	rows, total, err := s.repo.List(ctx, f, filter)
	if err != nil {
		return Page{}, err
	}
	if f.DefaultState != "" {
		for i := range rows {
			if rows[i].Status == "" {
				rows[i].Status = f.DefaultState
			}
		}
	}
	return NewPage(rows, filter, total), nil
}

// Get loads one job.
func (s *Service) Get(ctx context.Context, f Family, id util.ID) (Job, error) {
	return s.repo.Get(ctx, f, id)
}

// Detail loads a job together with its files. A failing file listing does not
// fail the page; the job is shown without files.
func (s *Service) Detail(ctx context.Context, f Family, id util.ID) (Job, []File, error) {
	var (
		job   Job
		files []File
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		job, err = s.repo.Get(gctx, f, id)
		return err
	})
	g.Go(func() error {
		list, err := s.repo.Files(gctx, f, id)
		if err != nil {
			s.logger.Warn().Err(err).Str("family", f.Slug).Str("job_id", id.String()).Msg("job files unavailable")
			return nil
		}
		files = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return Job{}, nil, err
	}
	return job, files, nil
}

// Files lists the proof files of a job.
func (s *Service) Files(ctx context.Context, f Family, id util.ID) ([]File, error) {
	return s.repo.Files(ctx, f, id)
}

// Create validates and creates a regular job. Nothing is sent when
// validation fails.
func (s *Service) Create(ctx context.Context, f Family, j Job) (Job, error) {
	j = AsNormal(j)
	if j.Status == "" {
		j.Status = StatusPending
	}
	if err := ValidateCreate(f, j).Err(); err != nil {
		return Job{}, err
	}
	created, err := s.repo.Create(ctx, f, j)
	if err != nil {
		return Job{}, err
	}
	s.logger.Info().Str("family", f.Slug).Str("job_id", created.ID.String()).Msg("job created")
	return created, nil
}

// CreateCorrection creates a correction of the job originalID from draft.
func (s *Service) CreateCorrection(ctx context.Context, f Family, originalID util.ID, draft Job, code string) (Job, error) {
	if originalID.IsZero() {
		return Job{}, ErrNotCorrectable
	}
	original, err := s.repo.Get(ctx, f, originalID)
	if err != nil {
		return Job{}, err
	}
	j, err := NewCorrection(original, draft, code)
	if err != nil {
		return Job{}, err
	}
	if err := ValidateCreate(f, j).Err(); err != nil {
		return Job{}, err
	}
	created, err := s.repo.Create(ctx, f, j)
	if err != nil {
		return Job{}, err
	}
	s.logger.Info().
		Str("family", f.Slug).
		Str("job_id", created.ID.String()).
		Str("original_job_id", originalID.String()).
		Str("correction", code).
		Msg("correction created")
	return created, nil
}

// SaveEdit patches the job and reconciles its reports against the set that
// was loaded into the form. The parent update and every report request run
// concurrently; failures are collected into a *reconcile.SyncError.
func (s *Service) SaveEdit(ctx context.Context, f Family, original, current Job) error {
	if original.ID.IsZero() {
		return ErrNotCorrectable
	}
	current.ClientID = original.ClientID
	if err := ValidateCreate(f, current).Err(); err != nil {
		return err
	}

	id := original.ID
	parent := func(ctx context.Context) error {
		return s.repo.Update(ctx, f, id, current)
	}

	var plan reconcile.Plan[Report]
	if f.HasReports() {
		plan = reconcile.Reconcile(original.Children(), current.Children(), Report.Key, f.Reports.Equal)
	}
	ops := reconcile.Ops[Report]{
		Create: func(ctx context.Context, r Report) error { return s.repo.CreateReport(ctx, f, id, r) },
		Update: func(ctx context.Context, r Report) error { return s.repo.UpdateReport(ctx, f, id, r) },
		Delete: func(ctx context.Context, r Report) error { return s.repo.DeleteReport(ctx, f, id, r.ID) },
	}

	err := reconcile.Apply(ctx, plan, ops, parent)
	evt := s.logger.Info()
	if err != nil {
		evt = s.logger.Warn().Err(err)
	}
	evt.Str("family", f.Slug).
		Str("job_id", id.String()).
		Int("created", len(plan.Create)).
		Int("updated", len(plan.Update)).
		Int("deleted", len(plan.Delete)).
		Msg("job saved")
	return err
}

// UpdateStatus changes the overall status, optionally attaching a proof file.
func (s *Service) UpdateStatus(ctx context.Context, f Family, id util.ID, status string, file *Upload) error {
	status = strings.TrimSpace(status)
	if status == "" {
		return ErrStatusRequired
	}
	if !ValidStatus(status) {
		errs := util.FieldErrors{}
		errs.Add("overall_status", "unknown status")
		return errs
	}
	if file != nil && len(file.Data) == 0 {
		file = nil
	}
	if err := s.repo.UpdateStatus(ctx, f, id, status, file); err != nil {
		return err
	}
	s.logger.Info().Str("family", f.Slug).Str("job_id", id.String()).Str("status", status).Bool("file", file != nil).Msg("job status updated")
	return nil
}

// Delete removes a job.
func (s *Service) Delete(ctx context.Context, f Family, id util.ID) error {
	if err := s.repo.Delete(ctx, f, id); err != nil {
		return err
	}
	s.logger.Info().Str("family", f.Slug).Str("job_id", id.String()).Msg("job deleted")
	return nil
}

// Summary loads the admin home overview.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	return s.repo.Summary(ctx)
}
