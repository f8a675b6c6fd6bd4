package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sigmatax/console/internal/api"
	"github.com/sigmatax/console/internal/util"
)

// Repository talks to the job endpoints of every family.
type Repository interface {
	List(ctx context.Context, f Family, filter Filter) ([]Job, *int, error)
	Get(ctx context.Context, f Family, id util.ID) (Job, error)
	Files(ctx context.Context, f Family, id util.ID) ([]File, error)
	Create(ctx context.Context, f Family, j Job) (Job, error)
	Update(ctx context.Context, f Family, id util.ID, j Job) error
	UpdateStatus(ctx context.Context, f Family, id util.ID, status string, file *Upload) error
	Delete(ctx context.Context, f Family, id util.ID) error
	CreateReport(ctx context.Context, f Family, jobID util.ID, r Report) error
	UpdateReport(ctx context.Context, f Family, jobID util.ID, r Report) error
	DeleteReport(ctx context.Context, f Family, jobID util.ID, reportID util.ID) error
	Summary(ctx context.Context) (Summary, error)
}

// APIRepository implements Repository over the REST API.
type APIRepository struct {
	client *api.Client
}

// NewRepository binds the repository to a session-scoped API client.
func NewRepository(client *api.Client) *APIRepository {
	return &APIRepository{client: client}
}

func listPath(f Family) string { return f.APIPath + "/" }

func jobPath(f Family, id util.ID) string {
	return f.APIPath + "/" + url.PathEscape(id.String())
}

func reportsPath(f Family, jobID util.ID) string {
	return jobPath(f, jobID) + "/" + f.ReportsPath
}

// List returns one page of jobs and, when the API reports it, the total count.
func (r *APIRepository) List(ctx context.Context, f Family, filter Filter) ([]Job, *int, error) {
	var raw json.RawMessage
	if err := r.client.Get(ctx, listPath(f), filter.Query(f), &raw); err != nil {
		return nil, nil, fmt.Errorf("list %s jobs: %w", f.Slug, err)
	}
	rows, total, err := decodeList(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("list %s jobs: %w", f.Slug, err)
	}
	return rows, total, nil
}

// decodeList accepts a bare array or an object wrapping the rows with a total.
func decodeList(raw json.RawMessage) ([]Job, *int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil, nil
	}
	if raw[0] == '[' {
		var rows []Job
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, nil, err
		}
		return rows, nil, nil
	}

	var wrapped struct {
		Data  []Job `json:"data"`
		Jobs  []Job `json:"jobs"`
		Total *int  `json:"total"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, nil, err
	}
	rows := wrapped.Data
	if rows == nil {
		rows = wrapped.Jobs
	}
	return rows, wrapped.Total, nil
}

func (r *APIRepository) Get(ctx context.Context, f Family, id util.ID) (Job, error) {
	var out Job
	if err := r.client.Get(ctx, jobPath(f, id), nil, &out); err != nil {
		return Job{}, fmt.Errorf("get %s job %s: %w", f.Slug, id, err)
	}
	return out, nil
}

func (r *APIRepository) Files(ctx context.Context, f Family, id util.ID) ([]File, error) {
	var out []File
	if err := r.client.Get(ctx, jobPath(f, id)+"/files", nil, &out); err != nil {
		return nil, fmt.Errorf("list files of %s job %s: %w", f.Slug, id, err)
	}
	return out, nil
}

func (r *APIRepository) Create(ctx context.Context, f Family, j Job) (Job, error) {
	var out Job
	if err := r.client.Post(ctx, listPath(f), createPayload(f, j), &out); err != nil {
		return Job{}, fmt.Errorf("create %s job: %w", f.Slug, err)
	}
	return out, nil
}

func (r *APIRepository) Update(ctx context.Context, f Family, id util.ID, j Job) error {
	if err := r.client.Patch(ctx, jobPath(f, id), updatePayload(f, j), nil); err != nil {
		return fmt.Errorf("update %s job %s: %w", f.Slug, id, err)
	}
	return nil
}

// UpdateStatus sends the new status and the optional proof file as multipart.
func (r *APIRepository) UpdateStatus(ctx context.Context, f Family, id util.ID, status string, file *Upload) error {
	form := &api.Form{Fields: []api.FormField{{Name: "overall_status", Value: status}}}
	if file != nil {
		form.Files = append(form.Files, api.FormFile{
			Field:       "proof_of_work_pdf",
			Filename:    file.Filename,
			ContentType: file.ContentType,
			Data:        file.Data,
		})
	}
	req := api.Request{Method: http.MethodPatch, Path: jobPath(f, id) + "/status", Form: form}
	if err := r.client.Do(ctx, req, nil); err != nil {
		return fmt.Errorf("update status of %s job %s: %w", f.Slug, id, err)
	}
	return nil
}

func (r *APIRepository) Delete(ctx context.Context, f Family, id util.ID) error {
	if err := r.client.Delete(ctx, jobPath(f, id)); err != nil {
		return fmt.Errorf("delete %s job %s: %w", f.Slug, id, err)
	}
	return nil
}

func (r *APIRepository) CreateReport(ctx context.Context, f Family, jobID util.ID, rep Report) error {
	if err := r.client.Post(ctx, reportsPath(f, jobID)+"/", f.Reports.Payload(rep), nil); err != nil {
		return fmt.Errorf("create report on %s job %s: %w", f.Slug, jobID, err)
	}
	return nil
}

func (r *APIRepository) UpdateReport(ctx context.Context, f Family, jobID util.ID, rep Report) error {
	path := reportsPath(f, jobID) + "/" + url.PathEscape(rep.ID.String())
	if err := r.client.Patch(ctx, path, f.Reports.Payload(rep), nil); err != nil {
		return fmt.Errorf("update report %s on %s job %s: %w", rep.ID, f.Slug, jobID, err)
	}
	return nil
}

func (r *APIRepository) DeleteReport(ctx context.Context, f Family, jobID, reportID util.ID) error {
	path := reportsPath(f, jobID) + "/" + url.PathEscape(reportID.String())
	if err := r.client.Delete(ctx, path); err != nil {
		return fmt.Errorf("delete report %s on %s job %s: %w", reportID, f.Slug, jobID, err)
	}
	return nil
}

func (r *APIRepository) Summary(ctx context.Context) (Summary, error) {
	var out Summary
	if err := r.client.Get(ctx, "dashboard/jobs", nil, &out); err != nil {
		return Summary{}, fmt.Errorf("dashboard summary: %w", err)
	}
	return out, nil
}

func commonPayload(f Family, j Job) map[string]any {
	body := map[string]any{
		"assigned_pic_staff_sigma_id": j.PICID,
		"correction_status":           j.CorrectionCode(),
	}
	if j.Status != "" {
		body["overall_status"] = j.Status
	}
	if j.Year > 0 {
		body["job_year"] = j.Year
	}
	if f.RequireMonth && j.Month > 0 {
		body["job_month"] = j.Month
	}
	if f.SP2DK {
		d := j.SP2DKDetails
		body["contract_no"] = d.ContractNo
		body["contract_date"] = nullableDate(d.ContractDate)
		body["sp2dk_no"] = d.SP2DKNo
		body["sp2dk_date"] = nullableDate(d.SP2DKDate)
		body["bap2dk_no"] = d.BAP2DKNo
		body["bap2dk_date"] = nullableDate(d.BAP2DKDate)
		body["payment_date"] = nullableDate(d.PaymentDate)
		body["report_date"] = nullableDate(d.ReportDate)
	}
	return body
}

func createPayload(f Family, j Job) map[string]any {
	body := commonPayload(f, j)
	body["client_id"] = j.ClientID
	if j.Status == "" {
		body["overall_status"] = StatusPending
	}
	body["job_type"] = j.JobType
	if j.IsCorrection() {
		body["correction_type"] = j.CorrectionType
		body["original_job_id"] = j.OriginalJobID
	}
	if f.HasReports() {
		reports := make([]map[string]any, 0, len(j.Children()))
		for _, rep := range j.Children() {
			reports = append(reports, f.Reports.Payload(rep))
		}
		body[f.ReportsField] = reports
	}
	return body
}

// updatePayload never carries the client; reassignment is not supported.
func updatePayload(f Family, j Job) map[string]any {
	return commonPayload(f, j)
}
