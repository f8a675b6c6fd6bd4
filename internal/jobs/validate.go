package jobs

import (
	"errors"

	"github.com/sigmatax/console/internal/util"
)

var (
	// ErrNotCorrectable is returned when a correction has no original job to point at.
	ErrNotCorrectable = errors.New("correction requires an original job")
	// ErrCorrectionCode is returned when a correction carries the NORMAL code.
	ErrCorrectionCode = errors.New("correction requires a non-NORMAL correction code")
)

// ValidateCreate runs the checks a create form performs before anything is sent.
func ValidateCreate(f Family, j Job) util.FieldErrors {
	errs := util.FieldErrors{}
	missing := false
	if j.ClientID.IsZero() {
		errs.Add("client_id", "required")
		missing = true
	}
	if j.PICID.IsZero() {
		errs.Add("assigned_pic_staff_sigma_id", "required")
		missing = true
	}
	if f.RequireMonth && (j.Month < 1 || j.Month > 12) {
		errs.Add("job_month", "required")
		missing = true
	}
	if missing {
		if f.RequireMonth {
			errs.Add("_form", "Client, PIC, and Job Month are required.")
		} else {
			errs.Add("_form", "Client and PIC are required.")
		}
	}
	if j.Status != "" && !ValidStatus(j.Status) {
		errs.Add("overall_status", "unknown status")
	}
	for _, r := range j.Children() {
		if r.PaymentAmount < 0 {
			errs.Add("reports", "payment amount cannot be negative")
			break
		}
	}
	return errs
}

// AsNormal marks j as a regular (non-correction) job.
func AsNormal(j Job) Job {
	j.JobType = JobTypeNormal
	j.CorrectionStatus = CorrectionNormal
	j.CorrectionType = ""
	j.OriginalJobID = ""
	return j
}

// NewCorrection builds a correction of original from the edited draft. The
// result always points at original and carries a non-NORMAL code.
func NewCorrection(original, draft Job, code string) (Job, error) {
	if original.ID.IsZero() {
		return Job{}, ErrNotCorrectable
	}
	if !ValidCorrection(code) {
		return Job{}, ErrCorrectionCode
	}

	j := draft
	j.ID = ""
	j.ClientID = original.ClientID
	j.ClientName = original.ClientName
	j.JobType = JobTypeCorrection
	j.CorrectionStatus = code
	j.CorrectionType = code
	j.OriginalJobID = original.ID
	j.Status = StatusPending
	j.TaxReports = stripIDs(draft.TaxReports)
	j.DividendReports = stripIDs(draft.DividendReports)
	return j, nil
}

// SeedCorrection prepares a correction form from the job being corrected.
func SeedCorrection(original Job) Job {
	j := original
	j.ID = ""
	j.Status = StatusPending
	j.CorrectionStatus = "P1"
	j.CorrectionType = "P1"
	j.JobType = JobTypeCorrection
	j.OriginalJobID = original.ID
	j.UpdatedAt = ""
	return j
}

func stripIDs(rs []Report) []Report {
	if len(rs) == 0 {
		return nil
	}
	out := make([]Report, len(rs))
	for i, r := range rs {
		r.ID = ""
		out[i] = r
	}
	return out
}
