package jobs

import (
	"fmt"
	"strings"

	"github.com/sigmatax/console/internal/util"
)

// Overall statuses. "pending" is the initial value and means not started.
const (
	StatusPending    = "pending"
	StatusInProgress = "Dalam Pengerjaan"
	StatusDone       = "Selesai"
	StatusOnHold     = "Tertunda"
)

// Statuses is every status a job can hold.
var Statuses = []string{StatusPending, StatusInProgress, StatusDone, StatusOnHold}

// StatusTargets are the statuses offered by the status modal. Any status can
// move to any other.
var StatusTargets = []string{StatusInProgress, StatusDone, StatusOnHold}

// ValidStatus reports membership in Statuses.
func ValidStatus(s string) bool {
	for _, st := range Statuses {
		if st == s {
			return true
		}
	}
	return false
}

// NotStarted treats pending and empty alike.
func NotStarted(status string) bool {
	return status == "" || strings.EqualFold(status, StatusPending)
}

// Job types and correction codes.
const (
	JobTypeNormal     = "NORMAL"
	JobTypeCorrection = "CORRECTION"

	CorrectionNormal = "NORMAL"
)

// CorrectionCodes lists every correction code; only non-NORMAL ones mark a correction job.
var CorrectionCodes = []string{CorrectionNormal, "P1", "P2", "PB", "BT"}

// ValidCorrection reports whether code is a correction (non-NORMAL) code.
func ValidCorrection(code string) bool {
	for _, c := range CorrectionCodes[1:] {
		if c == code {
			return true
		}
	}
	return false
}

// Job is one unit of recurring compliance work.
type Job struct {
	ID               util.ID `json:"job_id,omitempty"`
	ClientID         util.ID `json:"client_id,omitempty"`
	ClientName       string  `json:"client_name,omitempty"`
	NPWP             string  `json:"npwp_client,omitempty"`
	PICID            util.ID `json:"assigned_pic_staff_sigma_id,omitempty"`
	PICName          string  `json:"assigned_pic_staff_sigma_name,omitempty"`
	Year             int     `json:"job_year,omitempty"`
	Month            int     `json:"job_month,omitempty"`
	Status           string  `json:"overall_status,omitempty"`
	CorrectionStatus string  `json:"correction_status,omitempty"`
	CorrectionType   string  `json:"correction_type,omitempty"`
	JobType          string  `json:"job_type,omitempty"`
	OriginalJobID    util.ID `json:"original_job_id,omitempty"`
	UpdatedAt        string  `json:"updated_at,omitempty"`

	SP2DKDetails

	TaxReports      []Report `json:"tax_reports,omitempty"`
	DividendReports []Report `json:"reports,omitempty"`
}

// SP2DKDetails are the inquiry-specific fields of SP2DK jobs.
type SP2DKDetails struct {
	ContractNo   string `json:"contract_no,omitempty"`
	ContractDate string `json:"contract_date,omitempty"`
	SP2DKNo      string `json:"sp2dk_no,omitempty"`
	SP2DKDate    string `json:"sp2dk_date,omitempty"`
	BAP2DKNo     string `json:"bap2dk_no,omitempty"`
	BAP2DKDate   string `json:"bap2dk_date,omitempty"`
	PaymentDate  string `json:"payment_date,omitempty"`
	ReportDate   string `json:"report_date,omitempty"`
}

// Children returns the nested reports whichever field the API used.
func (j Job) Children() []Report {
	if len(j.TaxReports) > 0 {
		return j.TaxReports
	}
	return j.DividendReports
}

// IsCorrection reports whether the job amends another job.
func (j Job) IsCorrection() bool {
	return j.JobType == JobTypeCorrection
}

// CorrectionCode returns the effective correction code.
func (j Job) CorrectionCode() string {
	if j.CorrectionType != "" {
		return j.CorrectionType
	}
	if j.CorrectionStatus != "" {
		return j.CorrectionStatus
	}
	return CorrectionNormal
}

// Period renders year or month/year.
func (j Job) Period() string {
	if j.Month > 0 {
		return fmt.Sprintf("%s %d", MonthName(j.Month), j.Year)
	}
	if j.Year > 0 {
		return fmt.Sprintf("%d", j.Year)
	}
	return "-"
}

// Report is a child record of a job.
type Report struct {
	ID            util.ID `json:"report_id,omitempty"`
	TaxType       string  `json:"tax_type,omitempty"`
	BillingCode   string  `json:"billing_code,omitempty"`
	PaymentDate   string  `json:"payment_date,omitempty"`
	PaymentAmount int64   `json:"payment_amount,omitempty"`
	ReportStatus  string  `json:"report_status,omitempty"`
	ReportDate    string  `json:"report_date,omitempty"`
	IsReported    bool    `json:"is_reported,omitempty"`
}

// Key is the identity used when diffing report sets.
func (r Report) Key() string { return r.ID.String() }

// File is an uploaded proof of work.
type File struct {
	ID       util.ID `json:"file_id"`
	Name     string  `json:"original_filename"`
	Size     int64   `json:"file_size"`
	URL      string  `json:"file_url"`
	Uploaded string  `json:"uploaded_at,omitempty"`
}

// SizeKB formats the size the way the files list shows it.
func (f File) SizeKB() string {
	return fmt.Sprintf("%.2f KB", float64(f.Size)/1024)
}

// DownloadURL joins the file's relative URL onto base.
func (f File) DownloadURL(base string) string {
	if strings.HasPrefix(f.URL, "http://") || strings.HasPrefix(f.URL, "https://") {
		return f.URL
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(f.URL, "/")
}

// Upload is an optional proof file attached to a status change.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Summary is the admin home overview.
type Summary struct {
	TotalJobs    int            `json:"total_jobs"`
	JobsByStatus map[string]int `json:"jobs_by_status"`
	Jobs         []SummaryJob   `json:"jobs"`
}

// SummaryJob is one row of the recent jobs table.
type SummaryJob struct {
	ID         util.ID `json:"job_id"`
	JobType    string  `json:"job_type"`
	ClientName string  `json:"client_name"`
	PICName    string  `json:"pic_name"`
	Status     string  `json:"status"`
	JobDate    string  `json:"job_date"`
}

// FamilySlug maps the summary's job type onto a family slug.
func (s SummaryJob) FamilySlug() string {
	return strings.ToLower(s.JobType)
}

var monthNames = []string{"Januari", "Februari", "Maret", "April", "Mei", "Juni", "Juli", "Agustus", "September", "Oktober", "November", "Desember"}

// MonthName returns the Indonesian month name for 1..12.
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return monthNames[m-1]
}

// DateOnly cuts an API timestamp ("2024-04-10T00:00:00Z") to its date.
func DateOnly(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, 'T'); i > 0 {
		return s[:i]
	}
	return s
}

func nullableDate(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
