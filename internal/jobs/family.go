package jobs

import "strings"

// ReportFields is the set of report columns a family uses.
type ReportFields struct {
	TaxType    bool
	Billing    bool // billing_code, payment_date, payment_amount
	IsReported bool
}

// Project zeroes every column the family does not use so that comparisons
// only look at what the form can edit. Dates are cut to the day, which is all
// a date input posts back.
func (rf ReportFields) Project(r Report) Report {
	out := Report{ID: r.ID, ReportStatus: r.ReportStatus, ReportDate: DateOnly(r.ReportDate)}
	if rf.TaxType {
		out.TaxType = r.TaxType
	}
	if rf.Billing {
		out.BillingCode = r.BillingCode
		out.PaymentDate = DateOnly(r.PaymentDate)
		out.PaymentAmount = r.PaymentAmount
	}
	if rf.IsReported {
		out.IsReported = r.IsReported
	}
	return out
}

// Equal compares two reports field by field over the family's columns.
func (rf ReportFields) Equal(a, b Report) bool {
	return rf.Project(a) == rf.Project(b)
}

// Payload is the request body for creating or updating a report.
func (rf ReportFields) Payload(r Report) map[string]any {
	body := map[string]any{
		"report_status": r.ReportStatus,
		"report_date":   nullableDate(r.ReportDate),
	}
	if rf.TaxType {
		body["tax_type"] = r.TaxType
	}
	if rf.Billing {
		body["billing_code"] = r.BillingCode
		body["payment_date"] = nullableDate(r.PaymentDate)
		body["payment_amount"] = r.PaymentAmount
	}
	if rf.IsReported {
		body["is_reported"] = r.IsReported
	}
	return body
}

// Family describes one job type and how the API exposes it.
type Family struct {
	Slug         string
	Label        string
	Noun         string
	APIPath      string
	HasMonth     bool
	RequireMonth bool
	YearParam    string
	MonthParam   string
	ReportsPath  string
	ReportsField string
	Reports      ReportFields
	SP2DK        bool
	DefaultState string
}

// HasReports reports whether jobs of this family carry child reports.
func (f Family) HasReports() bool { return f.ReportsPath != "" }

// CreateMessage is shown after a successful create.
func (f Family) CreateMessage() string {
	return "Pekerjaan " + f.Noun + " berhasil dibuat!"
}

var (
	Monthly = Family{
		Slug:         "monthly",
		Label:        "Pekerjaan Bulanan",
		Noun:         "bulanan",
		APIPath:      "monthly-jobs",
		HasMonth:     true,
		RequireMonth: true,
		YearParam:    "job_year",
		MonthParam:   "job_month",
		ReportsPath:  "tax-reports",
		ReportsField: "tax_reports",
		Reports:      ReportFields{TaxType: true, Billing: true},
	}
	Annual = Family{
		Slug:         "annual",
		Label:        "Pekerjaan Tahunan",
		Noun:         "tahunan",
		APIPath:      "annual-jobs",
		YearParam:    "job_year",
		ReportsPath:  "tax-reports",
		ReportsField: "tax_reports",
		Reports:      ReportFields{Billing: true},
	}
	Dividend = Family{
		Slug:         "dividend",
		Label:        "Pekerjaan Dividend",
		Noun:         "dividend",
		APIPath:      "dividend-jobs",
		YearParam:    "job_year",
		ReportsPath:  "reports",
		ReportsField: "reports",
		Reports:      ReportFields{IsReported: true},
	}
	SP2DK = Family{
		Slug:         "sp2dk",
		Label:        "Pekerjaan SP2DK",
		Noun:         "SP2DK",
		APIPath:      "sp2dk-jobs",
		HasMonth:     true,
		YearParam:    "sp2dk_year",
		MonthParam:   "sp2dk_month",
		SP2DK:        true,
		DefaultState: StatusPending,
	}
)

// Families lists every family in sidebar order.
var Families = []Family{Monthly, Annual, SP2DK, Dividend}

// Lookup finds a family by slug.
func Lookup(slug string) (Family, bool) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	for _, f := range Families {
		if f.Slug == slug {
			return f, true
		}
	}
	return Family{}, false
}
