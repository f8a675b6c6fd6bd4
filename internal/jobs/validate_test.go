package jobs

import (
	"errors"
	"testing"
)

func TestNewCorrection(t *testing.T) {
	original := Job{ID: "9", ClientID: "3", ClientName: "PT A", PICID: "4", Year: 2023, Status: StatusDone}
	draft := original
	draft.ClientID = "77"
	draft.TaxReports = []Report{{ID: "1", BillingCode: "A"}, {ID: "2", BillingCode: "B"}}

	tests := []struct {
		name     string
		original Job
		code     string
		err      error
	}{
		{"no original", Job{}, "P1", ErrNotCorrectable},
		{"normal code", original, CorrectionNormal, ErrCorrectionCode},
		{"unknown code", original, "P9", ErrCorrectionCode},
		{"ok", original, "BT", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			j, err := NewCorrection(tc.original, draft, tc.code)
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected %v got %v", tc.err, err)
			}
			if err != nil {
				return
			}
			if !j.IsCorrection() || j.CorrectionCode() != tc.code || j.OriginalJobID != "9" || j.ClientID != "3" {
				t.Fatalf("unexpected correction %+v", j)
			}
			if j.ID != "" || j.Status != StatusPending {
				t.Fatalf("expected a fresh pending job got %+v", j)
			}
			for _, r := range j.TaxReports {
				if r.ID != "" {
					t.Fatalf("expected report ids stripped got %+v", j.TaxReports)
				}
			}
			if draft.TaxReports[0].ID != "1" {
				t.Fatalf("draft reports must not be mutated")
			}
		})
	}
}

func TestFilterNormalize(t *testing.T) {
	f := Filter{Page: -1, Limit: 1000, Month: 4}.Normalize(Annual)
	if f.Page != 1 || f.Limit != MaxLimit || f.Month != 0 {
		t.Fatalf("unexpected filter %+v", f)
	}
	f = Filter{Month: 13}.Normalize(Monthly)
	if f.Month != 0 || f.Limit != DefaultLimit {
		t.Fatalf("unexpected filter %+v", f)
	}
}

func TestFileDownloadURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"/uploads/a.pdf", "https://files.example.com/uploads/a.pdf"},
		{"uploads/a.pdf", "https://files.example.com/uploads/a.pdf"},
		{"https://cdn.example.com/a.pdf", "https://cdn.example.com/a.pdf"},
	}
	for _, tc := range tests {
		if got := (File{URL: tc.url}).DownloadURL("https://files.example.com/"); got != tc.want {
			t.Fatalf("expected %s got %s", tc.want, got)
		}
	}
	if got := (File{Size: 2048}).SizeKB(); got != "2.00 KB" {
		t.Fatalf("expected 2.00 KB got %s", got)
	}
}

func TestReportEqualComparesDatesByDay(t *testing.T) {
	stored := Report{ID: "11", TaxType: "PPN", BillingCode: "B11", PaymentDate: "2024-04-10T00:00:00Z", ReportDate: "2024-04-20T00:00:00Z", ReportStatus: "Lapor"}
	posted := stored
	posted.PaymentDate = "2024-04-10"
	posted.ReportDate = "2024-04-20"

	tests := []struct {
		name   string
		family Family
		edit   func(r *Report)
		equal  bool
	}{
		{"monthly same day", Monthly, func(r *Report) {}, true},
		{"annual same day", Annual, func(r *Report) {}, true},
		{"dividend same day", Dividend, func(r *Report) {}, true},
		{"payment date moved", Monthly, func(r *Report) { r.PaymentDate = "2024-04-11" }, false},
		{"report date cleared", Monthly, func(r *Report) { r.ReportDate = "" }, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			current := posted
			tc.edit(&current)
			if got := tc.family.Reports.Equal(stored, current); got != tc.equal {
				t.Fatalf("expected equal=%v got %v", tc.equal, got)
			}
		})
	}
}

func TestDateOnly(t *testing.T) {
	for in, want := range map[string]string{
		"2024-04-10T00:00:00Z":      "2024-04-10",
		"2024-04-10T07:00:00+07:00": "2024-04-10",
		"2024-04-10":                "2024-04-10",
		" 2024-04-10 ":              "2024-04-10",
		"":                          "",
	} {
		if got := DateOnly(in); got != want {
			t.Fatalf("DateOnly(%q): expected %q got %q", in, want, got)
		}
	}
}
