package http

import (
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/sigmatax/console/internal/clients"
)

var (
	inputTag  = regexp.MustCompile(`<input\b[^>]*>`)
	selectTag = regexp.MustCompile(`(?s)<select\b([^>]*)>(.*?)</select>`)
	optionTag = regexp.MustCompile(`<option\b[^>]*>`)
	attrPair  = regexp.MustCompile(`([a-z_-]+)(?:="([^"]*)")?`)
)

func attrs(tag string) map[string]string {
	out := map[string]string{}
	for _, m := range attrPair.FindAllStringSubmatch(tag, -1) {
		out[m[1]] = html.UnescapeString(m[2])
	}
	return out
}

// formValues returns what a browser would submit for the form whose class
// contains marker, without pressing any named button.
func formValues(t *testing.T, page, marker string) url.Values {
	t.Helper()
	start := strings.Index(page, marker)
	if start < 0 {
		t.Fatalf("form %q not found in page", marker)
	}
	end := strings.Index(page[start:], "</form>")
	if end < 0 {
		t.Fatalf("form %q not closed", marker)
	}
	form := page[start : start+end]

	vals := url.Values{}
	for _, tag := range inputTag.FindAllString(form, -1) {
		a := attrs(tag)
		name, ok := a["name"]
		if !ok || name == "" {
			continue
		}
		if typ := a["type"]; typ == "checkbox" || typ == "radio" {
			if _, checked := a["checked"]; !checked {
				continue
			}
		}
		vals.Add(name, a["value"])
	}
	for _, m := range selectTag.FindAllStringSubmatch(form, -1) {
		name := attrs(m[1])["name"]
		options := optionTag.FindAllString(m[2], -1)
		if name == "" || len(options) == 0 {
			continue
		}
		chosen := attrs(options[0])["value"]
		for _, opt := range options {
			a := attrs(opt)
			if _, sel := a["selected"]; sel {
				chosen = a["value"]
				break
			}
		}
		vals.Add(name, chosen)
	}
	return vals
}

var reportColumns = []string{"tax_type", "billing_code", "report_payment_date", "payment_amount", "report_status", "report_date_row", "report_row", "report_id"}

func dropReportRow(vals url.Values, i int) {
	for _, col := range reportColumns {
		v := vals[col]
		vals[col] = append(v[:i:i], v[i+1:]...)
	}
}

func addReportRow(vals url.Values, taxType, amount string) {
	row := map[string]string{"tax_type": taxType, "payment_amount": amount, "report_status": "Belum", "report_row": "new"}
	for _, col := range reportColumns {
		vals.Add(col, row[col])
	}
}

func (c *testConsole) editForm(t *testing.T) url.Values {
	t.Helper()
	rec := c.do(t, http.MethodGet, "/dashboard/jobs/monthly/7/edit", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected edit form got %d", rec.Code)
	}
	vals := formValues(t, rec.Body.String(), "job-form")
	if got := len(vals["report_id"]); got != 4 {
		t.Fatalf("expected 4 report rows in the form got %d", got)
	}
	if vals.Get("report_payment_date") != "2024-04-10" {
		t.Fatalf("expected date input value got %q", vals.Get("report_payment_date"))
	}
	return vals
}

func TestEditUnchangedFormSendsOnlyTheJob(t *testing.T) {
	c := newTestConsole(t, "ADMIN")
	c.login(t)

	rec := c.postForm(t, "/dashboard/jobs/monthly/7/edit", c.editForm(t))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/dashboard/jobs/monthly/7" {
		t.Fatalf("expected redirect to detail got %d %s: %s", rec.Code, rec.Header().Get("Location"), rec.Body.String())
	}
	writes := c.api.writes()
	if len(writes) != 1 || writes[0] != "PATCH /monthly-jobs/7" {
		t.Fatalf("expected only the job patch got %v", writes)
	}
}

func TestEditFormReconcilesReports(t *testing.T) {
	c := newTestConsole(t, "ADMIN")
	c.login(t)

	vals := c.editForm(t)
	// row 0 (11) untouched, row 1 (12) modified, rows 2 and 3 (13, 14) removed, two added
	vals["payment_amount"][1] = "300000"
	dropReportRow(vals, 3)
	dropReportRow(vals, 2)
	addReportRow(vals, "PPh 23", "10000")
	addReportRow(vals, "PPh 4(2)", "20000")

	rec := c.postForm(t, "/dashboard/jobs/monthly/7/edit", vals)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/dashboard/jobs/monthly/7" {
		t.Fatalf("expected redirect to detail got %d %s: %s", rec.Code, rec.Header().Get("Location"), rec.Body.String())
	}

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodPatch, "/monthly-jobs/7", 1},
		{http.MethodPost, "/monthly-jobs/7/tax-reports/", 2},
		{http.MethodPatch, "/monthly-jobs/7/tax-reports/12", 1},
		{http.MethodDelete, "/monthly-jobs/7/tax-reports/13", 1},
		{http.MethodDelete, "/monthly-jobs/7/tax-reports/14", 1},
		{http.MethodPatch, "/monthly-jobs/7/tax-reports/11", 0},
		{http.MethodDelete, "/monthly-jobs/7/tax-reports/11", 0},
	}
	for _, tc := range tests {
		if got := c.api.count(tc.method, tc.path); got != tc.want {
			t.Fatalf("%s %s: expected %d got %d (all writes %v)", tc.method, tc.path, tc.want, got, c.api.writes())
		}
	}
	if got := len(c.api.writes()); got != 6 {
		t.Fatalf("expected 6 writes got %v", c.api.writes())
	}
	if msg := c.currentToast(t); msg != "Pekerjaan berhasil diperbarui!" {
		t.Fatalf("unexpected notification %q", msg)
	}
}

func TestEditReportFailureStillSendsTheRest(t *testing.T) {
	c := newTestConsole(t, "ADMIN")
	c.login(t)
	c.api.failWith(http.MethodDelete, "/monthly-jobs/7/tax-reports/13", http.StatusConflict)

	vals := c.editForm(t)
	dropReportRow(vals, 3)
	dropReportRow(vals, 2)

	rec := c.postForm(t, "/dashboard/jobs/monthly/7/edit", vals)
	if loc := rec.Header().Get("Location"); loc != "/dashboard/jobs/monthly/7/edit" {
		t.Fatalf("expected back to the edit form got %s", loc)
	}
	if c.api.count(http.MethodDelete, "/monthly-jobs/7/tax-reports/14") != 1 || c.api.count(http.MethodPatch, "/monthly-jobs/7") != 1 {
		t.Fatalf("expected the other requests to go out, got %v", c.api.writes())
	}
	if msg := c.currentToast(t); !strings.HasPrefix(msg, "Error: 1 of 3 requests failed") {
		t.Fatalf("unexpected notification %q", msg)
	}
}

func TestClientDetailShowsEveryField(t *testing.T) {
	c := newTestConsole(t, "ADMIN")
	c.login(t)

	rec := c.do(t, http.MethodGet, "/dashboard/clients/41", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	body := rec.Body.String()
	want := []string{
		"PT Sumber Rejeki", "01.234.567.8-901.000", "Jl. Merdeka 1, Bandung", "active", "0221234567",
		"finance@sumber.co.id", "Ibu Sari", "sumber01", "djp-pass", "sumber-ct", "ct-pass", "Badan",
		"2020-01-15", "SK-001/2020", "2020-03-01", "PKP-77/2020",
	}
	for _, o := range clients.Obligations {
		want = append(want, `<span class="tag">`+o.Label+`</span>`)
	}
	for _, s := range want {
		if !strings.Contains(body, s) {
			t.Fatalf("expected %q on the detail page", s)
		}
	}
}

func TestUserHomeShowsSummary(t *testing.T) {
	tests := []struct {
		role       string
		path       string
		wantCreate bool
	}{
		{"STAFF", "/dashboard/user-home", false},
		{"KEUANGAN", "/dashboard/user-home", false},
		{"ADMIN", "/dashboard/admin-home", true},
	}
	for _, tc := range tests {
		t.Run(tc.role, func(t *testing.T) {
			c := newTestConsole(t, tc.role)
			c.login(t)

			rec := c.do(t, http.MethodGet, tc.path, nil, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200 got %d", rec.Code)
			}
			body := rec.Body.String()
			if !strings.Contains(body, `<span class="stat-value">3</span>`) {
				t.Fatalf("expected job totals on the page")
			}
			if !strings.Contains(body, `href="/dashboard/jobs/monthly/7"`) {
				t.Fatalf("expected a link to the recent job")
			}
			if got := strings.Contains(body, "/dashboard/create-job/"); got != tc.wantCreate {
				t.Fatalf("expected create links=%v got %v", tc.wantCreate, got)
			}
		})
	}
}

func TestDeleteMissingJobFromDetailGoesToList(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"from detail", "/dashboard/jobs/monthly/7/delete?return=%2Fdashboard%2Fjobs%2Fmonthly%2F7", "/dashboard/jobs/monthly"},
		{"no return", "/dashboard/jobs/monthly/7/delete", "/dashboard/jobs/monthly"},
		{"from filtered list", "/dashboard/jobs/monthly/7/delete?return=%2Fdashboard%2Fjobs%2Fmonthly%3Fpage%3D2", "/dashboard/jobs/monthly?page=2"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestConsole(t, "ADMIN")
			c.login(t)
			c.api.failWith(http.MethodDelete, "/monthly-jobs/7", http.StatusNotFound)

			rec := c.postForm(t, tc.target, url.Values{})
			if loc := rec.Header().Get("Location"); loc != tc.want {
				t.Fatalf("expected %s got %s", tc.want, loc)
			}
			if msg := c.currentToast(t); !strings.HasPrefix(msg, "Error: ") {
				t.Fatalf("expected an error notification got %q", msg)
			}
		})
	}
}

func TestUnderPath(t *testing.T) {
	tests := []struct {
		p, base string
		want    bool
	}{
		{"/dashboard/jobs/monthly/7", "/dashboard/jobs/monthly/7", true},
		{"/dashboard/jobs/monthly/7/edit", "/dashboard/jobs/monthly/7", true},
		{"/dashboard/jobs/monthly/7?tab=files", "/dashboard/jobs/monthly/7", true},
		{"/dashboard/jobs/monthly/70", "/dashboard/jobs/monthly/7", false},
		{"/dashboard/jobs/monthly", "/dashboard/jobs/monthly/7", false},
	}
	for _, tc := range tests {
		if got := underPath(tc.p, tc.base); got != tc.want {
			t.Fatalf("underPath(%q, %q): expected %v got %v", tc.p, tc.base, tc.want, got)
		}
	}
}
