package jobs

import (
	"net/url"
	"strconv"
	"strings"
)

// Pagination defaults.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Filter is the list query of a job page.
type Filter struct {
	ClientName string
	PICName    string
	Status     string
	Year       int
	Month      int
	Page       int
	Limit      int
}

// Normalize clamps paging and drops the month for families without one.
func (f Filter) Normalize(fam Family) Filter {
	f.ClientName = strings.TrimSpace(f.ClientName)
	f.PICName = strings.TrimSpace(f.PICName)
	f.Status = strings.TrimSpace(f.Status)
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if !fam.HasMonth || f.Month < 1 || f.Month > 12 {
		f.Month = 0
	}
	return f
}

// Query encodes f with the family's parameter names, leaving out empty values.
func (f Filter) Query(fam Family) url.Values {
	q := url.Values{}
	if f.ClientName != "" {
		q.Set("client_name", f.ClientName)
	}
	if f.PICName != "" {
		q.Set("pic_name", f.PICName)
	}
	if f.Status != "" {
		q.Set("overall_status", f.Status)
	}
	if f.Year > 0 {
		q.Set(fam.YearParam, strconv.Itoa(f.Year))
	}
	if fam.HasMonth && f.Month > 0 {
		q.Set(fam.MonthParam, strconv.Itoa(f.Month))
	}
	q.Set("page", strconv.Itoa(f.Page))
	q.Set("limit", strconv.Itoa(f.Limit))
	return q
}

// Page is one page of jobs.
type Page struct {
	Jobs    []Job
	Page    int
	Limit   int
	Total   int
	Exact   bool
	HasPrev bool
	HasNext bool
}

// NewPage derives paging state. A server-supplied total is used when present;
// otherwise a full page is taken to mean more rows may follow.
func NewPage(rows []Job, f Filter, total *int) Page {
	p := Page{Jobs: rows, Page: f.Page, Limit: f.Limit, HasPrev: f.Page > 1}
	if total != nil {
		p.Total = *total
		p.Exact = true
		p.HasNext = f.Page*f.Limit < *total
		return p
	}
	p.Total = (f.Page-1)*f.Limit + len(rows)
	p.HasNext = len(rows) >= f.Limit
	return p
}

// PrevPage and NextPage return neighbouring page numbers.
func (p Page) PrevPage() int { return p.Page - 1 }
func (p Page) NextPage() int { return p.Page + 1 }
