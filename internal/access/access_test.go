package access

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestGuard(t *testing.T) *Guard {
	t.Helper()
	g, err := NewGuard()
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	return g
}

func TestResolve(t *testing.T) {
	g := newTestGuard(t)

	tests := []struct {
		role    string
		allowed []Capability
		denied  []Capability
		landing string
	}{
		{RoleAdmin, Capabilities, nil, AdminHomePath},
		{RoleStaff, []Capability{HomeUser, JobsView}, []Capability{HomeAdmin, ClientsManage, StaffsManage, JobsManage}, UserHomePath},
		{RoleKeuangan, []Capability{HomeUser, JobsView}, []Capability{HomeAdmin, ClientsManage, StaffsManage, JobsManage}, UserHomePath},
		{"admin", Capabilities, nil, AdminHomePath},
		{"INTERN", nil, Capabilities, LoginPath},
		{"", nil, Capabilities, LoginPath},
	}

	for _, tc := range tests {
		t.Run(tc.role, func(t *testing.T) {
			p := g.Resolve(tc.role)
			for _, c := range tc.allowed {
				if !p.Can(c) {
					t.Fatalf("%s should have %s", tc.role, c)
				}
			}
			for _, c := range tc.denied {
				if p.Can(c) {
					t.Fatalf("%s should not have %s", tc.role, c)
				}
			}
			if p.LandingPath() != tc.landing {
				t.Fatalf("expected landing %s got %s", tc.landing, p.LandingPath())
			}
		})
	}
}

func TestRequire(t *testing.T) {
	g := newTestGuard(t)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name     string
		role     *string
		cap      Capability
		status   int
		location string
	}{
		{"no session", nil, StaffsManage, http.StatusSeeOther, LoginPath},
		{"staff to staffs", strPtr(RoleStaff), StaffsManage, http.StatusSeeOther, UserHomePath},
		{"keuangan to clients", strPtr(RoleKeuangan), ClientsManage, http.StatusSeeOther, UserHomePath},
		{"unknown role", strPtr("GUEST"), JobsView, http.StatusSeeOther, LoginPath},
		{"admin to user home allowed", strPtr(RoleAdmin), HomeUser, http.StatusOK, ""},
		{"staff job detail allowed", strPtr(RoleStaff), JobsView, http.StatusOK, ""},
		{"admin job edit allowed", strPtr(RoleAdmin), JobsManage, http.StatusOK, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/dashboard/staffs", nil)
			if tc.role != nil {
				req = req.WithContext(WithPermissions(req.Context(), g.Resolve(*tc.role)))
			}
			rec := httptest.NewRecorder()
			g.Require(tc.cap)(ok).ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != tc.location {
				t.Fatalf("expected location %q got %q", tc.location, loc)
			}
		})
	}
}

func TestNav(t *testing.T) {
	g := newTestGuard(t)

	admin := g.Nav(g.Resolve(RoleAdmin), "/dashboard/jobs/annual")
	if admin.Title != "Admin Panel" {
		t.Fatalf("unexpected title %s", admin.Title)
	}
	labels := navLabels(admin.Items)
	want := []string{"Admin Home", "Staffs", "Clients", "Pekerjaan"}
	if len(labels) != len(want) {
		t.Fatalf("expected %v got %v", want, labels)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("expected %v got %v", want, labels)
		}
	}
	jobs := admin.Items[3]
	if !jobs.Active || len(jobs.Children) != 4 || !jobs.Children[1].Active {
		t.Fatalf("expected annual entry active got %+v", jobs)
	}

	staff := g.Nav(g.Resolve(RoleStaff), "/dashboard/user-home")
	if staff.Title != "User Panel" || len(staff.Items) != 1 || staff.Items[0].Label != "User Home" || !staff.Items[0].Active {
		t.Fatalf("unexpected staff nav %+v", staff)
	}
}

func navLabels(items []NavItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Label)
	}
	return out
}

func strPtr(s string) *string { return &s }
