package staff

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sigmatax/console/internal/api"
	"github.com/sigmatax/console/internal/util"
)

type recordedRequest struct {
	method string
	path   string
	body   map[string]any
}

func newRecordingAPI(t *testing.T) (*api.Client, *[]recordedRequest) {
	t.Helper()
	var reqs []recordedRequest
	record := func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		reqs = append(reqs, recordedRequest{method: r.Method, path: r.URL.Path, body: body})
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}
	r := chi.NewRouter()
	r.Post("/staffs/", record)
	r.Patch("/staffs/{id}", record)
	r.Patch("/staffs/{id}/password", record)
	r.Delete("/staffs/{id}", record)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	client, err := api.New(api.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return client.WithSession(api.StaticToken("t")), &reqs
}

func TestUpdateNeverSendsPassword(t *testing.T) {
	client, reqs := newRecordingAPI(t)
	svc := NewService(NewRepository(client))

	if err := svc.Update(context.Background(), "5", Staff{Name: "Dewi", Email: "dewi@firm.id", Role: "keuangan"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(*reqs) != 1 {
		t.Fatalf("expected 1 request got %d", len(*reqs))
	}
	got := (*reqs)[0]
	if got.method != http.MethodPatch || got.path != "/staffs/5" {
		t.Fatalf("unexpected request %s %s", got.method, got.path)
	}
	if _, ok := got.body["password"]; ok {
		t.Fatalf("profile update must not carry a password")
	}
	if got.body["role"] != "KEUANGAN" || got.body["nama"] != "Dewi" {
		t.Fatalf("unexpected body %v", got.body)
	}
}

func TestChangePassword(t *testing.T) {
	client, reqs := newRecordingAPI(t)
	svc := NewService(NewRepository(client))

	err := svc.ChangePassword(context.Background(), "5", "short", "short")
	var fe util.FieldErrors
	if !errors.As(err, &fe) || fe["new_password"] == "" {
		t.Fatalf("expected password validation error got %v", err)
	}
	err = svc.ChangePassword(context.Background(), "5", "longenough", "different")
	if !errors.As(err, &fe) || fe["confirm_password"] == "" {
		t.Fatalf("expected mismatch error got %v", err)
	}
	if len(*reqs) != 0 {
		t.Fatalf("invalid input must not reach the API")
	}

	if err := svc.ChangePassword(context.Background(), "5", "longenough", "longenough"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	got := (*reqs)[0]
	if got.path != "/staffs/5/password" || got.body["new_password"] != "longenough" {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestCreateValidation(t *testing.T) {
	client, reqs := newRecordingAPI(t)
	svc := NewService(NewRepository(client))

	tests := []struct {
		name  string
		in    NewStaff
		field string
	}{
		{"no name", NewStaff{Staff: Staff{Email: "a@firm.id", Role: RoleStaff}, Password: "password1"}, "nama"},
		{"bad email", NewStaff{Staff: Staff{Name: "A", Email: "a", Role: RoleStaff}, Password: "password1"}, "email"},
		{"bad role", NewStaff{Staff: Staff{Name: "A", Email: "a@firm.id", Role: "BOSS"}, Password: "password1"}, "role"},
		{"short password", NewStaff{Staff: Staff{Name: "A", Email: "a@firm.id", Role: RoleStaff}, Password: "x"}, "password"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.in)
			var fe util.FieldErrors
			if !errors.As(err, &fe) || fe[tc.field] == "" {
				t.Fatalf("expected error on %s got %v", tc.field, err)
			}
		})
	}
	if len(*reqs) != 0 {
		t.Fatalf("expected no API calls got %d", len(*reqs))
	}

	if _, err := svc.Create(context.Background(), NewStaff{Staff: Staff{Name: "A", Email: "a@firm.id", Role: "admin"}, Password: "password1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if (*reqs)[0].body["password"] != "password1" || (*reqs)[0].body["role"] != "ADMIN" {
		t.Fatalf("unexpected create body %v", (*reqs)[0].body)
	}
}
