package clients

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sigmatax/console/internal/api"
	"github.com/sigmatax/console/internal/util"
)

type stubRepo struct {
	clients []Client
	created []Client
}

func (s *stubRepo) List(ctx context.Context) ([]Client, error) { return s.clients, nil }
func (s *stubRepo) Get(ctx context.Context, id util.ID) (Client, error) {
	for _, c := range s.clients {
		if c.ID == id {
			return c, nil
		}
	}
	return Client{}, api.ErrNotFound
}
func (s *stubRepo) Create(ctx context.Context, c Client) (Client, error) {
	s.created = append(s.created, c)
	return c, nil
}
func (s *stubRepo) Update(ctx context.Context, id util.ID, c Client) (Client, error) {
	return c, nil
}
func (s *stubRepo) Delete(ctx context.Context, id util.ID) error { return nil }

func TestTaxObligationsOrder(t *testing.T) {
	c := Client{}
	c.Set("ppn", true)
	c.Set("pph_final_umkm", true)
	c.Set("investasi_deviden", true)
	c.Set("unknown", true)

	want := []string{"PPh Final UMKM", "PPN", "Investasi Deviden"}
	if got := c.TaxObligations(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v got %v", want, got)
	}
}

func TestCreateValidationSkipsRepository(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	tests := []struct {
		name   string
		client Client
		field  string
	}{
		{"missing name", Client{MembershipStatus: "active"}, "client_name"},
		{"bad membership", Client{Name: "PT A", MembershipStatus: "gold"}, "membership_status"},
		{"bad email", Client{Name: "PT A", Email: "nope"}, "email_client"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.client)
			var fe util.FieldErrors
			if !errors.As(err, &fe) {
				t.Fatalf("expected field errors got %v", err)
			}
			if _, ok := fe[tc.field]; !ok {
				t.Fatalf("expected error on %s got %v", tc.field, fe)
			}
		})
	}
	if len(repo.created) != 0 {
		t.Fatalf("expected no repository calls got %d", len(repo.created))
	}
}

func TestListFiltersByName(t *testing.T) {
	svc := NewService(&stubRepo{clients: []Client{{Name: "PT Sinar"}, {Name: "CV Maju"}, {Name: "PT Bintang"}}})
	got, err := svc.List(context.Background(), "pt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Name != "PT Bintang" || got[1].Name != "PT Sinar" {
		t.Fatalf("unexpected list %+v", got)
	}
}

// memoryAPI stores posted clients verbatim, like the real API.
type memoryAPI struct {
	mu   sync.Mutex
	rows map[string]json.RawMessage
}

func (m *memoryAPI) routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/clients/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		body["client_id"] = 41
		raw, _ := json.Marshal(body)
		m.mu.Lock()
		m.rows["41"] = raw
		m.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write(raw)
	})
	r.Get("/clients/{id}", func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		raw, ok := m.rows[chi.URLParam(r, "id")]
		m.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Client not found"}`))
			return
		}
		_, _ = w.Write(raw)
	})
	return r
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	fake := &memoryAPI{rows: map[string]json.RawMessage{}}
	srv := httptest.NewServer(fake.routes())
	defer srv.Close()

	client, err := api.New(api.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	svc := NewService(NewRepository(client.WithSession(api.StaticToken("t"))))

	in := Client{
		Name:              "PT Sumber Rejeki",
		NPWP:              "01.234.567.8-901.000",
		Address:           "Jl. Merdeka 1, Bandung",
		MembershipStatus:  "active",
		Phone:             "0221234567",
		Email:             "finance@sumber.co.id",
		PIC:               "Ibu Sari",
		DJPOnlineUsername: "sumber01",
		DJPOnlinePassword: "djp-pass",
		CoretaxUsername:   "sumber-ct",
		CoretaxPassword:   "ct-pass",
		PICStaffID:        "7",
		Category:          "Badan",
		RegisteredDate:    "2020-01-15",
		RegisteredDecree:  "SK-001/2020",
		PKPDate:           "2020-03-01",
		PKPDecree:         "PKP-77/2020",
	}
	for _, o := range Obligations {
		in.Set(o.Field, true)
	}

	created, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != "41" {
		t.Fatalf("expected id 41 got %q", created.ID)
	}

	got, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	in.ID = "41"
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", in, got)
	}
	if tags := got.TaxObligations(); len(tags) != len(Obligations) {
		t.Fatalf("expected all %d tags got %v", len(Obligations), tags)
	}

	_, err = svc.Get(context.Background(), "999")
	if !errors.Is(err, api.ErrNotFound) || !strings.Contains(err.Error(), "Client not found") {
		t.Fatalf("expected not found got %v", err)
	}
}
