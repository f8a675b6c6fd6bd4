package clients

import (
	"strings"

	"github.com/sigmatax/console/internal/util"
)

// Membership statuses.
const (
	MembershipActive   = "active"
	MembershipInactive = "inactive"
)

// Obligation is one tax obligation flag a client can carry.
type Obligation struct {
	Field string
	Label string
}

// Obligations is the fixed, ordered set of tax obligation flags.
var Obligations = []Obligation{
	{"pph_final_umkm", "PPh Final UMKM"},
	{"pph_25", "PPh 25"},
	{"pph_21", "PPh 21"},
	{"pph_unifikasi", "PPh Unifikasi"},
	{"ppn", "PPN"},
	{"spt_tahunan", "SPT Tahunan"},
	{"pelaporan_deviden", "Pelaporan Deviden"},
	{"laporan_keuangan", "Laporan Keuangan"},
	{"investasi_deviden", "Investasi Deviden"},
}

// TaxFlags holds the obligation booleans.
type TaxFlags struct {
	PPhFinalUMKM     bool `json:"pph_final_umkm"`
	PPh25            bool `json:"pph_25"`
	PPh21            bool `json:"pph_21"`
	PPhUnifikasi     bool `json:"pph_unifikasi"`
	PPN              bool `json:"ppn"`
	SPTTahunan       bool `json:"spt_tahunan"`
	PelaporanDeviden bool `json:"pelaporan_deviden"`
	LaporanKeuangan  bool `json:"laporan_keuangan"`
	InvestasiDeviden bool `json:"investasi_deviden"`
}

func (f *TaxFlags) field(name string) *bool {
	switch name {
	case "pph_final_umkm":
		return &f.PPhFinalUMKM
	case "pph_25":
		return &f.PPh25
	case "pph_21":
		return &f.PPh21
	case "pph_unifikasi":
		return &f.PPhUnifikasi
	case "ppn":
		return &f.PPN
	case "spt_tahunan":
		return &f.SPTTahunan
	case "pelaporan_deviden":
		return &f.PelaporanDeviden
	case "laporan_keuangan":
		return &f.LaporanKeuangan
	case "investasi_deviden":
		return &f.InvestasiDeviden
	}
	return nil
}

// Has reports the flag named by field.
func (f TaxFlags) Has(field string) bool {
	if p := f.field(field); p != nil {
		return *p
	}
	return false
}

// Set changes the flag named by field; unknown names are ignored.
func (f *TaxFlags) Set(field string, v bool) {
	if p := f.field(field); p != nil {
		*p = v
	}
}

// Client is a customer of the firm.
type Client struct {
	ID                util.ID `json:"client_id,omitempty"`
	Name              string  `json:"client_name"`
	NPWP              string  `json:"npwp_client"`
	Address           string  `json:"address_client"`
	MembershipStatus  string  `json:"membership_status"`
	Phone             string  `json:"phone_client"`
	Email             string  `json:"email_client"`
	PIC               string  `json:"pic_client"`
	DJPOnlineUsername string  `json:"djp_online_username"`
	DJPOnlinePassword string  `json:"djp_online_password"`
	CoretaxUsername   string  `json:"coretax_username"`
	CoretaxPassword   string  `json:"coretax_password"`
	PICStaffID        util.ID `json:"pic_staff_sigma_id,omitempty"`
	Category          string  `json:"client_category"`
	TaxFlags
	RegisteredDate   string `json:"tanggal_terdaftar"`
	RegisteredDecree string `json:"no_sk_terdaftar"`
	PKPDate          string `json:"tanggal_pengukuhan_pkp"`
	PKPDecree        string `json:"no_sk_pengukuhan_pkp"`
}

// TaxObligations lists the labels of every flag that is set, in display order.
func (c Client) TaxObligations() []string {
	out := make([]string, 0, len(Obligations))
	for _, o := range Obligations {
		if c.Has(o.Field) {
			out = append(out, o.Label)
		}
	}
	return out
}

// Validate checks the fields the form requires.
func (c Client) Validate() util.FieldErrors {
	errs := util.FieldErrors{}
	errs.Check("client_name", util.RequireString(c.Name, "client name"))
	switch c.MembershipStatus {
	case MembershipActive, MembershipInactive:
	default:
		errs.Add("membership_status", "membership status must be active or inactive")
	}
	if strings.TrimSpace(c.Email) != "" {
		errs.Check("email_client", util.ValidateEmail(c.Email))
	}
	return errs
}
