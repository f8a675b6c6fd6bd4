package util

import (
	"encoding/json"
	"testing"
)

func TestIDUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want ID
	}{
		{`12`, "12"},
		{`"12"`, "12"},
		{`"abc-1"`, "abc-1"},
		{`null`, ""},
	}
	for _, tc := range tests {
		var id ID
		if err := json.Unmarshal([]byte(tc.in), &id); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.in, err)
		}
		if id != tc.want {
			t.Fatalf("expected %q got %q", tc.want, id)
		}
	}
}

func TestIDMarshal(t *testing.T) {
	tests := []struct {
		in   ID
		want string
	}{
		{"12", `12`},
		{"abc", `"abc"`},
		{"", `null`},
	}
	for _, tc := range tests {
		b, err := json.Marshal(tc.in)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(b) != tc.want {
			t.Fatalf("expected %s got %s", tc.want, b)
		}
	}
}

func TestFieldErrors(t *testing.T) {
	fe := FieldErrors{}
	if fe.Err() != nil {
		t.Fatalf("expected nil for empty errors")
	}
	fe.Check("email", ValidateEmail("nope"))
	fe.Add("email", "second")
	if fe["email"] != "email is invalid" {
		t.Fatalf("expected first message kept got %q", fe["email"])
	}
	fe.Add("_form", "Client and PIC are required.")
	if fe.Err().Error() != "Client and PIC are required." {
		t.Fatalf("unexpected message %q", fe.Error())
	}
}
