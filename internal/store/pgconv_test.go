package store

import (
	"testing"
	"time"
)

func TestPgDateRoundTrip(t *testing.T) {
	if toPgDate(nil).Valid {
		t.Error("nil date should be invalid")
	}
	if fromPgDate(toPgDate(nil)) != nil {
		t.Error("invalid date should read back as nil")
	}

	in := time.Date(2025, 3, 1, 18, 45, 0, 0, time.FixedZone("KST", 9*3600))
	got := fromPgDate(toPgDate(&in))
	want := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if got == nil || !got.Equal(want) {
		t.Errorf("round trip = %v, want %v", got, want)
	}
}

func TestPgUUID(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
	}{
		{name: "valid", input: "0b6b1c9e-8f1e-4f0e-9d7a-3f1f2c1d5e6a", wantValid: true},
		{name: "empty", input: "", wantValid: false},
		{name: "garbage", input: "not-a-uuid", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := toPgUUID(tt.input)
			if u.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v", u.Valid, tt.wantValid)
			}
			if tt.wantValid && pgUUIDToString(u) != tt.input {
				t.Errorf("round trip = %q, want %q", pgUUIDToString(u), tt.input)
			}
		})
	}
}
