package assets

import (
	"context"
	"testing"
)

func TestRecoverDisplayName(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		want   string
	}{
		{
			name:   "CanonicalStoredName",
			stored: "c2d8f135-91a0-4e7b-b6c4-8f31d02a4f6e_report.pdf",
			want:   "report.pdf",
		},
		{
			name:   "UnderscoresInDisplayPart",
			stored: "c2d8f135-91a0-4e7b-b6c4-8f31d02a4f6e_my_notes_v2.md",
			want:   "my_notes_v2.md",
		},
		{
			name:   "UppercaseHexToken",
			stored: "C2D8F135-91A0-4E7B-B6C4-8F31D02A4F6E_photo.png",
			want:   "photo.png",
		},
		{
			name:   "NoTokenPrefix",
			stored: "plain-file.png",
			want:   "plain-file.png",
		},
		{
			name:   "TokenTooShort",
			stored: "abc123_short.png",
			want:   "abc123_short.png",
		},
		{
			name:   "TokenButNothingAfterUnderscore",
			stored: "c2d8f135-91a0-4e7b-b6c4-8f31d02a4f6e_",
			want:   "c2d8f135-91a0-4e7b-b6c4-8f31d02a4f6e_",
		},
		{
			name:   "NonHexToken",
			stored: "zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz_x.png",
			want:   "zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz_x.png",
		},
		{
			name:   "Empty",
			stored: "",
			want:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RecoverDisplayName(tt.stored); got != tt.want {
				t.Errorf("RecoverDisplayName(%q) = %q, want %q", tt.stored, got, tt.want)
			}
		})
	}
}

// Names minted by Ingest must always round-trip through recovery.
func TestRecoverDisplayNameMatchesMintedNames(t *testing.T) {
	svc, _ := newTestService(t)
	rec, _, err := svc.Ingest(context.Background(), []byte("x"), "holiday.jpg", "")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if got := RecoverDisplayName(rec.StoredName); got != "holiday.jpg" {
		t.Errorf("RecoverDisplayName(%q) = %q, want holiday.jpg", rec.StoredName, got)
	}
}
