package auth

import "testing"

func TestNormalizeEmailIsCaseInsensitive(t *testing.T) {
	if NormalizeEmail("  A@B.com ") != NormalizeEmail("a@b.com") {
		t.Fatal("normalization must ignore case and surrounding space")
	}
}

func TestParseEmail(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "User@UN.org", want: "user@un.org"},
		{raw: "  someone@example.com  ", want: "someone@example.com"},
		{raw: "", wantErr: true},
		{raw: "   ", wantErr: true},
		{raw: "not-an-email", wantErr: true},
		{raw: "Name <a@b.com>", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseEmail(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseEmail(%q) err = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseEmail(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestEmailDomain(t *testing.T) {
	if got := EmailDomain("user@un.org"); got != "un.org" {
		t.Errorf("EmailDomain = %q", got)
	}
	if got := EmailDomain("nodomain"); got != "" {
		t.Errorf("EmailDomain = %q, want empty", got)
	}
}
