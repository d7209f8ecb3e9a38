package constants

import "testing"

func TestMapExtToKind(t *testing.T) {
	cases := []struct {
		ext  string
		want DocumentKind
		ok   bool
	}{
		{".pdf", PDF, true},
		{"PDF", PDF, true},
		{".JPG", IMAGE, true},
		{"jpeg", IMAGE, true},
		{".png", IMAGE, true},
		{".tiff", IMAGE, true},
		{".docx", DOCX, true},
		{".doc", "", false},
		{".txt", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := MapExtToKind(tc.ext)
		if got != tc.want || ok != tc.ok {
			t.Errorf("MapExtToKind(%q) = %q,%v want %q,%v", tc.ext, got, ok, tc.want, tc.ok)
		}
		if IsAllowedExt(tc.ext) != tc.ok {
			t.Errorf("IsAllowedExt(%q) = %v", tc.ext, !tc.ok)
		}
	}
	if MIMEType(".docx") != AllowedExtensions["docx"] || MIMEType(".bin") != "application/octet-stream" {
		t.Error("MIMEType mismatch")
	}
}
