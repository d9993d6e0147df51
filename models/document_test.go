package models

import "testing"

func TestNormalizeDocumentType(t *testing.T) {
	tests := []struct {
		raw  string
		want DocumentType
	}{
		{"POLICY", DocTypePolicy},
		{"policy", DocTypePolicy},
		{"  Law ", DocTypeLaw},
		{"DECREE", DocTypeDecree},
		{"", DocTypeUnknown},
		{"memo", DocTypeUnknown},
	}
	for _, tt := range tests {
		if got := NormalizeDocumentType(tt.raw); got != tt.want {
			t.Errorf("NormalizeDocumentType(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}
