package domain

import "testing"

func TestNormalizeDocumentType(t *testing.T) {
	tests := []struct {
		raw      string
		location string
		wantType DocumentType
		wantSide DocumentSide
	}{
		{"business_license", "", DocumentKBIS, SideNone},
		{"identity_verso", "", DocumentIdentity, SideVerso},
		{"id_card", "movers/42/cni_verso.jpg", DocumentIdentity, SideVerso},
		{"id_card", "movers/42/cni.jpg", DocumentIdentity, SideRecto},
		{"license", "", DocumentTransportLicense, SideNone},
		{"Transport_License", "", DocumentTransportLicense, SideNone},
	}
	for _, tt := range tests {
		gotType, gotSide, ok := NormalizeDocumentType(tt.raw, tt.location)
		if !ok || gotType != tt.wantType || gotSide != tt.wantSide {
			t.Fatalf("NormalizeDocumentType(%q, %q) = %s/%s/%v", tt.raw, tt.location, gotType, gotSide, ok)
		}
	}
	if _, _, ok := NormalizeDocumentType("selfie", ""); ok {
		t.Fatalf("expected unknown type to be rejected")
	}
}
