package security

import "testing"

func TestHashPIN(t *testing.T) {
	pin := "4821"

	hash, err := HashPIN(pin)
	if err != nil {
		t.Fatalf("HashPIN() error = %v", err)
	}
	if hash == pin {
		t.Error("HashPIN() returned unhashed PIN")
	}
	if !IsHashed(hash) {
		t.Errorf("IsHashed(%q) = false", hash)
	}

	// Same PIN produces different hashes due to salt
	hash2, err := HashPIN(pin)
	if err != nil {
		t.Fatalf("HashPIN() error = %v", err)
	}
	if hash == hash2 {
		t.Error("HashPIN() should produce different hashes due to salt")
	}
}

func TestCheckPIN(t *testing.T) {
	hash, err := HashPIN("4821")
	if err != nil {
		t.Fatalf("HashPIN() error = %v", err)
	}

	tests := []struct {
		name       string
		stored     string
		pin        string
		wantOK     bool
		wantLegacy bool
	}{
		{name: "hashed match", stored: hash, pin: "4821", wantOK: true},
		{name: "hashed mismatch", stored: hash, pin: "1234", wantOK: false},
		{name: "hashed empty", stored: hash, pin: "", wantOK: false},
		{name: "plaintext match", stored: "4821", pin: "4821", wantOK: true, wantLegacy: true},
		{name: "plaintext mismatch", stored: "4821", pin: "4822", wantOK: false, wantLegacy: true},
		{name: "plaintext is case sensitive", stored: "abCD", pin: "abcd", wantOK: false, wantLegacy: true},
		{name: "plaintext prefix only", stored: "4821", pin: "482", wantOK: false, wantLegacy: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, legacy := CheckPIN(tt.stored, tt.pin)
			if ok != tt.wantOK || legacy != tt.wantLegacy {
				t.Errorf("CheckPIN() = (%v, %v), want (%v, %v)", ok, legacy, tt.wantOK, tt.wantLegacy)
			}
		})
	}
}

func TestIsHashed(t *testing.T) {
	tests := []struct {
		stored string
		want   bool
	}{
		{"$2a$10$abcdefghijklmnopqrstuv", true},
		{"$2b$12$abcdefghijklmnopqrstuv", true},
		{"$2y$10$abcdefghijklmnopqrstuv", true},
		{"1234", false},
		{"$1$md5crypt", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.stored, func(t *testing.T) {
			if got := IsHashed(tt.stored); got != tt.want {
				t.Errorf("IsHashed(%q) = %v, want %v", tt.stored, got, tt.want)
			}
		})
	}
}
