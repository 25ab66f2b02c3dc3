package security

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// ─── Keypair Generation ─────────────────────────────────────────────────────

func TestGenerateKeypair(t *testing.T) {
	kp, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	if len(kp.Public) != 32 {
		t.Errorf("public key len = %d, want 32", len(kp.Public))
	}
	if len(kp.Private) != 64 {
		t.Errorf("private key len = %d, want 64", len(kp.Private))
	}
}

func TestGenerateKeypair_Unique(t *testing.T) {
	kp1, _ := GenerateKeypair()
	kp2, _ := GenerateKeypair()

	if kp1.PublicKeyHex() == kp2.PublicKeyHex() {
		t.Error("two generated keypairs should have different public keys")
	}
}

// ─── Persistence ────────────────────────────────────────────────────────────

func TestLoadOrCreateKeypair(t *testing.T) {
	home := t.TempDir()

	first, err := LoadOrCreateKeypair(home)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	info, err := os.Stat(filepath.Join(home, "keys", "profile.key"))
	if err != nil {
		t.Fatalf("private key not written: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("private key mode = %v, want 0600", info.Mode().Perm())
	}

	second, err := LoadOrCreateKeypair(home)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if first.PublicKeyHex() != second.PublicKeyHex() {
		t.Error("reloaded keypair differs from the one created")
	}
}

func TestLoadOrCreateKeypair_Corrupt(t *testing.T) {
	home := t.TempDir()
	keyDir := filepath.Join(home, "keys")
	os.MkdirAll(keyDir, 0700)
	os.WriteFile(filepath.Join(keyDir, "profile.pub"), []byte("zz"), 0644)
	os.WriteFile(filepath.Join(keyDir, "profile.key"), []byte("zz"), 0600)

	if _, err := LoadOrCreateKeypair(home); err == nil {
		t.Error("expected error for corrupt key files")
	}
}

// ─── Export Signatures ──────────────────────────────────────────────────────

func TestSignVerifyExport(t *testing.T) {
	kp, _ := GenerateKeypair()
	blob := []byte(`{"xp":120,"level":2}`)

	sig := kp.SignExport(blob)
	if err := kp.VerifyExport(blob, sig); err != nil {
		t.Errorf("valid signature rejected: %v", err)
	}
	if err := kp.VerifyExport(blob, sig+"\n"); err != nil {
		t.Errorf("trailing newline should be tolerated: %v", err)
	}

	tampered := []byte(`{"xp":99999,"level":2}`)
	if err := kp.VerifyExport(tampered, sig); !errors.Is(err, ErrBadSignature) {
		t.Errorf("expected ErrBadSignature for tampered blob, got %v", err)
	}
	if err := kp.VerifyExport(blob, "not-hex"); !errors.Is(err, ErrBadSignature) {
		t.Errorf("expected ErrBadSignature for malformed signature, got %v", err)
	}

	other, _ := GenerateKeypair()
	if err := other.VerifyExport(blob, sig); !errors.Is(err, ErrBadSignature) {
		t.Errorf("signature from another install should not verify")
	}
}

func TestSignaturePath(t *testing.T) {
	if got := SignaturePath("/tmp/profile.json"); got != "/tmp/profile.json.sig" {
		t.Errorf("SignaturePath = %q", got)
	}
}
