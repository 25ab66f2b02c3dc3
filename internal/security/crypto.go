// Package security signs exported profiles. Each install keeps an Ed25519
// keypair under its home directory; an export written with a detached
// signature can be checked on import to catch hand-edited progress.
package security

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrBadSignature is returned when an export does not match its signature.
var ErrBadSignature = errors.New("profile signature does not match")

// Keypair holds the install's Ed25519 identity.
type Keypair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// GenerateKeypair creates a new Ed25519 keypair.
func GenerateKeypair() (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 keypair: %w", err)
	}
	return &Keypair{Public: pub, Private: priv}, nil
}

// LoadOrCreateKeypair loads the keypair from home/keys, or generates one on
// first use.
func LoadOrCreateKeypair(home string) (*Keypair, error) {
	keyDir := filepath.Join(home, "keys")
	pubPath := filepath.Join(keyDir, "profile.pub")
	privPath := filepath.Join(keyDir, "profile.key")

	pubBytes, pubErr := os.ReadFile(pubPath)
	privBytes, privErr := os.ReadFile(privPath)

	if pubErr == nil && privErr == nil {
		pub, err := hex.DecodeString(string(bytes.TrimSpace(pubBytes)))
		if err != nil {
			return nil, fmt.Errorf("decode public key: %w", err)
		}
		priv, err := hex.DecodeString(string(bytes.TrimSpace(privBytes)))
		if err != nil {
			return nil, fmt.Errorf("decode private key: %w", err)
		}
		if len(pub) != ed25519.PublicKeySize || len(priv) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("key files in %s have the wrong size", keyDir)
		}
		return &Keypair{
			Public:  ed25519.PublicKey(pub),
			Private: ed25519.PrivateKey(priv),
		}, nil
	}

	kp, err := GenerateKeypair()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(keyDir, 0700); err != nil {
		return nil, fmt.Errorf("create key dir: %w", err)
	}
	if err := os.WriteFile(pubPath, []byte(hex.EncodeToString(kp.Public)), 0644); err != nil {
		return nil, fmt.Errorf("write public key: %w", err)
	}
	if err := os.WriteFile(privPath, []byte(hex.EncodeToString(kp.Private)), 0600); err != nil {
		return nil, fmt.Errorf("write private key: %w", err)
	}

	return kp, nil
}

// PublicKeyHex returns the public key as a hex string.
func (kp *Keypair) PublicKeyHex() string {
	return hex.EncodeToString(kp.Public)
}

// SignExport returns a hex-encoded detached signature for blob.
func (kp *Keypair) SignExport(blob []byte) string {
	return hex.EncodeToString(ed25519.Sign(kp.Private, blob))
}

// VerifyExport checks a hex signature produced by SignExport.
func (kp *Keypair) VerifyExport(blob []byte, sigHex string) error {
	sig, err := hex.DecodeString(string(bytes.TrimSpace([]byte(sigHex))))
	if err != nil || len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("%w: malformed signature", ErrBadSignature)
	}
	if !ed25519.Verify(kp.Public, blob, sig) {
		return ErrBadSignature
	}
	return nil
}

// SignaturePath is where the detached signature for an export file lives.
func SignaturePath(exportPath string) string {
	return exportPath + ".sig"
}
