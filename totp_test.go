package goAccounts

import (
	"strings"
	"testing"
	"time"
)

// Base32 of the ASCII seed "12345678901234567890" used by the RFC 6238
// reference vectors.
const rfcTestSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestVerifyCodeRFCVectors(t *testing.T) {
	m := newTOTPManager(TwoFactorConfig{Digits: 8, Period: 30, Window: 0})

	vectors := []struct {
		unix int64
		code string
	}{
		{59, "94287082"},
		{1111111109, "07081804"},
		{1111111111, "14050471"},
		{1234567890, "89005924"},
		{2000000000, "69279037"},
		{20000000000, "65353130"},
	}

	for _, v := range vectors {
		ok, err := m.VerifyCode(rfcTestSecret, v.code, time.Unix(v.unix, 0))
		if err != nil {
			t.Fatalf("VerifyCode at %d failed: %v", v.unix, err)
		}
		if !ok {
			t.Fatalf("expected code %s to verify at %d", v.code, v.unix)
		}
	}
}

func TestVerifyCodeWindow(t *testing.T) {
	strict := newTOTPManager(TwoFactorConfig{Digits: 8, Period: 30, Window: 0})
	lenient := newTOTPManager(TwoFactorConfig{Digits: 8, Period: 30, Window: 1})

	// The code for T=59 belongs to the previous step at T=61.
	if ok, _ := strict.VerifyCode(rfcTestSecret, "94287082", time.Unix(61, 0)); ok {
		t.Fatal("expected zero-window verification to reject drifted code")
	}
	if ok, _ := lenient.VerifyCode(rfcTestSecret, "94287082", time.Unix(61, 0)); !ok {
		t.Fatal("expected one-step window to accept drifted code")
	}
}

func TestVerifyCodeMalformedInput(t *testing.T) {
	m := newTOTPManager(TwoFactorConfig{Digits: 6, Period: 30, Window: 1})

	for _, code := range []string{"", "12345", "1234567", "12345a"} {
		if ok, _ := m.VerifyCode(rfcTestSecret, code, time.Now()); ok {
			t.Fatalf("expected malformed code %q to be rejected", code)
		}
	}

	if _, err := m.VerifyCode("not base32!!", "123456", time.Now()); err == nil {
		t.Fatal("expected invalid secret to error")
	}
}

func TestGenerateSecretIsBase32(t *testing.T) {
	m := newTOTPManager(TwoFactorConfig{Digits: 6, Period: 30, Window: 1})

	secret, err := m.GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret failed: %v", err)
	}
	raw, err := b32.DecodeString(secret)
	if err != nil {
		t.Fatalf("expected base32 secret, got %q: %v", secret, err)
	}
	if len(raw) != totpSecretBytes {
		t.Fatalf("expected %d secret bytes, got %d", totpSecretBytes, len(raw))
	}

	other, err := m.GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret failed: %v", err)
	}
	if other == secret {
		t.Fatal("expected distinct secrets")
	}
}

func TestProvisionURI(t *testing.T) {
	m := newTOTPManager(TwoFactorConfig{Issuer: "Example App", Digits: 6, Period: 30, Window: 1})

	uri := m.ProvisionURI(rfcTestSecret, "alice@example.com")
	if !strings.HasPrefix(uri, "otpauth://totp/") {
		t.Fatalf("expected otpauth URI, got %q", uri)
	}
	for _, fragment := range []string{"secret=" + rfcTestSecret, "digits=6", "period=30", "issuer=Example+App"} {
		if !strings.Contains(uri, fragment) {
			t.Fatalf("expected URI to contain %q, got %q", fragment, uri)
		}
	}
}
