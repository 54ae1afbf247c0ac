package internal

import (
	"strings"
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestVaultConfig_ResolvedOutputDirDefault(t *testing.T) {
	cfg := VaultConfig{InputDir: "日々の記録"}
	if got := cfg.ResolvedOutputDir(); got != "日々の記録まとめ" {
		t.Errorf("ResolvedOutputDir = %q", got)
	}
	cfg.OutputDir = "summary"
	if got := cfg.ResolvedOutputDir(); got != "summary" {
		t.Errorf("ResolvedOutputDir = %q", got)
	}
}

func TestVaultConfig_ArchivePath(t *testing.T) {
	cfg := VaultConfig{InputDir: "daily", ArchiveDir: "oldfiles"}
	if got := cfg.ArchivePath(); got != "daily/oldfiles" {
		t.Errorf("ArchivePath = %q", got)
	}
}

func TestVaultConfig_ExtensionMustHaveDot(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Vault.Extension = "md"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("extension without dot should fail")
	}
	if !strings.Contains(err.Error(), "extension") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestVaultConfig_RequiresPath(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Vault.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty vault path should fail")
	}
}

func TestHistoryConfig_Enabled(t *testing.T) {
	if (&HistoryConfig{}).Enabled() {
		t.Error("empty path should disable the ledger")
	}
	if !(&HistoryConfig{Path: "x.db"}).Enabled() {
		t.Error("non-empty path should enable the ledger")
	}
}

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}
