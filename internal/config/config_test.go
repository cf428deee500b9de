package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaultsAndOverrides(t *testing.T) {
	cfg, err := Load([]string{"apiKey=K", "sign=S", "channel=orders", "instType=SWAP", "logLevel=4"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Host != "127.0.0.1" || cfg.Port != 9999 {
		t.Fatalf("defaults not applied: host=%s port=%d", cfg.Host, cfg.Port)
	}
	if cfg.WorkerCount != 4 {
		t.Fatalf("WorkerCount = %d, want 4", cfg.WorkerCount)
	}
	if cfg.InstType != "SWAP" {
		t.Fatalf("InstType = %s, want SWAP", cfg.InstType)
	}
}

func TestLoadRejectsMalformedArgument(t *testing.T) {
	if _, err := Load([]string{"notkeyvalue"}); err == nil {
		t.Fatalf("Load should fail on an argument with no '='")
	}
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	if _, err := Load([]string{"apiKey=K", "sign=S", "bogus=1"}); err == nil {
		t.Fatalf("Load should fail on an unrecognized key")
	}
}

func TestLoadRequiresCredentialsFromSomewhere(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "does-not-exist.json")
	if _, err := Load([]string{"credFile=" + missing}); err == nil {
		t.Fatalf("Load should fail when credentials are absent from both args and file")
	}
}

func TestLoadReadsCredentialsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")
	data, _ := json.Marshal(map[string]string{"apiKey": "fileKey", "sign": "fileSign"})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("writing credentials file: %v", err)
	}

	cfg, err := Load([]string{"credFile=" + path})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIKey != "fileKey" || cfg.Sign != "fileSign" {
		t.Fatalf("credentials = %s/%s, want fileKey/fileSign", cfg.APIKey, cfg.Sign)
	}
}

func TestLoadCLICredentialsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")
	data, _ := json.Marshal(map[string]string{"apiKey": "fileKey", "sign": "fileSign"})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("writing credentials file: %v", err)
	}

	cfg, err := Load([]string{"credFile=" + path, "apiKey=cliKey", "sign=cliSign"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIKey != "cliKey" || cfg.Sign != "cliSign" {
		t.Fatalf("credentials = %s/%s, want cliKey/cliSign", cfg.APIKey, cfg.Sign)
	}
}
