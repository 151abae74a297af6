package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cryptodevs/nftmint/internal/metadata"
)

func TestCollectionDefaults(t *testing.T) {
	got := collection(MetadataConfig{Description: "Devs"})
	if got.Description != "Devs" || got.NamePrefix != metadata.DefaultNamePrefix || got.ImageExt != ".svg" {
		t.Errorf("collection = %+v", got)
	}
}

func TestLoadCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
chain:
  network: localhost
metadata:
  name_prefix: "Dev #"
  image_base_url: https://img.example/
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := loadCollection(path)
	if err != nil {
		t.Fatalf("loadCollection: %v", err)
	}
	if doc := c.Respond("3"); doc.Name != "Dev #3" || doc.Image != "https://img.example/3.svg" {
		t.Errorf("doc = %+v", doc)
	}
}

func TestLoadCollectionInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("chain: [oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadCollection(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestNewKeyringReadOnly(t *testing.T) {
	k, err := newKeyring(WalletConfig{})
	if err != nil || k != nil {
		t.Fatalf("newKeyring(empty) = %v, %v", k, err)
	}
}

func TestNewKeyringHex(t *testing.T) {
	const key = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	k, err := newKeyring(WalletConfig{PrivateKey: key})
	if err != nil {
		t.Fatal(err)
	}
	if got := k.Address().Hex(); got != "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266" {
		t.Errorf("address = %s", got)
	}
}
