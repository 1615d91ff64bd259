package operator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	clierr "github.com/ggonzalez94/ledgertools/internal/errors"
)

const testPrivateKeyHex = "59c6995e998f97a5a0044976f0945388cf9b7e5e5f4f9d2d9d8f1f5b7f6d11d1"

func TestLoadECDSAHex(t *testing.T) {
	op, err := Load(Config{AccountID: "0.0.1001", PrivateKey: "0x" + testPrivateKeyHex, Network: "testnet", Custodial: true})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	key, _ := crypto.HexToECDSA(testPrivateKeyHex)
	expected := crypto.PubkeyToAddress(key.PublicKey)
	if op.EVMAddress() != expected {
		t.Fatalf("unexpected address: %s", op.EVMAddress().Hex())
	}
	info := op.Info()
	if info.KeyType != KeyTypeECDSA || info.AccountID != "0.0.1001" || info.Network != "testnet" || !info.Custodial {
		t.Fatalf("unexpected info: %+v", info)
	}
	if !strings.HasPrefix(info.PublicKey, ecdsaPublicDERPrefix) {
		t.Fatalf("expected DER-prefixed public key, got %s", info.PublicKey)
	}
	if op.Secret() != testPrivateKeyHex {
		t.Fatal("expected secret to round trip for redaction")
	}
}

func TestLoadECDSADERPrefixed(t *testing.T) {
	op, err := Load(Config{AccountID: "0.0.1001", PrivateKey: ecdsaPrivateDERPrefix + testPrivateKeyHex, Network: "mainnet", Custodial: true})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if op.KeyType() != KeyTypeECDSA {
		t.Fatalf("unexpected key type: %s", op.KeyType())
	}
}

func TestLoadED25519DERPrefixed(t *testing.T) {
	op, err := Load(Config{AccountID: "0.0.1062664", PrivateKey: ed25519PrivateDERPrefix + testPrivateKeyHex, Network: "testnet", Custodial: true})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	info := op.Info()
	if info.KeyType != KeyTypeED25519 {
		t.Fatalf("unexpected key type: %s", info.KeyType)
	}
	if !strings.HasPrefix(info.PublicKey, ed25519PublicDERPrefix) || len(info.PublicKey) != len(ed25519PublicDERPrefix)+64 {
		t.Fatalf("unexpected public key: %s", info.PublicKey)
	}
	if info.EVMAddress != "0x0000000000000000000000000000000000103708" {
		t.Fatalf("expected long-zero address, got %s", info.EVMAddress)
	}
}

func TestLoadFromKeystore(t *testing.T) {
	key, err := crypto.HexToECDSA(testPrivateKeyHex)
	if err != nil {
		t.Fatalf("parse key: %v", err)
	}
	encrypted, err := keystore.EncryptKey(&keystore.Key{
		Id:         uuid.New(),
		Address:    crypto.PubkeyToAddress(key.PublicKey),
		PrivateKey: key,
	}, "hunter22", keystore.LightScryptN, keystore.LightScryptP)
	if err != nil {
		t.Fatalf("encrypt key: %v", err)
	}
	path := filepath.Join(t.TempDir(), "operator.json")
	if err := os.WriteFile(path, encrypted, 0o600); err != nil {
		t.Fatalf("write keystore: %v", err)
	}

	op, err := Load(Config{AccountID: "0.0.1001", KeystorePath: path, KeystorePassword: "hunter22", Network: "testnet", Custodial: true})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if op.EVMAddress() != crypto.PubkeyToAddress(key.PublicKey) {
		t.Fatalf("unexpected address: %s", op.EVMAddress().Hex())
	}

	_, err = Load(Config{AccountID: "0.0.1001", KeystorePath: path, KeystorePassword: "wrong", Network: "testnet", Custodial: true})
	if code := clierr.ExitCode(err); code != int(clierr.CodeAuth) {
		t.Fatalf("expected auth error for bad password, got %v", err)
	}
}

func TestRequireCredentials(t *testing.T) {
	err := RequireCredentials(Config{Custodial: true, AccountID: "0.0.1001"})
	if clierr.ExitCode(err) != int(clierr.CodeAuth) {
		t.Fatalf("expected auth error without key, got %v", err)
	}
	err = RequireCredentials(Config{Custodial: true, PrivateKey: testPrivateKeyHex})
	if clierr.ExitCode(err) != int(clierr.CodeAuth) {
		t.Fatalf("expected auth error without account, got %v", err)
	}
	if err := RequireCredentials(Config{Custodial: false}); err != nil {
		t.Fatalf("non-custodial mode should not require credentials: %v", err)
	}
}

func TestLoadRejectsMalformedKey(t *testing.T) {
	_, err := Load(Config{AccountID: "0.0.1001", PrivateKey: "abc", Network: "testnet", Custodial: true})
	if clierr.ExitCode(err) != int(clierr.CodeAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
}
