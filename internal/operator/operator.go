package operator

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	clierr "github.com/ggonzalez94/ledgertools/internal/errors"
	"github.com/ggonzalez94/ledgertools/internal/id"
	"github.com/ggonzalez94/ledgertools/internal/model"
)

const (
	KeyTypeECDSA   = "ECDSA_SECP256K1"
	KeyTypeED25519 = "ED25519"
)

// DER prefixes used by Hedera tooling when exporting keys as hex.
const (
	ecdsaPrivateDERPrefix   = "3030020100300706052b8104000a04220420"
	ed25519PrivateDERPrefix = "302e020100300506032b657004220420"
	ecdsaPublicDERPrefix    = "302d300706052b8104000a032200"
	ed25519PublicDERPrefix  = "302a300506032b6570032100"
)

// Config names the credential sources for the custodial operator.
type Config struct {
	AccountID        string
	PrivateKey       string
	KeystorePath     string
	KeystorePassword string
	Network          string
	Custodial        bool
}

// Operator holds the account that executes transactions in custodial mode.
// Key material never leaves this type.
type Operator struct {
	account   id.EntityID
	network   id.Network
	keyType   string
	ecdsaKey  *ecdsa.PrivateKey
	edKey     ed25519.PrivateKey
	custodial bool
}

// RequireCredentials fails when custodial mode is active and the operator
// account or its key is missing.
func RequireCredentials(cfg Config) error {
	if !cfg.Custodial {
		return nil
	}
	hasKey := strings.TrimSpace(cfg.PrivateKey) != "" || strings.TrimSpace(cfg.KeystorePath) != ""
	if strings.TrimSpace(cfg.AccountID) == "" || !hasKey {
		return clierr.New(clierr.CodeAuth, "HEDERA_ACCOUNT_ID and HEDERA_PRIVATE_KEY are required in custodial mode")
	}
	return nil
}

// Load resolves the operator from cfg. The private key is read from the raw
// value first and falls back to an encrypted keystore file.
func Load(cfg Config) (*Operator, error) {
	if err := RequireCredentials(cfg); err != nil {
		return nil, err
	}
	network, err := id.ParseNetwork(cfg.Network)
	if err != nil {
		return nil, err
	}
	account, err := id.ParseEntityID(cfg.AccountID)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeAuth, "invalid operator account id", err)
	}

	op := &Operator{account: account, network: network, custodial: cfg.Custodial}
	switch {
	case strings.TrimSpace(cfg.PrivateKey) != "":
		if err := op.parseKey(cfg.PrivateKey); err != nil {
			return nil, err
		}
	case strings.TrimSpace(cfg.KeystorePath) != "":
		key, err := loadKeystore(cfg.KeystorePath, cfg.KeystorePassword)
		if err != nil {
			return nil, err
		}
		op.keyType = KeyTypeECDSA
		op.ecdsaKey = key
	}
	return op, nil
}

func (o *Operator) AccountID() string { return o.account.String() }

func (o *Operator) KeyType() string { return o.keyType }

// EVMAddress returns the key-derived address for ECDSA operators and the
// long-zero address of the account otherwise.
func (o *Operator) EVMAddress() common.Address {
	if o.ecdsaKey != nil {
		return crypto.PubkeyToAddress(o.ecdsaKey.PublicKey)
	}
	return o.account.LongZeroAddress()
}

// PublicKey returns the DER-encoded public key as hex, or "" when no key is loaded.
func (o *Operator) PublicKey() string {
	switch {
	case o.ecdsaKey != nil:
		return ecdsaPublicDERPrefix + hex.EncodeToString(crypto.CompressPubkey(&o.ecdsaKey.PublicKey))
	case o.edKey != nil:
		pub, _ := o.edKey.Public().(ed25519.PublicKey)
		return ed25519PublicDERPrefix + hex.EncodeToString(pub)
	default:
		return ""
	}
}

func (o *Operator) Info() model.OperatorInfo {
	return model.OperatorInfo{
		AccountID:  o.AccountID(),
		Network:    o.network.Name,
		KeyType:    o.keyType,
		PublicKey:  o.PublicKey(),
		EVMAddress: strings.ToLower(o.EVMAddress().Hex()),
		Custodial:  o.custodial,
	}
}

// Secret returns the raw private key hex so logging can redact it.
func (o *Operator) Secret() string {
	switch {
	case o.ecdsaKey != nil:
		return hex.EncodeToString(crypto.FromECDSA(o.ecdsaKey))
	case o.edKey != nil:
		return hex.EncodeToString(o.edKey.Seed())
	default:
		return ""
	}
}

func (o *Operator) parseKey(raw string) error {
	clean := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), "0x"))
	switch {
	case strings.HasPrefix(clean, ed25519PrivateDERPrefix):
		seed, err := hex.DecodeString(strings.TrimPrefix(clean, ed25519PrivateDERPrefix))
		if err != nil || len(seed) != ed25519.SeedSize {
			return clierr.New(clierr.CodeAuth, "invalid ED25519 private key")
		}
		o.keyType = KeyTypeED25519
		o.edKey = ed25519.NewKeyFromSeed(seed)
		return nil
	case strings.HasPrefix(clean, ecdsaPrivateDERPrefix):
		clean = strings.TrimPrefix(clean, ecdsaPrivateDERPrefix)
	}
	if len(clean) != 64 {
		return clierr.New(clierr.CodeAuth, "private key must be 32-byte hex, optionally DER-prefixed")
	}
	key, err := crypto.HexToECDSA(clean)
	if err != nil {
		return clierr.Wrap(clierr.CodeAuth, "invalid ECDSA private key", err)
	}
	o.keyType = KeyTypeECDSA
	o.ecdsaKey = key
	return nil
}

func loadKeystore(path, password string) (*ecdsa.PrivateKey, error) {
	keyJSON, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeAuth, "read keystore file", err)
	}
	key, err := keystore.DecryptKey(keyJSON, password)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeAuth, fmt.Sprintf("decrypt keystore %s", filepath.Base(path)), err)
	}
	return key.PrivateKey, nil
}
