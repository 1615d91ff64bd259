package id

import (
	"encoding/binary"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	clierr "github.com/ggonzalez94/ledgertools/internal/errors"
)

var entityIDPattern = regexp.MustCompile(`^([0-9]+)\.([0-9]+)\.([0-9]+)$`)

type Network struct {
	Name       string
	EVMChainID int64
}

var networkBySlug = map[string]Network{
	"mainnet":    {Name: "mainnet", EVMChainID: 295},
	"testnet":    {Name: "testnet", EVMChainID: 296},
	"previewnet": {Name: "previewnet", EVMChainID: 297},
}

func ParseNetwork(input string) (Network, error) {
	norm := strings.ToLower(strings.TrimSpace(input))
	if norm == "" {
		return Network{}, clierr.New(clierr.CodeUsage, "network is required")
	}
	if n, ok := networkBySlug[norm]; ok {
		return n, nil
	}
	if v, err := strconv.ParseInt(norm, 10, 64); err == nil {
		for _, n := range networkBySlug {
			if n.EVMChainID == v {
				return n, nil
			}
		}
	}
	return Network{}, clierr.New(clierr.CodeUsage, fmt.Sprintf("unsupported network: %s", input))
}

// EntityID is a Hedera shard.realm.num identifier (accounts, tokens, topics, contracts).
type EntityID struct {
	Shard uint64
	Realm uint64
	Num   uint64
}

func (e EntityID) String() string {
	return fmt.Sprintf("%d.%d.%d", e.Shard, e.Realm, e.Num)
}

// LongZeroAddress is the EVM address form of an entity ID.
func (e EntityID) LongZeroAddress() common.Address {
	var addr common.Address
	binary.BigEndian.PutUint32(addr[0:4], uint32(e.Shard))
	binary.BigEndian.PutUint64(addr[4:12], e.Realm)
	binary.BigEndian.PutUint64(addr[12:20], e.Num)
	return addr
}

func ParseEntityID(input string) (EntityID, error) {
	norm := strings.TrimSpace(input)
	m := entityIDPattern.FindStringSubmatch(norm)
	if m == nil {
		return EntityID{}, clierr.Validation(fmt.Sprintf("invalid entity id %q (expected shard.realm.num)", input))
	}
	parts := make([]uint64, 3)
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseUint(m[i+1], 10, 64)
		if err != nil {
			return EntityID{}, clierr.Validation(fmt.Sprintf("invalid entity id %q", input))
		}
		parts[i] = v
	}
	return EntityID{Shard: parts[0], Realm: parts[1], Num: parts[2]}, nil
}

// Account is an account reference: either an entity ID or an EVM alias address.
type Account struct {
	EntityID   string
	EVMAddress string
}

// Ref returns the form accepted by the mirror node accounts endpoint.
func (a Account) Ref() string {
	if a.EntityID != "" {
		return a.EntityID
	}
	return a.EVMAddress
}

// ParseAccount accepts shard.realm.num or a 0x EVM address. Long-zero
// addresses are folded back into their entity ID.
func ParseAccount(input string) (Account, error) {
	norm := strings.TrimSpace(input)
	if norm == "" {
		return Account{}, clierr.Validation("account id is required")
	}
	if entity, err := ParseEntityID(norm); err == nil {
		return Account{EntityID: entity.String()}, nil
	}
	if !common.IsHexAddress(norm) {
		return Account{}, clierr.Validation(fmt.Sprintf("invalid account %q (expected 0.0.x or 0x EVM address)", input))
	}
	addr := common.HexToAddress(norm)
	if entity, ok := longZeroEntity(addr); ok {
		return Account{EntityID: entity.String(), EVMAddress: strings.ToLower(addr.Hex())}, nil
	}
	return Account{EVMAddress: strings.ToLower(addr.Hex())}, nil
}

func longZeroEntity(addr common.Address) (EntityID, bool) {
	for _, b := range addr[4:12] {
		if b != 0 {
			return EntityID{}, false
		}
	}
	if binary.BigEndian.Uint32(addr[0:4]) != 0 {
		return EntityID{}, false
	}
	num := binary.BigEndian.Uint64(addr[12:20])
	if num == 0 {
		return EntityID{}, false
	}
	return EntityID{Num: num}, true
}
