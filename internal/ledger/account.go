package ledger

import (
	"fmt"

	"github.com/google/uuid"
)

// AccountScope represents the top-level account namespace
type AccountScope uint8

const (
	AccountScopePlayer AccountScope = iota
	AccountScopeSystem
	AccountScopeExternal
)

// AccountSubType represents the account purpose
type AccountSubType uint8

const (
	// Player sub-types
	SubTypeCash AccountSubType = iota

	// System sub-types
	SubTypeSystemVault       // bankroll-controlled escrow
	SubTypeSystemFeeTreasury // platform fee sink

	// External sub-types
	SubTypeExternalWorld // boundary account for deposits and withdrawals
)

// AccountKey is the in-memory key for balance tracking. The engine moves a
// single asset, so the key is scope + entity + purpose.
type AccountKey struct {
	Scope    AccountScope
	EntityID [16]byte // player UUID; zero for system/external accounts
	SubType  AccountSubType
}

// PlayerAccount returns the cash account key for a player.
func PlayerAccount(playerID uuid.UUID) AccountKey {
	return AccountKey{
		Scope:    AccountScopePlayer,
		EntityID: playerID,
		SubType:  SubTypeCash,
	}
}

// VaultAccount returns the house vault (escrow) account key.
func VaultAccount() AccountKey {
	return AccountKey{Scope: AccountScopeSystem, SubType: SubTypeSystemVault}
}

// FeeTreasuryAccount returns the platform fee sink account key.
func FeeTreasuryAccount() AccountKey {
	return AccountKey{Scope: AccountScopeSystem, SubType: SubTypeSystemFeeTreasury}
}

// ExternalAccount returns the boundary account funds enter and leave through.
// It is the only account allowed to carry a negative balance.
func ExternalAccount() AccountKey {
	return AccountKey{Scope: AccountScopeExternal, SubType: SubTypeExternalWorld}
}

// AccountPath returns the string representation for storage and logging.
func (k AccountKey) AccountPath() string {
	switch k.Scope {
	case AccountScopePlayer:
		uid := uuid.UUID(k.EntityID)
		return fmt.Sprintf("player:%s:%s", uid.String(), k.subTypeName())
	case AccountScopeSystem:
		return fmt.Sprintf("system:%s", k.subTypeName())
	case AccountScopeExternal:
		return fmt.Sprintf("external:%s", k.subTypeName())
	}
	return "unknown"
}

func (k AccountKey) subTypeName() string {
	switch k.SubType {
	case SubTypeCash:
		return "cash"
	case SubTypeSystemVault:
		return "vault"
	case SubTypeSystemFeeTreasury:
		return "fee_treasury"
	case SubTypeExternalWorld:
		return "world"
	default:
		return "unknown"
	}
}
