package adapter

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// AccountProvider exposes the active account of the external wallet.
// The account may change between calls; callers must re-resolve it per
// operation rather than cache it for the session.
//
//go:generate mockgen -source=wallet.go -destination=../mocks/wallet.go -package=mocks -mock_names=AccountProvider=MockAccountProvider
type AccountProvider interface {
	// ActiveAccount returns the address the client currently operates on behalf of
	ActiveAccount(ctx context.Context) (common.Address, error)
}

// TxSigner signs transactions for an account held by the external wallet
//
//go:generate mockgen -source=wallet.go -destination=../mocks/wallet.go -package=mocks -mock_names=TxSigner=MockTxSigner
type TxSigner interface {
	// SignTx signs tx for the given account on the given chain
	SignTx(ctx context.Context, account common.Address, chainID *big.Int, tx *types.Transaction) (*types.Transaction, error)
}

// KeyedWallet is a headless AccountProvider + TxSigner backed by a
// single private key. Wallet discovery and unlocking stay external;
// this is the minimal stand-in for non-interactive deployments.
type KeyedWallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewKeyedWallet creates a wallet from a hex-encoded private key.
func NewKeyedWallet(hexKey string) (*KeyedWallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return &KeyedWallet{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func (w *KeyedWallet) ActiveAccount(ctx context.Context) (common.Address, error) {
	return w.address, nil
}

func (w *KeyedWallet) SignTx(ctx context.Context, account common.Address, chainID *big.Int, tx *types.Transaction) (*types.Transaction, error) {
	if account != w.address {
		return nil, fmt.Errorf("account %s not held by this wallet", account.Hex())
	}
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), w.key)
}
