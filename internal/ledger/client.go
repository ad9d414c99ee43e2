package ledger

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/imgmarket/storefront/internal/adapter"
	"github.com/imgmarket/storefront/internal/domain"
)

// storeABIJSON is the interface of the on-chain store contract. Only
// the calls the client consumes are declared.
const storeABIJSON = `[
	{"constant":true,"inputs":[{"name":"imageId","type":"uint256"}],"name":"getPrice","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"imageId","type":"uint256"}],"name":"getStock","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"imageId","type":"uint256"},{"name":"user","type":"address"}],"name":"getUserPurchaseCount","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"imageId","type":"uint256"}],"name":"getBuyers","outputs":[{"name":"","type":"address[]"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"imageId","type":"uint256"}],"name":"getPurchaseHistory","outputs":[{"name":"buyers","type":"address[]"},{"name":"timestamps","type":"uint256[]"}],"stateMutability":"view","type":"function"},
	{"constant":false,"inputs":[{"name":"imageId","type":"uint256"}],"name":"buyImage","outputs":[],"stateMutability":"payable","type":"function"},
	{"constant":false,"inputs":[{"name":"imageId","type":"uint256"},{"name":"newPrice","type":"uint256"}],"name":"setPrice","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"constant":false,"inputs":[{"name":"imageId","type":"uint256"}],"name":"resellImage","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

// Ledger is the typed boundary to the store contract. Reads are
// idempotent and side-effect free. Submits are NOT idempotent: a submit
// whose outcome is unknown must never be retried without first
// re-querying ledger state to detect whether it already applied.
//
//go:generate mockgen -source=client.go -destination=../mocks/ledger.go -package=mocks -mock_names=Ledger=MockLedger
type Ledger interface {
	// GetPrice returns the current price of an item in minor units (wei)
	GetPrice(ctx context.Context, id int64) (*big.Int, error)

	// GetStock returns the remaining stock of an item
	GetStock(ctx context.Context, id int64) (uint64, error)

	// GetUserPurchaseCount returns how many times account purchased the item
	GetUserPurchaseCount(ctx context.Context, id int64, account common.Address) (uint64, error)

	// GetBuyers returns the ordered buyer list of an item (may contain duplicates)
	GetBuyers(ctx context.Context, id int64) ([]string, error)

	// GetPurchaseHistory returns the full append-only purchase record set of an item
	GetPurchaseHistory(ctx context.Context, id int64) ([]domain.PurchaseRecord, error)

	// SubmitPurchase submits a purchase transferring amount, then awaits confirmation
	SubmitPurchase(ctx context.Context, id int64, account common.Address, amount *big.Int) (*domain.TransactionOutcome, error)

	// SubmitPriceUpdate submits a price change, then awaits confirmation.
	// Authorization is enforced by the ledger, not here.
	SubmitPriceUpdate(ctx context.Context, id int64, newPrice *big.Int, account common.Address) (*domain.TransactionOutcome, error)

	// SubmitResale submits a resale returning the item's value, then awaits confirmation
	SubmitResale(ctx context.Context, id int64, account common.Address) (*domain.TransactionOutcome, error)

	// Close closes the underlying connection
	Close()
}

// Config holds store client tuning.
type Config struct {
	ContractAddress string
	// ConfirmationWindow bounds how long a submit waits for its receipt
	// before reporting an Unknown outcome.
	ConfirmationWindow time.Duration
	// ReceiptPollInterval is the initial receipt polling interval.
	ReceiptPollInterval time.Duration
}

type storeClient struct {
	contract common.Address
	chainID  *big.Int
	storeABI abi.ABI
	client   adapter.EthClient
	signer   adapter.TxSigner
	clock    adapter.Clock
	cfg      Config
}

// NewClient creates a Ledger backed by the store contract. The chain ID
// is resolved once at construction; signer may be nil for read-only use.
func NewClient(ctx context.Context, cfg Config, client adapter.EthClient, signer adapter.TxSigner, clock adapter.Clock) (Ledger, error) {
	parsed, err := abi.JSON(strings.NewReader(storeABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse store ABI: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve chain id: %w", domain.ErrUnavailable)
	}

	if cfg.ConfirmationWindow <= 0 {
		cfg.ConfirmationWindow = 90 * time.Second
	}
	if cfg.ReceiptPollInterval <= 0 {
		cfg.ReceiptPollInterval = 2 * time.Second
	}

	return &storeClient{
		contract: common.HexToAddress(cfg.ContractAddress),
		chainID:  chainID,
		storeABI: parsed,
		client:   client,
		signer:   signer,
		clock:    clock,
		cfg:      cfg,
	}, nil
}

// call packs, executes and unpacks a read-only contract call.
func (c *storeClient) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.storeABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	result, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &c.contract,
		Data: data,
	}, nil)
	if err != nil {
		return nil, classifyCallError(method, err)
	}

	values, err := c.storeABI.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	return values, nil
}

// GetPrice returns the current price of an item in wei
func (c *storeClient) GetPrice(ctx context.Context, id int64) (*big.Int, error) {
	values, err := c.call(ctx, "getPrice", big.NewInt(id))
	if err != nil {
		return nil, err
	}
	price, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected getPrice result type %T", values[0])
	}
	return price, nil
}

// GetStock returns the remaining stock of an item
func (c *storeClient) GetStock(ctx context.Context, id int64) (uint64, error) {
	values, err := c.call(ctx, "getStock", big.NewInt(id))
	if err != nil {
		return 0, err
	}
	stock, ok := values[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("unexpected getStock result type %T", values[0])
	}
	return stock.Uint64(), nil
}

// GetUserPurchaseCount returns how many times account purchased the item
func (c *storeClient) GetUserPurchaseCount(ctx context.Context, id int64, account common.Address) (uint64, error) {
	values, err := c.call(ctx, "getUserPurchaseCount", big.NewInt(id), account)
	if err != nil {
		return 0, err
	}
	count, ok := values[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("unexpected getUserPurchaseCount result type %T", values[0])
	}
	return count.Uint64(), nil
}

// GetBuyers returns the ordered buyer list of an item
func (c *storeClient) GetBuyers(ctx context.Context, id int64) ([]string, error) {
	values, err := c.call(ctx, "getBuyers", big.NewInt(id))
	if err != nil {
		return nil, err
	}
	addrs, ok := values[0].([]common.Address)
	if !ok {
		return nil, fmt.Errorf("unexpected getBuyers result type %T", values[0])
	}
	buyers := make([]string, 0, len(addrs))
	for _, a := range addrs {
		buyers = append(buyers, a.Hex())
	}
	return buyers, nil
}

// GetPurchaseHistory returns the full purchase record set of an item.
// The contract returns two parallel arrays; they are zipped here so no
// caller ever correlates by position.
func (c *storeClient) GetPurchaseHistory(ctx context.Context, id int64) ([]domain.PurchaseRecord, error) {
	values, err := c.call(ctx, "getPurchaseHistory", big.NewInt(id))
	if err != nil {
		return nil, err
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("unexpected getPurchaseHistory result arity %d", len(values))
	}
	addrs, ok := values[0].([]common.Address)
	if !ok {
		return nil, fmt.Errorf("unexpected getPurchaseHistory buyers type %T", values[0])
	}
	stamps, ok := values[1].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected getPurchaseHistory timestamps type %T", values[1])
	}
	if len(addrs) != len(stamps) {
		return nil, fmt.Errorf("purchase history arrays disagree: %d buyers, %d timestamps", len(addrs), len(stamps))
	}

	records := make([]domain.PurchaseRecord, 0, len(addrs))
	for i := range addrs {
		records = append(records, domain.PurchaseRecord{
			Buyer:     addrs[i].Hex(),
			Timestamp: c.clock.Unix(stamps[i].Int64(), 0),
		})
	}
	return records, nil
}

// Close closes the underlying connection
func (c *storeClient) Close() {
	c.client.Close()
}
