package ledger_test

import (
	"context"
	"errors"
	"math/big"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imgmarket/storefront/internal/adapter"
	"github.com/imgmarket/storefront/internal/domain"
	"github.com/imgmarket/storefront/internal/ledger"
	"github.com/imgmarket/storefront/internal/logger"
	"github.com/imgmarket/storefront/internal/mocks"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: true}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

const testContract = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

var account = common.HexToAddress("0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1")

func newTestClient(t *testing.T, eth *mocks.MockEthClient, signer adapter.TxSigner, cfg ledger.Config) ledger.Ledger {
	t.Helper()
	cfg.ContractAddress = testContract
	eth.EXPECT().ChainID(gomock.Any()).Return(big.NewInt(1337), nil)
	lg, err := ledger.NewClient(context.Background(), cfg, eth, signer, adapter.NewClock())
	require.NoError(t, err)
	return lg
}

// packOutputs encodes the return values of a read method the way the
// node would.
func packOutputs(t *testing.T, method string, values ...interface{}) []byte {
	t.Helper()
	storeABI, err := abi.JSON(strings.NewReader(ledger.StoreABIJSON))
	require.NoError(t, err)
	out, err := storeABI.Methods[method].Outputs.Pack(values...)
	require.NoError(t, err)
	return out
}

func TestNewClientUnavailableChain(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	eth := mocks.NewMockEthClient(ctrl)
	eth.EXPECT().ChainID(gomock.Any()).Return(nil, errors.New("connection refused"))

	_, err := ledger.NewClient(context.Background(), ledger.Config{ContractAddress: testContract}, eth, nil, adapter.NewClock())
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestReads(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	eth := mocks.NewMockEthClient(ctrl)
	c := newTestClient(t, eth, nil, ledger.Config{})
	ctx := context.Background()

	buyer := common.HexToAddress("0xFFcf8FDEE72ac11b5c542428B35EEF5769C409f0")

	eth.EXPECT().CallContract(gomock.Any(), gomock.Any(), nil).
		Return(packOutputs(t, "getPrice", big.NewInt(1000)), nil)
	price, err := c.GetPrice(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), price.Int64())

	eth.EXPECT().CallContract(gomock.Any(), gomock.Any(), nil).
		Return(packOutputs(t, "getStock", big.NewInt(2)), nil)
	stock, err := c.GetStock(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stock)

	eth.EXPECT().CallContract(gomock.Any(), gomock.Any(), nil).
		Return(packOutputs(t, "getUserPurchaseCount", big.NewInt(3)), nil)
	count, err := c.GetUserPurchaseCount(ctx, 5, account)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	eth.EXPECT().CallContract(gomock.Any(), gomock.Any(), nil).
		Return(packOutputs(t, "getBuyers", []common.Address{buyer, account}), nil)
	buyers, err := c.GetBuyers(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{buyer.Hex(), account.Hex()}, buyers)
}

func TestGetPurchaseHistoryZipsParallelArrays(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	eth := mocks.NewMockEthClient(ctrl)
	c := newTestClient(t, eth, nil, ledger.Config{})

	eth.EXPECT().CallContract(gomock.Any(), gomock.Any(), nil).
		Return(packOutputs(t, "getPurchaseHistory",
			[]common.Address{account, account},
			[]*big.Int{big.NewInt(1710000000), big.NewInt(1710003600)},
		), nil)

	records, err := c.GetPurchaseHistory(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, account.Hex(), records[0].Buyer)
	assert.Equal(t, time.Unix(1710000000, 0), records[0].Timestamp)
	assert.Equal(t, time.Unix(1710003600, 0), records[1].Timestamp)
}

func TestReadErrorsMapToUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	eth := mocks.NewMockEthClient(ctrl)
	c := newTestClient(t, eth, nil, ledger.Config{})

	eth.EXPECT().CallContract(gomock.Any(), gomock.Any(), nil).
		Return(nil, errors.New("dial tcp: connection refused"))

	_, err := c.GetPrice(context.Background(), 5)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

// fakeDataError mimics a node error carrying the ABI-encoded
// Error(string) payload as RPC error data.
type fakeDataError struct {
	msg  string
	data interface{}
}

func (e *fakeDataError) Error() string          { return e.msg }
func (e *fakeDataError) ErrorData() interface{} { return e.data }

func encodeRevert(t *testing.T, reason string) string {
	t.Helper()
	stringType, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: stringType}}.Pack(reason)
	require.NoError(t, err)
	// 0x08c379a0 is the Error(string) selector.
	return hexutil.Encode(append(hexutil.MustDecode("0x08c379a0"), packed...))
}

func TestRevertReason(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantReason string
		wantOK     bool
	}{
		{
			name:       "abi encoded error data",
			err:        &fakeDataError{msg: "execution reverted", data: encodeRevert(t, "Purchase limit reached")},
			wantReason: "Purchase limit reached",
			wantOK:     true,
		},
		{
			name:       "reason folded into message",
			err:        errors.New("execution reverted: Not enough stock"),
			wantReason: "Not enough stock",
			wantOK:     true,
		},
		{
			name:       "bare revert marker",
			err:        errors.New("VM Exception while processing transaction: revert Only owner can set price"),
			wantReason: "Only owner can set price",
			wantOK:     true,
		},
		{
			name:   "transport error",
			err:    errors.New("dial tcp: connection refused"),
			wantOK: false,
		},
		{
			name:   "nil error",
			err:    nil,
			wantOK: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reason, ok := ledger.RevertReason(tc.err)
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.wantReason, reason)
			}
		})
	}
}

func TestSubmitPurchaseConfirmed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	eth := mocks.NewMockEthClient(ctrl)
	signer := mocks.NewMockTxSigner(ctrl)
	c := newTestClient(t, eth, signer, ledger.Config{
		ConfirmationWindow:  5 * time.Second,
		ReceiptPollInterval: 10 * time.Millisecond,
	})

	amount := big.NewInt(1000)

	// Preflight simulation passes.
	eth.EXPECT().CallContract(gomock.Any(), gomock.Any(), nil).DoAndReturn(
		func(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
			assert.Equal(t, account, msg.From)
			assert.Equal(t, amount, msg.Value)
			return nil, nil
		})
	eth.EXPECT().PendingNonceAt(gomock.Any(), account).Return(uint64(7), nil)
	eth.EXPECT().SuggestGasPrice(gomock.Any()).Return(big.NewInt(2_000_000_000), nil)
	eth.EXPECT().EstimateGas(gomock.Any(), gomock.Any()).Return(uint64(100_000), nil)
	signer.EXPECT().SignTx(gomock.Any(), account, big.NewInt(1337), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ common.Address, _ *big.Int, tx *types.Transaction) (*types.Transaction, error) {
			assert.Equal(t, uint64(7), tx.Nonce())
			assert.Equal(t, uint64(120_000), tx.Gas()) // estimate plus headroom
			assert.Equal(t, amount, tx.Value())
			return tx, nil
		})
	eth.EXPECT().SendTransaction(gomock.Any(), gomock.Any()).Return(nil)
	eth.EXPECT().TransactionReceipt(gomock.Any(), gomock.Any()).
		Return(&types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(12)}, nil)

	outcome, err := c.SubmitPurchase(context.Background(), 5, account, amount)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusConfirmed, outcome.Status)
	assert.NotEmpty(t, outcome.TxHash)
	assert.True(t, outcome.Final())
}

func TestSubmitPurchasePreflightRevert(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	eth := mocks.NewMockEthClient(ctrl)
	signer := mocks.NewMockTxSigner(ctrl)
	c := newTestClient(t, eth, signer, ledger.Config{})

	eth.EXPECT().CallContract(gomock.Any(), gomock.Any(), nil).
		Return(nil, errors.New("execution reverted: Not enough stock"))

	outcome, err := c.SubmitPurchase(context.Background(), 5, account, big.NewInt(1000))
	require.Error(t, err)

	re, ok := domain.IsRevert(err)
	require.True(t, ok)
	assert.Equal(t, "Not enough stock", re.Reason)
	assert.Equal(t, domain.TxStatusRejected, outcome.Status)
	assert.Equal(t, "Not enough stock", outcome.Reason)
	// No transaction was broadcast: no further client calls were expected.
}

func TestSubmitConfirmationWindowLapse(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	eth := mocks.NewMockEthClient(ctrl)
	signer := mocks.NewMockTxSigner(ctrl)
	c := newTestClient(t, eth, signer, ledger.Config{
		ConfirmationWindow:  60 * time.Millisecond,
		ReceiptPollInterval: 10 * time.Millisecond,
	})

	eth.EXPECT().CallContract(gomock.Any(), gomock.Any(), nil).Return(nil, nil)
	eth.EXPECT().PendingNonceAt(gomock.Any(), account).Return(uint64(0), nil)
	eth.EXPECT().SuggestGasPrice(gomock.Any()).Return(big.NewInt(1), nil)
	eth.EXPECT().EstimateGas(gomock.Any(), gomock.Any()).Return(uint64(50_000), nil)
	signer.EXPECT().SignTx(gomock.Any(), account, big.NewInt(1337), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ common.Address, _ *big.Int, tx *types.Transaction) (*types.Transaction, error) {
			return tx, nil
		})
	eth.EXPECT().SendTransaction(gomock.Any(), gomock.Any()).Return(nil)
	eth.EXPECT().TransactionReceipt(gomock.Any(), gomock.Any()).
		Return(nil, ethereum.NotFound).AnyTimes()

	outcome, err := c.SubmitResale(context.Background(), 5, account)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTimeout)
	assert.Equal(t, domain.TxStatusUnknown, outcome.Status)
	assert.NotEmpty(t, outcome.TxHash)
	assert.False(t, outcome.Final())
}

func TestSubmitMinedButReverted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	eth := mocks.NewMockEthClient(ctrl)
	signer := mocks.NewMockTxSigner(ctrl)
	c := newTestClient(t, eth, signer, ledger.Config{
		ConfirmationWindow:  5 * time.Second,
		ReceiptPollInterval: 10 * time.Millisecond,
	})

	// Preflight passes, but the mined transaction reverts. The call is
	// replayed at the receipt's block to recover the reason.
	eth.EXPECT().CallContract(gomock.Any(), gomock.Any(), nil).Return(nil, nil)
	eth.EXPECT().PendingNonceAt(gomock.Any(), account).Return(uint64(0), nil)
	eth.EXPECT().SuggestGasPrice(gomock.Any()).Return(big.NewInt(1), nil)
	eth.EXPECT().EstimateGas(gomock.Any(), gomock.Any()).Return(uint64(50_000), nil)
	signer.EXPECT().SignTx(gomock.Any(), account, big.NewInt(1337), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ common.Address, _ *big.Int, tx *types.Transaction) (*types.Transaction, error) {
			return tx, nil
		})
	eth.EXPECT().SendTransaction(gomock.Any(), gomock.Any()).Return(nil)
	eth.EXPECT().TransactionReceipt(gomock.Any(), gomock.Any()).
		Return(&types.Receipt{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(42)}, nil)
	eth.EXPECT().CallContract(gomock.Any(), gomock.Any(), big.NewInt(42)).
		Return(nil, errors.New("execution reverted: Purchase limit reached"))

	outcome, err := c.SubmitPriceUpdate(context.Background(), 5, big.NewInt(2000), account)
	require.Error(t, err)

	re, ok := domain.IsRevert(err)
	require.True(t, ok)
	assert.Equal(t, "Purchase limit reached", re.Reason)
	assert.Equal(t, domain.TxStatusRejected, outcome.Status)
}

func TestSubmitRequiresSigner(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	eth := mocks.NewMockEthClient(ctrl)
	c := newTestClient(t, eth, nil, ledger.Config{})

	_, err := c.SubmitResale(context.Background(), 5, account)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only")
}
