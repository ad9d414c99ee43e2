package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/imgmarket/storefront/internal/domain"
	"github.com/imgmarket/storefront/internal/logger"
)

// SubmitPurchase submits a purchase transferring amount as the transaction value
func (c *storeClient) SubmitPurchase(ctx context.Context, id int64, account common.Address, amount *big.Int) (*domain.TransactionOutcome, error) {
	data, err := c.storeABI.Pack("buyImage", big.NewInt(id))
	if err != nil {
		return nil, fmt.Errorf("failed to pack buyImage: %w", err)
	}
	return c.submit(ctx, "buyImage", account, data, amount)
}

// SubmitPriceUpdate submits a price change for an item
func (c *storeClient) SubmitPriceUpdate(ctx context.Context, id int64, newPrice *big.Int, account common.Address) (*domain.TransactionOutcome, error) {
	data, err := c.storeABI.Pack("setPrice", big.NewInt(id), newPrice)
	if err != nil {
		return nil, fmt.Errorf("failed to pack setPrice: %w", err)
	}
	return c.submit(ctx, "setPrice", account, data, nil)
}

// SubmitResale submits a resale of one held purchase of an item
func (c *storeClient) SubmitResale(ctx context.Context, id int64, account common.Address) (*domain.TransactionOutcome, error) {
	data, err := c.storeABI.Pack("resellImage", big.NewInt(id))
	if err != nil {
		return nil, fmt.Errorf("failed to pack resellImage: %w", err)
	}
	return c.submit(ctx, "resellImage", account, data, nil)
}

// submit runs the full submit-and-wait sequence: preflight simulation,
// nonce/gas resolution, signing, broadcast, then receipt polling under
// exponential backoff bounded by the confirmation window. A lapsed
// window yields an Unknown outcome; the transaction is never re-sent.
func (c *storeClient) submit(ctx context.Context, method string, account common.Address, data []byte, value *big.Int) (*domain.TransactionOutcome, error) {
	if c.signer == nil {
		return nil, fmt.Errorf("ledger client is read-only: no signer configured")
	}

	outcome := &domain.TransactionOutcome{
		SubmissionID: ulid.Make(),
		Status:       domain.TxStatusPending,
	}

	msg := ethereum.CallMsg{
		From:  account,
		To:    &c.contract,
		Value: value,
		Data:  data,
	}

	// Preflight simulation surfaces reverts (not owner, sold out, limit
	// reached, underpayment) with their reason before any gas is spent.
	if _, err := c.client.CallContract(ctx, msg, nil); err != nil {
		if reason, ok := revertReason(err); ok {
			outcome.Status = domain.TxStatusRejected
			outcome.Reason = reason
			return outcome, domain.NewRevertError(reason)
		}
		return nil, fmt.Errorf("%s preflight failed: %v: %w", method, err, domain.ErrUnavailable)
	}

	nonce, err := c.client.PendingNonceAt(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nonce: %v: %w", err, domain.ErrUnavailable)
	}
	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gas price: %v: %w", err, domain.ErrUnavailable)
	}
	gasLimit, err := c.client.EstimateGas(ctx, msg)
	if err != nil {
		if reason, ok := revertReason(err); ok {
			outcome.Status = domain.TxStatusRejected
			outcome.Reason = reason
			return outcome, domain.NewRevertError(reason)
		}
		return nil, fmt.Errorf("failed to estimate gas: %v: %w", err, domain.ErrUnavailable)
	}
	gasLimit += gasLimit / 5 // headroom over the estimate

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &c.contract,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := c.signer.SignTx(ctx, account, c.chainID, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to sign %s transaction: %w", method, err)
	}
	outcome.TxHash = signed.Hash().Hex()

	if err := c.client.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("failed to broadcast %s transaction: %v: %w", method, err, domain.ErrUnavailable)
	}

	logger.InfoCtx(ctx, "Transaction submitted",
		zap.String("method", method),
		zap.String("submission_id", outcome.SubmissionID.String()),
		zap.String("tx_hash", outcome.TxHash),
		zap.String("from", account.Hex()))

	receipt, err := c.waitReceipt(ctx, signed.Hash())
	if err != nil {
		// Outcome is ambiguous: the transaction may still settle. The
		// caller must re-query ledger state before mutating this item.
		outcome.Status = domain.TxStatusUnknown
		return outcome, fmt.Errorf("%s confirmation window lapsed (tx %s): %w", method, outcome.TxHash, domain.ErrTimeout)
	}

	if receipt.Status == types.ReceiptStatusSuccessful {
		outcome.Status = domain.TxStatusConfirmed
		return outcome, nil
	}

	// Mined but reverted. Replay the call at the receipt's block to
	// recover the reason the node recorded.
	outcome.Status = domain.TxStatusRejected
	outcome.Reason = c.replayRevertReason(ctx, msg, receipt.BlockNumber)
	return outcome, domain.NewRevertError(outcome.Reason)
}

// waitReceipt polls for the transaction receipt with exponential
// backoff until it appears or the confirmation window lapses.
func (c *storeClient) waitReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.ReceiptPollInterval
	b.MaxInterval = 4 * c.cfg.ReceiptPollInterval
	b.MaxElapsedTime = c.cfg.ConfirmationWindow

	operation := func() error {
		r, err := c.client.TransactionReceipt(ctx, txHash)
		if err != nil {
			return err // ethereum.NotFound until mined
		}
		receipt = r
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return receipt, nil
}

// replayRevertReason re-executes the failed call at the block it was
// mined in. Best effort: an empty reason is still a valid rejection.
func (c *storeClient) replayRevertReason(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) string {
	_, err := c.client.CallContract(ctx, msg, blockNumber)
	if err == nil {
		return ""
	}
	if reason, ok := revertReason(err); ok {
		return reason
	}
	return ""
}

// classifyCallError maps a read call failure into the error taxonomy.
func classifyCallError(method string, err error) error {
	if reason, ok := revertReason(err); ok {
		return fmt.Errorf("%s: %w", method, domain.NewRevertError(reason))
	}
	return fmt.Errorf("%s: %v: %w", method, err, domain.ErrUnavailable)
}

// revertReason extracts a verbatim revert reason from a node error.
// Providers either attach the ABI-encoded Error(string) payload as RPC
// error data or fold the reason into the message text.
func revertReason(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if encoded, ok := dataErr.ErrorData().(string); ok {
			if raw, decErr := hexutil.Decode(encoded); decErr == nil {
				if reason, unpackErr := abi.UnpackRevert(raw); unpackErr == nil {
					return reason, true
				}
			}
		}
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	for _, marker := range []string{"execution reverted", "revert"} {
		if idx := strings.Index(lower, marker); idx >= 0 {
			reason := strings.TrimLeft(msg[idx+len(marker):], ":. ")
			return reason, true
		}
	}
	return "", false
}
