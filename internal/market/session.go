package market

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/imgmarket/storefront/internal/adapter"
	"github.com/imgmarket/storefront/internal/domain"
)

// Session holds the explicit per-session context: the provider the
// active account is resolved from. The viewer is re-resolved on every
// operation rather than cached, since the provider may switch accounts
// between calls.
type Session struct {
	provider adapter.AccountProvider
}

// NewSession creates a session over the given account provider.
func NewSession(provider adapter.AccountProvider) *Session {
	return &Session{provider: provider}
}

// Viewer resolves the currently active account.
func (s *Session) Viewer(ctx context.Context) (common.Address, error) {
	account, err := s.provider.ActiveAccount(ctx)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to resolve active account: %v: %w", err, domain.ErrUnavailable)
	}
	return account, nil
}
