package cache_test

import (
	"context"
	"errors"
	"math/big"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imgmarket/storefront/internal/adapter"
	"github.com/imgmarket/storefront/internal/cache"
	"github.com/imgmarket/storefront/internal/logger"
	"github.com/imgmarket/storefront/internal/mocks"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: true}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

var viewer = common.HexToAddress("0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1")

// expectSnapshot wires the four reads backing one item's snapshot.
func expectSnapshot(lg *mocks.MockLedger, id int64, price int64, stock, count uint64, delay time.Duration) {
	lg.EXPECT().GetPrice(gomock.Any(), id).DoAndReturn(
		func(ctx context.Context, _ int64) (*big.Int, error) {
			time.Sleep(delay)
			return big.NewInt(price), nil
		})
	lg.EXPECT().GetStock(gomock.Any(), id).Return(stock, nil)
	lg.EXPECT().GetUserPurchaseCount(gomock.Any(), id, viewer).Return(count, nil)
	lg.EXPECT().GetBuyers(gomock.Any(), id).Return([]string{viewer.Hex()}, nil)
}

func TestRefreshMergesByIdentifier(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	lg := mocks.NewMockLedger(ctrl)

	// Stagger the reads so completion order (2, 3, 1) differs from
	// submission order (3, 1, 2). Each response must still land in its
	// own identifier's slot.
	expectSnapshot(lg, 3, 3000, 3, 0, 40*time.Millisecond)
	expectSnapshot(lg, 1, 1000, 1, 2, 80*time.Millisecond)
	expectSnapshot(lg, 2, 2000, 2, 1, 0)

	c := cache.New(cache.Config{Workers: 4}, lg, adapter.NewClock())
	defer c.Stop()

	failed := c.Refresh(context.Background(), viewer, []int64{3, 1, 2})
	require.Empty(t, failed)

	for id, wantPrice := range map[int64]int64{1: 1000, 2: 2000, 3: 3000} {
		state, ok := c.Get(id)
		require.True(t, ok, "missing state for item %d", id)
		assert.Equal(t, id, state.ID)
		assert.Equal(t, wantPrice, state.Price.Int64())
		assert.Equal(t, uint64(id), state.Stock)
	}

	s1, _ := c.Get(1)
	assert.Equal(t, uint64(2), s1.ViewerPurchaseCount)
}

func TestRefreshIsolatesFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	lg := mocks.NewMockLedger(ctrl)
	expectSnapshot(lg, 1, 1000, 5, 0, 0)
	lg.EXPECT().GetPrice(gomock.Any(), int64(2)).Return(nil, errors.New("connection reset"))
	expectSnapshot(lg, 3, 3000, 5, 0, 0)

	c := cache.New(cache.Config{Workers: 4}, lg, adapter.NewClock())
	defer c.Stop()

	// Seed item 2 so a failed refresh provably keeps the prior snapshot.
	seed := c.Refresh(context.Background(), viewer, nil)
	require.Empty(t, seed)
	c.SetPrice(2, big.NewInt(777))

	failed := c.Refresh(context.Background(), viewer, []int64{1, 2, 3})
	require.Len(t, failed, 1)
	assert.Error(t, failed[2])

	s1, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, int64(1000), s1.Price.Int64())

	s2, ok := c.Get(2)
	require.True(t, ok)
	assert.Equal(t, int64(777), s2.Price.Int64())

	_, ok = c.Get(3)
	assert.True(t, ok)
}

func TestRefreshViewerChangeDropsCountScopedState(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	other := common.HexToAddress("0xFFcf8FDEE72ac11b5c542428B35EEF5769C409f0")

	lg := mocks.NewMockLedger(ctrl)
	expectSnapshot(lg, 1, 1000, 5, 3, 0)
	expectSnapshot(lg, 2, 2000, 5, 0, 0)
	lg.EXPECT().GetPrice(gomock.Any(), int64(2)).Return(big.NewInt(2000), nil)
	lg.EXPECT().GetStock(gomock.Any(), int64(2)).Return(uint64(5), nil)
	lg.EXPECT().GetUserPurchaseCount(gomock.Any(), int64(2), other).Return(uint64(1), nil)
	lg.EXPECT().GetBuyers(gomock.Any(), int64(2)).Return([]string{other.Hex()}, nil)

	c := cache.New(cache.Config{Workers: 2}, lg, adapter.NewClock())
	defer c.Stop()

	require.Empty(t, c.Refresh(context.Background(), viewer, []int64{1, 2}))
	assert.Equal(t, viewer.Hex(), c.Viewer())

	require.Empty(t, c.Refresh(context.Background(), other, []int64{2}))
	assert.Equal(t, other.Hex(), c.Viewer())

	// Item 1 was cached under the old viewer and must be gone.
	_, ok := c.Get(1)
	assert.False(t, ok)

	s2, ok := c.Get(2)
	require.True(t, ok)
	assert.Equal(t, uint64(1), s2.ViewerPurchaseCount)
}

func TestRefreshRescopedMidFetchDropsStaleResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	other := common.HexToAddress("0xFFcf8FDEE72ac11b5c542428B35EEF5769C409f0")
	release := make(chan struct{})

	lg := mocks.NewMockLedger(ctrl)
	// Item 1's fetch for the first viewer stalls until released.
	lg.EXPECT().GetPrice(gomock.Any(), int64(1)).DoAndReturn(
		func(ctx context.Context, _ int64) (*big.Int, error) {
			<-release
			return big.NewInt(1000), nil
		})
	lg.EXPECT().GetStock(gomock.Any(), int64(1)).Return(uint64(5), nil)
	lg.EXPECT().GetUserPurchaseCount(gomock.Any(), int64(1), viewer).Return(uint64(3), nil)
	lg.EXPECT().GetBuyers(gomock.Any(), int64(1)).Return([]string{viewer.Hex()}, nil)

	lg.EXPECT().GetPrice(gomock.Any(), int64(2)).Return(big.NewInt(2000), nil)
	lg.EXPECT().GetStock(gomock.Any(), int64(2)).Return(uint64(5), nil)
	lg.EXPECT().GetUserPurchaseCount(gomock.Any(), int64(2), other).Return(uint64(0), nil)
	lg.EXPECT().GetBuyers(gomock.Any(), int64(2)).Return(nil, nil)

	c := cache.New(cache.Config{Workers: 2}, lg, adapter.NewClock())
	defer c.Stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Refresh(context.Background(), viewer, []int64{1})
	}()
	time.Sleep(20 * time.Millisecond)

	// A second viewer rescopes the cache while the first viewer's
	// fetch is still in flight.
	require.Empty(t, c.Refresh(context.Background(), other, []int64{2}))
	close(release)
	wg.Wait()

	assert.Equal(t, other.Hex(), c.Viewer())

	// The late result carries the old viewer's count and must not have
	// been installed under the new scope.
	_, ok := c.Get(1)
	assert.False(t, ok)

	s2, ok := c.Get(2)
	require.True(t, ok)
	assert.Equal(t, uint64(0), s2.ViewerPurchaseCount)
}

func TestInvalidateViewerDropsEverything(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	lg := mocks.NewMockLedger(ctrl)
	expectSnapshot(lg, 1, 1000, 5, 2, 0)

	c := cache.New(cache.Config{Workers: 2}, lg, adapter.NewClock())
	defer c.Stop()

	require.Empty(t, c.Refresh(context.Background(), viewer, []int64{1}))
	require.Equal(t, viewer.Hex(), c.Viewer())

	c.InvalidateViewer()

	_, ok := c.Get(1)
	assert.False(t, ok)
	assert.Empty(t, c.Viewer())
}

func TestWaitFreshBlocksUntilRefreshCompletes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	release := make(chan struct{})

	lg := mocks.NewMockLedger(ctrl)
	lg.EXPECT().GetPrice(gomock.Any(), int64(1)).DoAndReturn(
		func(ctx context.Context, _ int64) (*big.Int, error) {
			<-release
			return big.NewInt(1000), nil
		})
	lg.EXPECT().GetStock(gomock.Any(), int64(1)).Return(uint64(5), nil)
	lg.EXPECT().GetUserPurchaseCount(gomock.Any(), int64(1), viewer).Return(uint64(0), nil)
	lg.EXPECT().GetBuyers(gomock.Any(), int64(1)).Return(nil, nil)

	c := cache.New(cache.Config{Workers: 2}, lg, adapter.NewClock())
	defer c.Stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Refresh(context.Background(), viewer, []int64{1})
	}()

	// Give the refresh time to register its in-flight marker.
	time.Sleep(20 * time.Millisecond)

	waited := make(chan struct{})
	go func() {
		_ = c.WaitFresh(context.Background(), 1)
		close(waited)
	}()

	select {
	case <-waited:
		t.Fatal("WaitFresh returned before the refresh completed")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	wg.Wait()

	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("WaitFresh did not return after the refresh completed")
	}

	state, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, int64(1000), state.Price.Int64())
}

func TestWaitFreshHonorsContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	release := make(chan struct{})

	lg := mocks.NewMockLedger(ctrl)
	lg.EXPECT().GetPrice(gomock.Any(), int64(1)).DoAndReturn(
		func(ctx context.Context, _ int64) (*big.Int, error) {
			<-release
			return big.NewInt(1), nil
		})
	lg.EXPECT().GetStock(gomock.Any(), int64(1)).Return(uint64(0), nil).AnyTimes()
	lg.EXPECT().GetUserPurchaseCount(gomock.Any(), int64(1), viewer).Return(uint64(0), nil).AnyTimes()
	lg.EXPECT().GetBuyers(gomock.Any(), int64(1)).Return(nil, nil).AnyTimes()

	c := cache.New(cache.Config{Workers: 2}, lg, adapter.NewClock())
	defer c.Stop()

	go c.Refresh(context.Background(), viewer, []int64{1})
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := c.WaitFresh(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}

func TestSetPriceAndInvalidate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	lg := mocks.NewMockLedger(ctrl)
	expectSnapshot(lg, 1, 1000, 5, 0, 0)

	c := cache.New(cache.Config{Workers: 2}, lg, adapter.NewClock())
	defer c.Stop()

	require.Empty(t, c.Refresh(context.Background(), viewer, []int64{1}))

	c.SetPrice(1, big.NewInt(2500))
	state, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, int64(2500), state.Price.Int64())
	// Only the price moved; the rest of the snapshot survives.
	assert.Equal(t, uint64(5), state.Stock)

	c.Invalidate(1)
	_, ok = c.Get(1)
	assert.False(t, ok)
}

func TestGetReturnsCopy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	lg := mocks.NewMockLedger(ctrl)
	expectSnapshot(lg, 1, 1000, 5, 0, 0)

	c := cache.New(cache.Config{Workers: 2}, lg, adapter.NewClock())
	defer c.Stop()

	require.Empty(t, c.Refresh(context.Background(), viewer, []int64{1}))

	state, ok := c.Get(1)
	require.True(t, ok)
	state.Price.SetInt64(1)
	state.Buyers = append(state.Buyers, "0xdead")

	again, _ := c.Get(1)
	assert.Equal(t, int64(1000), again.Price.Int64())
	assert.Len(t, again.Buyers, 1)
}
