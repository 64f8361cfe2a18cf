package jobs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/harborpm/harborpm/internal/invoices"
	"github.com/harborpm/harborpm/internal/shared"
)

// InvoiceBatchService is the slice of the invoice service the batch jobs drive.
type InvoiceBatchService interface {
	GenerateMonthly(ctx context.Context, manager shared.Ref) (*invoices.BatchResult, error)
	ProcessOverdue(ctx context.Context, manager shared.Ref) (*invoices.BatchResult, error)
}

const batchLockTTL = 10 * time.Minute

// acquireBatchLock serialises a named batch pass across workers. A nil client
// disables locking, which is the single-worker deployment case.
func acquireBatchLock(ctx context.Context, client redis.UniversalClient, name string) (release func(), acquired bool, err error) {
	if client == nil {
		return func() {}, true, nil
	}
	key := shared.BatchLockKey(name)
	ok, err := client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), batchLockTTL).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return func() {
		client.Del(context.Background(), key)
	}, true, nil
}
