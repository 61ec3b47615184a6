package scanner

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"chainlens/internal/chain"
)

// Sampler walks a bounded window of recent blocks and produces a
// representative subset of their transactions without exceeding the
// request budget of the upstream RPC endpoint.
type Sampler struct {
	client  chain.Client
	ceiling int
	limiter *rate.Limiter
}

// NewSampler builds a sampler with a per-block sample ceiling and a fixed
// delay between block fetches. The delay is the rate-limit knob; it sits
// between blocks, not between individual transactions.
func NewSampler(client chain.Client, ceiling int, blockDelay time.Duration) *Sampler {
	if ceiling <= 0 {
		ceiling = 50
	}
	if blockDelay <= 0 {
		blockDelay = 200 * time.Millisecond
	}
	return &Sampler{
		client:  client,
		ceiling: ceiling,
		limiter: rate.NewLimiter(rate.Every(blockDelay), 1),
	}
}

// Scan fetches the current chain height and walks blocks downward,
// emitting every sampled (transaction, receipt, block time) triple to fn
// as it arrives. The sampler holds no aggregate state of its own.
//
// A failed height fetch aborts the scan with an error. Every other
// failure (a missing block, an unreachable transaction) is logged at
// warn level and skipped. Cancelling ctx stops the scan between fetches;
// everything emitted so far stays with the caller.
func (s *Sampler) Scan(ctx context.Context, blocks int, fn func(SampledTransaction)) error {
	height, err := s.client.BlockHeight(ctx)
	if err != nil {
		return err
	}

	l := log.WithFields(log.Fields{"height": height, "blocks": blocks})
	l.Debug("starting block scan")

	for i := 0; i < blocks; i++ {
		if uint64(i) > height {
			break
		}
		number := height - uint64(i)

		if err := s.limiter.Wait(ctx); err != nil {
			l.Warnf("scan cancelled at block %d: %v", number, err)
			return nil
		}

		block, err := s.client.BlockByNumber(ctx, number)
		if err != nil {
			l.Warnf("skipping block %d: %v", number, err)
			continue
		}
		if block == nil || len(block.TxHashes) == 0 {
			continue
		}

		s.sampleBlock(ctx, block, fn)

		if ctx.Err() != nil {
			l.Warnf("scan cancelled after block %d", number)
			return nil
		}
	}

	return nil
}

// sampleBlock selects every stride-th transaction hash so the sample
// spreads across the block instead of clustering at the start, and fetches
// each selected pair. Fetch count stays O(ceiling) regardless of block
// size.
func (s *Sampler) sampleBlock(ctx context.Context, block *chain.Block, fn func(SampledTransaction)) {
	count := len(block.TxHashes)
	sampleSize := count
	if sampleSize > s.ceiling {
		sampleSize = s.ceiling
	}
	stride := count / sampleSize
	if stride < 1 {
		stride = 1
	}

	for idx := 0; idx < count; idx += stride {
		if ctx.Err() != nil {
			return
		}

		hash := block.TxHashes[idx]
		tx, receipt, err := s.fetchPair(ctx, hash)
		if err != nil {
			log.WithField("block", block.Number).Warnf("skipping tx %s: %v", hash, err)
			continue
		}

		fn(SampledTransaction{
			Tx:          tx,
			Receipt:     receipt,
			BlockNumber: block.Number,
			BlockTime:   block.Time,
		})
	}
}

// fetchPair issues the transaction and receipt lookups concurrently; the
// pair is the unit of failure, a miss on either side skips the sample.
func (s *Sampler) fetchPair(ctx context.Context, hash string) (*chain.Transaction, *chain.Receipt, error) {
	var (
		tx      *chain.Transaction
		receipt *chain.Receipt
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tx, err = s.client.TransactionByHash(gctx, hash)
		return err
	})
	g.Go(func() error {
		var err error
		receipt, err = s.client.TransactionReceipt(gctx, hash)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return tx, receipt, nil
}
