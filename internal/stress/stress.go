// Package stress drives a random insert/delete workload against an ordered
// index.
package stress

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/go-faker/faker/v4"
	"github.com/sushant-115/bptree/core/indexing/bptree"
	"github.com/sushant-115/bptree/internal/config"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Index is the part of a tree the driver touches.
type Index interface {
	Insert(key int64, value string)
	Delete(key int64) error
	Search(key int64) (string, bool)
	Range(lower, upper int64) []string
}

// Report summarizes a run. Misses counts deletes of keys that were absent.
// Keys is the number of keys a full range scan found afterwards.
type Report struct {
	Seed    uint64
	Inserts int
	Deletes int
	Misses  int
	Keys    int
	Elapsed time.Duration
}

// Ops returns the number of operations issued.
func (r Report) Ops() int { return r.Inserts + r.Deletes + r.Misses }

func (r Report) String() string {
	return fmt.Sprintf("seed=%d inserts=%d deletes=%d misses=%d keys=%d elapsed=%s",
		r.Seed, r.Inserts, r.Deletes, r.Misses, r.Keys, r.Elapsed.Round(time.Microsecond))
}

// Run issues cfg.Inserts operations with keys drawn uniformly from
// [0, cfg.KeyMax). Each operation is a delete with probability
// cfg.DeleteRatio and an insert otherwise. A canceled ctx stops the run and
// returns the partial report with ctx's error.
func Run(ctx context.Context, idx Index, cfg config.StressConfig, logger *zap.Logger) (Report, error) {
	if cfg.KeyMax <= 0 {
		return Report{}, config.ErrInvalidKeyMax
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1))

	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}

	report := Report{Seed: seed}
	start := time.Now()

	progressEvery := max(cfg.Inserts/10, 1)
	for i := 0; i < cfg.Inserts; i++ {
		if err := ctx.Err(); err != nil {
			report.Elapsed = time.Since(start)
			return report, err
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				report.Elapsed = time.Since(start)
				return report, err
			}
		}

		key := rng.Int64N(cfg.KeyMax)
		if cfg.DeleteRatio > 0 && rng.Float64() < cfg.DeleteRatio {
			err := idx.Delete(key)
			switch {
			case err == nil:
				report.Deletes++
			case errors.Is(err, bptree.ErrKeyNotFound):
				report.Misses++
			default:
				report.Elapsed = time.Since(start)
				return report, fmt.Errorf("delete %d: %w", key, err)
			}
		} else {
			value := fmt.Sprintf("val_%d_%d_%s", key, i, faker.Word())
			idx.Insert(key, value)
			if got, ok := idx.Search(key); !ok || got != value {
				report.Elapsed = time.Since(start)
				return report, fmt.Errorf("key %d not readable after insert", key)
			}
			report.Inserts++
		}

		if (i+1)%progressEvery == 0 {
			logger.Debug("stress progress", zap.Int("ops", i+1), zap.Int("of", cfg.Inserts))
		}
	}

	report.Keys = len(idx.Range(0, cfg.KeyMax-1))
	report.Elapsed = time.Since(start)
	logger.Info("stress run finished",
		zap.Uint64("seed", seed),
		zap.Int("inserts", report.Inserts),
		zap.Int("deletes", report.Deletes),
		zap.Int("misses", report.Misses),
		zap.Int("keys", report.Keys),
		zap.Duration("elapsed", report.Elapsed))
	return report, nil
}
