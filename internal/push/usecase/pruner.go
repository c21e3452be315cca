package usecase

import (
	"context"
	"fmt"
	"sync"

	"push-relay/internal/device/repository"
	"push-relay/pkg/metrics"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// DefaultPruneConcurrency bounds concurrent token deletions when none is configured
const DefaultPruneConcurrency = 8

// Pruner deletes dead tokens from the registry
type Pruner struct {
	deviceRepo repository.DeviceRepository
	limit      int
	metrics    *metrics.Metrics
}

// NewPruner creates a Pruner running at most limit deletions at once
func NewPruner(deviceRepo repository.DeviceRepository, limit int, m *metrics.Metrics) *Pruner {
	if limit <= 0 {
		limit = DefaultPruneConcurrency
	}
	return &Pruner{
		deviceRepo: deviceRepo,
		limit:      limit,
		metrics:    m,
	}
}

// Prune deletes every token concurrently and waits for all deletions.
// It returns the number deleted and the joined errors of those that failed.
func (p *Pruner) Prune(ctx context.Context, tokens []string) (int, error) {
	if len(tokens) == 0 {
		return 0, nil
	}

	var (
		mu      sync.Mutex
		removed int
		errs    *multierror.Error
	)

	// errgroup is used only for its limit; a failed deletion must not cancel the others
	var g errgroup.Group
	g.SetLimit(p.limit)
	for _, token := range tokens {
		g.Go(func() error {
			err := p.deviceRepo.DeleteByToken(ctx, token)
			p.metrics.Pruned(err == nil)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.WithError(err).Warnf("Failed to remove dead token %s", truncateToken(token))
				errs = multierror.Append(errs, fmt.Errorf("token %s: %w", truncateToken(token), err))
				return nil
			}
			removed++
			return nil
		})
	}
	_ = g.Wait()

	if removed > 0 {
		log.Infof("Removed %d dead token(s)", removed)
	}
	return removed, errs.ErrorOrNil()
}

func truncateToken(token string) string {
	if len(token) <= 12 {
		return token
	}
	return token[:12] + "..."
}
