package usecase

import (
	"context"
	"errors"
	"fmt"

	"push-relay/internal/device/repository"
	pushdomain "push-relay/internal/push/domain"
)

// ErrEmptyToken is returned when a single-token target carries no token
var ErrEmptyToken = errors.New("token must not be empty")

// DefaultPageSize is the broadcast page size used when none is configured
const DefaultPageSize = 20

// Resolver maps a push target to the tokens it addresses
type Resolver struct {
	deviceRepo repository.DeviceRepository
	pageSize   int
}

// NewResolver creates a Resolver reading broadcast tokens pageSize at a time
func NewResolver(deviceRepo repository.DeviceRepository, pageSize int) *Resolver {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Resolver{
		deviceRepo: deviceRepo,
		pageSize:   pageSize,
	}
}

// Resolve returns the token list for target. Broadcasts count first and then read
// ceil(count/pageSize) pages, so rows changing in between may be skipped or repeated.
func (r *Resolver) Resolve(ctx context.Context, target pushdomain.Target) ([]string, error) {
	switch target.Kind {
	case pushdomain.TargetToken:
		if target.Token == "" {
			return nil, ErrEmptyToken
		}
		return []string{target.Token}, nil
	case pushdomain.TargetUser:
		tokens, err := r.deviceRepo.TokensForUser(ctx, target.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load tokens for user %d: %w", target.UserID, err)
		}
		return tokens, nil
	case pushdomain.TargetBroadcast:
		return r.broadcastTokens(ctx)
	default:
		return nil, fmt.Errorf("unsupported target kind %d", target.Kind)
	}
}

func (r *Resolver) broadcastTokens(ctx context.Context) ([]string, error) {
	total, err := r.deviceRepo.ActiveCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count active devices: %w", err)
	}

	pages := int((total + int64(r.pageSize) - 1) / int64(r.pageSize))
	tokens := make([]string, 0, total)
	for page := 0; page < pages; page++ {
		batch, err := r.deviceRepo.ActiveTokensPage(ctx, r.pageSize, page*r.pageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to load broadcast page %d: %w", page, err)
		}
		tokens = append(tokens, batch...)
	}
	return tokens, nil
}
