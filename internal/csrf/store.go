package csrf

import (
	"context"

	"github.com/duchm/foliogate/internal/common"
	"github.com/duchm/foliogate/params"
)

// Store holds double-submit tokens keyed by admin id, one live token per
// admin. The interface is injected so the backing can move to shared
// storage in a multi-process deployment without touching call sites.
type Store interface {
	// Issue creates a fresh token, silently invalidating any existing one.
	Issue(ctx context.Context, adminID uint) (string, error)
	// Validate reports whether the presented token is the live, unexpired
	// token for the admin. Expired entries are evicted as a side effect.
	Validate(ctx context.Context, adminID uint, token string) bool
	// Revoke removes the admin's token, if any.
	Revoke(ctx context.Context, adminID uint) error
}

func randomToken() (string, error) {
	return common.GenerateToken(params.CSRFTokenLength)
}
