package pg

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// skipLockedMinVersion is the first server_version_num with SKIP LOCKED (9.5).
const skipLockedMinVersion = 90500

// Capabilities lists server features the stores adapt to.
type Capabilities struct {
	ServerVersion      int
	SupportsSkipLocked bool
}

// DetectCapabilities asks the server for its version once. Call it at startup
// and hand the result to the stores.
func DetectCapabilities(ctx context.Context, pool *pgxpool.Pool) (Capabilities, error) {
	var raw string
	if err := pool.QueryRow(ctx, "SHOW server_version_num").Scan(&raw); err != nil {
		return Capabilities{}, errors.Join(ErrFailedToDetectServer, err)
	}
	version, err := strconv.Atoi(raw)
	if err != nil {
		return Capabilities{}, errors.Join(ErrFailedToDetectServer, err)
	}
	return Capabilities{
		ServerVersion:      version,
		SupportsSkipLocked: version >= skipLockedMinVersion,
	}, nil
}
