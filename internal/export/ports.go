// Package export defines the port for mirroring the contribution ledger
// to an external medium the group's officials can audit.
package export

import (
	"context"

	"horizon/internal/core"
)

// LedgerWriter appends one contribution row to the mirror. The returned
// reference identifies where the row landed and is used for logging only.
type LedgerWriter interface {
	AppendContribution(ctx context.Context, c core.Contribution, memberName string) (rowRef string, err error)
}
