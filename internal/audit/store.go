package audit

import (
	"context"

	id "healthchain/pkg/domain"
)

// Store persists audit entries. Append assigns the monotonic ID; Get resolves
// a single pointer. There is deliberately no by-actor index: "my audit log"
// is reached only through the owning profile's pointer list.
type Store interface {
	Append(ctx context.Context, entry Entry) (id.LogID, error)
	Get(ctx context.Context, logID id.LogID) (Entry, error)
}
