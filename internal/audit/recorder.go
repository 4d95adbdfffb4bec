package audit

import (
	"context"
	"log/slog"
	"sort"

	id "healthchain/pkg/domain"
	dErrors "healthchain/pkg/domain-errors"
	"healthchain/pkg/requestcontext"
)

// ProfilePointers is the slice of the identity store the recorder needs:
// pushing a log pointer onto the actor's profile. Defined here, implemented
// there, so the audit package never imports identity.
type ProfilePointers interface {
	AppendAuditPointer(ctx context.Context, actor id.UserID, logID id.LogID) error
}

// Sink receives a copy of every recorded entry for out-of-process delivery.
// Publish must not block the request path.
type Sink interface {
	Publish(entry Entry)
}

// Recorder appends an entry and cross-links it from the actor's profile in
// one call, which is the only way entries enter the trail. Services treat a
// recording failure as a failure of the whole operation.
type Recorder struct {
	store    Store
	profiles ProfilePointers
	sink     Sink
	logger   *slog.Logger
}

func NewRecorder(store Store, profiles ProfilePointers, logger *slog.Logger, opts ...RecorderOption) *Recorder {
	r := &Recorder{store: store, profiles: profiles, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type RecorderOption func(*Recorder)

// WithSink mirrors recorded entries to an external sink.
func WithSink(sink Sink) RecorderOption {
	return func(r *Recorder) { r.sink = sink }
}

// Record appends the entry and pushes its pointer onto the actor's profile.
func (r *Recorder) Record(ctx context.Context, actor id.UserID, entry Entry) (id.LogID, error) {
	entry.Actor = actor.String()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}

	logID, err := r.store.Append(ctx, entry)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append audit entry")
	}
	if err := r.profiles.AppendAuditPointer(ctx, actor, logID); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to link audit entry to profile")
	}

	if r.sink != nil {
		entry.ID = logID
		r.sink.Publish(entry)
	}
	return logID, nil
}

// ForProfile resolves a profile's pointer list into entries, newest first.
// Pointers that no longer resolve are dropped rather than failing the whole
// read: the trail tolerates pointer/entry desync.
func (r *Recorder) ForProfile(ctx context.Context, pointers []id.LogID) ([]Entry, error) {
	entries := make([]Entry, 0, len(pointers))
	for _, p := range pointers {
		entry, err := r.store.Get(ctx, p)
		if err != nil {
			r.logger.WarnContext(ctx, "dangling audit pointer",
				"log_id", uint64(p),
				"request_id", requestcontext.RequestID(ctx),
			)
			continue
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}
