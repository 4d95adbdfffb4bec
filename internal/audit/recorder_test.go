package audit

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "healthchain/pkg/domain"
	"healthchain/pkg/requestcontext"
)

// pointerLog is a minimal ProfilePointers capture for recorder tests.
type pointerLog struct {
	byActor map[id.UserID][]id.LogID
}

func newPointerLog() *pointerLog {
	return &pointerLog{byActor: make(map[id.UserID][]id.LogID)}
}

func (p *pointerLog) AppendAuditPointer(_ context.Context, actor id.UserID, logID id.LogID) error {
	p.byActor[actor] = append(p.byActor[actor], logID)
	return nil
}

// captureSink collects published entries.
type captureSink struct {
	published []Entry
}

func (c *captureSink) Publish(entry Entry) { c.published = append(c.published, entry) }

type RecorderSuite struct {
	suite.Suite
	store    *InMemoryStore
	pointers *pointerLog
	sink     *captureSink
	recorder *Recorder
	ctx      context.Context
}

func (s *RecorderSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s.store = NewInMemoryStore()
	s.pointers = newPointerLog()
	s.sink = &captureSink{}
	s.recorder = NewRecorder(s.store, s.pointers, logger, WithSink(s.sink))
	s.ctx = context.Background()
}

func TestRecorderSuite(t *testing.T) {
	suite.Run(t, new(RecorderSuite))
}

func (s *RecorderSuite) TestRecord() {
	s.Run("stamps actor and timestamp, appends, and links the pointer", func() {
		at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
		logID, err := s.recorder.Record(requestcontext.WithTime(s.ctx, at), "alice", Entry{
			Action:   ActionGrantAccess,
			RecordID: "rec-1",
			Target:   "bob",
		})
		s.Require().NoError(err)

		entry, err := s.store.Get(s.ctx, logID)
		s.Require().NoError(err)
		s.Equal("alice", entry.Actor)
		s.Equal(at, entry.Timestamp)
		s.Equal([]id.LogID{logID}, s.pointers.byActor["alice"])
	})

	s.Run("mirrors the entry to the sink with its assigned ID", func() {
		logID, err := s.recorder.Record(s.ctx, "bob", Entry{Action: ActionUpload})
		s.Require().NoError(err)

		s.Require().NotEmpty(s.sink.published)
		last := s.sink.published[len(s.sink.published)-1]
		s.Equal(logID, last.ID)
		s.Equal("bob", last.Actor)
	})
}

func (s *RecorderSuite) TestForProfile() {
	s.Run("resolves pointers newest first", func() {
		t0 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
		first, err := s.recorder.Record(requestcontext.WithTime(s.ctx, t0), "alice", Entry{Action: ActionUpload})
		s.Require().NoError(err)
		second, err := s.recorder.Record(requestcontext.WithTime(s.ctx, t0.Add(time.Minute)), "alice", Entry{Action: ActionRename})
		s.Require().NoError(err)

		entries, err := s.recorder.ForProfile(s.ctx, []id.LogID{first, second})
		s.Require().NoError(err)
		s.Require().Len(entries, 2)
		s.Equal(ActionRename, entries[0].Action)
		s.Equal(ActionUpload, entries[1].Action)
	})

	s.Run("drops dangling pointers instead of failing", func() {
		logID, err := s.recorder.Record(s.ctx, "bob", Entry{Action: ActionUpload})
		s.Require().NoError(err)

		entries, err := s.recorder.ForProfile(s.ctx, []id.LogID{logID, 999999})
		s.Require().NoError(err)
		s.Len(entries, 1)
	})
}
