package voice

import "github.com/sweeney/smart-home/internal/command"

// Reply is one recorded announcement.
type Reply struct {
	Metric command.Metric
	Value  float64
}

// FakeReplier is a test double that records replies.
type FakeReplier struct {
	Replies []Reply

	// ReplyError, if set, will be returned by Reply without recording.
	ReplyError error
}

// NewFakeReplier creates an empty FakeReplier.
func NewFakeReplier() *FakeReplier {
	return &FakeReplier{}
}

// Reply records the announcement.
func (f *FakeReplier) Reply(m command.Metric, value float64) error {
	if f.ReplyError != nil {
		return f.ReplyError
	}
	f.Replies = append(f.Replies, Reply{Metric: m, Value: value})
	return nil
}

// Last returns the most recent reply.
func (f *FakeReplier) Last() (Reply, bool) {
	if len(f.Replies) == 0 {
		return Reply{}, false
	}
	return f.Replies[len(f.Replies)-1], true
}
