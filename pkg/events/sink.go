package events

// Sink consumes dispatch events. Implementations decide delivery and
// backpressure; the core only ever calls Publish.
type Sink interface {
	Publish(ev Event)
}

// Publish sends ev to sink when sink is non-nil. Every emit site in the core
// goes through this so a nil sink disables streaming without nil checks.
func Publish(sink Sink, ev Event) {
	if sink != nil {
		sink.Publish(ev)
	}
}

// ChannelSink delivers events to a buffered channel. The consumer owns the
// draining; Publish blocks once the buffer fills, which throttles the
// dispatch to the consumer's pace.
type ChannelSink struct {
	C chan Event
}

// NewChannelSink creates a sink with the given buffer size.
func NewChannelSink(buf int) *ChannelSink {
	return &ChannelSink{C: make(chan Event, buf)}
}

func (s *ChannelSink) Publish(ev Event) {
	s.C <- ev
}

// Close closes the underlying channel. Call exactly once, after the producing
// dispatch has returned.
func (s *ChannelSink) Close() {
	close(s.C)
}

// CollectorSink records every event in order. Test helper.
type CollectorSink struct {
	Events []Event
}

func (s *CollectorSink) Publish(ev Event) {
	s.Events = append(s.Events, ev)
}

// OfType returns the recorded events of one type, in emit order.
func (s *CollectorSink) OfType(t Type) []Event {
	var out []Event
	for _, ev := range s.Events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
