package messaging

// Subject and stream names for the WikiRelay message bus.
const (
	// ChangeEventsStreamName is the JetStream stream holding relayed change
	// events between the relay producer and the sink consumer.
	ChangeEventsStreamName = "CHANGE_EVENTS"

	// SubjectChangesPrefix is the prefix for relayed change event subjects.
	// Full subjects follow the pattern changes.{upstream-stream}.
	SubjectChangesPrefix = "changes"

	// SinkConsumerName is the durable consumer the sink service pulls from.
	SinkConsumerName = "sink-workers"
)

// ChangeSubject returns the subject for events relayed from the named
// upstream stream. Example: changes.recentchange
func ChangeSubject(stream string) string {
	return SubjectChangesPrefix + "." + stream
}
