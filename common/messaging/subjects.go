package messaging

import "strconv"

// Subject constants for the faultline message bus.
// Follow the pattern: {domain}.{action}.{resource}
const (
	// SubjectIngestEvents is the base subject for relayed event
	// envelopes. Append ".{project}" for a specific project.
	SubjectIngestEvents = "ingest.events"

	// SubjectIngestEventsAll matches envelopes for every project.
	SubjectIngestEventsAll = "ingest.events.>"

	// SubjectIngestDLQ is the base subject for dead-lettered envelopes.
	// Append ".{reason}" for a specific failure class.
	SubjectIngestDLQ = "ingest.dlq"

	// SubjectIngestDLQAll matches all dead-lettered envelopes.
	SubjectIngestDLQAll = "ingest.dlq.>"
)

// Queue group names for load-balanced consumers.
const (
	// QueueIngestWorkers is the worker pool persisting relayed events.
	QueueIngestWorkers = "ingest-workers"
)

// IngestEventSubject returns the subject envelopes for a project are
// published to. Example: ingest.events.1
func IngestEventSubject(project int) string {
	return SubjectIngestEvents + "." + strconv.Itoa(project)
}

// IngestDLQSubject returns the dead-letter subject for a failure reason.
// Example: ingest.dlq.malformed
func IngestDLQSubject(reason string) string {
	return SubjectIngestDLQ + "." + reason
}
