// Package observability provides event logging, metrics and alerting for
// careclock. Service mutations are recorded as JSON Lines events; metrics are
// derived from that log on demand, while alerts are derived from the current
// urgency board.
package observability
