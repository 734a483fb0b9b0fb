// Package journal persists an audit trail of every transfer and swap the
// daemon executes. Trades are written to a pluggable store (memory or
// MySQL) and their identifiers are fanned out over a queue (memory, Redis
// or RabbitMQ) so the asynchronous processor can emit audit logs and
// alerts without slowing down the trade path.
package journal
