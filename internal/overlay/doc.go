// Package overlay persists the records layered under the operator's
// daemon configuration.
//
// A [Store] holds named JSON records. The daemon options added at runtime
// live under [DaemonOptsAdditions]; the structured dockerd command-line
// options live under [DockerOpts]. Each record is read and written as a
// whole, so a reader never observes half of an update.
//
// [SQLiteStore] is the durable implementation and keeps records in a single
// kv table. [MemoryStore] keeps records in process memory and is used for
// dry runs and tests.
//
// There is no locking across a read-modify-write cycle. Two processes
// updating the same record concurrently will race and the last write wins.
package overlay
