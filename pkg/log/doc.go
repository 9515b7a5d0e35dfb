// Package log provides the protocol event log for reader-side writer tracking.
//
// This package defines the Logger interface and Event types for capturing
// what a DataReader decided about each matched DataWriter: liveliness
// transitions, historic sample hand-offs, coherent set resolutions and
// ownership changes. It is separate from operational logging (slog) - the
// event log is a complete machine-readable trace for debugging and analysis.
//
// # Basic Usage
//
// Components take a Logger in their configuration:
//
//	// For development: log to console via slog
//	cfg.EventLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.EventLogger, _ = log.NewFileLogger("/var/log/dcps/reader.dlog")
//
//	// Both: use MultiLogger
//	cfg.EventLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Every event names the reader and writer of the association it concerns
// and carries exactly one payload:
//   - Liveliness: ALIVE/DEAD transitions and removals (LivelinessEvent)
//   - Historic: historic sample wait, buffering and hand-off (HistoricEvent)
//   - Coherent: coherent set resolution (CoherentEvent)
//   - Ownership: exclusive ownership changes (OwnershipEvent)
//   - Error: consistency problems (ErrorEventData)
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with the .dlog extension.
// The dcps-log CLI tool provides viewing, filtering, and export.
package log
