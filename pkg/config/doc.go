// Package config loads reader configuration from YAML files.
//
// Example:
//
//	reader:
//	  id: 01020304.05060708.090a0b0c.00000107
//	  lease_duration: 2s
//	  historic_grace_period: 10s
//	  exclusive_ownership: true
//	logging:
//	  level: debug
//	  protocol_log: reader.dlog
//	metrics:
//	  listen_addr: ":9464"
//
// Durations use Go syntax ("500ms", "2s"). Missing fields keep their
// defaults.
package config
