// Package logging provides centralized logging for sodatap tools.
//
// Logging is silent by default so CLI output stays clean. Set the
// SODATAP_LOG_LEVEL environment variable to "debug", "info", "warn", or
// "error" to enable output:
//
//	SODATAP_LOG_LEVEL=debug sodatap-ctl status
//
// The debug level includes hex dumps of every characteristic packet, which
// is the primary tool for diagnosing framing problems against real units.
package logging
