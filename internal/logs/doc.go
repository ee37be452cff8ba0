// Package logs reads the JSON log file written when logging.file is enabled.
//
// Last returns the final lines with bounded memory; Follow polls for appended
// lines until its context ends. Filter narrows records to one run by matching
// the run_id field.
package logs
