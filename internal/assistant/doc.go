// Package assistant uploads recorded WAV files to the voice-assistant
// endpoint as multipart/form-data and parses its answer.
//
// Two response formats are supported. The JSON format carries only text:
//
//	{"assistant_response": "..."}
//
// The composite format carries a JSON text part, a fixed delimiter and
// the reply audio bytes (see package protocol).
//
// Failures are typed: *TransportError for network errors and non-2xx
// statuses, *ResponseFormatError for bodies that do not parse.
// Tracker and Dispatcher keep only the newest result when recordings
// overlap.
package assistant
