// Package protocol implements the composite assistant response format.
// A composite body is a JSON text segment followed by a fixed ASCII
// delimiter and a raw audio segment.
package protocol
