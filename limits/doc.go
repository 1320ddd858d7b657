// Package limits provides centralized message size constants, validation
// functions and contact-preview truncation for peerlink.
//
// # Size Hierarchy
//
//   - MaxMessageBytes (4096 bytes): the largest chat message the client will
//     send and the engine will deliver to the router.
//
//   - MaxFrameBytes (16384 bytes): the largest wire frame, which wraps a
//     message in a JSON envelope with sender and timestamp.
//
//   - MaxBlobBytes (4MB): the largest persisted contact ledger. A larger blob
//     is treated as corrupt.
//
// # Previews
//
// The contact list shows a short preview of the last message:
//
//	limits.TruncatePreview("hello")                          // "hello"
//	limits.TruncatePreview("hello there, this is a longer than expected test")
//	// "hello there, this is a longer ..."
//
// Length is measured in characters (runes), so multi-byte text is never split
// inside a code point. A message of exactly PreviewLength characters is kept
// verbatim.
//
// # Error Types
//
//   - ErrMessageEmpty: returned when an empty message or frame is provided
//   - ErrMessageTooLarge: returned when a message exceeds the specified limit
package limits
