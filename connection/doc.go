// Package connection drives dial attempts for an open conversation.
//
// A Supervisor lives exactly as long as one conversation-open lifecycle. It
// never observes whether a link came up; the engine's link status is opaque.
// It only decides when to ask the engine to dial:
//
//   - EnsureLink dials immediately, then again after each retry delay
//     (3s and 6s by default). Repeated calls for the same address are no-ops
//     until the supervisor is closed.
//   - Resume dials once after the resume delay (500ms by default).
//   - Repair dials once immediately, after a failed send.
//   - Close cancels every scheduled dial. A timer that fires concurrently with
//     Close is suppressed when it reaches the owner context.
//
// Scheduled dials are handed to an Executor, which the client uses to run
// them on its owner goroutine. The default Executor runs them inline on the
// timer goroutine.
//
// Per-address state follows Idle -> Dialing -> Closed. Resume and Repair
// also move an Idle address to Dialing, which then makes EnsureLink a no-op
// for it. The client always calls EnsureLink first in a lifecycle, so that
// path only matters to direct users of the package.
//
// Timers are dropped from the supervisor once they fire, so a supervisor
// that lives as long as the process holds only the dials still pending.
package connection
