// Package messaging implements the per-conversation message timeline.
//
// A Timeline is created when a conversation opens and discarded when it
// closes. Messages are appended in arrival order and never modified or
// removed; the full history is not persisted, only the contact ledger keeps
// a summary of the last message.
//
// Example:
//
//	tl := messaging.NewTimeline(peerID)
//	tl.OnAppend(func(m messaging.Message) { render(m) })
//	tl.Append(messaging.NewMessage("hello", "12:03", messaging.DirectionSent))
package messaging
