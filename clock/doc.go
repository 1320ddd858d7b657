// Package clock provides the time source used by peerlink components.
//
// Components never call time.Now or time.AfterFunc directly. They hold a
// TimeProvider, which defaults to RealTimeProvider and can be replaced with a
// ManualTimeProvider in tests so retry schedules run in logical time:
//
//	tp := clock.NewManualTimeProvider(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
//	tp.AfterFunc(3*time.Second, func() { fmt.Println("fired") })
//	tp.Advance(3 * time.Second) // prints "fired"
//
// Stamp formats a time the way the contact list and timeline display it
// (24-hour HH:mm).
package clock
