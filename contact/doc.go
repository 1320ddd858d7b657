// Package contact implements the contact ledger and contact cards.
//
// # Ledger
//
// A Ledger is the ordered list of known peers, most recently interacted
// first. It is the only owner of Contact records: it hands out copies and
// never rewrites a contact's PeerID. Every mutation (Add, Remove, Touch,
// UpdateSummary, MoveToFront) serializes the whole list as one JSON array and
// writes it under a fixed key in a kvstore.Store:
//
//	store := kvstore.NewMemory()
//	ledger := contact.Load(store, contact.DefaultLedgerKey)
//	_ = ledger.Add(contact.Contact{PeerID: id, Name: "Alice"})
//	ledger.Touch(id, "hi", "12:03")
//
// Load deserializes once. A missing or corrupt blob produces an empty ledger;
// losing the contact list is preferred over refusing to start. Persist
// failures are logged and reported through OnPersistError, never returned.
//
// The Ledger is not synchronized. It must only be used from the goroutine
// that owns client state.
//
// # Cards
//
// A Card is the payload exchanged through QR codes:
//
//	{"peerId":"12D3KooW...","address":"/ip4/.../p2p-circuit/p2p/12D3KooW..."}
//
// ParseCard accepts that JSON form, or a bare peer ID for hand-typed input.
// A card without a peer ID is rejected with ErrMissingPeerID.
package contact
