// Package peerlink coordinates peer-to-peer conversations on top of a
// networking engine.
//
// A Client sits between an interfaces.Engine and a view layer. It decides
// which conversation is active, routes every inbound message either into
// that conversation's timeline or into the contact inbox, drives dial
// retries while a conversation is open, and keeps a persisted contact
// ledger ordered by recency.
//
// # Getting Started
//
//	engine, err := factory.NewEngineFactory().CreateEngine()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client, err := peerlink.NewClient(engine,
//	    peerlink.WithStore(store),
//	    peerlink.WithIdentity("", "/home/me/.peerlink/identity.key"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	go client.Run(ctx)
//
//	if err := client.Start(); err != nil {
//	    log.Fatal(err) // engine unavailable
//	}
//
//	client.OnNotification(func(n peerlink.Notification) {
//	    fmt.Printf("%s: %s\n", n.Name, n.Preview)
//	})
//
// # Conversations
//
// OpenConversation creates a timeline for one contact, marks it active and
// starts a dial burst towards the contact's address: one dial immediately,
// then one at 3s and one at 6s. Background and Foreground follow the view's
// visibility; coming back to the foreground issues one extra dial after
// 500ms. Close cancels every dial still scheduled.
//
//	conv, err := client.OpenConversation(peerID)
//	if err != nil {
//	    return err
//	}
//	defer conv.Close()
//	if err := conv.Send("hello"); errors.Is(err, peerlink.ErrSendFailed) {
//	    // nothing was appended; a repair dial was issued
//	}
//
// # Routing
//
// Messages from the active peer are appended to the open timeline and update
// the contact's preview in place. Any other message moves its contact to the
// front of the ledger, creating a "User-<last 8>" contact for unknown
// senders, and produces a Notification.
//
// # Threading
//
// All conversation state is owned by the goroutine running Run. Engine
// callbacks and timers post onto its queue, and the public methods post
// there and wait, so they can be called from any goroutine while Run is
// active. Notification callbacks run on the Run goroutine and must not call
// back into the Client.
package peerlink
