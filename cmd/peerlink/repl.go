package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/opd-ai/peerlink"
	"github.com/opd-ai/peerlink/contact"
	"github.com/opd-ai/peerlink/messaging"
)

// errQuit ends the chat loop.
var errQuit = errors.New("quit")

const helpText = `Commands:
  /help                         Show this help
  /myid                         Show your peer ID
  /card                         Show your contact card
  /relay                        Show listen addresses
  /dial <multiaddr>             Dial an address once
  /add <name> <peerId> [addr]   Add a contact
  /import <card> [name]         Add a contact from card data
  /contacts                     List contacts, most recent first
  /remove <peerId>              Remove a contact
  /open <peerId>                Open a conversation
  /close                        Close the open conversation
  /history                      Show the open conversation
  /quit                         Leave
  <peerId> <message>            Send to a contact
  <message>                     Send to the open conversation`

// repl interprets chat input lines against a client. It is not safe for
// concurrent use.
type repl struct {
	client *peerlink.Client
	out    io.Writer
	conv   *peerlink.Conversation
}

func newREPL(client *peerlink.Client, out io.Writer) *repl {
	return &repl{client: client, out: out}
}

func (r *repl) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format+"\n", args...)
}

// notify prints inbox notifications. It runs on the client's owner
// goroutine and only writes output.
func (r *repl) notify(n peerlink.Notification) {
	switch n.Kind {
	case peerlink.NotificationNewContact:
		r.printf("[new] %s (%s) %s: %s", n.Name, n.PeerID, n.Time, n.Preview)
	case peerlink.NotificationMessage:
		r.printf("[inbox] %s %s: %s", n.Name, n.Time, n.Preview)
	case peerlink.NotificationError:
		r.printf("[error] %s", n.Preview)
	}
}

// handle runs one input line. It returns errQuit for /quit.
func (r *repl) handle(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	fields := strings.Fields(line)

	switch fields[0] {
	case "/help":
		r.printf("%s", helpText)
	case "/quit", "/exit":
		return errQuit
	case "/myid":
		info := r.client.PeerInfo()
		if !info.Ready {
			r.printf("Your Peer ID: %s", peerlink.LoadingPeerID)
			return nil
		}
		r.printf("Your Peer ID: %s", info.PeerID)
	case "/card":
		card, err := r.client.MyCard()
		if err != nil {
			return err
		}
		r.printf("%s", card.Encode())
	case "/relay":
		r.relay()
	case "/dial":
		if len(fields) != 2 {
			r.printf("Usage: /dial <multiaddr>")
			return nil
		}
		r.client.Engine().DialPeer(fields[1])
		r.printf("Dialing %s...", fields[1])
	case "/add":
		if len(fields) < 3 || len(fields) > 4 {
			r.printf("Usage: /add <name> <peerId> [multiaddr]")
			return nil
		}
		address := ""
		if len(fields) == 4 {
			address = fields[3]
		}
		added, err := r.client.AddContact(fields[1], fields[2], address)
		if err != nil {
			return err
		}
		r.printf("Saved contact: %s", added.Name)
	case "/import":
		if len(fields) < 2 {
			r.printf("Usage: /import <card> [name]")
			return nil
		}
		name := ""
		if len(fields) > 2 {
			name = strings.Join(fields[2:], " ")
		}
		added, err := r.client.ImportCard(fields[1], name)
		if err != nil {
			return err
		}
		r.printf("Saved contact: %s (%s)", added.Name, added.PeerID)
	case "/contacts":
		r.contacts()
	case "/remove":
		if len(fields) != 2 {
			r.printf("Usage: /remove <peerId>")
			return nil
		}
		if err := r.client.RemoveContact(fields[1]); err != nil {
			return err
		}
		r.printf("Removed contact: %s", fields[1])
	case "/open":
		if len(fields) != 2 {
			r.printf("Usage: /open <peerId>")
			return nil
		}
		return r.open(fields[1])
	case "/close":
		return r.closeConversation()
	case "/history":
		r.history()
	default:
		if strings.HasPrefix(fields[0], "/") {
			r.printf("Unknown command. Type /help for list.")
			return nil
		}
		return r.send(line, fields)
	}
	return nil
}

func (r *repl) relay() {
	info := r.client.PeerInfo()
	r.printf("Relay address: %s", info.RelayAddress)
	for _, addr := range r.client.Engine().GetListenAddresses() {
		r.printf("  - %s", addr)
	}
}

func (r *repl) contacts() {
	all := r.client.Contacts()
	if len(all) == 0 {
		r.printf("No contacts saved")
		return
	}
	for _, c := range all {
		r.printf("  %-16s %s  %s  %s", c.Name, contact.ShortID(c.PeerID), c.Time, c.LastMessage)
	}
}

func (r *repl) open(peerID string) error {
	conv, err := r.client.OpenConversation(peerID)
	if err != nil {
		return err
	}
	if r.conv != nil && r.conv != conv {
		// the new conversation is already active
		_ = r.conv.Close()
	}
	if r.conv != conv {
		if err := conv.OnMessage(r.printMessage(conv.Name())); err != nil {
			return err
		}
	}
	r.conv = conv
	r.printf("Chatting with %s", conv.Name())
	return nil
}

func (r *repl) printMessage(name string) messaging.AppendCallback {
	return func(m messaging.Message) {
		if m.Direction == messaging.DirectionReceived {
			r.printf("[%s] %s: %s", m.Timestamp, name, m.Content)
		}
	}
}

func (r *repl) closeConversation() error {
	if r.conv == nil {
		r.printf("No open conversation")
		return nil
	}
	err := r.conv.Close()
	r.printf("Closed conversation with %s", r.conv.Name())
	r.conv = nil
	return err
}

func (r *repl) history() {
	if r.conv == nil {
		r.printf("No open conversation")
		return
	}
	for _, m := range r.conv.Messages() {
		who := r.conv.Name()
		if m.Direction == messaging.DirectionSent {
			who = "me"
		}
		r.printf("[%s] %s: %s", m.Timestamp, who, m.Content)
	}
}

// send handles "<peerId> <message>" and plain text for the open
// conversation.
func (r *repl) send(line string, fields []string) error {
	if looksLikePeerID(fields[0]) {
		if len(fields) < 2 {
			r.printf("Usage: <peerId> <message>")
			return nil
		}
		text := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
		if err := r.client.Send(fields[0], text); err != nil {
			return err
		}
		r.printf("Sent to %s", contact.ShortID(fields[0]))
		return nil
	}

	if r.conv == nil {
		r.printf("No open conversation. Use /open <peerId> first.")
		return nil
	}
	return r.conv.Send(line)
}

func looksLikePeerID(word string) bool {
	return strings.HasPrefix(word, "12D3") || strings.HasPrefix(word, "Qm")
}
