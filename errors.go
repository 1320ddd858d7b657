package peerlink

import "errors"

var (
	// ErrEngineUnavailable wraps the engine's StartNode failure. It is fatal:
	// callers should not proceed past startup.
	ErrEngineUnavailable = errors.New("engine unavailable")

	// ErrSendFailed wraps an engine send error. Nothing was appended and a
	// repair dial was issued; the message is not resent automatically.
	ErrSendFailed = errors.New("send failed")

	// ErrClientClosed is returned by calls made after Close or after Run
	// stopped.
	ErrClientClosed = errors.New("client closed")

	// ErrAlreadyRunning is returned by a second concurrent Run.
	ErrAlreadyRunning = errors.New("client already running")

	// ErrConversationClosed is returned by operations on a closed
	// conversation.
	ErrConversationClosed = errors.New("conversation closed")
)
