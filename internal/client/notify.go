package client

import (
	"fmt"
	"io"
	"log/slog"
)

// Category classifies a failed request for display.
type Category string

const (
	CategoryConnectivity Category = "connectivity"
	CategoryServer       Category = "server"
	CategoryFallback     Category = "fallback"
)

// User-facing messages for the generic categories.
const (
	MsgConnectivity = "Network error. Please check your connection."
	MsgFallback     = "Something went wrong."
)

// Notification is a user-visible failure message.
type Notification struct {
	Category Category
	Message  string
	Status   int
}

// Notifier shows notifications to the user.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) { f(n) }

// WriterNotifier writes "Error: <message>" lines to W.
type WriterNotifier struct {
	W io.Writer
}

// Notify implements Notifier.
func (w WriterNotifier) Notify(n Notification) {
	if _, err := fmt.Fprintf(w.W, "Error: %s\n", n.Message); err != nil {
		slog.Warn("writing notification", "err", err)
	}
}

type discardNotifier struct{}

func (discardNotifier) Notify(Notification) {}

// notificationFor maps a request failure to exactly one category.
func notificationFor(err error) Notification {
	switch e := err.(type) {
	case *TransportError:
		return Notification{Category: CategoryConnectivity, Message: MsgConnectivity}
	case *APIError:
		if e.Message != "" {
			return Notification{Category: CategoryServer, Message: e.Message, Status: e.Status}
		}
		return Notification{Category: CategoryFallback, Message: MsgFallback, Status: e.Status}
	default:
		return Notification{Category: CategoryFallback, Message: MsgFallback}
	}
}
