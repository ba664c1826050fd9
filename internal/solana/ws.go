package solana

import (
	"context"
	"errors"
)

// ErrClientClosed is returned for operations on a closed WSClient.
var ErrClientClosed = errors.New("websocket client closed")

// WSClient defines the push-subscription half of the ledger transport.
type WSClient interface {
	// SubscribeLogs subscribes to log notifications matching the filter.
	// The returned subscription's channel is closed when the connection
	// drops or the client is closed; the client never resubscribes on
	// its own. After Unsubscribe no further notifications are delivered.
	SubscribeLogs(ctx context.Context, filter LogsFilter) (*Subscription, error)

	// Close closes the WebSocket connection and all subscriptions.
	Close() error
}

// LogsFilter defines a logsSubscribe filter.
type LogsFilter struct {
	// Mentions filters logs that mention any of these addresses.
	Mentions []string
}

// LogNotification is a single logsNotification message.
type LogNotification struct {
	SubscriptionID int64
	Signature      string
	Slot           int64
	Logs           []string
	Err            interface{}
}

// Subscription is one live logsSubscribe stream.
type Subscription struct {
	id    int64
	ch    chan LogNotification
	unsub func(ctx context.Context) error
}

// NewSubscription wraps a notification channel in a Subscription.
// Used by WSClientImpl and by test stubs.
func NewSubscription(id int64, ch chan LogNotification, unsub func(ctx context.Context) error) *Subscription {
	return &Subscription{id: id, ch: ch, unsub: unsub}
}

// ID returns the subscription identifier assigned by the node.
func (s *Subscription) ID() int64 { return s.id }

// Notifications returns the stream of notifications. The channel is
// closed on disconnect or client shutdown.
func (s *Subscription) Notifications() <-chan LogNotification { return s.ch }

// Unsubscribe cancels the subscription on the node. No notifications
// are delivered after it returns; the channel is not closed.
func (s *Subscription) Unsubscribe(ctx context.Context) error {
	if s.unsub == nil {
		return nil
	}
	return s.unsub(ctx)
}
