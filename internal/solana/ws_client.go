package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// SubscribeTimeout bounds the subscription confirmation handshake.
	SubscribeTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		PingInterval:     30 * time.Second,
		ReadTimeout:      60 * time.Second,
		WriteTimeout:     10 * time.Second,
		SubscribeTimeout: 30 * time.Second,
	}
}

// WSClientImpl implements WSClient using gorilla/websocket.
//
// One connection carries all subscriptions. When the connection drops,
// every subscription channel is closed so its consumer can surface the
// fault; the next SubscribeLogs call redials. The client never
// resubscribes dropped streams itself; that decision belongs to the
// caller, which prevents duplicate-subscription races.
type WSClientImpl struct {
	endpoint string
	config   WSClientConfig
	logger   *logrus.Entry

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// subs maps subscription ID to its live stream state
	subs   map[int64]*logSub
	subsMu sync.Mutex

	// pendingSubs maps request ID to a subscribe awaiting confirmation
	pendingSubs   map[uint64]*pendingSub
	pendingSubsMu sync.Mutex

	// done signals shutdown
	done chan struct{}
	wg   sync.WaitGroup
}

// logSub is the client-side state of one logsSubscribe stream. The read
// loop is the only goroutine that ever closes ch; quit tells it the
// consumer has unsubscribed so it must stop delivering.
type logSub struct {
	ch   chan LogNotification
	quit chan struct{}
}

// pendingSub is a subscribe request awaiting its confirmation response.
type pendingSub struct {
	sub     *logSub
	confirm chan int64
}

// NewWSClient creates a new WebSocket client and connects to the endpoint.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig, logger *logrus.Logger) (*WSClientImpl, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = logrus.New()
	}

	c := &WSClientImpl{
		endpoint:    endpoint,
		config:      cfg,
		logger:      logger.WithField("component", "ws"),
		subs:        make(map[int64]*logSub),
		pendingSubs: make(map[uint64]*pendingSub),
		done:        make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(1)
	go c.readLoop()

	c.wg.Add(1)
	go c.pingLoop()

	return c, nil
}

// connect establishes the WebSocket connection.
func (c *WSClientImpl) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		return nil
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	return nil
}

// SubscribeLogs subscribes to log notifications matching the filter.
func (c *WSClientImpl) SubscribeLogs(ctx context.Context, filter LogsFilter) (*Subscription, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}

	// Redial if the previous connection dropped.
	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	reqID := c.requestID.Add(1)

	mentionsFilter := make(map[string]interface{})
	if len(filter.Mentions) > 0 {
		mentionsFilter["mentions"] = filter.Mentions
	} else {
		mentionsFilter["all"] = nil
	}

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "logsSubscribe",
		Params: []interface{}{
			mentionsFilter,
			map[string]string{"commitment": "confirmed"},
		},
	}

	// Buffer absorbs notification bursts between reads.
	pending := &pendingSub{
		sub:     &logSub{ch: make(chan LogNotification, 1024), quit: make(chan struct{})},
		confirm: make(chan int64, 1),
	}
	c.pendingSubsMu.Lock()
	c.pendingSubs[reqID] = pending
	c.pendingSubsMu.Unlock()

	if err := c.writeJSON(req); err != nil {
		c.abandonPending(reqID, pending)
		return nil, fmt.Errorf("write subscribe: %w", err)
	}

	// The read loop registers the stream under its subscription ID
	// before delivering the confirmation, so notifications arriving
	// right behind it are never lost.
	select {
	case subID, ok := <-pending.confirm:
		if !ok {
			return nil, fmt.Errorf("connection lost during subscribe")
		}
		return NewSubscription(subID, pending.sub.ch, func(ctx context.Context) error {
			return c.unsubscribe(ctx, subID)
		}), nil
	case <-time.After(c.config.SubscribeTimeout):
		c.abandonPending(reqID, pending)
		return nil, fmt.Errorf("subscription timeout after %v", c.config.SubscribeTimeout)
	case <-c.done:
		return nil, ErrClientClosed
	case <-ctx.Done():
		c.abandonPending(reqID, pending)
		return nil, ctx.Err()
	}
}

// unsubscribe cancels a subscription on the node. The notification
// channel is not closed here: the read loop may be mid-send on it, and
// only the read loop closes stream channels. Closing quit tells it to
// stop delivering.
func (c *WSClientImpl) unsubscribe(_ context.Context, subID int64) error {
	c.subsMu.Lock()
	s, ok := c.subs[subID]
	if ok {
		delete(c.subs, subID)
	}
	c.subsMu.Unlock()

	if !ok {
		return nil // already removed (disconnect or Close)
	}
	close(s.quit)

	if c.closed.Load() {
		return nil
	}

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  "logsUnsubscribe",
		Params:  []interface{}{subID},
	}
	if err := c.writeJSON(req); err != nil {
		return fmt.Errorf("write unsubscribe: %w", err)
	}
	return nil
}

// writeJSON writes a request under the connection write deadline.
func (c *WSClientImpl) writeJSON(req wsRequest) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected")
	}

	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	return c.conn.WriteJSON(req)
}

// abandonPending withdraws a subscribe request. When the confirmation
// won the race the stream is already registered, so it is torn down.
func (c *WSClientImpl) abandonPending(reqID uint64, pending *pendingSub) {
	c.pendingSubsMu.Lock()
	delete(c.pendingSubs, reqID)
	c.pendingSubsMu.Unlock()

	select {
	case subID, ok := <-pending.confirm:
		if ok {
			_ = c.unsubscribe(context.Background(), subID)
		}
	default:
	}
}

// Close closes the WebSocket connection.
func (c *WSClientImpl) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	// The read loop closes every stream channel on its way out; waiting
	// for it means all channels are closed before Close returns.
	c.wg.Wait()
	return nil
}

// failAllSubscriptions closes every stream and pending confirmation,
// signalling consumers that the connection is gone. Only the read loop
// goroutine calls this, which keeps channel closes serialized with the
// sends in handleLogsNotification.
func (c *WSClientImpl) failAllSubscriptions() {
	c.subsMu.Lock()
	for id, s := range c.subs {
		close(s.ch)
		delete(c.subs, id)
	}
	c.subsMu.Unlock()

	c.pendingSubsMu.Lock()
	for id, p := range c.pendingSubs {
		close(p.confirm)
		delete(c.pendingSubs, id)
	}
	c.pendingSubsMu.Unlock()
}

// readLoop reads messages from the WebSocket and dispatches to subscribers.
func (c *WSClientImpl) readLoop() {
	defer c.wg.Done()
	defer c.failAllSubscriptions()

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			// Waiting for the next SubscribeLogs call to redial.
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			c.logger.WithError(err).Warn("connection lost")

			c.connMu.Lock()
			if c.conn != nil {
				c.conn.Close()
				c.conn = nil
			}
			c.connMu.Unlock()

			// Surface the drop to every consumer; they decide whether
			// and when to resubscribe.
			c.failAllSubscriptions()
			continue
		}

		c.handleMessage(message)
	}
}

// handleMessage processes an incoming WebSocket message.
func (c *WSClientImpl) handleMessage(message []byte) {
	// Try to parse as subscription confirmation first
	var resp wsSubscribeResponse
	if err := json.Unmarshal(message, &resp); err == nil && resp.Result > 0 {
		c.handleSubscribeResponse(&resp)
		return
	}

	// Try to parse as notification
	var notif wsNotification
	if err := json.Unmarshal(message, &notif); err == nil && notif.Method == "logsNotification" {
		c.handleLogsNotification(&notif)
		return
	}

	// Check for error response
	var errResp struct {
		JSONRPC string `json:"jsonrpc"`
		ID      uint64 `json:"id"`
		Error   *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(message, &errResp); err == nil && errResp.Error != nil {
		// Pending subscribe will time out; nothing else to do here.
		c.logger.WithFields(logrus.Fields{
			"code": errResp.Error.Code,
			"msg":  errResp.Error.Message,
		}).Warn("rpc error response")
	}
}

// handleSubscribeResponse registers the confirmed stream and wakes the
// subscriber. Registration happens before the confirmation is delivered
// and on the read loop goroutine, so no notification can slip through
// between the two.
func (c *WSClientImpl) handleSubscribeResponse(resp *wsSubscribeResponse) {
	c.pendingSubsMu.Lock()
	defer c.pendingSubsMu.Unlock()

	p, ok := c.pendingSubs[resp.ID]
	if !ok {
		return
	}
	delete(c.pendingSubs, resp.ID)

	c.subsMu.Lock()
	c.subs[resp.Result] = p.sub
	c.subsMu.Unlock()

	p.confirm <- resp.Result
}

// handleLogsNotification dispatches a log notification to its subscriber.
func (c *WSClientImpl) handleLogsNotification(notif *wsNotification) {
	if notif.Params == nil {
		return
	}

	subID := notif.Params.Subscription
	value := notif.Params.Result.Value

	logNotif := LogNotification{
		SubscriptionID: subID,
		Signature:      value.Signature,
		Logs:           value.Logs,
		Err:            value.Err,
	}
	if notif.Params.Result.Context != nil {
		logNotif.Slot = notif.Params.Result.Context.Slot
	}

	c.subsMu.Lock()
	s, ok := c.subs[subID]
	c.subsMu.Unlock()

	if !ok {
		return
	}

	// Block until delivered; quit frees the loop when the consumer
	// unsubscribed under backpressure.
	select {
	case s.ch <- logNotif:
	case <-s.quit:
	case <-c.done:
	}
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (c *WSClientImpl) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					// Connection might be dead, reader will surface it
				}
			}
			c.connMu.Unlock()
		}
	}
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsSubscribeResponse struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Result  int64  `json:"result"` // subscription ID
}

type wsNotification struct {
	JSONRPC string                `json:"jsonrpc"`
	Method  string                `json:"method"`
	Params  *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context *wsContext  `json:"context"`
	Value   wsLogsValue `json:"value"`
}

type wsContext struct {
	Slot int64 `json:"slot"`
}

type wsLogsValue struct {
	Signature string      `json:"signature"`
	Logs      []string    `json:"logs"`
	Err       interface{} `json:"err"`
}
