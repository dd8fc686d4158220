package pricefeed

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/polyforecast/polyforecast/pkg/types"
)

// Feed maintains a single WebSocket connection to the Polymarket market
// channel and streams price updates for subscribed tokens. It reconnects
// with jittered exponential backoff and resubscribes after a drop.
type Feed struct {
	url             string
	conn            *websocket.Conn
	logger          *zap.Logger
	reconnectMgr    *reconnectManager
	config          Config
	messageChan     chan *types.PriceMessage
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	mu              sync.RWMutex
	subscribed      map[string]bool // tracks subscribed token IDs
	connected       atomic.Bool
	connectionStart atomic.Int64 // Unix timestamp of connection start
}

// Config holds price feed configuration.
type Config struct {
	URL                   string
	DialTimeout           time.Duration
	PingInterval          time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	ReconnectBackoffMult  float64
	MessageBufferSize     int
	Logger                *zap.Logger
}

// New creates a price feed. Start must be called before messages flow.
func New(cfg Config) (*Feed, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("url cannot be empty")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 10 * time.Second
	}
	if cfg.ReconnectInitialDelay <= 0 {
		cfg.ReconnectInitialDelay = time.Second
	}
	if cfg.ReconnectMaxDelay <= 0 {
		cfg.ReconnectMaxDelay = time.Minute
	}
	if cfg.ReconnectBackoffMult <= 1 {
		cfg.ReconnectBackoffMult = 2.0
	}
	if cfg.MessageBufferSize <= 0 {
		cfg.MessageBufferSize = 1000
	}

	ctx, cancel := context.WithCancel(context.Background())

	reconnectCfg := reconnectConfig{
		InitialDelay:      cfg.ReconnectInitialDelay,
		MaxDelay:          cfg.ReconnectMaxDelay,
		BackoffMultiplier: cfg.ReconnectBackoffMult,
		JitterPercent:     0.2,
	}

	return &Feed{
		url:          cfg.URL,
		logger:       cfg.Logger,
		reconnectMgr: newReconnectManager(reconnectCfg, cfg.Logger),
		config:       cfg,
		messageChan:  make(chan *types.PriceMessage, cfg.MessageBufferSize),
		ctx:          ctx,
		cancel:       cancel,
		subscribed:   make(map[string]bool),
	}, nil
}

// Start connects and launches the read, ping and reconnect loops.
func (f *Feed) Start() error {
	f.logger.Info("price-feed-starting", zap.String("url", f.url))

	err := f.connect(f.ctx)
	if err != nil {
		return fmt.Errorf("initial connection: %w", err)
	}

	f.wg.Add(3)
	go f.readLoop()
	go f.pingLoop()
	go f.reconnectLoop()

	return nil
}

// connect establishes a WebSocket connection.
func (f *Feed) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: f.config.DialTimeout,
	}

	f.logger.Info("connecting-to-price-feed", zap.String("url", f.url))

	conn, _, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()

	f.connected.Store(true)
	f.connectionStart.Store(time.Now().Unix())
	ActiveConnections.Set(1)

	f.logger.Info("price-feed-connected")

	return nil
}

// Subscribe subscribes to price updates for the given token IDs. Already
// subscribed tokens are skipped; on write failure the subscription state
// is rolled back so a later retry resends them.
func (f *Feed) Subscribe(ctx context.Context, tokenIDs []string) error {
	if len(tokenIDs) == 0 {
		return nil
	}

	f.mu.Lock()

	newTokens := make([]string, 0, len(tokenIDs))
	for _, tokenID := range tokenIDs {
		if !f.subscribed[tokenID] {
			newTokens = append(newTokens, tokenID)
			f.subscribed[tokenID] = true
		}
	}

	if len(newTokens) == 0 {
		f.mu.Unlock()
		f.logger.Debug("all-tokens-already-subscribed")
		return nil
	}

	// The market channel expects "type" on the first subscription and
	// "operation" when adding tokens to a live connection.
	var subscribeMsg map[string]interface{}
	isInitialSubscription := len(f.subscribed) == len(newTokens)

	if isInitialSubscription {
		subscribeMsg = map[string]interface{}{
			"assets_ids": newTokens,
			"type":       "market",
		}
	} else {
		subscribeMsg = map[string]interface{}{
			"assets_ids": newTokens,
			"operation":  "subscribe",
		}
	}

	totalSubscribed := len(f.subscribed)
	f.mu.Unlock()

	// Network I/O without holding the lock
	err := f.conn.WriteJSON(subscribeMsg)
	if err != nil {
		f.mu.Lock()
		for _, tokenID := range newTokens {
			delete(f.subscribed, tokenID)
		}
		totalSubscribed = len(f.subscribed)
		f.mu.Unlock()

		SubscriptionCount.Set(float64(totalSubscribed))
		return fmt.Errorf("write subscribe message: %w", err)
	}

	SubscriptionCount.Set(float64(totalSubscribed))

	f.logger.Info("subscribed-to-tokens",
		zap.Int("new-count", len(newTokens)),
		zap.Int("total-count", totalSubscribed))

	return nil
}

// readLoop reads messages from the WebSocket until the connection drops.
func (f *Feed) readLoop() {
	defer f.wg.Done()

	for {
		select {
		case <-f.ctx.Done():
			return
		default:
		}

		f.mu.RLock()
		conn := f.conn
		f.mu.RUnlock()

		if conn == nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			f.logger.Warn("read-error", zap.Error(err))

			startTime := f.connectionStart.Load()
			if startTime > 0 {
				ConnectionDuration.Observe(time.Since(time.Unix(startTime, 0)).Seconds())
			}

			f.connected.Store(false)
			ActiveConnections.Set(0)
			return
		}

		f.handleMessage(message)
	}
}

// handleMessage parses a raw frame. Polymarket sends an array of price
// messages; heartbeats and control frames are logged and skipped.
func (f *Feed) handleMessage(message []byte) {
	var priceMsgs []types.PriceMessage
	err := json.Unmarshal(message, &priceMsgs)
	if err != nil {
		messageStr := string(message)

		if messageStr == "[]" || messageStr == "" || len(message) < 10 {
			f.logger.Debug("price-feed-heartbeat", zap.Int("bytes", len(message)))
			return
		}

		var controlMsg map[string]interface{}
		if json.Unmarshal(message, &controlMsg) == nil {
			if msgType, ok := controlMsg["type"].(string); ok {
				f.logger.Debug("price-feed-control-message",
					zap.String("type", msgType),
					zap.Int("bytes", len(message)))
				return
			}
		}

		previewLen := len(messageStr)
		if previewLen > 100 {
			previewLen = 100
		}
		f.logger.Debug("price-feed-unparseable-message",
			zap.Error(err),
			zap.Int("bytes", len(message)),
			zap.String("preview", messageStr[:previewLen]))
		return
	}

	for i := range priceMsgs {
		msg := &priceMsgs[i]

		MessagesReceivedTotal.WithLabelValues(msg.EventType).Inc()

		select {
		case f.messageChan <- msg:
		default:
			f.logger.Warn("message-channel-full", zap.String("event-type", msg.EventType))
			MessagesDroppedTotal.WithLabelValues("channel_full").Inc()
		}
	}
}

// pingLoop sends periodic PING frames to keep the connection alive.
func (f *Feed) pingLoop() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.ctx.Done():
			return
		case <-ticker.C:
			if !f.connected.Load() {
				continue
			}

			f.mu.RLock()
			conn := f.conn
			f.mu.RUnlock()

			if conn == nil {
				continue
			}

			err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second))
			if err != nil {
				f.logger.Warn("ping-error", zap.Error(err))
			}
		}
	}
}

// reconnectLoop watches for disconnection and restores the stream.
func (f *Feed) reconnectLoop() {
	defer f.wg.Done()

	for {
		select {
		case <-f.ctx.Done():
			return
		default:
		}

		if f.connected.Load() {
			time.Sleep(time.Second)
			continue
		}

		f.logger.Warn("connection-lost-initiating-reconnect")

		err := f.reconnectMgr.Reconnect(f.ctx, f.connect)
		if err != nil {
			if err == context.Canceled {
				return
			}
			f.logger.Error("reconnection-failed", zap.Error(err))
			continue
		}

		err = f.resubscribeAll()
		if err != nil {
			f.logger.Error("resubscribe-failed", zap.Error(err))
			f.connected.Store(false)
			continue
		}

		f.logger.Info("reconnection-complete-restarting-read-loop")

		f.wg.Add(1)
		go f.readLoop()
	}
}

// resubscribeAll resends the full subscription set after a reconnect.
func (f *Feed) resubscribeAll() error {
	f.mu.RLock()
	tokenIDs := make([]string, 0, len(f.subscribed))
	for tokenID := range f.subscribed {
		tokenIDs = append(tokenIDs, tokenID)
	}
	f.mu.RUnlock()

	if len(tokenIDs) == 0 {
		return nil
	}

	subscribeMsg := map[string]interface{}{
		"assets_ids": tokenIDs,
		"type":       "market",
	}

	f.mu.RLock()
	err := f.conn.WriteJSON(subscribeMsg)
	f.mu.RUnlock()

	if err != nil {
		return fmt.Errorf("write resubscribe message: %w", err)
	}

	f.logger.Info("resubscribed-to-all-tokens", zap.Int("count", len(tokenIDs)))

	return nil
}

// Messages returns the channel of incoming price updates.
func (f *Feed) Messages() <-chan *types.PriceMessage {
	return f.messageChan
}

// Connected reports whether the underlying connection is up.
func (f *Feed) Connected() bool {
	return f.connected.Load()
}

// Close gracefully shuts down the feed and closes the message channel.
func (f *Feed) Close() error {
	f.logger.Info("closing-price-feed")

	f.cancel()

	f.mu.RLock()
	if f.conn != nil {
		f.conn.Close()
	}
	f.mu.RUnlock()

	f.wg.Wait()

	close(f.messageChan)

	ActiveConnections.Set(0)

	f.logger.Info("price-feed-closed")

	return nil
}
