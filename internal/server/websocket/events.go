package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	gorillaWebsocket "github.com/gorilla/websocket"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/supmap/navd/internal/events"
	"github.com/supmap/navd/internal/websocket"
)

// envelope wraps an event with its type tag for the UI.
type envelope struct {
	Type events.EventType `json:"type"`
	Data events.Event     `json:"data"`
}

type EventsWebsocket struct {
	websocket.Websocket
	cancel           context.CancelFunc
	websocketChannel chan events.Event
	eventsChannel    chan events.Event
	connectedClients *xsync.Counter
}

func CreateEventsWebsocket(eventsChannel chan events.Event) *EventsWebsocket {
	ew := &EventsWebsocket{
		websocketChannel: make(chan events.Event),
		eventsChannel:    eventsChannel,
		connectedClients: xsync.NewCounter(),
	}

	go ew.start()

	return ew
}

func (c *EventsWebsocket) start() {
	for {
		event := <-c.eventsChannel
		// With no UI connected the event is dropped, not queued
		if c.connectedClients.Value() > 0 {
			c.websocketChannel <- event
		}
	}
}

func (c *EventsWebsocket) OnMessage(_ context.Context, _ *http.Request, _ websocket.Writer, msg []byte, msgType int) {
	slog.Debug("Received websocket message", "message", string(msg), "type", msgType)
}

func (c *EventsWebsocket) OnConnect(ctx context.Context, _ *http.Request, w websocket.Writer) {
	newCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	slog.Info("New websocket connection")

	c.connectedClients.Inc()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-newCtx.Done():
				return
			case event := <-c.websocketChannel:
				if event == nil {
					return
				}
				eventDataJSON, err := json.Marshal(envelope{Type: event.GetType(), Data: event})
				if err != nil {
					slog.Warn("Error marshalling event data", "error", err)
					continue
				}
				w.WriteMessage(websocket.Message{
					Type: gorillaWebsocket.TextMessage,
					Data: eventDataJSON,
				})
			}
		}
	}()
}

func (c *EventsWebsocket) OnDisconnect(_ context.Context, _ *http.Request) {
	slog.Info("Websocket disconnected")
	c.connectedClients.Dec()
	c.cancel()
}
