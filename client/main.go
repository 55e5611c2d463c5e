package main

import (
	"encoding/json"
	"log"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
)

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// send wraps and sends one named event.
func send(c *websocket.Conn, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.TextMessage, frame)
}

func main() {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: "localhost:8080", Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Printf("Read error: %v", err)
				return
			}
			var env envelope
			if err := json.Unmarshal(message, &env); err != nil {
				log.Printf("Bad frame: %v", err)
				continue
			}
			log.Printf("<- %s %s", env.Event, string(env.Data))
		}
	}()

	if err := send(c, "joinGame", map[string]string{
		"roomId":   "42",
		"region":   "us",
		"username": "smoketest",
	}); err != nil {
		log.Fatalf("Join failed: %v", err)
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	x, y := 100.0, 100.0
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			x += 5
			y += 3
			if err := send(c, "playerUpdate", map[string]interface{}{
				"head":       map[string]float64{"x": x, "y": y},
				"direction":  0.5,
				"speed":      1.0,
				"length":     10,
				"isBoosting": false,
			}); err != nil {
				log.Printf("Update failed: %v", err)
				return
			}
		case <-interrupt:
			log.Println("Interrupted, closing connection")
			c.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		}
	}
}
