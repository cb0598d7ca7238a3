// Package main runs a demo client: it enqueues a plan and follows its
// progress over the WebSocket stream.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type planEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Enqueue a plan over everything in the store.
	body := []byte(`{"timeBudgetSec":10}`)
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/plans", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	var plan struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&plan); err != nil {
		log.Fatal(err)
	}
	if plan.ID == "" {
		log.Fatalf("enqueue failed: HTTP %d", resp.StatusCode)
	}
	log.Printf("Plan %s %s", plan.ID, plan.Status)

	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/plans/" + plan.ID + "/stream"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var evt planEvent
			if err := c.ReadJSON(&evt); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %s: %v", evt.Type, evt.Data)
			switch evt.Type {
			case "plan.completed", "plan.infeasible", "plan.failed":
				return
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(60 * time.Second):
		log.Println("timed out waiting for a terminal event")
	}
}
