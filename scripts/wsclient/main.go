// Command wsclient is an interactive smoke-test client for the groupcast
// server: it connects to a group and relays stdin lines as messages.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/groupcast-server/internal/core"
)

func main() {
	if err := run(); err != nil {
		log.Printf("wsclient: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	sender := flag.String("sender", "cli-user", "sender name")
	group := flag.String("group", core.DefaultGroup, "group to join")
	flag.Parse()

	target, err := url.Parse(*addr)
	if err != nil {
		return fmt.Errorf("parse addr: %w", err)
	}
	q := target.Query()
	q.Set("group", *group)
	target.RawQuery = q.Encode()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, target.String(), nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	fmt.Printf("Connected to %s as %s in group %s\n", *addr, *sender, *group)
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn, *group, *sender)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var raw json.RawMessage
		if err := wsjson.Read(ctx, conn, &raw); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		// Rejections come back as {"status":N,"error":...}; everything else
		// is a broadcast payload.
		var ack struct {
			Status int    `json:"status"`
			Error  string `json:"error"`
		}
		if err := json.Unmarshal(raw, &ack); err == nil && ack.Status != 0 {
			fmt.Printf("!! rejected (%d): %s\n", ack.Status, ack.Error)
			continue
		}

		var payload core.Payload
		if err := json.Unmarshal(raw, &payload); err != nil {
			log.Printf("unmarshal payload: %v", err)
			continue
		}
		fmt.Printf("[%s] %s: %s\n", payload.Timestamp, payload.Sender, payload.Body)
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, group, sender string) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		msg := core.Inbound{
			Action: core.ActionSendMessage,
			Group:  group,
			Sender: sender,
			Body:   text,
		}
		if err := wsjson.Write(ctx, conn, msg); err != nil {
			log.Printf("send: %v", err)
			return
		}
	}
}
