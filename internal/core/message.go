package core

import (
	"encoding/json"
	"time"
	"unicode/utf8"
)

const (
	// ActionSendMessage is the only action the message path accepts.
	ActionSendMessage = "sendMessage"

	// DefaultGroup is used when a client connects without naming a group.
	DefaultGroup = "default"

	// MaxBodyLen bounds the message body, in characters.
	MaxBodyLen = 500
)

// Inbound is a client message as it arrives on the wire. Transient; rejected
// messages never reach the store or the fanout.
type Inbound struct {
	Action string `json:"action"`
	Group  string `json:"group"`
	Sender string `json:"sender"`
	Body   string `json:"body"`
}

// Payload is what every recipient of a broadcast receives. One instance is
// built per broadcast and serialized once.
type Payload struct {
	Sender    string `json:"sender"`
	Body      string `json:"body"`
	Timestamp string `json:"timestamp"`
}

// NewPayload stamps the message with the server clock.
func NewPayload(sender, body string, now time.Time) *Payload {
	return &Payload{
		Sender:    sender,
		Body:      body,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	}
}

// ParseMessage parses and validates a raw inbound message. Malformed JSON
// and schema violations both come back as a *Error with code bad_request;
// the first violation wins. Parse failures are never propagated raw.
func ParseMessage(raw []byte) (*Inbound, *Error) {
	var msg Inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, validationError("malformed message")
	}

	switch {
	case msg.Action != ActionSendMessage:
		return nil, validationError("unknown action")
	case msg.Group == "":
		return nil, validationError("group is required")
	case msg.Sender == "":
		return nil, validationError("sender is required")
	case msg.Body == "":
		return nil, validationError("body is required")
	case utf8.RuneCountInString(msg.Body) > MaxBodyLen:
		return nil, validationError("body too long")
	}

	return &msg, nil
}
