package core

import (
	"strings"
	"testing"
	"time"
)

func TestParseMessageValid(t *testing.T) {
	raw := []byte(`{"action":"sendMessage","group":"g1","sender":"alice","body":"hello"}`)

	msg, verr := ParseMessage(raw)
	if verr != nil {
		t.Fatalf("unexpected validation error: %v", verr)
	}
	if msg.Group != "g1" || msg.Sender != "alice" || msg.Body != "hello" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestParseMessageRejections(t *testing.T) {
	longBody := strings.Repeat("x", MaxBodyLen+1)

	cases := []struct {
		name string
		raw  string
	}{
		{"malformed json", `{invalid-json`},
		{"empty object", `{}`},
		{"wrong action", `{"action":"ping","group":"g1","sender":"a","body":"hi"}`},
		{"missing group", `{"action":"sendMessage","sender":"a","body":"hi"}`},
		{"missing sender", `{"action":"sendMessage","group":"g1","body":"hi"}`},
		{"empty body", `{"action":"sendMessage","group":"g1","sender":"a","body":""}`},
		{"body too long", `{"action":"sendMessage","group":"g1","sender":"a","body":"` + longBody + `"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, verr := ParseMessage([]byte(tc.raw)); verr == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			} else if verr.Code != ErrCodeBadRequest {
				t.Fatalf("expected code %s, got %s", ErrCodeBadRequest, verr.Code)
			}
		})
	}
}

func TestParseMessageBodyAtLimit(t *testing.T) {
	body := strings.Repeat("x", MaxBodyLen)
	raw := []byte(`{"action":"sendMessage","group":"g1","sender":"a","body":"` + body + `"}`)

	if _, verr := ParseMessage(raw); verr != nil {
		t.Fatalf("body of exactly %d characters should pass: %v", MaxBodyLen, verr)
	}
}

func TestNewPayloadTimestampFormat(t *testing.T) {
	now := time.Now()
	p := NewPayload("alice", "hi", now)

	ts, err := time.Parse(time.RFC3339Nano, p.Timestamp)
	if err != nil {
		t.Fatalf("timestamp not RFC3339: %v", err)
	}
	if ts.Before(now.Add(-time.Second)) || ts.After(now.Add(time.Second)) {
		t.Fatalf("timestamp %v too far from %v", ts, now)
	}
}
