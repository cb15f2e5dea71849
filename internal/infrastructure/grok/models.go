package grok

import (
	"errors"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Sender is Grok's numeric author code for a turn
type Sender int

const (
	SenderUnknown   Sender = 0
	SenderUser      Sender = 1
	SenderAssistant Sender = 2
)

// Model option ids understood by Grok
const ModelGrok3 = "grok-3"

// Credentials are the two secrets a client passes through to Grok
type Credentials struct {
	Bearer    string
	AuthToken string
}

// Turn is one transcript entry in a Grok request
type Turn struct {
	Message         string   `json:"message"`
	Sender          Sender   `json:"sender"`
	FileAttachments []string `json:"fileAttachments"`
}

// Request is the body of an add_response call
type Request struct {
	Responses         []Turn `json:"responses"`
	GrokModelOptionID string `json:"grokModelOptionId"`
	IsDeepsearch      bool   `json:"isDeepsearch"`
	IsReasoning       bool   `json:"isReasoning"`
}

var ErrMalformedLine = errors.New("malformed grok stream line")

// Result is the part of a streamed record the proxy cares about
type Result struct {
	// HasSender is set when the record carries an author and a message fragment
	HasSender  bool
	Sender     Sender
	Message    string
	IsThinking bool
	IsSoftStop bool
}

// ParseLine decodes one newline-delimited record of the Grok stream. Records
// without a result object decode to a zero Result.
func ParseLine(line []byte) (Result, error) {
	if !gjson.ValidBytes(line) {
		return Result{}, ErrMalformedLine
	}

	res := gjson.GetBytes(line, "result")
	if !res.IsObject() {
		return Result{}, nil
	}

	var r Result
	if sender := res.Get("sender"); sender.Exists() {
		r.HasSender = true
		r.Sender = parseSender(sender)
		r.Message = res.Get("message").String()
		r.IsThinking = res.Get("isThinking").Bool()
	}
	r.IsSoftStop = res.Get("isSoftStop").Type == gjson.True
	return r, nil
}

// parseSender accepts both the numeric codes and the older textual names
func parseSender(v gjson.Result) Sender {
	switch v.Type {
	case gjson.Number:
		return Sender(v.Int())
	case gjson.String:
		s := strings.ToUpper(strings.TrimSpace(v.Str))
		switch s {
		case "USER", "HUMAN":
			return SenderUser
		case "ASSISTANT":
			return SenderAssistant
		}
		if n, err := strconv.Atoi(s); err == nil {
			return Sender(n)
		}
	}
	return SenderUnknown
}
