package discord

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Interaction types (inbound "type" field).
const (
	InteractionPing               = 1
	InteractionApplicationCommand = 2
)

// Response types (outbound "type" field).
const (
	ResponsePong           = 1
	ResponseChannelMessage = 4
)

// Application command option types (the subset this bot declares).
const (
	OptionString  = 3
	OptionInteger = 4
	OptionBoolean = 5
)

// Kind classifies a parsed interaction for routing.
type Kind int

const (
	KindPing Kind = iota
	KindCommand
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindPing:
		return "ping"
	case KindCommand:
		return "command"
	default:
		return "other"
	}
}

// Interaction is the inbound webhook payload. Unknown fields are ignored:
// the platform sends far more than we consume.
type Interaction struct {
	Type      int              `json:"type"`
	Token     string           `json:"token"`
	Data      *InteractionData `json:"data,omitempty"`
	GuildID   string           `json:"guild_id,omitempty"`
	ChannelID string           `json:"channel_id,omitempty"`
}

type InteractionData struct {
	ID      string   `json:"id,omitempty"`
	Name    string   `json:"name"`
	Type    int      `json:"type,omitempty"`
	Options []Option `json:"options,omitempty"`
}

// Option is a loosely-typed name/type/value triple. Value stays raw until
// resolved against the declared option type.
type Option struct {
	Name  string          `json:"name"`
	Type  int             `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Kind returns the routing classification for the interaction.
func (i *Interaction) Kind() Kind {
	switch i.Type {
	case InteractionPing:
		return KindPing
	case InteractionApplicationCommand:
		return KindCommand
	default:
		return KindOther
	}
}

// CommandName returns the invoked command name, or "" for non-commands.
func (i *Interaction) CommandName() string {
	if i.Data == nil {
		return ""
	}
	return i.Data.Name
}

// StringOption resolves the named option as a string.
// A quoted JSON string is returned verbatim; any other scalar is stringified.
// Returns ("", false) when the option is absent or has no value.
func (i *Interaction) StringOption(name string) (string, bool) {
	raw, ok := i.option(name)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	// Integers and booleans arrive unquoted; stringify rather than reject.
	return string(bytes.TrimSpace(raw)), true
}

// BoolOption resolves the named option as a boolean, falling back to def
// when the option is absent or its value cannot be coerced. The platform is
// expected to send a JSON bool here, but a quoted "true"/"false" is accepted
// too so a malformed value never fails the whole interaction.
func (i *Interaction) BoolOption(name string, def bool) bool {
	raw, ok := i.option(name)
	if !ok {
		return def
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return v
		}
	}
	return def
}

// IntOption resolves the named option as an integer, with the same coercion
// policy as BoolOption.
func (i *Interaction) IntOption(name string, def int64) int64 {
	raw, ok := i.option(name)
	if !ok {
		return def
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return v
		}
	}
	return def
}

func (i *Interaction) option(name string) (json.RawMessage, bool) {
	if i.Data == nil {
		return nil, false
	}
	for _, opt := range i.Data.Options {
		if opt.Name == name && len(opt.Value) > 0 {
			return opt.Value, true
		}
	}
	return nil, false
}

// ErrBadPayload wraps interaction bodies that fail to decode.
type ErrBadPayload struct {
	cause error
}

func (e *ErrBadPayload) Error() string { return fmt.Sprintf("bad interaction payload: %v", e.cause) }
func (e *ErrBadPayload) Unwrap() error { return e.cause }

// Parse decodes a verified interaction body.
func Parse(body []byte) (*Interaction, error) {
	var in Interaction
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, &ErrBadPayload{cause: err}
	}
	return &in, nil
}

// Response is the synchronous webhook reply.
type Response struct {
	Type int           `json:"type"`
	Data *ResponseData `json:"data,omitempty"`
}

type ResponseData struct {
	Content string `json:"content"`
}

// Pong acknowledges a ping.
func Pong() Response { return Response{Type: ResponsePong} }

// Message builds an immediate textual reply.
func Message(content string) Response {
	return Response{Type: ResponseChannelMessage, Data: &ResponseData{Content: content}}
}
