// ABOUTME: Conversion service message type definitions
// ABOUTME: Defines JSON messages exchanged over the WebSocket conversion endpoint
package protocol

import (
	"encoding/json"
	"fmt"
)

const (
	// Version of the conversion protocol
	Version = 1

	// Path is the WebSocket endpoint
	Path = "/convert"

	// ServiceType is the mDNS service type servers advertise
	ServiceType = "_umxconv._tcp"
)

// Message types
const (
	TypeServerHello    = "server/hello"
	TypeConvertRequest = "convert/request"
	TypeConvertResult  = "convert/result"
	TypeConvertError   = "convert/error"
)

// Error kinds reported in ConvertError
const (
	KindMissingInput      = "missing_input"
	KindUnsupportedFormat = "unsupported_format"
	KindDecode            = "decode"
	KindInvalidConfig     = "invalid_config"
	KindSecureRandom      = "secure_random_unavailable"
	KindOverflow          = "domain_overflow"
	KindTooManyChannels   = "too_many_channels"
	KindProtocol          = "protocol"
	KindInternal          = "internal"
)

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ServerHello is sent by the server when a connection opens
type ServerHello struct {
	ServerID      string `json:"server_id"`
	Name          string `json:"name"`
	Version       int    `json:"version"`
	MaxInputBytes int64  `json:"max_input_bytes"`
}

// ConvertRequest announces the binary audio message that follows it.
// Omitted fields take the converter defaults.
type ConvertRequest struct {
	RequestID     string `json:"request_id,omitempty"`
	Format        string `json:"format,omitempty"`      // "it" or "umx"
	BitDepth      int    `json:"bit_depth,omitempty"`   // 8 or 16
	SampleRate    int    `json:"sample_rate,omitempty"` // Hz
	Stereo        *bool  `json:"stereo,omitempty"`
	ExtraChannels *int   `json:"extra_channels,omitempty"`
	Name          string `json:"name,omitempty"`
}

// ConvertResult announces the binary output message that follows it
type ConvertResult struct {
	RequestID string  `json:"request_id"`
	Filename  string  `json:"filename"`
	Size      int     `json:"size"`
	Duration  float64 `json:"duration"`
}

// ConvertError reports a failed conversion; no binary message follows
type ConvertError struct {
	RequestID string `json:"request_id"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
}

// Error implements error so clients can return it directly
func (e *ConvertError) Error() string {
	return fmt.Sprintf("conversion failed (%s): %s", e.Kind, e.Message)
}

// Parse decodes a message and its payload. The payload type is chosen by
// the message type; unknown types are an error.
func Parse(data []byte) (string, interface{}, error) {
	var raw struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", nil, fmt.Errorf("failed to parse message: %w", err)
	}

	var payload interface{}
	switch raw.Type {
	case TypeServerHello:
		payload = &ServerHello{}
	case TypeConvertRequest:
		payload = &ConvertRequest{}
	case TypeConvertResult:
		payload = &ConvertResult{}
	case TypeConvertError:
		payload = &ConvertError{}
	default:
		return raw.Type, nil, fmt.Errorf("unknown message type: %s", raw.Type)
	}

	if len(raw.Payload) > 0 {
		if err := json.Unmarshal(raw.Payload, payload); err != nil {
			return raw.Type, nil, fmt.Errorf("failed to parse %s payload: %w", raw.Type, err)
		}
	}
	return raw.Type, payload, nil
}
