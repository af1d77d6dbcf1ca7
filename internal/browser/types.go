package browser

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Errors
var (
	ErrClosed   = errors.New("browser session closed")
	ErrTimeout  = errors.New("browser operation timeout")
	ErrNotFound = errors.New("element not found")
)

// CDPError is an error object returned by the DevTools endpoint.
type CDPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func (e *CDPError) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("cdp error %d: %s (%s)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("cdp error %d: %s", e.Code, e.Message)
}

// request is a CDP command.
type request struct {
	ID     int64  `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// message is anything read from the socket: a command response (ID set) or
// an event (Method set).
type message struct {
	ID     int64           `json:"id,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *CDPError       `json:"error,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
}

// evaluateResult is the result of Runtime.evaluate.
type evaluateResult struct {
	Result struct {
		Type        string          `json:"type"`
		Value       json.RawMessage `json:"value,omitempty"`
		Description string          `json:"description,omitempty"`
	} `json:"result"`
	ExceptionDetails *struct {
		Text      string `json:"text"`
		Exception *struct {
			Description string `json:"description"`
		} `json:"exception,omitempty"`
	} `json:"exceptionDetails,omitempty"`
}

// navigateResult is the result of Page.navigate.
type navigateResult struct {
	FrameID   string `json:"frameId"`
	ErrorText string `json:"errorText,omitempty"`
}

// target is one entry of the /json/list discovery endpoint.
type target struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// SessionConfig configures a DevTools session.
type SessionConfig struct {
	URL          string        // Page target websocket URL
	PingInterval time.Duration // Keepalive ping period
	WriteTimeout time.Duration // Write deadline for commands and pings
}

// DefaultSessionConfig returns sensible defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		PingInterval: 30 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}
