// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Seafoam Labs

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/term"

	"github.com/seafoam-labs/corsair/pkg/bitbang"
)

// ErrConnectionClosed is returned when reading from a closed WebSocket connection
var ErrConnectionClosed = fmt.Errorf("websocket connection closed")

// WebSocketTransport adapts a WebSocket bridge (a remote host exposing the
// probe's serial port as binary messages) to the bitbang.Transport
// interface. Read deadlines emulate serial read timeouts; FlushInput can
// only drop bytes already delivered to this side of the bridge.
type WebSocketTransport struct {
	conn      *websocket.Conn
	buf       []byte
	bufOffset int
	timeout   time.Duration
	closed    bool
}

func (w *WebSocketTransport) Write(p []byte) error {
	return w.conn.WriteMessage(websocket.BinaryMessage, p)
}

func (w *WebSocketTransport) Read(n int) ([]byte, error) {
	out := make([]byte, 0, n)

	for len(out) < n {
		// Serve buffered bridge data first
		if w.bufOffset < len(w.buf) {
			take := len(w.buf) - w.bufOffset
			if take > n-len(out) {
				take = n - len(out)
			}
			out = append(out, w.buf[w.bufOffset:w.bufOffset+take]...)
			w.bufOffset += take
			continue
		}

		if w.closed {
			if len(out) > 0 {
				return out, nil
			}
			return nil, ErrConnectionClosed
		}

		if err := w.conn.SetReadDeadline(time.Now().Add(w.timeout)); err != nil {
			return out, err
		}

		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				// Deadline expired: behave like a timed-out serial read.
				return out, nil
			}
			w.closed = true
			return out, err
		}

		// Only binary messages carry probe bytes
		if messageType != websocket.BinaryMessage {
			continue
		}

		w.buf = data
		w.bufOffset = 0
	}

	return out, nil
}

func (w *WebSocketTransport) SetTimeout(d time.Duration) error {
	w.timeout = d
	return nil
}

func (w *WebSocketTransport) FlushInput() error {
	w.buf = nil
	w.bufOffset = 0
	return nil
}

func (w *WebSocketTransport) Close() error {
	return w.conn.Close()
}

// OpenWebSocketTransport opens a WebSocket bridge connection with HTTP Basic auth
func OpenWebSocketTransport(bridgeURL, username, password string, skipSSLVerify bool) (*WebSocketTransport, error) {
	u, err := url.Parse(bridgeURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	switch u.Scheme {
	case "ws", "wss":
		// OK
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, bridgeURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %v", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %v", err)
	}

	return &WebSocketTransport{conn: conn, timeout: time.Second}, nil
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	// First check environment variable
	if pw := os.Getenv("CORSAIR_PASSWORD"); pw != "" {
		return pw, nil
	}

	// Prompt user for password (hide input)
	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr) // newline after password
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr) // newline after password
	return string(passwordBytes), nil
}

// OpenTransport opens either a serial or WebSocket transport based on flags
func OpenTransport() (bitbang.Transport, string, error) {
	if wsURL != "" {
		// WebSocket bridge mode
		password := ""
		if wsUsername != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		t, err := OpenWebSocketTransport(wsURL, wsUsername, password, wsNoSSLVerify)
		if err != nil {
			return nil, "", err
		}

		return t, fmt.Sprintf("WebSocket: %s", wsURL), nil
	}

	if portName != "" {
		// Serial mode
		t, err := bitbang.OpenSerial(portName, baudRate)
		if err != nil {
			return nil, "", err
		}

		return t, fmt.Sprintf("Serial: %s @ %d baud", portName, baudRate), nil
	}

	return nil, "", fmt.Errorf("either --port or --url must be specified")
}

// OpenSession opens a transport and performs the bitbang handshake.
// The caller owns the returned session's transport and must Close it.
func OpenSession() (*bitbang.Session, bitbang.Transport, string, error) {
	t, connInfo, err := OpenTransport()
	if err != nil {
		return nil, nil, "", err
	}

	session := bitbang.New(t, bitbang.WithMinDelay(minDelay()))
	if err := session.Enter(); err != nil {
		t.Close()
		return nil, nil, "", fmt.Errorf("bitbang handshake failed: %w", err)
	}

	return session, t, connInfo, nil
}
