// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 OpenVESC contributors

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"

	"github.com/openvesc/vescli/pkg/vesclient"
)

// Connection provides a common interface for reading/writing bytes over TCP,
// serial, or WebSocket. It doubles as a vesclient.Transport so the same
// connection can drive both raw monitoring and request/response transactions.
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
	Send(p []byte) error
	Receive(timeout time.Duration) ([]byte, error)
}

// ErrConnectionClosed is returned when reading from a closed WebSocket connection
var ErrConnectionClosed = fmt.Errorf("websocket connection closed")

// TCPConnection wraps a TCP socket
type TCPConnection struct {
	conn net.Conn
}

func (t *TCPConnection) Read(p []byte) (int, error) {
	return t.conn.Read(p)
}

func (t *TCPConnection) Write(p []byte) (int, error) {
	return t.conn.Write(p)
}

func (t *TCPConnection) Send(p []byte) error {
	_, err := t.conn.Write(p)
	return err
}

func (t *TCPConnection) Receive(timeout time.Duration) ([]byte, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	buf := make([]byte, 512)
	n, err := t.conn.Read(buf)
	if err != nil {
		// A deadline expiry just means no data this slice
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, nil
		}
		return nil, err
	}
	return buf[:n], nil
}

func (t *TCPConnection) Close() error {
	return t.conn.Close()
}

// SerialConnection wraps a serial port
type SerialConnection struct {
	port serial.Port
}

func (s *SerialConnection) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *SerialConnection) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialConnection) Send(p []byte) error {
	for len(p) > 0 {
		n, err := s.port.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

func (s *SerialConnection) Receive(timeout time.Duration) ([]byte, error) {
	if err := s.port.SetReadTimeout(timeout); err != nil {
		return nil, err
	}
	buf := make([]byte, 512)
	n, err := s.port.Read(buf)
	if err != nil {
		return nil, err
	}
	// n == 0 with a nil error means the read timed out
	return buf[:n], nil
}

func (s *SerialConnection) Close() error {
	return s.port.Close()
}

// WebSocketConnection wraps a WebSocket connection for byte-level access.
//
// gorilla/websocket poisons a connection once a read deadline expires, so
// reads run on a dedicated goroutine pumping messages into a channel and
// Receive selects against a timer instead of touching deadlines.
type WebSocketConnection struct {
	conn      *websocket.Conn
	messages  chan []byte
	readErr   error
	buf       []byte
	bufOffset int
	closed    bool
}

func newWebSocketConnection(conn *websocket.Conn) *WebSocketConnection {
	w := &WebSocketConnection{
		conn:     conn,
		messages: make(chan []byte, 16),
	}
	go w.readLoop()
	return w
}

func (w *WebSocketConnection) readLoop() {
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.readErr = err
			close(w.messages)
			return
		}
		// Only binary messages carry protocol bytes
		if messageType != websocket.BinaryMessage {
			continue
		}
		w.messages <- data
	}
}

func (w *WebSocketConnection) Read(p []byte) (int, error) {
	if w.closed {
		return 0, ErrConnectionClosed
	}

	// Drain buffered data first
	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}

	data, ok := <-w.messages
	if !ok {
		w.closed = true
		return 0, w.readErr
	}

	w.buf = data
	w.bufOffset = copy(p, data)
	return w.bufOffset, nil
}

func (w *WebSocketConnection) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocketConnection) Send(p []byte) error {
	return w.conn.WriteMessage(websocket.BinaryMessage, p)
}

func (w *WebSocketConnection) Receive(timeout time.Duration) ([]byte, error) {
	if w.closed {
		return nil, ErrConnectionClosed
	}

	// Buffered leftovers from a Read call take priority
	if w.bufOffset < len(w.buf) {
		data := w.buf[w.bufOffset:]
		w.bufOffset = len(w.buf)
		return data, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case data, ok := <-w.messages:
		if !ok {
			w.closed = true
			return nil, w.readErr
		}
		return data, nil
	case <-timer.C:
		return nil, nil
	}
}

func (w *WebSocketConnection) Close() error {
	return w.conn.Close()
}

// OpenTCPConnection opens a TCP connection to the device
func OpenTCPConnection(host string, port int) (Connection, error) {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %v", addr, err)
	}
	return &TCPConnection{conn: conn}, nil
}

// OpenSerialConnection opens a serial port connection
func OpenSerialConnection(portName string, baudRate int) (Connection, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %v", portName, err)
	}

	return &SerialConnection{port: port}, nil
}

// OpenWebSocketConnection opens a WebSocket connection with HTTP Basic auth
func OpenWebSocketConnection(wsURL, username, password string, skipSSLVerify bool) (Connection, error) {
	u, err := url.Parse(wsURL)
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

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %v", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %v", err)
	}

	return newWebSocketConnection(conn), nil
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv("VESC_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenConnection opens a connection based on the global flags. WebSocket
// takes precedence over serial, serial over TCP.
func OpenConnection() (Connection, string, error) {
	if wsURL != "" {
		password := ""
		if wsUsername != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		conn, err := OpenWebSocketConnection(wsURL, wsUsername, password, wsNoSSLVerify)
		if err != nil {
			return nil, "", err
		}

		return conn, fmt.Sprintf("WebSocket: %s", wsURL), nil
	}

	if portName != "" {
		conn, err := OpenSerialConnection(portName, baudRate)
		if err != nil {
			return nil, "", err
		}

		return conn, fmt.Sprintf("Serial: %s @ %d baud", portName, baudRate), nil
	}

	if tcpHost != "" {
		conn, err := OpenTCPConnection(tcpHost, tcpPort)
		if err != nil {
			return nil, "", err
		}

		return conn, fmt.Sprintf("TCP: %s:%d", tcpHost, tcpPort), nil
	}

	return nil, "", fmt.Errorf("one of --host, --port, or --url must be specified")
}

// NewDialer returns a dialer that re-opens a connection with the same flags,
// used for post-update reconnection.
func NewDialer() vesclient.Dialer {
	return func() (vesclient.Transport, error) {
		conn, _, err := OpenConnection()
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}
