package main

import (
	"bufio"
	"fmt"
	"net"
	"time"

	jsp "github.com/buger/jsonparser"
)

// query sends {"command": cmd} to socket and returns the raw JSON response
// line, following the mgmt endpoint's one-request/one-response-per-
// connection protocol.
func query(socket, cmd string) ([]byte, error) {
	conn, err := net.DialTimeout("unix", socket, 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", socket, err)
	}
	defer conn.Close()

	if _, err := fmt.Fprintf(conn, `{"command":"%s"}`+"\n", cmd); err != nil {
		return nil, fmt.Errorf("sending command: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return line, nil
}

// envelope pulls the {"status", "data"|"message"} envelope apart.
func envelope(resp []byte) (status string, data []byte, message string, err error) {
	status, err = jsp.GetString(resp, "status")
	if err != nil {
		return "", nil, "", fmt.Errorf("malformed response: %w", err)
	}

	if status != "success" {
		message, _ = jsp.GetString(resp, "message")
		return status, nil, message, nil
	}

	data, _, _, err = jsp.Get(resp, "data")
	if err != nil {
		return "", nil, "", fmt.Errorf("malformed success response: %w", err)
	}
	return status, data, "", nil
}
