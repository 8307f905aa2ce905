package singleinstance

// This file defines the API for single-instance ownership and delegation to
// the resident process.

import (
	"context"
	"fmt"
	"strings"
)

// Command is a one-line request sent to the resident instance.
type Command string

const (
	// CommandShow asks the resident instance to bring up its control panel.
	CommandShow Command = "SHOW"
)

func ParseCommand(line string) (Command, error) {
	switch c := Command(strings.ToUpper(strings.TrimSpace(line))); c {
	case CommandShow:
		return c, nil
	default:
		return "", fmt.Errorf("unknown command %q", strings.TrimSpace(line))
	}
}

// Server owns the TCP endpoint and answers requests from later launches.
type Server interface {
	// Start listens on the first free port in the configured range.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted request as a Conn, or ctx error.
	Next(ctx context.Context) (Conn, error)
	// Close releases ownership and stops accepting clients.
	Close() error
}

// Conn represents one client request awaiting a response.
type Conn interface {
	Command() Command
	RespondOK() error
	RespondError(msg string) error
	Close() error
}

// Client delegates a command to a resident instance.
type Client interface {
	// Send scans the port range for a resident and delivers cmd. If no
	// resident is found, returns delegated=false, err=nil.
	Send(ctx context.Context, cmd Command) (delegated bool, err error)
}

// NewServer returns TCP implementation.
func NewServer() Server { return newTcpServer() }

// NewClient returns TCP implementation.
func NewClient() Client { return newTcpClient() }
