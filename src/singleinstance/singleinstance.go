// Package singleinstance keeps one GUI per user. A second launch hands its
// request (raise the window, open a PDF) to the running one over loopback TCP.
package singleinstance

import (
	"context"
)

// Action is what a second launch asks the resident to do.
type Action string

const (
	ActionShow Action = "SHOW"
	ActionOpen Action = "OPEN"
)

// Request is one delegated launch. Path is set for ActionOpen.
type Request struct {
	Action Action
	Path   string
}

// Server owns the TCP endpoint and hands delegated launches to the GUI.
type Server interface {
	// Start binds the first port of the configured range; it fails when a
	// resident already holds it.
	Start(ctx context.Context) error
	Port() int
	// Requests delivers delegated launches until the server is closed.
	Requests() <-chan Request
	Close() error
}

// Client delegates a launch to a resident.
type Client interface {
	// Delegate returns delegated=false, err=nil when no resident answers.
	Delegate(ctx context.Context, req Request) (delegated bool, err error)
}

func NewServer() Server { return newTcpServer() }

func NewClient() Client { return newTcpClient() }
