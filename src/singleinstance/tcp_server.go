package singleinstance

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"
)

const (
	residentHost = "127.0.0.1"
	pingRequest  = "PING\n"
	pongResponse = "PONG\n"
	okResponse   = "OK\n"
)

type tcpServer struct {
	lis      net.Listener
	requests chan Request
	port     int
	once     sync.Once
}

func newTcpServer() *tcpServer { return &tcpServer{requests: make(chan Request, 8)} }

func (s *tcpServer) Start(ctx context.Context) error {
	if s.lis != nil {
		return nil
	}
	start, _ := getPortRange()
	addr := fmt.Sprintf("%s:%d", residentHost, start)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Printf("singleinstance: failed to bind %s: %v", addr, err)
		return err
	}
	s.lis = lis
	s.port = start
	log.Printf("singleinstance: listening on %s", addr)
	go s.acceptLoop(ctx, lis)
	return nil
}

func (s *tcpServer) Port() int { return s.port }

func (s *tcpServer) Requests() <-chan Request { return s.requests }

func (s *tcpServer) acceptLoop(ctx context.Context, lis net.Listener) {
	defer s.once.Do(func() { close(s.requests) })
	for {
		c, err := lis.Accept()
		if err != nil {
			return
		}
		if !s.serve(ctx, c) {
			return
		}
	}
}

// serve answers one connection. It returns false once ctx is done.
func (s *tcpServer) serve(ctx context.Context, c net.Conn) bool {
	defer c.Close()
	_ = c.SetDeadline(time.Now().Add(3 * time.Second))
	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		return true
	}
	if line == pingRequest {
		_, _ = c.Write([]byte(pongResponse))
		return true
	}

	req, err := parseRequest(line)
	if err != nil {
		log.Printf("singleinstance: %v", err)
		_, _ = c.Write([]byte("ERROR\n" + err.Error()))
		return true
	}
	log.Printf("singleinstance: %s request from %s", req.Action, c.RemoteAddr())
	select {
	case s.requests <- req:
		_, _ = c.Write([]byte(okResponse))
		return true
	case <-ctx.Done():
		_, _ = c.Write([]byte("ERROR\nresident is shutting down"))
		return false
	}
}

func parseRequest(line string) (Request, error) {
	line = strings.TrimSuffix(line, "\n")
	action, path, _ := strings.Cut(line, " ")
	switch Action(action) {
	case ActionShow:
		return Request{Action: ActionShow}, nil
	case ActionOpen:
		if path == "" {
			return Request{}, fmt.Errorf("OPEN without a path")
		}
		return Request{Action: ActionOpen, Path: path}, nil
	}
	return Request{}, fmt.Errorf("unknown request %q", action)
}

func (s *tcpServer) Close() error {
	if s.lis != nil {
		err := s.lis.Close()
		s.lis = nil
		return err
	}
	s.once.Do(func() { close(s.requests) })
	return nil
}
