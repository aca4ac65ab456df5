package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

type tcpClient struct{}

func newTcpClient() Client { return &tcpClient{} }

func (c *tcpClient) Delegate(ctx context.Context, req Request) (bool, error) {
	deadline := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			deadline = d
		}
	}
	port, ok := detectResidentPort(deadline)
	if !ok {
		return false, nil
	}
	addr := net.JoinHostPort(residentHost, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, deadline)
	if err != nil {
		return false, nil
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(deadline))

	line := string(req.Action)
	if req.Path != "" {
		line += " " + req.Path
	}
	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		return true, err
	}
	br := bufio.NewReader(conn)
	status, err := br.ReadString('\n')
	if err != nil {
		return true, err
	}
	switch status {
	case okResponse:
		return true, nil
	case "ERROR\n":
		msg, _ := io.ReadAll(br)
		return true, errors.New(strings.TrimSpace(string(msg)))
	}
	return true, errors.New("unexpected response " + strconv.Quote(status))
}

// detectResidentPort scans the port range and returns the first port whose
// listener answers PING.
func detectResidentPort(timeout time.Duration) (int, bool) {
	if timeout > 300*time.Millisecond {
		timeout = 300 * time.Millisecond
	}
	start, end := getPortRange()
	for port := start; port <= end; port++ {
		if ping(net.JoinHostPort(residentHost, strconv.Itoa(port)), timeout) {
			return port, true
		}
	}
	return 0, false
}

func ping(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))
	if _, err := conn.Write([]byte(pingRequest)); err != nil {
		return false
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	return err == nil && resp == pongResponse
}
