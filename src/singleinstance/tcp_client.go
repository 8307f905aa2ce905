package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"
)

type tcpClient struct{}

func newTcpClient() Client { return &tcpClient{} }

func (c *tcpClient) Send(ctx context.Context, cmd Command) (bool, error) {
	deadline := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			deadline = d
		}
	}
	port, ok := DetectResidentPort(ctx)
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

	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(string(cmd) + "\n"); err != nil {
		return true, err
	}
	if err := w.Flush(); err != nil {
		return true, err
	}
	status, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return true, err
	}
	if status == okResponse {
		return true, nil
	}
	if strings.HasPrefix(status, errorPrefix) {
		return true, errors.New(strings.TrimSpace(strings.TrimPrefix(status, errorPrefix)))
	}
	return true, errors.New("unexpected response: " + strings.TrimSpace(status))
}
