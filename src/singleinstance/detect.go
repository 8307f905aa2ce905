package singleinstance

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"time"
)

const probeTimeout = 300 * time.Millisecond

// DetectResidentPort walks the port range and returns the first port whose
// listener answers PING with PONG. It gives up when ctx is done.
func DetectResidentPort(ctx context.Context) (int, bool) {
	start, end := getPortRange()
	for port := start; port <= end; port++ {
		if ctx.Err() != nil {
			return 0, false
		}
		if probe(ctx, net.JoinHostPort(residentHost, strconv.Itoa(port))) {
			return port, true
		}
	}
	return 0, false
}

// probe reports whether addr is a resident instance. Each probe is bounded by
// probeTimeout or the ctx deadline, whichever is sooner.
func probe(ctx context.Context, addr string) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false
	}
	defer conn.Close()
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	if _, err := conn.Write([]byte(pingRequest)); err != nil {
		return false
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	return err == nil && resp == pongResponse
}
