package db

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// NewNATSConnection connects to NATS, reconnecting forever once connected.
func NewNATSConnection(url string, timeout time.Duration) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("board-service"),
		nats.Timeout(timeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
		nats.RetryOnFailedConnect(true),
	)
	if err != nil {
		return nil, fmt.Errorf("nats.Connect: %w", err)
	}
	return nc, nil
}
