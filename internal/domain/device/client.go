package device

import (
	"context"
	"time"

	"timeclock/internal/platform/zk"
)

// RawRecord is a vendor attendance record normalized by the adapter.
type RawRecord struct {
	UserCode string
	At       time.Time
	Status   byte
	Verify   byte
}

// Client is the per-terminal adapter. Probe must be cheap and bounded;
// FetchAll must leave the terminal input enabled on every exit path.
type Client interface {
	Probe(ctx context.Context) error
	FetchAll(ctx context.Context) ([]RawRecord, error)
}

// Dialer builds a Client for one terminal. Tests substitute fakes here.
type Dialer func(address string, port int) Client

// NewZKDialer returns a Dialer backed by the vendor wire protocol.
func NewZKDialer(timeout time.Duration, loc *time.Location) Dialer {
	return func(address string, port int) Client {
		return &zkClient{address: address, port: port, timeout: timeout, loc: loc}
	}
}

type zkClient struct {
	address string
	port    int
	timeout time.Duration
	loc     *time.Location
}

func (c *zkClient) Probe(ctx context.Context) error {
	client, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Connect(); err != nil {
		return err
	}
	return client.Disconnect()
}

func (c *zkClient) FetchAll(ctx context.Context) ([]RawRecord, error) {
	client, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if err := client.Connect(); err != nil {
		return nil, err
	}
	defer func() { _ = client.Disconnect() }()

	if err := client.DisableDevice(); err != nil {
		return nil, err
	}
	// Input must come back no matter how the read ends.
	defer func() { _ = client.EnableDevice() }()

	records, err := client.ReadAttendanceLogs()
	if err != nil {
		return nil, err
	}

	out := make([]RawRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, RawRecord{
			UserCode: rec.UserCode,
			At:       rec.At,
			Status:   rec.Status,
			Verify:   rec.Verify,
		})
	}
	return out, nil
}

func (c *zkClient) dial(ctx context.Context) (*zk.Client, error) {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	return zk.Dial(c.address, c.port, timeout, c.loc)
}
