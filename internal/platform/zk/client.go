// Package zk implements the UDP wire protocol spoken by ZK-series
// biometric terminals: command framing with a ones-complement checksum,
// session handshake, and the packed attendance record layout.
package zk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

const (
	cmdConnect       = 1000
	cmdExit          = 1001
	cmdEnableDevice  = 1002
	cmdDisableDevice = 1003
	cmdAckOK         = 2000
	cmdAckError      = 2001
	cmdAckData       = 2002
	cmdPrepareData   = 1500
	cmdData          = 1501
	cmdAttLogRead    = 13
)

const (
	headerSize     = 8
	recordSize     = 40
	maxPacketSize  = 4096
	userCodeOffset = 2
	userCodeLen    = 24
)

var ErrProtocol = errors.New("zk: protocol error")

// Record is one attendance event as stored on the terminal.
type Record struct {
	UserCode string
	At       time.Time
	Status   byte
	Verify   byte
}

type Client struct {
	addr    string
	timeout time.Duration
	loc     *time.Location

	conn      net.Conn
	sessionID uint16
	replyID   uint16
}

// Dial opens a UDP socket to the terminal. No packets are exchanged until
// Connect.
func Dial(addr string, port int, timeout time.Duration, loc *time.Location) (*Client, error) {
	target := fmt.Sprintf("%s:%d", addr, port)
	conn, err := net.DialTimeout("udp", target, timeout)
	if err != nil {
		return nil, err
	}
	return &Client{addr: target, timeout: timeout, loc: loc, conn: conn}, nil
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Connect performs the session handshake.
func (c *Client) Connect() error {
	reply, _, err := c.roundTrip(cmdConnect, nil)
	if err != nil {
		return err
	}
	if reply.command != cmdAckOK {
		return fmt.Errorf("%w: connect refused (cmd %d)", ErrProtocol, reply.command)
	}
	c.sessionID = reply.sessionID
	return nil
}

// Disconnect ends the session. The socket stays usable for a later Connect.
func (c *Client) Disconnect() error {
	reply, _, err := c.roundTrip(cmdExit, nil)
	if err != nil {
		return err
	}
	if reply.command != cmdAckOK {
		return fmt.Errorf("%w: exit refused (cmd %d)", ErrProtocol, reply.command)
	}
	c.sessionID = 0
	c.replyID = 0
	return nil
}

// DisableDevice locks the terminal keypad and sensor so a log read sees a
// stable snapshot.
func (c *Client) DisableDevice() error {
	return c.simpleCommand(cmdDisableDevice)
}

func (c *Client) EnableDevice() error {
	return c.simpleCommand(cmdEnableDevice)
}

// ReadAttendanceLogs pulls the full attendance log. The terminal answers
// with a prepare-data frame carrying the total size, then data frames,
// then an ack.
func (c *Client) ReadAttendanceLogs() ([]Record, error) {
	reply, payload, err := c.roundTrip(cmdAttLogRead, nil)
	if err != nil {
		return nil, err
	}

	var raw []byte
	switch reply.command {
	case cmdAckData:
		raw = payload
	case cmdPrepareData:
		if len(payload) < 4 {
			return nil, fmt.Errorf("%w: short prepare-data frame", ErrProtocol)
		}
		total := binary.LittleEndian.Uint32(payload[:4])
		raw, err = c.readData(int(total))
		if err != nil {
			return nil, err
		}
	case cmdAckOK:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unexpected reply %d to attlog read", ErrProtocol, reply.command)
	}

	return c.parseRecords(raw)
}

func (c *Client) readData(total int) ([]byte, error) {
	buf := make([]byte, 0, total)
	for len(buf) < total {
		reply, payload, err := c.receive()
		if err != nil {
			return nil, err
		}
		switch reply.command {
		case cmdData:
			buf = append(buf, payload...)
		case cmdAckOK:
			return buf, nil
		default:
			return nil, fmt.Errorf("%w: unexpected frame %d during data transfer", ErrProtocol, reply.command)
		}
	}
	return buf, nil
}

func (c *Client) parseRecords(raw []byte) ([]Record, error) {
	records := make([]Record, 0, len(raw)/recordSize)
	for off := 0; off+recordSize <= len(raw); off += recordSize {
		chunk := raw[off : off+recordSize]
		code := strings.TrimRight(string(chunk[userCodeOffset:userCodeOffset+userCodeLen]), "\x00 ")
		if code == "" {
			continue
		}
		stamp := binary.LittleEndian.Uint32(chunk[userCodeOffset+userCodeLen+2:])
		records = append(records, Record{
			UserCode: code,
			At:       decodeTime(stamp, c.loc),
			Verify:   chunk[userCodeOffset+userCodeLen],
			Status:   chunk[userCodeOffset+userCodeLen+1],
		})
	}
	return records, nil
}

// decodeTime unpacks the terminal's compact timestamp. The device counts
// seconds in a calendar where every month has 31 days.
func decodeTime(t uint32, loc *time.Location) time.Time {
	sec := int(t % 60)
	t /= 60
	min := int(t % 60)
	t /= 60
	hour := int(t % 24)
	t /= 24
	day := int(t%31) + 1
	t /= 31
	month := int(t%12) + 1
	t /= 12
	year := int(t) + 2000
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, loc)
}

type header struct {
	command   uint16
	checksum  uint16
	sessionID uint16
	replyID   uint16
}

func (c *Client) simpleCommand(command uint16) error {
	reply, _, err := c.roundTrip(command, nil)
	if err != nil {
		return err
	}
	if reply.command != cmdAckOK {
		return fmt.Errorf("%w: command %d refused (cmd %d)", ErrProtocol, command, reply.command)
	}
	return nil
}

func (c *Client) roundTrip(command uint16, payload []byte) (header, []byte, error) {
	if c.conn == nil {
		return header{}, nil, fmt.Errorf("%w: not connected", ErrProtocol)
	}
	c.replyID++
	packet := make([]byte, headerSize+len(payload))
	binary.LittleEndian.PutUint16(packet[0:], command)
	binary.LittleEndian.PutUint16(packet[4:], c.sessionID)
	binary.LittleEndian.PutUint16(packet[6:], c.replyID)
	copy(packet[headerSize:], payload)
	binary.LittleEndian.PutUint16(packet[2:], checksum(packet))

	if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return header{}, nil, err
	}
	if _, err := c.conn.Write(packet); err != nil {
		return header{}, nil, err
	}
	return c.receive()
}

func (c *Client) receive() (header, []byte, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return header{}, nil, err
	}
	buf := make([]byte, maxPacketSize)
	n, err := c.conn.Read(buf)
	if err != nil {
		return header{}, nil, err
	}
	if n < headerSize {
		return header{}, nil, fmt.Errorf("%w: short frame (%d bytes)", ErrProtocol, n)
	}
	h := header{
		command:   binary.LittleEndian.Uint16(buf[0:]),
		checksum:  binary.LittleEndian.Uint16(buf[2:]),
		sessionID: binary.LittleEndian.Uint16(buf[4:]),
		replyID:   binary.LittleEndian.Uint16(buf[6:]),
	}
	return h, buf[headerSize:n], nil
}

// checksum is the ones-complement sum of the packet as 16-bit words, with
// the checksum field itself zeroed.
func checksum(packet []byte) uint16 {
	var sum uint32
	for i := 0; i+1 < len(packet); i += 2 {
		if i == 2 {
			continue
		}
		sum += uint32(binary.LittleEndian.Uint16(packet[i:]))
	}
	if len(packet)%2 == 1 {
		sum += uint32(packet[len(packet)-1])
	}
	for sum > 0xffff {
		sum = (sum & 0xffff) + (sum >> 16)
	}
	return uint16(^sum & 0xffff)
}
