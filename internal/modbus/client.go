package modbus

import (
	"fmt"
	"sync"
	"time"

	"github.com/simonvetter/modbus"
)

// Client wraps a Modbus TCP connection to an inverter. All reads go
// through a single mutex because the underlying client is not safe
// for concurrent use.
type Client struct {
	mu      sync.Mutex
	conn    *modbus.ModbusClient
	addr    string
	slaveID uint8
	timeout time.Duration
}

func NewClient(host string, port int, slaveID uint8, timeout time.Duration) *Client {
	return &Client{
		addr:    fmt.Sprintf("tcp://%s:%d", host, port),
		slaveID: slaveID,
		timeout: timeout,
	}
}

func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	conn, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     c.addr,
		Timeout: c.timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create modbus client: %w", err)
	}

	if err := conn.Open(); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.addr, err)
	}

	conn.SetUnitId(c.slaveID)
	c.conn = conn
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *Client) Reconnect() error {
	c.Close()
	return c.Connect()
}

func (c *Client) readInput(address uint16, quantity uint16) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, fmt.Errorf("client not connected")
	}

	regs, err := c.conn.ReadRegisters(address, quantity, modbus.INPUT_REGISTER)
	if err != nil {
		return nil, fmt.Errorf("failed to read registers at %d: %w", address, err)
	}
	return regs, nil
}

func (c *Client) ReadU16(address uint16) (uint16, error) {
	regs, err := c.readInput(address, 1)
	if err != nil {
		return 0, err
	}
	return regs[0], nil
}

func (c *Client) ReadS16(address uint16) (int16, error) {
	v, err := c.ReadU16(address)
	if err != nil {
		return 0, err
	}
	return int16(v), nil
}

// ReadU32 reads two consecutive registers, low word first.
func (c *Client) ReadU32(address uint16) (uint32, error) {
	regs, err := c.readInput(address, 2)
	if err != nil {
		return 0, err
	}
	return uint32(regs[0]) | uint32(regs[1])<<16, nil
}

func (c *Client) ReadString(address uint16, length uint16) (string, error) {
	regs, err := c.readInput(address, length)
	if err != nil {
		return "", err
	}

	buf := make([]byte, 0, length*2)
	for _, reg := range regs {
		buf = append(buf, byte(reg>>8), byte(reg&0xFF))
	}
	for len(buf) > 0 && buf[len(buf)-1] == 0 {
		buf = buf[:len(buf)-1]
	}
	return string(buf), nil
}
