package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Prodflow.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Create adds a new intake request.
func (c *Client) Create(req CreateRequestRequest) (*CreateRequestResponse, error) {
	var resp CreateRequestResponse
	if err := c.client.Call("Prodflow.Create", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns requests optionally filtered by stages.
func (c *Client) List(stages []string) (*ListResponse, error) {
	var resp ListResponse
	if err := c.client.Call("Prodflow.List", ListRequest{Stages: stages}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Describe returns details for a single request.
func (c *Client) Describe(id int64) (*DescribeResponse, error) {
	var resp DescribeResponse
	if err := c.client.Call("Prodflow.Describe", DescribeRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History returns the audit trail for a request.
func (c *Client) History(id int64) (*HistoryResponse, error) {
	var resp HistoryResponse
	if err := c.client.Call("Prodflow.History", HistoryRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Mutate applies a partial field update.
func (c *Client) Mutate(req MutateRequest) (*MutateResponse, error) {
	var resp MutateResponse
	if err := c.client.Call("Prodflow.Mutate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Advance drives a stage transition.
func (c *Client) Advance(req AdvanceRequest) (*AdvanceResponse, error) {
	var resp AdvanceResponse
	if err := c.client.Call("Prodflow.Advance", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Deadlines returns requests inside the alert window.
func (c *Client) Deadlines() (*DeadlinesResponse, error) {
	var resp DeadlinesResponse
	if err := c.client.Call("Prodflow.Deadlines", DeadlinesRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Prodflow.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
