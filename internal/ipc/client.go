package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"whetstone/internal/api"
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

// Ping checks daemon liveness.
func (c *Client) Ping() error {
	var resp PingResponse
	return c.client.Call("Whetstone.Ping", PingRequest{}, &resp)
}

// Start requests the daemon to start accepting operations.
func (c *Client) Start() (*StartResponse, error) {
	var resp StartResponse
	if err := c.client.Call("Whetstone.Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop accepting operations.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Whetstone.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Whetstone.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refine rewrites a rough prompt through the daemon.
func (c *Client) Refine(prompt string) (*api.RefineOutcome, error) {
	var resp RefineResponse
	if err := c.client.Call("Whetstone.Refine", RefineRequest{Prompt: prompt}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error.AsError()
	}
	return &resp.Result, nil
}

// Score grades a prompt through the daemon.
func (c *Client) Score(prompt string) (*api.ScoreOutcome, error) {
	var resp ScoreResponse
	if err := c.client.Call("Whetstone.Score", ScoreRequest{Prompt: prompt}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error.AsError()
	}
	return &resp.Result, nil
}

// Classify labels a text's format through the daemon.
func (c *Client) Classify(text string) (*api.ClassifyOutcome, error) {
	var resp ClassifyResponse
	if err := c.client.Call("Whetstone.Classify", ClassifyRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error.AsError()
	}
	return &resp.Result, nil
}

// LogTail returns log lines from the daemon.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Whetstone.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
