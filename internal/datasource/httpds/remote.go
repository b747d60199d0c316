package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Remote is an HTTP-backed dataset source. Open performs a GET and hands the
// response body to the caller as the raw byte stream.
type Remote struct {
	client *Client
	url    string
}

// NewRemote binds a Remote source to url using client for transport.
func NewRemote(client *Client, url string) *Remote {
	return &Remote{client: client, url: url}
}

// Open fetches the dataset and returns the response body. Non-2xx statuses
// that survived the client's retry policy are reported as errors, with the
// body drained and closed.
func (r *Remote) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := r.client.Get(ctx, r.url, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("httpds: status %d from GET %s", resp.StatusCode, r.url)
	}
	return resp.Body, nil
}

// FetchFirstBytes retrieves up to n bytes from url. It sends a Range header
// as an optimization and caps the read client-side so the limit holds even
// when the server ignores Range. Used for sampling remote datasets before a
// full download.
func (c *Client) FetchFirstBytes(ctx context.Context, url string, n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("httpds: n must be > 0")
	}

	h := make(http.Header)
	h.Set("Range", fmt.Sprintf("bytes=0-%d", n-1))

	resp, err := c.Get(ctx, url, h)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// 206 or 200 both land here; only read up to n either way.
	buf, err := io.ReadAll(io.LimitReader(resp.Body, int64(n)))
	if err != nil {
		return nil, err
	}
	return buf, nil
}
