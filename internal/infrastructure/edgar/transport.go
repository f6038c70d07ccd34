package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/net/html/charset"
)

func (c *Client) getJSON(ctx context.Context, url string, out any, operation string) error {
	call := func(ctx context.Context) error {
		body, err := c.get(ctx, url, operation)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode %s response: %w", operation, err)
		}
		return nil
	}
	return c.execute(ctx, operation, call)
}

func (c *Client) getText(ctx context.Context, url, operation string) (string, error) {
	var text string
	call := func(ctx context.Context) error {
		body, err := c.get(ctx, url, operation)
		if err != nil {
			return err
		}
		text = string(body)
		return nil
	}
	if err := c.execute(ctx, operation, call); err != nil {
		return "", err
	}
	return text, nil
}

// get performs one rate-limited request and returns the body decoded to
// UTF-8. EDGAR archives mix UTF-8, Latin-1 and Windows-1252 documents, so
// the response charset drives the decode.
func (c *Client) get(ctx context.Context, url, operation string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, newHTTPStatusError(operation, resp)
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("detect %s charset: %w", operation, err)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", operation, err)
	}
	return body, nil
}

func (c *Client) execute(ctx context.Context, operation string, call func(context.Context) error) error {
	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, operation, call, classifyEdgarError)
	} else {
		err = call(ctx)
	}
	return wrapTemporaryIfNeeded(operation, err)
}
