package sm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

const (
	maxAttempts = 3
	// Linear backoff between attempts: retryStep, 2*retryStep, ...
	retryStep = time.Second
)

// GatewayError is returned when SM answers with a non-2xx status that is not
// a plain "not found", after retries are exhausted.
type GatewayError struct {
	Op     string
	Status int
	Body   string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("sm: %s status %d: %s", e.Op, e.Status, e.Body)
}

// Client is a thin client over the SM ticketing REST API.
type Client struct {
	baseURL     string
	area        string
	requesterID string
	http        *http.Client

	// retryStep is overridable in tests.
	retryStep time.Duration
}

func NewClient(baseURL, area, requesterID string) *Client {
	return &Client{
		baseURL:     baseURL,
		area:        area,
		requesterID: requesterID,
		http:        &http.Client{Timeout: 15 * time.Second},
		retryStep:   retryStep,
	}
}

// FindConfigItemBySerial looks up configuration items by serial number.
// A serial with no matching CI returns an empty slice, not an error.
func (c *Client) FindConfigItemBySerial(ctx context.Context, serial string) ([]ConfigItem, error) {
	var items []ConfigItem
	found, err := c.getJSON(ctx, "findConfigItem", "/api/ci/"+url.PathEscape(serial), &items)
	if err != nil {
		return nil, err
	}
	if !found {
		return []ConfigItem{}, nil
	}
	return items, nil
}

// CreateTicket opens a new ticket and returns its identifier.
func (c *Client) CreateTicket(ctx context.Context, serial, summary string) (string, error) {
	input := createTicketInput{
		SerialNumber: serial,
		Summary:      summary,
		RequesterID:  c.requesterID,
		Area:         c.area,
	}

	var result createTicketResponse
	if err := c.postJSON(ctx, "createTicket", "/api/ticket", input, &result); err != nil {
		return "", err
	}
	if result.TicketID == "" {
		return "", fmt.Errorf("sm: createTicket returned no ticket id")
	}
	return result.TicketID, nil
}

// GetTicketByID fetches one ticket. A 404 returns (nil, nil).
func (c *Client) GetTicketByID(ctx context.Context, id string) (*Ticket, error) {
	var t Ticket
	found, err := c.getJSON(ctx, "getTicketByID", "/api/ticket/"+url.PathEscape(id), &t)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &t, nil
}

// GetTicketsBySerial returns every ticket recorded for the serial number.
func (c *Client) GetTicketsBySerial(ctx context.Context, serial string) ([]Ticket, error) {
	var tickets []Ticket
	path := "/api/ticket?serial_number=" + url.QueryEscape(serial)
	found, err := c.getJSON(ctx, "getTicketsBySerial", path, &tickets)
	if err != nil {
		return nil, err
	}
	if !found {
		return []Ticket{}, nil
	}
	return tickets, nil
}

// UpdateTicket applies the given field changes to an existing ticket.
func (c *Client) UpdateTicket(ctx context.Context, id string, fields map[string]string) error {
	input := updateTicketInput{TicketID: id, Fields: fields}

	var result updateTicketResponse
	path := "/api/ticket/" + url.PathEscape(id) + "/update"
	if err := c.postJSON(ctx, "updateTicket", path, input, &result); err != nil {
		return err
	}
	if result.ResponseCode != http.StatusOK {
		return fmt.Errorf("sm: updateTicket %s: code %d: %s", id, result.ResponseCode, result.Message)
	}
	return nil
}

// getJSON performs a retried GET. Returns found=false on 404.
func (c *Client) getJSON(ctx context.Context, op, path string, out any) (bool, error) {
	body, status, err := c.do(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return false, err
	}
	if status == http.StatusNotFound {
		return false, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("sm: decoding %s response: %w", op, err)
	}
	return true, nil
}

func (c *Client) postJSON(ctx context.Context, op, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("sm: marshaling %s request: %w", op, err)
	}
	body, status, err := c.do(ctx, op, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return &GatewayError{Op: op, Status: status, Body: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("sm: decoding %s response: %w", op, err)
	}
	return nil
}

// do issues the request with up to maxAttempts tries. Transport errors and
// 5xx responses are retried with linear backoff; everything else returns
// immediately. A 404 is reported to the caller, not treated as failure.
func (c *Client) do(ctx context.Context, op, method, path string, payload []byte) ([]byte, int, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(time.Duration(attempt-1) * c.retryStep):
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			}
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return nil, 0, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("sm: %s request: %w", op, err)
			log.Printf("sm: %s attempt %d/%d failed: %v", op, attempt, maxAttempts, err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("sm: reading %s response: %w", op, readErr)
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = &GatewayError{Op: op, Status: resp.StatusCode, Body: excerpt(body)}
			log.Printf("sm: %s attempt %d/%d status %d", op, attempt, maxAttempts, resp.StatusCode)
			continue
		}

		if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
			return nil, resp.StatusCode, &GatewayError{Op: op, Status: resp.StatusCode, Body: excerpt(body)}
		}

		return body, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}

func excerpt(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
