// Package client talks to the labbook API. It is the calendar's remote store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"labbook/internal/domain/auth"
	"labbook/internal/domain/booking"
	"labbook/internal/pkg/response"
)

var ErrUnauthorized = errors.New("not signed in or session expired")

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap maps API error codes to the domain sentinels so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "OVERLAP_CONFLICT":
		return booking.ErrOverlap
	case "INVALID_RANGE":
		return booking.ErrInvalidRange
	case "PAST_DATE":
		return booking.ErrPastDate
	case "FORBIDDEN":
		return booking.ErrForbidden
	case "NOT_FOUND":
		return booking.ErrNotFound
	case "NOT_INVITED":
		return auth.ErrNotInvited
	case "RATE_LIMIT_EXCEEDED":
		return auth.ErrRateLimitExceeded
	case "INVALID_CODE":
		return auth.ErrInvalidCode
	case "INVALID_CODE_FORMAT":
		return auth.ErrInvalidCodeFormat
	case "TOO_MANY_ATTEMPTS":
		return auth.ErrTooManyAttempts
	}
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a client without its own timeout; calls end when their context does.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{},
	}
}

// WithHTTPClient swaps the underlying HTTP client, mainly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) RequestCode(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/auth/otp/request", auth.RequestCodeRequest{Email: email}, nil)
}

func (c *Client) VerifyCode(ctx context.Context, email, code string) (*auth.LoginResponse, error) {
	var out auth.LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/otp/verify", auth.VerifyCodeRequest{Email: email, Code: code}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*auth.Identity, error) {
	var out auth.MeResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// ListRange returns the bookings with from <= day <= to, ordered by day and start minute.
func (c *Client) ListRange(ctx context.Context, from, to string) ([]booking.Booking, error) {
	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)

	var out booking.ListBookingsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/bookings?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Bookings, nil
}

// Create stores a booking for the signed-in user; the server ignores d.UserID.
func (c *Client) Create(ctx context.Context, d booking.Draft) (*booking.Booking, error) {
	start, end := d.StartMinute, d.EndMinute
	req := booking.CreateBookingRequest{
		Day:         d.Day,
		StartMinute: &start,
		EndMinute:   &end,
		Note:        d.Note,
	}

	var out booking.BookingResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/bookings", req, &out); err != nil {
		return nil, err
	}
	return &out.Booking, nil
}

func (c *Client) Insert(ctx context.Context, d booking.Draft) error {
	_, err := c.Create(ctx, d)
	return err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/bookings/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env response.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		if resp.StatusCode >= 300 {
			return &APIError{Status: resp.StatusCode}
		}
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}

	if resp.StatusCode >= 300 || !env.Success {
		apiErr := &APIError{Status: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return nil
}
