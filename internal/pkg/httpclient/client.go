// Package httpclient holds the shared outbound HTTP setup used by the
// collaborator clients (image analysis, geo lookup, regional health checks).
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"syscall"
	"time"
)

const defaultTimeout = 10 * time.Second

var (
	ErrTimeout = errors.New("request timed out")
	ErrNetwork = errors.New("network error")
)

// StatusError is returned for non-2xx answers.
type StatusError struct {
	Service string
	Status  int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s http error: status=%d body=%s", e.Service, e.Status, e.Body)
}

// New returns an *http.Client with pooled keep-alive connections and an
// overall request timeout.
func New(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// DoJSON sends req and decodes a 2xx JSON body into out. Failures are
// classified as ErrTimeout, ErrNetwork or *StatusError.
func DoJSON(ctx context.Context, client *http.Client, service string, req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return ClassifyRequestError(ctx, service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if readErr != nil {
			return &StatusError{Service: service, Status: resp.StatusCode, Body: fmt.Sprintf("<failed to read body: %v>", readErr)}
		}
		return &StatusError{Service: service, Status: resp.StatusCode, Body: string(body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s decode error: %w", service, err)
	}
	return nil
}

// ClassifyRequestError wraps a transport failure with ErrTimeout or ErrNetwork.
func ClassifyRequestError(ctx context.Context, service string, err error) error {
	if isTimeoutError(ctx, err) {
		return fmt.Errorf("%s %w: %v", service, ErrTimeout, err)
	}
	if isNetworkError(err) {
		return fmt.Errorf("%s %w: %v", service, ErrNetwork, err)
	}
	return fmt.Errorf("%s request error: %w", service, err)
}

func isTimeoutError(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

func isNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH) {
		return true
	}

	return false
}
