package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/gitcamus/gitcamus/internal/pkg/errors"
)

// DefaultTimeout bounds one backend request when the configuration sets none.
const DefaultTimeout = 120 * time.Second

// maxErrorBody caps how much of a failed response is echoed back to the user.
const maxErrorBody = 4096

// jsonTransport posts JSON bodies to one backend host.
type jsonTransport struct {
	name       string
	host       string
	headers    map[string]string
	httpClient *http.Client
}

func newJSONTransport(name, host string, timeout time.Duration, headers map[string]string) *jsonTransport {
	return &jsonTransport{
		name:       name,
		host:       strings.TrimRight(host, "/"),
		headers:    headers,
		httpClient: newHTTPClient(timeout),
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// url joins the host and an API path.
func (t *jsonTransport) url(path string) string {
	return t.host + path
}

// post sends payload to path and returns the body of a 2xx response.
// Every failure comes back as a classified *apperrors.AppError.
func (t *jsonTransport) post(ctx context.Context, path string, payload interface{}, promptLength int, model string) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := t.url(path)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewTransportError(t.name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range t.headers {
		httpReq.Header.Set(k, v)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("X-Request-Id", requestID)

	apperrors.LogAPIRequest(t.name, endpoint, model, requestID, promptLength)
	start := time.Now()

	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(t.name, t.host, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, classifyTransportError(t.name, t.host, err)
	}
	apperrors.LogAPIResponse(t.name, httpResp.StatusCode, len(respBody), time.Since(start))

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, apperrors.NewBackendError(t.name, httpResp.StatusCode, errorBody(respBody))
	}
	return respBody, nil
}

func errorBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}

// classifyTransportError maps a failed round trip to the error taxonomy:
// unreachable hosts become BackendUnavailable, deadlines become timeouts and
// everything else is a generic backend error.
func classifyTransportError(name, host string, err error) error {
	if isTimeout(err) {
		return apperrors.NewTimeoutError(name, err)
	}
	if isUnreachable(err) {
		return apperrors.NewBackendUnavailableError(name, host, err)
	}
	return apperrors.NewTransportError(name, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isUnreachable(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	return strings.Contains(err.Error(), "connection refused")
}

// NormalizeHost adds an http:// scheme to a bare host:port and strips
// trailing slashes.
func NormalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	if u, err := url.Parse(host); err == nil && u.Host == "" {
		apperrors.Debug("host %q has no authority section", host)
	}
	return strings.TrimRight(host, "/")
}
