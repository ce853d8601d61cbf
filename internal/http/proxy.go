package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/propagation"
)

// Hop-by-hop headers are meaningful for a single connection only
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// proxy forwards /api/* to the backend through the bound transport, so
// the request carries the session credential instead of whatever
// Authorization header the caller sent.
func (s *Server) proxy(c *gin.Context) {
	req := c.Request
	ctx := req.Context()

	target, err := url.Parse(s.client.BaseURL())
	if err != nil {
		s.logger.ErrorContext(ctx, "proxy: invalid backend URL", "base", s.client.BaseURL(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Backend misconfigured"})
		return
	}

	// Build outgoing request: same method, path, query, body
	outReq := req.Clone(ctx)
	outReq.RequestURI = ""
	outReq.URL.Scheme = target.Scheme
	outReq.URL.Host = target.Host
	outReq.URL.Path = strings.TrimRight(target.Path, "/") + req.URL.Path
	outReq.URL.RawPath = ""
	outReq.URL.RawQuery = req.URL.RawQuery
	outReq.Host = target.Host
	if req.Body != nil {
		outReq.Body = req.Body
		outReq.ContentLength = req.ContentLength
	}

	for _, h := range hopHeaders {
		outReq.Header.Del(h)
	}
	// Never forward a caller-supplied credential; the transport binds ours.
	outReq.Header.Del("Authorization")
	outReq.Header.Del("Cookie")

	if clientIP := c.ClientIP(); clientIP != "" {
		outReq.Header.Set("X-Forwarded-For", clientIP)
	}
	if req.TLS != nil {
		outReq.Header.Set("X-Forwarded-Proto", "https")
	} else {
		outReq.Header.Set("X-Forwarded-Proto", "http")
	}
	outReq.Header.Set("X-Forwarded-Host", req.Host)
	propagation.TraceContext{}.Inject(ctx, propagation.HeaderCarrier(outReq.Header))

	resp, err := s.client.Transport().RoundTrip(outReq)
	if err != nil {
		// Client disconnect (context canceled) is normal; avoid noisy ERROR logs
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			s.logger.DebugContext(ctx, "proxy: upstream request canceled by client", "path", req.URL.Path)
		} else {
			s.logger.ErrorContext(ctx, "proxy: upstream request failed", "path", req.URL.Path, "error", err)
		}
		c.JSON(http.StatusBadGateway, gin.H{"message": "Backend unreachable"})
		return
	}
	defer resp.Body.Close()

	s.logger.DebugContext(ctx, "proxy: upstream response received",
		"status", resp.StatusCode,
		"path", req.URL.Path,
	)

	// Copy response headers (exclude hop-by-hop)
	header := c.Writer.Header()
	for k, vv := range resp.Header {
		if isHopHeader(k) {
			continue
		}
		header.Del(k)
		for _, v := range vv {
			header.Add(k, v)
		}
	}
	c.Status(resp.StatusCode)
	c.Writer.WriteHeaderNow()
	_, _ = io.Copy(c.Writer, resp.Body)
}

func isHopHeader(name string) bool {
	for _, h := range hopHeaders {
		if strings.EqualFold(h, name) {
			return true
		}
	}
	return false
}
