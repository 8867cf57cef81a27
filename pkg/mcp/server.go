// Package mcp serves an MCP server over the streamable HTTP transport.
package mcp

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
)

const (
	SessionHeader         = "Mcp-Session-Id"
	ProtocolVersionHeader = "Mcp-Protocol-Version"
)

type Options struct {
	Name         string
	Version      string
	Instructions string
	// Stateless servers skip session tracking; every POST stands alone.
	Stateless      bool
	SessionTimeout time.Duration
}

// Server is an MCP server together with the HTTP handler that serves it.
// Tools and resources are registered on the embedded server.
type Server struct {
	*sdk.Server
	handler http.Handler
}

func NewServer(opts Options) *Server {
	server := sdk.NewServer(&sdk.Implementation{Name: opts.Name, Version: opts.Version}, &sdk.ServerOptions{
		Instructions: opts.Instructions,
		HasTools:     true,
		HasResources: true,
		GetSessionID: uuid.NewString,
	})
	server.AddReceivingMiddleware(logRequests)

	handler := sdk.NewStreamableHTTPHandler(func(*http.Request) *sdk.Server {
		return server
	}, &sdk.StreamableHTTPOptions{
		Stateless:      opts.Stateless,
		JSONResponse:   true,
		SessionTimeout: opts.SessionTimeout,
	})

	return &Server{Server: server, handler: handler}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func logRequests(next sdk.MethodHandler) sdk.MethodHandler {
	return func(ctx context.Context, method string, req sdk.Request) (sdk.Result, error) {
		start := time.Now()
		result, err := next(ctx, method, req)

		log := logrus.WithFields(logrus.Fields{
			"method":   method,
			"duration": time.Since(start),
		})
		if err != nil {
			log.WithError(err).Warn("MCP request failed")
			return result, err
		}
		log.Debug("MCP request handled")
		return result, nil
	}
}
