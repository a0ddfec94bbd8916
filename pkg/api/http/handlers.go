package http

import (
	"fmt"
	"io"
	"net/http"

	"github.com/aescanero/seismo/internal/application/telemetry"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleRoot describes the service
func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		Message:  MessageServiceName,
		PushData: PathAccelerometerData,
		Version:  s.version,
		Health:   PathHealth,
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    StatusHealthy,
		Timestamp: s.timestamp(),
	})
}

// handleAccelerometerData accepts a JSON payload and echoes it back indented
func (s *Server) handleAccelerometerData(c *gin.Context) {
	body, err := s.readBody(c)
	if err != nil {
		s.respondIngestError(c, err)
		return
	}

	receipt, err := s.telemetry.Accept(c.Request.Context(), body)
	if err != nil {
		s.respondIngestError(c, err)
		return
	}

	c.JSON(http.StatusOK, IngestResponse{
		Status:       StatusSuccess,
		Message:      MessageDataReceived,
		Timestamp:    formatTimestamp(receipt.ReceivedAt),
		DataReceived: receipt.Pretty,
	})
}

// handleNotFound answers any unmatched path or method
func (s *Server) handleNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, Envelope{
		Status:    StatusError,
		Message:   MessageNotFound,
		Timestamp: s.timestamp(),
	})
}

// handlePanic converts a recovered panic into the generic 500 envelope
func (s *Server) handlePanic(c *gin.Context, recovered any) {
	s.logger.Error("panic while handling request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Any("panic", recovered))

	c.AbortWithStatusJSON(http.StatusInternalServerError, Envelope{
		Status:    StatusError,
		Message:   MessageInternalError,
		Timestamp: s.timestamp(),
	})
}

// respondIngestError maps an ingest failure to its response. Errors other
// than "no data" surface their text to the caller.
func (s *Server) respondIngestError(c *gin.Context, err error) {
	if telemetry.IsNoData(err) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: MessageNoData})
		return
	}

	s.logger.Error("error processing data",
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.Error(err))

	c.JSON(http.StatusInternalServerError, Envelope{
		Status:    StatusError,
		Message:   err.Error(),
		Timestamp: s.timestamp(),
	})
}

// readBody reads the request body up to the configured limit
func (s *Server) readBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil {
		return nil, nil
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	return body, nil
}
