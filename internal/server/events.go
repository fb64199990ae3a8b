package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleEvent runs one event envelope through the pipeline. The HTTP status
// is the outcome status.
func (s *Server) HandleEvent(c *gin.Context) {
	raw, err := readBody(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	outcome := s.events.HandleRaw(c.Request.Context(), raw)
	switch {
	case outcome.Status >= http.StatusInternalServerError:
		_ = c.Error(fmt.Errorf("%w: %s", ErrInternal, outcome.Error))
	case outcome.Status >= http.StatusBadRequest:
		_ = c.Error(fmt.Errorf("%w: %s", ErrInvalidRequest, outcome.Error))
	}
	c.JSON(outcome.Status, outcome)
}

func readBody(c *gin.Context) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if len(raw) > maxBodyBytes {
		return nil, ErrBodyTooLarge
	}
	return raw, nil
}
