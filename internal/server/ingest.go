package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/orderpulse/pkg/signature"
)

type ingestResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

type customerResponse struct {
	Success  bool `json:"success"`
	Customer any  `json:"customer"`
}

func (s *Server) IngestInsight(c *gin.Context) {
	raw, err := readBody(c)
	if err != nil {
		respondContractError(c, err)
		return
	}

	result, err := s.ingestSvc.IngestInsight(c.Request.Context(), raw, c.GetHeader(signature.Header))
	if err != nil {
		respondContractError(c, err)
		return
	}

	c.JSON(http.StatusOK, ingestResponse{
		Success: true,
		ID:      result.ID.String(),
		Message: "Insight saved successfully",
	})
}

func (s *Server) LookupCustomer(c *gin.Context) {
	raw, err := readBody(c)
	if err != nil {
		respondContractError(c, err)
		return
	}

	snapshot, err := s.ingestSvc.LookupCustomer(c.Request.Context(), raw, c.GetHeader(signature.Header))
	if err != nil {
		respondContractError(c, err)
		return
	}
	c.Set("shop", snapshot.Shop)

	c.JSON(http.StatusOK, customerResponse{Success: true, Customer: snapshot})
}

func (s *Server) UpsertCustomer(c *gin.Context) {
	raw, err := readBody(c)
	if err != nil {
		respondContractError(c, err)
		return
	}

	snapshot, err := s.ingestSvc.UpsertCustomer(c.Request.Context(), raw, c.GetHeader(signature.Header))
	if err != nil {
		respondContractError(c, err)
		return
	}
	c.Set("shop", snapshot.Shop)

	c.JSON(http.StatusOK, customerResponse{Success: true, Customer: snapshot})
}
