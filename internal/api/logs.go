package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/kmsvout/internal/api/models"
	"github.com/smazurov/kmsvout/internal/logging"
)

func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Recent logs",
		Description: "Get the most recent log entries kept in memory",
		Tags:        []string{"logs"},
	}, func(_ context.Context, input *models.LogsInput) (*models.LogsResponse, error) {
		resp := &models.LogsResponse{}
		resp.Body.Entries = []models.LogEntryData{}

		history := logging.History()
		if history == nil {
			return resp, nil
		}
		for _, entry := range history.Tail(input.Module, input.Limit) {
			resp.Body.Entries = append(resp.Body.Entries, models.LogEntryData{
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		}
		return resp, nil
	})
}
