package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/kmsvout/internal/api/models"
	"github.com/smazurov/kmsvout/internal/events"
	"github.com/smazurov/kmsvout/internal/kms"
	"github.com/smazurov/kmsvout/internal/metrics"
)

func (s *Server) registerDisplayRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-display",
		Method:      http.MethodGet,
		Path:        "/api/display",
		Summary:     "Display status",
		Description: "Get the negotiated format, plane and frame counters of the display session",
		Tags:        []string{"display"},
	}, func(_ context.Context, _ *struct{}) (*models.DisplayResponse, error) {
		st := s.display.Status()
		return &models.DisplayResponse{
			Body: models.DisplayData{
				State:   st.State,
				Device:  st.Device,
				CRTCID:  st.CRTCID,
				PlaneID: st.PlaneID,
				FourCC:  st.FourCC,
				Chroma:  st.Chroma,
				Width:   st.Width,
				Height:  st.Height,
				Placement: models.Rect{
					X:      st.Placement.X,
					Y:      st.Placement.Y,
					Width:  st.Placement.Width,
					Height: st.Placement.Height,
				},
				Buffers:        st.Buffers,
				Frames:         st.Frames,
				Reopens:        st.Reopens,
				CommitFailures: metrics.Stats().CommitFailures,
				LastError:      st.LastError,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-overrides",
		Method:      http.MethodGet,
		Path:        "/api/display/overrides",
		Summary:     "Forced formats",
		Description: "Get the forced source chroma and device format",
		Tags:        []string{"display"},
	}, func(_ context.Context, _ *struct{}) (*models.OverridesResponse, error) {
		return &models.OverridesResponse{Body: overridesData(s.display.Overrides())}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "set-overrides",
		Method:        http.MethodPut,
		Path:          "/api/display/overrides",
		Summary:       "Force formats",
		Description:   "Force the source chroma and device format. The session is reopened when they change.",
		Tags:          []string{"display"},
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{422},
	}, func(_ context.Context, input *models.OverridesRequest) (*models.OverridesResponse, error) {
		var invalid []error
		o := kms.ParseOverrides(input.Body.VLCChroma, input.Body.DRMChroma, func(msg string, args ...any) {
			invalid = append(invalid, &huma.ErrorDetail{Message: msg, Value: args})
		})
		if len(invalid) > 0 {
			return nil, huma.Error422UnprocessableEntity("invalid override", invalid...)
		}
		s.eventBus.Publish(events.OverridesChangedEvent{
			VLCChroma: input.Body.VLCChroma,
			DRMChroma: input.Body.DRMChroma,
			Timestamp: time.Now().Format(time.RFC3339),
		})
		return &models.OverridesResponse{Body: overridesData(o)}, nil
	})
}

func overridesData(o kms.Overrides) models.OverridesData {
	var d models.OverridesData
	if o.Chroma != 0 {
		d.VLCChroma = o.Chroma.String()
	}
	if o.FourCC != 0 {
		d.DRMChroma = o.FourCC.String()
	}
	return d
}
