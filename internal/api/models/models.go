// Package models holds the request and response bodies of the HTTP API.
package models

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Name      string `json:"name" example:"kmsvout" doc:"Program name"`
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit SHA"`
	BuildDate string `json:"build_date" example:"2024-12-15 14:30" doc:"Build timestamp"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go compiler version"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"Operating system and architecture"`
}

type VersionResponse struct {
	Body VersionData
}

// Rect is a rectangle on the CRTC in pixels.
type Rect struct {
	X      int32  `json:"x"`
	Y      int32  `json:"y"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// Display status models
type DisplayData struct {
	State          string `json:"state" example:"running" doc:"Player state: starting, running, reopening, failed or stopped"`
	Device         string `json:"device,omitempty" example:"/dev/dri/card0" doc:"DRM device path"`
	CRTCID         uint32 `json:"crtc_id,omitempty" example:"40" doc:"CRTC the plane is attached to"`
	PlaneID        uint32 `json:"plane_id,omitempty" example:"31" doc:"Hardware plane showing the video"`
	FourCC         string `json:"fourcc,omitempty" example:"NV12" doc:"Negotiated device format"`
	Chroma         string `json:"chroma,omitempty" example:"NV12" doc:"Negotiated source chroma"`
	Width          int    `json:"width,omitempty" example:"1920" doc:"Source width"`
	Height         int    `json:"height,omitempty" example:"1080" doc:"Source height"`
	Placement      Rect   `json:"placement" doc:"Destination rectangle on the CRTC"`
	Buffers        int    `json:"buffers,omitempty" example:"3" doc:"Scan-out buffers in the ring"`
	Frames         uint64 `json:"frames" example:"1200" doc:"Frames shown by the current session"`
	Reopens        int    `json:"reopens" example:"0" doc:"Times the session was rebuilt"`
	CommitFailures uint64 `json:"commit_failures" example:"0" doc:"Rejected plane commits in the current session"`
	LastError      string `json:"last_error,omitempty" doc:"Most recent display error"`
}

type DisplayResponse struct {
	Body DisplayData
}

// Override models
type OverridesData struct {
	VLCChroma string `json:"vlc_chroma,omitempty" example:"NV12" doc:"Forced source chroma, empty for automatic"`
	DRMChroma string `json:"drm_chroma,omitempty" example:"NV12" doc:"Forced device format, empty for automatic"`
}

type OverridesResponse struct {
	Body OverridesData
}

type OverridesRequest struct {
	Body OverridesData
}

// Log models
type LogEntryData struct {
	Timestamp  string         `json:"timestamp" doc:"RFC3339 timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"kms" doc:"Logging module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured attributes"`
}

type LogsInput struct {
	Module string `query:"module" doc:"Only return entries of this module"`
	Limit  int    `query:"limit" minimum:"0" maximum:"500" default:"100" doc:"Maximum entries, newest last"`
}

type LogsResponse struct {
	Body struct {
		Entries []LogEntryData `json:"entries"`
	}
}
