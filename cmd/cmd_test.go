package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/smazurov/kmsvout/internal/kms"
	"github.com/smazurov/kmsvout/internal/kms/kmstest"
	"github.com/smazurov/kmsvout/internal/picture"
)

func testDevice() *kmstest.Device {
	return kmstest.New(40,
		kmstest.Plane(31, kms.PlanePrimary, kms.FourCCXRGB8888, kms.FourCCRGB565),
		kmstest.Plane(32, kms.PlaneOverlay, kms.FourCCNV12, kms.FourCCP010),
		kmstest.Plane(33, kms.PlaneCursor, kms.FourCCXRGB8888),
	)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWritePlanesText(t *testing.T) {
	var buf bytes.Buffer
	if err := writePlanes(&buf, testDevice(), 40, false); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"CRTC 40: 3 planes",
		"31 PRIMARY A 0:XR24 1:RG16",
		"32 OVERLAY A 0:NV12 1:P010",
		"33 CURSOR A 0:XR24",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWritePlanesJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writePlanes(&buf, testDevice(), 40, true); err != nil {
		t.Fatal(err)
	}
	var planes []planeJSON
	if err := json.Unmarshal(buf.Bytes(), &planes); err != nil {
		t.Fatal(err)
	}
	if len(planes) != 3 || planes[1].ID != 32 || planes[1].Type != "OVERLAY" || planes[1].Formats[0] != "NV12" {
		t.Errorf("planes = %+v", planes)
	}
}

func TestWritePlanesUnknownCRTC(t *testing.T) {
	err := writePlanes(io.Discard, testDevice(), 99, false)
	if !kms.IsCode(err, kms.ErrCapabilityQueryFailed) {
		t.Errorf("err = %v, want CAPABILITY_QUERY_FAILED", err)
	}
}

func TestRunNegotiation(t *testing.T) {
	var buf bytes.Buffer
	err := runNegotiation(&buf, testDevice(), 40, picture.ChromaNV12, kms.Overrides{}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Source NV12 -> NV12 (chroma NV12) on plane 32") {
		t.Errorf("unexpected result:\n%s", out)
	}
	if !strings.Contains(out, "XR24 RV32 plane 31") || !strings.Contains(out, "YUYV YUY2 -") {
		t.Errorf("catalog listing wrong:\n%s", out)
	}
}

func TestRunNegotiationForcedChromaMissing(t *testing.T) {
	o := kms.Overrides{Chroma: picture.ChromaUYVY}
	err := runNegotiation(io.Discard, testDevice(), 40, picture.ChromaNV12, o, quietLogger())
	if !kms.IsCode(err, kms.ErrNegotiationFailed) {
		t.Errorf("err = %v, want NEGOTIATION_FAILED", err)
	}
}
