package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/smazurov/kmsvout/internal/devices"
	"github.com/smazurov/kmsvout/internal/kms"
	"github.com/spf13/cobra"
)

type planeJSON struct {
	ID      uint32   `json:"id"`
	Type    string   `json:"type"`
	Pipe    string   `json:"pipe"`
	Formats []string `json:"formats"`
}

// CreatePlanesCmd creates the planes command.
func CreatePlanesCmd() *cobra.Command {
	var device string
	var crtc uint32
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "planes",
		Short: "List the hardware planes of a CRTC",
		Long:  `Lists the planes that can be attached to the CRTC with their type and supported formats.`,
		RunE: func(c *cobra.Command, _ []string) error {
			d, err := devices.OpenDisplay(device, crtc)
			if err != nil {
				return err
			}
			defer d.Device.Close()
			return writePlanes(c.OutOrStdout(), d.Device, d.CRTCID, asJSON)
		},
	}

	cmd.Flags().StringVarP(&device, "device", "d", os.Getenv("KMSVOUT_DISPLAY_DEVICE"), "DRM card (path, cardN or N)")
	cmd.Flags().Uint32Var(&crtc, "crtc", 0, "CRTC id, 0 for the first active CRTC")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")
	return cmd
}

func writePlanes(w io.Writer, q kms.Capabilities, crtcID uint32, asJSON bool) error {
	planes, err := kms.ListPlanesForCRTC(q, crtcID)
	if err != nil {
		return err
	}

	if asJSON {
		out := make([]planeJSON, 0, len(planes))
		for _, p := range planes {
			formats := make([]string, len(p.Formats))
			for i, f := range p.Formats {
				formats[i] = f.String()
			}
			out = append(out, planeJSON{
				ID:      p.ID,
				Type:    p.Type.String(),
				Pipe:    string(kms.PipeLetter(p.PossibleCRTCs)),
				Formats: formats,
			})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(w, "CRTC %d: %d planes\n", crtcID, len(planes))
	for _, p := range planes {
		fmt.Fprintln(w, kms.DescribePlane(p))
	}
	return nil
}
