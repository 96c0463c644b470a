package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/smazurov/kmsvout/internal/devices"
	"github.com/smazurov/kmsvout/internal/kms"
	"github.com/smazurov/kmsvout/internal/logging"
	"github.com/smazurov/kmsvout/internal/picture"
	"github.com/spf13/cobra"
)

// CreateNegotiateCmd creates the negotiate command.
func CreateNegotiateCmd() *cobra.Command {
	var device string
	var crtc uint32
	var chroma, vlcChroma, drmChroma string

	cmd := &cobra.Command{
		Use:   "negotiate",
		Short: "Show which plane and format a source chroma would get",
		Long: `Scans the planes of the CRTC and runs format negotiation for the given source chroma ` +
			`without allocating buffers or touching the screen.`,
		RunE: func(c *cobra.Command, _ []string) error {
			src, ok := picture.ParseChroma(chroma)
			if !ok {
				return fmt.Errorf("unknown chroma %q", chroma)
			}
			logger := logging.GetLogger("negotiate")
			overrides := kms.ParseOverrides(vlcChroma, drmChroma, logger.Warn)

			d, err := devices.OpenDisplay(device, crtc)
			if err != nil {
				return err
			}
			defer d.Device.Close()
			return runNegotiation(c.OutOrStdout(), d.Device, d.CRTCID, src, overrides, logger)
		},
	}

	cmd.Flags().StringVarP(&device, "device", "d", os.Getenv("KMSVOUT_DISPLAY_DEVICE"), "DRM card (path, cardN or N)")
	cmd.Flags().Uint32Var(&crtc, "crtc", 0, "CRTC id, 0 for the first active CRTC")
	cmd.Flags().StringVar(&chroma, "chroma", "NV12", "Source chroma")
	cmd.Flags().StringVar(&vlcChroma, "vlc-chroma", "", "Forced source chroma")
	cmd.Flags().StringVar(&drmChroma, "drm-chroma", "", "Forced device format fourcc")
	return cmd
}

func runNegotiation(w io.Writer, q kms.Capabilities, crtcID uint32, src picture.Chroma, o kms.Overrides, logger *slog.Logger) error {
	cat := kms.NewCatalog()
	scan, err := kms.Scan(q, crtcID, cat, o.FourCC, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Catalog for CRTC %d:\n", crtcID)
	for _, e := range cat.Entries() {
		if e.Present {
			fmt.Fprintf(w, "  %s %-4s plane %d\n", e.FourCC, e.Chroma, e.PlaneID)
		} else {
			fmt.Fprintf(w, "  %s %-4s -\n", e.FourCC, e.Chroma)
		}
	}

	nf, err := kms.Negotiate(cat, kms.Request{
		Source:        src,
		ForcedChroma:  o.Chroma,
		ForcedFourCC:  o.FourCC,
		ForcedPlaneID: scan.ForcedPlaneID,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Source %s -> %s (chroma %s) on plane %d\n", src, nf.FourCC, nf.Chroma, nf.PlaneID)
	return nil
}

