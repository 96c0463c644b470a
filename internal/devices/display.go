package devices

import "github.com/smazurov/kmsvout/internal/kms"

// Display is an opened card with the CRTC chosen for output.
type Display struct {
	Device *kms.DRMDevice
	CRTCID uint32
	Width  uint32
	Height uint32
}

// OpenDisplay opens the card named by ref and picks a CRTC: crtcID when it
// is non-zero, the first CRTC driving a mode otherwise.
func OpenDisplay(ref string, crtcID uint32) (Display, error) {
	path, err := ResolveCardPath(ref)
	if err != nil {
		return Display{}, err
	}
	dev, err := kms.OpenDRMDevice(path)
	if err != nil {
		return Display{}, err
	}

	d := Display{Device: dev, CRTCID: crtcID}
	if crtcID != 0 {
		d.Width, d.Height, err = dev.CRTCSize(crtcID)
	} else {
		d.CRTCID, d.Width, d.Height, err = dev.ActiveCRTC()
	}
	if err != nil {
		dev.Close()
		return Display{}, err
	}
	return d, nil
}
