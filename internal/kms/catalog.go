package kms

import "github.com/smazurov/kmsvout/internal/picture"

// FormatEntry pairs a hardware format with the source chroma it carries and
// records whether a plane able to scan it out has been found.
type FormatEntry struct {
	FourCC FourCC
	Chroma picture.Chroma
	// Subsampled marks the YUV family, whose chroma is stored at lower
	// resolution than luma.
	Subsampled bool
	Present    bool
	PlaneID    uint32
}

// defaultEntries is the negotiation search space in order of preference:
// RGB first, then the YUV formats.
var defaultEntries = []FormatEntry{
	{FourCC: FourCCXRGB8888, Chroma: picture.ChromaRGB32},
	{FourCC: FourCCRGB565, Chroma: picture.ChromaRGB16},
	{FourCC: FourCCP010, Chroma: picture.ChromaP010, Subsampled: true},
	{FourCC: FourCCNV12, Chroma: picture.ChromaNV12, Subsampled: true},
	{FourCC: FourCCYUYV, Chroma: picture.ChromaYUYV, Subsampled: true},
	{FourCC: FourCCYVYU, Chroma: picture.ChromaYVYU, Subsampled: true},
	{FourCC: FourCCUYVY, Chroma: picture.ChromaUYVY, Subsampled: true},
	{FourCC: FourCCVYUY, Chroma: picture.ChromaVYUY, Subsampled: true},
}

// Catalog is the ordered format table of one session. It is never resized.
type Catalog struct {
	entries []FormatEntry
}

// NewCatalog returns a catalog with no format marked present.
func NewCatalog() *Catalog {
	entries := make([]FormatEntry, len(defaultEntries))
	copy(entries, defaultEntries)
	return &Catalog{entries: entries}
}

// MarkPresent records that planeID can scan out f. The first plane found
// for a format is kept; unknown formats are ignored.
func (c *Catalog) MarkPresent(f FourCC, planeID uint32) {
	for i := range c.entries {
		e := &c.entries[i]
		if e.FourCC != f {
			continue
		}
		if !e.Present {
			e.Present = true
			e.PlaneID = planeID
		}
		return
	}
}

// FindByFourCC returns the first entry for a hardware format.
func (c *Catalog) FindByFourCC(f FourCC) (FormatEntry, bool) {
	for _, e := range c.entries {
		if e.FourCC == f {
			return e, true
		}
	}
	return FormatEntry{}, false
}

// FindByChroma returns the first entry for a source chroma.
func (c *Catalog) FindByChroma(ch picture.Chroma) (FormatEntry, bool) {
	for _, e := range c.entries {
		if e.Chroma == ch {
			return e, true
		}
	}
	return FormatEntry{}, false
}

// Entries returns a copy of the table in preference order.
func (c *Catalog) Entries() []FormatEntry {
	out := make([]FormatEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Present returns the entries some plane supports, in preference order.
func (c *Catalog) Present() []FormatEntry {
	var out []FormatEntry
	for _, e := range c.entries {
		if e.Present {
			out = append(out, e)
		}
	}
	return out
}
