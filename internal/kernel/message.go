package kernel

// gxStat is the graphics-engine status word baked into every message.
const gxStat = 0x06000000

// TemplateConfig carries the inputs that stay constant for an entire search:
// the ROM's nazo values, the console MAC address, the hardware frame count
// and the held key mask.
type TemplateConfig struct {
	Nazo     [5]uint32
	MAC      [6]byte
	Frame    uint32
	KeyInput uint32
}

// Template is a message block with the search-constant words precomputed.
// Fill stamps the three per-candidate words into a caller-owned block, so
// enumeration allocates nothing.
type Template struct {
	base Block
}

// NewTemplate builds the template for one search configuration.
func NewTemplate(cfg TemplateConfig) Template {
	var t Template

	for i, n := range cfg.Nazo {
		t.base[i] = swap32(n)
	}

	macLow := uint32(cfg.MAC[0]) | uint32(cfg.MAC[1])<<8 | uint32(cfg.MAC[2])<<16 | uint32(cfg.MAC[3])<<24
	t.base[6] = uint32(cfg.MAC[4])<<8 | uint32(cfg.MAC[5])
	t.base[7] = swap32(macLow ^ gxStat ^ cfg.Frame)
	t.base[12] = swap32(cfg.KeyInput)
	t.base[13] = 0x80000000
	t.base[15] = 0x1A0

	return t
}

// Fill writes the candidate-specific words over the template into dst.
func (t *Template) Fill(dst *Block, timer0, vcount uint32, dateCode, timeCode uint32) {
	*dst = t.base
	dst[5] = swap32(vcount<<16 | timer0)
	dst[8] = dateCode
	dst[9] = timeCode
}
