package ring

// Sanitize makes a captured byte safe to render as text. The high bit is cleared and control
// characters other than newline are moved into the printable range by setting bit 0x20.
func Sanitize(b byte) byte {
	b &= 0x7F
	if b < 0x20 && b != '\n' {
		b |= 0x20
	}
	return b
}
