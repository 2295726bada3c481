package console

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

const prefixTagMaxLen = 16
const prefixCutTagSuffix = "..."

// Prefixer is an io.Writer adding "{tag} " in front of each line. A line split across writes gets
// the prefix once, before its first chunk. Each Write makes a single write to the underlying writer.
type Prefixer struct {
	mu      sync.Mutex
	writer  io.Writer
	prefix  []byte
	midLine bool
}

// NewPrefixer makes Prefixer writing to w, tag is cut to a reasonable length
func NewPrefixer(w io.Writer, tag string) *Prefixer {
	return &Prefixer{writer: w, prefix: prefixForTag(tag)}
}

// Write prefixes lines of data and passes them down. Returns len(data) on success.
func (p *Prefixer) Write(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	buf := make([]byte, 0, len(data)+2*len(p.prefix))
	for rest := data; len(rest) > 0; {
		if !p.midLine {
			buf = append(buf, p.prefix...)
		}
		i := bytes.IndexByte(rest, '\n')
		if i < 0 {
			buf = append(buf, rest...)
			p.midLine = true
			break
		}
		buf = append(buf, rest[:i+1]...)
		rest = rest[i+1:]
		p.midLine = false
	}

	if _, err := p.writer.Write(buf); err != nil {
		return 0, err
	}
	return len(data), nil
}

func prefixForTag(tag string) []byte {
	if len(tag) > prefixTagMaxLen {
		tag = tag[:prefixTagMaxLen] + prefixCutTagSuffix
	}
	return fmt.Appendf(nil, "{%s} ", tag)
}
