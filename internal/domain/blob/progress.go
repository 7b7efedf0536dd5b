package blob

import "io"

// progressChunk is the number of bytes transferred between successive
// progress callbacks.
const progressChunk int64 = 32 * 1024

// ProgressFunc receives the number of bytes sent so far and the declared
// total (0 when unknown).
type ProgressFunc func(sent, total int64)

// progressReader wraps an io.Reader and reports progress after every
// progressChunk bytes and once more at EOF.
type progressReader struct {
	r       io.Reader
	read    int64
	emitted int64
	total   int64
	emit    ProgressFunc
	done    bool
}

// NewProgressReader wraps r so that emit sees the bytes read so far. A nil
// emit returns r unchanged.
func NewProgressReader(r io.Reader, total int64, emit ProgressFunc) io.Reader {
	if emit == nil {
		return r
	}
	return &progressReader{r: r, total: total, emit: emit}
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.read += int64(n)
		for p.read-p.emitted >= progressChunk {
			p.emitted += progressChunk
			p.emit(p.emitted, p.total)
		}
	}
	if err == io.EOF && !p.done {
		p.done = true
		if p.read != p.emitted {
			p.emitted = p.read
			p.emit(p.read, p.total)
		}
	}
	return n, err
}

// Percent converts a progress callback into a whole percentage in [0,100].
// An unknown total reports 0 until the transfer completes.
func Percent(sent, total int64) int {
	if total <= 0 || sent <= 0 {
		return 0
	}
	if sent >= total {
		return 100
	}
	return int(sent * 100 / total)
}
