package resource

import (
	"context"
	"io"
)

// Writer returns w throttled by the IO limit. Writes are split into chunks
// of at most the limiter burst so that a canceled ctx reports how many
// bytes reached w. Without an IO limit w is returned as is.
func (c *Controller) Writer(ctx context.Context, w io.Writer) io.Writer {
	if c == nil || c.ioLimiter == nil {
		return w
	}
	return &throttledWriter{ctx: ctx, c: c, w: w}
}

// Reader returns r throttled by the IO limit. Bytes are charged after they
// are read, so short reads only pay for what they return. Without an IO
// limit r is returned as is.
func (c *Controller) Reader(ctx context.Context, r io.Reader) io.Reader {
	if c == nil || c.ioLimiter == nil {
		return r
	}
	return &throttledReader{ctx: ctx, c: c, r: r}
}

type throttledWriter struct {
	ctx context.Context
	c   *Controller
	w   io.Writer
}

func (t *throttledWriter) Write(p []byte) (int, error) {
	burst := t.c.ioLimiter.Burst()
	written := 0
	for len(p) > 0 {
		chunk := p[:min(len(p), burst)]
		if err := t.c.ioLimiter.WaitN(t.ctx, len(chunk)); err != nil {
			return written, err
		}
		n, err := t.w.Write(chunk)
		written += n
		if err != nil {
			return written, err
		}
		p = p[n:]
	}
	return written, nil
}

type throttledReader struct {
	ctx context.Context
	c   *Controller
	r   io.Reader
}

func (t *throttledReader) Read(p []byte) (int, error) {
	if err := t.ctx.Err(); err != nil {
		return 0, err
	}
	// Never read more than one burst; the charge must fit WaitN.
	n, err := t.r.Read(p[:min(len(p), t.c.ioLimiter.Burst())])
	if n > 0 {
		if werr := t.c.ioLimiter.WaitN(t.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
