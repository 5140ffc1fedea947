package embedding

import (
	"context"
	"time"
)

type encodeResult struct {
	vec []float32
	err error
}

type encodeRequest struct {
	text string
	hash string
	ch   chan encodeResult
}

// pendingGroup collects every waiter for one content hash so duplicate
// submissions share a single computation.
type pendingGroup struct {
	text    string
	waiters []chan encodeResult
}

// batchQueue batches individual encode requests into EncodeBatch calls.
// A batch is flushed when it reaches the configured size or when the oldest
// pending request has waited for the flush timeout, whichever comes first.
type batchQueue struct {
	enc     Encoder
	size    int
	timeout time.Duration
	onFlush func(size int)

	submissions chan encodeRequest
	quit        chan struct{}
	done        chan struct{}
}

func newBatchQueue(enc Encoder, size int, timeout time.Duration) *batchQueue {
	if size < 1 {
		size = 1
	}
	if timeout <= 0 {
		timeout = 100 * time.Millisecond
	}
	q := &batchQueue{
		enc:         enc,
		size:        size,
		timeout:     timeout,
		submissions: make(chan encodeRequest),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	go q.run()
	return q
}

// submit enqueues one text and blocks until its batch is encoded.
func (q *batchQueue) submit(ctx context.Context, text, hash string) ([]float32, error) {
	req := encodeRequest{text: text, hash: hash, ch: make(chan encodeResult, 1)}

	select {
	case q.submissions <- req:
	case <-q.quit:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-req.ch:
		return res.vec, res.err
	case <-ctx.Done():
		// The batch still runs; the buffered channel absorbs the result.
		return nil, ctx.Err()
	}
}

func (q *batchQueue) stop() {
	close(q.quit)
	<-q.done
}

func (q *batchQueue) run() {
	defer close(q.done)

	groups := make(map[string]*pendingGroup)
	var order []string
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
		if len(order) == 0 {
			return
		}
		texts := make([]string, len(order))
		for i, hash := range order {
			texts[i] = groups[hash].text
		}
		if q.onFlush != nil {
			q.onFlush(len(texts))
		}
		vecs, err := q.enc.EncodeBatch(context.Background(), texts)
		for i, hash := range order {
			res := encodeResult{err: err}
			if err == nil {
				res.vec = vecs[i]
			}
			for _, ch := range groups[hash].waiters {
				ch <- res
			}
		}
		groups = make(map[string]*pendingGroup)
		order = order[:0]
	}

	for {
		select {
		case req := <-q.submissions:
			g, ok := groups[req.hash]
			if !ok {
				g = &pendingGroup{text: req.text}
				groups[req.hash] = g
				order = append(order, req.hash)
				if timer == nil {
					timer = time.NewTimer(q.timeout)
					timerC = timer.C
				}
			}
			g.waiters = append(g.waiters, req.ch)
			if len(order) >= q.size {
				flush()
			}

		case <-timerC:
			timer = nil
			timerC = nil
			flush()

		case <-q.quit:
			for _, hash := range order {
				for _, ch := range groups[hash].waiters {
					ch <- encodeResult{err: ErrClosed}
				}
			}
			return
		}
	}
}
