package capture

import (
	"context"
	"sync"
)

// chanSource runs a producer goroutine that feeds a chunk channel
type chanSource struct {
	ch     chan []byte
	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
	onClose   func() error
	produceMu sync.Mutex
	err       error
}

// emitFunc sends a chunk and reports false once the source is closed
type emitFunc func(chunk []byte) bool

func newChanSource(ctx context.Context, buffer int, produce func(ctx context.Context, emit emitFunc) error, onClose func() error) *chanSource {
	ctx, cancel := context.WithCancel(ctx)
	s := &chanSource{
		ch:      make(chan []byte, buffer),
		cancel:  cancel,
		onClose: onClose,
	}

	emit := func(chunk []byte) bool {
		select {
		case s.ch <- chunk:
			return true
		case <-ctx.Done():
			return false
		}
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(s.ch)
		if err := produce(ctx, emit); err != nil && ctx.Err() == nil {
			s.produceMu.Lock()
			s.err = err
			s.produceMu.Unlock()
		}
	}()

	return s
}

func (s *chanSource) Chunks() <-chan []byte {
	return s.ch
}

// Close stops the producer and waits for it to exit.
// It returns the producer's error, if it failed on its own.
func (s *chanSource) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.wg.Wait()
		if s.onClose != nil {
			s.closeErr = s.onClose()
		}
		s.produceMu.Lock()
		if s.closeErr == nil {
			s.closeErr = s.err
		}
		s.produceMu.Unlock()
	})
	return s.closeErr
}
