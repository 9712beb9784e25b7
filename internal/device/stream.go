package device

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

const retryDelay = 10 * time.Millisecond

// grabFunc fills dst with one frame
type grabFunc func(dst *gocv.Mat) error

// frameStream runs grab on its own goroutine and keeps only the newest frame
type frameStream struct {
	grab     grabFunc
	interval time.Duration
	logger   logrus.FieldLogger

	frames chan gocv.Mat
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

func startStream(grab grabFunc, interval time.Duration, logger logrus.FieldLogger) *frameStream {
	s := &frameStream{
		grab:     grab,
		interval: interval,
		logger:   logger,
		frames:   make(chan gocv.Mat, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *frameStream) run() {
	defer close(s.done)

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		frame := gocv.NewMat()
		if err := s.grab(&frame); err != nil {
			frame.Close()
			s.logger.WithError(err).Debug("Frame grab failed")
			if !s.wait(retryDelay) {
				return
			}
			continue
		}

		// Only this goroutine sends, so after dropping the stale frame the slot is free
		select {
		case old := <-s.frames:
			old.Close()
		default:
		}
		s.frames <- frame

		if s.interval > 0 && !s.wait(s.interval) {
			return
		}
	}
}

// wait sleeps for d and reports false if the stream was stopped meanwhile
func (s *frameStream) wait(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-s.stop:
		return false
	case <-t.C:
		return true
	}
}

func (s *frameStream) read(dst *gocv.Mat, timeout time.Duration) error {
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case frame := <-s.frames:
		frame.CopyTo(dst)
		frame.Close()
		return nil
	case <-s.done:
		return ErrNotStreaming
	case <-t.C:
		return ErrTimeout
	}
}

// close stops the goroutine and releases any undelivered frame
func (s *frameStream) close() {
	s.once.Do(func() {
		close(s.stop)
		<-s.done

		select {
		case frame := <-s.frames:
			frame.Close()
		default:
		}
	})
}

// streamer holds the start/stop/read state shared by every device type
type streamer struct {
	mu       sync.Mutex
	stream   *frameStream
	grab     grabFunc
	interval time.Duration
	logger   logrus.FieldLogger
}

func (st *streamer) StartStream() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.stream == nil {
		st.stream = startStream(st.grab, st.interval, st.logger)
	}
	return nil
}

func (st *streamer) StopStream() error {
	st.mu.Lock()
	s := st.stream
	st.stream = nil
	st.mu.Unlock()

	if s != nil {
		s.close()
	}
	return nil
}

func (st *streamer) ReadFrame(dst *gocv.Mat, timeout time.Duration) error {
	st.mu.Lock()
	s := st.stream
	st.mu.Unlock()

	if s == nil {
		return ErrNotStreaming
	}
	return s.read(dst, timeout)
}
