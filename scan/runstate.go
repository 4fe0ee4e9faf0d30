package scan

import "sync"

// runState is the cooperative run flag for the scan loop. Stopping
// takes effect at the top of the next cycle, never mid-evaluation.
type runState struct {
	mu      sync.Mutex
	running bool
}

func (s *runState) start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *runState) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

func (s *runState) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
