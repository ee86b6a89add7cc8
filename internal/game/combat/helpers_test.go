package combat_test

import "sync"

// faceSrc yields the queued die faces in order, then repeats the last one.
type faceSrc struct {
	mu    sync.Mutex
	faces []int
	i     int
}

func faces(f ...int) *faceSrc { return &faceSrc{faces: f} }

func (s *faceSrc) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.faces[len(s.faces)-1]
	if s.i < len(s.faces) {
		f = s.faces[s.i]
		s.i++
	}
	if f > n {
		f = n
	}
	return f - 1
}

// drawn reports how many faces were consumed.
func (s *faceSrc) drawn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.i
}

// fixedSrc always returns val, clamped into [0, n).
type fixedSrc struct{ val int }

func (f fixedSrc) Intn(n int) int {
	if f.val >= n {
		return n - 1
	}
	return f.val
}
