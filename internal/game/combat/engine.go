package combat

import "sync"

// Engine serialises combat work per game session. Every encounter of a
// session shares one mutex: hostiles and player characters are session
// scoped, so two encounters of one session must never change the same
// combatant concurrently. Different sessions proceed in parallel.
// All methods are safe for concurrent use.
type Engine struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int // holders plus waiters
}

// NewEngine creates an empty Engine.
func NewEngine() *Engine {
	return &Engine{locks: make(map[string]*sessionLock)}
}

// Lock acquires the mutex for sessionID and returns its release function.
// The mutex is dropped from the table once no caller holds or awaits it.
//
// Precondition: sessionID must be non-empty.
// Postcondition: The caller holds exclusive access to sessionID until unlock is called.
func (e *Engine) Lock(sessionID string) (unlock func()) {
	e.mu.Lock()
	l, ok := e.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		e.locks[sessionID] = l
	}
	l.refs++
	e.mu.Unlock()

	l.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			e.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(e.locks, sessionID)
			}
			e.mu.Unlock()
		})
	}
}
