package artnet

import "sync"

// State holds the DMX universe of every show touched so far.
type State struct {
	mu        sync.Mutex
	universes UniverseStateMap
}

// NewState конструктор.
func NewState() *State {
	return &State{universes: UniverseStateMap{}}
}

// SetChannel sets one channel and reports whether the universe changed.
// Channels outside 0-511 are ignored.
func (s *State) SetChannel(show int, channel uint16, value uint8) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(show, channel, value)
}

// SetChannelValues applies values in order and returns the shows whose
// universe changed, each listed once.
func (s *State) SetChannelValues(values []ChannelValue) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed []int
	seen := map[int]bool{}
	for _, v := range values {
		if s.set(v.Show, v.Channel, v.Value) && !seen[v.Show] {
			seen[v.Show] = true
			changed = append(changed, v.Show)
		}
	}
	return changed
}

// Universe returns a copy of the universe of show.
func (s *State) Universe(show int) Universe {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.universes[show]
}

func (s *State) set(show int, channel uint16, value uint8) bool {
	if int(channel) >= UniverseSize || show < 0 {
		return false
	}
	u, ok := s.universes[show]
	if ok && u[channel] == value {
		return false
	}
	u[channel] = value
	s.universes[show] = u
	return true
}
