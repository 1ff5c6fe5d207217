package settings

// Bool returns a boolean setting, false if name is not a boolean
func (s *Store) Bool(name Name) bool {
	b, _ := s.Get(name).(bool)
	return b
}

// Int returns an integer setting
func (s *Store) Int(name Name) int {
	n, _ := s.Get(name).(int)
	return n
}

// Text returns path and hotkey settings as stored
func (s *Store) Text(name Name) string {
	str, _ := s.Get(name).(string)
	return str
}

// Color returns a color setting
func (s *Store) Color(name Name) Color {
	c, _ := s.Get(name).(Color)
	return c
}

// Strings returns a copy of a string-list setting
func (s *Store) Strings(name Name) []string {
	list, _ := s.Get(name).([]string)
	return list
}

// SaveDirectory returns the output folder, resolving an unset value to the default
func (s *Store) SaveDirectory() string {
	return s.Text(KeySaveDirectory)
}

// SaveDirectoryIsDefault reports whether no output folder has been chosen
func (s *Store) SaveDirectoryIsDefault() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, _ := s.values[KeySaveDirectory].(string)
	return p == ""
}

func (s *Store) Encoder() Encoder {
	v, _ := s.Get(KeyEncoder).(Encoder)
	return v
}

func (s *Store) VideoFormat() VideoFormat {
	v, _ := s.Get(KeyVideoFormat).(VideoFormat)
	return v
}

func (s *Store) AudioFormat() AudioFormat {
	v, _ := s.Get(KeyAudioFormat).(AudioFormat)
	return v
}

func (s *Store) AudioQuality() AudioQuality {
	v, _ := s.Get(KeyAudioQuality).(AudioQuality)
	return v
}

func (s *Store) PixelFormat() PixelFormat {
	v, _ := s.Get(KeyPixelFormat).(PixelFormat)
	return v
}

func (s *Store) Background() BackgroundType {
	v, _ := s.Get(KeyBackground).(BackgroundType)
	return v
}
