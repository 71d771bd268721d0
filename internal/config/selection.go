package config

// Selection reads the selected profile id from the configuration file.
//
// The file is re-read on every call so a selection changed by the tunnel
// runtime while an edit is in progress is observed at action time.
type Selection struct {
	path string
}

// NewSelection returns a Selection backed by the config file at path.
func NewSelection(path string) *Selection {
	return &Selection{path: path}
}

// ActiveID returns the selected profile id, or "" when nothing is selected.
func (s *Selection) ActiveID() (string, error) {
	cfg, err := LoadFrom(s.path)
	if err != nil {
		return "", err
	}
	return cfg.Selected, nil
}

// SetActiveID records id as the selected profile. An empty id clears it.
// Other settings in the file are preserved.
func (s *Selection) SetActiveID(id string) error {
	cfg, err := LoadFrom(s.path)
	if err != nil {
		return err
	}
	cfg.SetSelected(id)
	return cfg.Save()
}
