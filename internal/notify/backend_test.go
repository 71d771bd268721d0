package notify

// mockBackend records notifications instead of showing them.
type mockBackend struct {
	notifyFunc  func(title, message, iconPath string) error
	notifyCalls []notifyCall
}

type notifyCall struct {
	title    string
	message  string
	iconPath string
}

// Notify implements Backend.
func (m *mockBackend) Notify(title, message, iconPath string) error {
	m.notifyCalls = append(m.notifyCalls, notifyCall{title, message, iconPath})
	if m.notifyFunc != nil {
		return m.notifyFunc(title, message, iconPath)
	}
	return nil
}
