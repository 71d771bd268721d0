// Package editor implements editing sessions over custom profiles: loading a
// profile with its raw configuration, validating and saving edits, and
// deleting it, while refusing to touch the profile the tunnel is running.
package editor

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xabinapal/skiff/internal/logging"
	"github.com/xabinapal/skiff/internal/parser"
	"github.com/xabinapal/skiff/internal/store"
	"github.com/xabinapal/skiff/internal/types"
	"github.com/xabinapal/skiff/internal/utils"
)

// SizeAdvisoryThreshold is the raw text size, in bytes, above which loading a
// profile raises a size advisory.
const SizeAdvisoryThreshold = 1024 * 1024

// Locker reports whether a profile is locked by the running tunnel.
type Locker interface {
	IsLocked(id string, runningHint bool) bool
}

// Service opens editing sessions over a profile store.
type Service struct {
	store     store.Store
	parse     parser.Func
	guard     Locker
	presenter Presenter
	logger    *logging.Logger
	now       func() time.Time
	newID     func() string
}

// Option configures a Service.
type Option func(*Service)

// WithParser replaces the configuration parser.
func WithParser(fn parser.Func) Option {
	return func(s *Service) {
		if fn != nil {
			s.parse = fn
		}
	}
}

// WithGuard sets the lock check. Without one nothing is ever locked.
func WithGuard(g Locker) Option {
	return func(s *Service) {
		s.guard = g
	}
}

// WithPresenter sets where session outcomes are rendered.
func WithPresenter(p Presenter) Option {
	return func(s *Service) {
		if p != nil {
			s.presenter = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the time source for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator sets how ids are minted for new profiles.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService creates a Service over st.
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:     st,
		parse:     parser.Parse,
		presenter: NopPresenter{},
		logger:    logging.Discard(),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) locked(id string, running bool) bool {
	if s.guard == nil || id == "" {
		return false
	}
	return s.guard.IsLocked(id, running)
}

// Begin opens a session for id. An empty id, or an id with no stored record,
// opens a new profile; a non-empty id is kept for it.
// running is the caller's claim that id is the profile the tunnel uses.
func (s *Service) Begin(id string, running bool) (*Session, error) {
	sess := &Session{
		svc:     s,
		id:      id,
		running: running,
		state:   StateNew,
	}

	if id == "" {
		s.logger.Debug("opened new profile session")
		return sess, nil
	}

	prof, err := s.store.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Debug("profile not found, opening new session", logging.Fields{"id": id})
		return sess, nil
	}
	if err != nil {
		s.logger.Error("failed to load profile", logging.Fields{"id": id, "error": err.Error()})
		return nil, err
	}

	raw, err := s.store.GetRaw(id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.logger.Error("failed to load profile configuration", logging.Fields{"id": id, "error": err.Error()})
		return nil, err
	}

	sess.prof = prof
	sess.raw = raw
	sess.state = StateLoaded
	if s.locked(id, running) {
		sess.state = StateLocked
	}

	s.logger.Info("loaded profile", logging.Fields{
		"id":     id,
		"size":   len(raw),
		"locked": sess.state == StateLocked,
	})

	if len(raw) > SizeAdvisoryThreshold {
		size := utils.FormatSize(len(raw))
		s.logger.Warn("large profile configuration", logging.Fields{"id": id, "size": size})
		s.presenter.SizeAdvisory("Large configuration",
			fmt.Sprintf("This configuration is %s. Editing it may be slow.", size))
	}

	return sess, nil
}

// State is the state of an editing session.
type State int

const (
	// StateNew is a session with no stored record. Delete is disabled.
	StateNew State = iota
	// StateLoaded is a session bound to a stored record.
	StateLoaded
	// StateLocked is a loaded session on the running profile.
	// Save and delete are disabled.
	StateLocked
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateLoaded:
		return "loaded"
	case StateLocked:
		return "locked"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session is a single editing session. It is not safe for concurrent use.
type Session struct {
	svc     *Service
	id      string
	running bool
	state   State
	prof    *types.Profile
	raw     string
	closed  bool
}

// ID returns the profile id, "" for a new profile not saved yet.
func (s *Session) ID() string { return s.id }

// State returns the state as of the last operation.
func (s *Session) State() State { return s.state }

// Profile returns a copy of the bound record, nil for a new profile.
func (s *Session) Profile() *types.Profile { return s.prof.Clone() }

// Raw returns the stored raw configuration text.
func (s *Session) Raw() string { return s.raw }

// Closed reports whether the session ended with a save or delete.
func (s *Session) Closed() bool { return s.closed }

// CanSave reports whether Save would currently be attempted.
func (s *Session) CanSave() bool {
	return !s.closed && s.refreshLock() != StateLocked
}

// CanDelete reports whether Delete would currently be attempted.
func (s *Session) CanDelete() bool {
	return !s.closed && s.refreshLock() == StateLoaded
}

// refreshLock re-reads the lock of a bound session.
func (s *Session) refreshLock() State {
	if s.state == StateNew {
		return s.state
	}
	if s.svc.locked(s.id, s.running) {
		s.state = StateLocked
	} else {
		s.state = StateLoaded
	}
	return s.state
}

func (s *Session) reject(op string, verr *ValidationError) error {
	s.svc.logger.Warn(op+" rejected", logging.Fields{"id": s.id, "reason": verr.Error()})
	s.svc.presenter.ValidationFailed(verr.Error())
	return verr
}

// CheckSave returns the rejection Save would give right now for a closed or
// locked session, reporting it to the presenter. It never writes.
func (s *Session) CheckSave() error {
	if s.closed {
		return s.reject("save", rejected(ErrSessionClosed))
	}
	if s.refreshLock() == StateLocked {
		return s.reject("save", rejected(ErrLocked))
	}
	return nil
}

// Save validates rawText and persists it with the merged record.
// Rejections are *ValidationError values; store failures are returned as is.
// A rejected save leaves the store untouched.
func (s *Session) Save(displayName, rawText string) (*types.Profile, error) {
	if err := s.CheckSave(); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(displayName)
	persisted := ""
	if s.prof != nil {
		persisted = strings.TrimSpace(s.prof.DisplayName)
	}
	if name == "" && persisted == "" {
		return nil, s.reject("save", rejected(ErrDisplayNameRequired))
	}

	parsed, err := s.svc.parse(rawText)
	if err != nil {
		cause := err.Error()
		var pe *parser.ParseError
		if errors.As(err, &pe) {
			cause = pe.Cause
		}
		return nil, s.reject("save", &ValidationError{
			Kind:    ErrParse,
			Message: ErrParse.Error() + ": " + cause,
			Err:     err,
		})
	}

	now := s.svc.now()
	var prof *types.Profile
	if s.prof != nil {
		prof = s.prof.Clone()
	} else {
		prof = types.NewCustom(s.id)
		prof.CreatedAt = now
	}

	prof.DisplayName = utils.FirstNonBlank(name, parsed.DisplayName, persisted)
	prof.Kind = types.KindCustom
	prof.Host = parsed.Host
	prof.Port = parsed.Port
	prof.UpdatedAt = now

	id := s.id
	if id == "" {
		id = s.svc.newID()
	}
	prof.ID = id

	if err := s.svc.store.Put(id, prof, rawText); err != nil {
		s.svc.logger.Error("failed to save profile", logging.Fields{"id": id, "error": err.Error()})
		return nil, err
	}

	s.id = id
	s.prof = prof
	s.raw = rawText
	s.state = StateLoaded
	s.closed = true

	s.svc.logger.Info("saved profile", logging.Fields{
		"id":       id,
		"name":     prof.DisplayName,
		"endpoint": prof.Endpoint(),
		"size":     len(rawText),
	})
	s.svc.presenter.Saved(prof.Clone())
	return prof.Clone(), nil
}

// Delete removes the bound profile and its raw text.
func (s *Session) Delete() error {
	if s.closed {
		return s.reject("delete", rejected(ErrSessionClosed))
	}
	switch s.refreshLock() {
	case StateNew:
		return s.reject("delete", rejected(ErrDeleteNotAllowed))
	case StateLocked:
		return s.reject("delete", rejected(ErrLocked))
	}

	if err := s.svc.store.Remove(s.id); err != nil {
		s.svc.logger.Error("failed to delete profile", logging.Fields{"id": s.id, "error": err.Error()})
		return err
	}

	s.closed = true
	s.svc.logger.Info("deleted profile", logging.Fields{"id": s.id})
	s.svc.presenter.Deleted(s.id)
	return nil
}
