package interview

import (
	"context"
	"errors"
	"sync"

	"github.com/dkazmin/careerpilot/internal/gateway"
	"github.com/dkazmin/careerpilot/internal/localstore"
	"github.com/dkazmin/careerpilot/internal/trajectory"
)

// ErrInvalidState is returned when an operation is attempted from a state
// that does not allow it. The UI is expected to guard against this; when it
// happens anyway, no persisted state is touched.
var ErrInvalidState = errors.New("operation not allowed in current state")

// ErrStaleResponse means a network reply arrived after the session it
// belonged to was reset or replaced. The reply is discarded.
var ErrStaleResponse = errors.New("stale response discarded")

const (
	greetingText = "Привет! Я ваш AI-компаньон по карьерному развитию. Давайте построим или обновим вашу карьерную траекторию. Что вы хотели бы сделать?"
	sendFailText = "Что-то пошло не так. Проверьте соединение и отправьте сообщение ещё раз."
)

// SessionGateway is the remote interview service surface the manager needs.
type SessionGateway interface {
	CreateSession(ctx context.Context) (string, error)
	FetchSession(ctx context.Context, sessionID string) (*gateway.SessionRecord, error)
	SendMessage(ctx context.Context, sessionID, text string) (*gateway.ChatTurn, error)
}

// TrajectoryGateway is the remote trajectory service surface the manager needs.
type TrajectoryGateway interface {
	Build(ctx context.Context, req trajectory.BuildRequest) (*trajectory.Data, error)
}

// Manager owns the one current interview session of a device and keeps the
// in-memory view, the local store and the remote services consistent.
//
// Transitions run their network call outside the lock so a Reset can land
// mid-flight; every reply is checked against the current session before it
// is applied, and discarded with ErrStaleResponse when it no longer matches.
type Manager struct {
	store        localstore.Store
	sessions     SessionGateway
	trajectories TrajectoryGateway

	mu        sync.Mutex
	epoch     uint64
	state     State
	sessionID string
	log       []Message
	traj      *trajectory.Data
}

func NewManager(store localstore.Store, sessions SessionGateway, trajectories TrajectoryGateway) *Manager {
	return &Manager{
		store:        store,
		sessions:     sessions,
		trajectories: trajectories,
		state:        StateNoSession,
	}
}

// Snapshot is the single discriminated value the presentation layer renders.
type Snapshot struct {
	State      State            `json:"state"`
	SessionID  string           `json:"session_id,omitempty"`
	Messages   []Message        `json:"messages"`
	Trajectory *trajectory.Data `json:"trajectory,omitempty"`
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	msgs := make([]Message, len(m.log))
	copy(msgs, m.log)
	return Snapshot{
		State:      m.state,
		SessionID:  m.sessionID,
		Messages:   msgs,
		Trajectory: m.traj,
	}
}

func (m *Manager) resetLocked() {
	m.epoch++
	m.state = StateNoSession
	m.sessionID = ""
	m.log = nil
	m.traj = nil
}

// Start begins a new interview: any previous local pointer and cached
// trajectory are cleared first, then a fresh session id is obtained and
// persisted, and the local-only greeting seeds the message log.
func (m *Manager) Start(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	if err := m.store.Clear(ctx); err != nil {
		m.mu.Unlock()
		return Snapshot{}, err
	}
	m.resetLocked()
	epoch := m.epoch
	m.mu.Unlock()

	sessionID, err := m.sessions.CreateSession(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return m.snapshotLocked(), ErrStaleResponse
	}
	if err != nil {
		return m.snapshotLocked(), err
	}
	if err := m.store.Set(ctx, localstore.KeyActiveSessionID, sessionID); err != nil {
		return m.snapshotLocked(), err
	}
	m.epoch++
	m.sessionID = sessionID
	m.state = StateInterviewActive
	m.log = []Message{newLocalMessage("assistant", greetingText)}
	m.traj = nil
	return m.snapshotLocked(), nil
}

// Resume restores the device's session after a cold start. No pointer means
// no network call and state NoSession. A dangling pointer (remote reports
// NotFound) is cleared rather than stranding the UI in a broken active
// state. On success the log is rebuilt from the remote copy and a cached
// trajectory for the same session is re-exposed; a corrupt cache is treated
// as absent.
func (m *Manager) Resume(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	sessionID, ok, err := m.store.Get(ctx, localstore.KeyActiveSessionID)
	if err != nil {
		m.mu.Unlock()
		return Snapshot{}, err
	}
	if !ok || sessionID == "" {
		m.resetLocked()
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap, nil
	}
	epoch := m.epoch
	m.mu.Unlock()

	record, err := m.sessions.FetchSession(ctx, sessionID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return m.snapshotLocked(), ErrStaleResponse
	}
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			if cerr := m.store.Clear(ctx); cerr != nil {
				return m.snapshotLocked(), cerr
			}
			m.resetLocked()
			return m.snapshotLocked(), nil
		}
		return m.snapshotLocked(), err
	}

	m.epoch++
	m.sessionID = sessionID
	m.log = messagesFromRecord(record)
	if completedFromLog(m.log) {
		m.state = StateInterviewComplete
	} else {
		m.state = StateInterviewActive
	}

	m.traj = nil
	if raw, ok, err := m.store.Get(ctx, localstore.KeyCachedTrajectory); err == nil && ok {
		if data, valid := trajectory.Decode([]byte(raw)); valid && data.SessionID == sessionID {
			m.traj = data
		}
	}
	return m.snapshotLocked(), nil
}

// SendMessage appends the user's turn optimistically (status pending),
// forwards it, and reconciles: delivered plus the assistant reply on
// success, failed plus a local-only error note on gateway failure. The
// interview completes when the reply carries done=true.
func (m *Manager) SendMessage(ctx context.Context, text string) (Snapshot, error) {
	m.mu.Lock()
	if m.state != StateInterviewActive {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap, ErrInvalidState
	}
	sessionID := m.sessionID
	pending := newLocalMessage("user", text)
	pending.Origin = OriginRemote
	pending.Status = StatusPending
	m.log = append(m.log, pending)
	m.mu.Unlock()

	turn, err := m.sessions.SendMessage(ctx, sessionID, text)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessionID != sessionID {
		return m.snapshotLocked(), ErrStaleResponse
	}
	idx := m.indexOfLocked(pending.ID)
	if err != nil {
		if idx >= 0 {
			m.log[idx].Status = StatusFailed
		}
		m.log = append(m.log, newLocalMessage("assistant", sendFailText))
		return m.snapshotLocked(), err
	}

	if idx >= 0 {
		m.log[idx].Status = StatusDelivered
	}
	reply := newLocalMessage("assistant", turn.Reply)
	reply.Origin = OriginRemote
	reply.Done = turn.Done
	m.log = append(m.log, reply)
	if turn.Done {
		m.state = StateInterviewComplete
	}
	return m.snapshotLocked(), nil
}

// BuildTrajectory turns a completed interview into a career plan. It is
// reachable from InterviewComplete, and again from TrajectoryBuilt (a
// rebuild overwrites the previous plan). A domain rejection keeps the state
// and surfaces the remote reason as a local-only note.
func (m *Manager) BuildTrajectory(ctx context.Context, req trajectory.BuildRequest) (Snapshot, error) {
	m.mu.Lock()
	if m.state != StateInterviewComplete && m.state != StateTrajectoryBuilt {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap, ErrInvalidState
	}
	sessionID := m.sessionID
	req.SessionID = sessionID
	m.mu.Unlock()

	data, err := m.trajectories.Build(ctx, req)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessionID != sessionID {
		return m.snapshotLocked(), ErrStaleResponse
	}
	if err != nil {
		var bf *gateway.BuildFailedError
		if errors.As(err, &bf) {
			m.log = append(m.log, newLocalMessage("assistant", bf.Reason))
		} else {
			m.log = append(m.log, newLocalMessage("assistant", sendFailText))
		}
		return m.snapshotLocked(), err
	}

	raw, err := trajectory.Encode(data)
	if err != nil {
		return m.snapshotLocked(), err
	}
	if err := m.store.Set(ctx, localstore.KeyCachedTrajectory, string(raw)); err != nil {
		return m.snapshotLocked(), err
	}
	m.traj = data
	m.state = StateTrajectoryBuilt
	return m.snapshotLocked(), nil
}

// Reset clears the local pointer and cached trajectory and returns to
// NoSession. Remote data is untouched. Safe to call from any state, and
// calling it twice is the same as once.
func (m *Manager) Reset(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
	if err := m.store.Clear(ctx); err != nil {
		return m.snapshotLocked(), err
	}
	return m.snapshotLocked(), nil
}

func (m *Manager) indexOfLocked(id string) int {
	for i := range m.log {
		if m.log[i].ID == id {
			return i
		}
	}
	return -1
}
