package interview

import (
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dkazmin/careerpilot/internal/gateway"
)

// State of the one current interview session on a device.
type State string

const (
	StateNoSession         State = "no_session"
	StateInterviewActive   State = "interview_active"
	StateInterviewComplete State = "interview_complete"
	StateTrajectoryBuilt   State = "trajectory_built"
)

// Origin distinguishes messages that exist in the remote log from
// local-only notes (the greeting, error notices) that must never be
// echoed back to the server.
type Origin string

const (
	OriginRemote Origin = "remote"
	OriginLocal  Origin = "local"
)

// Status tracks the two-phase append: a user message is pending while its
// network call is in flight, then delivered or failed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // user or assistant
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Origin    Origin    `json:"origin"`
	Status    Status    `json:"status"`
	Done      bool      `json:"done,omitempty"`
}

func newLocalMessage(role, content string) Message {
	return Message{
		ID:        ulid.Make().String(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
		Origin:    OriginLocal,
		Status:    StatusDelivered,
	}
}

// messagesFromRecord rebuilds the log from a fetched session, ordered by
// created_at. Timestamps that do not parse sort first, keeping their
// relative order.
func messagesFromRecord(record *gateway.SessionRecord) []Message {
	msgs := make([]Message, 0, len(record.Messages))
	for _, rm := range record.Messages {
		ts, _ := time.Parse(time.RFC3339, rm.CreatedAt)
		m := Message{
			ID:        rm.MessageID,
			Role:      rm.Role,
			Content:   rm.Content,
			CreatedAt: ts,
			Origin:    OriginRemote,
			Status:    StatusDelivered,
		}
		if rm.Done != nil {
			m.Done = *rm.Done
		}
		msgs = append(msgs, m)
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs
}

// completedFromLog reports whether the most recent assistant message signals
// the end of the interview.
func completedFromLog(msgs []Message) bool {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "assistant" && msgs[i].Origin == OriginRemote {
			return msgs[i].Done
		}
	}
	return false
}
