package messaging

import (
	"context"
	"strings"

	id "bridges/pkg/domain"
	dErrors "bridges/pkg/domain-errors"
)

const topicPrefix = "dm"

// ConversationTopic returns the topic shared by a and b. The order of the
// arguments does not matter.
func ConversationTopic(a, b id.UserID) string {
	lo, hi := a.String(), b.String()
	if hi < lo {
		lo, hi = hi, lo
	}
	return topicPrefix + ":" + lo + ":" + hi
}

// ParseConversationTopic returns the two participants of a conversation
// topic in canonical order.
func ParseConversationTopic(topicID string) (id.UserID, id.UserID, error) {
	parts := strings.Split(topicID, ":")
	if len(parts) != 3 || parts[0] != topicPrefix {
		return id.UserID{}, id.UserID{}, dErrors.New(dErrors.CodeValidation, "unknown topic")
	}
	a, err := id.ParseUserID(parts[1])
	if err != nil {
		return id.UserID{}, id.UserID{}, dErrors.New(dErrors.CodeValidation, "unknown topic")
	}
	b, err := id.ParseUserID(parts[2])
	if err != nil {
		return id.UserID{}, id.UserID{}, dErrors.New(dErrors.CodeValidation, "unknown topic")
	}
	if ConversationTopic(a, b) != topicID {
		return id.UserID{}, id.UserID{}, dErrors.New(dErrors.CodeValidation, "unknown topic")
	}
	return a, b, nil
}

// Topics authorizes conversation topic joins. It carries no state so the
// event router can be built before the messaging service.
type Topics struct{}

// CanJoin allows only the two participants into a conversation topic.
func (Topics) CanJoin(_ context.Context, userID id.UserID, topicID string) error {
	a, b, err := ParseConversationTopic(topicID)
	if err != nil {
		return err
	}
	if userID != a && userID != b {
		return dErrors.New(dErrors.CodeForbidden, "not a participant in this conversation")
	}
	return nil
}
