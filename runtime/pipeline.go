package runtime

import (
	"context"
	stderrors "errors"
	"fmt"
	"guild-chat/contract"
	"guild-chat/domain"
	"guild-chat/domain/event"
	"guild-chat/errors"
	"guild-chat/moderation"
	"guild-chat/observability"
	"guild-chat/repositories"
	"log/slog"
	"strings"
)

// Pipeline drives a message through Received -> Authorized -> Persisted ->
// Dispatched. Persistence always precedes fan-out; fan-out failure never
// unwinds the stored record.
type Pipeline struct {
	log              *slog.Logger
	guard            contract.IAccessGuard
	messages         repositories.IMessageRepository
	moderator        *moderation.Moderator
	broadcaster      *Broadcaster
	stats            *observability.Stats
	maxContentLength int
}

func NewPipeline(log *slog.Logger, guard contract.IAccessGuard,
	messages repositories.IMessageRepository, moderator *moderation.Moderator,
	broadcaster *Broadcaster, stats *observability.Stats, maxContentLength int) *Pipeline {
	return &Pipeline{
		log:              log,
		guard:            guard,
		messages:         messages,
		moderator:        moderator,
		broadcaster:      broadcaster,
		stats:            stats,
		maxContentLength: maxContentLength,
	}
}

// Submit validates, authorizes, persists, then fans the message out to the
// room's current members. The persisted message is returned unconditionally
// once the storage write succeeded; per-connection delivery failures are
// swallowed and only reflected in logs and counters.
func (p *Pipeline) Submit(ctx context.Context, userID, displayName string, roomID domain.RoomID, content string) (domain.Message, error) {
	content = strings.TrimSpace(content)
	if length := len([]rune(content)); length == 0 || length > p.maxContentLength {
		return domain.Message{}, errors.ErrInvalidContent
	}

	// Authorization is re-checked on every send, not only on join: guild
	// membership can be revoked mid-session.
	if err := p.guard.CanPost(userID, roomID); err != nil {
		if stderrors.Is(err, errors.ErrForbidden) {
			p.stats.IncrForbiddenRequests()
		}
		return domain.Message{}, err
	}

	content = p.moderator.Censor(content)

	msg, err := p.messages.CreateMessage(userID, displayName, roomID, content)
	if err != nil {
		p.log.Error(fmt.Sprintf("Storage write failed for room %s", roomID), "error", err)
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	p.stats.IncrMessagesPersisted()

	p.broadcaster.Broadcast(ctx, event.MessageDelivered{
		ID:         msg.ID,
		Room:       msg.Room,
		AuthorID:   msg.AuthorID,
		AuthorName: msg.AuthorName,
		Content:    msg.Content,
		At:         msg.CreatedAt,
	})
	return msg, nil
}
