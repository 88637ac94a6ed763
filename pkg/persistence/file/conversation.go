package file

import (
	"context"

	"github.com/prodflow/prodflow/pkg/models"
	"github.com/prodflow/prodflow/pkg/persistence"
)

// conversationDocument holds a conversation together with its message log in
// one file, keeping the append order on disk identical to creation order.
type conversationDocument struct {
	Conversation models.Conversation `json:"conversation"`
	Messages     []*models.Message   `json:"messages"`
}

func (p *Persistence) SaveConversation(_ context.Context, conversation *models.Conversation) error {
	doc := conversationDocument{Conversation: *conversation}

	var existing conversationDocument
	if err := p.read(conversationsDir, conversation.ID, &existing, persistence.ErrConversationNotFound); err == nil {
		doc.Messages = existing.Messages
	}

	return p.write(conversationsDir, conversation.ID, &doc)
}

func (p *Persistence) ConversationByID(_ context.Context, id string) (*models.Conversation, error) {
	var doc conversationDocument
	if err := p.read(conversationsDir, id, &doc, persistence.ErrConversationNotFound); err != nil {
		return nil, err
	}

	return &doc.Conversation, nil
}

func (p *Persistence) AppendMessage(_ context.Context, message *models.Message) error {
	var doc conversationDocument
	if err := p.read(conversationsDir, message.ConversationID, &doc, persistence.ErrConversationNotFound); err != nil {
		return err
	}

	doc.Messages = append(doc.Messages, message)

	return p.write(conversationsDir, message.ConversationID, &doc)
}

func (p *Persistence) Messages(_ context.Context, conversationID string) ([]*models.Message, error) {
	var doc conversationDocument
	if err := p.read(conversationsDir, conversationID, &doc, persistence.ErrConversationNotFound); err != nil {
		return nil, err
	}

	if doc.Messages == nil {
		return []*models.Message{}, nil
	}

	return doc.Messages, nil
}
