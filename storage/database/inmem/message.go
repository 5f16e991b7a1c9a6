package inmemdb

import (
	"context"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/message"
)

type messageRepository struct {
	messages *table[message.Message]
	comments *table[message.Comment]
	likes    *table[message.Like]
}

func NewMessageRepository(db *DB) message.Repository {
	return &messageRepository{messages: db.messages, comments: db.comments, likes: db.likes}
}

func likeKey(messageID, userID string) string {
	return messageID + "/" + userID
}

func (repo *messageRepository) CreateMessage(_ context.Context, msg message.Message, _ ...core.DBExecutor) (message.Message, error) {
	msg.ID = newID()
	repo.messages.insert(msg.ID, msg, nil)
	return msg, nil
}

func (repo *messageRepository) QueryGroupMessages(_ context.Context, groupID string, _ ...core.DBExecutor) ([]message.Message, error) {
	msgs := repo.messages.filter(func(m message.Message) bool { return m.GroupID == groupID })
	sortRows(msgs, func(a, b message.Message) int {
		return cmpTimes(b.CreatedAt, a.CreatedAt)
	}, func(m message.Message) string { return m.ID })
	return msgs, nil
}

func (repo *messageRepository) GetMessageByID(_ context.Context, id string, _ ...core.DBExecutor) (message.Message, error) {
	if msg, ok := repo.messages.get(id); ok {
		return msg, nil
	}
	return message.Message{}, message.ErrNotFound
}

func (repo *messageRepository) DeleteMessage(_ context.Context, id string, _ ...core.DBExecutor) error {
	if !repo.messages.remove(id) {
		return message.ErrNotFound
	}
	repo.comments.removeWhere(func(c message.Comment) bool { return c.MessageID == id })
	repo.likes.removeWhere(func(l message.Like) bool { return l.MessageID == id })
	return nil
}

func (repo *messageRepository) CreateComment(_ context.Context, c message.Comment, _ ...core.DBExecutor) (message.Comment, error) {
	c.ID = newID()
	repo.comments.insert(c.ID, c, nil)
	return c, nil
}

func (repo *messageRepository) QueryComments(_ context.Context, messageID string, _ ...core.DBExecutor) ([]message.Comment, error) {
	comments := repo.comments.filter(func(c message.Comment) bool { return c.MessageID == messageID })
	sortRows(comments, func(a, b message.Comment) int {
		return cmpTimes(a.CreatedAt, b.CreatedAt)
	}, func(c message.Comment) string { return c.ID })
	return comments, nil
}

func (repo *messageRepository) CreateLike(_ context.Context, like message.Like, _ ...core.DBExecutor) error {
	key := likeKey(like.MessageID, like.UserID)
	conflicts := func(l message.Like) bool { return l.MessageID == like.MessageID && l.UserID == like.UserID }
	if !repo.likes.insert(key, like, conflicts) {
		return message.ErrAlreadyLiked
	}
	return nil
}

func (repo *messageRepository) DeleteLike(_ context.Context, messageID, userID string, _ ...core.DBExecutor) error {
	if !repo.likes.remove(likeKey(messageID, userID)) {
		return message.ErrLikeNotFound
	}
	return nil
}

func (repo *messageRepository) CountLikes(_ context.Context, messageID string, _ ...core.DBExecutor) (int, error) {
	return len(repo.likes.filter(func(l message.Like) bool { return l.MessageID == messageID })), nil
}
