package message

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ecole/core"
)

// Message is a post on a group board.
type Message struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"groupId"`
	AuthorID    string    `json:"authorId"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	IsImportant bool      `json:"isImportant"`
	CreatedAt   time.Time `json:"createdAt"` // UTC
}

type Comment struct {
	ID        string    `json:"id"`
	MessageID string    `json:"messageId"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"` // UTC
}

type Like struct {
	MessageID string    `json:"messageId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"` // UTC
}

type NewMessage struct {
	Title       string `json:"title" validate:"required,notblank,max=200"`
	Content     string `json:"content" validate:"required,notblank"`
	IsImportant bool   `json:"isImportant"`
}

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	nm.Content = core.CleanString(nm.Content)
	return validate.Struct(nm)
}

type NewComment struct {
	Content string `json:"content" validate:"required,notblank"`
}

func (nc *NewComment) Validate(validate *validator.Validate) error {
	nc.Content = core.CleanString(nc.Content)
	return validate.Struct(nc)
}
