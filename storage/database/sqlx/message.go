package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/message"
)

const (
	messageColumns = `id, group_id, author_id, title, content, is_important, created_at`
	commentColumns = `id, message_id, author_id, content, created_at`
)

type messageRow struct {
	ID          string    `db:"id"`
	GroupID     string    `db:"group_id"`
	AuthorID    string    `db:"author_id"`
	Title       string    `db:"title"`
	Content     string    `db:"content"`
	IsImportant bool      `db:"is_important"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r messageRow) toMessage() message.Message {
	return message.Message{
		ID:          r.ID,
		GroupID:     r.GroupID,
		AuthorID:    r.AuthorID,
		Title:       r.Title,
		Content:     r.Content,
		IsImportant: r.IsImportant,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

type commentRow struct {
	ID        string    `db:"id"`
	MessageID string    `db:"message_id"`
	AuthorID  string    `db:"author_id"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

func (r commentRow) toComment() message.Comment {
	return message.Comment{
		ID:        r.ID,
		MessageID: r.MessageID,
		AuthorID:  r.AuthorID,
		Content:   r.Content,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) message.Repository {
	return &messageRepository{db: db}
}

func (repo *messageRepository) CreateMessage(ctx context.Context, msg message.Message, exec ...core.DBExecutor) (message.Message, error) {
	msg.ID = newID()
	row := messageRow{
		ID:          msg.ID,
		GroupID:     msg.GroupID,
		AuthorID:    msg.AuthorID,
		Title:       msg.Title,
		Content:     msg.Content,
		IsImportant: msg.IsImportant,
		CreatedAt:   msg.CreatedAt,
	}
	q := `INSERT INTO group_messages (` + messageColumns + `)
		VALUES (:id, :group_id, :author_id, :title, :content, :is_important, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, executor(repo.db, exec), q, row); err != nil {
		return message.Message{}, errors.Wrap(err, "inserting message")
	}
	return msg, nil
}

func (repo *messageRepository) QueryGroupMessages(ctx context.Context, groupID string, exec ...core.DBExecutor) ([]message.Message, error) {
	var rows []messageRow
	q := `SELECT ` + messageColumns + ` FROM group_messages WHERE group_id = $1 ORDER BY created_at DESC, id`
	if err := sqlx.SelectContext(ctx, executor(repo.db, exec), &rows, q, groupID); err != nil {
		return nil, errors.Wrap(err, "selecting messages")
	}
	msgs := make([]message.Message, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, r.toMessage())
	}
	return msgs, nil
}

func (repo *messageRepository) GetMessageByID(ctx context.Context, id string, exec ...core.DBExecutor) (message.Message, error) {
	var r messageRow
	q := `SELECT ` + messageColumns + ` FROM group_messages WHERE id = $1`
	if err := sqlx.GetContext(ctx, executor(repo.db, exec), &r, q, id); err != nil {
		return message.Message{}, trapNoRowsErr(err, message.ErrNotFound)
	}
	return r.toMessage(), nil
}

func (repo *messageRepository) DeleteMessage(ctx context.Context, id string, exec ...core.DBExecutor) error {
	ext := executor(repo.db, exec)
	res, err := ext.ExecContext(ctx, `DELETE FROM group_messages WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting message")
	}
	if err = checkAffected(res, message.ErrNotFound); err != nil {
		return err
	}
	if _, err = ext.ExecContext(ctx, `DELETE FROM message_comments WHERE message_id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting message comments")
	}
	if _, err = ext.ExecContext(ctx, `DELETE FROM message_likes WHERE message_id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting message likes")
	}
	return nil
}

func (repo *messageRepository) CreateComment(ctx context.Context, c message.Comment, exec ...core.DBExecutor) (message.Comment, error) {
	c.ID = newID()
	row := commentRow{
		ID:        c.ID,
		MessageID: c.MessageID,
		AuthorID:  c.AuthorID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
	q := `INSERT INTO message_comments (` + commentColumns + `)
		VALUES (:id, :message_id, :author_id, :content, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, executor(repo.db, exec), q, row); err != nil {
		return message.Comment{}, errors.Wrap(err, "inserting comment")
	}
	return c, nil
}

func (repo *messageRepository) QueryComments(ctx context.Context, messageID string, exec ...core.DBExecutor) ([]message.Comment, error) {
	var rows []commentRow
	q := `SELECT ` + commentColumns + ` FROM message_comments WHERE message_id = $1 ORDER BY created_at, id`
	if err := sqlx.SelectContext(ctx, executor(repo.db, exec), &rows, q, messageID); err != nil {
		return nil, errors.Wrap(err, "selecting comments")
	}
	comments := make([]message.Comment, 0, len(rows))
	for _, r := range rows {
		comments = append(comments, r.toComment())
	}
	return comments, nil
}

func (repo *messageRepository) CreateLike(ctx context.Context, like message.Like, exec ...core.DBExecutor) error {
	q := `INSERT INTO message_likes (message_id, user_id, created_at) VALUES ($1, $2, $3)`
	if _, err := executor(repo.db, exec).ExecContext(ctx, q, like.MessageID, like.UserID, like.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return message.ErrAlreadyLiked
		}
		return errors.Wrap(err, "inserting like")
	}
	return nil
}

func (repo *messageRepository) DeleteLike(ctx context.Context, messageID, userID string, exec ...core.DBExecutor) error {
	q := `DELETE FROM message_likes WHERE message_id = $1 AND user_id = $2`
	res, err := executor(repo.db, exec).ExecContext(ctx, q, messageID, userID)
	if err != nil {
		return errors.Wrap(err, "deleting like")
	}
	return checkAffected(res, message.ErrLikeNotFound)
}

func (repo *messageRepository) CountLikes(ctx context.Context, messageID string, exec ...core.DBExecutor) (int, error) {
	var n int
	q := `SELECT COUNT(*) FROM message_likes WHERE message_id = $1`
	if err := sqlx.GetContext(ctx, executor(repo.db, exec), &n, q, messageID); err != nil {
		return 0, errors.Wrap(err, "counting likes")
	}
	return n, nil
}
