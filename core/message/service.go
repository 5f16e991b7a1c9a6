package message

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/activity"
	"github.com/trezcool/ecole/core/group"
)

var (
	ErrNotFound     = core.NewNotFoundError("message")
	ErrLikeNotFound = core.NewNotFoundError("like")
	ErrAlreadyLiked = errors.New("message already liked")
)

type (
	Repository interface {
		CreateMessage(ctx context.Context, msg Message, exec ...core.DBExecutor) (Message, error)
		// QueryGroupMessages returns the messages of a group, newest first.
		QueryGroupMessages(ctx context.Context, groupID string, exec ...core.DBExecutor) ([]Message, error)
		GetMessageByID(ctx context.Context, id string, exec ...core.DBExecutor) (Message, error)
		// DeleteMessage deletes a message along with its comments and likes.
		DeleteMessage(ctx context.Context, id string, exec ...core.DBExecutor) error

		CreateComment(ctx context.Context, c Comment, exec ...core.DBExecutor) (Comment, error)
		// QueryComments returns the comments of a message, oldest first.
		QueryComments(ctx context.Context, messageID string, exec ...core.DBExecutor) ([]Comment, error)

		// CreateLike returns ErrAlreadyLiked when the user already likes the message.
		CreateLike(ctx context.Context, like Like, exec ...core.DBExecutor) error
		// DeleteLike returns ErrLikeNotFound when the user does not like the message.
		DeleteLike(ctx context.Context, messageID, userID string, exec ...core.DBExecutor) error
		CountLikes(ctx context.Context, messageID string, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		repo       Repository
		groups     group.Repository
		tx         core.Transactor
		activities activity.Repository
	}
)

func NewService(repo Repository, groups group.Repository, tx core.Transactor, activities activity.Repository) *Service {
	return &Service{repo: repo, groups: groups, tx: tx, activities: activities}
}

func (svc *Service) QueryGroupMessages(ctx context.Context, groupID string) ([]Message, error) {
	if _, err := svc.groups.GetGroupByID(ctx, groupID); err != nil {
		return nil, err
	}
	return svc.repo.QueryGroupMessages(ctx, groupID)
}

func (svc *Service) Create(ctx context.Context, actorID, groupID string, nm NewMessage) (Message, error) {
	if _, err := svc.groups.GetGroupByID(ctx, groupID); err != nil {
		return Message{}, err
	}
	msg := Message{
		GroupID:     groupID,
		AuthorID:    actorID,
		Title:       nm.Title,
		Content:     nm.Content,
		IsImportant: nm.IsImportant,
		CreatedAt:   core.Now(),
	}

	err := svc.tx.WithTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if msg, err = svc.repo.CreateMessage(ctx, msg, exec); err != nil {
			return errors.Wrap(err, "creating message")
		}
		return activity.Record(ctx, svc.activities, exec, actorID, activity.ActionCreateMessage, activity.EntityMessage, msg.ID,
			activity.Details{"groupId": groupID, "title": msg.Title},
		)
	})
	if err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Delete removes a message. Only its author or an admin may delete it.
func (svc *Service) Delete(ctx context.Context, actorID string, actorIsAdmin bool, id string) error {
	msg, err := svc.repo.GetMessageByID(ctx, id)
	if err != nil {
		return err
	}
	if !actorIsAdmin && msg.AuthorID != actorID {
		return core.ErrPermissionDenied
	}

	return svc.tx.WithTx(ctx, func(exec core.DBExecutor) error {
		if err := svc.repo.DeleteMessage(ctx, id, exec); err != nil {
			return errors.Wrap(err, "deleting message")
		}
		return activity.Record(ctx, svc.activities, exec, actorID, activity.ActionDeleteMessage, activity.EntityMessage, id,
			activity.Details{"groupId": msg.GroupID},
		)
	})
}

func (svc *Service) QueryComments(ctx context.Context, messageID string) ([]Comment, error) {
	if _, err := svc.repo.GetMessageByID(ctx, messageID); err != nil {
		return nil, err
	}
	return svc.repo.QueryComments(ctx, messageID)
}

func (svc *Service) Comment(ctx context.Context, actorID, messageID string, nc NewComment) (Comment, error) {
	if _, err := svc.repo.GetMessageByID(ctx, messageID); err != nil {
		return Comment{}, err
	}
	c := Comment{
		MessageID: messageID,
		AuthorID:  actorID,
		Content:   nc.Content,
		CreatedAt: core.Now(),
	}

	err := svc.tx.WithTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if c, err = svc.repo.CreateComment(ctx, c, exec); err != nil {
			return errors.Wrap(err, "creating comment")
		}
		return activity.Record(ctx, svc.activities, exec, actorID, activity.ActionCreateComment, activity.EntityComment, c.ID,
			activity.Details{"messageId": messageID},
		)
	})
	if err != nil {
		return Comment{}, err
	}
	return c, nil
}

// Like adds actorID's like to a message and returns the new like count.
func (svc *Service) Like(ctx context.Context, actorID, messageID string) (int, error) {
	if _, err := svc.repo.GetMessageByID(ctx, messageID); err != nil {
		return 0, err
	}

	var count int
	err := svc.tx.WithTx(ctx, func(exec core.DBExecutor) error {
		like := Like{MessageID: messageID, UserID: actorID, CreatedAt: core.Now()}
		if err := svc.repo.CreateLike(ctx, like, exec); err != nil {
			if errors.Cause(err) == ErrAlreadyLiked {
				return core.NewValidationError(ErrAlreadyLiked)
			}
			return errors.Wrap(err, "creating like")
		}
		if err := activity.Record(ctx, svc.activities, exec, actorID, activity.ActionLikeMessage, activity.EntityMessage, messageID, nil); err != nil {
			return err
		}
		var err error
		count, err = svc.repo.CountLikes(ctx, messageID, exec)
		return errors.Wrap(err, "counting likes")
	})
	return count, err
}

// Unlike removes actorID's like from a message and returns the new like count.
func (svc *Service) Unlike(ctx context.Context, actorID, messageID string) (int, error) {
	if _, err := svc.repo.GetMessageByID(ctx, messageID); err != nil {
		return 0, err
	}

	var count int
	err := svc.tx.WithTx(ctx, func(exec core.DBExecutor) error {
		if err := svc.repo.DeleteLike(ctx, messageID, actorID, exec); err != nil {
			return errors.Wrap(err, "deleting like")
		}
		if err := activity.Record(ctx, svc.activities, exec, actorID, activity.ActionUnlikeMessage, activity.EntityMessage, messageID, nil); err != nil {
			return err
		}
		var err error
		count, err = svc.repo.CountLikes(ctx, messageID, exec)
		return errors.Wrap(err, "counting likes")
	})
	return count, err
}
