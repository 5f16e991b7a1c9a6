package material

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/activity"
	"github.com/trezcool/ecole/core/group"
	"github.com/trezcool/ecole/core/subject"
)

var (
	ErrNotFound     = core.NewNotFoundError("material")
	ErrFileNotFound = core.NewNotFoundError("file")
)

type (
	Repository interface {
		CreateMaterial(ctx context.Context, m Material, exec ...core.DBExecutor) (Material, error)
		// QueryMaterials returns the materials matching filter, newest first.
		QueryMaterials(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]Material, error)
		GetMaterialByID(ctx context.Context, id string, exec ...core.DBExecutor) (Material, error)
		UpdateMaterial(ctx context.Context, m Material, exec ...core.DBExecutor) (Material, error)
		DeleteMaterial(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	// Storage stores material files.
	Storage interface {
		// Upload stores the content under key and returns the URL it can be reached at.
		Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
		// Download returns ErrFileNotFound when nothing is stored under key.
		Download(ctx context.Context, key string) (io.ReadCloser, error)
		Delete(ctx context.Context, key string) error
	}

	Service struct {
		repo       Repository
		groups     group.Repository
		subjects   subject.Repository
		files      Storage
		tx         core.Transactor
		activities activity.Repository
		logger     core.Logger
	}
)

func NewService(
	repo Repository,
	groups group.Repository,
	subjects subject.Repository,
	files Storage,
	tx core.Transactor,
	activities activity.Repository,
	logger core.Logger,
) *Service {
	return &Service{
		repo:       repo,
		groups:     groups,
		subjects:   subjects,
		files:      files,
		tx:         tx,
		activities: activities,
		logger:     logger,
	}
}

func (svc *Service) checkReferences(ctx context.Context, nm NewMaterial) error {
	if _, err := svc.groups.GetGroupByID(ctx, nm.GroupID); err != nil {
		return errors.Wrap(core.NewReferenceError(err, "groupId"), "getting group")
	}
	if _, err := svc.subjects.GetSubjectByID(ctx, nm.SubjectID); err != nil {
		return errors.Wrap(core.NewReferenceError(err, "subjectId"), "getting subject")
	}
	return nil
}

func (svc *Service) create(ctx context.Context, actorID string, m Material) (Material, error) {
	err := svc.tx.WithTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if m, err = svc.repo.CreateMaterial(ctx, m, exec); err != nil {
			return errors.Wrap(err, "creating material")
		}
		return activity.Record(ctx, svc.activities, exec, actorID, activity.ActionUploadMaterial, activity.EntityMaterial, m.ID,
			activity.Details{"title": m.Title, "fileType": m.FileType, "fileSize": m.FileSize},
		)
	})
	if err != nil {
		return Material{}, err
	}
	return m, nil
}

func newMaterial(actorID string, nm NewMaterial) Material {
	return Material{
		Title:       nm.Title,
		Description: nm.Description,
		FileName:    nm.FileName,
		FileURL:     nm.FileURL,
		FileType:    nm.FileType,
		FileSize:    nm.FileSize,
		GroupID:     nm.GroupID,
		SubjectID:   nm.SubjectID,
		UploadedBy:  actorID,
		IsVisible:   core.BoolValue(nm.IsVisible, true),
		CreatedAt:   core.Now(),
	}
}

// Create registers a material whose file is hosted at nm.FileURL.
func (svc *Service) Create(ctx context.Context, actorID string, nm NewMaterial) (Material, error) {
	if nm.FileURL == "" {
		return Material{}, core.NewValidationError(nil, core.FieldError{Field: "fileUrl", Error: errFileURLRequired})
	}
	if err := svc.checkReferences(ctx, nm); err != nil {
		return Material{}, err
	}
	return svc.create(ctx, actorID, newMaterial(actorID, nm))
}

// Upload stores content in the file storage and registers the material.
// The stored file is removed if the material cannot be registered.
func (svc *Service) Upload(ctx context.Context, actorID string, nm NewMaterial, content io.Reader) (Material, error) {
	if err := svc.checkReferences(ctx, nm); err != nil {
		return Material{}, err
	}

	m := newMaterial(actorID, nm)
	m.FileKey = path.Join("materials", nm.GroupID, uuid.NewString(), path.Base(nm.FileName))
	url, err := svc.files.Upload(ctx, m.FileKey, content, nm.FileSize, nm.FileType)
	if err != nil {
		return Material{}, errors.Wrap(err, "uploading file")
	}
	m.FileURL = url

	created, err := svc.create(ctx, actorID, m)
	if err != nil {
		svc.removeFile(ctx, m.FileKey)
		return Material{}, err
	}
	return created, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Material, error) {
	return svc.repo.QueryMaterials(ctx, filter)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Material, error) {
	return svc.repo.GetMaterialByID(ctx, id)
}

// Open returns the content of an uploaded material. It returns ErrFileNotFound for materials linking to an external URL.
func (svc *Service) Open(ctx context.Context, m Material) (io.ReadCloser, error) {
	if m.FileKey == "" {
		return nil, ErrFileNotFound
	}
	return svc.files.Download(ctx, m.FileKey)
}

func (svc *Service) Update(ctx context.Context, actorID, id string, um UpdateMaterial) (Material, error) {
	m, err := svc.repo.GetMaterialByID(ctx, id)
	if err != nil {
		return Material{}, err
	}
	m = um.Merge(m)

	err = svc.tx.WithTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if m, err = svc.repo.UpdateMaterial(ctx, m, exec); err != nil {
			return errors.Wrap(err, "updating material")
		}
		return activity.Record(ctx, svc.activities, exec, actorID, activity.ActionUpdateMaterial, activity.EntityMaterial, m.ID,
			activity.Details{"updates": um},
		)
	})
	if err != nil {
		return Material{}, err
	}
	return m, nil
}

func (svc *Service) Delete(ctx context.Context, actorID, id string) error {
	m, err := svc.repo.GetMaterialByID(ctx, id)
	if err != nil {
		return err
	}

	err = svc.tx.WithTx(ctx, func(exec core.DBExecutor) error {
		if err := svc.repo.DeleteMaterial(ctx, id, exec); err != nil {
			return errors.Wrap(err, "deleting material")
		}
		return activity.Record(ctx, svc.activities, exec, actorID, activity.ActionDeleteMaterial, activity.EntityMaterial, id,
			activity.Details{"title": m.Title, "deletedAt": core.Now()},
		)
	})
	if err != nil {
		return err
	}

	svc.removeFile(ctx, m.FileKey)
	return nil
}

func (svc *Service) removeFile(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := svc.files.Delete(ctx, key); err != nil {
		svc.logger.Error(fmt.Sprintf("deleting material file %q: %v", key, err), err)
	}
}
