package repository

import (
	"context"
	"database/sql"
	"time"

	models "github.com/phulin/oy2-sub000/internal/passkey/model"
	"github.com/phulin/oy2-sub000/pkg/logger"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type CredentialRepository struct {
	db     *bun.DB
	logger *logger.Logger
}

var ErrCredentialNotFound = errors.New("credential not found")

func NewCredentialRepository(db *bun.DB, logger *logger.Logger) *CredentialRepository {
	return &CredentialRepository{
		db:     db,
		logger: logger,
	}
}

func (r *CredentialRepository) Create(ctx context.Context, cred *models.Credential) error {

	_, err := r.db.NewInsert().Model(cred).Returning("*").Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "credentialRepo.Create.Insert: ")
	}
	return nil
}

func (r *CredentialRepository) GetByCredentialID(ctx context.Context, credentialID []byte) (*models.Credential, error) {

	cred := new(models.Credential)
	err := r.db.NewSelect().Model(cred).Where("credential_id = ?", credentialID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCredentialNotFound
		}
		return nil, errors.Wrap(err, "credentialRepo.GetByCredentialID.Scan: ")
	}
	return cred, nil
}

func (r *CredentialRepository) CredentialIDExists(ctx context.Context, credentialID []byte) (bool, error) {

	exists, err := r.db.NewSelect().
		Model((*models.Credential)(nil)).
		Where("credential_id = ?", credentialID).
		Exists(ctx)
	if err != nil {
		return false, errors.Wrap(err, "credentialRepo.CredentialIDExists.Exists: ")
	}
	return exists, nil
}

func (r *CredentialRepository) ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]models.Credential, error) {

	var creds []models.Credential
	err := r.db.NewSelect().
		Model(&creds).
		Where("subject_id = ?", subjectID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "credentialRepo.ListBySubject.Scan: ")
	}
	return creds, nil
}

// UpdateSignCount is the replay gate: the counter moves only when it is still
// below the asserted value, or is zero (authenticators that never increment).
// The condition runs inside the UPDATE itself so two racing assertions for
// the same credential cannot both get through.
func (r *CredentialRepository) UpdateSignCount(ctx context.Context, id uuid.UUID, newCount uint32) (bool, error) {

	res, err := r.db.NewUpdate().
		Model((*models.Credential)(nil)).
		Set("sign_count = ?", newCount).
		Where("id = ?", id).
		Where("sign_count = 0 OR sign_count < ?", newCount).
		Exec(ctx)
	if err != nil {
		return false, errors.Wrap(err, "credentialRepo.UpdateSignCount.Exec: ")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "credentialRepo.UpdateSignCount.RowsAffected: ")
	}
	return n > 0, nil
}

func (r *CredentialRepository) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {

	_, err := r.db.NewUpdate().
		Model((*models.Credential)(nil)).
		Set("last_used_at = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "credentialRepo.TouchLastUsed.Exec: ")
	}
	return nil
}

func (r *CredentialRepository) UpdateDeviceLabel(ctx context.Context, subjectID, id uuid.UUID, label string) error {

	res, err := r.db.NewUpdate().
		Model((*models.Credential)(nil)).
		Set("device_label = ?", label).
		Where("id = ? AND subject_id = ?", id, subjectID).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "credentialRepo.UpdateDeviceLabel.Exec: ")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCredentialNotFound
	}
	return nil
}

func (r *CredentialRepository) DeleteBySubject(ctx context.Context, subjectID, id uuid.UUID) error {

	res, err := r.db.NewDelete().
		Model((*models.Credential)(nil)).
		Where("id = ? AND subject_id = ?", id, subjectID).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "credentialRepo.DeleteBySubject.Exec: ")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCredentialNotFound
	}
	return nil
}
