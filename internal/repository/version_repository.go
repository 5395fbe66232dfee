package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"transparencia/internal/domain"
)

const versionColumns = `id, document_id, version_number, identification_number, approval_date,
        change_description, file_ref, file_size, file_hash, mime_type, is_current, created_by, created_at`

type VersionRepository struct {
	db *sqlx.DB
}

func NewVersionRepository(db *sqlx.DB) *VersionRepository {
	return &VersionRepository{db: db}
}

// Promote добавляет новую версию и делает ее действующей. Все шаги в одной транзакции:
// блокировка документа, max+1, снятие флага со старой версии, вставка новой, перенос указателя
func (r *VersionRepository) Promote(ctx context.Context, version *domain.DocumentVersion) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 1. Блокируем строку документа, чтобы параллельные продвижения шли последовательно
	var locked uuid.UUID
	err = tx.GetContext(ctx, &locked, `SELECT id FROM documents WHERE id = $1 FOR UPDATE`, version.DocumentID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DocumentNotFound(version.DocumentID.String())
	}
	if err != nil {
		return translateVersionError(err, version)
	}

	// 2. Следующий номер версии
	err = tx.GetContext(ctx, &version.VersionNumber,
		`SELECT COALESCE(MAX(version_number), 0) + 1 FROM document_versions WHERE document_id = $1`,
		version.DocumentID)
	if err != nil {
		return fmt.Errorf("failed to compute version number: %w", err)
	}

	// 3. Снимаем флаг с действующей версии
	_, err = tx.ExecContext(ctx,
		`UPDATE document_versions SET is_current = FALSE WHERE document_id = $1 AND is_current`,
		version.DocumentID)
	if err != nil {
		return fmt.Errorf("failed to demote current version: %w", err)
	}

	// 4. Вставляем новую действующую версию
	query := `
        INSERT INTO document_versions (
            id, document_id, version_number, identification_number, approval_date,
            change_description, file_ref, file_size, file_hash, mime_type, is_current, created_by
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE, $11)
        RETURNING created_at`

	err = tx.QueryRowContext(ctx, query,
		version.ID,
		version.DocumentID,
		version.VersionNumber,
		version.IdentificationNumber,
		version.ApprovalDate,
		version.ChangeDescription,
		version.FileRef,
		version.FileSize,
		version.FileHash,
		version.MimeType,
		version.CreatedBy,
	).Scan(&version.CreatedAt)
	if err != nil {
		return translateVersionError(err, version)
	}

	// 5. Переносим указатель документа
	_, err = tx.ExecContext(ctx, `
        UPDATE documents
        SET current_version_id = $1,
            revision = revision + 1,
            updated_at = CURRENT_TIMESTAMP
        WHERE id = $2`,
		version.ID, version.DocumentID)
	if err != nil {
		return fmt.Errorf("failed to update current version pointer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return translateVersionError(err, version)
	}

	version.IsCurrent = true
	return nil
}

// HashExists проверяет, загружался ли уже такой файл для документа
func (r *VersionRepository) HashExists(ctx context.Context, documentID uuid.UUID, hash string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM document_versions WHERE document_id = $1 AND file_hash = $2)`,
		documentID, hash)
	if err != nil {
		return false, fmt.Errorf("failed to check file hash: %w", err)
	}
	return exists, nil
}

// ListByDocument возвращает версии документа, новые первыми
func (r *VersionRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.DocumentVersion, error) {
	var versions []domain.DocumentVersion
	query := `SELECT ` + versionColumns + ` FROM document_versions WHERE document_id = $1 ORDER BY version_number DESC`
	if err := r.db.SelectContext(ctx, &versions, query, documentID); err != nil {
		return nil, fmt.Errorf("failed to get document versions: %w", err)
	}
	return versions, nil
}

// GetCurrent возвращает действующую версию; nil, если версий еще нет
func (r *VersionRepository) GetCurrent(ctx context.Context, documentID uuid.UUID) (*domain.DocumentVersion, error) {
	var version domain.DocumentVersion
	query := `SELECT ` + versionColumns + ` FROM document_versions WHERE document_id = $1 AND is_current`
	err := r.db.GetContext(ctx, &version, query, documentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current version: %w", err)
	}
	return &version, nil
}

// ListCurrent возвращает по одной действующей версии на документ
func (r *VersionRepository) ListCurrent(ctx context.Context) ([]domain.DocumentVersion, error) {
	var versions []domain.DocumentVersion
	query := `SELECT ` + versionColumns + ` FROM document_versions WHERE is_current ORDER BY document_id`
	if err := r.db.SelectContext(ctx, &versions, query); err != nil {
		return nil, fmt.Errorf("failed to get current versions: %w", err)
	}
	return versions, nil
}

func translateVersionError(err error, version *domain.DocumentVersion) error {
	if constraint, ok := uniqueViolation(err); ok {
		switch constraint {
		case constraintVersionHash:
			return domain.DuplicateUpload(version.DocumentID.String(), version.FileHash)
		case constraintVersionNumber, constraintVersionOneCurrent:
			return domain.ConcurrentModification("document version")
		}
	}
	if isContention(err) {
		return domain.ConcurrentModification("document version")
	}
	return fmt.Errorf("failed to promote version: %w", err)
}
