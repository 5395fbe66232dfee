package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Коды ошибок PostgreSQL, которые переводятся в доменные ошибки
const (
	pqUniqueViolation      = pq.ErrorCode("23505")
	pqSerializationFailure = pq.ErrorCode("40001")
	pqDeadlockDetected     = pq.ErrorCode("40P01")
	pqLockNotAvailable     = pq.ErrorCode("55P03")
)

// Имена ограничений из migrations/000001_init.up.sql
const (
	constraintDocumentSlug      = "documents_slug_key"
	constraintDocumentNumber    = "documents_classification_number_idx"
	constraintVersionNumber     = "document_versions_document_id_version_number_key"
	constraintVersionHash       = "document_versions_document_id_file_hash_key"
	constraintVersionOneCurrent = "document_versions_one_current_idx"
	constraintBiddingNumber     = "biddings_number_key"
)

func uniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}

// isContention - транзакция проиграла конкурентной транзакции
func isContention(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code {
	case pqSerializationFailure, pqDeadlockDetected, pqLockNotAvailable:
		return true
	}
	return false
}
