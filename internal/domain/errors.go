package domain

import (
	"errors"
	"fmt"
)

// Kind определяет тип ошибки бизнес-правила
type Kind string

const (
	KindInvalidTaxonomy           Kind = "InvalidTaxonomy"
	KindMissingRequiredField      Kind = "MissingRequiredField"
	KindInvalidField              Kind = "InvalidField"
	KindDuplicateDocument         Kind = "DuplicateDocument"
	KindDuplicateUpload           Kind = "DuplicateUpload"
	KindDuplicateBidding          Kind = "DuplicateBidding"
	KindStructuralChangeForbidden Kind = "StructuralChangeForbidden"
	KindDocumentNotFound          Kind = "DocumentNotFound"
	KindBiddingNotFound           Kind = "BiddingNotFound"
	KindBiddingDocumentNotFound   Kind = "BiddingDocumentNotFound"
	KindIncompleteAwardData       Kind = "IncompleteAwardData"
	KindDeletionForbidden         Kind = "DeletionForbidden"
	KindInvalidStatusTransition   Kind = "InvalidStatusTransition"
	KindInvalidPhaseForType       Kind = "InvalidPhaseForType"
	KindInvalidAnnexNumber        Kind = "InvalidAnnexNumber"
	KindConcurrentModification    Kind = "ConcurrentModification"
	KindUnauthorized              Kind = "Unauthorized"
)

// Error - структурированная ошибка (kind, message, details)
type Error struct {
	Kind    Kind           `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is сравнивает ошибки по Kind, чтобы работал errors.Is(err, domain.ErrX)
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Эталонные ошибки для errors.Is
var (
	ErrInvalidTaxonomy           = &Error{Kind: KindInvalidTaxonomy}
	ErrMissingRequiredField      = &Error{Kind: KindMissingRequiredField}
	ErrInvalidField              = &Error{Kind: KindInvalidField}
	ErrDuplicateDocument         = &Error{Kind: KindDuplicateDocument}
	ErrDuplicateUpload           = &Error{Kind: KindDuplicateUpload}
	ErrDuplicateBidding          = &Error{Kind: KindDuplicateBidding}
	ErrStructuralChangeForbidden = &Error{Kind: KindStructuralChangeForbidden}
	ErrDocumentNotFound          = &Error{Kind: KindDocumentNotFound}
	ErrBiddingNotFound           = &Error{Kind: KindBiddingNotFound}
	ErrBiddingDocumentNotFound   = &Error{Kind: KindBiddingDocumentNotFound}
	ErrIncompleteAwardData       = &Error{Kind: KindIncompleteAwardData}
	ErrDeletionForbidden         = &Error{Kind: KindDeletionForbidden}
	ErrInvalidStatusTransition   = &Error{Kind: KindInvalidStatusTransition}
	ErrInvalidPhaseForType       = &Error{Kind: KindInvalidPhaseForType}
	ErrInvalidAnnexNumber        = &Error{Kind: KindInvalidAnnexNumber}
	ErrConcurrentModification    = &Error{Kind: KindConcurrentModification}
	ErrUnauthorized              = &Error{Kind: KindUnauthorized}
)

func newError(kind Kind, message string, details map[string]any) *Error {
	return &Error{Kind: kind, Message: message, Details: details}
}

func InvalidTaxonomy(category, subcategory string) *Error {
	return newError(KindInvalidTaxonomy,
		fmt.Sprintf("subcategory %q is not valid for category %q", subcategory, category),
		map[string]any{"category": category, "subcategory": subcategory})
}

func UnknownCategory(category string) *Error {
	return newError(KindInvalidTaxonomy,
		fmt.Sprintf("unknown category %q", category),
		map[string]any{"category": category})
}

func MissingRequiredField(field string) *Error {
	return newError(KindMissingRequiredField,
		fmt.Sprintf("field %s is required", field),
		map[string]any{"field": field})
}

func InvalidField(field, reason string) *Error {
	return newError(KindInvalidField,
		fmt.Sprintf("field %s is invalid: %s", field, reason),
		map[string]any{"field": field, "reason": reason})
}

// DuplicateDocument сообщает id существующего документа и поддерживает ли его тип версии,
// чтобы клиент мог предложить "добавить версию" вместо нового документа
func DuplicateDocument(existingID string, versionable bool) *Error {
	return newError(KindDuplicateDocument,
		"a document with the same category, subcategory, year and number already exists",
		map[string]any{"existing_id": existingID, "versionable": versionable})
}

func DuplicateUpload(documentID, hash string) *Error {
	return newError(KindDuplicateUpload,
		"this file was already uploaded as a version of the document",
		map[string]any{"document_id": documentID, "file_hash": hash})
}

func DuplicateBidding(number string) *Error {
	return newError(KindDuplicateBidding,
		fmt.Sprintf("bidding %s already exists", number),
		map[string]any{"number": number})
}

func StructuralChangeForbidden(field string) *Error {
	return newError(KindStructuralChangeForbidden,
		"classification of a published document with a current version cannot change; create a new document instead",
		map[string]any{"field": field})
}

func DocumentNotFound(id string) *Error {
	return newError(KindDocumentNotFound, "document not found", map[string]any{"id": id})
}

func BiddingNotFound(id string) *Error {
	return newError(KindBiddingNotFound, "bidding not found", map[string]any{"id": id})
}

func BiddingDocumentNotFound(id string) *Error {
	return newError(KindBiddingDocumentNotFound, "bidding document not found", map[string]any{"id": id})
}

func IncompleteAwardData(status BiddingStatus, missing []string) *Error {
	return newError(KindIncompleteAwardData,
		fmt.Sprintf("status %s requires winner and finalValue", status),
		map[string]any{"status": string(status), "missing": missing})
}

func DeletionForbidden(reason string) *Error {
	return newError(KindDeletionForbidden, reason, nil)
}

func InvalidStatusTransition(from, to string) *Error {
	return newError(KindInvalidStatusTransition,
		fmt.Sprintf("cannot change status from %s to %s", from, to),
		map[string]any{"from": from, "to": to})
}

func InvalidPhaseForType(docType BiddingDocumentType, phase Phase, allowed []Phase) *Error {
	return newError(KindInvalidPhaseForType,
		fmt.Sprintf("document type %s is not allowed in phase %s", docType, phase),
		map[string]any{"document_type": string(docType), "phase": string(phase), "allowed_phases": allowed})
}

func InvalidAnnexNumber(reason string) *Error {
	return newError(KindInvalidAnnexNumber, reason, map[string]any{"field": "annex_number"})
}

func ConcurrentModification(resource string) *Error {
	return newError(KindConcurrentModification,
		fmt.Sprintf("%s was modified concurrently, retry the operation", resource),
		map[string]any{"resource": resource})
}

func Unauthorized(action string, role Role) *Error {
	return newError(KindUnauthorized,
		fmt.Sprintf("role %s is not allowed to %s", role, action),
		map[string]any{"action": action})
}
