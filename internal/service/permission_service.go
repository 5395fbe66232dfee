package service

import (
	"transparencia/internal/domain"
)

// OperationType определяет тип операции административной части
type OperationType string

const (
	OperationCreateDocument         OperationType = "create documents"
	OperationUpdateDocument         OperationType = "update documents"
	OperationChangeDocumentStatus   OperationType = "publish or archive documents"
	OperationDeleteDocument         OperationType = "delete documents"
	OperationPromoteVersion         OperationType = "add document versions"
	OperationCreateBidding          OperationType = "create biddings"
	OperationUpdateBidding          OperationType = "update biddings"
	OperationChangeBiddingStatus    OperationType = "change bidding status"
	OperationDeleteBidding          OperationType = "delete biddings"
	OperationAddMovement            OperationType = "add bidding movements"
	OperationAddBiddingDocument     OperationType = "attach bidding documents"
	OperationPublishBiddingDocument OperationType = "publish bidding documents"
)

var rolePermissions = map[OperationType][]domain.Role{
	OperationCreateDocument:         {domain.RoleAdmin, domain.RoleEditor, domain.RoleAuthor},
	OperationUpdateDocument:         {domain.RoleAdmin, domain.RoleEditor, domain.RoleAuthor},
	OperationChangeDocumentStatus:   {domain.RoleAdmin, domain.RoleEditor},
	OperationDeleteDocument:         {domain.RoleAdmin, domain.RoleEditor},
	OperationPromoteVersion:         {domain.RoleAdmin, domain.RoleEditor},
	OperationCreateBidding:          {domain.RoleAdmin},
	OperationUpdateBidding:          {domain.RoleAdmin, domain.RoleEditor},
	OperationChangeBiddingStatus:    {domain.RoleAdmin, domain.RoleEditor},
	OperationDeleteBidding:          {domain.RoleAdmin},
	OperationAddMovement:            {domain.RoleAdmin, domain.RoleEditor},
	OperationAddBiddingDocument:     {domain.RoleAdmin, domain.RoleEditor},
	OperationPublishBiddingDocument: {domain.RoleAdmin},
}

// PermissionService проверяет роль вызывающего до любой бизнес-валидации
type PermissionService struct{}

func NewPermissionService() *PermissionService {
	return &PermissionService{}
}

// Check возвращает Unauthorized, если роли не разрешена операция
func (s *PermissionService) Check(caller domain.Caller, operation OperationType) error {
	if caller.ID == "" || !caller.Role.Valid() {
		return domain.Unauthorized(string(operation), caller.Role)
	}
	if !caller.HasAny(rolePermissions[operation]...) {
		return domain.Unauthorized(string(operation), caller.Role)
	}
	return nil
}

// CheckDocumentEdit - автор может править только черновики
func (s *PermissionService) CheckDocumentEdit(caller domain.Caller, doc *domain.Document) error {
	if err := s.Check(caller, OperationUpdateDocument); err != nil {
		return err
	}
	if caller.Role == domain.RoleAuthor && doc.Status != domain.DocumentStatusDraft {
		return domain.Unauthorized("update documents that are not drafts", caller.Role)
	}
	return nil
}
