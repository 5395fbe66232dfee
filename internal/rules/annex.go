package rules

import (
	"transparencia/internal/domain"
)

// Допустимые фазы для типов вложений; отсутствие в карте - любая фаза
var phasesByType = map[domain.BiddingDocumentType][]domain.Phase{
	domain.DocTypeEdital:          {domain.PhaseOpening},
	domain.DocTypeNotice:          {domain.PhaseOpening},
	domain.DocTypeAppealDecision:  {domain.PhaseAppeal},
	domain.DocTypeHomologationAct: {domain.PhaseHomologation},
	domain.DocTypeContract:        {domain.PhaseContracting},
	domain.DocTypeAddendum:        {domain.PhaseContracting, domain.PhaseExecution},
	domain.DocTypeMinutes: {
		domain.PhaseOpening, domain.PhaseInquiries, domain.PhaseJudgment,
		domain.PhaseAppeal, domain.PhaseHomologation,
	},
}

// AllowedPhases возвращает фазы, в которых допустим тип вложения
func AllowedPhases(docType domain.BiddingDocumentType) []domain.Phase {
	if phases, ok := phasesByType[docType]; ok {
		return phases
	}
	return domain.AllPhases()
}

// ValidateDocumentType проверяет сочетание типа вложения и фазы закупки
func ValidateDocumentType(docType domain.BiddingDocumentType, phase domain.Phase) error {
	if !docType.Valid() {
		return domain.InvalidField("document_type", "unknown document type "+string(docType))
	}
	if !phase.Valid() {
		return domain.InvalidField("phase", "unknown phase "+string(phase))
	}
	allowed := AllowedPhases(docType)
	for _, p := range allowed {
		if p == phase {
			return nil
		}
	}
	return domain.InvalidPhaseForType(docType, phase, allowed)
}

// ValidateAnnexNumber: номер приложения обязателен только для ANNEX
func ValidateAnnexNumber(docType domain.BiddingDocumentType, annexNumber *int) error {
	if docType == domain.DocTypeAnnex {
		if annexNumber == nil {
			return domain.InvalidAnnexNumber("annexNumber is required for annexes")
		}
		if *annexNumber <= 0 {
			return domain.InvalidAnnexNumber("annexNumber must be a positive integer")
		}
		return nil
	}
	if annexNumber != nil {
		return domain.InvalidAnnexNumber("annexNumber is only allowed for annexes")
	}
	return nil
}
