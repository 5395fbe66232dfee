package handler

import (
	"net/http"

	"go.uber.org/zap"

	"transparencia/internal/domain"
	"transparencia/internal/metrics"
	"transparencia/internal/rules"
)

var attachmentTypes = []domain.BiddingDocumentType{
	domain.DocTypeEdital, domain.DocTypeNotice, domain.DocTypeAnnex, domain.DocTypeMinutes,
	domain.DocTypeContract, domain.DocTypeAddendum, domain.DocTypeHomologationAct,
	domain.DocTypeAppealDecision, domain.DocTypeOther,
}

// TaxonomyHandler отдает справочники классификации для форм административной части
type TaxonomyHandler struct {
	responder
}

type taxonomyResponse struct {
	Categories            []rules.Category                              `json:"categories"`
	ProcurementCategories []rules.Category                              `json:"procurement_categories"`
	AttachmentPhases      map[domain.BiddingDocumentType][]domain.Phase `json:"attachment_phases"`
}

type ruleSetResponse struct {
	Category    string        `json:"category"`
	Subcategory string        `json:"subcategory"`
	Rules       rules.RuleSet `json:"rules"`
}

func NewTaxonomyHandler(m *metrics.Metrics, logger *zap.Logger) *TaxonomyHandler {
	return &TaxonomyHandler{
		responder: responder{logger: logger.With(zap.String("handler", "taxonomy")), metrics: m},
	}
}

func (h *TaxonomyHandler) GetTaxonomy(w http.ResponseWriter, r *http.Request) {
	phases := make(map[domain.BiddingDocumentType][]domain.Phase, len(attachmentTypes))
	for _, t := range attachmentTypes {
		phases[t] = rules.AllowedPhases(t)
	}
	writeJSON(w, http.StatusOK, taxonomyResponse{
		Categories:            rules.Categories(),
		ProcurementCategories: rules.ProcurementCategories(),
		AttachmentPhases:      phases,
	})
}

// GetRules - правила пары ?category=&subcategory=; пустая подкатегория дает значение по умолчанию
func (h *TaxonomyHandler) GetRules(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	subcategory, rs, err := rules.Resolve(category, r.URL.Query().Get("subcategory"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ruleSetResponse{Category: category, Subcategory: subcategory, Rules: rs})
}
