// Package rules содержит чистые правила классификации документов и вложений закупок.
package rules

import (
	"transparencia/internal/domain"
)

// Field - имя поля документа, как его видит клиент
type Field string

const (
	FieldTitle                 Field = "title"
	FieldShortDescription      Field = "short_description"
	FieldIssuingBody           Field = "issuing_body"
	FieldDocumentNumber        Field = "document_number"
	FieldCounterpartyOrPartner Field = "counterparty_or_partner"
	FieldGlobalValue           Field = "global_value"
	FieldValidityMonths        Field = "validity_months"
	FieldValidityStart         Field = "validity_start"
	FieldValidityEnd           Field = "validity_end"
	FieldPeriod                Field = "period"
	FieldYear                  Field = "year"
	FieldDocumentDate          Field = "document_date"
	FieldSituation             Field = "situation"
)

// Категории документов
const (
	CategoryInternalRegulations   = "INTERNAL_REGULATIONS"
	CategoryContractsPartnerships = "CONTRACTS_PARTNERSHIPS"
	CategoryAccountability        = "ACCOUNTABILITY"
	CategoryOfficialActs          = "OFFICIAL_ACTS"
	CategoryInstitutional         = "INSTITUTIONAL"
)

// Категории раздела закупок
const (
	ProcurementCategoryPlanning    = "PROCUREMENT_PLANNING"
	ProcurementCategoryContracts   = "PROCUREMENT_CONTRACTS"
	ProcurementCategoryRegulations = "PROCUREMENT_REGULATIONS"
)

const SubcategoryInstitutionalPartnership = "Institutional Partnership"

// RuleSet - набор правил для пары (категория, подкатегория)
type RuleSet struct {
	Required    []Field  `json:"required"`
	Visible     []Field  `json:"visible"`
	Versionable bool     `json:"versionable"`
	Situations  []string `json:"situations,omitempty"`
}

// Category описывает категорию и ее подкатегории; первая подкатегория - значение по умолчанию
type Category struct {
	Name          string   `json:"name"`
	Subcategories []string `json:"subcategories"`
}

type categoryDef struct {
	name          string
	subcategories []string
	base          RuleSet
	overrides     map[string]RuleSet
}

var baseVisible = []Field{FieldTitle, FieldShortDescription, FieldYear, FieldDocumentDate}

var definitions = []categoryDef{
	{
		name:          CategoryInternalRegulations,
		subcategories: []string{"Bylaws", "Internal Rules", "Resolution", "Code of Ethics"},
		base: RuleSet{
			Required:    []Field{FieldIssuingBody, FieldDocumentNumber},
			Visible:     []Field{FieldIssuingBody, FieldDocumentNumber, FieldSituation},
			Versionable: true,
			Situations:  []string{"IN_FORCE", "AMENDED", "REVOKED"},
		},
	},
	{
		name: CategoryContractsPartnerships,
		subcategories: []string{
			"Contract (Original)", "Contract Amendment", "Agreement",
			"Cooperation Agreement", SubcategoryInstitutionalPartnership,
		},
		base: RuleSet{
			Required: []Field{FieldDocumentNumber, FieldCounterpartyOrPartner, FieldGlobalValue},
			Visible: []Field{
				FieldDocumentNumber, FieldCounterpartyOrPartner, FieldGlobalValue,
				FieldValidityMonths, FieldValidityStart, FieldValidityEnd, FieldSituation,
			},
			Versionable: true,
			Situations:  []string{"IN_FORCE", "EXPIRED", "TERMINATED"},
		},
		overrides: map[string]RuleSet{
			SubcategoryInstitutionalPartnership: {
				Required: nil,
				Visible: []Field{
					FieldCounterpartyOrPartner, FieldValidityMonths,
					FieldValidityStart, FieldValidityEnd, FieldSituation,
				},
				Versionable: true,
				Situations:  []string{"IN_FORCE", "EXPIRED", "TERMINATED"},
			},
		},
	},
	{
		name:          CategoryAccountability,
		subcategories: []string{"Annual Report", "Financial Statements", "Management Report", "Audit Report"},
		base: RuleSet{
			Required: []Field{FieldPeriod},
			Visible:  []Field{FieldPeriod},
		},
	},
	{
		name:          CategoryOfficialActs,
		subcategories: []string{"Ordinance", "Decision", "Notice", "Minutes"},
		base: RuleSet{
			Required: []Field{FieldIssuingBody},
			Visible:  []Field{FieldIssuingBody, FieldDocumentNumber},
		},
	},
	{
		name:          CategoryInstitutional,
		subcategories: []string{"Strategic Plan", "Organizational Chart", "Policy"},
		base: RuleSet{
			Versionable: true,
		},
	},
}

var procurementDefinitions = []Category{
	{Name: ProcurementCategoryPlanning, Subcategories: []string{"Annual Procurement Plan", "Preliminary Technical Study", "Terms of Reference"}},
	{Name: ProcurementCategoryContracts, Subcategories: []string{"Contract", "Amendment", "Price Registration Record"}},
	{Name: ProcurementCategoryRegulations, Subcategories: []string{"Procurement Regulation", "Procedures Manual"}},
}

// Таблица разрешается один раз при старте
var (
	table            map[string]map[string]RuleSet
	subcategoryOrder map[string][]string
	procurementTable map[string][]string
)

func init() {
	table = make(map[string]map[string]RuleSet, len(definitions))
	subcategoryOrder = make(map[string][]string, len(definitions))
	for _, def := range definitions {
		subs := make(map[string]RuleSet, len(def.subcategories))
		for _, sub := range def.subcategories {
			rs := def.base
			if o, ok := def.overrides[sub]; ok {
				rs = o
			}
			rs.Visible = append(append([]Field{}, baseVisible...), rs.Visible...)
			subs[sub] = rs
		}
		table[def.name] = subs
		subcategoryOrder[def.name] = def.subcategories
	}

	procurementTable = make(map[string][]string, len(procurementDefinitions))
	for _, c := range procurementDefinitions {
		procurementTable[c.Name] = c.Subcategories
	}
}

// Resolve возвращает подкатегорию (с подстановкой значения по умолчанию) и ее правила
func Resolve(category, subcategory string) (string, RuleSet, error) {
	subs, ok := table[category]
	if !ok {
		return "", RuleSet{}, domain.UnknownCategory(category)
	}
	if subcategory == "" {
		subcategory = subcategoryOrder[category][0]
	}
	rs, ok := subs[subcategory]
	if !ok {
		return "", RuleSet{}, domain.InvalidTaxonomy(category, subcategory)
	}
	return subcategory, rs, nil
}

// RequiredFields возвращает обязательные поля для пары
func RequiredFields(category, subcategory string) ([]Field, error) {
	_, rs, err := Resolve(category, subcategory)
	if err != nil {
		return nil, err
	}
	return rs.Required, nil
}

// VisibleFields возвращает поля, показываемые в форме для пары
func VisibleFields(category, subcategory string) ([]Field, error) {
	_, rs, err := Resolve(category, subcategory)
	if err != nil {
		return nil, err
	}
	return rs.Visible, nil
}

func IsValidSubcategory(category, subcategory string) bool {
	subs, ok := table[category]
	if !ok {
		return false
	}
	_, ok = subs[subcategory]
	return ok
}

// ResolveProcurement проверяет вторичную классификацию раздела закупок
func ResolveProcurement(category, subcategory string) (string, error) {
	subs, ok := procurementTable[category]
	if !ok {
		return "", domain.UnknownCategory(category)
	}
	if subcategory == "" {
		return subs[0], nil
	}
	for _, s := range subs {
		if s == subcategory {
			return s, nil
		}
	}
	return "", domain.InvalidTaxonomy(category, subcategory)
}

// CheckRequired возвращает MissingRequiredField для первого незаполненного поля
func CheckRequired(rs RuleSet, present func(Field) bool) error {
	for _, f := range rs.Required {
		if !present(f) {
			return domain.MissingRequiredField(string(f))
		}
	}
	return nil
}

// CheckSituation проверяет вторичный статус по словарю категории
func CheckSituation(rs RuleSet, situation *string) error {
	if situation == nil || *situation == "" {
		return nil
	}
	if len(rs.Situations) == 0 {
		return domain.InvalidField(string(FieldSituation), "not applicable to this category")
	}
	for _, s := range rs.Situations {
		if s == *situation {
			return nil
		}
	}
	return domain.InvalidField(string(FieldSituation), "unknown value "+*situation)
}

// Categories возвращает дерево основной классификации
func Categories() []Category {
	out := make([]Category, 0, len(definitions))
	for _, def := range definitions {
		out = append(out, Category{Name: def.name, Subcategories: append([]string{}, def.subcategories...)})
	}
	return out
}

// ProcurementCategories возвращает дерево классификации раздела закупок
func ProcurementCategories() []Category {
	out := make([]Category, 0, len(procurementDefinitions))
	for _, c := range procurementDefinitions {
		out = append(out, Category{Name: c.Name, Subcategories: append([]string{}, c.Subcategories...)})
	}
	return out
}
