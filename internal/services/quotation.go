// Package services holds the quotation orchestrator: every mutation runs as a
// single transaction that writes the part tree first and the recalculated
// totals last, so cached totals are never observably stale.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tooldesk/quoteflow/internal/costing"
	"github.com/tooldesk/quoteflow/internal/export"
	"github.com/tooldesk/quoteflow/internal/gate"
	"github.com/tooldesk/quoteflow/internal/logger"
	"github.com/tooldesk/quoteflow/internal/models"
	"github.com/tooldesk/quoteflow/internal/workflow"
)

// OperationInput is one machine-time line of a part request. The machine's
// hourly rate is snapshotted into the operation when the line is created.
type OperationInput struct {
	MachineID   uint            `json:"machine_id"`
	Description string          `json:"description"`
	Hours       decimal.Decimal `json:"hours"`
}

// AuxiliaryLineInput is one non-machine cost line. A nil Amount takes the
// type's default amount; afterwards the line is independent of the catalog.
type AuxiliaryLineInput struct {
	TypeID      uint             `json:"type_id"`
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
}

type PartInput struct {
	PartNumber     string               `json:"part_number"`
	Description    string               `json:"description"`
	MaterialCost   decimal.Decimal      `json:"material_cost"`
	Quantity       int                  `json:"quantity"`
	Operations     []OperationInput     `json:"operations"`
	AuxiliaryLines []AuxiliaryLineInput `json:"auxiliary_lines"`
}

type QuotationInput struct {
	CustomerID      uint            `json:"customer_id"`
	QuoteDate       *time.Time      `json:"quote_date,omitempty"`
	LeadTimeDays    int             `json:"lead_time_days"`
	PaymentTerms    string          `json:"payment_terms"`
	Currency        string          `json:"currency"`
	ShipmentType    string          `json:"shipment_type"`
	Notes           string          `json:"notes"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	MarginPercent   decimal.Decimal `json:"margin_percent"`
	VATPercent      decimal.Decimal `json:"vat_percent"`
	Parts           []PartInput     `json:"parts"`
}

// ListFilter narrows List results.
type ListFilter struct {
	Status     models.Status
	CustomerID uint
	Query      string
	Limit      int
	Offset     int
}

// QuotationService composes lookups, the costing engine and the workflow
// machine under one transaction per request.
type QuotationService struct {
	db      *gorm.DB
	machine *workflow.Machine
}

func NewQuotationService(db *gorm.DB, m *workflow.Machine) *QuotationService {
	return &QuotationService{db: db, machine: m}
}

// ActorFor loads the workflow actor for an authenticated user id.
func (s *QuotationService) ActorFor(ctx context.Context, userID uint) (*workflow.Actor, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Role").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", userID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("load actor: %w", err)
	}
	return &workflow.Actor{ID: user.ID, Name: user.DisplayName(), Role: user.Role.Name}, nil
}

// Create validates the header and part tree, snapshots machine rates, assigns
// a quote number and persists everything atomically. The new quotation starts
// in Draft owned by the actor.
func (s *QuotationService) Create(ctx context.Context, actor *workflow.Actor, in QuotationInput) (*models.Quotation, error) {
	const op = "quotation.Create"
	if err := validateHeader(in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var created models.Quotation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lookupCustomer(tx, in.CustomerID); err != nil {
			return err
		}
		parts, err := buildParts(tx, in.Parts)
		if err != nil {
			return err
		}
		date := time.Now()
		if in.QuoteDate != nil {
			date = *in.QuoteDate
		}
		q := models.Quotation{
			Token:           uuid.New(),
			CustomerID:      in.CustomerID,
			QuoteDate:       date,
			LeadTimeDays:    in.LeadTimeDays,
			PaymentTerms:    in.PaymentTerms,
			Currency:        currencyOrDefault(in.Currency),
			ShipmentType:    in.ShipmentType,
			Notes:           in.Notes,
			DiscountPercent: in.DiscountPercent,
			MarginPercent:   in.MarginPercent,
			VATPercent:      in.VATPercent,
			Status:          models.StatusDraft,
			Parts:           parts,
			CreatedByID:     actor.ID,
		}
		if err := costing.Recalculate(&q); err != nil {
			return err
		}
		number, err := nextQuoteNumber(tx, date.Year())
		if err != nil {
			return err
		}
		q.Number = number
		if err := tx.Create(&q).Error; err != nil {
			return storeErr("create quotation", err)
		}
		created = q
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.Get(ctx, created.ID)
}

// Update replaces the header and part tree of an editable quotation. Machine
// rates are snapshotted afresh for the new operations; totals are recalculated
// last, inside the same transaction.
func (s *QuotationService) Update(ctx context.Context, actor *workflow.Actor, id uint, in QuotationInput) (*models.Quotation, error) {
	const op = "quotation.Update"
	if err := validateHeader(in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q, err := lockQuotation(tx, id)
		if err != nil {
			return err
		}
		if !q.Status.Editable() {
			return fmt.Errorf("status %s: %w", q.Status, models.ErrQuotationLocked)
		}
		if err := s.machine.Authorize(ctx, actor, gate.ActionUpdate, q); err != nil {
			return err
		}
		if _, err := lookupCustomer(tx, in.CustomerID); err != nil {
			return err
		}
		parts, err := buildParts(tx, in.Parts)
		if err != nil {
			return err
		}
		if err := dropPartTree(tx, q.ID); err != nil {
			return err
		}
		q.CustomerID = in.CustomerID
		if in.QuoteDate != nil {
			q.QuoteDate = *in.QuoteDate
		}
		q.LeadTimeDays = in.LeadTimeDays
		q.PaymentTerms = in.PaymentTerms
		q.Currency = currencyOrDefault(in.Currency)
		q.ShipmentType = in.ShipmentType
		q.Notes = in.Notes
		q.DiscountPercent = in.DiscountPercent
		q.MarginPercent = in.MarginPercent
		q.VATPercent = in.VATPercent
		q.Parts = parts
		// Recalculate before inserting so the derived part and operation
		// fields land in the store, same order as Create.
		if err := costing.Recalculate(q); err != nil {
			return err
		}
		for i := range q.Parts {
			q.Parts[i].QuotationID = q.ID
		}
		if len(q.Parts) > 0 {
			if err := tx.Create(&q.Parts).Error; err != nil {
				return storeErr("recreate parts", err)
			}
		}
		if err := tx.Omit(clause.Associations).Save(q).Error; err != nil {
			return storeErr("save quotation", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.Get(ctx, id)
}

// Transition applies a workflow action and records its audit entry, both in
// one transaction. Submit additionally requires a non-empty part tree whose
// machines still exist in the catalog.
func (s *QuotationService) Transition(ctx context.Context, actor *workflow.Actor, id uint, action gate.Action, comment string) (*models.Quotation, error) {
	const op = "quotation.Transition"
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q, err := lockQuotation(tx, id)
		if err != nil {
			return err
		}
		if action == workflow.ActionSubmit {
			if err := checkSubmittable(tx, q.ID); err != nil {
				return err
			}
		}
		audit, err := s.machine.Apply(ctx, actor, q, action, comment)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Quotation{}).Where("id = ?", q.ID).Update("status", q.Status).Error; err != nil {
			return storeErr("update status", err)
		}
		if err := tx.Create(audit).Error; err != nil {
			return storeErr("write audit", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.Get(ctx, id)
}

// Get loads a quotation with its full part tree and references.
func (s *QuotationService) Get(ctx context.Context, id uint) (*models.Quotation, error) {
	var q models.Quotation
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("CreatedBy.Role").
		Preload("Parts", func(db *gorm.DB) *gorm.DB { return db.Order("parts.id asc") }).
		Preload("Parts.Operations").
		Preload("Parts.AuxiliaryLines").
		First(&q, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("quotation %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("quotation.Get: %w", err)
	}
	return &q, nil
}

// List returns a page of quotation headers plus the unpaged total.
func (s *QuotationService) List(ctx context.Context, f ListFilter) ([]models.Quotation, int64, error) {
	dbq := s.db.WithContext(ctx).Model(&models.Quotation{})
	if f.Status != "" {
		dbq = dbq.Where("status = ?", f.Status)
	}
	if f.CustomerID != 0 {
		dbq = dbq.Where("customer_id = ?", f.CustomerID)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		dbq = dbq.Where("lower(number) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("quotation.List: %w", err)
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var items []models.Quotation
	if err := dbq.Preload("Customer").Order("id desc").Limit(limit).Offset(f.Offset).Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("quotation.List: %w", err)
	}
	return items, total, nil
}

// Delete removes a Draft quotation and its whole tree. Only the author or an
// admin may delete; any other status is locked.
func (s *QuotationService) Delete(ctx context.Context, actor *workflow.Actor, id uint) error {
	const op = "quotation.Delete"
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q, err := lockQuotation(tx, id)
		if err != nil {
			return err
		}
		if q.Status != models.StatusDraft {
			return fmt.Errorf("status %s: %w", q.Status, models.ErrQuotationLocked)
		}
		if err := s.machine.Authorize(ctx, actor, gate.ActionDelete, q); err != nil {
			return err
		}
		if err := dropPartTree(tx, q.ID); err != nil {
			return err
		}
		if err := tx.Where("quotation_id = ?", q.ID).Delete(&models.QuotationAudit{}).Error; err != nil {
			return storeErr("delete audits", err)
		}
		if err := tx.Delete(&models.Quotation{}, q.ID).Error; err != nil {
			return storeErr("delete quotation", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Resolve builds the read-only export model: header, totals, parts with their
// machine snapshots, auxiliary lines and the audit trail. Renderers need no
// further lookups.
func (s *QuotationService) Resolve(ctx context.Context, id uint) (*export.ResolvedQuotation, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var audits []models.QuotationAudit
	if err := s.db.WithContext(ctx).Where("quotation_id = ?", id).Order("id asc").Find(&audits).Error; err != nil {
		return nil, fmt.Errorf("quotation.Resolve: %w", err)
	}
	return export.Resolve(q, audits), nil
}

// Audits returns the immutable transition trail for a quotation, oldest first.
func (s *QuotationService) Audits(ctx context.Context, id uint) ([]models.QuotationAudit, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	var entries []models.QuotationAudit
	if err := s.db.WithContext(ctx).Where("quotation_id = ?", id).Order("id asc").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("quotation.Audits: %w", err)
	}
	return entries, nil
}

// --- helpers ---

func validateHeader(in QuotationInput) error {
	if in.CustomerID == 0 {
		return fmt.Errorf("customer_id is required: %w", models.ErrValidation)
	}
	for _, pct := range []struct {
		name string
		val  decimal.Decimal
	}{
		{"discount_percent", in.DiscountPercent},
		{"margin_percent", in.MarginPercent},
		{"vat_percent", in.VATPercent},
	} {
		if err := costing.ValidatePercent(pct.name, pct.val); err != nil {
			return err
		}
	}
	for _, p := range in.Parts {
		if strings.TrimSpace(p.PartNumber) == "" {
			return fmt.Errorf("part_number is required: %w", models.ErrValidation)
		}
	}
	return nil
}

func currencyOrDefault(c string) string {
	if strings.TrimSpace(c) == "" {
		return "EUR"
	}
	return c
}

func lookupCustomer(tx *gorm.DB, id uint) (*models.Customer, error) {
	var c models.Customer
	if err := tx.First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("customer %d: %w", id, models.ErrNotFound)
		}
		return nil, storeErr("lookup customer", err)
	}
	if !c.Active {
		return nil, fmt.Errorf("customer %d is inactive: %w", id, models.ErrValidation)
	}
	return &c, nil
}

// buildParts turns part inputs into model rows, snapshotting machine rates and
// auxiliary defaults at this moment. Costs are computed by the aggregator
// afterwards; validation failures abort the whole request.
func buildParts(tx *gorm.DB, inputs []PartInput) ([]models.Part, error) {
	machines := map[uint]*models.Machine{}
	auxTypes := map[uint]*models.AuxiliaryCostType{}
	parts := make([]models.Part, 0, len(inputs))
	for _, pi := range inputs {
		part := models.Part{
			PartNumber:   pi.PartNumber,
			Description:  pi.Description,
			MaterialCost: pi.MaterialCost,
			Quantity:     pi.Quantity,
		}
		for _, oi := range pi.Operations {
			m, ok := machines[oi.MachineID]
			if !ok {
				var loaded models.Machine
				if err := tx.First(&loaded, oi.MachineID).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return nil, fmt.Errorf("machine %d: %w", oi.MachineID, models.ErrNotFound)
					}
					return nil, storeErr("lookup machine", err)
				}
				m = &loaded
				machines[oi.MachineID] = m
			}
			if !m.Active {
				return nil, fmt.Errorf("machine %q is inactive: %w", m.Code, models.ErrValidation)
			}
			part.Operations = append(part.Operations, models.Operation{
				MachineID:   m.ID,
				MachineName: m.Name,
				Description: oi.Description,
				HourlyRate:  m.HourlyRate,
				Hours:       oi.Hours,
			})
		}
		for _, ai := range pi.AuxiliaryLines {
			at, ok := auxTypes[ai.TypeID]
			if !ok {
				var loaded models.AuxiliaryCostType
				if err := tx.First(&loaded, ai.TypeID).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return nil, fmt.Errorf("auxiliary cost type %d: %w", ai.TypeID, models.ErrNotFound)
					}
					return nil, storeErr("lookup auxiliary cost type", err)
				}
				at = &loaded
				auxTypes[ai.TypeID] = at
			}
			if !at.Active {
				return nil, fmt.Errorf("auxiliary cost type %q is inactive: %w", at.Code, models.ErrValidation)
			}
			amount := at.DefaultAmount
			if ai.Amount != nil {
				amount = *ai.Amount
			}
			part.AuxiliaryLines = append(part.AuxiliaryLines, models.AuxiliaryCostLine{
				AuxiliaryCostTypeID: at.ID,
				TypeName:            at.Name,
				Description:         ai.Description,
				Amount:              amount,
			})
		}
		parts = append(parts, part)
	}
	return parts, nil
}

// forUpdate adds a row lock where the dialect supports one. SQLite serializes
// writers on its own and rejects the clause.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// lockQuotation loads the header row FOR UPDATE so concurrent mutations of the
// same quotation serialize on the store.
func lockQuotation(tx *gorm.DB, id uint) (*models.Quotation, error) {
	var q models.Quotation
	err := forUpdate(tx).First(&q, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("quotation %d: %w", id, models.ErrNotFound)
		}
		return nil, storeErr("lock quotation", err)
	}
	return &q, nil
}

func dropPartTree(tx *gorm.DB, quotationID uint) error {
	var partIDs []uint
	if err := tx.Model(&models.Part{}).Where("quotation_id = ?", quotationID).Pluck("id", &partIDs).Error; err != nil {
		return storeErr("list parts", err)
	}
	if len(partIDs) > 0 {
		if err := tx.Where("part_id IN ?", partIDs).Delete(&models.Operation{}).Error; err != nil {
			return storeErr("delete operations", err)
		}
		if err := tx.Where("part_id IN ?", partIDs).Delete(&models.AuxiliaryCostLine{}).Error; err != nil {
			return storeErr("delete auxiliary lines", err)
		}
	}
	if err := tx.Where("quotation_id = ?", quotationID).Delete(&models.Part{}).Error; err != nil {
		return storeErr("delete parts", err)
	}
	return nil
}

// checkSubmittable guards submit: an empty quotation or one referencing
// machines meanwhile removed from the catalog cannot enter review. Pricing is
// untouched either way, the snapshot stays authoritative.
func checkSubmittable(tx *gorm.DB, quotationID uint) error {
	var partCount int64
	if err := tx.Model(&models.Part{}).Where("quotation_id = ?", quotationID).Count(&partCount).Error; err != nil {
		return storeErr("count parts", err)
	}
	if partCount == 0 {
		return fmt.Errorf("quotation has no parts: %w", models.ErrValidation)
	}
	var orphaned int64
	err := tx.Table("operations").
		Joins("JOIN parts ON parts.id = operations.part_id").
		Joins("LEFT JOIN machines ON machines.id = operations.machine_id AND machines.deleted_at IS NULL").
		Where("parts.quotation_id = ? AND machines.id IS NULL", quotationID).
		Count(&orphaned).Error
	if err != nil {
		return storeErr("check machines", err)
	}
	if orphaned > 0 {
		return fmt.Errorf("quotation references removed machines: %w", models.ErrValidation)
	}
	return nil
}

// nextQuoteNumber serializes number generation through a per-year counter row
// locked FOR UPDATE for the rest of the transaction.
func nextQuoteNumber(tx *gorm.DB, year int) (string, error) {
	var c models.QuoteCounter
	err := forUpdate(tx).Where("year = ?", year).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c = models.QuoteCounter{Year: year}
		if err := tx.Create(&c).Error; err != nil {
			return "", storeErr("create quote counter", err)
		}
	} else if err != nil {
		return "", storeErr("lock quote counter", err)
	}
	c.Last++
	if err := tx.Save(&c).Error; err != nil {
		return "", storeErr("advance quote counter", err)
	}
	return fmt.Sprintf("Q-%d-%05d", year, c.Last), nil
}

// storeErr classifies store failures: duplicates surface as ErrConflict, the
// rest is logged and passed through for the handler's generic 500.
func storeErr(what string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", what, models.ErrConflict)
	}
	logger.Error("store failure", logger.String("op", what), logger.ErrorF(err))
	return fmt.Errorf("%s: %w", what, err)
}
