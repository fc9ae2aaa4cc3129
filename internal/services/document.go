package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/diewo77/go-erpdocs/internal/document"
	"github.com/diewo77/go-erpdocs/internal/metrics"
	"github.com/diewo77/go-erpdocs/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Message types returned by EditValidate.
const (
	MessageLinkedDocuments = "LINKED_DOCUMENTS"
	MessageSourceDocument  = "SOURCE_DOCUMENT"
)

var (
	ErrNotFound          = errors.New("document not found")
	ErrDuplicateNumber   = errors.New("document number already used")
	ErrStaleConfirmation = errors.New("edit confirmation does not match current state")
)

// DocumentService stores documents of every configured kind and runs the
// backend side of the edit handshake.
type DocumentService struct {
	db      *gorm.DB
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

func NewDocumentService(db *gorm.DB, log logrus.FieldLogger, m *metrics.Metrics) *DocumentService {
	return &DocumentService{db: db, log: log, metrics: m}
}

func (s *DocumentService) Get(ctx context.Context, k document.Kind, docNo string) (document.Document, error) {
	m, err := s.find(s.db.WithContext(ctx), k, docNo)
	if err != nil {
		return document.Document{}, err
	}
	return fromModel(k, m), nil
}

func (s *DocumentService) find(tx *gorm.DB, k document.Kind, docNo string) (models.Document, error) {
	var m models.Document
	err := tx.Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_no") }).
		Where("kind = ? AND doc_no = ?", k.Code, docNo).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return m, fmt.Errorf("%w: %s %s", ErrNotFound, k.Code, docNo)
	}
	return m, err
}

// Insert validates d, recomputes its totals, and stores it under a new
// number. The series decides the number unless it is editable and the
// caller supplied one.
func (s *DocumentService) Insert(ctx context.Context, d document.Document) (models.Document, error) {
	if err := document.Validate(d); err != nil {
		return models.Document{}, err
	}
	m := toModel(document.RoundForSave(d))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		docNo, err := s.assignNumber(tx, d.Kind, d.Header.DocumentNo)
		if err != nil {
			return err
		}
		m.DocNo = docNo
		var count int64
		if err := tx.Model(&models.Document{}).Where("kind = ? AND doc_no = ?", m.Kind, m.DocNo).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %s", ErrDuplicateNumber, m.DocNo)
		}
		return tx.Create(&m).Error
	})
	if err != nil {
		return models.Document{}, err
	}
	s.metrics.Submits.WithLabelValues(d.Kind.Code, "INSERT").Inc()
	s.log.WithFields(logrus.Fields{"kind": m.Kind, "doc_no": m.DocNo}).Info("[documents] inserted")
	return m, nil
}

// assignNumber picks the number of a new document and advances the series
// when it consumed the next number.
func (s *DocumentService) assignNumber(tx *gorm.DB, k document.Kind, requested string) (string, error) {
	series := models.NumberSeries{Prefix: k.Prefix}
	if err := tx.Where(models.NumberSeries{Prefix: k.Prefix}).FirstOrCreate(&series).Error; err != nil {
		return "", err
	}
	next := k.FormatNumber(series.LastNo + 1)
	if requested != "" && series.IsEditable && requested != next {
		return requested, nil
	}
	res := tx.Model(&models.NumberSeries{}).
		Where("id = ? AND last_no = ?", series.ID, series.LastNo).
		Update("last_no", gorm.Expr("last_no + 1"))
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "", fmt.Errorf("number series %s changed concurrently", k.Prefix)
	}
	return next, nil
}

// Update replaces the header and lines of an existing document, keeping
// its number.
func (s *DocumentService) Update(ctx context.Context, d document.Document) (models.Document, error) {
	if err := document.Validate(d); err != nil {
		return models.Document{}, err
	}
	m := toModel(document.RoundForSave(d))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.find(tx, d.Kind, d.Header.DocumentNo)
		if err != nil {
			return err
		}
		m.ID = existing.ID
		m.CreatedAt = existing.CreatedAt
		lines := m.Lines
		m.Lines = nil
		if err := tx.Omit("Lines").Save(&m).Error; err != nil {
			return err
		}
		if err := tx.Where("document_id = ?", m.ID).Delete(&models.DocumentLine{}).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].DocumentID = m.ID
		}
		if len(lines) > 0 {
			if err := tx.Create(&lines).Error; err != nil {
				return err
			}
		}
		m.Lines = lines
		return nil
	})
	if err != nil {
		return models.Document{}, err
	}
	s.metrics.Submits.WithLabelValues(d.Kind.Code, "UPDATE").Inc()
	s.log.WithFields(logrus.Fields{"kind": m.Kind, "doc_no": m.DocNo}).Info("[documents] updated")
	return m, nil
}

// EditValidate reports the side effects editing the document would have.
func (s *DocumentService) EditValidate(ctx context.Context, k document.Kind, docNo string) ([]string, error) {
	tx := s.db.WithContext(ctx)
	types, err := s.messageTypes(tx, k, docNo)
	if err != nil {
		return nil, err
	}
	s.record(tx, k, docNo, models.EditActionValidate, models.EditOutcomeOK, types, "")
	s.metrics.EditGate.WithLabelValues(models.EditActionValidate, metrics.OutcomeOK).Inc()
	return types, nil
}

// EditConfirm accepts the edit only if the confirmed message types are
// still the ones EditValidate would report now.
func (s *DocumentService) EditConfirm(ctx context.Context, k document.Kind, docNo string, confirmed []string) error {
	tx := s.db.WithContext(ctx)
	current, err := s.messageTypes(tx, k, docNo)
	if err != nil {
		return err
	}
	if !sameSet(current, confirmed) {
		err := fmt.Errorf("%w: confirmed %v, now %v", ErrStaleConfirmation, confirmed, current)
		s.record(tx, k, docNo, models.EditActionConfirm, models.EditOutcomeRejected, confirmed, err.Error())
		s.metrics.EditGate.WithLabelValues(models.EditActionConfirm, metrics.OutcomeRejected).Inc()
		return err
	}
	s.record(tx, k, docNo, models.EditActionConfirm, models.EditOutcomeOK, confirmed, "")
	s.metrics.EditGate.WithLabelValues(models.EditActionConfirm, metrics.OutcomeOK).Inc()
	return nil
}

func (s *DocumentService) messageTypes(tx *gorm.DB, k document.Kind, docNo string) ([]string, error) {
	var m models.Document
	err := tx.Select("id", "source_doc_no").Where("kind = ? AND doc_no = ?", k.Code, docNo).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, k.Code, docNo)
	}
	if err != nil {
		return nil, err
	}
	types := []string{}
	var linked int64
	if err := tx.Model(&models.Document{}).Where("source_doc_no = ?", docNo).Count(&linked).Error; err != nil {
		return nil, err
	}
	if linked > 0 {
		types = append(types, MessageLinkedDocuments)
	}
	if m.SourceDocNo != "" {
		types = append(types, MessageSourceDocument)
	}
	return types, nil
}

func (s *DocumentService) record(tx *gorm.DB, k document.Kind, docNo, action, outcome string, types []string, msg string) {
	raw, _ := json.Marshal(types)
	entry := models.EditLog{
		Kind:         k.Code,
		DocNo:        docNo,
		Action:       action,
		Outcome:      outcome,
		MessageTypes: datatypes.JSON(raw),
		Message:      msg,
	}
	if err := tx.Create(&entry).Error; err != nil {
		s.log.WithError(err).Warn("[documents] could not record edit log")
	}
}

// NextNumber returns the state of the series for prefix. A series that
// does not exist yet starts at zero.
func (s *DocumentService) NextNumber(ctx context.Context, prefix string) (models.NumberSeries, error) {
	var series models.NumberSeries
	err := s.db.WithContext(ctx).Where("prefix = ?", prefix).First(&series).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NumberSeries{Prefix: prefix}, nil
	}
	return series, err
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]string(nil), a...)
	y := append([]string(nil), b...)
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
