package bill

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ledgerlens/ledgerlens/internal/extract"
)

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service coordinates ingestion, review and reporting of bills
type Service struct {
	store      Store
	extractor  extract.Extractor
	archive    Archive
	timeSource TimeSource
}

// NewService creates a new Service with the default time source
func NewService(store Store, extractor extract.Extractor, archive Archive) *Service {
	return &Service{
		store:      store,
		extractor:  extractor,
		archive:    archive,
		timeSource: &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with a custom time source for testing
func NewServiceWithDeps(store Store, extractor extract.Extractor, archive Archive, timeSrc TimeSource) *Service {
	return &Service{
		store:      store,
		extractor:  extractor,
		archive:    archive,
		timeSource: timeSrc,
	}
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up an upload's filename before archiving it,
// since phone uploads arrive with long generated names full of special
// characters.
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	const maxLen = 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}
	if base == "" {
		base = "bill"
	}

	return base + ext
}

// Ingest runs the full pipeline for one uploaded file: fingerprint,
// duplicate check, archive, extraction, parse, normalization,
// classification and persistence. Failure at any stage after archiving
// removes the archived file again; a duplicate never reaches the
// extraction provider.
func (s *Service) Ingest(filename string, data []byte, contentType string) (*BillRecord, error) {
	fingerprint := Fingerprint(data)

	// Cheap pre-check so duplicates never pay for an extraction call.
	// InsertIfAbsent still guards against concurrent ingestion.
	exists, err := s.store.ContainsFingerprint(fingerprint)
	if err != nil {
		return nil, fmt.Errorf("checking fingerprint: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: fingerprint %s", ErrDuplicateFile, fingerprint)
	}

	storedName := fmt.Sprintf("%s_%s", fingerprint[:12], sanitizeFilename(filename))
	savedName, err := s.archive.Save(storedName, data)
	if err != nil {
		return nil, fmt.Errorf("archiving file: %w", err)
	}

	text, err := s.extractor.Extract(data, contentType)
	if err != nil {
		slog.Error("Failed to extract bill",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		s.archive.Delete(savedName)
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	raw, err := ParsePayload(text)
	if err != nil {
		slog.Error("Failed to parse extraction payload", "filename", filename, "error", err)
		s.archive.Delete(savedName)
		return nil, err
	}

	payload := NormalizePayload(raw)

	// The payload is stored exactly as parsed; reconciliation always
	// re-reads it rather than trusting the derived columns.
	extracted, err := json.Marshal(raw)
	if err != nil {
		s.archive.Delete(savedName)
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	total := payload.Total
	if total < 0 {
		total = 0
	}

	record := &BillRecord{
		Merchant:    payload.Merchant,
		Date:        payload.Date,
		Total:       total,
		Currency:    payload.Currency,
		Category:    Classify(payload.Merchant),
		Extracted:   extracted,
		Fingerprint: fingerprint,
		Filename:    savedName,
		ContentType: contentType,
		CreatedAt:   s.timeSource.Now(),
	}

	id, err := s.store.InsertIfAbsent(record)
	if err != nil {
		s.archive.Delete(savedName)
		return nil, fmt.Errorf("saving bill: %w", err)
	}
	record.ID = id

	slog.Info("Bill ingested", "id", id, "merchant", record.Merchant, "category", record.Category, "total", record.Total)
	return record, nil
}

// Review recomputes the reconciliation verdict for a bill from its stored
// payload and caches it. Idempotent: reviewing the same bill twice yields
// the same verdict and simply overwrites the cached one.
func (s *Service) Review(id uint64) (*Reconciliation, error) {
	record, err := s.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("getting bill: %w", err)
	}

	// A payload that no longer unmarshals degrades to an empty one; the
	// engine still produces a verdict.
	var raw map[string]interface{}
	if len(record.Extracted) > 0 {
		if err := json.Unmarshal(record.Extracted, &raw); err != nil {
			slog.Warn("Stored payload is not valid JSON", "id", id, "error", err)
		}
	}
	payload := NormalizePayload(raw)

	result := Reconcile(payload.Items, payload.Taxes, payload.Discount, record.Total)

	validation := &ValidationRecord{
		BillID:          record.ID,
		ClaimedTotal:    result.ClaimedTotal,
		ReconciledTotal: result.ReconciledTotal,
		Status:          result.Verdict,
		TaxInferred:     result.TaxInferred,
		CheckedAt:       s.timeSource.Now(),
	}
	if err := s.store.UpsertValidation(validation); err != nil {
		return nil, fmt.Errorf("caching verdict: %w", err)
	}

	return &result, nil
}

// Get retrieves a bill by id
func (s *Service) Get(id uint64) (*BillRecord, error) {
	record, err := s.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("getting bill: %w", err)
	}
	return record, nil
}

// List returns all bills, newest first, optionally restricted to one category
func (s *Service) List(category string) ([]*BillRecord, error) {
	records, err := s.store.List()
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}
	if category == "" {
		return records, nil
	}
	filtered := make([]*BillRecord, 0, len(records))
	for _, record := range records {
		if record.Category == category {
			filtered = append(filtered, record)
		}
	}
	return filtered, nil
}

// GetFile retrieves the archived original file for a bill
func (s *Service) GetFile(id uint64) ([]byte, string, error) {
	record, err := s.store.Get(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting bill: %w", err)
	}

	data, err := s.archive.Get(record.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting archived file: %w", err)
	}

	return data, record.ContentType, nil
}

// Validations returns all cached verdicts
func (s *Service) Validations() ([]*ValidationRecord, error) {
	validations, err := s.store.ListValidations()
	if err != nil {
		return nil, fmt.Errorf("listing validations: %w", err)
	}
	return validations, nil
}

// Summary aggregates spend per category across dated bills
func (s *Service) Summary() ([]CategorySpend, error) {
	records, err := s.store.List()
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}
	return SummarizeByCategory(records), nil
}

// Completeness reports which bills carry usable key fields
func (s *Service) Completeness() ([]FieldStatus, error) {
	records, err := s.store.List()
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}
	return CompletenessReport(records), nil
}

// Clear removes every stored bill, verdict and archived file
func (s *Service) Clear() error {
	if err := s.store.DeleteAll(); err != nil {
		return fmt.Errorf("clearing store: %w", err)
	}
	if err := s.archive.Clear(); err != nil {
		// The records are already gone; a stale archive is only wasted disk
		slog.Warn("Failed to clear archive", "error", err)
	}
	return nil
}
