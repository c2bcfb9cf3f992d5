package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/daveytran/roundscheduler-sub000/internal/dto"
	"github.com/daveytran/roundscheduler-sub000/internal/models"
	"github.com/daveytran/roundscheduler-sub000/pkg/export"
	"github.com/daveytran/roundscheduler-sub000/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders stored schedules as downloadable fixture lists.
type ExportService struct {
	schedules   scheduleStore
	tournaments tournamentStore
	storage     fileStorage
	csv         csvRenderer
	pdf         pdfRenderer
	signer      *storage.SignedURLSigner
	logger      *zap.Logger
	cfg         ExportConfig
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// NewExportService constructs an ExportService.
func NewExportService(schedules scheduleStore, tournaments tournamentStore, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		schedules:   schedules,
		tournaments: tournaments,
		storage:     store,
		csv:         csv,
		pdf:         pdf,
		signer:      signer,
		logger:      logger,
		cfg:         cfg,
	}
}

// Generate renders the schedule in the requested format and stores the file,
// returning a signed download token.
func (s *ExportService) Generate(ctx context.Context, scheduleID string, format models.ExportFormat) (*ExportResult, error) {
	stored, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	rows, err := s.schedules.LoadMatches(ctx, stored.ID)
	if err != nil {
		return nil, err
	}
	tournament, err := s.tournaments.FindByID(ctx, stored.TournamentID)
	if err != nil {
		return nil, err
	}

	dataset := fixtureDataset(rows)
	title := fmt.Sprintf("%s — Schedule v%d", tournament.Name, stored.Version)

	var payload []byte
	switch format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(tournament.Name, stored.Version, format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(stored.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	s.logger.Info("schedule export generated",
		zap.String("schedule_id", stored.ID),
		zap.String("format", string(format)),
		zap.String("path", relPath))

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// GenerateViolations renders the evaluation findings of a schedule version as
// a downloadable report.
func (s *ExportService) GenerateViolations(ctx context.Context, scheduleID string, format models.ExportFormat) (*ExportResult, error) {
	stored, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	tournament, err := s.tournaments.FindByID(ctx, stored.TournamentID)
	if err != nil {
		return nil, err
	}

	var views []dto.ViolationView
	if len(stored.Violations) > 0 {
		if err := json.Unmarshal(stored.Violations, &views); err != nil {
			return nil, fmt.Errorf("decode stored violations: %w", err)
		}
	}
	dataset := violationDataset(views)
	title := fmt.Sprintf("%s — Violations v%d", tournament.Name, stored.Version)

	var payload []byte
	switch format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(tournament.Name+"_violations", stored.Version, format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(stored.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (scheduleID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(tournamentName string, version int, format models.ExportFormat) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_v%d_%s.%s", sanitizeFilename(tournamentName), version, timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "schedule"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := strings.ToLower(replacer.Replace(raw))
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

// fixtureDataset flattens schedule rows into the tabular layout shared by the
// CSV and PDF renderers. Rows arrive ordered by time slot from the store.
func fixtureDataset(rows []models.StoredMatch) export.Dataset {
	headers := []string{"Time Slot", "Field", "Division", "Team 1", "Team 2", "Referee", "Activity", "Locked"}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		referee := ""
		if row.Referee != nil {
			referee = *row.Referee
		}
		locked := ""
		if row.Locked {
			locked = "yes"
		}
		dataRows = append(dataRows, map[string]string{
			"Time Slot": fmt.Sprintf("%d", row.TimeSlot),
			"Field":     row.Field,
			"Division":  string(row.Division),
			"Team 1":    row.Team1,
			"Team 2":    row.Team2,
			"Referee":   referee,
			"Activity":  string(row.Activity),
			"Locked":    locked,
		})
	}
	return export.Dataset{Headers: headers, Rows: dataRows}
}

// violationDataset renders the evaluation findings of a schedule version.
func violationDataset(views []dto.ViolationView) export.Dataset {
	headers := []string{"Rule", "Level", "Description"}
	dataRows := make([]map[string]string, 0, len(views))
	for _, v := range views {
		dataRows = append(dataRows, map[string]string{
			"Rule":        v.Rule,
			"Level":       v.Level,
			"Description": v.Description,
		})
	}
	return export.Dataset{Headers: headers, Rows: dataRows}
}
