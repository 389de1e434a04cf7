package service

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/models"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/repository"
)

// ExportService streams price history out of the database as
// zstd-compressed NDJSON, one observation per line.
type ExportService struct {
	priceRepo *repository.PriceRepository
	logger    *zap.Logger
}

// NewExportService creates a new export service
func NewExportService(priceRepo *repository.PriceRepository, logger *zap.Logger) *ExportService {
	return &ExportService{
		priceRepo: priceRepo,
		logger:    logger,
	}
}

// WritePrices streams matching observations into w and returns the number
// of rows written. Rows are written in primary key order, so two exports of
// the same data are identical.
func (s *ExportService) WritePrices(w io.Writer, q models.ExportQuery) (int, error) {
	start := time.Now()

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return 0, fmt.Errorf("failed to create compressor: %w", err)
	}

	enc := json.NewEncoder(zw)
	count := 0

	err = s.priceRepo.StreamRows(q, func(row models.PriceRow) error {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("failed to encode row: %w", err)
		}
		count++
		return nil
	})
	if err != nil {
		zw.Close()
		return count, fmt.Errorf("failed to stream prices: %w", err)
	}

	if err := zw.Close(); err != nil {
		return count, fmt.Errorf("failed to flush compressor: %w", err)
	}

	s.logger.Info("price export written",
		zap.Int("rows", count),
		zap.String("upc", q.UPC),
		zap.Duration("elapsed", time.Since(start)))

	return count, nil
}

// Filename suggests a download name for the given query.
func (s *ExportService) Filename(q models.ExportQuery) string {
	parts := []string{"prices"}
	if q.UPC != "" {
		parts = append(parts, q.UPC)
	}
	if q.StartDate != "" {
		parts = append(parts, q.StartDate)
	}
	if q.EndDate != "" {
		parts = append(parts, q.EndDate)
	}
	return strings.Join(parts, "_") + ".ndjson.zst"
}
