package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"safety-tracker/internal/dto"
	"safety-tracker/internal/lifecycle"
	"safety-tracker/internal/repositories"
	apperrors "safety-tracker/pkg/errors"
)

const (
	ExportFormatXLSX = "xlsx"
	ExportFormatPDF  = "pdf"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfContentType  = "application/pdf"
	exportSheetName = "Equipment"
)

var exportHeaders = []string{"Equipment", "Expiry date", "Days left", "Status", "Assigned to"}

type ExportServiceInterface interface {
	// ExportEquipment выгружает реестр оборудования в эксплуатации.
	ExportEquipment(ctx context.Context, format string) (*dto.ExportFileDTO, error)
}

type ExportService struct {
	equipmentRepo repositories.EquipmentRepositoryInterface
	expiry        expiryView
	clock         Clock
	logger        *zap.Logger
}

func NewExportService(
	equipmentRepo repositories.EquipmentRepositoryInterface,
	nearExpiryDays int,
	clock Clock,
	logger *zap.Logger,
) ExportServiceInterface {
	if clock == nil {
		clock = systemClock
	}
	return &ExportService{
		equipmentRepo: equipmentRepo,
		expiry:        expiryView{threshold: nearExpiryDays},
		clock:         clock,
		logger:        logger,
	}
}

func (s *ExportService) ExportEquipment(ctx context.Context, format string) (*dto.ExportFileDTO, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatXLSX
	}
	if format != ExportFormatXLSX && format != ExportFormatPDF {
		return nil, apperrors.NewBadRequestError("Unsupported export format. Use xlsx or pdf.")
	}

	list, err := s.equipmentRepo.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	today := s.clock()
	rows := s.expiry.withToday(today).equipmentList(list)
	fileName := fmt.Sprintf("equipment_%s.%s", today.Format(lifecycle.DateLayout), format)

	var content []byte
	contentType := xlsxContentType
	if format == ExportFormatPDF {
		content, err = renderEquipmentPDF(rows, today.Format(lifecycle.DateLayout))
		contentType = pdfContentType
	} else {
		content, err = renderEquipmentXLSX(rows)
	}
	if err != nil {
		return nil, fmt.Errorf("не удалось сформировать выгрузку %s: %w", format, err)
	}

	s.logger.Debug("выгрузка оборудования", zap.String("format", format), zap.Int("rows", len(rows)))
	return &dto.ExportFileDTO{FileName: fileName, ContentType: contentType, Content: content}, nil
}

func exportRow(eq dto.EquipmentDTO) []interface{} {
	assignee := "-"
	if eq.AssignedTo != nil {
		assignee = eq.AssignedTo.Name
		if eq.AssignedTo.EmployeeCode != "" {
			assignee = fmt.Sprintf("%s (%s)", eq.AssignedTo.Name, eq.AssignedTo.EmployeeCode)
		}
	}
	return []interface{}{eq.Name, eq.ExpiryDate, eq.DaysLeft, eq.Status, assignee}
}

func renderEquipmentXLSX(rows []dto.EquipmentDTO) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheetName); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(exportSheetName, "A1", &exportHeaders); err != nil {
		return nil, err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(exportSheetName, "A1", "E1", style); err != nil {
		return nil, err
	}

	for i, eq := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := exportRow(eq)
		if err := f.SetSheetRow(exportSheetName, cell, &row); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(exportSheetName, "A", "A", 35)
	_ = f.SetColWidth(exportSheetName, "B", "D", 15)
	_ = f.SetColWidth(exportSheetName, "E", "E", 30)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderEquipmentPDF(rows []dto.EquipmentDTO, generatedOn string) ([]byte, error) {
	widths := []float64{70, 28, 20, 27, 45}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Active equipment register")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 8, "Generated on "+generatedOn)
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range exportHeaders {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, eq := range rows {
		for i, v := range exportRow(eq) {
			pdf.CellFormat(widths[i], 7, tr(fmt.Sprint(v)), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
