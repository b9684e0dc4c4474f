package infra

// pdf.go — Confirmación de pedido en PDF con go-pdf/fpdf.
// Hoja A4 con encabezado de la distribuidora, datos del cliente, tabla de
// líneas con desglose (precio unitario ya con margen e IVA) y totales.
// El archivo se guarda en storagePath/pedido_{numero}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/model"

	"github.com/go-pdf/fpdf"
)

// GeneratePedidoPDF renders the order confirmation sheet for a placed Pedido.
// Returns the absolute path to the generated file.
func GeneratePedidoPDF(pedido *model.Pedido, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("pedido_%d.pdf", pedido.NumeroPedido)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Encabezado ────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, "FarmaCruz", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, "Confirmación de Pedido", "", 1, "L", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW/2, 6, fmt.Sprintf("Pedido N° %d", pedido.NumeroPedido), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW/2, 6, pedido.CreatedAt.Format("02/01/2006 15:04"), "", 1, "R", false, 0, "")

	if pedido.Cliente != nil {
		nombre := pedido.Cliente.Username
		if pedido.Cliente.NombreCompleto != nil && *pedido.Cliente.NombreCompleto != "" {
			nombre = *pedido.Cliente.NombreCompleto
		}
		pdf.CellFormat(contentW, 6, "Cliente: "+nombre, "", 1, "L", false, 0, "")
		if pedido.Cliente.Info != nil && pedido.Cliente.Info.RazonSocial != nil {
			pdf.CellFormat(contentW, 5, *pedido.Cliente.Info.RazonSocial, "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(3)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(3)

	// ── Tabla de líneas ───────────────────────────────────────────────────────
	col1 := contentW * 0.44 // producto
	col2 := contentW * 0.12 // cantidad
	col3 := contentW * 0.22 // precio unitario
	col4 := contentW * 0.22 // subtotal

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1, 6, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, "Cant", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 6, "P. Unitario", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 6, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range pedido.Items {
		nombre := item.NombreProducto
		if len(nombre) > 48 {
			nombre = nombre[:47] + "…"
		}
		pdf.CellFormat(col1, 6, nombre, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, fmt.Sprintf("x%d", item.Cantidad), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 6, "$"+item.PrecioUnitario.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 6, "$"+item.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(2)

	// ── Totales ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(col1+col2+col3, 6, "Subtotal:", "", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 6, "$"+pedido.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.CellFormat(col1+col2+col3, 6, "IVA:", "", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 6, "$"+pedido.MontoIVA.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(col1+col2+col3, 8, "TOTAL:", "", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 8, "$"+pedido.Total.StringFixed(2), "", 1, "R", false, 0, "")

	if pedido.Observaciones != nil && *pedido.Observaciones != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(contentW, 5, "Observaciones: "+*pedido.Observaciones, "", "L", false)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(contentW, 5, "Gracias por su preferencia.", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}
