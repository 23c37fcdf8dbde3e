package invoice

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/wicaksono/laundry-pos/internal/model"
)

// ArtifactName is the file name of the rendered receipt for an invoice.
func ArtifactName(invoiceNumber string) string {
	return "Invoice_" + invoiceNumber + ".pdf"
}

// PDFRenderer turns an invoice snapshot into a printable A5 receipt.
type PDFRenderer struct {
	ShopName    string
	ShopAddress string
	ShopPhone   string
}

func NewPDFRenderer(name, address, phone string) *PDFRenderer {
	return &PDFRenderer{
		ShopName:    name,
		ShopAddress: address,
		ShopPhone:   phone,
	}
}

func (r *PDFRenderer) Render(snap *model.InvoiceSnapshot) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	// Header
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 7, r.ShopName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	if r.ShopAddress != "" {
		pdf.CellFormat(0, 4, r.ShopAddress, "", 1, "C", false, 0, "")
	}
	if r.ShopPhone != "" {
		pdf.CellFormat(0, 4, "Telp: "+r.ShopPhone, "", 1, "C", false, 0, "")
	}
	pdf.Ln(2)
	pdf.SetLineWidth(0.4)
	pdf.Line(10, pdf.GetY(), 138, pdf.GetY())
	pdf.Ln(3)

	// Invoice meta
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 5, snap.InvoiceNumber, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	r.metaRow(pdf, "Tanggal", snap.ReceivedAt.Format("02-01-2006 15:04"))
	r.metaRow(pdf, "Pelanggan", snap.CustomerName)
	r.metaRow(pdf, "Telepon", snap.CustomerPhone)
	r.metaRow(pdf, "Kasir", snap.CashierName)
	r.metaRow(pdf, "Status", statusLabel(snap.Status))
	if snap.EstimatedCompletion != nil {
		r.metaRow(pdf, "Estimasi Selesai", snap.EstimatedCompletion.Format("02-01-2006"))
	}
	pdf.Ln(2)

	// Item table
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(46, 5, "Layanan", "1", 0, "L", true, 0, "")
	pdf.CellFormat(22, 5, "Jumlah", "1", 0, "R", true, 0, "")
	pdf.CellFormat(25, 5, "Harga", "1", 0, "R", true, 0, "")
	pdf.CellFormat(25, 5, "Subtotal", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	for _, line := range snap.Lines {
		qty := line.Quantity.String() + " " + line.Unit
		pdf.CellFormat(46, 5, line.ServiceName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(22, 5, qty, "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 5, formatRupiah(line.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 5, formatRupiah(line.Subtotal), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(2)

	// Totals
	r.totalRow(pdf, "Total", snap.TotalAmount, false)
	if !snap.Discount.IsZero() {
		r.totalRow(pdf, "Diskon", snap.Discount.Neg(), false)
	}
	r.totalRow(pdf, "Total Bayar", snap.FinalAmount, true)
	r.totalRow(pdf, "Dibayar", snap.PaidAmount, false)
	if change := snap.Change(); change.IsPositive() {
		r.totalRow(pdf, "Kembalian", change, false)
	}

	if snap.Notes != "" {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.MultiCell(0, 4, "Catatan: "+snap.Notes, "", "L", false)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 4, "Terima kasih atas kepercayaan Anda", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderToFile writes the receipt into dir and returns the full path.
func (r *PDFRenderer) RenderToFile(snap *model.InvoiceSnapshot, dir string) (string, error) {
	data, err := r.Render(snap)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, ArtifactName(snap.InvoiceNumber))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (r *PDFRenderer) metaRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.CellFormat(32, 4, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 4, ": "+value, "", 1, "L", false, 0, "")
}

func (r *PDFRenderer) totalRow(pdf *gofpdf.Fpdf, label string, amount decimal.Decimal, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	pdf.SetFont("Helvetica", style, 9)
	pdf.CellFormat(68, 5, label, "", 0, "R", false, 0, "")
	pdf.CellFormat(50, 5, formatRupiah(amount), "", 1, "R", false, 0, "")
}

func statusLabel(s model.Status) string {
	switch s {
	case model.StatusReceived:
		return "Diterima"
	case model.StatusWashing:
		return "Dicuci"
	case model.StatusIroning:
		return "Disetrika"
	case model.StatusDone:
		return "Selesai"
	case model.StatusPickedUp:
		return "Diambil"
	}
	return string(s)
}

// formatRupiah renders an amount with Indonesian digit grouping, so 12500
// becomes "Rp 12.500".
func formatRupiah(d decimal.Decimal) string {
	neg := d.IsNegative()
	whole := d.Abs().Truncate(0)
	frac := d.Abs().Sub(whole)

	digits := whole.String()
	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)

	out := "Rp " + strings.Join(groups, ".")
	if !frac.IsZero() {
		out += "," + strings.TrimPrefix(frac.StringFixed(2), "0.")
	}
	if neg {
		out = "-" + out
	}
	return out
}
