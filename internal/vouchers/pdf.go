package vouchers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/signintech/gopdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/driftkings-bg/driftkings-backend/pkg/config"
	"github.com/driftkings-bg/driftkings-backend/pkg/db/models"
)

const fontName = "montserrat"

// A4 landscape in points. All templates are authored for this sheet.
const (
	pageWidth  = 842.0
	pageHeight = 595.0
)

// Design-space layout, in 1920-wide canvas units.
const (
	qrDesignSize   = 260.0
	qrDesignMargin = 70.0

	recipientDesignX    = 130.0
	recipientDesignY    = 760.0
	recipientDesignFont = 64.0

	expiryDesignX    = 130.0
	expiryDesignY    = 860.0
	expiryDesignFont = 36.0
)

const qrImagePixels = 512

// Renderer composes voucher PDFs from the slug-keyed base templates.
type Renderer struct {
	cfg config.VoucherConfig
}

// NewRenderer builds a PDF renderer from voucher configuration.
func NewRenderer(cfg config.VoucherConfig) *Renderer {
	return &Renderer{cfg: cfg}
}

// Render draws the personalized voucher for download: the base template for
// the product slug, a verification QR code in the top-right corner, and the
// uppercased recipient and expiry strings at their scaled design positions.
func (r *Renderer) Render(voucher *models.Voucher) ([]byte, error) {
	if voucher == nil {
		return nil, fmt.Errorf("voucher required")
	}

	templatePath := filepath.Join(r.cfg.TemplateDir, templateFile(voucher.ProductSlug))
	if _, err := os.Stat(templatePath); err != nil {
		return nil, fmt.Errorf("voucher template %s: %w", templatePath, err)
	}

	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: gopdf.Rect{W: pageWidth, H: pageHeight}})
	pdf.AddPage()

	template := pdf.ImportPage(templatePath, 1, "/MediaBox")
	pdf.UseImportedTemplate(template, 0, 0, pageWidth, pageHeight)

	if err := pdf.AddTTFFont(fontName, r.cfg.FontPath); err != nil {
		return nil, fmt.Errorf("load voucher font %s: %w", r.cfg.FontPath, err)
	}

	scale := pageWidth / designWidth

	if err := r.drawQR(&pdf, voucher.ID, scale); err != nil {
		return nil, err
	}

	if err := pdf.SetFont(fontName, "", recipientDesignFont*scale); err != nil {
		return nil, fmt.Errorf("set recipient font: %w", err)
	}
	pdf.SetTextColor(255, 255, 255)
	pdf.SetX(scaled(recipientDesignX, pageWidth))
	pdf.SetY(scaled(recipientDesignY, pageWidth))
	if err := pdf.Cell(nil, strings.ToUpper(voucher.RecipientName)); err != nil {
		return nil, fmt.Errorf("draw recipient: %w", err)
	}

	if err := pdf.SetFont(fontName, "", expiryDesignFont*scale); err != nil {
		return nil, fmt.Errorf("set expiry font: %w", err)
	}
	color := themeFor(voucher.ProductSlug)
	pdf.SetTextColor(color.R, color.G, color.B)
	pdf.SetX(scaled(expiryDesignX, pageWidth))
	pdf.SetY(scaled(expiryDesignY, pageWidth))
	expiry := fmt.Sprintf("valid until %s", voucher.ExpiresAt.Format("02.01.2006"))
	if err := pdf.Cell(nil, strings.ToUpper(expiry)); err != nil {
		return nil, fmt.Errorf("draw expiry: %w", err)
	}

	return pdf.GetBytesPdf(), nil
}

func (r *Renderer) drawQR(pdf *gopdf.GoPdf, voucherID uuid.UUID, scale float64) error {
	png, err := qrcode.Encode(r.VerifyURL(voucherID), qrcode.Medium, qrImagePixels)
	if err != nil {
		return fmt.Errorf("encode verification qr: %w", err)
	}
	holder, err := gopdf.ImageHolderByBytes(png)
	if err != nil {
		return fmt.Errorf("load qr image: %w", err)
	}

	size := qrDesignSize * scale
	margin := qrDesignMargin * scale
	x := pageWidth - size - margin
	y := margin

	if err := pdf.ImageByHolder(holder, x, y, &gopdf.Rect{W: size, H: size}); err != nil {
		return fmt.Errorf("place qr image: %w", err)
	}
	return nil
}

// VerifyURL is the public link the QR code resolves to.
func (r *Renderer) VerifyURL(voucherID uuid.UUID) string {
	base := strings.TrimRight(r.cfg.VerifyBaseURL(), "/")
	return fmt.Sprintf("%s/dash/verify/%s", base, voucherID)
}

// DownloadFilename builds the suggested filename from a short id prefix.
func DownloadFilename(voucherID uuid.UUID) string {
	return fmt.Sprintf("voucher-%s.pdf", voucherID.String()[:8])
}

// scaled converts a 1920-canvas design coordinate to sheet points.
func scaled(designValue, actualPageWidth float64) float64 {
	return designValue * actualPageWidth / designWidth
}
