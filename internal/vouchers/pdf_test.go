package vouchers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftkings-bg/driftkings-backend/pkg/config"
)

func TestTemplateFileFallsBackForUnknownSlug(t *testing.T) {
	assert.Equal(t, "voucher-drift-taxi.pdf", templateFile("drift-taxi"))
	assert.Equal(t, "voucher-gift.pdf", templateFile("gift-merchant"))
	assert.Equal(t, "voucher-default.pdf", templateFile("drift-supercup"))
	assert.Equal(t, "voucher-default.pdf", templateFile(""))
}

func TestThemeForFallsBackForUnknownSlug(t *testing.T) {
	assert.Equal(t, themeColor{R: 255, G: 163, B: 0}, themeFor("drift-rental"))
	assert.Equal(t, defaultTheme, themeFor("drift-supercup"))
	assert.Equal(t, defaultTheme, themeFor(""))
}

func TestScaledMapsDesignCanvasToSheet(t *testing.T) {
	// 1920 design units fill the whole 842pt sheet.
	assert.InDelta(t, 842.0, scaled(1920, 842), 1e-9)
	assert.InDelta(t, 421.0, scaled(960, 842), 1e-9)
	assert.InDelta(t, 0.0, scaled(0, 842), 1e-9)
}

func TestVerifyURLStripsTrailingSlash(t *testing.T) {
	id := uuid.MustParse("7e0c3c44-9d4e-4a61-92d5-0f5f2ab3a001")

	r := NewRenderer(config.VoucherConfig{PublicURL: "https://driftkings.bg/"})
	assert.Equal(t, "https://driftkings.bg/dash/verify/7e0c3c44-9d4e-4a61-92d5-0f5f2ab3a001", r.VerifyURL(id))

	r = NewRenderer(config.VoucherConfig{})
	assert.Equal(t, "http://localhost:3000/dash/verify/7e0c3c44-9d4e-4a61-92d5-0f5f2ab3a001", r.VerifyURL(id))
}

func TestDownloadFilenameUsesShortPrefix(t *testing.T) {
	id := uuid.MustParse("7e0c3c44-9d4e-4a61-92d5-0f5f2ab3a001")
	require.Equal(t, "voucher-7e0c3c44.pdf", DownloadFilename(id))
}

func TestRenderRequiresTemplateOnDisk(t *testing.T) {
	r := NewRenderer(config.VoucherConfig{TemplateDir: t.TempDir()})

	_, err := r.Render(activeVoucher(uuid.New()))
	require.Error(t, err)
	require.Contains(t, err.Error(), "voucher template")
}
