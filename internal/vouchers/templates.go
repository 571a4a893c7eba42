package vouchers

// All design coordinates below were authored against a 1920-wide canvas and
// are scaled by actualPageWidth/designWidth at render time.
const designWidth = 1920.0

const defaultTemplateFile = "voucher-default.pdf"

var templateBySlug = map[string]string{
	"drift-taxi":    "voucher-drift-taxi.pdf",
	"drift-rental":  "voucher-drift-rental.pdf",
	"drift-duo":     "voucher-drift-duo.pdf",
	"mega-package":  "voucher-mega-package.pdf",
	"gift-merchant": "voucher-gift.pdf",
}

// templateFile maps a product slug to its base PDF template, falling back to
// the default sheet for slugs added after this build shipped.
func templateFile(slug string) string {
	if file, ok := templateBySlug[slug]; ok {
		return file
	}
	return defaultTemplateFile
}

type themeColor struct {
	R, G, B uint8
}

var defaultTheme = themeColor{R: 236, G: 28, B: 36}

var themeBySlug = map[string]themeColor{
	"drift-taxi":   {R: 236, G: 28, B: 36},
	"drift-rental": {R: 255, G: 163, B: 0},
	"drift-duo":    {R: 0, G: 174, B: 239},
	"mega-package": {R: 148, G: 57, B: 212},
}

func themeFor(slug string) themeColor {
	if color, ok := themeBySlug[slug]; ok {
		return color
	}
	return defaultTheme
}
