package handler

import (
	"bytes"
	"embed"
	"html/template"

	"go-catalog-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

//go:embed templates/storefront.html
var templateFS embed.FS

var storefrontTmpl = template.Must(template.ParseFS(templateFS, "templates/storefront.html"))

// DefaultOGImage is served as the og:image when a product has none.
const DefaultOGImage = "/images/default-og.png"

// StorefrontHandler renders the public product detail page. The page itself is
// hydrated client-side by the SPA; this handler only guarantees that crawlers
// see the product's SEO and Open Graph head tags in the initial HTML.
type StorefrontHandler struct {
	service   service.CatalogService
	siteTitle string
}

func NewStorefrontHandler(s service.CatalogService, siteTitle string) *StorefrontHandler {
	return &StorefrontHandler{service: s, siteTitle: siteTitle}
}

type storefrontPage struct {
	Title         string
	Description   string
	Keywords      string
	Canonical     string
	OGTitle       string
	OGDescription string
	OGKeywords    string
	OGURL         string
	OGImage       string
	ProductID     string
}

// Show handles GET /shop/product/:id
func (h *StorefrontHandler) Show(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(404).SendString("Product not found")
	}

	product, err := h.service.Get(id)
	if err != nil {
		if err == service.ErrProductNotFound {
			return c.Status(404).SendString("Product not found")
		}
		return c.Status(500).SendString("Internal Server Error")
	}

	currentURL := c.BaseURL() + c.OriginalURL()

	page := storefrontPage{
		Title:         orDefault(product.SEOMetaTitle, h.siteTitle),
		Description:   orDefault(product.SEOMetaDescription, ""),
		Keywords:      orDefault(product.SEOMetaKeywords, ""),
		Canonical:     orDefault(product.SEOCanonical, currentURL),
		OGTitle:       orDefault(product.OGMetaTitle, ""),
		OGDescription: orDefault(product.OGMetaDescription, ""),
		OGKeywords:    orDefault(product.OGMetaKeywords, ""),
		OGURL:         currentURL,
		OGImage:       c.BaseURL() + DefaultOGImage,
		ProductID:     product.ID.String(),
	}
	if product.OGImage != nil {
		page.OGImage = c.BaseURL() + "/images/" + *product.OGImage
	}

	var buf bytes.Buffer
	if err := storefrontTmpl.Execute(&buf, page); err != nil {
		return c.Status(500).SendString("Internal Server Error")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

func orDefault(s *string, def string) string {
	if s != nil {
		return *s
	}
	return def
}
