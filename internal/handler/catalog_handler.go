package handler

import (
	"mime/multipart"

	"go-catalog-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CatalogHandler struct {
	service service.CatalogService
}

func NewCatalogHandler(s service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: s}
}

// Optional textual fields: a key absent from the form must not clear the
// stored value, so presence is tracked via pointers.
var optionalFields = []struct {
	key string
	set func(in *service.ProductInput, v *string)
}{
	{"seo_meta_title", func(in *service.ProductInput, v *string) { in.SEOMetaTitle = v }},
	{"og_meta_title", func(in *service.ProductInput, v *string) { in.OGMetaTitle = v }},
	{"seo_meta_keywords", func(in *service.ProductInput, v *string) { in.SEOMetaKeywords = v }},
	{"og_meta_keywords", func(in *service.ProductInput, v *string) { in.OGMetaKeywords = v }},
	{"seo_meta_description", func(in *service.ProductInput, v *string) { in.SEOMetaDescription = v }},
	{"og_meta_description", func(in *service.ProductInput, v *string) { in.OGMetaDescription = v }},
	{"seo_canonical", func(in *service.ProductInput, v *string) { in.SEOCanonical = v }},
}

func productInputFromForm(c *fiber.Ctx) *service.ProductInput {
	input := &service.ProductInput{
		Name:     c.FormValue("name"),
		Details:  c.FormValue("details"),
		Price:    c.FormValue("price"),
		Size:     c.FormValue("size"),
		Color:    c.FormValue("color"),
		Category: c.FormValue("category"),
	}

	if form, err := c.MultipartForm(); err == nil {
		for _, f := range optionalFields {
			if vals, ok := form.Value[f.key]; ok && len(vals) > 0 {
				v := vals[0]
				f.set(input, &v)
			}
		}
	}

	return input
}

func formFile(c *fiber.Ctx, key string) *multipart.FileHeader {
	file, err := c.FormFile(key)
	if err != nil {
		return nil
	}
	return file
}

func productImagesFromForm(c *fiber.Ctx) service.ProductImages {
	return service.ProductImages{
		Main: formFile(c, "image"),
		SEO:  formFile(c, "seo_image"),
		OG:   formFile(c, "og_image"),
	}
}

// respondError maps service failures onto the API's status codes.
func respondError(c *fiber.Ctx, err error) error {
	if ve := service.AsValidationError(err); ve != nil {
		return c.Status(422).JSON(fiber.Map{"errors": ve.Fields})
	}
	if err == service.ErrProductNotFound {
		return c.Status(404).JSON(fiber.Map{"error": "Product not found"})
	}
	return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
}

// GetProducts handles GET /products
func (h *CatalogHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.service.List()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(products)
}

// CreateProduct handles POST /products (multipart form)
func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	input := productInputFromForm(c)
	images := productImagesFromForm(c)

	if _, err := h.service.Create(input, images); err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Product created successfully"})
}

// EditProduct handles GET /products/:id/edit
func (h *CatalogHandler) EditProduct(c *fiber.Ctx) error {
	// A malformed id cannot reference any product, so it is a plain 404.
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Product not found"})
	}

	product, err := h.service.Get(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// UpdateProduct handles POST /products/:id (multipart form)
func (h *CatalogHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Product not found"})
	}

	input := productInputFromForm(c)
	images := productImagesFromForm(c)

	if _, err := h.service.Update(id, input, images); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Product updated successfully"})
}

// DeleteProduct handles DELETE /products/:id
func (h *CatalogHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Product not found"})
	}

	if err := h.service.Delete(id); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Product deleted successfully"})
}
