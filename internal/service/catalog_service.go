package service

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"go-catalog-api/internal/model"
	"go-catalog-api/internal/repository"
	"go-catalog-api/internal/storage"
	"go-catalog-api/internal/ws"
	"go-catalog-api/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxImageSize is the upload limit per image file (2048 KB).
const MaxImageSize int64 = 2048 * 1024

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ProductInput carries the textual form fields of a create or update request.
// Price arrives as the raw form string so "missing" and "not a number" can be
// reported separately. Optional SEO/OG fields are pointers: nil means the key
// was absent from the payload and the stored value must be kept.
type ProductInput struct {
	Name     string `form:"name" validate:"required,max=255"`
	Details  string `form:"details" validate:"required"`
	Price    string `form:"price" validate:"required,numeric"`
	Size     string `form:"size" validate:"required,max=100"`
	Color    string `form:"color" validate:"required,max=100"`
	Category string `form:"category" validate:"required,max=100"`

	SEOMetaTitle       *string `form:"seo_meta_title" validate:"omitempty,max=255"`
	OGMetaTitle        *string `form:"og_meta_title" validate:"omitempty,max=255"`
	SEOMetaKeywords    *string `form:"seo_meta_keywords"`
	OGMetaKeywords     *string `form:"og_meta_keywords"`
	SEOMetaDescription *string `form:"seo_meta_description"`
	OGMetaDescription  *string `form:"og_meta_description"`
	SEOCanonical       *string `form:"seo_canonical"`
}

// ProductImages holds the uploaded files of a create or update request. Any
// nil entry means no new file was supplied for that role.
type ProductImages struct {
	Main *multipart.FileHeader
	SEO  *multipart.FileHeader
	OG   *multipart.FileHeader
}

type CatalogService interface {
	List() ([]model.Product, error)
	Create(input *ProductInput, images ProductImages) (*model.Product, error)
	Get(id uuid.UUID) (*model.Product, error)
	Update(id uuid.UUID, input *ProductInput, images ProductImages) (*model.Product, error)
	Delete(id uuid.UUID) error
}

type catalogService struct {
	productRepo repository.ProductRepository
	images      storage.Store
	reclaim     storage.ReclaimPolicy
	hub         *ws.Hub
}

func NewCatalogService(pRepo repository.ProductRepository, images storage.Store, reclaim storage.ReclaimPolicy, hub *ws.Hub) CatalogService {
	if reclaim == nil {
		reclaim = storage.KeepFiles{}
	}
	return &catalogService{
		productRepo: pRepo,
		images:      images,
		reclaim:     reclaim,
		hub:         hub,
	}
}

func (s *catalogService) List() ([]model.Product, error) {
	return s.productRepo.FindAll()
}

func (s *catalogService) Get(id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *catalogService) Create(input *ProductInput, images ProductImages) (*model.Product, error) {
	// Validation happens in full before any file is written.
	fields := validateInput(input)
	if images.Main == nil {
		fields["image"] = "The image field is required"
	} else {
		validateImageFile(images.Main, "image", fields)
	}
	validateOptionalImages(images, fields)
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	price, _ := strconv.ParseFloat(input.Price, 64)

	// Write the uploads, tracking names so a failed insert can be compensated.
	var written []string
	mainName, err := s.images.Save(images.Main, storage.RoleMain)
	if err != nil {
		return nil, fmt.Errorf("save main image: %w", err)
	}
	written = append(written, mainName)

	var seoName, ogName *string
	if images.SEO != nil {
		name, err := s.images.Save(images.SEO, storage.RoleSEO)
		if err != nil {
			s.removeWritten(written)
			return nil, fmt.Errorf("save seo image: %w", err)
		}
		written = append(written, name)
		seoName = &name
	}
	if images.OG != nil {
		name, err := s.images.Save(images.OG, storage.RoleOG)
		if err != nil {
			s.removeWritten(written)
			return nil, fmt.Errorf("save og image: %w", err)
		}
		written = append(written, name)
		ogName = &name
	}

	product := &model.Product{
		Name:     input.Name,
		Details:  input.Details,
		Price:    price,
		Image:    mainName,
		Size:     input.Size,
		Color:    input.Color,
		Category: input.Category,

		SEOImage:           seoName,
		OGImage:            ogName,
		SEOMetaTitle:       input.SEOMetaTitle,
		OGMetaTitle:        input.OGMetaTitle,
		SEOMetaKeywords:    input.SEOMetaKeywords,
		OGMetaKeywords:     input.OGMetaKeywords,
		SEOMetaDescription: input.SEOMetaDescription,
		OGMetaDescription:  input.OGMetaDescription,
		SEOCanonical:       input.SEOCanonical,
	}

	if err := s.productRepo.Create(product); err != nil {
		// The row never existed, so the uploads are orphans: remove them.
		s.removeWritten(written)
		return nil, err
	}

	if s.hub != nil {
		s.hub.Publish(ws.CatalogEvent{
			Action:    ws.ActionProductCreated,
			ProductID: product.ID,
			Name:      product.Name,
			Message:   fmt.Sprintf("Product '%s' created", product.Name),
		})
	}

	return product, nil
}

func (s *catalogService) Update(id uuid.UUID, input *ProductInput, images ProductImages) (*model.Product, error) {
	existing, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	// Same textual rules as create; image files are optional here but follow
	// the create rules whenever one is supplied.
	fields := validateInput(input)
	validateOptionalImages(images, fields)
	if images.Main != nil {
		validateImageFile(images.Main, "image", fields)
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	price, _ := strconv.ParseFloat(input.Price, 64)

	var written, superseded []string
	if images.Main != nil {
		name, err := s.images.Save(images.Main, storage.RoleMain)
		if err != nil {
			return nil, fmt.Errorf("save main image: %w", err)
		}
		written = append(written, name)
		superseded = append(superseded, existing.Image)
		existing.Image = name
	}
	if images.SEO != nil {
		name, err := s.images.Save(images.SEO, storage.RoleSEO)
		if err != nil {
			s.removeWritten(written)
			return nil, fmt.Errorf("save seo image: %w", err)
		}
		written = append(written, name)
		if existing.SEOImage != nil {
			superseded = append(superseded, *existing.SEOImage)
		}
		existing.SEOImage = &name
	}
	if images.OG != nil {
		name, err := s.images.Save(images.OG, storage.RoleOG)
		if err != nil {
			s.removeWritten(written)
			return nil, fmt.Errorf("save og image: %w", err)
		}
		written = append(written, name)
		if existing.OGImage != nil {
			superseded = append(superseded, *existing.OGImage)
		}
		existing.OGImage = &name
	}

	existing.Name = input.Name
	existing.Details = input.Details
	existing.Price = price
	existing.Size = input.Size
	existing.Color = input.Color
	existing.Category = input.Category

	// Optional SEO/OG fields: only keys present in the payload overwrite.
	if input.SEOMetaTitle != nil {
		existing.SEOMetaTitle = input.SEOMetaTitle
	}
	if input.OGMetaTitle != nil {
		existing.OGMetaTitle = input.OGMetaTitle
	}
	if input.SEOMetaKeywords != nil {
		existing.SEOMetaKeywords = input.SEOMetaKeywords
	}
	if input.OGMetaKeywords != nil {
		existing.OGMetaKeywords = input.OGMetaKeywords
	}
	if input.SEOMetaDescription != nil {
		existing.SEOMetaDescription = input.SEOMetaDescription
	}
	if input.OGMetaDescription != nil {
		existing.OGMetaDescription = input.OGMetaDescription
	}
	if input.SEOCanonical != nil {
		existing.SEOCanonical = input.SEOCanonical
	}

	if err := s.productRepo.Update(existing); err != nil {
		s.removeWritten(written)
		return nil, err
	}

	// The new names are committed; the old files fall to the reclaim policy.
	s.reclaim.Reclaim(s.images, superseded...)

	if s.hub != nil {
		s.hub.Publish(ws.CatalogEvent{
			Action:    ws.ActionProductUpdated,
			ProductID: existing.ID,
			Name:      existing.Name,
			Message:   fmt.Sprintf("Product '%s' updated", existing.Name),
		})
	}

	return existing, nil
}

func (s *catalogService) Delete(id uuid.UUID) error {
	existing, err := s.Get(id)
	if err != nil {
		return err
	}

	if err := s.productRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	orphaned := []string{existing.Image}
	if existing.SEOImage != nil {
		orphaned = append(orphaned, *existing.SEOImage)
	}
	if existing.OGImage != nil {
		orphaned = append(orphaned, *existing.OGImage)
	}
	s.reclaim.Reclaim(s.images, orphaned...)

	if s.hub != nil {
		s.hub.Publish(ws.CatalogEvent{
			Action:    ws.ActionProductDeleted,
			ProductID: existing.ID,
			Name:      existing.Name,
			Message:   fmt.Sprintf("Product '%s' deleted", existing.Name),
		})
	}

	return nil
}

// removeWritten deletes files written earlier in a request whose row mutation
// failed. This is compensation, not policy: the files were never referenced.
func (s *catalogService) removeWritten(names []string) {
	for _, name := range names {
		_ = s.images.Remove(name)
	}
}

func validateInput(input *ProductInput) map[string]string {
	fields := make(map[string]string)
	for _, fe := range validator.ValidateStruct(input) {
		if _, seen := fields[fe.Field]; !seen {
			fields[fe.Field] = fe.Message()
		}
	}
	// The numeric tag accepts any parseable number; negatives fail here.
	if _, seen := fields["price"]; !seen {
		if price, err := strconv.ParseFloat(input.Price, 64); err == nil && price < 0 {
			fields["price"] = "The price must be at least 0"
		}
	}
	return fields
}

func validateImageFile(file *multipart.FileHeader, field string, fields map[string]string) {
	typeMsg := fmt.Sprintf("The %s must be a file of type: jpg, jpeg, png, webp", field)

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExts[ext] {
		fields[field] = typeMsg
		return
	}
	if file.Size > MaxImageSize {
		fields[field] = fmt.Sprintf("The %s may not be greater than 2048 kilobytes", field)
		return
	}
	// The extension is caller-supplied: sniff the bytes so a non-image payload
	// named x.jpg is still rejected.
	contentType, err := detectImageType(file)
	if err != nil || !allowedImageTypes[contentType] {
		fields[field] = typeMsg
	}
}

// detectImageType sniffs the upload's leading bytes.
func detectImageType(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	buf := make([]byte, 512)
	n, err := src.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

func validateOptionalImages(images ProductImages, fields map[string]string) {
	if images.SEO != nil {
		validateImageFile(images.SEO, "seo_image", fields)
	}
	if images.OG != nil {
		validateImageFile(images.OG, "og_image", fields)
	}
}
