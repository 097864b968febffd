package service

import (
	"bytes"
	"errors"
	"mime/multipart"
	"path/filepath"
	"strings"
	"testing"

	"go-catalog-api/internal/model"
	"go-catalog-api/internal/repository"
	"go-catalog-api/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Magic bytes per extension so uploads sniff as real images.
var imageMagic = map[string][]byte{
	".jpg":  {0xFF, 0xD8, 0xFF, 0xE0},
	".jpeg": {0xFF, 0xD8, 0xFF, 0xE0},
	".png":  {0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'},
	".webp": []byte("RIFF\x00\x00\x00\x00WEBPVP8 "),
}

func makeFile(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	return form.File["file"][0]
}

func makeImage(t *testing.T, filename string, size int) *multipart.FileHeader {
	t.Helper()

	content := append([]byte{}, imageMagic[strings.ToLower(filepath.Ext(filename))]...)
	if pad := size - len(content); pad > 0 {
		content = append(content, bytes.Repeat([]byte("a"), pad)...)
	}
	return makeFile(t, filename, content)
}

func validInput() *ProductInput {
	return &ProductInput{
		Name:     "Shirt",
		Details:  "Cotton",
		Price:    "19.99",
		Size:     "M",
		Color:    "Blue",
		Category: "Apparel",
	}
}

func strPtr(s string) *string {
	return &s
}

type svcFixture struct {
	svc   CatalogService
	repo  repository.ProductRepository
	store *storage.MemoryStore
}

func newFixture(reclaim storage.ReclaimPolicy) *svcFixture {
	repo := repository.NewMemoryProductRepo()
	store := storage.NewMemoryStore()
	return &svcFixture{
		svc:   NewCatalogService(repo, store, reclaim, nil),
		repo:  repo,
		store: store,
	}
}

func TestCreate_Success(t *testing.T) {
	f := newFixture(nil)

	product, err := f.svc.Create(validInput(), ProductImages{Main: makeImage(t, "shirt.jpg", 128)})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, product.ID)
	assert.Equal(t, "Shirt", product.Name)
	assert.Equal(t, "Cotton", product.Details)
	assert.Equal(t, 19.99, product.Price)
	assert.Equal(t, "M", product.Size)
	assert.Equal(t, "Blue", product.Color)
	assert.Equal(t, "Apparel", product.Category)

	assert.True(t, strings.HasSuffix(product.Image, ".jpg"))
	assert.Contains(t, product.Image, "_main_")
	assert.True(t, f.store.Has(product.Image))

	// Unsupplied optional fields stay null.
	assert.Nil(t, product.SEOImage)
	assert.Nil(t, product.OGImage)
	assert.Nil(t, product.SEOMetaTitle)
	assert.Nil(t, product.SEOCanonical)
}

func TestCreate_OptionalFieldsAndImages(t *testing.T) {
	f := newFixture(nil)

	input := validInput()
	input.SEOMetaTitle = strPtr("Blue cotton shirt")
	input.OGMetaDescription = strPtr("A shirt for sharing")
	input.SEOCanonical = strPtr("https://shop.example.com/shirt")

	product, err := f.svc.Create(input, ProductImages{
		Main: makeImage(t, "shirt.png", 128),
		SEO:  makeImage(t, "shirt-seo.webp", 128),
		OG:   makeImage(t, "shirt-og.jpeg", 128),
	})
	require.NoError(t, err)

	require.NotNil(t, product.SEOImage)
	assert.Contains(t, *product.SEOImage, "_seo_")
	assert.True(t, strings.HasSuffix(*product.SEOImage, ".webp"))
	require.NotNil(t, product.OGImage)
	assert.Contains(t, *product.OGImage, "_og_")

	assert.Equal(t, "Blue cotton shirt", *product.SEOMetaTitle)
	assert.Equal(t, "A shirt for sharing", *product.OGMetaDescription)
	assert.Equal(t, "https://shop.example.com/shirt", *product.SEOCanonical)
	assert.Equal(t, 3, f.store.Len())
}

func TestCreate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(in *ProductInput)
		images    func(t *testing.T) ProductImages
		wantField string
	}{
		{
			name:      "empty name",
			mutate:    func(in *ProductInput) { in.Name = "" },
			wantField: "name",
		},
		{
			name:      "name too long",
			mutate:    func(in *ProductInput) { in.Name = strings.Repeat("x", 256) },
			wantField: "name",
		},
		{
			name:      "missing details",
			mutate:    func(in *ProductInput) { in.Details = "" },
			wantField: "details",
		},
		{
			name:      "price not numeric",
			mutate:    func(in *ProductInput) { in.Price = "cheap" },
			wantField: "price",
		},
		{
			name:      "price negative",
			mutate:    func(in *ProductInput) { in.Price = "-1" },
			wantField: "price",
		},
		{
			name:      "size too long",
			mutate:    func(in *ProductInput) { in.Size = strings.Repeat("L", 101) },
			wantField: "size",
		},
		{
			name:      "missing main image",
			mutate:    func(in *ProductInput) {},
			images:    func(t *testing.T) ProductImages { return ProductImages{} },
			wantField: "image",
		},
		{
			name:   "wrong image type",
			mutate: func(in *ProductInput) {},
			images: func(t *testing.T) ProductImages {
				return ProductImages{Main: makeImage(t, "shirt.gif", 128)}
			},
			wantField: "image",
		},
		{
			name:   "image too large",
			mutate: func(in *ProductInput) {},
			images: func(t *testing.T) ProductImages {
				return ProductImages{Main: makeImage(t, "shirt.jpg", int(MaxImageSize)+1)}
			},
			wantField: "image",
		},
		{
			name:   "non-image content named jpg",
			mutate: func(in *ProductInput) {},
			images: func(t *testing.T) ProductImages {
				return ProductImages{Main: makeFile(t, "payload.jpg", []byte("#!/bin/sh\necho hi\n"))}
			},
			wantField: "image",
		},
		{
			name:   "mislabeled seo image content",
			mutate: func(in *ProductInput) {},
			images: func(t *testing.T) ProductImages {
				return ProductImages{
					Main: makeImage(t, "shirt.jpg", 128),
					SEO:  makeFile(t, "seo.png", []byte("<html>not an image</html>")),
				}
			},
			wantField: "seo_image",
		},
		{
			name:   "bad seo image type",
			mutate: func(in *ProductInput) {},
			images: func(t *testing.T) ProductImages {
				return ProductImages{
					Main: makeImage(t, "shirt.jpg", 128),
					SEO:  makeImage(t, "shirt.bmp", 128),
				}
			},
			wantField: "seo_image",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(nil)

			input := validInput()
			tt.mutate(input)
			images := ProductImages{Main: makeImage(t, "shirt.jpg", 128)}
			if tt.images != nil {
				images = tt.images(t)
			}

			_, err := f.svc.Create(input, images)
			ve := AsValidationError(err)
			require.NotNil(t, ve, "expected ValidationError, got %v", err)
			assert.Contains(t, ve.Fields, tt.wantField)

			// Validation blocks the operation before any side effect.
			assert.Equal(t, 0, f.store.Len())
			products, _ := f.svc.List()
			assert.Empty(t, products)
		})
	}
}

func TestList_NewestFirst(t *testing.T) {
	f := newFixture(nil)

	first := validInput()
	first.Name = "A"
	_, err := f.svc.Create(first, ProductImages{Main: makeImage(t, "a.jpg", 64)})
	require.NoError(t, err)

	second := validInput()
	second.Name = "B"
	_, err = f.svc.Create(second, ProductImages{Main: makeImage(t, "b.jpg", 64)})
	require.NoError(t, err)

	products, err := f.svc.List()
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "B", products[0].Name)
	assert.Equal(t, "A", products[1].Name)
}

func TestGet_RoundTrip(t *testing.T) {
	f := newFixture(nil)

	created, err := f.svc.Create(validInput(), ProductImages{Main: makeImage(t, "shirt.jpg", 64)})
	require.NoError(t, err)

	got, err := f.svc.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, got.Name)
	assert.Equal(t, created.Price, got.Price)
	assert.Equal(t, created.Image, got.Image)
	assert.Nil(t, got.SEOMetaTitle)
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(nil)

	_, err := f.svc.Get(uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestUpdate_RetainsImagesAndOptionalFields(t *testing.T) {
	f := newFixture(nil)

	input := validInput()
	input.SEOMetaTitle = strPtr("Original title")
	created, err := f.svc.Create(input, ProductImages{
		Main: makeImage(t, "shirt.jpg", 64),
		SEO:  makeImage(t, "seo.png", 64),
	})
	require.NoError(t, err)

	update := validInput()
	update.Name = "Renamed Shirt"
	updated, err := f.svc.Update(created.ID, update, ProductImages{})
	require.NoError(t, err)

	assert.Equal(t, "Renamed Shirt", updated.Name)
	assert.Equal(t, created.Image, updated.Image)
	assert.Equal(t, *created.SEOImage, *updated.SEOImage)
	assert.Nil(t, updated.OGImage)
	// Optional key absent from the payload keeps the stored value.
	require.NotNil(t, updated.SEOMetaTitle)
	assert.Equal(t, "Original title", *updated.SEOMetaTitle)
}

func TestUpdate_OverwritesSuppliedOptionalFields(t *testing.T) {
	f := newFixture(nil)

	input := validInput()
	input.SEOMetaTitle = strPtr("Original title")
	created, err := f.svc.Create(input, ProductImages{Main: makeImage(t, "shirt.jpg", 64)})
	require.NoError(t, err)

	update := validInput()
	update.SEOMetaTitle = strPtr("New title")
	update.OGMetaKeywords = strPtr("shirt,cotton")
	updated, err := f.svc.Update(created.ID, update, ProductImages{})
	require.NoError(t, err)

	assert.Equal(t, "New title", *updated.SEOMetaTitle)
	assert.Equal(t, "shirt,cotton", *updated.OGMetaKeywords)
}

func TestUpdate_ReplacesSuppliedImage(t *testing.T) {
	f := newFixture(nil)

	created, err := f.svc.Create(validInput(), ProductImages{Main: makeImage(t, "old.jpg", 64)})
	require.NoError(t, err)
	oldImage := created.Image

	updated, err := f.svc.Update(created.ID, validInput(), ProductImages{Main: makeImage(t, "new.png", 64)})
	require.NoError(t, err)

	assert.NotEqual(t, oldImage, updated.Image)
	assert.True(t, strings.HasSuffix(updated.Image, ".png"))
	// Default policy keeps the superseded file around.
	assert.True(t, f.store.Has(oldImage))
}

func TestUpdate_DeleteFilesPolicyReclaimsReplacedImage(t *testing.T) {
	f := newFixture(storage.DeleteFiles{})

	created, err := f.svc.Create(validInput(), ProductImages{Main: makeImage(t, "old.jpg", 64)})
	require.NoError(t, err)
	oldImage := created.Image

	_, err = f.svc.Update(created.ID, validInput(), ProductImages{Main: makeImage(t, "new.jpg", 64)})
	require.NoError(t, err)

	assert.False(t, f.store.Has(oldImage))
	assert.Equal(t, 1, f.store.Len())
}

func TestUpdate_ValidationError(t *testing.T) {
	f := newFixture(nil)

	created, err := f.svc.Create(validInput(), ProductImages{Main: makeImage(t, "shirt.jpg", 64)})
	require.NoError(t, err)

	bad := validInput()
	bad.Name = ""
	_, err = f.svc.Update(created.ID, bad, ProductImages{})
	ve := AsValidationError(err)
	require.NotNil(t, ve)
	assert.Contains(t, ve.Fields, "name")

	// Nothing changed.
	got, err := f.svc.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shirt", got.Name)
}

func TestUpdate_NotFound(t *testing.T) {
	f := newFixture(nil)

	_, err := f.svc.Update(uuid.New(), validInput(), ProductImages{})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestDelete_ThenGetNotFound(t *testing.T) {
	f := newFixture(nil)

	created, err := f.svc.Create(validInput(), ProductImages{Main: makeImage(t, "shirt.jpg", 64)})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(created.ID))

	_, err = f.svc.Get(created.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)

	// Default policy leaves the image files untouched.
	assert.True(t, f.store.Has(created.Image))
}

func TestDelete_NotFound(t *testing.T) {
	f := newFixture(nil)

	err := f.svc.Delete(uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestDelete_DeleteFilesPolicyReclaimsImages(t *testing.T) {
	f := newFixture(storage.DeleteFiles{})

	created, err := f.svc.Create(validInput(), ProductImages{
		Main: makeImage(t, "shirt.jpg", 64),
		OG:   makeImage(t, "og.png", 64),
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(created.ID))
	assert.Equal(t, 0, f.store.Len())
}

// failingRepo wraps a working repository but refuses inserts, standing in for
// a database outage after the image files have been written.
type failingRepo struct {
	repository.ProductRepository
}

func (r *failingRepo) Create(*model.Product) error {
	return errors.New("connection refused")
}

func TestCreate_CompensatesFilesWhenInsertFails(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewCatalogService(&failingRepo{repository.NewMemoryProductRepo()}, store, nil, nil)

	_, err := svc.Create(validInput(), ProductImages{
		Main: makeImage(t, "shirt.jpg", 64),
		SEO:  makeImage(t, "seo.png", 64),
	})
	require.Error(t, err)
	assert.Nil(t, AsValidationError(err))

	// The written uploads were orphans and must be gone.
	assert.Equal(t, 0, store.Len())
}
