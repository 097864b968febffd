package model

// Product is a single catalog entry. The main image is set at creation and is
// never cleared afterwards; the SEO/OG columns are nullable and only written
// when the caller supplies them.
type Product struct {
	BaseModel
	Name     string  `gorm:"type:varchar(255);not null" json:"name"`
	Details  string  `gorm:"type:text;not null" json:"details"`
	Price    float64 `gorm:"not null" json:"price"`
	Image    string  `gorm:"type:varchar(255);not null" json:"image"`
	Size     string  `gorm:"type:varchar(100);not null" json:"size"`
	Color    string  `gorm:"type:varchar(100);not null" json:"color"`
	Category string  `gorm:"type:varchar(100);not null" json:"category"`

	// SEO + OG
	SEOImage           *string `gorm:"type:varchar(255)" json:"seo_image"`
	OGImage            *string `gorm:"type:varchar(255)" json:"og_image"`
	SEOMetaTitle       *string `gorm:"type:varchar(255)" json:"seo_meta_title"`
	OGMetaTitle        *string `gorm:"type:varchar(255)" json:"og_meta_title"`
	SEOMetaKeywords    *string `gorm:"type:text" json:"seo_meta_keywords"`
	OGMetaKeywords     *string `gorm:"type:text" json:"og_meta_keywords"`
	SEOMetaDescription *string `gorm:"type:text" json:"seo_meta_description"`
	OGMetaDescription  *string `gorm:"type:text" json:"og_meta_description"`
	SEOCanonical       *string `gorm:"type:varchar(255)" json:"seo_canonical"`
}
