package product

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CategoryRef is the category summary embedded in product responses.
type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Variant struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Size      *string         `json:"size,omitempty"`
	Color     *string         `json:"color,omitempty"`
	Material  *string         `json:"material,omitempty"`
	Style     *string         `json:"style,omitempty"`
	SKU       string          `json:"sku"`
	Price     decimal.Decimal `json:"price"`
	Inventory int             `json:"inventory"`
	Images    []string        `json:"images"`
}

type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	UserID    string    `json:"userId"`
	UserName  *string   `json:"userName,omitempty"`
	Rating    int       `json:"rating"`
	Title     *string   `json:"title,omitempty"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Product struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	SalePrice   *decimal.Decimal `json:"salePrice,omitempty"`
	Inventory   int              `json:"inventory"`
	Images      []string         `json:"images"`
	Featured    bool             `json:"featured"`
	IsNew       bool             `json:"isNew"`
	Material    *string          `json:"material,omitempty"`
	CategoryID  string           `json:"categoryId"`
	Category    *CategoryRef     `json:"category,omitempty"`
	Variants    []Variant        `json:"variants"`
	Reviews     []Review         `json:"reviews,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// EffectivePrice is the sale price when set, otherwise the list price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

func (p Product) Variant(id string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// VariantBySize finds the first variant with the given size label.
func (p Product) VariantBySize(size string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.Size != nil && strings.EqualFold(*v.Size, size) {
			return v, true
		}
	}
	return Variant{}, false
}

var (
	nonWord    = regexp.MustCompile(`[^\w\s-]`)
	whitespace = regexp.MustCompile(`\s+`)
	dashes     = regexp.MustCompile(`-+`)
)

// Slugify lowercases name, strips punctuation and joins words with dashes.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonWord.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	s = dashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

type ListFilter struct {
	Limit      int
	Cursor     string
	CategoryID string
	Featured   *bool
	IsNew      *bool
	Search     string
}

type VariantInput struct {
	Size      *string         `json:"size"`
	Color     *string         `json:"color"`
	Material  *string         `json:"material"`
	Style     *string         `json:"style"`
	SKU       string          `json:"sku"`
	Price     decimal.Decimal `json:"price"`
	Inventory int             `json:"inventory"`
	Images    []string        `json:"images"`
}

type CreateInput struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	SalePrice   *decimal.Decimal `json:"salePrice"`
	Inventory   int              `json:"inventory"`
	Images      []string         `json:"images"`
	Featured    bool             `json:"featured"`
	IsNew       bool             `json:"isNew"`
	Material    *string          `json:"material"`
	CategoryID  string           `json:"categoryId"`
	Variants    []VariantInput   `json:"variants"`
}

func (in CreateInput) Validate() map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(in.Name) == "" {
		errs["name"] = "Name is required"
	}
	if strings.TrimSpace(in.Description) == "" {
		errs["description"] = "Description is required"
	}
	if !in.Price.IsPositive() {
		errs["price"] = "Price must be positive"
	}
	if in.SalePrice != nil && !in.SalePrice.IsPositive() {
		errs["salePrice"] = "Sale price must be positive"
	}
	if in.Inventory < 0 {
		errs["inventory"] = "Inventory cannot be negative"
	}
	if len(in.Images) == 0 {
		errs["images"] = "At least one image is required"
	}
	if in.CategoryID == "" {
		errs["categoryId"] = "Category is required"
	}
	validateVariants(in.Variants, errs)
	return errs
}

// UpdateInput is a partial update; nil fields are left unchanged. A non-nil
// Variants replaces the whole variant set.
type UpdateInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	SalePrice   *decimal.Decimal `json:"salePrice"`
	Inventory   *int             `json:"inventory"`
	Images      []string         `json:"images"`
	Featured    *bool            `json:"featured"`
	IsNew       *bool            `json:"isNew"`
	Material    *string          `json:"material"`
	CategoryID  *string          `json:"categoryId"`
	Variants    *[]VariantInput  `json:"variants"`
}

func (in UpdateInput) Validate() map[string]string {
	errs := map[string]string{}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		errs["name"] = "Name is required"
	}
	if in.Price != nil && !in.Price.IsPositive() {
		errs["price"] = "Price must be positive"
	}
	if in.SalePrice != nil && !in.SalePrice.IsPositive() {
		errs["salePrice"] = "Sale price must be positive"
	}
	if in.Inventory != nil && *in.Inventory < 0 {
		errs["inventory"] = "Inventory cannot be negative"
	}
	if in.Images != nil && len(in.Images) == 0 {
		errs["images"] = "At least one image is required"
	}
	if in.Variants != nil {
		validateVariants(*in.Variants, errs)
	}
	return errs
}

func validateVariants(vs []VariantInput, errs map[string]string) {
	for _, v := range vs {
		if strings.TrimSpace(v.SKU) == "" {
			errs["variants"] = "Variant SKU is required"
			return
		}
		if !v.Price.IsPositive() {
			errs["variants"] = "Variant price must be positive"
			return
		}
		if v.Inventory < 0 {
			errs["variants"] = "Variant inventory cannot be negative"
			return
		}
	}
}

type ReviewInput struct {
	Rating  int     `json:"rating"`
	Title   *string `json:"title"`
	Comment *string `json:"comment"`
}

func (in ReviewInput) Validate() map[string]string {
	errs := map[string]string{}
	if in.Rating < 1 || in.Rating > 5 {
		errs["rating"] = "Rating must be between 1 and 5"
	}
	return errs
}
