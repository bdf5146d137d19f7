package category

import (
	"strings"
	"time"

	"github.com/tabng/tab-backend/internal/product"
)

type Category struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Slug          string            `json:"slug"`
	Description   *string           `json:"description,omitempty"`
	Image         *string           `json:"image,omitempty"`
	ParentID      *string           `json:"parentId"`
	Parent        *Category         `json:"parent,omitempty"`
	Subcategories []Category        `json:"subcategories,omitempty"`
	Products      []product.Product `json:"products,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

type Input struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	Slug        string  `json:"slug"`
	ParentID    *string `json:"parentId"`
}

func (in Input) Validate() map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(in.Name) == "" {
		errs["name"] = "Name is required"
	}
	if strings.TrimSpace(in.Slug) == "" {
		errs["slug"] = "Slug is required"
	}
	return errs
}
