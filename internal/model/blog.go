package model

import (
	"time"
)

type BlogPost struct {
	ID             int        `json:"id"`
	Title          string     `json:"title"`
	Slug           string     `json:"slug"`
	Content        string     `json:"content"`
	Excerpt        string     `json:"excerpt"`
	CoverImage     string     `json:"coverImage"`
	Author         string     `json:"author"`
	Published      bool       `json:"published"`
	PublishedAt    *time.Time `json:"publishedAt"`
	UpdatedAt      *time.Time `json:"updatedAt"`
	Tags           []string   `json:"tags"`
	Category       string     `json:"category"`
	IsDraft        bool       `json:"isDraft"`
	SEOTitle       string     `json:"seoTitle"`
	SEODescription string     `json:"seoDescription"`

	// Computed fields (not stored)
	HTMLContent string `json:"-"`
	ReadTime    int    `json:"-"`
}

// Date is the date shown on listings.
func (p *BlogPost) Date() time.Time {
	if p.PublishedAt != nil {
		return *p.PublishedAt
	}
	if p.UpdatedAt != nil {
		return *p.UpdatedAt
	}
	return time.Time{}
}
