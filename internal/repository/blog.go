package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Trinaxus/TON.BAND/internal/model"
	"github.com/Trinaxus/TON.BAND/internal/tablestore"
)

var ErrPostNotFound = errors.New("blog post not found")

// Field ids of the blog table. Rows are read and written without
// user_field_names so renames in the table UI don't break the mapping.
const (
	fieldTitle          = "field_4306509"
	fieldSlug           = "field_4306510"
	fieldContent        = "field_4306511"
	fieldExcerpt        = "field_4306512"
	fieldCoverImage     = "field_4306513"
	fieldAuthor         = "field_4306514"
	fieldPublished      = "field_4306515"
	fieldPublishedAt    = "field_4306516"
	fieldUpdatedAt      = "field_4306517"
	fieldTags           = "field_4306518"
	fieldCategory       = "field_4306519"
	fieldIsDraft        = "field_4306520"
	fieldSEOTitle       = "field_4306521"
	fieldSEODescription = "field_4306522"
)

type BlogRepository interface {
	// Published lists posts that are not drafts.
	Published(ctx context.Context) ([]*model.BlogPost, error)
	All(ctx context.Context) ([]*model.BlogPost, error)
	ByID(ctx context.Context, id int) (*model.BlogPost, error)
	BySlug(ctx context.Context, slug string) (*model.BlogPost, error)
	Create(ctx context.Context, post *model.BlogPost) error
	Update(ctx context.Context, post *model.BlogPost) error
	Delete(ctx context.Context, id int) error
}

type blogRepository struct {
	store   RowStore
	tableID string
}

func NewBlogRepository(store RowStore, tableID string) BlogRepository {
	return &blogRepository{store: store, tableID: tableID}
}

func (r *blogRepository) Published(ctx context.Context) ([]*model.BlogPost, error) {
	return r.list(ctx, map[string]string{fieldIsDraft: "0"})
}

func (r *blogRepository) All(ctx context.Context) ([]*model.BlogPost, error) {
	return r.list(ctx, nil)
}

func (r *blogRepository) list(ctx context.Context, equal map[string]string) ([]*model.BlogPost, error) {
	rows, err := r.store.ListAll(ctx, r.tableID, tablestore.ListOptions{Equal: equal})
	if err != nil {
		return nil, err
	}
	posts := make([]*model.BlogPost, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, toPost(row))
	}
	return posts, nil
}

func (r *blogRepository) ByID(ctx context.Context, id int) (*model.BlogPost, error) {
	row, err := r.store.Get(ctx, r.tableID, id, false)
	if errors.Is(err, tablestore.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return toPost(row), nil
}

func (r *blogRepository) BySlug(ctx context.Context, slug string) (*model.BlogPost, error) {
	page, err := r.store.List(ctx, r.tableID, tablestore.ListOptions{
		Equal: map[string]string{fieldSlug: slug},
		Size:  1,
	})
	if err != nil {
		return nil, err
	}
	if len(page.Results) == 0 {
		return nil, ErrPostNotFound
	}
	return toPost(page.Results[0]), nil
}

func (r *blogRepository) Create(ctx context.Context, post *model.BlogPost) error {
	row, err := r.store.Create(ctx, r.tableID, toPostRow(post), false)
	if err != nil {
		return err
	}
	post.ID = row.ID()
	return nil
}

func (r *blogRepository) Update(ctx context.Context, post *model.BlogPost) error {
	_, err := r.store.Update(ctx, r.tableID, post.ID, toPostRow(post), false)
	if errors.Is(err, tablestore.ErrNotFound) {
		return ErrPostNotFound
	}
	return err
}

func (r *blogRepository) Delete(ctx context.Context, id int) error {
	err := r.store.Delete(ctx, r.tableID, id)
	if errors.Is(err, tablestore.ErrNotFound) {
		return ErrPostNotFound
	}
	return err
}

func toPostRow(p *model.BlogPost) tablestore.Row {
	row := tablestore.Row{
		fieldTitle:          p.Title,
		fieldSlug:           p.Slug,
		fieldContent:        p.Content,
		fieldExcerpt:        p.Excerpt,
		fieldCoverImage:     p.CoverImage,
		fieldAuthor:         p.Author,
		fieldPublished:      p.Published,
		fieldTags:           strings.Join(p.Tags, ", "),
		fieldCategory:       p.Category,
		fieldIsDraft:        p.IsDraft,
		fieldSEOTitle:       p.SEOTitle,
		fieldSEODescription: p.SEODescription,
		fieldPublishedAt:    nil,
		fieldUpdatedAt:      nil,
	}
	if p.PublishedAt != nil {
		row[fieldPublishedAt] = p.PublishedAt.UTC().Format(time.RFC3339)
	}
	if p.UpdatedAt != nil {
		row[fieldUpdatedAt] = p.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return row
}

func toPost(row tablestore.Row) *model.BlogPost {
	return &model.BlogPost{
		ID:             row.ID(),
		Title:          row.String(fieldTitle),
		Slug:           row.String(fieldSlug),
		Content:        stringField(row, fieldContent),
		Excerpt:        row.String(fieldExcerpt),
		CoverImage:     row.String(fieldCoverImage),
		Author:         row.String(fieldAuthor),
		Published:      Truthy(row[fieldPublished]),
		PublishedAt:    timeField(row, fieldPublishedAt),
		UpdatedAt:      timeField(row, fieldUpdatedAt),
		Tags:           Tags(row[fieldTags]),
		Category:       row.String(fieldCategory),
		IsDraft:        Truthy(row[fieldIsDraft]),
		SEOTitle:       row.String(fieldSEOTitle),
		SEODescription: row.String(fieldSEODescription),
	}
}

// stringField keeps whitespace, which matters for markdown content.
func stringField(row tablestore.Row, field string) string {
	s, _ := row[field].(string)
	return s
}

func timeField(row tablestore.Row, field string) *time.Time {
	s := row.String(field)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// Truthy reads checkbox-like values: true, 1, "1", "true".
func Truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	case int:
		return b != 0
	case json.Number:
		return b.String() != "0"
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	}
	return false
}

// Tags accepts a comma separated string, a list of strings or a list of
// select options.
func Tags(v any) []string {
	var tags []string
	switch t := v.(type) {
	case string:
		for _, s := range strings.Split(t, ",") {
			if s = strings.TrimSpace(s); s != "" {
				tags = append(tags, s)
			}
		}
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				tags = append(tags, s)
			}
		}
	case []any:
		for _, item := range t {
			switch it := item.(type) {
			case string:
				if s := strings.TrimSpace(it); s != "" {
					tags = append(tags, s)
				}
			case map[string]any:
				if s, ok := it["value"].(string); ok && strings.TrimSpace(s) != "" {
					tags = append(tags, strings.TrimSpace(s))
				}
			}
		}
	}
	if tags == nil {
		tags = []string{}
	}
	return tags
}
