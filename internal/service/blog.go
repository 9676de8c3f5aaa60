package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Trinaxus/TON.BAND/internal/markdown"
	"github.com/Trinaxus/TON.BAND/internal/model"
	"github.com/Trinaxus/TON.BAND/internal/repository"
	"github.com/Trinaxus/TON.BAND/internal/slug"
)

var ErrTitleContentRequired = errors.New("title and content are required")

// BlogInput is the admin form for a post. Tags and IsDraft accept the loose
// shapes the editor sends.
type BlogInput struct {
	Title          string `json:"title"`
	Slug           string `json:"slug"`
	Content        string `json:"content"`
	Excerpt        string `json:"excerpt"`
	CoverImage     string `json:"coverImage"`
	Author         string `json:"author"`
	Tags           any    `json:"tags"`
	Category       string `json:"category"`
	IsDraft        any    `json:"isDraft"`
	SEOTitle       string `json:"seoTitle"`
	SEODescription string `json:"seoDescription"`
}

type BlogService struct {
	blogRepository repository.BlogRepository
	parser         *markdown.Parser
	now            func() time.Time
}

func NewBlogService(blogRepository repository.BlogRepository) *BlogService {
	return &BlogService{
		blogRepository: blogRepository,
		// posts are written by admins only
		parser: markdown.NewParser(markdown.WithRawHTML()),
		now:    time.Now,
	}
}

// Posts lists published posts, newest first.
func (s *BlogService) Posts(ctx context.Context) ([]*model.BlogPost, error) {
	posts, err := s.blogRepository.Published(ctx)
	if err != nil {
		return nil, err
	}
	visible := posts[:0]
	for _, p := range posts {
		if p.IsDraft {
			continue
		}
		p.ReadTime = s.calculateReadTime(p.Content)
		visible = append(visible, p)
	}
	sortByDate(visible)
	return visible, nil
}

// Post returns a published post with rendered content.
func (s *BlogService) Post(ctx context.Context, postSlug string) (*model.BlogPost, error) {
	post, err := s.blogRepository.BySlug(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	if post.IsDraft {
		return nil, repository.ErrPostNotFound
	}
	if err := s.render(post); err != nil {
		return nil, err
	}
	return post, nil
}

// All lists every post including drafts.
func (s *BlogService) All(ctx context.Context) ([]*model.BlogPost, error) {
	posts, err := s.blogRepository.All(ctx)
	if err != nil {
		return nil, err
	}
	sortByDate(posts)
	return posts, nil
}

func (s *BlogService) ByID(ctx context.Context, id int) (*model.BlogPost, error) {
	return s.blogRepository.ByID(ctx, id)
}

func (s *BlogService) Create(ctx context.Context, in BlogInput) (*model.BlogPost, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return nil, ErrTitleContentRequired
	}

	now := s.now().UTC()
	post := s.apply(&model.BlogPost{}, in)
	post.UpdatedAt = &now
	if post.Published {
		post.PublishedAt = &now
	}

	if err := s.blogRepository.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	slog.Info("blog post created", "post_id", post.ID, "slug", post.Slug, "draft", post.IsDraft)
	return post, nil
}

func (s *BlogService) Update(ctx context.Context, id int, in BlogInput) (*model.BlogPost, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return nil, ErrTitleContentRequired
	}

	post, err := s.blogRepository.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	s.apply(post, in)
	post.UpdatedAt = &now
	if post.Published && post.PublishedAt == nil {
		post.PublishedAt = &now
	}
	if !post.Published {
		post.PublishedAt = nil
	}

	if err := s.blogRepository.Update(ctx, post); err != nil {
		return nil, err
	}
	slog.Info("blog post updated", "post_id", post.ID, "slug", post.Slug, "draft", post.IsDraft)
	return post, nil
}

func (s *BlogService) Delete(ctx context.Context, id int) error {
	if err := s.blogRepository.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("blog post deleted", "post_id", id)
	return nil
}

func (s *BlogService) apply(post *model.BlogPost, in BlogInput) *model.BlogPost {
	post.Title = strings.TrimSpace(in.Title)
	post.Slug = slug.Make(in.Slug)
	if post.Slug == "" {
		post.Slug = slug.Make(post.Title)
	}
	post.Content = in.Content
	post.Excerpt = strings.TrimSpace(in.Excerpt)
	post.CoverImage = strings.TrimSpace(in.CoverImage)
	post.Author = strings.TrimSpace(in.Author)
	post.Tags = repository.Tags(in.Tags)
	post.Category = strings.TrimSpace(in.Category)
	post.IsDraft = repository.Truthy(in.IsDraft)
	post.Published = !post.IsDraft
	post.SEOTitle = strings.TrimSpace(in.SEOTitle)
	post.SEODescription = strings.TrimSpace(in.SEODescription)
	return post
}

func (s *BlogService) render(post *model.BlogPost) error {
	html, err := s.parser.Parse([]byte(post.Content))
	if err != nil {
		return fmt.Errorf("failed to render post %d: %w", post.ID, err)
	}
	post.HTMLContent = string(html)
	post.ReadTime = s.calculateReadTime(post.Content)
	return nil
}

func (s *BlogService) calculateReadTime(content string) int {
	words := strings.Fields(content)
	wordsPerMinute := 200
	readTime := len(words) / wordsPerMinute
	if readTime < 1 {
		readTime = 1
	}
	return readTime
}

func sortByDate(posts []*model.BlogPost) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Date().After(posts[j].Date())
	})
}
