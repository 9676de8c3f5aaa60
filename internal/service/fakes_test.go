package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Trinaxus/TON.BAND/internal/fileapi"
	"github.com/Trinaxus/TON.BAND/internal/model"
	"github.com/Trinaxus/TON.BAND/internal/repository"
)

type fakeUsers struct {
	mu     sync.Mutex
	users  map[int]*model.User
	nextID int
	err    error
}

func newFakeUsers(users ...*model.User) *fakeUsers {
	f := &fakeUsers{users: map[int]*model.User{}, nextID: 100}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) All(context.Context) ([]*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*model.User, 0, len(f.users))
	for _, u := range f.users {
		c := *u
		out = append(out, &c)
	}
	return out, nil
}

func (f *fakeUsers) ByID(_ context.Context, id int) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) ByEmail(ctx context.Context, email string) (*model.User, error) {
	users, err := f.All(ctx)
	if err != nil {
		return nil, err
	}
	if u := repository.FindByEmail(users, email); u != nil {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	c := *u
	f.users[u.ID] = &c
	return nil
}

func (f *fakeUsers) Update(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.users[u.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	c := *u
	if c.PasswordHash == "" {
		c.PasswordHash = old.PasswordHash
	}
	f.users[u.ID] = &c
	return nil
}

func (f *fakeUsers) UpdateRole(_ context.Context, id int, role any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Role = model.ParseRole(role)
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUsers) setRole(id int, role model.Role) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id].Role = role
}

type fakeBlog struct {
	posts  map[int]*model.BlogPost
	nextID int
}

func newFakeBlog(posts ...*model.BlogPost) *fakeBlog {
	f := &fakeBlog{posts: map[int]*model.BlogPost{}}
	for _, p := range posts {
		f.posts[p.ID] = p
		if p.ID > f.nextID {
			f.nextID = p.ID
		}
	}
	return f
}

func (f *fakeBlog) Published(ctx context.Context) ([]*model.BlogPost, error) {
	var out []*model.BlogPost
	for _, p := range f.posts {
		if !p.IsDraft {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeBlog) All(context.Context) ([]*model.BlogPost, error) {
	var out []*model.BlogPost
	for _, p := range f.posts {
		c := *p
		out = append(out, &c)
	}
	return out, nil
}

func (f *fakeBlog) ByID(_ context.Context, id int) (*model.BlogPost, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, repository.ErrPostNotFound
	}
	c := *p
	return &c, nil
}

func (f *fakeBlog) BySlug(_ context.Context, slug string) (*model.BlogPost, error) {
	for _, p := range f.posts {
		if p.Slug == slug {
			c := *p
			return &c, nil
		}
	}
	return nil, repository.ErrPostNotFound
}

func (f *fakeBlog) Create(_ context.Context, p *model.BlogPost) error {
	f.nextID++
	p.ID = f.nextID
	c := *p
	f.posts[p.ID] = &c
	return nil
}

func (f *fakeBlog) Update(_ context.Context, p *model.BlogPost) error {
	if _, ok := f.posts[p.ID]; !ok {
		return repository.ErrPostNotFound
	}
	c := *p
	f.posts[p.ID] = &c
	return nil
}

func (f *fakeBlog) Delete(_ context.Context, id int) error {
	if _, ok := f.posts[id]; !ok {
		return repository.ErrPostNotFound
	}
	delete(f.posts, id)
	return nil
}

type fakePortfolio struct {
	entries []*model.PortfolioEntry
}

func (f *fakePortfolio) All(context.Context) ([]*model.PortfolioEntry, error) {
	return f.entries, nil
}

func (f *fakePortfolio) ByGallery(_ context.Context, gallery string) (*model.PortfolioEntry, error) {
	for _, e := range f.entries {
		if e.Gallery == gallery {
			c := *e
			return &c, nil
		}
	}
	return nil, repository.ErrPortfolioNotFound
}

func (f *fakePortfolio) Create(_ context.Context, e *model.PortfolioEntry) error {
	e.ID = len(f.entries) + 1
	c := *e
	f.entries = append(f.entries, &c)
	return nil
}

func (f *fakePortfolio) Update(_ context.Context, e *model.PortfolioEntry) error {
	for i, old := range f.entries {
		if old.ID == e.ID {
			c := *e
			f.entries[i] = &c
			return nil
		}
	}
	return repository.ErrPortfolioNotFound
}

type fakeVisitors struct {
	seen  map[string]time.Time
	total int64
}

func (f *fakeVisitors) Touch(_ context.Context, id string, now time.Time) (bool, error) {
	_, ok := f.seen[id]
	f.seen[id] = now
	if !ok {
		f.total++
	}
	return !ok, nil
}

func (f *fakeVisitors) Stats(_ context.Context, since time.Time) (model.VisitorStats, error) {
	stats := model.VisitorStats{TotalVisits: f.total}
	for _, t := range f.seen {
		if !t.Before(since) {
			stats.ActiveVisitors++
		}
	}
	return stats, nil
}

// fakeFiles is an in-memory file host.
type fakeFiles struct {
	mu        sync.Mutex
	galleries map[string][]string
	meta      map[string]model.GalleryMeta
	policies  map[string]*fileapi.VerifyResult
	checkErrs map[string]error
	metaErr   error
	ops       []fileapi.FileOperation
	savedMeta map[string]model.GalleryMeta
	uploads   []fileapi.Upload
}

func (f *fakeFiles) Galleries(context.Context, bool) (map[string][]string, error) {
	return f.galleries, nil
}

func (f *fakeFiles) Meta(_ context.Context, ref model.GalleryRef, _ bool) (model.GalleryMeta, error) {
	if f.metaErr != nil {
		return nil, f.metaErr
	}
	return f.meta[ref.String()], nil
}

func (f *fakeFiles) SetMeta(_ context.Context, ref model.GalleryRef, meta model.GalleryMeta) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.savedMeta == nil {
		f.savedMeta = map[string]model.GalleryMeta{}
	}
	f.savedMeta[ref.String()] = meta
	return json.RawMessage(`{"success":true}`), nil
}

func (f *fakeFiles) DeleteGallery(context.Context, model.GalleryRef) (json.RawMessage, error) {
	return json.RawMessage(`{"success":true}`), nil
}

func (f *fakeFiles) DeleteImage(context.Context, model.GalleryRef, string) (json.RawMessage, error) {
	return json.RawMessage(`{"success":true}`), nil
}

func (f *fakeFiles) VerifyPassword(_ context.Context, gallery, _ string) (*fileapi.VerifyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.checkErrs[gallery]; ok {
		return nil, err
	}
	if res, ok := f.policies[gallery]; ok {
		return res, nil
	}
	return &fileapi.VerifyResult{Success: true, AccessType: "public"}, nil
}

func (f *fakeFiles) SetPassword(context.Context, string, string) (*fileapi.SetPasswordResult, error) {
	return &fileapi.SetPasswordResult{Success: true}, nil
}

func (f *fakeFiles) FileOperation(_ context.Context, op fileapi.FileOperation) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, op)
	return json.RawMessage(`{"success":true}`), nil
}

func (f *fakeFiles) Upload(_ context.Context, up fileapi.Upload) (*fileapi.UploadResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, up)
	return &fileapi.UploadResponse{Status: 200, JSON: json.RawMessage(`{"success":true}`)}, nil
}
