package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/storytelling-api/internal/models"
	"github.com/storytelling-api/internal/repository"
)

// Store is the shared in-memory state behind the mock repositories, so that
// joins and cascades behave like the SQL schema.
type Store struct {
	mu     sync.Mutex
	nextID int64

	Users      map[int64]*models.User
	Stories    map[int64]*models.Story
	StoryTags  map[int64][]int64
	Chapters   map[int64]*models.Chapter
	Comments   map[int64]*models.Comment
	Followers  map[int64]*models.Follower
	Categories map[int64]*models.Category
	Tags       map[int64]*models.Tag
	Views      map[int64]*models.StoryView
}

func NewStore() *Store {
	return &Store{
		Users:      make(map[int64]*models.User),
		Stories:    make(map[int64]*models.Story),
		StoryTags:  make(map[int64][]int64),
		Chapters:   make(map[int64]*models.Chapter),
		Comments:   make(map[int64]*models.Comment),
		Followers:  make(map[int64]*models.Follower),
		Categories: make(map[int64]*models.Category),
		Tags:       make(map[int64]*models.Tag),
		Views:      make(map[int64]*models.StoryView),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// NewRepositories wires every mock repository to one fresh store
func NewRepositories() (*repository.Repositories, *Store) {
	store := NewStore()
	return &repository.Repositories{
		Tx:        &MockTransactor{},
		User:      &MockUserRepository{store: store},
		Story:     &MockStoryRepository{store: store},
		Chapter:   &MockChapterRepository{store: store},
		Comment:   &MockCommentRepository{store: store},
		Follower:  &MockFollowerRepository{store: store},
		Category:  &MockCategoryRepository{store: store},
		Tag:       &MockTagRepository{store: store},
		StoryView: &MockStoryViewRepository{store: store},
	}, store
}

// MockTransactor serializes transactions. It does not roll back on error.
type MockTransactor struct {
	mu    sync.Mutex
	Calls int
}

var _ repository.Transactor = (*MockTransactor)(nil)

func (m *MockTransactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	return fn(ctx)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneInt(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	store *Store
	Error error
}

var _ repository.UserRepository = (*MockUserRepository)(nil)

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.Error != nil {
		return m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.Users {
		if existing.Email == user.Email || existing.DisplayName == user.DisplayName {
			return repository.ErrDuplicate
		}
	}
	now := time.Now()
	user.ID = s.id()
	user.CreatedAt, user.UpdatedAt = now, now
	s.Users[user.ID] = copyUser(user)
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.Users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyUser(u), nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.Users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	if m.Error != nil {
		return false, m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.Users[id]
	return ok, nil
}

func (m *MockUserRepository) List(ctx context.Context, page models.Page) ([]*models.User, int, error) {
	if m.Error != nil {
		return nil, 0, m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*models.User, 0, len(s.Users))
	for _, u := range s.Users {
		all = append(all, copyUser(u))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return window(all, page), len(all), nil
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	if m.Error != nil {
		return m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.Users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, other := range s.Users {
		if other.ID != user.ID && other.DisplayName == user.DisplayName {
			return repository.ErrDuplicate
		}
	}
	stored.DisplayName = user.DisplayName
	stored.Bio = user.Bio
	stored.Location = user.Location
	stored.UpdatedAt = time.Now()
	user.UpdatedAt = stored.UpdatedAt
	return nil
}

func window[T any](items []T, page models.Page) []T {
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Limit()
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// MockStoryRepository is a mock implementation of StoryRepository
type MockStoryRepository struct {
	store *Store
	Error error
}

var _ repository.StoryRepository = (*MockStoryRepository)(nil)

// copyStory must be called with the store lock held
func (s *Store) copyStory(story *models.Story) *models.Story {
	c := *story
	c.CategoryID = cloneInt(story.CategoryID)
	c.PublishedAt = cloneTime(story.PublishedAt)
	c.DeletedAt = cloneTime(story.DeletedAt)
	c.Tags = []models.Tag{}
	for _, tagID := range s.StoryTags[story.ID] {
		if t, ok := s.Tags[tagID]; ok {
			c.Tags = append(c.Tags, *t)
		}
	}
	sort.Slice(c.Tags, func(i, j int) bool { return c.Tags[i].Name < c.Tags[j].Name })
	return &c
}

func (m *MockStoryRepository) Create(ctx context.Context, story *models.Story) error {
	if m.Error != nil {
		return m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	story.ID = s.id()
	story.CreatedAt, story.UpdatedAt = now, now
	stored := *story
	stored.CategoryID = cloneInt(story.CategoryID)
	stored.PublishedAt = cloneTime(story.PublishedAt)
	stored.DeletedAt = nil
	stored.Tags = nil
	s.Stories[story.ID] = &stored
	return nil
}

func (m *MockStoryRepository) GetByID(ctx context.Context, id int64) (*models.Story, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	story, ok := s.Stories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.copyStory(story), nil
}

func (m *MockStoryRepository) GetForUpdate(ctx context.Context, id int64) (*models.Story, error) {
	return m.GetByID(ctx, id)
}

func (m *MockStoryRepository) List(ctx context.Context, filter models.StoryFilter) ([]*models.Story, int, error) {
	if m.Error != nil {
		return nil, 0, m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*models.Story
	for _, story := range s.Stories {
		if story.DeletedAt != nil {
			continue
		}
		if !filter.IncludeHidden && story.Status != models.StatusPublished &&
			(filter.ViewerID == 0 || story.AuthorID != filter.ViewerID) {
			continue
		}
		if filter.AuthorID != nil && story.AuthorID != *filter.AuthorID {
			continue
		}
		if filter.CategoryID != nil && (story.CategoryID == nil || *story.CategoryID != *filter.CategoryID) {
			continue
		}
		if filter.TagSlug != "" && !s.hasTagSlug(story.ID, filter.TagSlug) {
			continue
		}
		matched = append(matched, s.copyStory(story))
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch {
		case a.PublishedAt != nil && b.PublishedAt == nil:
			return true
		case a.PublishedAt == nil && b.PublishedAt != nil:
			return false
		case a.PublishedAt != nil && !a.PublishedAt.Equal(*b.PublishedAt):
			return a.PublishedAt.After(*b.PublishedAt)
		}
		return a.ID > b.ID
	})
	return window(matched, filter.Page), len(matched), nil
}

func (s *Store) hasTagSlug(storyID int64, slug string) bool {
	for _, tagID := range s.StoryTags[storyID] {
		if t, ok := s.Tags[tagID]; ok && t.Slug == slug {
			return true
		}
	}
	return false
}

func (m *MockStoryRepository) Update(ctx context.Context, story *models.Story) error {
	if m.Error != nil {
		return m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.Stories[story.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Title = story.Title
	stored.Synopsis = story.Synopsis
	stored.Status = story.Status
	stored.CategoryID = cloneInt(story.CategoryID)
	stored.PublishedAt = cloneTime(story.PublishedAt)
	stored.UpdatedAt = story.UpdatedAt
	stored.DeletedAt = cloneTime(story.DeletedAt)
	return nil
}

func (m *MockStoryRepository) SetTags(ctx context.Context, storyID int64, tagIDs []int64) error {
	if m.Error != nil {
		return m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.StoryTags[storyID] = append([]int64(nil), tagIDs...)
	return nil
}

func (m *MockStoryRepository) HardDelete(ctx context.Context, id int64) error {
	if m.Error != nil {
		return m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.Stories[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.Stories, id)
	delete(s.StoryTags, id)
	for cid, c := range s.Chapters {
		if c.StoryID == id {
			delete(s.Chapters, cid)
		}
	}
	for cid, c := range s.Comments {
		if c.StoryID == id {
			delete(s.Comments, cid)
		}
	}
	for vid, v := range s.Views {
		if v.StoryID == id {
			delete(s.Views, vid)
		}
	}
	return nil
}

// MockChapterRepository is a mock implementation of ChapterRepository
type MockChapterRepository struct {
	store *Store
	Error error
}

var _ repository.ChapterRepository = (*MockChapterRepository)(nil)

func copyChapter(c *models.Chapter) *models.Chapter {
	out := *c
	out.PublishedAt = cloneTime(c.PublishedAt)
	out.DeletedAt = cloneTime(c.DeletedAt)
	return &out
}

func (m *MockChapterRepository) Create(ctx context.Context, chapter *models.Chapter) error {
	if m.Error != nil {
		return m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	chapter.ID = s.id()
	chapter.CreatedAt, chapter.UpdatedAt = now, now
	s.Chapters[chapter.ID] = copyChapter(chapter)
	return nil
}

func (m *MockChapterRepository) GetByID(ctx context.Context, id int64) (*models.Chapter, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.Chapters[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyChapter(c), nil
}

func (m *MockChapterRepository) GetForUpdate(ctx context.Context, id int64) (*models.Chapter, error) {
	return m.GetByID(ctx, id)
}

func (m *MockChapterRepository) ListByStory(ctx context.Context, storyID int64) ([]*models.Chapter, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	chapters := []*models.Chapter{}
	for _, c := range s.Chapters {
		if c.StoryID == storyID && c.DeletedAt == nil {
			chapters = append(chapters, copyChapter(c))
		}
	}
	sort.Slice(chapters, func(i, j int) bool {
		if chapters[i].Number != chapters[j].Number {
			return chapters[i].Number < chapters[j].Number
		}
		return chapters[i].ID < chapters[j].ID
	})
	return chapters, nil
}

func (m *MockChapterRepository) Update(ctx context.Context, chapter *models.Chapter) error {
	if m.Error != nil {
		return m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.Chapters[chapter.ID]; !ok {
		return repository.ErrNotFound
	}
	s.Chapters[chapter.ID] = copyChapter(chapter)
	return nil
}

func (m *MockChapterRepository) HardDelete(ctx context.Context, id int64) error {
	if m.Error != nil {
		return m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.Chapters[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.Chapters, id)
	for cid, c := range s.Comments {
		if c.ChapterID != nil && *c.ChapterID == id {
			delete(s.Comments, cid)
		}
	}
	return nil
}

// MockCommentRepository is a mock implementation of CommentRepository
type MockCommentRepository struct {
	store *Store
	Error error
}

var _ repository.CommentRepository = (*MockCommentRepository)(nil)

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if m.Error != nil {
		return m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	comment.ID = s.id()
	comment.CreatedAt, comment.UpdatedAt = now, now
	stored := *comment
	stored.ChapterID = cloneInt(comment.ChapterID)
	s.Comments[comment.ID] = &stored
	return nil
}

func (m *MockCommentRepository) List(ctx context.Context, filter models.CommentFilter, limit int) ([]*models.Comment, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	comments := []*models.Comment{}
	for _, c := range s.Comments {
		if filter.StoryID != nil && c.StoryID != *filter.StoryID {
			continue
		}
		if filter.ChapterID != nil && (c.ChapterID == nil || *c.ChapterID != *filter.ChapterID) {
			continue
		}
		out := *c
		out.ChapterID = cloneInt(c.ChapterID)
		comments = append(comments, &out)
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].ID > comments[j].ID })
	if len(comments) > limit {
		comments = comments[:limit]
	}
	return comments, nil
}

// MockFollowerRepository is a mock implementation of FollowerRepository
type MockFollowerRepository struct {
	store *Store
	Error error
}

var _ repository.FollowerRepository = (*MockFollowerRepository)(nil)

func (m *MockFollowerRepository) Create(ctx context.Context, edge *models.Follower) error {
	if m.Error != nil {
		return m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	edge.ID = s.id()
	stored := *edge
	s.Followers[edge.ID] = &stored
	return nil
}

func (m *MockFollowerRepository) DeleteNewest(ctx context.Context, followerID, followingID int64) error {
	if m.Error != nil {
		return m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var newest int64
	for id, e := range s.Followers {
		if e.FollowerID == followerID && e.FollowingID == followingID && id > newest {
			newest = id
		}
	}
	if newest == 0 {
		return repository.ErrNotFound
	}
	delete(s.Followers, newest)
	return nil
}

func (m *MockFollowerRepository) List(ctx context.Context, filter models.FollowFilter, limit int) ([]*models.Follower, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	edges := []*models.Follower{}
	for _, e := range s.Followers {
		if filter.FollowerID != nil && e.FollowerID != *filter.FollowerID {
			continue
		}
		if filter.FollowingID != nil && e.FollowingID != *filter.FollowingID {
			continue
		}
		out := *e
		edges = append(edges, &out)
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID > edges[j].ID })
	if len(edges) > limit {
		edges = edges[:limit]
	}
	return edges, nil
}

// MockCategoryRepository is a mock implementation of CategoryRepository
type MockCategoryRepository struct {
	store *Store
	Error error
}

var _ repository.CategoryRepository = (*MockCategoryRepository)(nil)

func (m *MockCategoryRepository) GetOrCreate(ctx context.Context, name, slug string) (*models.Category, bool, error) {
	if m.Error != nil {
		return nil, false, m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var bySlug *models.Category
	for _, c := range s.Categories {
		if c.Name == name {
			out := *c
			return &out, false, nil
		}
		if c.Slug == slug {
			bySlug = c
		}
	}
	if bySlug != nil {
		out := *bySlug
		return &out, false, nil
	}

	c := &models.Category{ID: s.id(), Name: name, Slug: slug}
	s.Categories[c.ID] = c
	out := *c
	return &out, true, nil
}

func (m *MockCategoryRepository) Exists(ctx context.Context, id int64) (bool, error) {
	if m.Error != nil {
		return false, m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.Categories[id]
	return ok, nil
}

func (m *MockCategoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Category, 0, len(s.Categories))
	for _, c := range s.Categories {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// MockTagRepository is a mock implementation of TagRepository
type MockTagRepository struct {
	store *Store
	Error error
}

var _ repository.TagRepository = (*MockTagRepository)(nil)

func (m *MockTagRepository) GetOrCreate(ctx context.Context, name, slug string) (*models.Tag, bool, error) {
	if m.Error != nil {
		return nil, false, m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var bySlug *models.Tag
	for _, t := range s.Tags {
		if t.Name == name {
			out := *t
			return &out, false, nil
		}
		if t.Slug == slug {
			bySlug = t
		}
	}
	if bySlug != nil {
		out := *bySlug
		return &out, false, nil
	}

	t := &models.Tag{ID: s.id(), Name: name, Slug: slug}
	s.Tags[t.ID] = t
	out := *t
	return &out, true, nil
}

func (m *MockTagRepository) GetByIDs(ctx context.Context, ids []int64) ([]models.Tag, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	tags := []models.Tag{}
	for _, id := range ids {
		if t, ok := s.Tags[id]; ok {
			tags = append(tags, *t)
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

func (m *MockTagRepository) List(ctx context.Context) ([]*models.Tag, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Tag, 0, len(s.Tags))
	for _, t := range s.Tags {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// MockStoryViewRepository is a mock implementation of StoryViewRepository
type MockStoryViewRepository struct {
	store *Store
	Error error
}

var _ repository.StoryViewRepository = (*MockStoryViewRepository)(nil)

func (m *MockStoryViewRepository) Record(ctx context.Context, userID, storyID int64) (*models.StoryView, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, v := range s.Views {
		if v.UserID == userID && v.StoryID == storyID {
			v.ViewCount++
			v.LastViewedAt = now
			out := *v
			return &out, nil
		}
	}

	v := &models.StoryView{ID: s.id(), UserID: userID, StoryID: storyID, ViewCount: 1, LastViewedAt: now}
	s.Views[v.ID] = v
	out := *v
	return &out, nil
}

func (m *MockStoryViewRepository) Recent(ctx context.Context, userID int64, limit int) ([]*models.RecentStory, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	recent := []*models.RecentStory{}
	for _, v := range s.Views {
		if v.UserID != userID {
			continue
		}
		story, ok := s.Stories[v.StoryID]
		if !ok || story.DeletedAt != nil {
			continue
		}
		recent = append(recent, &models.RecentStory{StoryView: *v, Title: story.Title, Status: story.Status})
	}
	sort.Slice(recent, func(i, j int) bool {
		a, b := recent[i], recent[j]
		if !a.LastViewedAt.Equal(b.LastViewedAt) {
			return a.LastViewedAt.After(b.LastViewedAt)
		}
		return a.ID > b.ID
	})
	if len(recent) > limit {
		recent = recent[:limit]
	}
	return recent, nil
}
