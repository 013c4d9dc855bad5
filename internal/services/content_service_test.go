package services

import (
	"context"
	"errors"
	"testing"

	"github.com/mamelilea/agrowtify-web/internal/models"
	"github.com/mamelilea/agrowtify-web/pkg/utils"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		total       int64
		page, limit int
		pages       int
		next, prev  bool
	}{
		{0, 1, 10, 0, false, false},
		{10, 1, 10, 1, false, false},
		{11, 1, 10, 2, true, false},
		{25, 2, 10, 3, true, true},
		{25, 3, 10, 3, false, true},
	}
	for _, tt := range tests {
		p := NewPagination(tt.total, tt.page, tt.limit)
		if p.TotalPages != tt.pages || p.HasNextPage != tt.next || p.HasPrevPage != tt.prev {
			t.Errorf("NewPagination(%d, %d, %d) = %+v", tt.total, tt.page, tt.limit, p)
		}
	}
}

func TestListQueryNormalize(t *testing.T) {
	q := ListQuery{Search: "  padi ", Type: " video", Page: 0, Limit: 500}
	q.normalize()
	if q.Search != "padi" || q.Type != "VIDEO" || q.Page != 1 || q.Limit != MaxPageSize {
		t.Fatalf("unexpected normalized query %+v", q)
	}
	if q.offset() != 0 {
		t.Fatalf("offset = %d", q.offset())
	}
}

func boolPtr(b bool) *bool { return &b }

func TestCategories(t *testing.T) {
	svc := NewContentService(newTestDB(t))
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, CategoryInput{Name: "Padi"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreateCategory(ctx, CategoryInput{Name: "PADI"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected case-insensitive conflict, got %v", err)
	}
	if _, err := svc.CreateCategory(ctx, CategoryInput{Name: "  "}); err == nil {
		t.Fatalf("expected blank name to be rejected")
	}
	if _, err := svc.CreateCategory(ctx, CategoryInput{Name: "Hortikultura"}); err != nil {
		t.Fatalf("create second: %v", err)
	}

	guide := GuideInput{
		Title:       "Menanam padi",
		Description: "Panduan dasar",
		ContentType: models.ContentArticle,
		URL:         "https://example.com/padi",
		CategoryID:  cat.ID,
	}
	if _, err := svc.CreateGuide(ctx, models.NewID(), guide); err != nil {
		t.Fatalf("create guide: %v", err)
	}
	guide.IsPublished = boolPtr(false)
	if _, err := svc.CreateGuide(ctx, models.NewID(), guide); err != nil {
		t.Fatalf("create draft: %v", err)
	}

	plain, err := svc.ListCategories(ctx, false)
	if err != nil || len(plain) != 2 || plain[0].ContentCount != nil {
		t.Fatalf("list without count = %+v %v", plain, err)
	}
	counted, err := svc.ListCategories(ctx, true)
	if err != nil {
		t.Fatalf("list with count: %v", err)
	}
	for _, c := range counted {
		want := int64(0)
		if c.ID == cat.ID {
			want = 1
		}
		if c.ContentCount == nil || *c.ContentCount != want {
			t.Fatalf("category %s count = %v, want %d", c.Name, c.ContentCount, want)
		}
	}
}

func TestGuides(t *testing.T) {
	svc := NewContentService(newTestDB(t))
	ctx := context.Background()
	author := models.NewID()

	cat, err := svc.CreateCategory(ctx, CategoryInput{Name: "Padi"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	_, err = svc.CreateGuide(ctx, author, GuideInput{
		Title: "x", Description: "y", ContentType: models.ContentVideo,
		URL: "https://example.com", CategoryID: models.NewID(),
	})
	var vErr *utils.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "categoryId" {
		t.Fatalf("expected categoryId error, got %v", err)
	}

	titles := []string{"Pupuk organik", "Irigasi sawah", "Hama wereng"}
	for i, title := range titles {
		ct := models.ContentArticle
		if i == 2 {
			ct = models.ContentVideo
		}
		if _, err := svc.CreateGuide(ctx, author, GuideInput{
			Title: title, Description: "Panduan " + title, ContentType: ct,
			URL: "https://example.com/" + title, CategoryID: cat.ID,
		}); err != nil {
			t.Fatalf("create guide: %v", err)
		}
	}

	all, page, err := svc.ListGuides(ctx, ListQuery{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || page.Total != 3 || !page.HasNextPage || all[0].Category == nil {
		t.Fatalf("unexpected first page %d %+v", len(all), page)
	}

	videos, _, err := svc.ListGuides(ctx, ListQuery{Type: "video"})
	if err != nil || len(videos) != 1 || videos[0].Title != "Hama wereng" {
		t.Fatalf("type filter = %v %v", videos, err)
	}

	found, _, err := svc.ListGuides(ctx, ListQuery{Search: "SAWAH"})
	if err != nil || len(found) != 1 || found[0].Title != "Irigasi sawah" {
		t.Fatalf("search = %v %v", found, err)
	}

	if wild, _, err := svc.ListGuides(ctx, ListQuery{Search: "_"}); err != nil || len(wild) != 0 {
		t.Fatalf("wildcard search matched %d guides (%v)", len(wild), err)
	}

	byCat, page, err := svc.ListGuides(ctx, ListQuery{Category: cat.ID, Limit: 10})
	if err != nil || len(byCat) != 3 || page.Total != 3 {
		t.Fatalf("category filter = %d %+v %v", len(byCat), page, err)
	}
	none, page, err := svc.ListGuides(ctx, ListQuery{Category: "pertanian", Limit: 10})
	if err != nil || len(none) != 0 || page.Total != 0 || page.Limit != 10 || page.HasNextPage {
		t.Fatalf("non-uuid category = %v %+v %v", none, page, err)
	}

	g := found[0]
	updated, err := svc.UpdateGuide(ctx, g.ID, GuideInput{
		Title: "Irigasi tetes", Description: g.Description, ContentType: g.ContentType,
		URL: g.URL, CategoryID: cat.ID, IsPublished: boolPtr(false),
	})
	if err != nil || updated.Title != "Irigasi tetes" || updated.IsPublished {
		t.Fatalf("update = %+v %v", updated, err)
	}
	if _, page, _ := svc.ListGuides(ctx, ListQuery{}); page.Total != 2 {
		t.Fatalf("unpublished guide still listed: %+v", page)
	}

	if err := svc.DeleteGuide(ctx, g.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetGuide(ctx, g.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := svc.DeleteGuide(ctx, g.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
