package app_test

import (
	"context"
	"testing"
	"time"

	"howsitter/internal/app"
	"howsitter/internal/domain"
)

func TestGetProperty_CacheMissThenHit(t *testing.T) {
	props := &fakeProps{detail: domain.PropertyDetail{
		Property:      domain.Property{ID: "prop-1", Title: "Canal house"},
		HomeownerName: "Jo",
	}}
	cache := &fakeCache{}
	q := app.NewQueryService(props, &fakeUsers{}, cache, 10*time.Minute)

	// Miss (first time, populates cache)
	d, err := q.GetProperty(context.Background(), "prop-1")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if d.Title != "Canal house" {
		t.Fatalf("unexpected detail: %+v", d)
	}

	// Mutate repo to ensure second read indeed comes from cache
	props.detail.Title = "SHOULD NOT SEE THIS"

	d2, err := q.GetProperty(context.Background(), "prop-1")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if d2.Title != "Canal house" {
		t.Fatalf("expected cached title, got %q", d2.Title)
	}
}

func TestListSitters_Cache(t *testing.T) {
	users := &fakeUsers{sitters: domain.SittersPage{
		Items: []domain.SitterView{{ID: "s1", Name: "Ana", Rating: 4.5}},
		Total: 1,
	}}
	cache := &fakeCache{}
	q := app.NewQueryService(&fakeProps{}, users, cache, 10*time.Minute)

	out, err := q.ListSitters(context.Background(), domain.PageQuery{Page: 1, Limit: 12})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out.Items) != 1 || out.Items[0].Name != "Ana" {
		t.Fatalf("unexpected page: %+v", out)
	}

	users.sitters.Items[0].Name = "SHOULD NOT SEE THIS"

	out2, err := q.ListSitters(context.Background(), domain.PageQuery{Page: 1, Limit: 12})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if out2.Items[0].Name != "Ana" {
		t.Fatalf("expected cached name, got %q", out2.Items[0].Name)
	}
}
