//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"howsitter/internal/domain"
	mysqlrepo "howsitter/internal/storage/mysql"
)

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=howsitter",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "howsitter")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

type fixture struct {
	ownerID      string
	sitterUserID string
	propertyID   string
}

func seed(t *testing.T, ctx context.Context, db *sql.DB) fixture {
	t.Helper()
	users := mysqlrepo.NewUserRepo(db)
	props := mysqlrepo.NewPropertyRepo(db)

	f := fixture{
		ownerID:      uuid.NewString(),
		sitterUserID: uuid.NewString(),
		propertyID:   uuid.NewString(),
	}
	if err := users.CreateUser(ctx, domain.User{
		ID: f.ownerID, Email: f.ownerID + "@test", PasswordHash: "x",
		Name: "Owner", Role: domain.RoleHomeowner,
	}); err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	if err := users.CreateUser(ctx, domain.User{
		ID: f.sitterUserID, Email: f.sitterUserID + "@test", PasswordHash: "x",
		Name: "Sitter", Role: domain.RoleSitter,
	}); err != nil {
		t.Fatalf("seed sitter: %v", err)
	}
	if err := users.CreateSitterProfile(ctx, domain.SitterProfile{
		ID: uuid.NewString(), UserID: f.sitterUserID, IsAvailable: true,
	}); err != nil {
		t.Fatalf("seed sitter profile: %v", err)
	}
	if err := props.CreateProperty(ctx, domain.Property{
		ID: f.propertyID, HomeownerID: f.ownerID,
		Title: "Test flat", Description: "d", Type: "apartment",
		Bedrooms: 1, Bathrooms: 1, Location: "loc", City: "Lisbon", Country: "Portugal",
		PricePerMonth: 1000, SecurityDeposit: 500,
		MinStayDays: 30, MaxStayDays: 180, Rules: "",
		Status: domain.PropertyAvailable,
	}, []string{"wifi", "garden"}, nil); err != nil {
		t.Fatalf("seed property: %v", err)
	}
	return f
}

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestBookingLifecycle_MySQL(t *testing.T) {
	db := startMySQL(t)
	ctx := context.Background()
	f := seed(t, ctx, db)

	arrs := mysqlrepo.NewArrangementRepo(db)
	props := mysqlrepo.NewPropertyRepo(db)
	msgs := mysqlrepo.NewMessageRepo(db)

	// create a 45-day booking; total bills two whole months
	arr, err := arrs.CreateArrangement(ctx, domain.BookingRequest{
		PropertyID:   f.propertyID,
		SitterUserID: f.sitterUserID,
		StartDate:    date("2026-03-01"),
		EndDate:      date("2026-04-15"),
		Message:      "hello",
	})
	if err != nil {
		t.Fatalf("create arrangement: %v", err)
	}
	if arr.Status != domain.ArrangementPending {
		t.Fatalf("status = %s, want pending", arr.Status)
	}
	if arr.TotalAmount != 2000 {
		t.Fatalf("total = %v, want 2000", arr.TotalAmount)
	}
	if arr.SecurityDeposit != 500 {
		t.Fatalf("deposit = %v, want snapshot 500", arr.SecurityDeposit)
	}

	// the initial message landed in the thread
	parts, err := msgs.GetParticipants(ctx, arr.ID)
	if err != nil {
		t.Fatalf("participants: %v", err)
	}
	if parts.HomeownerUserID != f.ownerID || parts.SitterUserID != f.sitterUserID {
		t.Fatalf("participants = %+v", parts)
	}
	thread, err := msgs.ListByArrangement(ctx, arr.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(thread) != 1 || thread[0].Body != "hello" {
		t.Fatalf("thread = %+v", thread)
	}

	// overlapping request conflicts, boundary touch included
	_, err = arrs.CreateArrangement(ctx, domain.BookingRequest{
		PropertyID:   f.propertyID,
		SitterUserID: f.sitterUserID,
		StartDate:    date("2026-04-15"),
		EndDate:      date("2026-06-01"),
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}

	// disjoint request is fine
	second, err := arrs.CreateArrangement(ctx, domain.BookingRequest{
		PropertyID:   f.propertyID,
		SitterUserID: f.sitterUserID,
		StartDate:    date("2026-07-01"),
		EndDate:      date("2026-08-15"),
	})
	if err != nil {
		t.Fatalf("disjoint booking: %v", err)
	}

	// confirming flips the property to occupied
	if err := arrs.Transition(ctx, arr.ID, domain.ArrangementPending, domain.ArrangementConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	d, err := props.GetProperty(ctx, f.propertyID)
	if err != nil {
		t.Fatalf("get property: %v", err)
	}
	if d.Status != domain.PropertyOccupied {
		t.Fatalf("property status = %s, want occupied", d.Status)
	}

	// occupied property rejects new requests outright
	_, err = arrs.CreateArrangement(ctx, domain.BookingRequest{
		PropertyID:   f.propertyID,
		SitterUserID: f.sitterUserID,
		StartDate:    date("2026-10-01"),
		EndDate:      date("2026-11-15"),
	})
	if !domain.IsValidation(err) {
		t.Fatalf("want validation rejection, got %v", err)
	}

	// stale CAS loses
	err = arrs.Transition(ctx, arr.ID, domain.ArrangementPending, domain.ArrangementConfirmed)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("want ErrConflict on stale transition, got %v", err)
	}

	// cancelling the confirmed arrangement reopens the property
	if err := arrs.Transition(ctx, arr.ID, domain.ArrangementConfirmed, domain.ArrangementCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	d, err = props.GetProperty(ctx, f.propertyID)
	if err != nil {
		t.Fatalf("get property: %v", err)
	}
	if d.Status != domain.PropertyAvailable {
		t.Fatalf("property status = %s, want available again", d.Status)
	}

	// delete refused while the second booking is still pending
	if err := props.DeleteProperty(ctx, f.propertyID); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("want ErrConflict on delete, got %v", err)
	}
	if err := arrs.Transition(ctx, second.ID, domain.ArrangementPending, domain.ArrangementCancelled); err != nil {
		t.Fatalf("cancel second: %v", err)
	}
	if err := props.DeleteProperty(ctx, f.propertyID); err != nil {
		t.Fatalf("delete after cancellations: %v", err)
	}
}

func TestBookingRace_OneWinner(t *testing.T) {
	db := startMySQL(t)
	ctx := context.Background()
	f := seed(t, ctx, db)

	arrs := mysqlrepo.NewArrangementRepo(db)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = arrs.CreateArrangement(ctx, domain.BookingRequest{
				PropertyID:   f.propertyID,
				SitterUserID: f.sitterUserID,
				StartDate:    date("2026-03-01"),
				EndDate:      date("2026-04-15"),
			})
		}(i)
	}
	wg.Wait()

	var ok, conflict int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrConflict):
			conflict++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflict != 1 {
		t.Fatalf("ok=%d conflict=%d, want exactly one winner", ok, conflict)
	}
}

func TestPropertyFiltersAndLocation_MySQL(t *testing.T) {
	db := startMySQL(t)
	ctx := context.Background()
	f := seed(t, ctx, db)

	props := mysqlrepo.NewPropertyRepo(db)

	lat, lng := 38.7223, -9.1393
	far := domain.Property{
		ID: uuid.NewString(), HomeownerID: f.ownerID,
		Title: "Berlin loft", Description: "d", Type: "loft",
		Bedrooms: 3, Bathrooms: 2, Location: "Mitte", City: "Berlin", Country: "Germany",
		PricePerMonth: 2500, MinStayDays: 30, MaxStayDays: 365, Rules: "",
		Status: domain.PropertyAvailable,
	}
	if err := props.CreateProperty(ctx, far, []string{"wifi"}, nil); err != nil {
		t.Fatalf("create far property: %v", err)
	}
	if err := props.UpdateProperty(ctx, f.propertyID, domain.PropertyPatch{
		Latitude: &lat, Longitude: &lng,
	}); err != nil {
		t.Fatalf("set coords: %v", err)
	}

	city := "Lisbon"
	page, err := props.ListProperties(ctx, domain.PropertyFilter{
		Status: domain.PropertyAvailable, City: &city, Page: 1, Limit: 12,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].City != "Lisbon" {
		t.Fatalf("city filter: %+v", page)
	}
	if len(page.Items[0].Amenities) != 2 {
		t.Fatalf("amenities not attached: %+v", page.Items[0].Amenities)
	}

	maxPrice := 1500.0
	page, err = props.ListProperties(ctx, domain.PropertyFilter{
		Status: domain.PropertyAvailable, MaxPrice: &maxPrice, Page: 1, Limit: 12,
	})
	if err != nil {
		t.Fatalf("list by price: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("price filter total = %d, want 1", page.Total)
	}

	// within 5 km of the seeded Lisbon coords; the Berlin row has no coords
	near, err := props.SearchByLocation(ctx, 38.72, -9.14, 5)
	if err != nil {
		t.Fatalf("location search: %v", err)
	}
	if len(near) != 1 || near[0].ID != f.propertyID {
		t.Fatalf("location search: %+v", near)
	}
	if near[0].DistanceKm == nil || *near[0].DistanceKm > 5 {
		t.Fatalf("distance = %v", near[0].DistanceKm)
	}
}

func TestCreateUser_DuplicateEmail_MySQL(t *testing.T) {
	db := startMySQL(t)
	ctx := context.Background()
	users := mysqlrepo.NewUserRepo(db)

	u := domain.User{
		ID: uuid.NewString(), Email: "dup@test", PasswordHash: "x",
		Name: "First", Role: domain.RoleSitter,
	}
	if err := users.CreateUser(ctx, u); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	u.ID = uuid.NewString()
	u.Name = "Second"
	if err := users.CreateUser(ctx, u); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("want ErrConflict on duplicate email, got %v", err)
	}
}
