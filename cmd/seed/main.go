package main

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"howsitter/internal/adapters/observability"
	"howsitter/internal/domain"
	"howsitter/internal/shared"
	mysqlrepo "howsitter/internal/storage/mysql"
)

// Demo data: one homeowner per city, one listing each, plus a pool of
// sitters. Useful for local development against an empty database.
var cities = []struct {
	City    string
	Country string
	Lat     float64
	Lng     float64
}{
	{"Lisbon", "Portugal", 38.7223, -9.1393},
	{"Barcelona", "Spain", 41.3874, 2.1686},
	{"Amsterdam", "Netherlands", 52.3676, 4.9041},
	{"Berlin", "Germany", 52.5200, 13.4050},
	{"Prague", "Czechia", 50.0755, 14.4378},
	{"Vienna", "Austria", 48.2082, 16.3738},
	{"Copenhagen", "Denmark", 55.6761, 12.5683},
	{"Dublin", "Ireland", 53.3498, -6.2603},
}

var amenityPool = []string{"wifi", "garden", "parking", "dishwasher", "washer", "balcony", "pets", "workspace"}

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)
	log.Info().Int("workers", cfg.SeedWorkers).Msg("seeder starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	users := mysqlrepo.NewUserRepo(db)
	props := mysqlrepo.NewPropertyRepo(db)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), 10)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt failed")
	}

	sem := semaphore.NewWeighted(int64(cfg.SeedWorkers))
	var wg sync.WaitGroup

	for i, c := range cities {
		i, c := i, c

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			owner := domain.User{
				ID:           uuid.NewString(),
				Email:        fmt.Sprintf("owner%d@howsitter.dev", i+1),
				PasswordHash: string(hash),
				Name:         fmt.Sprintf("Demo Owner %d", i+1),
				Role:         domain.RoleHomeowner,
				Country:      &c.Country,
			}
			if err := users.CreateUser(ctx, owner); err != nil {
				log.Warn().Str("email", owner.Email).Err(err).Msg("seed owner failed")
				return
			}

			lat, lng := c.Lat, c.Lng
			start := time.Now().AddDate(0, 0, 7)
			end := start.AddDate(1, 0, 0)
			p := domain.Property{
				ID:                uuid.NewString(),
				HomeownerID:       owner.ID,
				Title:             fmt.Sprintf("Sunny apartment in %s", c.City),
				Description:       "A bright two-bedroom home close to the centre, looking for a reliable sitter.",
				Type:              "apartment",
				Bedrooms:          2,
				Bathrooms:         1,
				Location:          "City centre",
				City:              c.City,
				Country:           c.Country,
				PricePerMonth:     float64(900 + rand.Intn(900)),
				SecurityDeposit:   500,
				MinStayDays:       30,
				MaxStayDays:       180,
				Rules:             "No smoking. Water the plants twice a week.",
				Latitude:          &lat,
				Longitude:         &lng,
				AvailabilityStart: &start,
				AvailabilityEnd:   &end,
				Status:            domain.PropertyAvailable,
			}
			n := 2 + rand.Intn(3)
			if err := props.CreateProperty(ctx, p, amenityPool[:n], nil); err != nil {
				log.Warn().Str("city", c.City).Err(err).Msg("seed property failed")
				return
			}
			log.Info().Str("city", c.City).Msg("seeded listing")
		}()
	}

	for i := 0; i < 6; i++ {
		sitter := domain.User{
			ID:           uuid.NewString(),
			Email:        fmt.Sprintf("sitter%d@howsitter.dev", i+1),
			PasswordHash: string(hash),
			Name:         fmt.Sprintf("Demo Sitter %d", i+1),
			Role:         domain.RoleSitter,
		}
		if err := users.CreateUser(ctx, sitter); err != nil {
			log.Warn().Str("email", sitter.Email).Err(err).Msg("seed sitter failed")
			continue
		}
		profile := domain.SitterProfile{
			ID:              uuid.NewString(),
			UserID:          sitter.ID,
			Rating:          3.5 + rand.Float64()*1.5,
			ExperienceYears: rand.Intn(8),
			Languages:       []string{"en"},
			IsAvailable:     true,
		}
		if err := users.CreateSitterProfile(ctx, profile); err != nil {
			log.Warn().Str("email", sitter.Email).Err(err).Msg("seed sitter profile failed")
		}
	}

	wg.Wait()
	log.Info().Msg("seeding completed")
}
