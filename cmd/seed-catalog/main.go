package main

import (
	"context"
	"flag"
	"log"
	"time"

	"swipereel/internal/catalog"
	"swipereel/pkg/database"
	"swipereel/pkg/utils"
)

// Seeds the local movie cache from the upstream catalog so /movies/random has
// something to deal from on a fresh install.
func main() {
	var (
		pages    = flag.Int("pages", 10, "number of discover pages to fetch")
		yearFrom = flag.Int("year-from", 0, "only seed movies released on or after this year")
		language = flag.String("language", "", "restrict to an original language code, e.g. en")
	)
	flag.Parse()

	utils.LoadDotEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	cfg := utils.LoadCatalogConfig()
	if cfg.APIKey == "" {
		log.Fatal("SWIPEREEL_TMDB_API_KEY is required to seed the catalog")
	}
	client := catalog.NewClient(cfg.APIKey, cfg.BaseURL)
	repo := catalog.NewRepo(db)

	seeded := 0
	for page := 1; page <= *pages; page++ {
		cards, err := client.Discover(ctx, catalog.DiscoverFilter{
			Page:     page,
			YearFrom: *yearFrom,
			Language: *language,
		})
		if err != nil {
			log.Fatalf("discover page %d failed: %v", page, err)
		}
		if len(cards) == 0 {
			log.Printf("page %d returned no movies, stopping early", page)
			break
		}
		for _, card := range cards {
			if !card.Valid() {
				continue
			}
			if err := repo.Upsert(ctx, card); err != nil {
				log.Fatalf("cache movie %d failed: %v", card.CatalogID, err)
			}
			seeded++
		}
		log.Printf("page %d: cached %d movies so far", page, seeded)
	}

	total, err := repo.Count(ctx)
	if err != nil {
		log.Fatalf("count cache failed: %v", err)
	}
	log.Printf("✅ seeded %d movies, cache now holds %d", seeded, total)
}
