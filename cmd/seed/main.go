package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"schedule-ai-ingestion/internal/config"
	"schedule-ai-ingestion/internal/domain/model"
	pg "schedule-ai-ingestion/internal/infra/db/postgres"
)

const samplePlan = `Course plan, fall term

Week 1: read chapters 1-2, short quiz on 2026-09-04
Week 3: essay on Kant due 2026-09-18, submit via portal
Week 6: midterm exam 2026-10-09, room A-204
Week 12: final project presentation 2026-11-20
`

const sampleDeadlines = `assignment,due,where
Lab report 1,2026-09-25,Building C
Lab report 2,2026-10-23,Building C
Oral exam,2026-12-04,Examination office
`

// Seeds a couple of pending uploads so a fresh environment gives the worker
// something to claim. Blobs land under ingest.storage_root; rows go through
// the same repository the worker reads.
func main() {
	// ---- CLI flags ----
	// -config and -dev are registered inside config.LoadConfig.
	schemaPath := flag.String("init", "", "apply this schema file before seeding")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool := pg.MustConnectPostgres(&cfg.Database)
	defer pool.Close()

	if *schemaPath != "" {
		ddl, err := os.ReadFile(*schemaPath)
		if err != nil {
			log.Fatalf("read schema %s: %v", *schemaPath, err)
		}
		if _, err := pool.Exec(ctx, string(ddl)); err != nil {
			log.Fatalf("apply schema: %v", err)
		}
		fmt.Printf("schema applied from %s\n", *schemaPath)
	}

	tm := pg.NewTxManager(pool)
	repo := pg.NewUploadedFileRepo(pool, tm)

	// If uploads already exist, do nothing.
	counts, err := repo.CountByStatus(ctx)
	if err != nil {
		log.Fatalf("count files: %v", err)
	}
	var total int64
	for _, n := range counts {
		total += n
	}
	if total > 0 {
		fmt.Printf("%d files already present. No changes.\n", total)
		for status, n := range counts {
			fmt.Printf("  - %s: %d\n", status, n)
		}
		return
	}

	userID := uuid.NewString()
	samples := []struct {
		Name        string
		ContentType string
		Body        string
	}{
		{"course-plan.txt", "text/plain", samplePlan},
		{"deadlines.csv", "text/csv", sampleDeadlines},
	}

	for _, s := range samples {
		id := uuid.NewString()
		location := filepath.Join(userID, s.Name)
		path := filepath.Join(cfg.Ingest.StorageRoot, location)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			log.Fatalf("create blob dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(s.Body), 0o644); err != nil {
			log.Fatalf("write blob %s: %v", s.Name, err)
		}

		f, err := model.NewUploadedFile(id, userID, s.Name, location, s.ContentType, int64(len(s.Body)))
		if err != nil {
			log.Fatalf("build file %s: %v", s.Name, err)
		}
		if err := repo.Save(ctx, nil, f); err != nil {
			log.Fatalf("save file %s: %v", s.Name, err)
		}
		fmt.Printf("seeded: %s (id=%s, type=%s, %d bytes)\n", s.Name, id, s.ContentType, len(s.Body))
	}

	fmt.Println("✅ Seeding complete.")
}
