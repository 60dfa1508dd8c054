package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-exam-service/internal/config"
	"github.com/stemsi/exstem-exam-service/internal/database"
	"github.com/stemsi/exstem-exam-service/internal/logger"
	"github.com/stemsi/exstem-exam-service/internal/model"
	"github.com/stemsi/exstem-exam-service/internal/repository"
	"github.com/stemsi/exstem-exam-service/internal/repository/mongostore"
)

// seedNamespace derives stable student ids from roll numbers so that
// re-running the seeder updates rows instead of duplicating them.
var seedNamespace = uuid.MustParse("6f1c2b8e-4d3a-4e59-9c1f-7a2d5e8b0c41")

var names = []string{
	"Budi Santoso", "Siti Aminah", "Andi Pratama", "Rina Wati", "Joko Susilo",
	"Ayu Lestari", "Dodi Kusuma", "Eka Putri", "Fahri Hamzah", "Gita Savitri",
	"Hendra Gunawan", "Ika Sari", "Jamal Mirdad", "Kiki Fatmala", "Lukman Hakim",
	"Maya Septiana", "Nanda Pratama", "Oki Setiana", "Putri Dian", "Qori Maharani",
	"Rafi Ahmad", "Siska Saraswati", "Toni Setiawan", "Umi Kalsum", "Vina Panduwinata",
	"Wahyu Hidayat", "Xena Maharani", "Yudi Pratama", "Zaki Anwar", "Alifia Zahra",
	"Bagas Saputra", "Citra Kirana", "Dimas Anggara", "Elisa Novita", "Fikri Maulana",
	"Gali Rakasiwi", "Hani Hanifah", "Iqbal Ramadhan", "Jasmine Azzahra", "Kevin Sanjaya",
	"Larasati Dewi", "Miko Pambudi", "Nia Ramadhani", "Oscar Lawalata", "Puput Melati",
	"Reza Rahadian", "Sari Nila", "Tigor Siahaan", "Utari Maharani", "Vicky Prasetyo",
}

func main() {
	var count int
	var prefix string
	flag.IntVar(&count, "count", len(names), "Number of students to seed")
	flag.StringVar(&prefix, "prefix", "XII-TKJ-2", "Roll number prefix")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var directory repository.StudentDirectory
	switch cfg.DBDriver {
	case config.DriverPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		directory = repository.NewStudentRepository(pool)
	case config.DriverMongo:
		client, db, err := database.NewMongoDatabase(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		defer client.Disconnect(context.Background()) //nolint:errcheck
		directory = mongostore.New(db)
	default:
		log.Fatal().Str("db_driver", cfg.DBDriver).Msg("Seeding needs a persistent DB_DRIVER")
	}

	students := make([]model.Student, count)
	for i := range students {
		roll := fmt.Sprintf("%s-%03d", prefix, i+1)
		students[i] = model.Student{
			ID:         uuid.NewSHA1(seedNamespace, []byte(roll)),
			Name:       names[i%len(names)],
			RollNumber: roll,
		}
	}

	fmt.Printf("=== Seeding %d Students ===\n", count)
	if err := directory.UpsertStudents(ctx, students); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed students")
	}
	for _, s := range students {
		fmt.Printf("%s  %-12s  %s\n", s.ID, s.RollNumber, s.Name)
	}
	fmt.Printf("\nSeed completed! Upserted %d students.\n", count)
}
