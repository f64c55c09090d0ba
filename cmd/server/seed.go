package main

import (
	"log"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nlwealth/advisorforms/internal/api"
	"github.com/nlwealth/advisorforms/internal/config"
	"github.com/nlwealth/advisorforms/internal/models"
	"github.com/nlwealth/advisorforms/internal/services"
)

// seed bootstraps first-run state: a default admin account when none exists,
// and the risk tolerance template from the configured CSV when that section
// has no versions yet.
func seed(store api.Store, cfg *config.Config) error {
	if err := seedAdmin(store); err != nil {
		return err
	}
	return seedRiskTemplate(store, cfg)
}

func seedAdmin(store api.Store) error {
	existing, err := store.GetAdminByUsername("admin")
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	password := os.Getenv("ADVISOR_ADMIN_PASSWORD")
	if password == "" {
		password = "change-me-now"
		log.Printf("seeding default admin with a placeholder password; set ADVISOR_ADMIN_PASSWORD")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = store.InsertAdmin(&models.Admin{
		Username:           "admin",
		Name:               "Administrator",
		PassHash:           hash,
		LastPasswordChange: time.Now().UTC(),
	})
	if err == nil {
		log.Printf("created default admin account")
	}
	return err
}

func seedRiskTemplate(store api.Store, cfg *config.Config) error {
	if cfg.SeedTemplateCSV == "" {
		return nil
	}
	existing, err := store.GetTemplateBySection(models.SectionRiskTolerance)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	data, err := os.ReadFile(cfg.SeedTemplateCSV)
	if err != nil {
		return err
	}
	rows, err := services.ParseTemplateCSV(data)
	if err != nil {
		return err
	}
	tmpl, warnings := services.Normalize(rows, models.SectionRiskTolerance)
	for _, w := range warnings {
		log.Printf("seed template: %s", w)
	}
	tmpl.ID = string(models.SectionRiskTolerance)
	tmpl.Title = "Risk Tolerance Assessment"
	created, err := services.NewTemplateService(store).Create(tmpl)
	if err != nil {
		return err
	}
	log.Printf("seeded %s template with %d questions (version %d)", created.Section, len(created.Questions), created.Version)
	return nil
}
