// Package main loads a flower catalogue from YAML into the database and
// bootstraps the first administrator account.
//
// Usage:
//
//	seed -d postgres://... -f flowers.yaml
//
// Entries without an id get one derived from their name, so re-running the
// import skips them instead of adding duplicates. The administrator is
// created from ADMIN_USERNAME and ADMIN_PASSWORD when both are set; an
// existing account with that name is left untouched.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atinyakov/flowerdaily/internal/db"
	"github.com/atinyakov/flowerdaily/internal/logger"
	"github.com/atinyakov/flowerdaily/internal/models"
	"github.com/atinyakov/flowerdaily/internal/repository"
	"github.com/atinyakov/flowerdaily/internal/secret"
	"github.com/atinyakov/flowerdaily/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// flowerNamespace scopes the name-derived flower IDs.
var flowerNamespace = uuid.MustParse("6f1c1f4e-5b7a-4d0e-9a61-2c8f3d9b7e10")

// stableFlowerID derives an ID from a flower name. Case and surrounding
// whitespace are ignored.
func stableFlowerID(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	return uuid.NewSHA1(flowerNamespace, []byte(key)).String()
}

// catalogue is the YAML document layout.
type catalogue struct {
	Flowers []catalogueEntry `yaml:"flowers"`
}

type catalogueEntry struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	LatinName   string `yaml:"latin_name"`
	Description string `yaml:"description"`
	Meaning     string `yaml:"meaning"`
	ImageURL    string `yaml:"image_url"`
}

// parseCatalogue decodes a catalogue and rejects entries without a name.
func parseCatalogue(r io.Reader) ([]models.Flower, error) {
	var c catalogue
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalogue: %w", err)
	}
	flowers := make([]models.Flower, 0, len(c.Flowers))
	for i, e := range c.Flowers {
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("flower #%d: name is required", i+1)
		}
		id := e.ID
		if id == "" {
			id = stableFlowerID(e.Name)
		}
		flowers = append(flowers, models.Flower{
			ID:          id,
			Name:        e.Name,
			LatinName:   e.LatinName,
			Description: e.Description,
			Meaning:     e.Meaning,
			ImageURL:    e.ImageURL,
		})
	}
	return flowers, nil
}

type flowerCreator interface {
	Create(ctx context.Context, f models.Flower) (models.Flower, error)
}

type userCreator interface {
	Create(ctx context.Context, username, password string, role models.Role) (models.User, error)
}

// importFlowers creates every flower, skipping IDs that already exist.
// It returns the number of flowers created.
func importFlowers(ctx context.Context, svc flowerCreator, flowers []models.Flower, log *zap.Logger) (int, error) {
	created := 0
	for _, f := range flowers {
		_, err := svc.Create(ctx, f)
		switch {
		case errors.Is(err, service.ErrFlowerExists):
			log.Info("flower already exists", zap.String("id", f.ID), zap.String("name", f.Name))
		case err != nil:
			return created, fmt.Errorf("create %q: %w", f.Name, err)
		default:
			created++
		}
	}
	return created, nil
}

// bootstrapAdmin creates the admin account unless it exists.
func bootstrapAdmin(ctx context.Context, svc userCreator, username, password string, log *zap.Logger) error {
	if username == "" || password == "" {
		return nil
	}
	_, err := svc.Create(ctx, username, password, models.RoleAdmin)
	if errors.Is(err, service.ErrUserExists) {
		log.Info("admin already exists", zap.String("username", username))
		return nil
	}
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Info("created admin", zap.String("username", username))
	return nil
}

func main() {
	dsn := flag.String("d", os.Getenv("DATABASE_DSN"), "database DSN")
	file := flag.String("f", "flowers.yaml", "flower catalogue (YAML)")
	level := flag.String("l", "info", "log level")
	flag.Parse()

	l := logger.New()
	if err := l.Init(*level); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := l.Log
	defer func() { _ = log.Sync() }()

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal("cannot open catalogue", zap.String("file", *file), zap.Error(err))
	}
	flowers, err := parseCatalogue(f)
	f.Close()
	if err != nil {
		log.Fatal("invalid catalogue", zap.String("file", *file), zap.Error(err))
	}

	conn, err := db.InitPostgres(*dsn)
	if err != nil {
		log.Fatal("cannot init database", zap.Error(err))
	}
	defer conn.Close()

	ctx := context.Background()
	flowerService := service.NewFlowerService(repository.NewPostgresFlowerRepository(conn))
	created, err := importFlowers(ctx, flowerService, flowers, log)
	if err != nil {
		log.Fatal("import failed", zap.Int("created", created), zap.Error(err))
	}
	log.Info("imported flowers", zap.Int("created", created), zap.Int("total", len(flowers)))

	users := service.NewUserService(
		repository.NewPostgresUserRepository(conn),
		repository.NewPostgresSessionRepository(conn),
		secret.NewHasher(secret.DefaultArgon2Params()),
	)
	if err := bootstrapAdmin(ctx, users, os.Getenv("ADMIN_USERNAME"), os.Getenv("ADMIN_PASSWORD"), log); err != nil {
		log.Fatal("admin bootstrap failed", zap.Error(err))
	}
}
