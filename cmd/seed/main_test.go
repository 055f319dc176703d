package main

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/atinyakov/flowerdaily/internal/models"
	"github.com/atinyakov/flowerdaily/internal/service"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseCatalogue(t *testing.T) {
	f, err := os.Open("testdata/flowers.yaml")
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer f.Close()

	got, err := parseCatalogue(f)
	if err != nil {
		t.Fatalf("parseCatalogue: %v", err)
	}
	want := []models.Flower{
		{ID: "rose", Name: "Rose", LatinName: "Rosa", Description: "A woody perennial.", Meaning: "Love that keeps its thorns.", ImageURL: "https://example.com/rose.jpg"},
		{ID: "lily", Name: "Lily", LatinName: "Lilium", Meaning: "Quiet renewal."},
		{ID: stableFlowerID("Tulip"), Name: "Tulip", Meaning: "Perfect love."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("catalogue mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCatalogue_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing name", "flowers:\n  - id: x\n"},
		{"blank name", "flowers:\n  - name: \"  \"\n"},
		{"unknown field", "flowers:\n  - name: Rose\n    colour: red\n"},
		{"not yaml", "flowers: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseCatalogue(strings.NewReader(tt.doc)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestStableFlowerID(t *testing.T) {
	id := stableFlowerID("Tulip")
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("not a UUID: %q", id)
	}
	if got := stableFlowerID("  tulip "); got != id {
		t.Errorf("case and spacing must not matter: %q != %q", got, id)
	}
	if stableFlowerID("Tulips") == id {
		t.Error("different names must not share an ID")
	}
}

// fakeFlowerCreator stores flowers by ID and rejects duplicates.
type fakeFlowerCreator struct{ existing map[string]bool }

func (f fakeFlowerCreator) Create(_ context.Context, fl models.Flower) (models.Flower, error) {
	if fl.Name == "Broken" {
		return models.Flower{}, errors.New("db down")
	}
	if f.existing[fl.ID] {
		return models.Flower{}, service.ErrFlowerExists
	}
	f.existing[fl.ID] = true
	return fl, nil
}

func TestImportFlowers(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	svc := fakeFlowerCreator{existing: map[string]bool{"rose": true}}

	n, err := importFlowers(context.Background(), svc, []models.Flower{
		{ID: "rose", Name: "Rose"},
		{ID: "lily", Name: "Lily"},
	}, zap.New(core))
	if err != nil {
		t.Fatalf("importFlowers: %v", err)
	}
	if n != 1 {
		t.Errorf("created %d; want 1", n)
	}
	skipped := logs.FilterMessage("flower already exists").FilterField(zap.String("id", "rose"))
	if skipped.Len() != 1 {
		t.Errorf("expected one skip entry for rose, got %v", logs.All())
	}

	if _, err := importFlowers(context.Background(), svc, []models.Flower{{Name: "Broken"}}, zap.NewNop()); err == nil {
		t.Error("expected error")
	}
}

func TestImportFlowers_RerunAddsNothing(t *testing.T) {
	svc := fakeFlowerCreator{existing: map[string]bool{}}
	load := func() []models.Flower {
		flowers, err := parseCatalogue(strings.NewReader("flowers:\n  - name: Tulip\n  - name: Daisy\n"))
		if err != nil {
			t.Fatalf("parseCatalogue: %v", err)
		}
		return flowers
	}

	first, err := importFlowers(context.Background(), svc, load(), zap.NewNop())
	if err != nil || first != 2 {
		t.Fatalf("first run created %d, err=%v; want 2", first, err)
	}
	second, err := importFlowers(context.Background(), svc, load(), zap.NewNop())
	if err != nil || second != 0 {
		t.Errorf("second run created %d, err=%v; want 0", second, err)
	}
	if len(svc.existing) != 2 {
		t.Errorf("stored %d flowers; want 2", len(svc.existing))
	}
}

type fakeUserCreator struct {
	err  error
	role models.Role
}

func (f *fakeUserCreator) Create(_ context.Context, username, _ string, role models.Role) (models.User, error) {
	f.role = role
	return models.User{Username: username, Role: role}, f.err
}

func TestBootstrapAdmin(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	out := zap.New(core)

	svc := &fakeUserCreator{}
	if err := bootstrapAdmin(context.Background(), svc, "", "", out); err != nil || svc.role != "" {
		t.Errorf("nothing should be created without credentials, err=%v role=%q", err, svc.role)
	}

	if err := bootstrapAdmin(context.Background(), svc, "root", "Adm1n-pass", out); err != nil {
		t.Fatalf("bootstrapAdmin: %v", err)
	}
	if svc.role != models.RoleAdmin {
		t.Errorf("role = %q; want admin", svc.role)
	}
	if logs.FilterMessage("created admin").Len() != 1 {
		t.Errorf("expected a created entry, got %v", logs.All())
	}

	svc.err = service.ErrUserExists
	if err := bootstrapAdmin(context.Background(), svc, "root", "Adm1n-pass", out); err != nil {
		t.Errorf("existing admin must not fail: %v", err)
	}
	if logs.FilterMessage("admin already exists").Len() != 1 {
		t.Errorf("expected an exists entry, got %v", logs.All())
	}

	svc.err = service.ErrWeakPassword
	if err := bootstrapAdmin(context.Background(), svc, "root", "weak", out); !errors.Is(err, service.ErrWeakPassword) {
		t.Errorf("error = %v; want ErrWeakPassword", err)
	}
}
