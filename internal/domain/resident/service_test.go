package resident

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carehq/carehq/internal/assessment"
)

func activeResident() *Resident {
	return &Resident{
		OrganizationID: uuid.New(),
		TeamID:         uuid.New(),
		FirstName:      "Ada",
		LastName:       "Byron",
		Status:         StatusActive,
	}
}

func TestCreateResident(t *testing.T) {
	svc := NewService(NewInMemoryRepo())

	r := activeResident()
	if err := svc.CreateResident(context.Background(), r); err != nil {
		t.Fatalf("create: %v", err)
	}
	if r.ID == uuid.Nil {
		t.Error("expected an assigned id")
	}

	got, err := svc.GetResident(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FirstName != "Ada" || got.LastName != "Byron" {
		t.Errorf("got %q %q", got.FirstName, got.LastName)
	}
}

func TestCreateResidentDefaultsStatus(t *testing.T) {
	svc := NewService(NewInMemoryRepo())

	r := activeResident()
	r.Status = ""
	if err := svc.CreateResident(context.Background(), r); err != nil {
		t.Fatalf("create: %v", err)
	}
	if r.Status != StatusActive {
		t.Errorf("status = %q, want active", r.Status)
	}
}

func TestCreateResidentValidation(t *testing.T) {
	svc := NewService(NewInMemoryRepo())
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*Resident)
	}{
		{"missing first name", func(r *Resident) { r.FirstName = "" }},
		{"missing last name", func(r *Resident) { r.LastName = "" }},
		{"missing organization", func(r *Resident) { r.OrganizationID = uuid.Nil }},
		{"bad status", func(r *Resident) { r.Status = "archived" }},
		{"short nhs number", func(r *Resident) { n := "12345"; r.NHSNumber = &n }},
		{"non-numeric nhs number", func(r *Resident) { n := "12345abcde"; r.NHSNumber = &n }},
		{"future date of birth", func(r *Resident) {
			d := time.Now().Add(24 * time.Hour)
			r.DateOfBirth = &d
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := activeResident()
			tc.mutate(r)
			if err := svc.CreateResident(ctx, r); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestUpdateMissingResident(t *testing.T) {
	svc := NewService(NewInMemoryRepo())

	r := activeResident()
	r.ID = uuid.New()
	if err := svc.UpdateResident(context.Background(), r); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListResidentsPagination(t *testing.T) {
	svc := NewService(NewInMemoryRepo())
	ctx := context.Background()

	names := []string{"Adams", "Brown", "Clark"}
	for _, n := range names {
		r := activeResident()
		r.LastName = n
		if err := svc.CreateResident(ctx, r); err != nil {
			t.Fatalf("create %s: %v", n, err)
		}
	}

	items, total, err := svc.ListResidents(ctx, 2, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(items) != 2 {
		t.Fatalf("total=%d items=%d, want 3/2", total, len(items))
	}
	if items[0].LastName != "Adams" || items[1].LastName != "Brown" {
		t.Errorf("order wrong: %s, %s", items[0].LastName, items[1].LastName)
	}

	items, _, err = svc.ListResidents(ctx, 2, 2)
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(items) != 1 || items[0].LastName != "Clark" {
		t.Errorf("second page wrong")
	}
}

func TestDirectoryLookup(t *testing.T) {
	svc := NewService(NewInMemoryRepo())
	dir := NewDirectory(svc)
	ctx := context.Background()

	r := activeResident()
	if err := svc.CreateResident(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}

	ref, err := dir.Lookup(ctx, r.ID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if ref.OrganizationID != r.OrganizationID || ref.TeamID != r.TeamID {
		t.Error("tenant fields not carried into the ref")
	}
	if len(ref.Snapshot) == 0 {
		t.Error("snapshot missing")
	}

	if _, err := dir.Lookup(ctx, uuid.New()); !errors.Is(err, assessment.ErrResidentNotFound) {
		t.Errorf("missing resident: err = %v, want assessment.ErrResidentNotFound", err)
	}
}
