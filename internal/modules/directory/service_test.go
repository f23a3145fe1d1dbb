package directory

import (
	"context"
	"errors"
	"testing"
)

type stubLister struct {
	employees []Employee
	err       error
}

func (s stubLister) List(_ context.Context) ([]Employee, error) { return s.employees, s.err }

func TestListDerivesInitials(t *testing.T) {
	svc := NewService(stubLister{employees: []Employee{
		{ID: "e1", Name: "dana scully"},
		{ID: "e2", Name: "Fox Mulder", AvatarInitials: "FX"},
		{ID: "e3", Name: "Skinner"},
		{ID: "e4", Name: ""},
	}})
	got, err := svc.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"DS", "FX", "S", ""}
	for i, w := range want {
		if got[i].AvatarInitials != w {
			t.Errorf("employee %s initials = %q, want %q", got[i].ID, got[i].AvatarInitials, w)
		}
	}
}

func TestListPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	if _, err := NewService(stubLister{err: boom}).List(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
