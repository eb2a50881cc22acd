package gazetteer

import (
	"errors"
	"testing"

	"github.com/reliefgrid/relief-engine/internal/models"
)

func TestResolve_TokyoEarthquake(t *testing.T) {
	r := NewStatic()

	got, err := r.Resolve("Earthquake hits Tokyo causing widespread damage")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if got.LocationName != "Tokyo" {
		t.Errorf("expected location Tokyo, got %s", got.LocationName)
	}
	if got.DisasterType != models.DisasterTypeEarthquake {
		t.Errorf("expected earthquake, got %s", got.DisasterType)
	}
	if got.Severity != models.SeverityHigh {
		t.Errorf("expected high severity, got %s", got.Severity)
	}
	if got.Latitude == 0 || got.Longitude == 0 {
		t.Error("expected non-zero coordinates")
	}
}

func TestResolve_CaseInsensitive(t *testing.T) {
	r := NewStatic()

	lower, err := r.Resolve("severe flooding in mumbai after heavy monsoon rains")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	upper, err := r.Resolve("SEVERE FLOODING IN MUMBAI AFTER HEAVY MONSOON RAINS")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if lower != upper {
		t.Errorf("resolution should be case-insensitive: %+v vs %+v", lower, upper)
	}
	if lower.DisasterType != models.DisasterTypeFlood {
		t.Errorf("expected flood, got %s", lower.DisasterType)
	}
	if lower.Severity != models.SeverityHigh {
		t.Errorf("expected high severity for 'severe', got %s", lower.Severity)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	r := NewStatic()
	text := "Hurricane heading towards Florida coast"

	first, err := r.Resolve(text)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := r.Resolve(text)
		if err != nil {
			t.Fatalf("Resolve failed on iteration %d: %v", i, err)
		}
		if again != first {
			t.Fatalf("resolution not deterministic: %+v vs %+v", again, first)
		}
	}
}

func TestResolve_EarliestMentionWins(t *testing.T) {
	r := NewStatic()

	got, err := r.Resolve("Wildfire near Los Angeles spreading towards San Francisco")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.LocationName != "Los Angeles" {
		t.Errorf("expected earliest mention Los Angeles, got %s", got.LocationName)
	}
	if got.DisasterType != models.DisasterTypeWildfire {
		t.Errorf("expected wildfire, got %s", got.DisasterType)
	}
}

func TestResolve_DefaultSeverityAndType(t *testing.T) {
	r := NewStatic()

	got, err := r.Resolve("Something happened in Jakarta today")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.Severity != models.SeverityMedium {
		t.Errorf("expected default medium severity, got %s", got.Severity)
	}
	if got.DisasterType != models.DisasterTypeOther {
		t.Errorf("expected type other, got %s", got.DisasterType)
	}
}

func TestResolve_UnknownPlace(t *testing.T) {
	r := NewStatic()

	_, err := r.Resolve("Earthquake strikes somewhere remote")
	if err == nil {
		t.Fatal("expected error for unknown place")
	}
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestResolvePlace_LocationString(t *testing.T) {
	r := NewStatic()

	p, err := r.ResolvePlace("Tokyo, Japan")
	if err != nil {
		t.Fatalf("ResolvePlace failed: %v", err)
	}
	if p.Name != "Tokyo" {
		t.Errorf("expected Tokyo, got %s", p.Name)
	}
	if p.Latitude != 35.6762 || p.Longitude != 139.6503 {
		t.Errorf("unexpected coordinates: %f, %f", p.Latitude, p.Longitude)
	}
}
