package common

import "testing"

func TestTourPath(t *testing.T) {
	if got := TourPath("TUR-AB23"); got != "tours/TUR-AB23" {
		t.Fatalf("TourPath = %q", got)
	}
}
