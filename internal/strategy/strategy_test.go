package strategy

import (
	"testing"

	"github.com/hyperifyio/goresolve/internal/source"
)

func TestContentLenCountsRunes(t *testing.T) {
	c := Content{Body: "Ünïcödé"}
	if c.Len() != 7 {
		t.Fatalf("len=%d", c.Len())
	}
}

func TestFloorNeverBelowOne(t *testing.T) {
	if Floor(source.Profile{}) != 1 || Floor(source.Profile{Floor: 150}) != 150 {
		t.Fatalf("unexpected floors")
	}
}
