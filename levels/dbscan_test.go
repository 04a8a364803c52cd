package levels

import (
	"testing"
	"time"

	"tickerpulse/models"
)

func TestClusterLevels_GroupsNearbyPricesDiscardsNoise(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	extrema := []models.ExtremaPoint{
		{Price: 100.0, Type: models.LevelSupport, Timestamp: ts},
		{Price: 100.3, Type: models.LevelSupport, Timestamp: ts.Add(24 * time.Hour)},
		{Price: 99.8, Type: models.LevelSupport, Timestamp: ts.Add(48 * time.Hour)},
		{Price: 250.0, Type: models.LevelSupport, Timestamp: ts.Add(72 * time.Hour)}, // isolated noise point
	}

	c := NewDBSCANClusterer()
	levels := c.ClusterLevels(extrema)

	if len(levels) != 1 {
		t.Fatalf("expected exactly one cluster (noise discarded), got %d", len(levels))
	}
	if levels[0].Touches != 3 {
		t.Errorf("expected cluster of 3 points, got %d touches", levels[0].Touches)
	}
}

func TestClusterLevels_EmptyInput(t *testing.T) {
	c := NewDBSCANClusterer()
	if out := c.ClusterLevels(nil); out != nil {
		t.Errorf("expected nil output for empty input, got %v", out)
	}
}

func TestFilterClusters_KeepsMinTouches(t *testing.T) {
	c := NewDBSCANClusterer()
	levels := []models.PriceLevel{{Touches: 1}, {Touches: 3}, {Touches: 5}}
	out := c.FilterClusters(levels, 3)
	if len(out) != 2 {
		t.Errorf("expected 2 levels with touches >= 3, got %d", len(out))
	}
}
