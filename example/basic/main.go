package main

import (
	"context"
	"fmt"
	"log"

	"github.com/kmorland/hydrolink"
	"github.com/kmorland/hydrolink/helper"
	"github.com/kmorland/hydrolink/model"
	"github.com/twpayne/go-geom"
)

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	h, err := hydrolink.NewHydrolink(dbConfig)
	if err != nil {
		log.Fatalf("Failed to create hydrolink: %v", err)
	}
	defer h.Close()

	// A small river in two representations: a coarse source network carrying
	// the level-path numbering and a finer target network carrying the unit
	// member segments. Both share segment ids at the headwater and outlet.
	outlet := int64(3)

	fmt.Println("Loading source network...")
	err = h.Segments.InsertSegments([]*model.Segment{
		{ID: 3, LevelPathID: 100, Sequence: 10, ReachCode: "01010101000003", ToMeasure: 100,
			Geom: geom.NewLineStringFlat(geom.XY, []float64{0, 0, 10, 0})},
		{ID: 1, DownstreamID: &outlet, LevelPathID: 100, Sequence: 20, ReachCode: "01010101000001", ToMeasure: 100,
			Geom: geom.NewLineStringFlat(geom.XY, []float64{10, 0, 20, 0})},
	}, model.NetworkSource)
	if err != nil {
		log.Fatalf("Failed to insert source segments: %v", err)
	}

	fmt.Println("Loading target network...")
	err = h.Segments.InsertSegments([]*model.Segment{
		{ID: 3, LevelPathID: 1001, Sequence: 7, ReachCode: "01010101000003", ToMeasure: 100,
			Geom: geom.NewLineStringFlat(geom.XY, []float64{0, 0, 10, 0})},
		{ID: 1, DownstreamID: &outlet, LevelPathID: 1001, Sequence: 12, ReachCode: "01010101000001", ToMeasure: 100,
			Geom: geom.NewLineStringFlat(geom.XY, []float64{10, 0, 20, 0})},
	}, model.NetworkTarget)
	if err != nil {
		log.Fatalf("Failed to insert target segments: %v", err)
	}

	fmt.Println("Loading hydrologic units...")
	unit := &model.HydrologicUnit{
		ID:             "010100010101",
		DownstreamID:   "010100010102",
		Type:           model.UnitTypeStandard,
		MemberSegments: []int64{3},
		Boundary: geom.NewPolygonFlat(geom.XY, []float64{
			4, -2, 6, -2, 6, 2, 4, 2, 4, -2,
		}, []int{10}),
		Metadata: model.Metadata{"name": "Example Basin"},
	}
	if err := h.Units.InsertUnit(unit); err != nil {
		log.Fatalf("Failed to insert unit: %v", err)
	}

	// Run the conflation pipeline
	config := model.DefaultRunConfig("example_run")
	config.WorkerCount = 2

	fmt.Println("Conflating and linking...")
	report, err := h.ConflateAndLink(context.Background(), config)
	if err != nil {
		log.Fatalf("Failed to run conflation: %v", err)
	}

	fmt.Printf("\nRun %s finished in %s\n", report.RunKey, report.FinishedAt.Sub(report.StartedAt))
	fmt.Printf("Linked units: %d\n", report.Linked)
	fmt.Printf("Excluded units: %d\n", len(report.Excluded))
	fmt.Printf("Problem units: %d\n", len(report.Problems))

	// Display the linked points
	points, err := h.Points.SelectPointsByRun(report.RunKey)
	if err != nil {
		log.Fatalf("Failed to select points: %v", err)
	}
	for i, point := range points {
		fmt.Printf("\n--- Point %d ---\n", i+1)
		fmt.Printf("Unit: %s\n", point.UnitID)
		fmt.Printf("Reach: %s at measure %.1f\n", point.ReachCode, point.Measure)
		fmt.Printf("Level path: %d\n", point.LevelPathID)
		fmt.Printf("Method: %s\n", point.Method)
	}

	// A rerun under the same key resumes from the stored output
	rerun, err := h.ConflateAndLink(context.Background(), config)
	if err != nil {
		log.Fatalf("Failed to rerun conflation: %v", err)
	}
	fmt.Printf("\nRerun from checkpoint: %v\n", rerun.FromCheckpoint)

	fmt.Println("\nBasic example completed successfully!")
}
