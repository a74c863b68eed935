//go:build ignore

// Test script to exercise the full compliance pipeline.
// Run with: go run scripts/check_pipeline.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/ProcessSentinel/services/assessment/compliance"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/datatypes"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/lopa"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/middleware"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/scoring"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/store"
)

func main() {
	ctx := context.Background()

	fmt.Println("=== Compliance Pipeline Smoke Test ===")
	fmt.Println()

	// 1. Stage a project with one partially protected analysis
	mem := store.NewMemory()
	project := &datatypes.Project{ID: uuid.NewString(), Name: "Smoke facility"}
	analysis := &datatypes.Analysis{
		ID:        uuid.NewString(),
		ProjectID: project.ID,
		Name:      "Smoke review",
		Entries: []datatypes.RiskEntry{
			{
				ID: uuid.NewString(), NodeRef: "N-1",
				GuideWord: "More", Parameter: "Pressure",
				Deviation: "More pressure in the overhead accumulator",
				Severity:  5, Likelihood: 4, Detectability: 4,
			},
			{
				ID: uuid.NewString(), NodeRef: "N-2",
				GuideWord: "Less", Parameter: "Flow",
				Deviation: "Less reflux flow",
				Severity:  3, Likelihood: 3,
			},
		},
		Scenarios: []datatypes.LopaScenario{
			{
				NodeRef:                    "N-1",
				Description:                "Overpressure of the overhead accumulator",
				Consequence:                "Vessel rupture with flammable release",
				InitiatingEventFrequency:   0.1,
				InitiatingEventDescription: "BPCS pressure control loop fails high",
				TargetFrequency:            1.0e-4,
				IPLs: []datatypes.IPL{
					{
						Name: "High level alarm with operator response",
						Type: datatypes.IPLAlarm, PFD: 0.1,
						IndependentOfInitiator: true,
						IndependentOfOtherIPLs: true,
					},
					{
						Name: "Shared DCS interlock",
						Type: datatypes.IPLInterlock, PFD: 0.01,
						IndependentOfInitiator: false,
						IndependentOfOtherIPLs: true,
					},
				},
			},
		},
	}
	for i := range analysis.Entries {
		score, band, err := scoring.ScoreEntry(&analysis.Entries[i])
		if err != nil {
			log.Fatalf("score entry: %v", err)
		}
		analysis.Entries[i].Score = score
		analysis.Entries[i].Band = band
		fmt.Printf("Entry %s scored %d (%s)\n", analysis.Entries[i].NodeRef, score, band)
	}
	if err := mem.PutProject(ctx, project); err != nil {
		log.Fatalf("put project: %v", err)
	}
	if err := mem.PutAnalysis(ctx, analysis); err != nil {
		log.Fatalf("put analysis: %v", err)
	}

	// 2. Gap-check the scenario on its own
	analyzer := lopa.NewAnalyzer(lopa.DefaultThresholds())
	gap, err := analyzer.Analyze(&analysis.Scenarios[0])
	if err != nil {
		log.Fatalf("gap analysis: %v", err)
	}
	fmt.Printf("\nGap status: %s (ratio %.3g, credited %d, excluded %v)\n",
		gap.GapStatus, gap.GapRatio, gap.CreditedIPLCount, gap.ExcludedIPLs)
	for _, rec := range gap.Recommendations {
		fmt.Printf("  - %s\n", rec)
	}

	// 3. Run the full compliance check
	ag, err := compliance.NewAggregator(compliance.AggregatorConfig{
		Store:  mem,
		Access: store.AllowAll{},
	})
	if err != nil {
		log.Fatalf("build aggregator: %v", err)
	}

	start := time.Now()
	doc, err := ag.AnalysisCompliance(ctx, middleware.LocalPrincipal, analysis.ID, nil)
	if err != nil {
		log.Fatalf("compliance check: %v", err)
	}
	fmt.Printf("\nCompliance check completed in %s\n\n", time.Since(start))

	raw, _ := json.MarshalIndent(doc, "", "  ")
	fmt.Println(string(raw))
}
