// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// generate_standards_docs generates a markdown clause reference from standards.yaml.
//
// Usage:
//
//	go run scripts/generate_standards_docs.go > docs/standards_reference.md
//
// The generated documentation includes:
//   - Full standard inventory with authorities
//   - Clause tables with their bound coverage rules
//   - A rule index mapping each rule to the clauses it assesses
//   - Summary statistics
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RegistryYAML is the root structure for YAML deserialization.
type RegistryYAML struct {
	SchemaVersion string         `yaml:"schema_version"`
	Standards     []StandardYAML `yaml:"standards"`
}

// StandardYAML represents a single standard in the YAML file.
type StandardYAML struct {
	ID        string       `yaml:"id"`
	Name      string       `yaml:"name"`
	Authority string       `yaml:"authority"`
	Clauses   []ClauseYAML `yaml:"clauses"`
}

// ClauseYAML represents one clause and the rule that assesses it.
type ClauseYAML struct {
	Ref   string `yaml:"ref"`
	Title string `yaml:"title"`
	Rule  string `yaml:"rule"`
}

// ruleDescs explains each coverage rule in reviewer terms.
var ruleDescs = map[string]string{
	"hazard_review":          "A systematic deviation review exists for the analysis.",
	"risk_ranking":           "Every deviation entry carries a full severity/likelihood/detectability ranking.",
	"high_risk_coverage":     "Every high-band hazard has a consequence scenario on its process node.",
	"protection_adequacy":    "The credited protection layers close each scenario's risk gap.",
	"ipl_independence":       "Claimed protection layers earn their independence credit.",
	"sil_assignment":         "Instrumented protection functions carry an assigned SIL.",
	"residual_risk":          "The mitigated event likelihood sits within the tolerable band.",
	"scenario_documentation": "Scenarios record both the consequence and the initiating cause.",
}

func main() {
	// Read the YAML file
	data, err := os.ReadFile("services/assessment/compliance/standards.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading standards.yaml: %v\n", err)
		os.Exit(1)
	}

	var registry RegistryYAML
	if err := yaml.Unmarshal(data, &registry); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing YAML: %v\n", err)
		os.Exit(1)
	}

	generateMarkdown(registry)
}

// generateMarkdown outputs the full markdown documentation.
func generateMarkdown(registry RegistryYAML) {
	fmt.Println("# Standards Reference")
	fmt.Println()
	fmt.Println("## Overview")
	fmt.Println()
	fmt.Println("This document lists every regulatory standard the compliance engine can assess")
	fmt.Println("against and the deterministic coverage rule bound to each clause. The registry")
	fmt.Println("is defined in `services/assessment/compliance/standards.yaml` and compiled into")
	fmt.Println("the binary; deployments may override it via `STANDARDS_REGISTRY_PATH`.")
	fmt.Println()
	fmt.Printf("**Schema:** %s\n", registry.SchemaVersion)
	fmt.Println()
	fmt.Printf("**Generated:** %s\n", time.Now().Format("2006-01-02 15:04:05 UTC"))
	fmt.Println()

	// Statistics
	totalClauses := 0
	ruleUse := make(map[string]int)
	for _, std := range registry.Standards {
		totalClauses += len(std.Clauses)
		for _, clause := range std.Clauses {
			ruleUse[clause.Rule]++
		}
	}

	fmt.Println("## Summary Statistics")
	fmt.Println()
	fmt.Println("| Metric | Count |")
	fmt.Println("|--------|-------|")
	fmt.Printf("| Standards | %d |\n", len(registry.Standards))
	fmt.Printf("| Total Clauses | %d |\n", totalClauses)
	fmt.Printf("| Coverage Rules | %d |\n", len(ruleUse))
	fmt.Println()

	// Quick reference table
	fmt.Println("---")
	fmt.Println()
	fmt.Println("## Quick Reference")
	fmt.Println()
	fmt.Println("| Standard | Authority | Clauses |")
	fmt.Println("|----------|-----------|---------|")
	for _, std := range registry.Standards {
		fmt.Printf("| `%s` %s | %s | %d |\n", std.ID, std.Name, std.Authority, len(std.Clauses))
	}
	fmt.Println()

	// Detailed sections per standard
	fmt.Println("---")
	fmt.Println()
	for _, std := range registry.Standards {
		fmt.Printf("## %s\n", std.Name)
		fmt.Println()
		fmt.Printf("**ID:** `%s`  \n", std.ID)
		fmt.Printf("**Authority:** %s\n", std.Authority)
		fmt.Println()
		fmt.Println("| Clause | Requirement | Coverage Rule |")
		fmt.Println("|--------|-------------|---------------|")
		for _, clause := range std.Clauses {
			fmt.Printf("| %s | %s | `%s` |\n", clause.Ref, clause.Title, clause.Rule)
		}
		fmt.Println()
	}

	// Rule index
	fmt.Println("---")
	fmt.Println()
	fmt.Println("## Rule Index")
	fmt.Println()
	fmt.Println("This index maps each coverage rule to the clauses it assesses. A clause is")
	fmt.Println("compliant, partially compliant, or non-compliant purely from the analysis")
	fmt.Println("evidence; clauses excluded by site scope evaluate to not applicable.")
	fmt.Println()

	rules := make([]string, 0, len(ruleUse))
	for rule := range ruleUse {
		rules = append(rules, rule)
	}
	sort.Strings(rules)

	fmt.Println("| Rule | Assesses | Bound Clauses |")
	fmt.Println("|------|----------|---------------|")
	for _, rule := range rules {
		var refs []string
		for _, std := range registry.Standards {
			for _, clause := range std.Clauses {
				if clause.Rule == rule {
					refs = append(refs, fmt.Sprintf("%s %s", std.ID, clause.Ref))
				}
			}
		}
		fmt.Printf("| `%s` | %s | %s |\n", rule, ruleDescs[rule], strings.Join(refs, ", "))
	}
	fmt.Println()

	// Footer
	fmt.Println("---")
	fmt.Println()
	fmt.Println("*This document is auto-generated from `services/assessment/compliance/standards.yaml`.*")
	fmt.Println()
	fmt.Println("*To regenerate: `go run scripts/generate_standards_docs.go > docs/standards_reference.md`*")
}
