// Package config provides centralized configuration management for the
// accident consolidation and reporting tools. It handles loading
// configuration from multiple sources, validation, and path resolution.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern ACC_* for namespacing:
//
//	ACC_YEARS=2023,2025
//	ACC_PATHS_DATA_DIR=/srv/der/planilhas
//	ACC_PATHS_REPORTS_DIR=/srv/der/relatorios
//	ACC_LOGGING_LEVEL=debug
//
// Sources, the canonical column list and the alias table are only read from
// the YAML file since they are structured lists:
//
//	sources:
//	  - {year: 2026, path: Acidentes_DER_2026.xlsx, sheet: "Base de Dados"}
//	schema:
//	  aliases:
//	    - {year: 2026, from: "Rod.", to: "Rodovia"}
//
// Adding a year only requires a new source entry and, when its headers
// drift, alias entries.
//
// # Path Management
//
// Paths resolves the data, reports and logs directories against a base
// directory:
//
//	paths, err := config.NewPaths(cfg.Paths)
//	workbook := paths.GetDataPath("Acidentes_DER_2025.xlsx")
//	table := paths.GetTablePath("top_highways")
//
// # Usage
//
//	cfg, err := config.Load(*configFile)
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
