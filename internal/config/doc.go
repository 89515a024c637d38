// Package config manages the nubops configuration stored in YAML format.
//
// Configuration is stored in the user's home directory at
// ~/.config/nubops/config.yaml and provides defaults for the global command
// line flags plus symbols shared by all recipes.
//
// Example config.yaml:
//
//	mode: write
//	target_folder: /
//	templates: /home/ops/nubops-templates
//	symbols:
//	  user: deploy
//	  group: deploy
//
// Symbols from the config have the lowest precedence: recipe option
// defaults, --set values, arguments and option flags all override them.
//
// # Build Modes
//
// ModeShow prints rendered templates without changing anything. ModeWrite
// writes targets but refuses to replace existing ones, and ModeOverwrite
// replaces them.
//
// # Thread Safety
//
// Config operations are NOT thread-safe. Callers must implement their own
// synchronization if accessing Config from multiple goroutines.
package config
