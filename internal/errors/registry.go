package errors

import "slices"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Configuration Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid statetree.json",
		Detail:   "The statetree.json configuration file is malformed.",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Invalid log level",
		Detail:   "log.level must be one of debug, info, warn or error.",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid log format",
		Detail:   "log.format must be one of text, json or auto.",
	},
	"E123": {
		Category: CategoryConfig,
		Message:  "Invalid inspector address",
		Detail:   "inspect.address must be a host:port pair.",
	},
	"E124": {
		Category: CategoryConfig,
		Message:  "Invalid configuration override",
		Detail:   "An override must be a JSON merge patch object, e.g. '{\"log\":{\"level\":\"debug\"}}'.",
	},
	"E125": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is outside its allowed range.",
	},

	// ============================================
	// CLI Errors (E140-E159)
	// ============================================

	"E140": {
		Category: CategoryCLI,
		Message:  "Script not found",
		Detail:   "The script file does not exist or cannot be read.",
	},
	"E141": {
		Category: CategoryCLI,
		Message:  "Config file not found",
		Detail:   "The configuration file passed with --config does not exist.",
	},

	// ============================================
	// Script Errors (E200-E219)
	// ============================================

	"E200": {
		Category: CategoryScript,
		Message:  "Invalid script",
		Detail:   "The script could not be decoded. Scripts are YAML or JSON documents with a list of steps.",
	},
	"E201": {
		Category: CategoryScript,
		Message:  "Unknown step operation",
		Detail:   "Each step must have op set to splice or set.",
	},
	"E202": {
		Category: CategoryScript,
		Message:  "Step failed",
		Detail:   "A step could not be applied to the list, usually because its index is out of range.",
	},

	// ============================================
	// Replay Errors (E220-E239)
	// ============================================

	"E220": {
		Category: CategoryReplay,
		Message:  "Invalid filter expression",
		Detail:   "The --where expression could not be compiled. It must evaluate to a boolean over index, removed, added and step.",
	},
	"E221": {
		Category: CategoryReplay,
		Message:  "Filter evaluation failed",
		Detail:   "The --where expression failed for a splice.",
	},

	// ============================================
	// Inspector Errors (E240-E259)
	// ============================================

	"E240": {
		Category: CategoryInspect,
		Message:  "Inspector failed",
		Detail:   "The inspector HTTP server stopped with an error.",
	},
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
