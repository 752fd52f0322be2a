package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://cohis.dev/docs/errors/"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Config Errors (E100-E119)
	// ============================================

	"E100": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "No cohis.json or cohis.yaml was found in the given directory.",
		DocURL:   docBase + "E100",
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be parsed.",
		DocURL:   docBase + "E101",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid port number",
		Detail:   "The configured port must be between 1 and 65535.",
		DocURL:   docBase + "E102",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Invalid storage configuration",
		Detail:   "The storage driver must be \"disk\" or \"s3\", and each driver needs its location settings.",
		DocURL:   docBase + "E103",
	},
	"E104": {
		Category: CategoryConfig,
		Message:  "Invalid overlay side",
		Detail:   "Overlay sides must be one of top, bottom, left or right.",
		DocURL:   docBase + "E104",
	},
	"E105": {
		Category: CategoryConfig,
		Message:  "Invalid session limits",
		Detail:   "Session event rate, burst and send buffer must be positive.",
		DocURL:   docBase + "E105",
	},
	"E106": {
		Category: CategoryConfig,
		Message:  "Invalid log settings",
		Detail:   "Log level must be debug, info, warn or error and format must be text or json.",
		DocURL:   docBase + "E106",
	},
	"E107": {
		Category: CategoryConfig,
		Message:  "Invalid tracing settings",
		Detail:   "The tracing exporter must be none or stdout.",
		DocURL:   docBase + "E107",
	},

	// ============================================
	// CLI Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryCLI,
		Message:  "Invalid placement arguments",
		Detail:   "The place command needs a side and non-negative anchor, floating and viewport sizes.",
		DocURL:   docBase + "E120",
	},
	"E121": {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The HTTP server stopped with an error.",
		DocURL:   docBase + "E121",
	},
	"E122": {
		Category: CategoryCLI,
		Message:  "Configuration already exists",
		Detail:   "The target directory already has a cohis configuration file.",
		DocURL:   docBase + "E122",
	},

	// ============================================
	// Protocol Errors (E140-E159)
	// ============================================

	"E140": {
		Category: CategoryProtocol,
		Message:  "Malformed frame",
		Detail:   "The client sent a frame that could not be decoded.",
		DocURL:   docBase + "E140",
	},
	"E141": {
		Category: CategoryProtocol,
		Message:  "Unknown widget",
		Detail:   "The event names a widget that does not exist in this session.",
		DocURL:   docBase + "E141",
	},
	"E142": {
		Category: CategoryProtocol,
		Message:  "Event rate exceeded",
		Detail:   "The client sent pointer events faster than the session allows.",
		DocURL:   docBase + "E142",
	},

	// ============================================
	// Validation Errors (E160-E179)
	// ============================================

	"E160": {
		Category: CategoryValidation,
		Message:  "Invalid placement request",
		Detail:   "Sizes must be non-negative, the viewport is required and anchor right/bottom must match the origin plus size.",
		DocURL:   docBase + "E160",
	},
	"E161": {
		Category: CategoryValidation,
		Message:  "Malformed request body",
		Detail:   "The request body could not be decoded.",
		DocURL:   docBase + "E161",
	},

	// ============================================
	// Storage Errors (E180-E199)
	// ============================================

	"E180": {
		Category: CategoryStorage,
		Message:  "Upload too large",
		Detail:   "The uploaded file exceeds the configured size limit.",
		DocURL:   docBase + "E180",
	},
	"E181": {
		Category: CategoryStorage,
		Message:  "Content type not allowed",
		Detail:   "The uploaded file type is not in the allowed list.",
		DocURL:   docBase + "E181",
	},
	"E182": {
		Category: CategoryStorage,
		Message:  "Upload not found",
		Detail:   "No stored file has this ID.",
		DocURL:   docBase + "E182",
	},
	"E183": {
		Category: CategoryStorage,
		Message:  "Storage backend failed",
		Detail:   "The upload store could not complete the operation.",
		DocURL:   docBase + "E183",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
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
