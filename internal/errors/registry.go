package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Hook Errors (E001-E019)
	// ============================================

	"E001": {
		Category: CategoryHooks,
		Message:  "Hook called outside a component render",
		Detail:   "Hooks read and write the state chain of the component currently being rendered. They can only be called from a component function while the reconciler invokes it.",
		DocURL:   "https://vango.dev/docs/reconciler/errors/E001",
	},
	"E002": {
		Category: CategoryHooks,
		Message:  "Hook order changed between renders",
		Detail:   "State cells are matched by position. A component must call the same hooks in the same order on every render; avoid hooks inside conditions or loops.",
		DocURL:   "https://vango.dev/docs/reconciler/errors/E002",
	},
	"E003": {
		Category: CategoryRender,
		Message:  "Component panicked during render",
		Detail:   "The work-in-progress tree was discarded and the last committed tree stays published.",
		DocURL:   "https://vango.dev/docs/reconciler/errors/E003",
	},
	"E004": {
		Category: CategoryRender,
		Message:  "Render target failed while building the tree",
		Detail:   "The render-target adapter returned an error while creating an instance. The work-in-progress tree was discarded.",
		DocURL:   "https://vango.dev/docs/reconciler/errors/E004",
	},
	"E005": {
		Category: CategoryCommit,
		Message:  "Render target failed during commit",
		Detail:   "The render target may be partially mutated. The root is poisoned and accepts no further updates.",
		DocURL:   "https://vango.dev/docs/reconciler/errors/E005",
	},
	"E006": {
		Category: CategoryScheduling,
		Message:  "Update scheduled on an unavailable root",
		Detail:   "The root has been unmounted or poisoned by an earlier commit failure.",
		DocURL:   "https://vango.dev/docs/reconciler/errors/E006",
	},
	"E007": {
		Category: CategoryScheduling,
		Message:  "Maximum update depth exceeded",
		Detail:   "A layout effect keeps scheduling synchronous updates, which re-render and re-run the effect. Guard the state update with a condition or a dependency list.",
		DocURL:   "https://vango.dev/docs/reconciler/errors/E007",
	},

	// ============================================
	// Config Errors (E020-E039)
	// ============================================

	"E020": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be parsed.",
		DocURL:   "https://vango.dev/docs/reconciler/errors/E020",
	},
	"E021": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range.",
		DocURL:   "https://vango.dev/docs/reconciler/errors/E021",
	},
}

// GetAllCodes returns all registered error codes in ascending order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
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
