package errors

// Error codes used across the runtime.
const (
	CodeInvalidPath      = "E100"
	CodeMiddleware       = "E101"
	CodeCircularUpdate   = "E102"
	CodeSubscriber       = "E103"
	CodeComponentRender  = "E104"
	CodeAsyncRejection   = "E105"
	CodeUnknownComponent = "E106"
	CodeBinding          = "E107"
	CodeConfig           = "E108"
	CodePersistence      = "E109"
	CodeUsage            = "E110"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	CodeInvalidPath: {
		Category: CategoryState,
		Message:  "Invalid state path",
		Detail:   "Paths are dot-separated, non-empty, and may not contain empty segments or \"..\". Reads of an invalid path return the default value; writes are dropped.",
	},
	CodeMiddleware: {
		Category: CategoryState,
		Message:  "Middleware failed",
		Detail:   "A middleware returned an error or panicked. The value it received was passed on unchanged and the rest of the chain still ran.",
	},
	CodeCircularUpdate: {
		Category: CategoryState,
		Message:  "Circular update dropped",
		Detail:   "A write targeted a path whose own notification was still running. The nested write was dropped and is not retried.",
	},
	CodeSubscriber: {
		Category: CategoryState,
		Message:  "Subscriber failed",
		Detail:   "A subscriber panicked while being notified. The remaining subscribers were still notified.",
	},
	CodeComponentRender: {
		Category: CategoryComponent,
		Message:  "Component failed to render",
		Detail:   "The component function or its render callback panicked or returned an unsupported result. An inline error node was rendered in its place.",
	},
	CodeAsyncRejection: {
		Category: CategoryAsync,
		Message:  "Asynchronous value rejected",
		Detail:   "A future used as a prop, a render result, or a binding value was rejected. Its placeholder was replaced with an inline error node.",
	},
	CodeUnknownComponent: {
		Category: CategoryComponent,
		Message:  "Unknown component",
		Detail:   "No component is registered under this name.",
	},
	CodeBinding: {
		Category: CategoryBinding,
		Message:  "Binding evaluation failed",
		Detail:   "A reactive binding's compute function panicked. The previously applied value was kept.",
	},
	CodeConfig: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration file could not be read or failed validation.",
	},
	CodePersistence: {
		Category: CategoryState,
		Message:  "Snapshot persistence failed",
		Detail:   "A state snapshot could not be encoded, stored, or loaded.",
	},
	CodeUsage: {
		Category: CategoryCLI,
		Message:  "Invalid command usage",
		Detail:   "The command was called with missing or conflicting arguments.",
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
