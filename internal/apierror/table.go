package apierror

// table is keyed by the canonical Google API status token.
var table = map[string]Entry{
	"INVALID_ARGUMENT": {
		HTTPCode:    400,
		Status:      "INVALID_ARGUMENT",
		Description: "The request body is malformed.",
		Example:     "There is a typo, or a missing required field in your request.",
		Remedy:      "Check the request format, the prompt and the selected model/resolution.",
	},
	"FAILED_PRECONDITION": {
		HTTPCode:    400,
		Status:      "FAILED_PRECONDITION",
		Description: "The Gemini API free tier is not available in your country, or billing is not enabled.",
		Example:     "You are making a request in a region where the free tier is not supported.",
		Remedy:      "Enable billing on the project in Google AI Studio to use the paid tier.",
	},
	"UNAUTHENTICATED": {
		HTTPCode:    401,
		Status:      "UNAUTHENTICATED",
		Description: "The request is missing a valid API key.",
		Example:     "The API key header is empty or the key has been revoked.",
		Remedy:      "Provide a valid Gemini API key.",
	},
	"PERMISSION_DENIED": {
		HTTPCode:    403,
		Status:      "PERMISSION_DENIED",
		Description: "Your API key doesn't have the required permissions.",
		Example:     "You are using the wrong API key, or the model requires allowlisting.",
		Remedy:      "Check that the API key is correct and has access to the requested model.",
	},
	"NOT_FOUND": {
		HTTPCode:    404,
		Status:      "NOT_FOUND",
		Description: "The requested resource wasn't found.",
		Example:     "The model or the operation referenced by the request does not exist.",
		Remedy:      "Check the model name and API version.",
	},
	"RESOURCE_EXHAUSTED": {
		HTTPCode:    429,
		Status:      "RESOURCE_EXHAUSTED",
		Description: "You've exceeded the rate limit or quota.",
		Example:     "You are sending too many requests per minute for your tier.",
		Remedy:      "Wait and retry later, or request a quota increase.",
	},
	"CANCELLED": {
		HTTPCode:    499,
		Status:      "CANCELLED",
		Description: "The operation was cancelled before it finished.",
		Example:     "The client disconnected or the request deadline passed while waiting.",
		Remedy:      "Submit the idea again.",
	},
	"INTERNAL": {
		HTTPCode:    500,
		Status:      "INTERNAL",
		Description: "An unexpected error occurred on Google's side.",
		Example:     "Your input context is too long.",
		Remedy:      "Shorten the prompt or retry after a short wait.",
	},
	"UNAVAILABLE": {
		HTTPCode:    503,
		Status:      "UNAVAILABLE",
		Description: "The service may be temporarily overloaded or down.",
		Example:     "The service is temporarily running out of capacity.",
		Remedy:      "Retry after a short wait, or switch to another model.",
	},
	"DEADLINE_EXCEEDED": {
		HTTPCode:    504,
		Status:      "DEADLINE_EXCEEDED",
		Description: "The service is unable to finish processing within the deadline.",
		Example:     "Your prompt is too large to be processed in time.",
		Remedy:      "Retry with a shorter prompt.",
	},
}
