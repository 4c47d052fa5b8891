package httpx

// View names identify what the client should render. They are the JSON
// "view" field of every page response.
const (
	// ViewLoading is rendered while the initial session check is in flight.
	ViewLoading = "loading"

	// Anonymous-facing views.
	ViewHome     = "home"
	ViewLogin    = "login"
	ViewRegister = "register"

	ViewUnauthorized = "unauthorized"

	// Signed-in views.
	ViewProfile   = "profile"
	ViewDashboard = "dashboard"
	ViewBooks     = "books"
)
