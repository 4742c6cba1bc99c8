// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
)

// DefaultSiteName is shown in the layout header and page titles.
const DefaultSiteName = "Habit Tracker"

var siteName = DefaultSiteName

// SetSiteName overrides the site name. Call once at startup.
func SetSiteName(name string) {
	if name != "" {
		siteName = name
	}
}

// BaseVM contains the fields the shared layout needs. Embed it in page view
// models:
//
//	type dashboardData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
type BaseVM struct {
	SiteName    string
	Title       string
	CurrentPath string

	// CSRFToken goes in the hidden csrf_token field of every POST form.
	CSRFToken string
}

// NewBaseVM creates a populated BaseVM for a page.
func NewBaseVM(r *http.Request, title string) BaseVM {
	return BaseVM{
		SiteName:    siteName,
		Title:       title,
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
	}
}
