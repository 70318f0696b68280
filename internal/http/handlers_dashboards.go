package httpx

import (
	"net/http"
	"time"

	domainauth "github.com/pulsenet/sessiond/internal/domain/auth"
)

// DashboardHandlers serves the role-restricted dashboard payloads. The
// interesting part is the route guard in front of each handler; the payloads
// themselves are summaries a frontend renders.
type DashboardHandlers struct {
	Now func() time.Time // Optional: clock override for tests
}

func (h *DashboardHandlers) now() time.Time {
	if h != nil && h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// dashboardResponse is the common shape of every dashboard payload.
type dashboardResponse struct {
	Dashboard   string             `json:"dashboard"`
	GeneratedAt time.Time          `json:"generated_at"`
	Greeting    string             `json:"greeting,omitempty"`
	Role        domainauth.Role    `json:"role,omitempty"`
	Sections    []dashboardSection `json:"sections"`
}

type dashboardSection struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

func (h *DashboardHandlers) respond(w http.ResponseWriter, r *http.Request, name string, sections []dashboardSection) {
	resp := dashboardResponse{
		Dashboard:   name,
		GeneratedAt: h.now().UTC(),
		Sections:    sections,
	}
	if session, ok := GetSessionFromContext(r.Context()); ok {
		resp.Greeting = "Welcome back, " + session.Identity.DisplayName
		resp.Role = session.Identity.Role
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Worker serves the clinical staff dashboard.
// GET /api/dashboard/worker.
func (h *DashboardHandlers) Worker(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "worker", []dashboardSection{
		{Title: "Today's Shifts", Items: []string{"07:00-15:00 Emergency Medicine"}},
		{Title: "Open Tasks", Items: []string{"Complete intake forms", "Review lab results"}},
	})
}

// PeopleOps serves the HR dashboard.
// GET /api/dashboard/people-ops.
func (h *DashboardHandlers) PeopleOps(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "people-ops", []dashboardSection{
		{Title: "Pending Reviews", Items: []string{"3 annual reviews due this week"}},
		{Title: "Onboarding", Items: []string{"2 new hires starting Monday"}},
	})
}

// Admin serves the administration dashboard.
// GET /api/dashboard/admin.
func (h *DashboardHandlers) Admin(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "admin", []dashboardSection{
		{Title: "System Status", Items: []string{"All services operational"}},
		{Title: "Access Requests", Items: []string{"1 pending supervisor approval"}},
	})
}

// Executive serves the executive dashboard.
// GET /api/dashboard/executive.
func (h *DashboardHandlers) Executive(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "executive", []dashboardSection{
		{Title: "Occupancy", Items: []string{"Bed occupancy at 82%"}},
		{Title: "Quarterly Metrics", Items: []string{"Patient satisfaction up 4 points"}},
	})
}

// Notices serves the public visitor notice board. No session is required;
// when one is present the greeting is personalized.
// GET /api/visitors/notices.
func (h *DashboardHandlers) Notices(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "visitors", []dashboardSection{
		{Title: "Visiting Hours", Items: []string{"Daily 10:00-20:00"}},
		{Title: "Notices", Items: []string{"Flu season: masks required in patient wards"}},
	})
}
