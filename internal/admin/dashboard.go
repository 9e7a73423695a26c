// Package admin serves the owner's dashboard: booking and revenue rollups
// plus the work queue of appointments that still need a human touch.
package admin

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

// DashboardHandler handles the dashboard overview endpoints.
type DashboardHandler struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(db *sql.DB, logger *logging.Logger) *DashboardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &DashboardHandler{
		db:     db,
		logger: logger,
	}
}

// DashboardOverviewResponse contains the main dashboard metrics.
type DashboardOverviewResponse struct {
	Period         string          `json:"period"`
	Bookings       BookingStats    `json:"bookings"`
	Revenue        RevenueStats    `json:"revenue"`
	Customers      CustomerStats   `json:"customers"`
	Loyalty        LoyaltyStats    `json:"loyalty"`
	PendingActions []PendingAction `json:"pending_actions"`
}

// BookingStats contains appointment counts.
type BookingStats struct {
	Total          int `json:"total"`
	Upcoming       int `json:"upcoming"`
	ThisWeek       int `json:"this_week"`
	CancelledCount int `json:"cancelled_count"`
	RecurringPlans int `json:"recurring_plans"`
}

// RevenueStats contains booked revenue rollups.
type RevenueStats struct {
	TotalCents    int `json:"total_cents"`
	ThisWeekCents int `json:"this_week_cents"`
	AverageCents  int `json:"average_cents"`
}

// CustomerStats contains customer counts.
type CustomerStats struct {
	Total       int `json:"total"`
	NewThisWeek int `json:"new_this_week"`
	Returning   int `json:"returning"`
}

// LoyaltyStats contains outstanding loyalty liability.
type LoyaltyStats struct {
	OutstandingPoints int `json:"outstanding_points"`
	RedemptionsWeek   int `json:"redemptions_this_week"`
}

// PendingAction represents an appointment or task requiring attention.
type PendingAction struct {
	Type        string `json:"type"`
	Priority    string `json:"priority"`
	Description string `json:"description"`
	Count       int    `json:"count"`
	Link        string `json:"link,omitempty"`
}

// GetDashboardOverview returns the main dashboard overview.
// GET /admin/dashboard
func (h *DashboardHandler) GetDashboardOverview(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "week"
	}

	dashboard := DashboardOverviewResponse{Period: period}

	now := time.Now()
	weekAgo := now.AddDate(0, 0, -7)

	// Booking counts
	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments`,
	).Scan(&dashboard.Bookings.Total)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments WHERE scheduled_at > $1 AND status = 'scheduled'`, now,
	).Scan(&dashboard.Bookings.Upcoming)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments WHERE created_at >= $1`, weekAgo,
	).Scan(&dashboard.Bookings.ThisWeek)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments WHERE status = 'cancelled'`,
	).Scan(&dashboard.Bookings.CancelledCount)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM recurring_plans WHERE active = TRUE`,
	).Scan(&dashboard.Bookings.RecurringPlans)

	// Revenue
	h.db.QueryRowContext(r.Context(),
		`SELECT COALESCE(SUM(total_cents), 0) FROM appointments WHERE status != 'cancelled'`,
	).Scan(&dashboard.Revenue.TotalCents)

	h.db.QueryRowContext(r.Context(),
		`SELECT COALESCE(SUM(total_cents), 0) FROM appointments WHERE status != 'cancelled' AND created_at >= $1`, weekAgo,
	).Scan(&dashboard.Revenue.ThisWeekCents)

	completed := dashboard.Bookings.Total - dashboard.Bookings.CancelledCount
	if completed > 0 {
		dashboard.Revenue.AverageCents = dashboard.Revenue.TotalCents / completed
	}

	// Customers
	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM customers`,
	).Scan(&dashboard.Customers.Total)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM customers WHERE created_at >= $1`, weekAgo,
	).Scan(&dashboard.Customers.NewThisWeek)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM (
			SELECT customer_id FROM appointments GROUP BY customer_id HAVING COUNT(*) > 1
		 ) repeat_customers`,
	).Scan(&dashboard.Customers.Returning)

	// Loyalty liability
	h.db.QueryRowContext(r.Context(),
		`SELECT COALESCE(SUM(points), 0) FROM loyalty_accounts`,
	).Scan(&dashboard.Loyalty.OutstandingPoints)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments WHERE COALESCE(reward_id, '') != '' AND created_at >= $1`, weekAgo,
	).Scan(&dashboard.Loyalty.RedemptionsWeek)

	dashboard.PendingActions = h.getPendingActions(r)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dashboard)
}

func (h *DashboardHandler) getPendingActions(r *http.Request) []PendingAction {
	var actions []PendingAction

	// Fallback bookings that still need a confirmed start time
	var needsTime int
	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments WHERE needs_time_confirmation = TRUE AND status = 'scheduled'`,
	).Scan(&needsTime)
	if needsTime > 0 {
		actions = append(actions, PendingAction{
			Type:        "time_confirmation",
			Priority:    "high",
			Description: "Appointments booked without a confirmed time slot",
			Count:       needsTime,
			Link:        "/admin/appointments?filter=needs_time",
		})
	}

	// Dragged pins that drifted from the geocoded address
	var needsReview int
	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments WHERE address_needs_review = TRUE AND status = 'scheduled'`,
	).Scan(&needsReview)
	if needsReview > 0 {
		actions = append(actions, PendingAction{
			Type:        "address_review",
			Priority:    "medium",
			Description: "Appointments with a manually adjusted map pin",
			Count:       needsReview,
			Link:        "/admin/appointments?filter=address_review",
		})
	}

	return actions
}

// AppointmentListItem represents an appointment in the list response.
type AppointmentListItem struct {
	ID           string  `json:"id"`
	CustomerName string  `json:"customer_name"`
	Phone        string  `json:"phone"`
	ServiceName  string  `json:"service_name"`
	Address      string  `json:"address"`
	ScheduledAt  *string `json:"scheduled_at,omitempty"`
	ServiceDate  string  `json:"service_date,omitempty"`
	TotalCents   int     `json:"total_cents"`
	Status       string  `json:"status"`
	NeedsTime    bool    `json:"needs_time_confirmation"`
}

// ListAppointmentsResponse contains the upcoming appointment list.
type ListAppointmentsResponse struct {
	Appointments []AppointmentListItem `json:"appointments"`
	Total        int                   `json:"total"`
}

// ListAppointments returns upcoming appointments, soonest first.
// GET /admin/appointments
func (h *DashboardHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := `
		SELECT a.id, c.name, c.phone, a.service_name, a.address,
		       a.scheduled_at, a.service_date, a.total_cents, a.status,
		       a.needs_time_confirmation
		FROM appointments a
		JOIN customers c ON c.id = a.customer_id
		WHERE a.status = 'scheduled'
		ORDER BY a.service_date ASC, a.scheduled_at ASC NULLS LAST
		LIMIT 100
	`

	rows, err := h.db.QueryContext(ctx, query)
	if err != nil {
		h.logger.Error("failed to query appointments", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var items []AppointmentListItem
	for rows.Next() {
		var item AppointmentListItem
		var scheduledAt sql.NullTime
		var serviceDate sql.NullString

		if err := rows.Scan(&item.ID, &item.CustomerName, &item.Phone, &item.ServiceName,
			&item.Address, &scheduledAt, &serviceDate, &item.TotalCents, &item.Status,
			&item.NeedsTime); err != nil {
			h.logger.Error("failed to scan appointment row", "error", err)
			continue
		}

		if scheduledAt.Valid {
			formatted := scheduledAt.Time.Format(time.RFC3339)
			item.ScheduledAt = &formatted
		}
		item.ServiceDate = serviceDate.String
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		h.logger.Error("error iterating appointment rows", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := ListAppointmentsResponse{
		Appointments: items,
		Total:        len(items),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode appointments response", "error", err)
	}
}

// RegisterRoutes registers the admin dashboard routes.
func RegisterRoutes(r chi.Router, db *sql.DB, logger *logging.Logger) {
	handler := NewDashboardHandler(db, logger)

	r.Get("/dashboard", handler.GetDashboardOverview)
	r.Get("/appointments", handler.ListAppointments)
}
