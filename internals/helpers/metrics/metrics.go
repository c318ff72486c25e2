package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AttendanceMarks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schoolku",
		Name:      "attendance_marks_total",
		Help:      "Student attendance records written, by path (bulk|quick).",
	}, []string{"kind"})

	AttendanceConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schoolku",
		Name:      "attendance_conflicts_total",
		Help:      "Writes rejected by the per-day uniqueness constraint.",
	}, []string{"subject"})

	StaffSignIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schoolku",
		Name:      "staff_signins_total",
		Help:      "Kiosk sign-ins, by computed status.",
	}, []string{"status"})

	LiveSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "schoolku",
		Name:      "live_subscribers",
		Help:      "Open live attendance subscriptions.",
	})
)

// Handler exposes the default registry on a fiber route.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
