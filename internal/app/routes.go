package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)

	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(app.recoverPanic)

	r.Get("/health", app.GetHealth)
	r.Get("/showtimes/seats", app.GetShowtimeSeatsHandler)

	r.Group(func(r chi.Router) {
		r.Use(app.authenticate)

		r.Route("/bookings", func(r chi.Router) {
			r.With(app.requireCustomer).Post("/", app.CreateBookingHandler)
			r.With(app.requireCustomer).Get("/", app.GetMyBookingsHandler)

			r.Get("/{bookingID}", app.GetBookingDetailHandler)
			r.Delete("/{bookingID}", app.CancelBookingHandler)
			r.Patch("/{bookingID}/payment", app.UpdatePaymentStatusHandler)
			r.With(app.requireStaff).Post("/{bookingID}/scan", app.ScanBookingHandler)
		})

		r.With(app.requireStaff).Get("/staff/bookings", app.GetAllBookingsHandler)
	})

	return r
}
