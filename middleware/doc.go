// Package middleware provides ready-made links for procedure chains.
//
//	greet := procedure.Query().
//	    Use(middleware.RequestID()).
//	    Use(middleware.Logger(slog.Default())).
//	    Use(middleware.RateLimit(middleware.NewLimiter(10, 20, 0), middleware.ByValue("clientId"))).
//	    Handle(handler)
package middleware
