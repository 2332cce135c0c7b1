package security

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

var (
	// Device hardware reports at most a few times a minute; anything faster is
	// a misbehaving or spoofed device.
	deviceRequestsPerMinute = 30
	deviceLimiters          = make(map[string]*rate.Limiter)
	deviceLimiterMutex      sync.Mutex
)

// DeviceRateLimiter throttles the unauthenticated device report endpoint per IP.
func DeviceRateLimiter(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ip := c.RealIP()

		deviceLimiterMutex.Lock()
		limiter, exists := deviceLimiters[ip]
		if !exists {
			limiter = rate.NewLimiter(rate.Limit(float64(deviceRequestsPerMinute)/60), deviceRequestsPerMinute)
			deviceLimiters[ip] = limiter
		}
		deviceLimiterMutex.Unlock()

		if !limiter.Allow() {
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded. Please try again later.",
			})
		}

		return next(c)
	}
}
