package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig defines CORS configuration options.
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig allows browser extension surfaces alongside local
// development origins.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{
			"chrome-extension://*",
			"moz-extension://*",
			"http://localhost:*",
			"http://127.0.0.1:*",
		},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Content-Length",
			"Accept",
			"Origin",
			"Cache-Control",
			"X-Requested-With",
		},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
}

// CORS creates a CORS middleware with the provided configuration.
// Wildcard patterns in AllowOrigins are matched by prefix.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	var exact []string
	var prefixes []string
	for _, o := range cfg.AllowOrigins {
		if strings.HasSuffix(o, "*") {
			prefixes = append(prefixes, strings.TrimSuffix(o, "*"))
		} else {
			exact = append(exact, o)
		}
	}

	conf := cors.Config{
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}
	if len(prefixes) == 0 {
		conf.AllowOrigins = exact
	} else {
		conf.AllowOriginFunc = func(origin string) bool {
			for _, e := range exact {
				if origin == e {
					return true
				}
			}
			for _, p := range prefixes {
				if strings.HasPrefix(origin, p) {
					return true
				}
			}
			return false
		}
	}
	return cors.New(conf)
}
