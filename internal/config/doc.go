// Package config provides configuration management for the Seismo Cardio API.
//
// Configuration is loaded from environment variables using the env package.
// Every value has a default, so a bare process listens on 0.0.0.0:8080 with
// an open CORS policy and an in-process event bus.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("HTTP server will listen on %s\n", cfg.GetHTTPAddr())
package config
