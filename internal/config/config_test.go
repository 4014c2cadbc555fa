package config

import "testing"

func validBase() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "voiceline", SSLMode: ""},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
		Restaurant: RestaurantConfig{
			ID:          1,
			OpeningTime: "11:00",
			ClosingTime: "22:00",
		},
	}
}

func TestLoad_ReportsMissingRequired(t *testing.T) {
	// Ensure a clean env by not setting anything and calling validation directly.
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validBase()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "voiceline"
	c.Auth.JWTAudience = "voiceline-api"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaultsSSLMode(t *testing.T) {
	c := validBase()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
}

func TestValidate_RestaurantHours(t *testing.T) {
	c := validBase()
	c.Restaurant.OpeningTime = "25:00"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for bad opening time")
	}

	c = validBase()
	c.Restaurant.OpeningTime = "22:00"
	c.Restaurant.ClosingTime = "11:00"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for closing before opening")
	}
}

func TestValidate_DialogDefaults(t *testing.T) {
	c := validBase()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Dialog.StateTTL <= 0 {
		t.Fatalf("expected state ttl default")
	}
	if c.Dialog.GatherTimeout <= 0 {
		t.Fatalf("expected gather timeout default")
	}
}
