package config

import "time"

const (
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8000
	DefaultEnvironment = "development"
	DefaultAPIPrefix   = "/api/v1"
	DefaultLogLevel    = "info"

	DefaultRateLimitPerMinute = 60

	DefaultDBMaxOpenConns    = 10
	DefaultDBMaxIdleConns    = 5
	DefaultDBConnMaxLifetime = 300 // seconds
	DefaultStatementTimeout  = 30  // seconds
	DefaultMaxRows           = 10000

	DefaultSchemaSource   = SchemaSourceCatalog
	DefaultSchemaCacheTTL = 300 // seconds

	DefaultLLMProvider          = "gemini"
	DefaultLLMTemperature       = 0.0
	DefaultLLMMaxTokens         = 1024
	DefaultGenerationTimeout    = 60 // seconds
	DefaultGenerationMaxRetries = 3
	DefaultBreakerFailures      = 5
	DefaultBreakerCooldown      = 30 // seconds

	DefaultAgentTimeout = 300 // seconds

	DefaultMaxPromptLength = 2000

	DefaultSMTPHost = "smtp.gmail.com"
	DefaultSMTPPort = 587

	DefaultReportSchedule   = "0 9 * * *"
	DefaultReportRunTimeout = 5 * time.Minute
	DefaultTargetSource     = TargetSourceMySQL
	DefaultTargetSheetRange = "Target!A:B"

	DefaultCORSMaxAge = 300
)

// Schema sources
const (
	SchemaSourceCatalog = "catalog"
	SchemaSourceStatic  = "static"
)

// Target sources
const (
	TargetSourceMySQL  = "mysql"
	TargetSourceSheets = "sheets"
)

var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:8080",
}

// DefaultPivotCategories are the loan classifications shown as pivot columns.
var DefaultPivotCategories = []string{"A", "B", "C", "D"}

var DefaultSensitiveColumns = []string{
	"contact", "address", "phone", "email",
	"password", "secret", "token", "api_key",
}

var DefaultPIIKeywords = []string{
	"password", "aadhaar", "aadhar", "pan number", "pan card",
	"ssn", "credit card", "cvv", "otp", "api key",
}
