package logger

import "go.uber.org/zap"

// New builds the process logger: JSON output in production, console output
// with development stack traces otherwise.
func New(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
