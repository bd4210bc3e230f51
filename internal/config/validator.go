package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate performs structural validation on the loaded configuration.
func Validate(cfg *GlobalConfig) error {
	validate := validator.New()

	// Custom validation for file existence (optional fields stay valid
	// when empty).
	_ = validate.RegisterValidation("fileexists", func(fl validator.FieldLevel) bool {
		filePath := fl.Field().String()
		if filePath == "" {
			return true
		}
		_, err := os.Stat(filePath)
		return !os.IsNotExist(err)
	})

	_ = validate.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "debug", "info", "warn", "error", "fatal":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("logformat", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "console", "text", "json":
			return true
		default:
			return false
		}
	})

	if err := validate.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			messages := make([]string, 0, len(validationErrors))
			for _, fieldErr := range validationErrors {
				messages = append(messages, fmt.Sprintf(
					"field '%s' failed on '%s' (value: %v)",
					fieldErr.Namespace(), fieldErr.Tag(), fieldErr.Value(),
				))
			}
			return fmt.Errorf("config validation failed: %s", strings.Join(messages, "; "))
		}
		return fmt.Errorf("config validation failed: %w", err)
	}

	// Cross-field contract: enabling the proxy pool without proxies is
	// only valid when auto-fetch may fill the list.
	if cfg.ProxyConfig.Enabled && len(cfg.ProxyConfig.Proxies) == 0 && !cfg.ProxyConfig.AutoFetch {
		return fmt.Errorf("config validation failed: proxy pool enabled with no proxies and auto_fetch off")
	}

	return nil
}
