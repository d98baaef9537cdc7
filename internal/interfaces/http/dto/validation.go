package dto

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("datefilter", validDateFilter)
	}
}

// validDateFilter accepts the date spellings the listing understands:
// RFC3339, YYYY-MM-DD, or positive unix seconds.
func validDateFilter(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if raw == "" {
		return true
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return secs > 0
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if _, err := time.Parse(layout, raw); err == nil {
			return true
		}
	}
	return false
}
