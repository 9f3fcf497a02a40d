package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/invoiceforge/internal/model"
)

// DecodeSettings decodes the settings row over model.DefaultSettings.
// Missing fields keep their default and mistyped fields are skipped.
func DecodeSettings(data []byte) (model.AppSettings, error) {
	s := model.DefaultSettings()
	if err := json.Unmarshal(data, &s); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return model.DefaultSettings(), fmt.Errorf("decode settings: %w", err)
		}
	}
	s.ID = model.SettingsKey
	return s, nil
}
