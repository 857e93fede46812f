package appdata

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/sqlboiler/v4/types"

	"github.com/trezcool/rekodi/core"
)

// Record is one datum stored by a consuming application on behalf of a
// student. The (StudentID, AppKey, DataKey) triple is unique: at most one
// live record exists per owner/namespace/key combination.
//
// ID, StudentID and CreatedAt are immutable once set; UpdatedAt advances on
// every value mutation. The value itself is an arbitrary JSON structure
// stored opaquely.
type Record struct {
	ID        string     `json:"-"`
	StudentID string     `json:"-"`
	AppKey    string     `json:"app_key"`
	DataKey   string     `json:"data_key"`
	DataValue types.JSON `json:"data_value"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewRecord contains information needed to store a Record.
type NewRecord struct {
	AppKey    string     `json:"app_key" validate:"required,max=100,keyname"`
	DataKey   string     `json:"data_key" validate:"required,max=200,keyname"`
	DataValue types.JSON `json:"data_value" validate:"required"`
}

func (nr *NewRecord) Validate(validate *validator.Validate) error {
	nr.AppKey = core.CleanString(nr.AppKey)
	nr.DataKey = core.CleanString(nr.DataKey)
	return validate.Struct(nr)
}

// UpdateRecord carries a replacement value for an existing Record.
type UpdateRecord struct {
	DataValue types.JSON `json:"data_value" validate:"required"`
}

func (ur *UpdateRecord) Validate(validate *validator.Validate) error {
	return validate.Struct(ur)
}
