package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

type Store struct {
	ID              int64     `json:"id"`
	OwnerID         int64     `json:"ownerId"`
	StoreName       string    `json:"storeName"`
	OwnerName       string    `json:"ownerName"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	Address         string    `json:"address"`
	Description     *string   `json:"description"`
	EstablishedYear *int      `json:"establishedYear"`
	Website         *string   `json:"website"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// StoreListing is a store row joined with its owner's display name.
type StoreListing struct {
	Store
	UserFullName string `json:"userFullName"`
}

type StoreProfileRequest struct {
	StoreName       string `json:"storeName" validate:"required,max=100" msg:"required=Store name is required;Store name must be between 1 and 100 characters"`
	OwnerName       string `json:"ownerName" validate:"required,max=100" msg:"required=Owner name is required;Owner name must be between 1 and 100 characters"`
	Email           string `json:"email" validate:"required,email" msg:"Please provide a valid email address"`
	Phone           string `json:"phone" validate:"required,min=5,max=20" msg:"required=Phone number is required;Phone number must be between 5 and 20 characters"`
	Address         string `json:"address" validate:"required,min=5,max=500" msg:"required=Address is required;Address must be between 5 and 500 characters"`
	Description     string `json:"description" validate:"max=1000" msg:"Description must not exceed 1000 characters"`
	EstablishedYear Year   `json:"establishedYear" msg:"Please provide a valid establishment year between 1900 and current year"`
	Website         string `json:"website" validate:"loose_url" msg:"Please provide a valid website URL"`
}

// Normalize trims every text field and lowercases the email. Validation runs
// on the normalized request so the checked values are the stored ones.
func (r *StoreProfileRequest) Normalize() {
	r.StoreName = strings.TrimSpace(r.StoreName)
	r.OwnerName = strings.TrimSpace(r.OwnerName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	r.Address = strings.TrimSpace(r.Address)
	r.Description = strings.TrimSpace(r.Description)
	r.Website = strings.TrimSpace(r.Website)
}

// Year is an optional year that clients send as a number, a numeric string,
// an empty string or null.
type Year struct {
	Value   int
	Set     bool
	Invalid bool
	Raw     string
}

func (y *Year) UnmarshalJSON(data []byte) error {
	*y = Year{Raw: string(data)}
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		y.Raw = s
	} else {
		s = string(data)
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	y.Set = true
	n, err := strconv.Atoi(s)
	if err != nil {
		y.Invalid = true
		return nil
	}
	y.Value = n
	return nil
}

func (y Year) MarshalJSON() ([]byte, error) {
	if !y.Set || y.Invalid {
		return []byte("null"), nil
	}
	return json.Marshal(y.Value)
}

func (y Year) Ptr() *int {
	if !y.Set || y.Invalid {
		return nil
	}
	v := y.Value
	return &v
}

func YearOf(v int) Year {
	return Year{Value: v, Set: true, Raw: strconv.Itoa(v)}
}
