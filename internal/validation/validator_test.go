// Wayfarer - Travel Data Enrichment and Caching Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package validation

import (
	"strings"
	"testing"
)

type poiQuery struct {
	Lat      float64 `validate:"latitude"`
	Lng      float64 `validate:"longitude"`
	Radius   int     `validate:"gte=1,lte=50000"`
	DataType string  `validate:"required,oneof=poi hotel"`
}

func TestValidateStructPasses(t *testing.T) {
	q := poiQuery{Lat: 40.7128, Lng: -74.0060, Radius: 1000, DataType: "poi"}
	if verr := ValidateStruct(&q); verr != nil {
		t.Errorf("unexpected validation error: %v", verr)
	}
}

func TestValidateStructLatitudeOutOfRange(t *testing.T) {
	q := poiQuery{Lat: 95, Lng: 0, Radius: 1000, DataType: "poi"}
	verr := ValidateStruct(&q)
	if verr == nil {
		t.Fatal("want validation error for latitude 95")
	}
	errs := verr.Errors()
	if len(errs) != 1 || errs[0].Field() != "Lat" {
		t.Errorf("errors = %v", errs)
	}
	if !strings.Contains(errs[0].Error(), "latitude") {
		t.Errorf("message = %q, want latitude mention", errs[0].Error())
	}
}

func TestValidateStructMultipleFailures(t *testing.T) {
	q := poiQuery{Lat: -100, Lng: 200, Radius: 0, DataType: "bogus"}
	verr := ValidateStruct(&q)
	if verr == nil {
		t.Fatal("want validation errors")
	}
	if len(verr.Errors()) != 4 {
		t.Errorf("got %d errors, want 4", len(verr.Errors()))
	}

	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q", apiErr.Code)
	}
	if _, ok := apiErr.Details["fields"]; !ok {
		t.Error("multi-error details missing fields list")
	}
}

func TestToAPIErrorSingleFailure(t *testing.T) {
	q := poiQuery{Lat: 0, Lng: 0, Radius: 99999, DataType: "poi"}
	verr := ValidateStruct(&q)
	if verr == nil {
		t.Fatal("want validation error for oversized radius")
	}

	apiErr := verr.ToAPIError()
	if apiErr.Details["field"] != "Radius" {
		t.Errorf("details = %v", apiErr.Details)
	}
	if !strings.Contains(apiErr.Message, "50000") {
		t.Errorf("message = %q, want bound in message", apiErr.Message)
	}
}
