// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package validation

import (
	"strings"
	"testing"
)

type songsRequest struct {
	Songs []string `json:"songs" validate:"required,min=1,max=3,dive,notblank"`
}

type trainRequest struct {
	DatasetURL string `json:"dataset_url" validate:"required,httpurl"`
}

func TestGetValidator_Singleton(t *testing.T) {
	t.Parallel()

	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestValidateStruct_Songs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		songs     []string
		wantField string
		wantTag   string
	}{
		{"valid", []string{"Song A", "Song B"}, "", ""},
		{"nil", nil, "songs", "required"},
		{"empty", []string{}, "songs", "min"},
		{"too many", []string{"a", "b", "c", "d"}, "songs", "max"},
		{"blank entry", []string{"Song A", "   "}, "songs[1]", "notblank"},
		{"empty entry", []string{""}, "songs[0]", "notblank"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			verr := ValidateStruct(&songsRequest{Songs: tt.songs})
			if tt.wantField == "" {
				if verr != nil {
					t.Fatalf("unexpected error: %v", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("expected validation error")
			}
			errs := verr.Errors()
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(errs), verr)
			}
			if errs[0].Field() != tt.wantField || errs[0].Tag() != tt.wantTag {
				t.Errorf("error = %s/%s, want %s/%s", errs[0].Field(), errs[0].Tag(), tt.wantField, tt.wantTag)
			}
		})
	}
}

func TestValidateStruct_HTTPURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url   string
		valid bool
	}{
		{"https://example.com/playlists.csv", true},
		{"http://10.0.0.5:8000/data.csv", true},
		{"ftp://example.com/data.csv", false},
		{"/local/path.csv", false},
		{"https://", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()

			verr := ValidateStruct(&trainRequest{DatasetURL: tt.url})
			if (verr == nil) != tt.valid {
				t.Errorf("ValidateStruct(%q) = %v, want valid=%v", tt.url, verr, tt.valid)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Parallel()

	t.Run("single", func(t *testing.T) {
		t.Parallel()

		apiErr := ValidateStruct(&trainRequest{DatasetURL: "ftp://x"}).ToAPIError()
		if apiErr.Code != ErrorCode {
			t.Errorf("Code = %q", apiErr.Code)
		}
		if apiErr.Message != "dataset_url must be a valid http or https URL" {
			t.Errorf("Message = %q", apiErr.Message)
		}
		if apiErr.Details["field"] != "dataset_url" {
			t.Errorf("Details = %v", apiErr.Details)
		}
	})

	t.Run("multiple", func(t *testing.T) {
		t.Parallel()

		apiErr := ValidateStruct(&songsRequest{Songs: []string{"", " "}}).ToAPIError()
		if !strings.Contains(apiErr.Message, "songs[0]: songs[0] must not be blank") {
			t.Errorf("Message = %q", apiErr.Message)
		}
		fields, ok := apiErr.Details["fields"].([]map[string]interface{})
		if !ok || len(fields) != 2 {
			t.Errorf("Details = %v", apiErr.Details)
		}
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		apiErr := (&RequestValidationError{}).ToAPIError()
		if apiErr.Code != ErrorCode || apiErr.Message != "Validation failed" {
			t.Errorf("got %+v", apiErr)
		}
	})
}

func TestNewFieldError(t *testing.T) {
	t.Parallel()

	verr := NewFieldError("songs", "max", "100", 150, "songs must contain at most 100 items")
	if verr.Error() != "songs must contain at most 100 items" {
		t.Errorf("Error() = %q", verr.Error())
	}
	if got := verr.ToAPIError().Details["tag"]; got != "max" {
		t.Errorf("tag = %v", got)
	}
}

func TestTranslateMinMax_Messages(t *testing.T) {
	t.Parallel()

	verr := ValidateStruct(&songsRequest{Songs: []string{}})
	if verr == nil {
		t.Fatal("expected error")
	}
	if got := verr.Error(); got != "songs must contain at least 1 items" {
		t.Errorf("Error() = %q", got)
	}
}
